package domain

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// =============================================================================
// Label Errors
// =============================================================================

var (
	ErrUnknownProductGroup = errors.New("unknown product group")
	ErrLayoutNotAvailable  = errors.New("label layout not available for product group")
	ErrUnknownFormat       = errors.New("unknown label format")
)

// LabelError describes a label configuration the carrier would reject.
type LabelError struct {
	Group  ProductGroup
	Layout Layout
	Format Format
	Err    error
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("label %s/%s for %q: %v", e.Layout, e.Format, e.Group, e.Err)
}

func (e *LabelError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Layouts, Formats and Product Groups
// =============================================================================

// Layout is a label page layout. Values are carrier API constants.
type Layout string

const (
	LayoutA4OnePerPage   Layout = "A4-1pp"
	LayoutA4TwoPerPage   Layout = "A4-2pp"
	LayoutA4ThreePerPage Layout = "A4-3pp"
	LayoutA4FourPerPage  Layout = "A4-4pp"
	LayoutA6OnePerPage   Layout = "A6-1PP"
	LayoutA6Thermal      Layout = "THERMAL-LABEL-A6-1PP"
)

// Format is the label file format.
type Format string

const (
	FormatPDF Format = "PDF"
	FormatZPL Format = "ZPL"
)

// ProductGroup is the carrier's grouping of products for label printing.
type ProductGroup string

const (
	GroupParcelPost       ProductGroup = "Parcel Post"
	GroupExpressPost      ProductGroup = "Express Post"
	GroupInternational    ProductGroup = "International"
	GroupStarTrack        ProductGroup = "StarTrack"
	GroupStarTrackCourier ProductGroup = "Startrack Courier"
	GroupOnDemand         ProductGroup = "On Demand"
)

// AvailableLabels maps each product group to the layouts the carrier accepts for it.
var AvailableLabels = map[ProductGroup][]Layout{
	GroupParcelPost: {
		LayoutA4OnePerPage,
		LayoutA4FourPerPage,
		LayoutA6Thermal,
	},
	GroupExpressPost: {
		LayoutA4OnePerPage,
		LayoutA4ThreePerPage,
		LayoutA6Thermal,
	},
	GroupInternational: {
		LayoutA4OnePerPage,
		LayoutA4FourPerPage,
		LayoutA6Thermal,
	},
	GroupStarTrack: {
		LayoutA4OnePerPage,
		LayoutA4TwoPerPage,
		LayoutA4FourPerPage,
		LayoutA6Thermal,
	},
	GroupStarTrackCourier: {
		LayoutA4OnePerPage,
		LayoutA4FourPerPage,
		LayoutA6Thermal,
	},
	GroupOnDemand: {
		LayoutA4OnePerPage,
		LayoutA4FourPerPage,
		LayoutA6Thermal,
	},
}

// =============================================================================
// Label Type
// =============================================================================

// LabelType configures how labels are rendered.
type LabelType struct {
	Layout     Layout  `json:"layout" yaml:"layout"`
	Format     Format  `json:"format" yaml:"format"`
	Branded    bool    `json:"branded" yaml:"branded"`
	LeftOffset float64 `json:"left_offset" yaml:"left_offset"`
	TopOffset  float64 `json:"top_offset" yaml:"top_offset"`
}

// DefaultLabelType returns a branded single A4 page PDF with no offsets.
func DefaultLabelType() LabelType {
	return LabelType{
		Layout:  LayoutA4OnePerPage,
		Format:  FormatPDF,
		Branded: true,
	}
}

// ValidateLabel checks lt against the compatibility table for group.
func ValidateLabel(group ProductGroup, lt LabelType) error {
	if lt.Format != FormatPDF && lt.Format != FormatZPL {
		return &LabelError{Group: group, Layout: lt.Layout, Format: lt.Format, Err: ErrUnknownFormat}
	}

	layouts, ok := AvailableLabels[group]
	if !ok {
		return &LabelError{Group: group, Layout: lt.Layout, Format: lt.Format, Err: ErrUnknownProductGroup}
	}

	if !lo.Contains(layouts, lt.Layout) {
		return &LabelError{Group: group, Layout: lt.Layout, Format: lt.Format, Err: ErrLayoutNotAvailable}
	}

	return nil
}
