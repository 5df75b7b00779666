package domain

// Parcel is a single item within a shipment.
//
// ItemReference is the correlation key used to match carrier results back to
// the parcel after lodgement, so it must be unique within a shipment.
type Parcel struct {
	ItemReference string  `json:"item_reference" yaml:"item_reference"`
	Length        float64 `json:"length" yaml:"length"`
	Width         float64 `json:"width" yaml:"width"`
	Height        float64 `json:"height" yaml:"height"`
	Weight        float64 `json:"weight" yaml:"weight"`

	// Value is the declared value. Zero means no transit cover is requested.
	Value float64 `json:"value,omitempty" yaml:"value"`

	ContainsDangerousGoods bool `json:"contains_dangerous_goods" yaml:"contains_dangerous_goods"`
	AuthorityToLeave       bool `json:"authority_to_leave" yaml:"authority_to_leave"`
	SafeDropEnabled        bool `json:"safe_drop_enabled" yaml:"safe_drop_enabled"`
	AllowPartialDelivery   bool `json:"allow_partial_delivery" yaml:"allow_partial_delivery"`

	// Assigned by the carrier on lodgement.
	ItemID                string `json:"item_id,omitempty" yaml:"-"`
	TrackingArticleID     string `json:"tracking_article_id,omitempty" yaml:"-"`
	TrackingConsignmentID string `json:"tracking_consignment_id,omitempty" yaml:"-"`
}

// HasTransitCover reports whether the parcel carries a declared value.
func (p Parcel) HasTransitCover() bool {
	return p.Value != 0
}

// IsTracked reports whether the carrier identifiers have been written back.
func (p Parcel) IsTracked() bool {
	return p.ItemID != "" && p.TrackingArticleID != "" && p.TrackingConsignmentID != ""
}
