package shipment

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"

	"github.com/artpar/parcelpost/internal/core/carrier"
	"github.com/artpar/parcelpost/internal/core/domain"
)

var (
	ErrUnmatchedParcel   = errors.New("parcel missing from lodgement response")
	ErrUnknownItem       = errors.New("lodgement response item has no local parcel")
	ErrMultipleShipments = errors.New("lodgement response contains more than one shipment")
)

// Correlation reports how a lodgement response lined up with local parcels.
type Correlation struct {
	// ShipmentIDs lists every shipment id in response order. The shipment
	// keeps the last one.
	ShipmentIDs []string

	Matched          []string
	UnmatchedParcels []string
	UnknownItems     []string
}

// Complete reports whether every parcel and every returned item matched and
// exactly one shipment came back.
func (c Correlation) Complete() bool {
	return len(c.UnmatchedParcels) == 0 && len(c.UnknownItems) == 0 && len(c.ShipmentIDs) == 1
}

// Err returns a *CorrelationError describing every gap, or nil.
func (c Correlation) Err() error {
	var result *multierror.Error
	if len(c.ShipmentIDs) > 1 {
		result = multierror.Append(result, fmt.Errorf("%w: %v", ErrMultipleShipments, c.ShipmentIDs))
	}
	for _, ref := range c.UnmatchedParcels {
		result = multierror.Append(result, fmt.Errorf("%w: %s", ErrUnmatchedParcel, ref))
	}
	for _, ref := range c.UnknownItems {
		result = multierror.Append(result, fmt.Errorf("%w: %s", ErrUnknownItem, ref))
	}
	if result == nil {
		return nil
	}
	return &CorrelationError{Correlation: c, errs: result}
}

// CorrelationError aggregates the gaps found while correlating a lodgement.
type CorrelationError struct {
	Correlation Correlation
	errs        *multierror.Error
}

func (e *CorrelationError) Error() string {
	return fmt.Sprintf("lodgement correlation incomplete: %d problem(s): %v", len(e.errs.Errors), e.errs.Errors)
}

func (e *CorrelationError) Unwrap() error {
	return e.errs
}

// ApplyLodgement writes carrier-assigned identifiers back onto s and marks it
// lodged.
//
// Every returned shipment record is applied in order, so the shipment ends up
// with the id and creation date of the last one. Each returned item is copied
// onto every parcel with an identical item reference. Parcels without a match
// are left untouched; the returned Correlation lists them.
//
// If any record lacks an id or has an unparseable creation date, s is not
// modified and an error is returned. The carrier has still accepted the
// shipment in that case, so the returned Correlation carries every non-empty
// shipment id from the response for the caller to label or delete by hand.
func ApplyLodgement(s *domain.Shipment, resp *carrier.ShipmentsResponse) (Correlation, error) {
	if err := domain.ValidateTransition(s.Status, domain.StatusLodged); err != nil {
		return Correlation{}, domain.ErrAlreadyLodged
	}
	if resp == nil || len(resp.Shipments) == 0 {
		return Correlation{}, domain.ErrMissingShipmentID
	}

	received := Correlation{ShipmentIDs: receivedIDs(resp)}
	created := make([]time.Time, len(resp.Shipments))
	for i, rec := range resp.Shipments {
		if rec.ShipmentID == "" {
			return received, domain.ErrMissingShipmentID
		}
		t, err := carrier.ParseCreationDate(rec.ShipmentCreationDate)
		if err != nil {
			return received, err
		}
		created[i] = t
	}

	var corr Correlation
	matched := make(map[string]bool)
	for i, rec := range resp.Shipments {
		lodgedAt := created[i]
		s.ShipmentID = rec.ShipmentID
		s.LodgedAt = &lodgedAt
		corr.ShipmentIDs = append(corr.ShipmentIDs, rec.ShipmentID)

		for _, item := range rec.Items {
			found := false
			for j := range s.Parcels {
				if s.Parcels[j].ItemReference != item.ItemReference {
					continue
				}
				s.Parcels[j].ItemID = item.ItemID
				s.Parcels[j].TrackingArticleID = item.TrackingDetails.ArticleID
				s.Parcels[j].TrackingConsignmentID = item.TrackingDetails.ConsignmentID
				found = true
			}
			if found {
				matched[item.ItemReference] = true
			} else {
				corr.UnknownItems = append(corr.UnknownItems, item.ItemReference)
			}
		}
	}

	for _, p := range s.Parcels {
		if matched[p.ItemReference] {
			corr.Matched = append(corr.Matched, p.ItemReference)
		} else {
			corr.UnmatchedParcels = append(corr.UnmatchedParcels, p.ItemReference)
		}
	}
	corr.Matched = lo.Uniq(corr.Matched)
	corr.UnknownItems = lo.Uniq(corr.UnknownItems)

	if err := s.Transition(domain.StatusLodged); err != nil {
		return corr, err
	}
	return corr, nil
}

func receivedIDs(resp *carrier.ShipmentsResponse) []string {
	ids := lo.FilterMap(resp.Shipments, func(rec carrier.ShipmentResult, _ int) (string, bool) {
		return rec.ShipmentID, rec.ShipmentID != ""
	})
	if len(ids) == 0 {
		return nil
	}
	return ids
}
