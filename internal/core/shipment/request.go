// Package shipment builds carrier requests from a domain.Shipment and maps
// carrier responses back onto it.
//
// This is part of the functional core: every function here is pure apart
// from ApplyLodgement, which mutates only the shipment it is given.
package shipment

import (
	"github.com/samber/lo"

	"github.com/artpar/parcelpost/internal/core/carrier"
	"github.com/artpar/parcelpost/internal/core/domain"
)

// BuildQuoteRequest builds a pricing request. Only postcode and country are
// sent for each address.
func BuildQuoteRequest(s *domain.Shipment) (carrier.QuoteRequest, error) {
	if err := s.CheckReady(); err != nil {
		return carrier.QuoteRequest{}, err
	}

	return carrier.QuoteRequest{
		From: carrier.QuoteAddress{Postcode: s.From.Postcode, Country: s.From.Country},
		To:   carrier.QuoteAddress{Postcode: s.To.Postcode, Country: s.To.Country},
		Items: lo.Map(s.Parcels, func(p domain.Parcel, _ int) carrier.QuoteItem {
			return carrier.QuoteItem{
				ItemReference: p.ItemReference,
				Length:        p.Length,
				Height:        p.Height,
				Width:         p.Width,
				Weight:        p.Weight,
				Features:      features(p),
			}
		}),
	}, nil
}

// BuildLodgeRequest builds the lodgement envelope for a draft shipment.
func BuildLodgeRequest(s *domain.Shipment) (carrier.ShipmentsRequest, error) {
	if err := domain.ValidateTransition(s.Status, domain.StatusLodged); err != nil {
		return carrier.ShipmentsRequest{}, domain.ErrAlreadyLodged
	}
	if err := s.CheckReady(); err != nil {
		return carrier.ShipmentsRequest{}, err
	}

	to := addressPayload(*s.To)
	instructions := s.DeliveryInstructions
	to.DeliveryInstructions = &instructions

	payload := carrier.ShipmentPayload{
		ShipmentReference:    s.ShipmentReference,
		CustomerReference1:   s.CustomerReference1,
		CustomerReference2:   s.CustomerReference2,
		EmailTrackingEnabled: s.EmailTrackingEnabled,
		MovementType:         s.MovementType,
		From:                 addressPayload(*s.From),
		To:                   to,
		Items: lo.Map(s.Parcels, func(p domain.Parcel, _ int) carrier.ShipmentItem {
			return carrier.ShipmentItem{
				ItemReference:          p.ItemReference,
				ProductID:              s.ProductID,
				Length:                 p.Length,
				Height:                 p.Height,
				Width:                  p.Width,
				Weight:                 p.Weight,
				ContainsDangerousGoods: p.ContainsDangerousGoods,
				AuthorityToLeave:       p.AuthorityToLeave,
				SafeDropEnabled:        p.SafeDropEnabled,
				AllowPartialDelivery:   p.AllowPartialDelivery,
				Features:               features(p),
			}
		}),
	}

	return carrier.ShipmentsRequest{Shipments: []carrier.ShipmentPayload{payload}}, nil
}

// BuildLabelRequest builds a label request for a lodged shipment, rejecting
// layouts the shipment's product group does not support.
func BuildLabelRequest(s *domain.Shipment, lt domain.LabelType) (carrier.LabelRequest, error) {
	if !s.IsLodged() || s.ShipmentID == "" {
		return carrier.LabelRequest{}, domain.ErrNotLodged
	}
	if err := domain.ValidateLabel(s.ProductGroup, lt); err != nil {
		return carrier.LabelRequest{}, err
	}

	return carrier.LabelRequest{
		WaitForLabelURL: true,
		Preferences: []carrier.LabelPreference{
			{
				Type:   carrier.PreferencePrint,
				Format: string(lt.Format),
				Groups: []carrier.LabelGroup{
					{
						Group:      string(s.ProductGroup),
						Layout:     string(lt.Layout),
						Branded:    lt.Branded,
						LeftOffset: lt.LeftOffset,
						TopOffset:  lt.TopOffset,
					},
				},
			},
		},
		Shipments: []carrier.LabelShipment{{ShipmentID: s.ShipmentID}},
	}, nil
}

func addressPayload(a domain.Address) carrier.AddressPayload {
	return carrier.AddressPayload{
		Name:         a.Name,
		BusinessName: a.BusinessName,
		Lines:        a.Lines,
		Suburb:       a.Suburb,
		State:        a.State,
		Postcode:     a.Postcode,
		Country:      a.Country,
		Phone:        a.Phone,
		Email:        a.Email,
	}
}

func features(p domain.Parcel) *carrier.Features {
	if !p.HasTransitCover() {
		return nil
	}
	return carrier.NewTransitCover(p.Value)
}
