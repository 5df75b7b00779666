// Package shipping provides the shipment lifecycle service.
// This is part of the Imperative Shell - it calls the carrier and applies the
// pure request builders and correlator from internal/core/shipment.
package shipping

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artpar/parcelpost/internal/core/carrier"
	"github.com/artpar/parcelpost/internal/core/domain"
	coreshipment "github.com/artpar/parcelpost/internal/core/shipment"
)

// Transport is the carrier API as seen by the service.
type Transport interface {
	GetQuotes(ctx context.Context, req carrier.QuoteRequest) ([]carrier.Quote, error)
	CreateShipments(ctx context.Context, req carrier.ShipmentsRequest) (*carrier.ShipmentsResponse, error)
	GetLabels(ctx context.Context, req carrier.LabelRequest) (string, error)
	DeleteShipment(ctx context.Context, shipmentID string) (bool, error)
}

// Options tunes service behaviour.
type Options struct {
	// StrictCorrelation turns an incomplete lodgement correlation into an
	// error. The shipment is still marked lodged because the carrier has
	// accepted it.
	StrictCorrelation bool
}

// Service runs quote, lodge, label and delete calls for one shipment at a time.
type Service struct {
	transport Transport
	opts      Options
	logger    *slog.Logger
}

// NewService creates a new shipping service.
func NewService(transport Transport, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		transport: transport,
		opts:      opts,
		logger:    logger,
	}
}

// Quote returns carrier prices for the shipment. The shipment is not modified.
func (s *Service) Quote(ctx context.Context, shipment *domain.Shipment) ([]carrier.Quote, error) {
	req, err := coreshipment.BuildQuoteRequest(shipment)
	if err != nil {
		return nil, err
	}

	quotes, err := s.transport.GetQuotes(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get quotes: %w", err)
	}

	s.logger.Debug("quotes received", "items", len(req.Items), "quotes", len(quotes))
	return quotes, nil
}

// Lodge submits the shipment to the carrier and writes the assigned
// identifiers back onto it.
func (s *Service) Lodge(ctx context.Context, shipment *domain.Shipment) (coreshipment.Correlation, error) {
	req, err := coreshipment.BuildLodgeRequest(shipment)
	if err != nil {
		return coreshipment.Correlation{}, err
	}

	resp, err := s.transport.CreateShipments(ctx, req)
	if err != nil {
		return coreshipment.Correlation{}, fmt.Errorf("lodge shipment: %w", err)
	}

	corr, err := coreshipment.ApplyLodgement(shipment, resp)
	if err != nil {
		return corr, fmt.Errorf("apply lodgement: %w", err)
	}

	logger := s.logger.With("shipment_id", shipment.ShipmentID, "reference", shipment.ShipmentReference)
	if len(corr.ShipmentIDs) > 1 {
		logger.Warn("carrier returned several shipments, keeping the last",
			"shipment_ids", corr.ShipmentIDs,
		)
	}
	if len(corr.UnmatchedParcels) > 0 {
		logger.Warn("parcels missing from lodgement response",
			"item_references", corr.UnmatchedParcels,
		)
	}
	if len(corr.UnknownItems) > 0 {
		logger.Warn("lodgement response has items with unknown references",
			"item_references", corr.UnknownItems,
		)
	}
	logger.Info("shipment lodged", "parcels", len(shipment.Parcels), "matched", len(corr.Matched))

	if s.opts.StrictCorrelation {
		if err := corr.Err(); err != nil {
			return corr, err
		}
	}
	return corr, nil
}

// Label requests a label for a lodged shipment and returns its URL.
func (s *Service) Label(ctx context.Context, shipment *domain.Shipment, lt domain.LabelType) (string, error) {
	req, err := coreshipment.BuildLabelRequest(shipment, lt)
	if err != nil {
		return "", err
	}

	url, err := s.transport.GetLabels(ctx, req)
	if err != nil {
		return "", fmt.Errorf("get label: %w", err)
	}

	s.logger.Info("label ready",
		"shipment_id", shipment.ShipmentID,
		"layout", lt.Layout,
		"format", lt.Format,
	)
	return url, nil
}

// Delete deletes a lodged shipment. On success the shipment moves to the
// deleted status and can no longer be labelled or deleted again.
func (s *Service) Delete(ctx context.Context, shipment *domain.Shipment) (bool, error) {
	if !shipment.IsLodged() {
		return false, domain.ErrNotLodged
	}

	ok, err := s.transport.DeleteShipment(ctx, shipment.ShipmentID)
	if err != nil {
		return false, fmt.Errorf("delete shipment: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := shipment.Transition(domain.StatusDeleted); err != nil {
		return false, err
	}
	s.logger.Info("shipment deleted", "shipment_id", shipment.ShipmentID)
	return true, nil
}

// Resume returns a lodged shipment handle for an id obtained earlier, so that
// labels can be requested or the shipment deleted without lodging again.
func Resume(shipmentID string, group domain.ProductGroup) *domain.Shipment {
	s := domain.NewShipment()
	s.ShipmentID = shipmentID
	if group != "" {
		s.ProductGroup = group
	}
	s.Status = domain.StatusLodged
	return s
}
