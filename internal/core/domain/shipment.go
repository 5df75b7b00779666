package domain

import (
	"errors"
	"slices"
	"time"
)

// =============================================================================
// Shipment Errors
// =============================================================================

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyLodged     = errors.New("shipment has already been lodged")
	ErrNotLodged         = errors.New("shipment is not lodged")
	ErrMissingAddress    = errors.New("shipment requires both from and to addresses")
	ErrNoParcels         = errors.New("shipment has no parcels")
	ErrMissingShipmentID = errors.New("carrier did not return a shipment id")
)

// =============================================================================
// Shipment Status
// =============================================================================

type ShipmentStatus string

const (
	StatusDraft   ShipmentStatus = "draft"
	StatusLodged  ShipmentStatus = "lodged"
	StatusDeleted ShipmentStatus = "deleted"
)

// validTransitions defines the allowed state transitions.
var validTransitions = map[ShipmentStatus][]ShipmentStatus{
	StatusDraft:   {StatusLodged},
	StatusLodged:  {StatusDeleted},
	StatusDeleted: {}, // Terminal state
}

// ValidateTransition checks if a status transition is valid.
// A zero status is treated as draft.
func ValidateTransition(from, to ShipmentStatus) error {
	if from == "" {
		from = StatusDraft
	}
	allowed, exists := validTransitions[from]
	if !exists {
		return ErrInvalidTransition
	}
	if slices.Contains(allowed, to) {
		return nil
	}
	return ErrInvalidTransition
}

// =============================================================================
// Shipment
// =============================================================================

// Shipment is one consignment of parcels from a single sender to a single
// receiver. It owns its addresses and parcels.
type Shipment struct {
	From    *Address `json:"from"`
	To      *Address `json:"to"`
	Parcels []Parcel `json:"parcels"`

	MovementType         string `json:"movement_type,omitempty"`
	ShipmentReference    string `json:"shipment_reference,omitempty"`
	CustomerReference1   string `json:"customer_reference_1"`
	CustomerReference2   string `json:"customer_reference_2"`
	EmailTrackingEnabled bool   `json:"email_tracking_enabled"`
	DeliveryInstructions string `json:"delivery_instructions"`

	// ProductID selects the carrier product (e.g. "7E55").
	ProductID string `json:"product_id"`
	// ProductGroup selects the label group and the layouts available to it.
	ProductGroup ProductGroup `json:"product_group"`

	Status     ShipmentStatus `json:"status"`
	ShipmentID string         `json:"shipment_id,omitempty"`
	LodgedAt   *time.Time     `json:"lodged_at,omitempty"`
	DeletedAt  *time.Time     `json:"deleted_at,omitempty"`
}

// NewShipment creates a draft shipment with carrier defaults.
func NewShipment() *Shipment {
	return &Shipment{
		EmailTrackingEnabled: true,
		ProductGroup:         GroupParcelPost,
		Status:               StatusDraft,
	}
}

// AddParcel appends a parcel to the shipment.
func (s *Shipment) AddParcel(p Parcel) {
	s.Parcels = append(s.Parcels, p)
}

// CheckReady reports whether the shipment has enough data to be sent.
func (s *Shipment) CheckReady() error {
	if s.From == nil || s.To == nil {
		return ErrMissingAddress
	}
	if len(s.Parcels) == 0 {
		return ErrNoParcels
	}
	return nil
}

// Transition attempts to transition the shipment to a new status.
func (s *Shipment) Transition(to ShipmentStatus) error {
	if err := ValidateTransition(s.Status, to); err != nil {
		return err
	}

	now := time.Now().UTC()
	s.Status = to
	if to == StatusDeleted {
		s.DeletedAt = &now
	}
	return nil
}

// IsLodged reports whether the shipment is currently lodged with the carrier.
func (s *Shipment) IsLodged() bool {
	return s.Status == StatusLodged
}
