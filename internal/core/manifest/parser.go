package manifest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/artpar/parcelpost/internal/core/domain"
)

// Manifest is a parsed shipment manifest.
type Manifest struct {
	Shipment *domain.Shipment
	Label    domain.LabelType
}

type document struct {
	Reference            string              `yaml:"reference"`
	CustomerReference1   string              `yaml:"customer_reference_1"`
	CustomerReference2   string              `yaml:"customer_reference_2"`
	EmailTracking        *bool               `yaml:"email_tracking"`
	MovementType         string              `yaml:"movement_type"`
	DeliveryInstructions string              `yaml:"delivery_instructions"`
	ProductID            string              `yaml:"product_id"`
	ProductGroup         domain.ProductGroup `yaml:"product_group"`
	From                 *domain.Address     `yaml:"from"`
	To                   *domain.Address     `yaml:"to"`
	Parcels              []domain.Parcel     `yaml:"parcels"`
	Label                domain.LabelType    `yaml:"label"`
}

// Parse parses a YAML manifest into a draft shipment and a label type.
// Parcels without an item_reference are given a generated one so that
// lodgement results can always be correlated.
func Parse(content []byte) (*Manifest, error) {
	if strings.TrimSpace(string(content)) == "" {
		return nil, ErrEmptyInput
	}

	doc := document{Label: domain.DefaultLabelType()}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, NewParseError("", err.Error(), ErrInvalidYAML)
	}

	if doc.From == nil || doc.To == nil {
		return nil, NewParseError("from/to", "both addresses are required", ErrMissingAddress)
	}
	if len(doc.Parcels) == 0 {
		return nil, NewParseError("parcels", "at least one parcel is required", ErrNoParcels)
	}

	s := domain.NewShipment()
	s.From = doc.From
	s.To = doc.To
	s.ShipmentReference = doc.Reference
	s.CustomerReference1 = doc.CustomerReference1
	s.CustomerReference2 = doc.CustomerReference2
	s.MovementType = doc.MovementType
	s.DeliveryInstructions = doc.DeliveryInstructions
	s.ProductID = doc.ProductID
	if doc.EmailTracking != nil {
		s.EmailTrackingEnabled = *doc.EmailTracking
	}
	if doc.ProductGroup != "" {
		if _, ok := domain.AvailableLabels[doc.ProductGroup]; !ok {
			return nil, NewParseError("product_group", fmt.Sprintf("unknown product group %q", doc.ProductGroup), domain.ErrUnknownProductGroup)
		}
		s.ProductGroup = doc.ProductGroup
	}

	for _, p := range doc.Parcels {
		if p.ItemReference == "" {
			p.ItemReference = uuid.New().String()
		}
		s.AddParcel(p)
	}

	return &Manifest{Shipment: s, Label: doc.Label}, nil
}
