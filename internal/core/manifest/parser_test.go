package manifest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/parcelpost/internal/core/domain"
)

// =============================================================================
// Test Fixtures
// =============================================================================

const fullManifest = `
reference: order-42
customer_reference_1: cust-1
customer_reference_2: cust-2
email_tracking: false
movement_type: DESPATCH
delivery_instructions: Leave at reception
product_id: 7E55
product_group: Express Post
from:
  name: Sender
  lines: ["1 Collins St"]
  suburb: Melbourne
  state: VIC
  postcode: "3000"
  country: AU
to:
  name: Receiver
  business_name: Receiver Pty Ltd
  lines: ["Level 2", "1 George St"]
  suburb: Sydney
  state: NSW
  postcode: "2000"
  country: AU
  phone: "0200000000"
  email: receiver@example.com
parcels:
  - item_reference: box-1
    length: 20
    width: 15
    height: 10
    weight: 2.5
    value: 100
    authority_to_leave: true
  - length: 5
    width: 5
    height: 5
    weight: 0.5
    contains_dangerous_goods: true
label:
  layout: A4-3pp
  format: ZPL
  left_offset: 1.5
`

const minimalManifest = `
from: {postcode: "3000", country: AU}
to: {postcode: "2000", country: AU}
parcels:
  - {item_reference: a, length: 10, width: 10, height: 10, weight: 1}
`

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_Full(t *testing.T) {
	m, err := Parse([]byte(fullManifest))
	require.NoError(t, err)

	s := m.Shipment
	assert.Equal(t, domain.StatusDraft, s.Status)
	assert.Equal(t, "order-42", s.ShipmentReference)
	assert.Equal(t, "cust-1", s.CustomerReference1)
	assert.Equal(t, "cust-2", s.CustomerReference2)
	assert.False(t, s.EmailTrackingEnabled)
	assert.Equal(t, "DESPATCH", s.MovementType)
	assert.Equal(t, "Leave at reception", s.DeliveryInstructions)
	assert.Equal(t, "7E55", s.ProductID)
	assert.Equal(t, domain.GroupExpressPost, s.ProductGroup)

	assert.Equal(t, "Melbourne", s.From.Suburb)
	assert.Equal(t, []string{"Level 2", "1 George St"}, s.To.Lines)
	assert.Equal(t, "Receiver Pty Ltd", s.To.BusinessName)
	assert.Equal(t, "receiver@example.com", s.To.Email)

	require.Len(t, s.Parcels, 2)
	assert.Equal(t, "box-1", s.Parcels[0].ItemReference)
	assert.Equal(t, 2.5, s.Parcels[0].Weight)
	assert.Equal(t, 100.0, s.Parcels[0].Value)
	assert.True(t, s.Parcels[0].AuthorityToLeave)
	assert.True(t, s.Parcels[1].ContainsDangerousGoods)

	assert.Equal(t, domain.LayoutA4ThreePerPage, m.Label.Layout)
	assert.Equal(t, domain.FormatZPL, m.Label.Format)
	assert.True(t, m.Label.Branded, "unset label fields keep their defaults")
	assert.Equal(t, 1.5, m.Label.LeftOffset)
}

func TestParse_GeneratesMissingItemReferences(t *testing.T) {
	m, err := Parse([]byte(fullManifest))
	require.NoError(t, err)

	ref := m.Shipment.Parcels[1].ItemReference
	require.NotEmpty(t, ref)
	_, err = uuid.Parse(ref)
	assert.NoError(t, err)
}

func TestParse_MinimalUsesDefaults(t *testing.T) {
	m, err := Parse([]byte(minimalManifest))
	require.NoError(t, err)

	assert.True(t, m.Shipment.EmailTrackingEnabled)
	assert.Equal(t, domain.GroupParcelPost, m.Shipment.ProductGroup)
	assert.Equal(t, domain.DefaultLabelType(), m.Label)
	assert.Equal(t, "a", m.Shipment.Parcels[0].ItemReference)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "whitespace", input: "  \n\t", wantErr: ErrEmptyInput},
		{name: "invalid yaml", input: "from: [unclosed", wantErr: ErrInvalidYAML},
		{name: "missing to", input: "from: {postcode: \"3000\"}\nparcels: [{weight: 1}]", wantErr: ErrMissingAddress},
		{name: "no parcels", input: "from: {postcode: \"3000\"}\nto: {postcode: \"2000\"}", wantErr: ErrNoParcels},
		{
			name:    "unknown product group",
			input:   minimalManifest + "product_group: Carrier Pigeon\n",
			wantErr: domain.ErrUnknownProductGroup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseError_Message(t *testing.T) {
	_, err := Parse([]byte(minimalManifest + "product_group: Carrier Pigeon\n"))
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "product_group", parseErr.Field)
	assert.Equal(t, `product_group: unknown product group "Carrier Pigeon"`, err.Error())
}
