// Package carrier defines the JSON payloads exchanged with the carrier's
// shipping API.
//
// This package contains pure types with no I/O. Field names and constant
// values are part of the carrier's contract and must not be changed.
package carrier

import (
	"fmt"
	"strings"
	"time"
)

const (
	// FeatureTransitCover is the feature key for declared-value insurance.
	FeatureTransitCover = "TRANSIT_COVER"

	// PreferencePrint is the only label preference type the carrier accepts.
	PreferencePrint = "PRINT"

	// LabelStatusAvailable marks a label whose URL can be downloaded.
	LabelStatusAvailable = "AVAILABLE"
)

// =============================================================================
// Features
// =============================================================================

// Features holds optional per-item carrier features.
type Features struct {
	TransitCover *TransitCover `json:"TRANSIT_COVER,omitempty"`
}

// TransitCover requests insurance for the declared value of an item.
type TransitCover struct {
	Attributes TransitCoverAttributes `json:"attributes"`
}

// TransitCoverAttributes carries the insured amount.
type TransitCoverAttributes struct {
	CoverAmount float64 `json:"cover_amount"`
}

// NewTransitCover returns a feature block covering amount.
func NewTransitCover(amount float64) *Features {
	return &Features{
		TransitCover: &TransitCover{
			Attributes: TransitCoverAttributes{CoverAmount: amount},
		},
	}
}

// =============================================================================
// Quotes
// =============================================================================

// QuoteRequest asks for prices for a set of items between two postcodes.
type QuoteRequest struct {
	From  QuoteAddress `json:"from"`
	To    QuoteAddress `json:"to"`
	Items []QuoteItem  `json:"items"`
}

// QuoteAddress is the reduced address used for pricing.
type QuoteAddress struct {
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// QuoteItem describes one parcel to be priced.
type QuoteItem struct {
	ItemReference string    `json:"item_reference"`
	Length        float64   `json:"length"`
	Height        float64   `json:"height"`
	Width         float64   `json:"width"`
	Weight        float64   `json:"weight"`
	Features      *Features `json:"features,omitempty"`
}

// QuoteResponse is the carrier's pricing response.
type QuoteResponse struct {
	Items []QuoteResponseItem `json:"items"`
}

// QuoteResponseItem holds the prices offered for one requested item.
type QuoteResponseItem struct {
	ItemReference string           `json:"item_reference"`
	Prices        []Price          `json:"prices"`
	Errors        []APIErrorDetail `json:"errors,omitempty"`
}

// Price is one product offered for an item.
type Price struct {
	ProductID            string  `json:"product_id"`
	ProductType          string  `json:"product_type"`
	CalculatedPrice      float64 `json:"calculated_price"`
	CalculatedPriceExGST float64 `json:"calculated_price_ex_gst"`
	CalculatedGST        float64 `json:"calculated_gst"`
}

// Quote is a single priced product for a single item.
type Quote struct {
	ItemReference string  `json:"item_reference"`
	ProductID     string  `json:"product_id"`
	ProductType   string  `json:"product_type"`
	PriceIncGST   float64 `json:"price_inc_gst"`
	PriceExGST    float64 `json:"price_ex_gst"`
	GST           float64 `json:"gst"`
}

// Quotes flattens the response into one Quote per item and product.
func (r QuoteResponse) Quotes() []Quote {
	var quotes []Quote
	for _, item := range r.Items {
		for _, p := range item.Prices {
			quotes = append(quotes, Quote{
				ItemReference: item.ItemReference,
				ProductID:     p.ProductID,
				ProductType:   p.ProductType,
				PriceIncGST:   p.CalculatedPrice,
				PriceExGST:    p.CalculatedPriceExGST,
				GST:           p.CalculatedGST,
			})
		}
	}
	return quotes
}

// =============================================================================
// Shipments
// =============================================================================

// ShipmentsRequest is the lodgement envelope. The carrier accepts several
// shipments per call and creates them atomically.
type ShipmentsRequest struct {
	Shipments []ShipmentPayload `json:"shipments"`
}

// ShipmentPayload is a full shipment as sent for lodgement.
type ShipmentPayload struct {
	ShipmentReference    string         `json:"shipment_reference"`
	CustomerReference1   string         `json:"customer_reference_1"`
	CustomerReference2   string         `json:"customer_reference_2"`
	EmailTrackingEnabled bool           `json:"email_tracking_enabled"`
	MovementType         string         `json:"movement_type,omitempty"`
	From                 AddressPayload `json:"from"`
	To                   AddressPayload `json:"to"`
	Items                []ShipmentItem `json:"items"`
}

// AddressPayload is a full address. DeliveryInstructions is only set on the
// receiving side.
type AddressPayload struct {
	Name                 string   `json:"name"`
	BusinessName         string   `json:"business_name"`
	Lines                []string `json:"lines"`
	Suburb               string   `json:"suburb"`
	State                string   `json:"state"`
	Postcode             string   `json:"postcode"`
	Country              string   `json:"country"`
	Phone                string   `json:"phone"`
	Email                string   `json:"email"`
	DeliveryInstructions *string  `json:"delivery_instructions,omitempty"`
}

// ShipmentItem is one parcel as sent for lodgement.
type ShipmentItem struct {
	ItemReference          string    `json:"item_reference"`
	ProductID              string    `json:"product_id"`
	Length                 float64   `json:"length"`
	Height                 float64   `json:"height"`
	Width                  float64   `json:"width"`
	Weight                 float64   `json:"weight"`
	ContainsDangerousGoods bool      `json:"contains_dangerous_goods"`
	AuthorityToLeave       bool      `json:"authority_to_leave"`
	SafeDropEnabled        bool      `json:"safe_drop_enabled"`
	AllowPartialDelivery   bool      `json:"allow_partial_delivery"`
	Features               *Features `json:"features,omitempty"`
}

// ShipmentsResponse is the carrier's reply to a lodgement.
type ShipmentsResponse struct {
	Shipments []ShipmentResult `json:"shipments"`
}

// ShipmentResult is one lodged shipment.
type ShipmentResult struct {
	ShipmentID           string       `json:"shipment_id"`
	ShipmentReference    string       `json:"shipment_reference,omitempty"`
	ShipmentCreationDate string       `json:"shipment_creation_date"`
	Items                []ItemResult `json:"items"`
}

// ItemResult is the carrier's record of one lodged item.
type ItemResult struct {
	ItemReference   string          `json:"item_reference"`
	ItemID          string          `json:"item_id"`
	TrackingDetails TrackingDetails `json:"tracking_details"`
}

// TrackingDetails holds the identifiers used to track an item.
type TrackingDetails struct {
	ArticleID     string `json:"article_id"`
	ConsignmentID string `json:"consignment_id"`
}

// ParseCreationDate parses a shipment_creation_date value.
func ParseCreationDate(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse shipment creation date %q: %w", value, err)
	}
	return t, nil
}

// =============================================================================
// Labels
// =============================================================================

// LabelRequest asks the carrier to render labels for lodged shipments.
type LabelRequest struct {
	WaitForLabelURL bool              `json:"wait_for_label_url"`
	Preferences     []LabelPreference `json:"preferences"`
	Shipments       []LabelShipment   `json:"shipments"`
}

// LabelPreference selects the output format and per-group layout.
type LabelPreference struct {
	Type   string       `json:"type"`
	Format string       `json:"format"`
	Groups []LabelGroup `json:"groups"`
}

// LabelGroup configures the layout for one product group.
type LabelGroup struct {
	Group      string  `json:"group"`
	Layout     string  `json:"layout"`
	Branded    bool    `json:"branded"`
	LeftOffset float64 `json:"left_offset"`
	TopOffset  float64 `json:"top_offset"`
}

// LabelShipment references a lodged shipment.
type LabelShipment struct {
	ShipmentID string `json:"shipment_id"`
}

// LabelResponse is the carrier's reply to a label request.
type LabelResponse struct {
	Labels []Label `json:"labels"`
}

// Label is one rendered label document.
type Label struct {
	RequestID string           `json:"request_id"`
	URL       string           `json:"url,omitempty"`
	Status    string           `json:"status"`
	Errors    []APIErrorDetail `json:"errors,omitempty"`
}

// =============================================================================
// Errors
// =============================================================================

// ErrorResponse is the carrier's error envelope.
type ErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// APIErrorDetail is a single carrier error.
type APIErrorDetail struct {
	Code    string `json:"code"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (d APIErrorDetail) String() string {
	if d.Field != "" {
		return fmt.Sprintf("%s %s (%s)", d.Code, d.Message, d.Field)
	}
	return fmt.Sprintf("%s %s", d.Code, d.Message)
}
