// Package sandbox provides an in-memory stand-in for the carrier's shipping
// API. It is used for local development and integration tests.
package sandbox

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goccy_json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/artpar/parcelpost/internal/core/carrier"
	"github.com/artpar/parcelpost/internal/core/domain"
)

// Carrier error codes returned by the sandbox.
const (
	CodeInvalidRequest   = "40001"
	CodeInvalidPostcode  = "44003"
	CodeNoItems          = "44010"
	CodeShipmentNotFound = "51044"
	CodeInvalidLabel     = "42011"
)

// product is a priced product offered by the sandbox.
type product struct {
	id         string
	name       string
	multiplier float64
}

var products = []product{
	{id: "7E55", name: "PARCEL POST + SIGNATURE", multiplier: 1},
	{id: "7J55", name: "EXPRESS POST + SIGNATURE", multiplier: 1.6},
}

// =============================================================================
// Server
// =============================================================================

type record struct {
	payload carrier.ShipmentPayload
	result  carrier.ShipmentResult
}

// Server is a fake carrier.
type Server struct {
	mu        sync.Mutex
	shipments map[string]record
	labelHost string
	now       func() time.Time
	logger    *slog.Logger
}

// NewServer creates an empty sandbox carrier. labelHost is the scheme and
// host used to build label URLs.
func NewServer(labelHost string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if labelHost == "" {
		labelHost = "http://localhost"
	}
	return &Server{
		shipments: make(map[string]record),
		labelHost: strings.TrimRight(labelHost, "/"),
		now:       time.Now,
		logger:    logger,
	}
}

// Routes returns the router with all carrier routes configured.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.jsonContentType)

	r.Get("/health", s.handleHealth)
	r.Post("/prices/items", s.handleQuote)
	r.Post("/shipments", s.handleCreateShipments)
	r.Delete("/shipments/{id}", s.handleDeleteShipment)
	r.Post("/labels", s.handleLabels)

	return r
}

// Len returns the number of live shipments.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shipments)
}

func (s *Server) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req carrier.QuoteRequest
	if err := goccy_json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, CodeInvalidRequest, "request body is not valid JSON", "")
		return
	}
	if req.From.Postcode == "" {
		s.writeError(w, http.StatusBadRequest, CodeInvalidPostcode, "postcode is required", "from.postcode")
		return
	}
	if req.To.Postcode == "" {
		s.writeError(w, http.StatusBadRequest, CodeInvalidPostcode, "postcode is required", "to.postcode")
		return
	}
	if len(req.Items) == 0 {
		s.writeError(w, http.StatusBadRequest, CodeNoItems, "at least one item is required", "items")
		return
	}

	resp := carrier.QuoteResponse{Items: make([]carrier.QuoteResponseItem, len(req.Items))}
	for i, item := range req.Items {
		resp.Items[i] = carrier.QuoteResponseItem{
			ItemReference: item.ItemReference,
			Prices:        priceItem(item),
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateShipments(w http.ResponseWriter, r *http.Request) {
	var req carrier.ShipmentsRequest
	if err := goccy_json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, CodeInvalidRequest, "request body is not valid JSON", "")
		return
	}
	if len(req.Shipments) == 0 {
		s.writeError(w, http.StatusBadRequest, CodeInvalidRequest, "at least one shipment is required", "shipments")
		return
	}

	// Validate everything before storing anything: lodgement is atomic.
	for i, sh := range req.Shipments {
		if sh.From.Postcode == "" {
			s.writeError(w, http.StatusBadRequest, CodeInvalidPostcode, "postcode is required", fmt.Sprintf("shipments[%d].from.postcode", i))
			return
		}
		if sh.To.Postcode == "" {
			s.writeError(w, http.StatusBadRequest, CodeInvalidPostcode, "postcode is required", fmt.Sprintf("shipments[%d].to.postcode", i))
			return
		}
		if len(sh.Items) == 0 {
			s.writeError(w, http.StatusBadRequest, CodeNoItems, "at least one item is required", fmt.Sprintf("shipments[%d].items", i))
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := carrier.ShipmentsResponse{Shipments: make([]carrier.ShipmentResult, 0, len(req.Shipments))}
	for _, sh := range req.Shipments {
		result := s.lodge(sh)
		s.shipments[result.ShipmentID] = record{payload: sh, result: result}
		resp.Shipments = append(resp.Shipments, result)
		s.logger.Info("sandbox shipment lodged", "shipment_id", result.ShipmentID, "items", len(result.Items))
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDeleteShipment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shipments[id]; !ok {
		s.writeError(w, http.StatusNotFound, CodeShipmentNotFound, fmt.Sprintf("shipment %s not found", id), "shipment_id")
		return
	}
	delete(s.shipments, id)
	s.logger.Info("sandbox shipment deleted", "shipment_id", id)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	var req carrier.LabelRequest
	if err := goccy_json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, CodeInvalidRequest, "request body is not valid JSON", "")
		return
	}
	if len(req.Shipments) == 0 {
		s.writeError(w, http.StatusBadRequest, CodeInvalidRequest, "at least one shipment is required", "shipments")
		return
	}

	for _, pref := range req.Preferences {
		for _, g := range pref.Groups {
			lt := domain.LabelType{Layout: domain.Layout(g.Layout), Format: domain.Format(pref.Format)}
			if err := domain.ValidateLabel(domain.ProductGroup(g.Group), lt); err != nil {
				s.writeError(w, http.StatusBadRequest, CodeInvalidLabel, err.Error(), "preferences")
				return
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ref := range req.Shipments {
		if _, ok := s.shipments[ref.ShipmentID]; !ok {
			s.writeError(w, http.StatusNotFound, CodeShipmentNotFound, fmt.Sprintf("shipment %s not found", ref.ShipmentID), fmt.Sprintf("shipments[%d].shipment_id", i))
			return
		}
	}

	format := "pdf"
	if len(req.Preferences) > 0 && req.Preferences[0].Format == string(domain.FormatZPL) {
		format = "zpl"
	}
	requestID := uuid.New().String()
	s.writeJSON(w, http.StatusOK, carrier.LabelResponse{
		Labels: []carrier.Label{
			{
				RequestID: requestID,
				URL:       fmt.Sprintf("%s/labels/%s.%s", s.labelHost, requestID, format),
				Status:    carrier.LabelStatusAvailable,
			},
		},
	})
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) lodge(sh carrier.ShipmentPayload) carrier.ShipmentResult {
	consignment := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
	result := carrier.ShipmentResult{
		ShipmentID:           uuid.New().String(),
		ShipmentReference:    sh.ShipmentReference,
		ShipmentCreationDate: s.now().Format(time.RFC3339),
		Items:                make([]carrier.ItemResult, len(sh.Items)),
	}
	for i, item := range sh.Items {
		result.Items[i] = carrier.ItemResult{
			ItemReference: item.ItemReference,
			ItemID:        uuid.New().String(),
			TrackingDetails: carrier.TrackingDetails{
				ArticleID:     fmt.Sprintf("%s%05d", consignment, i+1),
				ConsignmentID: consignment,
			},
		}
	}
	return result
}

func priceItem(item carrier.QuoteItem) []carrier.Price {
	base := 8.95 + 2.5*item.Weight
	if item.Features != nil && item.Features.TransitCover != nil {
		base += item.Features.TransitCover.Attributes.CoverAmount * 0.01
	}

	prices := make([]carrier.Price, len(products))
	for i, p := range products {
		total := round(base * p.multiplier)
		gst := round(total / 11)
		prices[i] = carrier.Price{
			ProductID:            p.id,
			ProductType:          p.name,
			CalculatedPrice:      total,
			CalculatedPriceExGST: round(total - gst),
			CalculatedGST:        gst,
		}
	}
	return prices
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := goccy_json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message, field string) {
	s.writeJSON(w, status, carrier.ErrorResponse{
		Errors: []carrier.APIErrorDetail{{Code: code, Message: message, Field: field}},
	})
}
