package auspost

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/parcelpost/internal/core/carrier"
)

func newTestClient(serverURL string) *Client {
	return NewClient(Config{
		BaseURL:       serverURL,
		APIKey:        "test-key",
		Password:      "test-secret",
		AccountNumber: "0000123456",
	}, slog.Default())
}

func assertAuth(t *testing.T, r *http.Request) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "test-key", user)
	assert.Equal(t, "test-secret", pass)
	assert.Equal(t, "0000123456", r.Header.Get("Account-Number"))
	assert.Equal(t, "application/json", r.Header.Get("Accept"))
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{
		BaseURL: "http://localhost:9000/",
		APIKey:  "key",
	}, nil)

	assert.Equal(t, "http://localhost:9000", client.baseURL)
	assert.Equal(t, "key", client.apiKey)
	assert.NotNil(t, client.logger)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client := NewClient(Config{Timeout: 5 * time.Second}, nil)

	assert.Equal(t, ProductionURL, client.baseURL)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
}

func TestClient_GetQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/prices/items", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assertAuth(t, r)

		var req carrier.QuoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "3000", req.From.Postcode)
		require.Len(t, req.Items, 1)
		assert.Equal(t, "box-1", req.Items[0].ItemReference)

		json.NewEncoder(w).Encode(carrier.QuoteResponse{
			Items: []carrier.QuoteResponseItem{
				{
					ItemReference: "box-1",
					Prices: []carrier.Price{
						{ProductID: "7E55", ProductType: "PARCEL POST", CalculatedPrice: 11, CalculatedPriceExGST: 10, CalculatedGST: 1},
					},
				},
			},
		})
	}))
	defer server.Close()

	quotes, err := newTestClient(server.URL).GetQuotes(context.Background(), carrier.QuoteRequest{
		From:  carrier.QuoteAddress{Postcode: "3000", Country: "AU"},
		To:    carrier.QuoteAddress{Postcode: "2000", Country: "AU"},
		Items: []carrier.QuoteItem{{ItemReference: "box-1", Weight: 1}},
	})

	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "7E55", quotes[0].ProductID)
	assert.Equal(t, 11.0, quotes[0].PriceIncGST)
}

func TestClient_CreateShipments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/shipments", r.URL.Path)
		assertAuth(t, r)

		var req carrier.ShipmentsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Shipments, 1)
		assert.Equal(t, "order-42", req.Shipments[0].ShipmentReference)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(carrier.ShipmentsResponse{
			Shipments: []carrier.ShipmentResult{
				{
					ShipmentID:           "ship-1",
					ShipmentCreationDate: "2024-03-01T09:30:00+11:00",
					Items: []carrier.ItemResult{
						{
							ItemReference:   "box-1",
							ItemID:          "item-1",
							TrackingDetails: carrier.TrackingDetails{ArticleID: "ART1", ConsignmentID: "CON1"},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).CreateShipments(context.Background(), carrier.ShipmentsRequest{
		Shipments: []carrier.ShipmentPayload{{ShipmentReference: "order-42"}},
	})

	require.NoError(t, err)
	require.Len(t, resp.Shipments, 1)
	assert.Equal(t, "ship-1", resp.Shipments[0].ShipmentID)
	assert.Equal(t, "ART1", resp.Shipments[0].Items[0].TrackingDetails.ArticleID)
}

func TestClient_CreateShipments_CarrierError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(carrier.ErrorResponse{
			Errors: []carrier.APIErrorDetail{
				{Code: "44003", Name: "INVALID_POSTCODE", Message: "The postcode is invalid", Field: "shipments[0].to.postcode"},
			},
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreateShipments(context.Background(), carrier.ShipmentsRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.True(t, apiErr.HasCode("44003"))
	assert.False(t, apiErr.HasCode("99999"))
	assert.Contains(t, err.Error(), "create shipments: carrier returned 400")
	assert.Contains(t, err.Error(), "The postcode is invalid")
}

func TestClient_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetQuotes(context.Background(), carrier.QuoteRequest{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Errors)
	assert.Equal(t, "gateway exploded", apiErr.Body)
}

func TestClient_GetLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/labels", r.URL.Path)

		var req carrier.LabelRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.WaitForLabelURL)
		require.Len(t, req.Shipments, 1)
		assert.Equal(t, "ship-1", req.Shipments[0].ShipmentID)

		json.NewEncoder(w).Encode(carrier.LabelResponse{
			Labels: []carrier.Label{
				{RequestID: "req-1", URL: "https://labels.example.com/req-1.pdf", Status: "AVAILABLE"},
			},
		})
	}))
	defer server.Close()

	url, err := newTestClient(server.URL).GetLabels(context.Background(), carrier.LabelRequest{
		WaitForLabelURL: true,
		Shipments:       []carrier.LabelShipment{{ShipmentID: "ship-1"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "https://labels.example.com/req-1.pdf", url)
}

func TestClient_GetLabels_NotReady(t *testing.T) {
	tests := []struct {
		name string
		resp carrier.LabelResponse
	}{
		{name: "no labels", resp: carrier.LabelResponse{}},
		{name: "pending", resp: carrier.LabelResponse{Labels: []carrier.Label{{RequestID: "req-1", Status: "PENDING"}}}},
		{name: "available without url", resp: carrier.LabelResponse{Labels: []carrier.Label{{RequestID: "req-1", Status: "AVAILABLE"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.resp)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).GetLabels(context.Background(), carrier.LabelRequest{})
			assert.ErrorIs(t, err, ErrLabelNotReady)
		})
	}
}

func TestClient_GetLabels_LabelErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(carrier.LabelResponse{
			Labels: []carrier.Label{
				{RequestID: "req-1", Status: "ERROR", Errors: []carrier.APIErrorDetail{{Code: "51044", Message: "Shipment not found"}}},
			},
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetLabels(context.Background(), carrier.LabelRequest{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.HasCode("51044"))
}

func TestClient_DeleteShipment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/shipments/ship-1", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"))
		assertAuth(t, r)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ok, err := newTestClient(server.URL).DeleteShipment(context.Background(), "ship-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_DeleteShipment_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(carrier.ErrorResponse{
			Errors: []carrier.APIErrorDetail{{Code: "51044", Message: "Shipment not found"}},
		})
	}))
	defer server.Close()

	ok, err := newTestClient(server.URL).DeleteShipment(context.Background(), "ship-1")
	assert.False(t, ok)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClient_DeleteShipment_EmptyID(t *testing.T) {
	ok, err := NewClient(Config{}, nil).DeleteShipment(context.Background(), "")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrEmptyShipmentID)
}
