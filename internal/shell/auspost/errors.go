package auspost

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/parcelpost/internal/core/carrier"
)

var (
	// ErrLabelNotReady is returned when the carrier has not produced a label URL.
	ErrLabelNotReady = errors.New("label is not available")

	// ErrEmptyShipmentID is returned when an operation needs a shipment id.
	ErrEmptyShipmentID = errors.New("shipment id is empty")
)

// APIError is a non-2xx response from the carrier.
type APIError struct {
	Op         string // e.g. "create shipments"
	StatusCode int
	Errors     []carrier.APIErrorDetail
	Body       string // raw body when it was not a carrier error envelope
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		msgs := make([]string, len(e.Errors))
		for i, d := range e.Errors {
			msgs[i] = d.String()
		}
		return fmt.Sprintf("%s: carrier returned %d: %s", e.Op, e.StatusCode, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("%s: carrier returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// HasCode reports whether the carrier reported the given error code.
func (e *APIError) HasCode(code string) bool {
	for _, d := range e.Errors {
		if d.Code == code {
			return true
		}
	}
	return false
}
