// Package domain contains the value types of a parcel shipment: addresses,
// parcels, label configuration and the shipment aggregate with its status.
//
// This package is part of the functional core and performs no I/O.
package domain
