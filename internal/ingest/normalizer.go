// Package ingest turns raw payloads from the transports (HTTP, MQTT, NATS,
// CSV replay) into validated domain events. Malformed payloads are counted
// and dropped; they never reach the pipeline.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"greenpulse/internal/domain"
	"greenpulse/internal/metrics"
)

var ErrMalformed = errors.New("malformed event")

type rawGPS struct {
	VehicleID string  `json:"vehicle_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	SpeedKmh  float64 `json:"speed"`
	Timestamp string  `json:"timestamp"`
}

type rawFuel struct {
	VehicleID  string  `json:"vehicle_id"`
	FuelLiters float64 `json:"fuel_liters"`
	DistanceKm float64 `json:"distance_km"`
	FuelType   string  `json:"fuel_type"`
	Timestamp  string  `json:"timestamp"`
}

type rawShipment struct {
	ShipmentID  string `json:"shipment_id"`
	VehicleID   string `json:"vehicle_id"`
	Status      string `json:"status"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Timestamp   string `json:"timestamp"`
}

// Normalize parses and validates one payload of the given kind. The
// malformed counter for the kind is incremented on any failure.
func Normalize(kind domain.EventKind, payload []byte) (*domain.Event, error) {
	metrics.EventsReceived.WithLabelValues(string(kind)).Inc()

	ev, err := normalize(kind, payload)
	if err != nil {
		metrics.EventsMalformed.WithLabelValues(string(kind)).Inc()
		return nil, err
	}
	return ev, nil
}

func normalize(kind domain.EventKind, payload []byte) (*domain.Event, error) {
	switch kind {
	case domain.KindGPS:
		return normalizeGPS(payload)
	case domain.KindFuel:
		return normalizeFuel(payload)
	case domain.KindShipment:
		return normalizeShipment(payload)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformed, kind)
	}
}

func normalizeGPS(payload []byte) (*domain.Event, error) {
	var raw rawGPS
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return nil, err
	}
	if raw.VehicleID == "" {
		return nil, fmt.Errorf("%w: missing vehicle_id", ErrMalformed)
	}
	if raw.Latitude < -90 || raw.Latitude > 90 {
		return nil, fmt.Errorf("%w: latitude %.4f out of range", ErrMalformed, raw.Latitude)
	}
	if raw.Longitude < -180 || raw.Longitude > 180 {
		return nil, fmt.Errorf("%w: longitude %.4f out of range", ErrMalformed, raw.Longitude)
	}
	if raw.SpeedKmh < 0 {
		return nil, fmt.Errorf("%w: negative speed", ErrMalformed)
	}

	gps := &domain.GPSEvent{
		VehicleID: raw.VehicleID,
		Latitude:  raw.Latitude,
		Longitude: raw.Longitude,
		SpeedKmh:  raw.SpeedKmh,
		Timestamp: ts,
	}
	return &domain.Event{
		Kind:       domain.KindGPS,
		VehicleID:  gps.VehicleID,
		Timestamp:  ts,
		ReceivedAt: time.Now().UTC(),
		GPS:        gps,
	}, nil
}

func normalizeFuel(payload []byte) (*domain.Event, error) {
	var raw rawFuel
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return nil, err
	}
	if raw.VehicleID == "" {
		return nil, fmt.Errorf("%w: missing vehicle_id", ErrMalformed)
	}
	if raw.FuelLiters < 0 {
		return nil, fmt.Errorf("%w: negative fuel_liters", ErrMalformed)
	}
	if raw.DistanceKm < 0 {
		return nil, fmt.Errorf("%w: negative distance_km", ErrMalformed)
	}

	fuel := &domain.FuelEvent{
		VehicleID:  raw.VehicleID,
		FuelLiters: raw.FuelLiters,
		DistanceKm: raw.DistanceKm,
		FuelType:   normalizeFuelType(raw.FuelType),
		Timestamp:  ts,
	}
	return &domain.Event{
		Kind:       domain.KindFuel,
		VehicleID:  fuel.VehicleID,
		Timestamp:  ts,
		ReceivedAt: time.Now().UTC(),
		Fuel:       fuel,
	}, nil
}

func normalizeShipment(payload []byte) (*domain.Event, error) {
	var raw rawShipment
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return nil, err
	}
	if raw.VehicleID == "" || raw.ShipmentID == "" {
		return nil, fmt.Errorf("%w: missing shipment_id or vehicle_id", ErrMalformed)
	}
	status, ok := shipmentStatus(raw.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown shipment status %q", ErrMalformed, raw.Status)
	}

	ship := &domain.ShipmentEvent{
		ShipmentID:  raw.ShipmentID,
		VehicleID:   raw.VehicleID,
		Status:      status,
		Origin:      raw.Origin,
		Destination: raw.Destination,
		Timestamp:   ts,
	}
	return &domain.Event{
		Kind:       domain.KindShipment,
		VehicleID:  ship.VehicleID,
		Timestamp:  ts,
		ReceivedAt: time.Now().UTC(),
		Shipment:   ship,
	}, nil
}

// parseTimestamp accepts RFC3339 with or without fractional seconds.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: missing timestamp", ErrMalformed)
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformed, s)
	}
	return ts.UTC(), nil
}

// normalizeFuelType maps unrecognized fuel types to unknown rather than
// rejecting the event; the carbon factor lookup handles unknown.
func normalizeFuelType(s string) domain.FuelType {
	switch domain.FuelType(s) {
	case domain.FuelDiesel:
		return domain.FuelDiesel
	case domain.FuelGasoline:
		return domain.FuelGasoline
	default:
		return domain.FuelUnknown
	}
}

func shipmentStatus(s string) (domain.ShipmentStatus, bool) {
	switch st := domain.ShipmentStatus(s); st {
	case domain.ShipmentLoading, domain.ShipmentInTransit,
		domain.ShipmentDelayed, domain.ShipmentDelivered:
		return st, true
	default:
		return "", false
	}
}
