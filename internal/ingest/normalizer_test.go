package ingest

import (
	"errors"
	"testing"
	"time"

	"greenpulse/internal/domain"
)

func TestNormalizeGPS(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{
			name:    "valid",
			payload: `{"vehicle_id":"V-101","latitude":40.7,"longitude":-74.0,"speed":55.5,"timestamp":"2025-06-01T10:00:00Z"}`,
		},
		{
			name:    "valid fractional seconds",
			payload: `{"vehicle_id":"V-101","latitude":40.7,"longitude":-74.0,"speed":55.5,"timestamp":"2025-06-01T10:00:00.123Z"}`,
		},
		{
			name:    "bad json",
			payload: `{"vehicle_id":`,
			wantErr: true,
		},
		{
			name:    "missing vehicle id",
			payload: `{"latitude":40.7,"longitude":-74.0,"speed":55.5,"timestamp":"2025-06-01T10:00:00Z"}`,
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			payload: `{"vehicle_id":"V-101","latitude":91.0,"longitude":-74.0,"speed":55.5,"timestamp":"2025-06-01T10:00:00Z"}`,
			wantErr: true,
		},
		{
			name:    "longitude out of range",
			payload: `{"vehicle_id":"V-101","latitude":40.7,"longitude":-181.0,"speed":55.5,"timestamp":"2025-06-01T10:00:00Z"}`,
			wantErr: true,
		},
		{
			name:    "negative speed",
			payload: `{"vehicle_id":"V-101","latitude":40.7,"longitude":-74.0,"speed":-1,"timestamp":"2025-06-01T10:00:00Z"}`,
			wantErr: true,
		},
		{
			name:    "unparseable timestamp",
			payload: `{"vehicle_id":"V-101","latitude":40.7,"longitude":-74.0,"speed":55.5,"timestamp":"yesterday"}`,
			wantErr: true,
		},
		{
			name:    "missing timestamp",
			payload: `{"vehicle_id":"V-101","latitude":40.7,"longitude":-74.0,"speed":55.5}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Normalize(domain.KindGPS, []byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("err = %v, want ErrMalformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ev.Kind != domain.KindGPS || ev.GPS == nil {
				t.Fatalf("envelope not a GPS event: %+v", ev)
			}
			if ev.VehicleID != "V-101" {
				t.Errorf("VehicleID = %q", ev.VehicleID)
			}
			want := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
			if !ev.Timestamp.Truncate(time.Second).Equal(want) {
				t.Errorf("Timestamp = %v, want %v", ev.Timestamp, want)
			}
		})
	}
}

func TestNormalizeFuel(t *testing.T) {
	ev, err := Normalize(domain.KindFuel,
		[]byte(`{"vehicle_id":"V-102","fuel_liters":2.5,"distance_km":12,"fuel_type":"diesel","timestamp":"2025-06-01T10:00:00Z"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Fuel.FuelType != domain.FuelDiesel {
		t.Errorf("FuelType = %q, want diesel", ev.Fuel.FuelType)
	}

	// Unrecognized fuel types degrade to unknown rather than being rejected.
	ev, err = Normalize(domain.KindFuel,
		[]byte(`{"vehicle_id":"V-102","fuel_liters":2.5,"distance_km":12,"fuel_type":"hydrogen","timestamp":"2025-06-01T10:00:00Z"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Fuel.FuelType != domain.FuelUnknown {
		t.Errorf("FuelType = %q, want unknown", ev.Fuel.FuelType)
	}

	if _, err := Normalize(domain.KindFuel,
		[]byte(`{"vehicle_id":"V-102","fuel_liters":-1,"distance_km":12,"fuel_type":"diesel","timestamp":"2025-06-01T10:00:00Z"}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("negative fuel: err = %v, want ErrMalformed", err)
	}
}

func TestNormalizeShipment(t *testing.T) {
	ev, err := Normalize(domain.KindShipment,
		[]byte(`{"shipment_id":"S-1","vehicle_id":"V-103","status":"delayed","origin":"NYC","destination":"BOS","timestamp":"2025-06-01T10:00:00Z"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Shipment.Status != domain.ShipmentDelayed {
		t.Errorf("Status = %q, want delayed", ev.Shipment.Status)
	}

	if _, err := Normalize(domain.KindShipment,
		[]byte(`{"shipment_id":"S-1","vehicle_id":"V-103","status":"teleporting","timestamp":"2025-06-01T10:00:00Z"}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("bad status: err = %v, want ErrMalformed", err)
	}
}

func TestNormalizeUnknownKind(t *testing.T) {
	if _, err := Normalize(domain.EventKind("weather"), []byte(`{}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}
