package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"greenpulse/internal/auth"
	"greenpulse/internal/config"
	"greenpulse/internal/domain"
	"greenpulse/internal/pipeline"
	"greenpulse/internal/report"
	"greenpulse/internal/views"
)

func testServer(t *testing.T) (*httptest.Server, *views.Registry) {
	t.Helper()
	t.Setenv("VALID_API_KEYS", "test-key")
	cfg := config.Load()

	reg := views.NewRegistry()
	lb := report.NewLeaderboard()
	pipe := pipeline.New(cfg, reg, lb, pipeline.Sinks{})
	authn := auth.New(cfg, nil)

	s := NewServer(cfg, authn, pipe, reg, lb)
	ts := httptest.NewServer(s.srv.Handler)
	t.Cleanup(ts.Close)
	return ts, reg
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestIngestRequiresAPIKey(t *testing.T) {
	ts, _ := testServer(t)
	payload := `{"vehicle_id":"V-101","latitude":40.7,"longitude":-74.0,"speed":50,"timestamp":"2025-06-01T10:00:00Z"}`

	resp, err := http.Post(ts.URL+"/ingest/gps", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/ingest/gps", strings.NewReader(payload))
	req.Header.Set("X-API-Key", "test-key")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("valid key: status = %d, want 202", resp.StatusCode)
	}
}

func TestIngestRejectsMalformedPayload(t *testing.T) {
	ts, _ := testServer(t)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/ingest/gps",
		strings.NewReader(`{"vehicle_id":"V-101","latitude":999}`))
	req.Header.Set("X-API-Key", "test-key")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestVehicleStateEndpoint(t *testing.T) {
	ts, reg := testServer(t)

	resp, err := http.Get(ts.URL + "/api/vehicles/V-101/state")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown vehicle: status = %d, want 404", resp.StatusCode)
	}

	reg.SetState(domain.VehicleState{
		VehicleID:    "V-101",
		CurrentState: domain.StateEfficient,
		RiskLevel:    domain.RiskMinimal,
	})

	resp, err = http.Get(ts.URL + "/api/vehicles/V-101/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var st domain.VehicleState
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.CurrentState != domain.StateEfficient {
		t.Errorf("CurrentState = %q, want EFFICIENT", st.CurrentState)
	}
}

func TestVehicleSpikeEndpoint(t *testing.T) {
	ts, reg := testServer(t)

	resp, err := http.Get(ts.URL + "/api/vehicles/V-101/spike")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("no spike yet: status = %d, want 404", resp.StatusCode)
	}

	reg.SetSpike(domain.WindowSnapshot{
		VehicleID:           "V-101",
		Kind:                domain.WindowMicro,
		IsAccelerationSpike: true,
		SpeedVariance:       18,
	})

	resp, err = http.Get(ts.URL + "/api/vehicles/V-101/spike")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var snap domain.WindowSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if !snap.IsAccelerationSpike || snap.Kind != domain.WindowMicro {
		t.Errorf("spike payload = %+v", snap)
	}
}

func TestViewListEndpointsReturnJSON(t *testing.T) {
	ts, _ := testServer(t)

	for _, path := range []string{
		"/api/vehicles", "/api/alerts", "/api/transitions",
		"/api/leaderboard", "/api/sustainability", "/api/reports/history",
	} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s: Content-Type = %q", path, ct)
		}
		resp.Body.Close()
	}
}
