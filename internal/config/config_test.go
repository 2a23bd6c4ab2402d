package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.JoinToleranceSec != 30 {
		t.Errorf("JoinToleranceSec = %d, want 30", cfg.JoinToleranceSec)
	}
	if cfg.WindowDuration() != 5*time.Minute {
		t.Errorf("WindowDuration = %v, want 5m", cfg.WindowDuration())
	}
	if cfg.SlideHop() != time.Minute {
		t.Errorf("SlideHop = %v, want 1m", cfg.SlideHop())
	}
	if cfg.MicroWindow() != 10*time.Second {
		t.Errorf("MicroWindow = %v, want 10s", cfg.MicroWindow())
	}
	if cfg.MaxSpeedKmh != 120 {
		t.Errorf("MaxSpeedKmh = %v, want 120", cfg.MaxSpeedKmh)
	}
	got := cfg.AlertWeight + cfg.EfficiencyWeight + cfg.CarbonWeight + cfg.StatusWeight
	if got != 1.0 {
		t.Errorf("risk weights sum to %v, want 1.0", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MAX_SPEED_KMH", "130.5")
	t.Setenv("JOIN_TOLERANCE_SEC", "45")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := Load()
	if cfg.MaxSpeedKmh != 130.5 {
		t.Errorf("MaxSpeedKmh = %v, want 130.5", cfg.MaxSpeedKmh)
	}
	if cfg.JoinTolerance() != 45*time.Second {
		t.Errorf("JoinTolerance = %v, want 45s", cfg.JoinTolerance())
	}
	if cfg.DBMaxConns != 15 {
		t.Errorf("DBMaxConns = %d, want fallback 15 on bad value", cfg.DBMaxConns)
	}
}

func TestEmissionFactor(t *testing.T) {
	cfg := Load()
	tests := []struct {
		fuelType string
		want     float64
	}{
		{"diesel", 2.68},
		{"gasoline", 2.31},
		{"unknown", 2.68},
		{"electric", 2.68},
	}
	for _, tt := range tests {
		if got := cfg.EmissionFactor(tt.fuelType); got != tt.want {
			t.Errorf("EmissionFactor(%q) = %v, want %v", tt.fuelType, got, tt.want)
		}
	}
}

func TestRouteForFallback(t *testing.T) {
	cfg := Load()

	if p := cfg.RouteFor("V-101"); p.Lat != 40.7128 {
		t.Errorf("RouteFor(V-101).Lat = %v, want 40.7128", p.Lat)
	}
	if p := cfg.RouteFor("V-999"); p != cfg.DefaultRoute {
		t.Errorf("RouteFor(V-999) = %+v, want default route", p)
	}
}
