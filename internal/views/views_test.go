package views

import (
	"testing"
	"time"

	"greenpulse/internal/domain"
)

var testTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestStateRoundTrip(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.State("V-101"); ok {
		t.Fatal("State on empty registry returned ok")
	}

	r.SetState(domain.VehicleState{
		VehicleID:    "V-101",
		CurrentState: domain.StateNormal,
		RiskLevel:    domain.RiskLow,
		UpdatedAt:    testTime,
	})

	st, ok := r.State("V-101")
	if !ok || st.CurrentState != domain.StateNormal {
		t.Errorf("State = (%+v, %v)", st, ok)
	}
	if got := r.States(); len(got) != 1 {
		t.Errorf("States() returned %d rows, want 1", len(got))
	}
}

func TestSpikeRoundTrip(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Spike("V-101"); ok {
		t.Fatal("Spike on empty registry returned ok")
	}

	r.SetSpike(domain.WindowSnapshot{
		VehicleID:           "V-101",
		Kind:                domain.WindowMicro,
		IsAccelerationSpike: true,
		SpeedVariance:       22,
	})

	snap, ok := r.Spike("V-101")
	if !ok || !snap.IsAccelerationSpike || snap.SpeedVariance != 22 {
		t.Errorf("Spike = (%+v, %v)", snap, ok)
	}
}

func TestAlertLogTailAndBound(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < maxAlerts+50; i++ {
		r.AppendAlert(domain.AnomalyAlert{
			VehicleID: "V-101",
			Type:      domain.AlertSpeedThreshold,
			Timestamp: testTime.Add(time.Duration(i) * time.Second),
		})
	}

	all := r.Alerts(0)
	if len(all) != maxAlerts {
		t.Errorf("log holds %d alerts, want bound %d", len(all), maxAlerts)
	}

	last := r.Alerts(3)
	if len(last) != 3 {
		t.Fatalf("Alerts(3) returned %d", len(last))
	}
	// Tail must be the newest entries.
	if !last[2].Timestamp.After(last[0].Timestamp) {
		t.Errorf("tail not newest-last: %v .. %v", last[0].Timestamp, last[2].Timestamp)
	}
}

func TestFleetReportLatestAndHistory(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.FleetLatest(); ok {
		t.Fatal("FleetLatest on empty registry returned ok")
	}

	for i := 0; i < 3; i++ {
		r.SetFleetReport(domain.FleetReport{
			WindowStart: testTime.Add(time.Duration(i) * 5 * time.Minute),
			WindowEnd:   testTime.Add(time.Duration(i+1) * 5 * time.Minute),
		})
	}

	latest, ok := r.FleetLatest()
	if !ok {
		t.Fatal("FleetLatest returned !ok")
	}
	if !latest.WindowStart.Equal(testTime.Add(10 * time.Minute)) {
		t.Errorf("latest window start = %v", latest.WindowStart)
	}
	if got := r.FleetHistory(2); len(got) != 2 {
		t.Errorf("FleetHistory(2) returned %d", len(got))
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	r := NewRegistry()

	updates, cancel := r.Subscribe()
	defer cancel()

	r.SetState(domain.VehicleState{VehicleID: "V-101", CurrentState: domain.StateIdle})

	select {
	case u := <-updates:
		if u.Kind != UpdateState {
			t.Errorf("Kind = %q, want %q", u.Kind, UpdateState)
		}
		st, ok := u.Payload.(domain.VehicleState)
		if !ok || st.VehicleID != "V-101" {
			t.Errorf("Payload = %#v", u.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestCancelClosesSubscription(t *testing.T) {
	r := NewRegistry()

	updates, cancel := r.Subscribe()
	cancel()
	cancel() // idempotent

	if _, ok := <-updates; ok {
		t.Error("channel still open after cancel")
	}

	// Publishing after cancel must not panic on the closed channel.
	r.AppendAlert(domain.AnomalyAlert{VehicleID: "V-101"})
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	r := NewRegistry()

	_, cancel := r.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Far more updates than the subscriber buffer holds.
		for i := 0; i < 500; i++ {
			r.SetPrediction(domain.Prediction{VehicleID: "V-101"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}
