package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/shopspring/decimal"

	coremetrics "github.com/kilianp07/chargestation/core/metrics"
)

type lineServer struct {
	mu     sync.Mutex
	bodies []string
	srv    *httptest.Server
}

func newLineServer(t *testing.T) *lineServer {
	ls := &lineServer{}
	ls.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		ls.mu.Lock()
		ls.bodies = append(ls.bodies, strings.TrimSpace(string(data)))
		ls.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ls.srv.Close)
	return ls
}

func (ls *lineServer) last() string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if len(ls.bodies) == 0 {
		return ""
	}
	return ls.bodies[len(ls.bodies)-1]
}

func TestInfluxSink_RecordAdmission(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.AdmissionEvent{StationID: 1, BookingID: 3, DockID: 5, Source: "Grid", ChargingType: "fast", Start: 18, Duration: 2, Deferred: true, Time: now}
	if err := sink.RecordAdmission(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("booking_admitted").
		AddTag("station_id", "1").
		AddTag("source", "Grid").
		AddTag("charging_type", "fast").
		AddTag("deferred", "true").
		AddField("booking_id", 3).
		AddField("dock_id", 5).
		AddField("start", 18.0).
		AddField("duration", 2.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if got := ls.last(); got != expected {
		t.Errorf("unexpected body: %s\nwant: %s", got, expected)
	}
}

func TestInfluxSink_RecordSettlement(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.SettlementEvent{StationID: 2, BookingID: 1, DockID: 2, Source: "Solar", EnergyKWh: 14, Cost: decimal.RequireFromString("1.61"), Time: now}
	if err := sink.RecordSettlement(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("session_settled").
		AddTag("station_id", "2").
		AddTag("source", "Solar").
		AddField("booking_id", 1).
		AddField("dock_id", 2).
		AddField("energy_kwh", 14.0).
		AddField("cost", 1.61).
		AddField("co2_kg", 0.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if got := ls.last(); got != expected {
		t.Errorf("unexpected body: %s\nwant: %s", got, expected)
	}
}

func TestInfluxSink_OptionalRecorders(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordRejection(coremetrics.RejectionEvent{StationID: 1, UserID: 4, Reason: "user_not_found", Time: now}); err != nil {
		t.Fatalf("rejection: %v", err)
	}
	if line := ls.last(); !strings.HasPrefix(line, "booking_rejected,") || !strings.Contains(line, "reason=user_not_found") {
		t.Errorf("unexpected rejection line: %s", ls.last())
	}
	if err := sink.RecordCancellation(coremetrics.CancellationEvent{StationID: 1, BookingID: 2, Penalty: decimal.NewFromInt(2), Time: now}); err != nil {
		t.Fatalf("cancellation: %v", err)
	}
	if line := ls.last(); !strings.HasPrefix(line, "booking_cancelled,station_id=1") || !strings.Contains(line, "penalty=") {
		t.Errorf("unexpected cancellation line: %s", ls.last())
	}
	if err := sink.RecordDischarge(coremetrics.DischargeEvent{StationID: 1, VehicleID: 12, EnergyKWh: 5, Time: now}); err != nil {
		t.Fatalf("discharge: %v", err)
	}
	if line := ls.last(); !strings.HasPrefix(line, "v2g_discharge,") || !strings.Contains(line, "vehicle_id=12") {
		t.Errorf("unexpected discharge line: %s", ls.last())
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
