package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/chargestation/core/metrics"
	"github.com/kilianp07/chargestation/infra/logger"
)

// InfluxSink writes station events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAdmission writes a booking_admitted point.
func (s *InfluxSink) RecordAdmission(ev coremetrics.AdmissionEvent) error {
	p := write.NewPointWithMeasurement("booking_admitted").
		AddTag("station_id", strconv.Itoa(ev.StationID)).
		AddTag("source", ev.Source).
		AddTag("charging_type", ev.ChargingType).
		AddTag("deferred", strconv.FormatBool(ev.Deferred)).
		AddField("booking_id", ev.BookingID).
		AddField("dock_id", ev.DockID).
		AddField("start", round3(ev.Start)).
		AddField("duration", round3(ev.Duration)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordRejection writes a booking_rejected point.
func (s *InfluxSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	p := write.NewPointWithMeasurement("booking_rejected").
		AddTag("station_id", strconv.Itoa(ev.StationID)).
		AddTag("reason", ev.Reason).
		AddField("user_id", ev.UserID).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordCancellation writes a booking_cancelled point.
func (s *InfluxSink) RecordCancellation(ev coremetrics.CancellationEvent) error {
	p := write.NewPointWithMeasurement("booking_cancelled").
		AddTag("station_id", strconv.Itoa(ev.StationID)).
		AddField("booking_id", ev.BookingID).
		AddField("penalty", round3(ev.Penalty.InexactFloat64())).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordSettlement writes a session_settled point.
func (s *InfluxSink) RecordSettlement(ev coremetrics.SettlementEvent) error {
	p := write.NewPointWithMeasurement("session_settled").
		AddTag("station_id", strconv.Itoa(ev.StationID)).
		AddTag("source", ev.Source).
		AddField("booking_id", ev.BookingID).
		AddField("dock_id", ev.DockID).
		AddField("energy_kwh", round3(ev.EnergyKWh)).
		AddField("cost", round3(ev.Cost.InexactFloat64())).
		AddField("co2_kg", round3(ev.CO2Kg)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordDischarge writes a v2g_discharge point.
func (s *InfluxSink) RecordDischarge(ev coremetrics.DischargeEvent) error {
	p := write.NewPointWithMeasurement("v2g_discharge").
		AddTag("station_id", strconv.Itoa(ev.StationID)).
		AddTag("vehicle_id", strconv.Itoa(ev.VehicleID)).
		AddField("energy_kwh", round3(ev.EnergyKWh)).
		AddField("soc_after", round3(ev.SoCAfter)).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
