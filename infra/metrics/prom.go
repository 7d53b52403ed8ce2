package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/chargestation/core/metrics"
)

// PromSink records station activity in Prometheus metrics.
type PromSink struct {
	admissions    *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	penalties     *prometheus.CounterVec
	energy        *prometheus.CounterVec
	revenue       *prometheus.CounterVec
	co2           *prometheus.CounterVec
	discharged    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	queue         *prometheus.GaugeVec
}

// NewPromSink registers station metrics on the default Prometheus registerer.
// The Prometheus server is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// that are already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_bookings_admitted_total",
			Help: "Total number of admitted bookings",
		}, []string{"station", "source", "charging_type", "deferred"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_bookings_rejected_total",
			Help: "Total number of rejected booking requests",
		}, []string{"station", "reason"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_bookings_cancelled_total",
			Help: "Total number of cancelled bookings",
		}, []string{"station"}),
		penalties: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_cancellation_penalties_dollars_total",
			Help: "Cancellation penalties charged",
		}, []string{"station"}),
		energy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_energy_delivered_kwh_total",
			Help: "Energy delivered by settled sessions",
		}, []string{"station", "source"}),
		revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_revenue_dollars_total",
			Help: "Revenue of settled sessions",
		}, []string{"station"}),
		co2: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_co2_emitted_kg_total",
			Help: "CO2 emitted by settled sessions",
		}, []string{"station"}),
		discharged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_v2g_discharged_kwh_total",
			Help: "Energy returned to the grid by V2G vehicles",
		}, []string{"station"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "station_booking_duration_hours",
			Help:    "Duration of admitted bookings",
			Buckets: []float64{0.5, 1, 2, 4, 8, 12},
		}, []string{"station"}),
		queue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "station_deferred_queue_depth",
			Help: "Requests waiting in the deferred queue",
		}, []string{"station"}),
	}
	var err error
	if s.admissions, err = register(reg, s.admissions); err != nil {
		return nil, err
	}
	if s.rejections, err = register(reg, s.rejections); err != nil {
		return nil, err
	}
	if s.cancellations, err = register(reg, s.cancellations); err != nil {
		return nil, err
	}
	if s.penalties, err = register(reg, s.penalties); err != nil {
		return nil, err
	}
	if s.energy, err = register(reg, s.energy); err != nil {
		return nil, err
	}
	if s.revenue, err = register(reg, s.revenue); err != nil {
		return nil, err
	}
	if s.co2, err = register(reg, s.co2); err != nil {
		return nil, err
	}
	if s.discharged, err = register(reg, s.discharged); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.queue, err = register(reg, s.queue); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func station(id int) string { return strconv.Itoa(id) }

// RecordAdmission counts the booking and observes its duration.
func (s *PromSink) RecordAdmission(ev coremetrics.AdmissionEvent) error {
	st := station(ev.StationID)
	s.admissions.WithLabelValues(st, ev.Source, ev.ChargingType, strconv.FormatBool(ev.Deferred)).Inc()
	s.duration.WithLabelValues(st).Observe(ev.Duration)
	return nil
}

// RecordRejection counts a refused request by reason.
func (s *PromSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	s.rejections.WithLabelValues(station(ev.StationID), ev.Reason).Inc()
	return nil
}

// RecordCancellation counts the cancellation and the penalty charged.
func (s *PromSink) RecordCancellation(ev coremetrics.CancellationEvent) error {
	st := station(ev.StationID)
	s.cancellations.WithLabelValues(st).Inc()
	s.penalties.WithLabelValues(st).Add(ev.Penalty.InexactFloat64())
	return nil
}

// RecordSettlement adds the delivered energy, revenue and emissions.
func (s *PromSink) RecordSettlement(ev coremetrics.SettlementEvent) error {
	st := station(ev.StationID)
	s.energy.WithLabelValues(st, ev.Source).Add(ev.EnergyKWh)
	s.revenue.WithLabelValues(st).Add(ev.Cost.InexactFloat64())
	s.co2.WithLabelValues(st).Add(ev.CO2Kg)
	return nil
}

// RecordDischarge adds V2G energy returned to the grid.
func (s *PromSink) RecordDischarge(ev coremetrics.DischargeEvent) error {
	s.discharged.WithLabelValues(station(ev.StationID)).Add(ev.EnergyKWh)
	return nil
}

// RecordQueueDepth sets the queue gauge of the station.
func (s *PromSink) RecordQueueDepth(stationID, depth int) error {
	s.queue.WithLabelValues(station(stationID)).Set(float64(depth))
	return nil
}
