// Package station implements the resource allocation core of a charging
// station: the dock pool, the booking ledger, admission with peak deferral,
// the deferred queue, cancellation, settlement, V2G discharge and reporting.
//
// A Station is one serialization domain. Every operation holds the station
// mutex for its whole check-allocate-append sequence; notifications, bus
// events and journal records produced by an operation are emitted after the
// mutex is released, in the order they were produced.
package station

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/chargestation/core/events"
	"github.com/kilianp07/chargestation/core/journal"
	"github.com/kilianp07/chargestation/core/logger"
	"github.com/kilianp07/chargestation/core/model"
	"github.com/kilianp07/chargestation/core/notify"
	"github.com/kilianp07/chargestation/core/registry"
	"github.com/kilianp07/chargestation/internal/eventbus"
)

// Station owns a fixed dock pool, the booking ledger and the deferred queue.
type Station struct {
	cfg      Config
	registry registry.Registry
	weather  *model.WeatherSignal
	logger   logger.Logger
	notifier notify.NotificationSink
	bus      *eventbus.Bus[events.Event]
	store    journal.LogStore
	now      func() time.Time

	mu          sync.Mutex
	docks       []model.Dock
	bookings    []model.Booking
	queue       []model.DeferredRequest
	baseline    float64
	hasBaseline bool
}

// New creates a station. The registry resolves users and vehicles and stores
// state of charge updates; the weather signal may be shared between stations.
func New(cfg Config, reg registry.Registry, weather *model.WeatherSignal, log logger.Logger) (*Station, error) {
	if reg == nil {
		return nil, fmt.Errorf("station: nil registry provided to New")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if weather == nil {
		weather = model.NewWeatherSignal(model.Sunny)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	docks := make([]model.Dock, len(cfg.Docks))
	for i, d := range cfg.Docks {
		docks[i] = model.Dock{ID: d.ID, PowerKW: d.PowerKW, Source: d.Source}
	}
	sort.Slice(docks, func(i, j int) bool { return docks[i].ID < docks[j].ID })
	return &Station{
		cfg:      cfg,
		registry: reg,
		weather:  weather,
		logger:   log,
		notifier: notify.NopNotifier{},
		now:      time.Now,
		docks:    docks,
		bookings: make([]model.Booking, 0, cfg.MaxBookings),
	}, nil
}

// ID returns the station identifier.
func (s *Station) ID() int { return s.cfg.ID }

// Config returns the static configuration of the station.
func (s *Station) Config() Config { return s.cfg }

// Weather returns the weather signal read by the station.
func (s *Station) Weather() *model.WeatherSignal { return s.weather }

// SetNotifier configures the sink receiving user notifications.
func (s *Station) SetNotifier(n notify.NotificationSink) {
	if n == nil {
		n = notify.NopNotifier{}
	}
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// SetEventBus configures the bus receiving station events.
func (s *Station) SetEventBus(bus *eventbus.Bus[events.Event]) {
	s.mu.Lock()
	s.bus = bus
	s.mu.Unlock()
}

// SetLogStore configures the journal receiving station decisions.
func (s *Station) SetLogStore(store journal.LogStore) {
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
}

// outbox collects the side effects of one operation while the mutex is held.
type outbox struct {
	notes   []model.Notification
	events  []events.Event
	records []journal.Record

	notifier notify.NotificationSink
	bus      *eventbus.Bus[events.Event]
	store    journal.LogStore
}

func (s *Station) newOutbox() *outbox {
	return &outbox{notifier: s.notifier, bus: s.bus, store: s.store}
}

func (s *Station) notify(o *outbox, userID int, kind model.NotificationKind, msg string, value float64, hasValue bool) {
	o.notes = append(o.notes, model.Notification{
		StationID: s.cfg.ID,
		UserID:    userID,
		Kind:      kind,
		Message:   msg,
		Value:     value,
		HasValue:  hasValue,
		Time:      s.now(),
	})
}

func (s *Station) record(o *outbox, r journal.Record) {
	r.Timestamp = s.now()
	r.StationID = s.cfg.ID
	o.records = append(o.records, r)
}

// flush delivers the side effects. It must be called without the mutex held.
func (s *Station) flush(o *outbox) {
	for _, n := range o.notes {
		if err := o.notifier.Notify(n); err != nil {
			s.logger.Warnf("station %d: notify user %d failed: %v", s.cfg.ID, n.UserID, err)
		}
	}
	if o.bus != nil {
		for _, e := range o.events {
			o.bus.Publish(e)
		}
	}
	if o.store != nil {
		for _, r := range o.records {
			if err := o.store.Append(context.Background(), r); err != nil {
				s.logger.Errorf("station %d: journal append failed: %v", s.cfg.ID, err)
			}
		}
	}
}

func (s *Station) inPeak(t float64) bool {
	return t >= s.cfg.PeakStart && t < s.cfg.PeakEnd
}

// dockIndex returns the index of the dock with the given id or -1.
func (s *Station) dockIndex(id int) int {
	for i := range s.docks {
		if s.docks[i].ID == id {
			return i
		}
	}
	return -1
}

// activeBooking returns the index of the active booking with the given id or -1.
func (s *Station) activeBooking(id int) int {
	// ids are assigned sequentially from 1, so the id doubles as an index
	i := id - 1
	if i < 0 || i >= len(s.bookings) || s.bookings[i].ID != id || !s.bookings[i].Active() {
		return -1
	}
	return i
}
