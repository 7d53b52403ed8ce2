package station

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargestation/core/events"
	"github.com/kilianp07/chargestation/core/journal"
	"github.com/kilianp07/chargestation/core/model"
	"github.com/kilianp07/chargestation/core/registry"
	"github.com/kilianp07/chargestation/internal/eventbus"
)

type recordingNotifier struct {
	mu    sync.Mutex
	notes []model.Notification
}

func (r *recordingNotifier) Notify(n model.Notification) error {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
	return nil
}

func (r *recordingNotifier) kinds() []model.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]model.NotificationKind, len(r.notes))
	for i, n := range r.notes {
		res[i] = n.Kind
	}
	return res
}

type fixture struct {
	st      *Station
	reg     *registry.MemoryStore
	weather *model.WeatherSignal
	notes   *recordingNotifier
}

// Users: 1 regular, 2 premium, 3 regular.
// Vehicles: 10 (user 1, soc 50, 60kWh), 11 (user 1, soc 50), 20 (user 2, soc 80),
// 30 (user 3, soc 10, critical), 12 (user 1, v2g, soc 10, 50kWh).
func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()
	cfg := DefaultConfig(1)
	for _, m := range mutate {
		m(&cfg)
	}
	reg := registry.NewMemoryStore(0, 0)
	require.NoError(t, reg.RegisterUser(model.NewUser(1, "alice", model.MembershipRegular)))
	require.NoError(t, reg.RegisterUser(model.NewUser(2, "bob", model.MembershipPremium)))
	require.NoError(t, reg.RegisterUser(model.NewUser(3, "carol", model.MembershipRegular)))
	require.NoError(t, reg.RegisterVehicle(model.NewVehicle(10, 1, 50, 60, false)))
	require.NoError(t, reg.RegisterVehicle(model.NewVehicle(11, 1, 50, 60, false)))
	require.NoError(t, reg.RegisterVehicle(model.NewVehicle(20, 2, 80, 60, false)))
	require.NoError(t, reg.RegisterVehicle(model.NewVehicle(30, 3, 10, 60, false)))
	require.NoError(t, reg.RegisterVehicle(model.NewVehicle(12, 1, 10, 50, true)))

	w := model.NewWeatherSignal(model.Sunny)
	st, err := New(cfg, reg, w, nil)
	require.NoError(t, err)
	notes := &recordingNotifier{}
	st.SetNotifier(notes)
	return &fixture{st: st, reg: reg, weather: w, notes: notes}
}

func req(uid, vid int, start, dur float64, t model.ChargingType) model.DeferredRequest {
	return model.NewRequest(uid, vid, start, dur, t)
}

func TestNewValidatesConfig(t *testing.T) {
	reg := registry.NewMemoryStore(0, 0)
	_, err := New(DefaultConfig(1), nil, nil, nil)
	assert.Error(t, err)

	bad := DefaultConfig(1)
	bad.Docks = append(bad.Docks, model.DockSpec{ID: 1, PowerKW: 7})
	_, err = New(bad, reg, nil, nil)
	assert.Error(t, err)

	bad = DefaultConfig(1)
	bad.PeakStart, bad.PeakEnd = 18, 12
	_, err = New(bad, reg, nil, nil)
	assert.Error(t, err)

	st, err := New(DefaultConfig(2), reg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, st.ID())
	assert.Len(t, st.Docks(), 5)
}

func TestTryBookOffPeak(t *testing.T) {
	f := newFixture(t)
	adm, err := f.st.TryBook(req(1, 10, 8, 2, model.ChargingSlow))
	require.NoError(t, err)
	b := adm.Booking
	assert.Equal(t, 1, b.ID)
	assert.Equal(t, 1, b.DockID)
	assert.Equal(t, 8.0, b.StartTime)
	assert.False(t, b.Deferred)
	assert.True(t, b.Active())
	assert.False(t, adm.Critical)

	docks := f.st.Docks()
	assert.True(t, docks[0].Occupied)
	assert.Equal(t, 10, docks[0].VehicleID)
	assert.Equal(t, []model.NotificationKind{model.NotifyScheduled}, f.notes.kinds())
}

func TestPeakDeferral(t *testing.T) {
	f := newFixture(t)
	adm, err := f.st.TryBook(req(1, 10, 14, 2, model.ChargingSlow))
	require.NoError(t, err)
	assert.Equal(t, 18.0, adm.Booking.StartTime)
	assert.Equal(t, 14.0, adm.Booking.RequestedStart)
	assert.True(t, adm.Booking.Deferred)

	require.Len(t, f.notes.notes, 2)
	assert.Equal(t, model.NotifyDeferred, f.notes.notes[0].Kind)
	assert.Equal(t, 18.0, f.notes.notes[0].Value)
	assert.Equal(t, model.NotifyScheduled, f.notes.notes[1].Kind)
	assert.Equal(t, 18.0, f.notes.notes[1].Value)
}

func TestCriticalBypassesDeferral(t *testing.T) {
	f := newFixture(t)
	premium, err := f.st.TryBook(req(2, 20, 13, 1, model.ChargingSlow))
	require.NoError(t, err)
	assert.Equal(t, 13.0, premium.Booking.StartTime)
	assert.True(t, premium.Critical)
	// during peak a non-solar request is steered to the first solar dock
	assert.Equal(t, 2, premium.Booking.DockID)

	lowSoC, err := f.st.TryBook(req(3, 30, 13, 1, model.ChargingMedium))
	require.NoError(t, err)
	assert.Equal(t, 13.0, lowSoC.Booking.StartTime)
	assert.False(t, lowSoC.Booking.Deferred)
	assert.Equal(t, 4, lowSoC.Booking.DockID)
	assert.NotContains(t, f.notes.kinds(), model.NotifyDeferred)
}

func TestCriticalThresholdIsConfigurable(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.CriticalSoC = 60 })
	adm, err := f.st.TryBook(req(1, 10, 13, 1, model.ChargingSlow))
	require.NoError(t, err)
	assert.Equal(t, 13.0, adm.Booking.StartTime)
}

func TestSolarRouting(t *testing.T) {
	f := newFixture(t)
	a, err := f.st.TryBook(req(1, 10, 8, 2, model.ChargingSolar))
	require.NoError(t, err)
	assert.Equal(t, 2, a.Booking.DockID)

	b, err := f.st.TryBook(req(1, 11, 8, 2, model.ChargingSolar))
	require.NoError(t, err)
	assert.Equal(t, 4, b.Booking.DockID)

	_, err = f.st.TryBook(req(2, 20, 8, 2, model.ChargingSolar))
	assert.ErrorIs(t, err, ErrNoAvailableDock)
	for _, d := range f.st.Docks() {
		if d.Source == "Grid" {
			assert.False(t, d.Occupied, "grid dock %d must stay free", d.ID)
		}
	}
}

func TestSolarUnavailableAtNight(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.weather.Set(model.Night))
	_, err := f.st.TryBook(req(1, 10, 8, 2, model.ChargingSolar))
	assert.ErrorIs(t, err, ErrNoAvailableDock)

	require.NoError(t, f.weather.Set(model.Cloudy))
	// the slow solar dock drops to 3.5kW, the medium one still covers 7kW
	a, err := f.st.TryBook(req(1, 10, 8, 2, model.ChargingSolar))
	require.NoError(t, err)
	assert.Equal(t, 4, a.Booking.DockID)
	// a 22kW request only fits the grid medium dock
	m, err := f.st.TryBook(req(1, 11, 8, 2, model.ChargingMedium))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Booking.DockID)
}

func TestAdmissionPreconditions(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		r    model.DeferredRequest
		want error
	}{
		{"start too late", req(1, 10, 24, 1, model.ChargingSlow), ErrStartTimeOutOfRange},
		{"negative start", req(1, 10, -1, 1, model.ChargingSlow), ErrStartTimeOutOfRange},
		{"zero duration", req(1, 10, 8, 0, model.ChargingSlow), ErrInvalidDuration},
		{"unknown type", model.DeferredRequest{UserID: 1, VehicleID: 10, StartTime: 8, Duration: 1, ChargingType: 9}, ErrUnknownChargingType},
		{"unknown user", req(99, 10, 8, 1, model.ChargingSlow), ErrUserNotFound},
		{"foreign vehicle", req(2, 10, 8, 1, model.ChargingSlow), ErrVehicleNotFound},
		{"unknown vehicle", req(1, 99, 8, 1, model.ChargingSlow), ErrVehicleNotFound},
		{"bad start and duration", req(1, 10, 30, -1, model.ChargingSlow), ErrStartTimeOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.st.TryBook(tc.r)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.st.Bookings())
	assert.Empty(t, f.notes.notes)
	for _, d := range f.st.Docks() {
		assert.False(t, d.Occupied)
	}
}

func TestCapacityCheckedFirst(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.MaxBookings = 1 })
	_, err := f.st.TryBook(req(1, 10, 8, 1, model.ChargingSlow))
	require.NoError(t, err)
	_, err = f.st.TryBook(req(99, 99, 30, -1, 9))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, "capacity_exceeded", RejectionReason(err))
}

func TestCancellationPenalties(t *testing.T) {
	f := newFixture(t)
	b1, err := f.st.TryBook(req(1, 10, 8, 1, model.ChargingSlow))
	require.NoError(t, err)
	b2, err := f.st.TryBook(req(1, 11, 8.5, 1, model.ChargingSlow))
	require.NoError(t, err)
	b3, err := f.st.TryBook(req(2, 20, 10, 1, model.ChargingSlow))
	require.NoError(t, err)
	b4, err := f.st.TryBook(req(3, 30, 20, 1, model.ChargingSlow))
	require.NoError(t, err)

	cases := []struct {
		b    Admission
		want string
	}{
		{b2, "5"},
		{b3, "2"},
		{b4, "0"},
	}
	for _, tc := range cases {
		p, err := f.st.Cancel(tc.b.Booking.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, p.String())
	}
	for _, d := range f.st.Docks() {
		assert.Equal(t, d.ID == b1.Booking.DockID, d.Occupied, "dock %d", d.ID)
	}

	_, err = f.st.Cancel(b2.Booking.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.st.Cancel(42)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	bs := f.st.Bookings()
	assert.Equal(t, model.BookingCancelled, bs[1].Status)
	assert.Zero(t, bs[1].EnergyKWh)
	assert.True(t, bs[1].Cost.IsZero())
}

func TestCancellationPenaltyBoundaries(t *testing.T) {
	assert.Equal(t, "5", CancellationPenalty(0.99).String())
	assert.Equal(t, "2", CancellationPenalty(1).String())
	assert.Equal(t, "2", CancellationPenalty(3.99).String())
	assert.Equal(t, "0", CancellationPenalty(4).String())
	assert.Equal(t, "5", CancellationPenalty(-2).String())
}

func TestDrainStopsAtFirstFailure(t *testing.T) {
	f := newFixture(t)
	_, err := f.st.TryBook(req(1, 10, 8, 2, model.ChargingSolar))
	require.NoError(t, err)
	_, err = f.st.TryBook(req(1, 11, 8, 2, model.ChargingSolar))
	require.NoError(t, err)

	first := req(2, 20, 9, 1, model.ChargingSlow)
	blocked := req(3, 30, 9, 1, model.ChargingSolar)
	last := req(1, 12, 9, 1, model.ChargingSlow)
	f.st.Enqueue(first)
	f.st.Enqueue(blocked)
	assert.Equal(t, 3, f.st.Enqueue(last))

	res := f.st.Drain()
	require.Len(t, res.Admitted, 1)
	assert.Equal(t, 2, res.Admitted[0].Booking.UserID)
	assert.Equal(t, 2, res.Remaining)
	assert.ErrorIs(t, res.Err, ErrNoAvailableDock)
	assert.Equal(t, []model.DeferredRequest{blocked, last}, f.st.Pending())

	// freeing a solar dock unblocks the rest of the queue
	_, err = f.st.Cancel(1)
	require.NoError(t, err)
	res = f.st.Drain()
	assert.Len(t, res.Admitted, 2)
	assert.Zero(t, res.Remaining)
	assert.NoError(t, res.Err)
	assert.Empty(t, f.st.Pending())
}

func TestDischargeToGrid(t *testing.T) {
	f := newFixture(t)
	got, err := f.st.DischargeToGrid(10, 5)
	require.NoError(t, err)
	assert.Zero(t, got)
	v, _ := f.reg.LookupVehicle(10)
	assert.Equal(t, 50.0, v.SoC)

	got, err = f.st.DischargeToGrid(12, 100)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got, 1e-9)
	v, _ = f.reg.LookupVehicle(12)
	assert.InDelta(t, 0.0, v.SoC, 1e-9)
	assert.Equal(t, []model.NotificationKind{model.NotifyDischarged}, f.notes.kinds())

	_, err = f.st.DischargeToGrid(12, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.st.DischargeToGrid(404, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistration(t *testing.T) {
	reg := registry.NewMemoryStore(1, 1)
	st, err := New(DefaultConfig(1), reg, nil, nil)
	require.NoError(t, err)

	u, err := st.RegisterUser(1, "dave", 7)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipRegular, u.Membership)

	_, err = st.RegisterUser(2, "erin", 1)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = st.RegisterVehicle(5, 99, 50, 40, false)
	assert.ErrorIs(t, err, ErrUserNotFound)

	v, err := st.RegisterVehicle(5, 1, 150, -3, true)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v.SoC)
	assert.Zero(t, v.CapacityKWh)

	reg2 := registry.NewMemoryStore(0, 0)
	st2, err := New(DefaultConfig(1), reg2, nil, nil)
	require.NoError(t, err)
	_, err = st2.RegisterUser(1, "dave", 0)
	require.NoError(t, err)
	_, err = st2.RegisterUser(1, "dave", 0)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSideEffectsReachBusAndJournal(t *testing.T) {
	f := newFixture(t)
	bus := eventbus.New[events.Event]()
	sub := bus.Subscribe()
	f.st.SetEventBus(bus)
	store := &memStore{}
	f.st.SetLogStore(store)

	_, err := f.st.TryBook(req(1, 10, 8, 2, model.ChargingFast))
	require.NoError(t, err)
	_, err = f.st.TryBook(req(99, 10, 8, 2, model.ChargingFast))
	require.Error(t, err)

	ev := <-sub
	admitted, ok := ev.(events.BookingAdmitted)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, model.SourceGrid, admitted.Source)
	ev = <-sub
	rejected, ok := ev.(events.BookingRejected)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "user_not_found", rejected.Reason)

	require.Len(t, store.recs, 2)
	assert.Equal(t, journal.KindAdmitted, store.recs[0].Kind)
	assert.Equal(t, 1, store.recs[0].StationID)
	assert.Equal(t, journal.KindRejected, store.recs[1].Kind)
}

func TestConcurrentBookingsNeverShareADock(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.MaxBookings = 100 })
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted, noDock := 0, 0
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.st.TryBook(req(2, 20, 8, 2, model.ChargingSlow))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, ErrNoAvailableDock):
				noDock++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, admitted)
	assert.Equal(t, 35, noDock)
	assertLedgerConsistent(t, f.st)
}
