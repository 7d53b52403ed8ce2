package station

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargestation/core/journal"
	"github.com/kilianp07/chargestation/core/model"
)

type memStore struct {
	mu   sync.Mutex
	recs []journal.Record
}

func (m *memStore) Append(_ context.Context, r journal.Record) error {
	m.mu.Lock()
	m.recs = append(m.recs, r)
	m.mu.Unlock()
	return nil
}

func (m *memStore) Query(_ context.Context, q journal.LogQuery) ([]journal.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []journal.Record
	for _, r := range m.recs {
		if q.Match(r) {
			res = append(res, r)
		}
	}
	return res, nil
}

func (m *memStore) Close() error { return nil }

// assertLedgerConsistent checks that active bookings on a dock never overlap
// and that a dock is occupied exactly when one active booking holds it.
func assertLedgerConsistent(t *testing.T, st *Station) {
	t.Helper()
	bookings := st.Bookings()
	for _, d := range st.Docks() {
		var active []model.Booking
		for _, b := range bookings {
			if b.Active() && b.DockID == d.ID {
				active = append(active, b)
			}
		}
		for i := range active {
			for j := i + 1; j < len(active); j++ {
				assert.False(t, active[i].Overlaps(active[j].StartTime, active[j].Duration),
					"bookings %d and %d overlap on dock %d", active[i].ID, active[j].ID, d.ID)
			}
		}
		if d.Occupied {
			require.Len(t, active, 1, "dock %d occupied", d.ID)
			assert.Equal(t, active[0].VehicleID, d.VehicleID)
		} else {
			assert.Empty(t, active, "dock %d free", d.ID)
			assert.Zero(t, d.VehicleID)
		}
	}
}

func TestRandomOperationsKeepLedgerConsistent(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.MaxBookings = 400 })
	rng := rand.New(rand.NewSource(42))
	owners := map[int]int{10: 1, 11: 1, 12: 1, 20: 2, 30: 3}
	vehicles := []int{10, 11, 12, 20, 30}
	weathers := []model.Weather{model.Sunny, model.Cloudy, model.Night}

	for i := 0; i < 1000; i++ {
		switch op := rng.Intn(10); {
		case op < 6:
			vid := vehicles[rng.Intn(len(vehicles))]
			r := req(owners[vid], vid, float64(rng.Intn(48))/2, float64(1+rng.Intn(8))/2, model.ChargingType(1+rng.Intn(4)))
			if _, err := f.st.TryBook(r); err != nil {
				f.st.Enqueue(r)
			}
		case op < 7:
			f.st.Drain()
		case op < 8:
			_, _ = f.st.Cancel(1 + rng.Intn(len(f.st.Bookings())+1))
		case op < 9:
			_, _ = f.st.Complete(1 + rng.Intn(len(f.st.Bookings())+1))
		default:
			require.NoError(t, f.weather.Set(weathers[rng.Intn(len(weathers))]))
		}
		assertLedgerConsistent(t, f.st)
	}

	for i, b := range f.st.Bookings() {
		assert.Equal(t, i+1, b.ID, "ids are sequential")
		assert.GreaterOrEqual(t, b.StartTime, 0.0)
		assert.Less(t, b.StartTime, 24.0)
		if b.Deferred {
			assert.Equal(t, 18.0, b.StartTime)
		}
	}
}
