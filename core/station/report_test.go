package station

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargestation/core/model"
)

func TestReportEmpty(t *testing.T) {
	f := newFixture(t)
	r := f.st.Report()
	assert.Zero(t, r.UtilizationPct)
	assert.Zero(t, r.AvgDurationHours)
	assert.Zero(t, r.GridPct)
	assert.True(t, r.Revenue.IsZero())
	assert.Equal(t, DefaultGridCapacityKW, r.GridCapacityKW)
}

func TestReportAggregates(t *testing.T) {
	f := newFixture(t)
	fast, err := f.st.TryBook(req(1, 10, 8, 2, model.ChargingFast))
	require.NoError(t, err)
	solar, err := f.st.TryBook(req(1, 11, 8, 2, model.ChargingSolar))
	require.NoError(t, err)
	premium, err := f.st.TryBook(req(2, 20, 9, 1, model.ChargingSlow))
	require.NoError(t, err)
	_, err = f.st.Complete(fast.Booking.ID)
	require.NoError(t, err)
	_, err = f.st.Complete(solar.Booking.ID)
	require.NoError(t, err)
	f.st.Enqueue(req(3, 30, 8, 1, model.ChargingSolar))

	r := f.st.Report()
	// occupied 4h over a 2h span on 5 docks
	assert.InDelta(t, 40.0, r.UtilizationPct, 1e-9)
	assert.InDelta(t, 2.0, r.AvgDurationHours, 1e-9)
	assert.InDelta(t, 100.0, r.GridEnergyKWh, 1e-9)
	assert.InDelta(t, 14.0, r.SolarEnergyKWh, 1e-9)
	assert.InDelta(t, 100.0/114*100, r.GridPct, 1e-9)
	assert.InDelta(t, 14.0/114*100, r.SolarPct, 1e-9)
	assert.Equal(t, "41.6065", r.Revenue.String())
	assert.InDelta(t, 50.0, r.CO2Kg, 1e-9)
	assert.Equal(t, 2, r.RegularBookings)
	assert.Equal(t, 1, r.PremiumBookings)
	assert.Equal(t, 1, r.ActiveBookings)
	assert.Equal(t, 3, r.TotalBookings)
	assert.Equal(t, 1, r.QueueDepth)
	assert.Equal(t, 7.0, r.PowerDrawKW)
	assert.Equal(t, 1, premium.Booking.DockID)
}

func TestLiveSessions(t *testing.T) {
	f := newFixture(t)
	_, err := f.st.TryBook(req(1, 10, 8, 2, model.ChargingFast))
	require.NoError(t, err)
	_, err = f.st.TryBook(req(2, 20, 20, 3, model.ChargingMedium))
	require.NoError(t, err)

	sessions := f.st.LiveSessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, 1.0, sessions[0].ElapsedHours)
	assert.Equal(t, 50.0, sessions[0].EnergyKWh)
	assert.Equal(t, 1.0, sessions[0].RemainingHours)
	assert.Zero(t, sessions[1].ElapsedHours)
	assert.Equal(t, 3.0, sessions[1].RemainingHours)

	_, err = f.st.Cancel(1)
	require.NoError(t, err)
	assert.Len(t, f.st.LiveSessions(), 1)
}

func TestUserBookingsAndPowerDraw(t *testing.T) {
	f := newFixture(t)
	_, err := f.st.TryBook(req(1, 10, 8, 2, model.ChargingFast))
	require.NoError(t, err)
	_, err = f.st.TryBook(req(2, 20, 8, 2, model.ChargingSlow))
	require.NoError(t, err)
	_, err = f.st.TryBook(req(1, 11, 9, 1, model.ChargingSolar))
	require.NoError(t, err)

	mine := f.st.UserBookings(1)
	require.Len(t, mine, 2)
	assert.Equal(t, 1, mine[0].ID)
	assert.Equal(t, 3, mine[1].ID)
	assert.Empty(t, f.st.UserBookings(3))

	assert.Equal(t, 64.0, f.st.PowerDraw())
	require.NoError(t, f.weather.Set(model.Night))
	assert.Equal(t, 57.0, f.st.PowerDraw())
}
