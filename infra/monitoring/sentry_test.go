package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargestation/config"
	coremon "github.com/kilianp07/chargestation/core/monitoring"
)

func TestEmptyDSNIsNop(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestInvalidDSN(t *testing.T) {
	_, err := NewSentryMonitor(config.SentryConfig{DSN: "::not a dsn"})
	assert.Error(t, err)
}

func TestSentryMonitorCapturesTaggedEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	m, err := newSentryMonitor(config.SentryConfig{DSN: "https://public@example.com/1", Environment: "test"},
		func(ev *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
			return nil
		})
	require.NoError(t, err)

	m.CaptureError(nil, nil)
	m.CaptureError(errors.New("consistency fault"), map[string]string{"route": "/api/stations/1/docks"})
	m.CapturePanic("handler panic", map[string]string{"route": "/api/weather"})
	m.Flush(time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, "/api/stations/1/docks", events[0].Tags["route"])
	require.NotEmpty(t, events[0].Exception)
	assert.Equal(t, "consistency fault", events[0].Exception[0].Value)
	assert.Equal(t, "test", events[0].Environment)
	assert.Equal(t, "/api/weather", events[1].Tags["route"])
}
