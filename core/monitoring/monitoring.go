// Package monitoring forwards unexpected failures, such as consistency faults
// or recovered panics, to an error tracker.
package monitoring

import (
	"sync"
	"time"
)

// Monitor reports errors and panics.
type Monitor interface {
	CaptureError(err error, tags map[string]string)
	CapturePanic(v any, tags map[string]string)
	Flush(timeout time.Duration) bool
}

type NopMonitor struct{}

func (NopMonitor) CaptureError(error, map[string]string) {}
func (NopMonitor) CapturePanic(any, map[string]string)   {}
func (NopMonitor) Flush(time.Duration) bool              { return true }

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the process-wide monitor. A nil monitor restores NopMonitor.
func Init(m Monitor) {
	if m == nil {
		m = NopMonitor{}
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

// Current returns the process-wide monitor.
func Current() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureError reports err with optional tags. Nil errors are ignored.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	Current().CaptureError(err, tags)
}

// CapturePanic reports a recovered panic value.
func CapturePanic(v any, tags map[string]string) { Current().CapturePanic(v, tags) }

// Flush waits for buffered reports to be delivered.
func Flush(timeout time.Duration) bool { return Current().Flush(timeout) }
