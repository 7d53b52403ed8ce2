package metrics

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type recordSink struct {
	admissions int
	settled    int
	depth      int
}

func (r *recordSink) RecordAdmission(AdmissionEvent) error {
	r.admissions++
	return nil
}

func (r *recordSink) RecordSettlement(SettlementEvent) error {
	r.settled++
	return nil
}

func (r *recordSink) RecordQueueDepth(_ int, depth int) error {
	r.depth = depth
	return nil
}

// admissionOnly implements only the mandatory method.
type admissionOnly struct{ count int }

func (a *admissionOnly) RecordAdmission(AdmissionEvent) error {
	a.count++
	return nil
}

type failingSink struct{}

func (failingSink) RecordAdmission(AdmissionEvent) error { return errors.New("boom") }

func TestMultiSinkForwards(t *testing.T) {
	s1 := &recordSink{}
	s2 := &admissionOnly{}
	m := NewMultiSink(s1, s2)

	assert.NoError(t, m.RecordAdmission(AdmissionEvent{BookingID: 1}))
	assert.NoError(t, m.RecordSettlement(SettlementEvent{BookingID: 1, Cost: decimal.NewFromInt(40)}))
	assert.NoError(t, m.RecordQueueDepth(1, 3))
	assert.NoError(t, m.RecordDischarge(DischargeEvent{VehicleID: 2}))

	assert.Equal(t, 1, s1.admissions)
	assert.Equal(t, 1, s1.settled)
	assert.Equal(t, 3, s1.depth)
	assert.Equal(t, 1, s2.count)
}

func TestMultiSinkStopsOnError(t *testing.T) {
	after := &admissionOnly{}
	m := NewMultiSink(failingSink{}, after)
	assert.Error(t, m.RecordAdmission(AdmissionEvent{}))
	assert.Zero(t, after.count)
}
