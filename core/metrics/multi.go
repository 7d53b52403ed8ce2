package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAdmission forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordAdmission(ev AdmissionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAdmission(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordRejection forwards rejections to sinks that support them.
func (m *MultiSink) RecordRejection(ev RejectionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RejectionRecorder); ok {
			if err := rec.RecordRejection(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCancellation forwards cancellations.
func (m *MultiSink) RecordCancellation(ev CancellationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CancellationRecorder); ok {
			if err := rec.RecordCancellation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSettlement forwards settlements.
func (m *MultiSink) RecordSettlement(ev SettlementEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SettlementRecorder); ok {
			if err := rec.RecordSettlement(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDischarge forwards V2G discharges.
func (m *MultiSink) RecordDischarge(ev DischargeEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DischargeRecorder); ok {
			if err := rec.RecordDischarge(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordQueueDepth forwards queue depth samples.
func (m *MultiSink) RecordQueueDepth(stationID, depth int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(QueueDepthRecorder); ok {
			if err := rec.RecordQueueDepth(stationID, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases every sink holding a connection.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
