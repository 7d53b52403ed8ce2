package station

import (
	"github.com/kilianp07/chargestation/core/events"
	"github.com/kilianp07/chargestation/core/model"
)

// DrainResult reports the outcome of a queue drain.
type DrainResult struct {
	Admitted  []Admission `json:"admitted"`
	Remaining int         `json:"remaining"`
	// Err is the rejection that stopped the drain, nil when the queue emptied.
	Err error `json:"-"`
}

// Enqueue appends a request to the back of the deferred queue.
func (s *Station) Enqueue(req model.DeferredRequest) int {
	s.mu.Lock()
	s.queue = append(s.queue, req)
	depth := len(s.queue)
	out := s.newOutbox()
	out.events = append(out.events, events.QueueChanged{StationID: s.cfg.ID, Depth: depth})
	s.mu.Unlock()
	s.logger.Debugf("station %d: request of user %d queued, depth %d", s.cfg.ID, req.UserID, depth)
	s.flush(out)
	return depth
}

// Drain admits queued requests in arrival order and stops at the first
// rejection. The rejected request and everything behind it stay queued in
// their original order.
func (s *Station) Drain() DrainResult {
	w := s.weather.Current()
	s.mu.Lock()
	out := s.newOutbox()
	var res DrainResult
	for len(s.queue) > 0 {
		adm, err := s.admit(out, s.queue[0], w)
		if err != nil {
			res.Err = err
			break
		}
		s.queue = s.queue[1:]
		res.Admitted = append(res.Admitted, adm)
	}
	res.Remaining = len(s.queue)
	if len(s.queue) == 0 {
		s.queue = nil
	}
	out.events = append(out.events, events.QueueChanged{StationID: s.cfg.ID, Depth: res.Remaining, Admitted: len(res.Admitted)})
	s.mu.Unlock()
	s.flush(out)
	return res
}

// Pending returns a snapshot of the deferred queue, front first.
func (s *Station) Pending() []model.DeferredRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.DeferredRequest(nil), s.queue...)
}
