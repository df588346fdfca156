package schedule

import (
	"sync"
	"time"
)

// ScanState tracks the single fetch cycle allowed in flight.
type ScanState struct {
	mu          sync.Mutex
	inFlight    bool
	lastSuccess time.Time
	status      string
}

// ScanSnapshot is a point-in-time copy of ScanState.
type ScanSnapshot struct {
	InFlight    bool
	LastSuccess time.Time
	Status      string
}

// NewScanState returns an idle scan state.
func NewScanState(status string) *ScanState {
	return &ScanState{status: status}
}

// TryBegin marks a cycle as started. It returns false, changing nothing,
// when another cycle is already in flight.
func (s *ScanState) TryBegin(status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	s.status = status
	return true
}

// End clears the in-flight flag. The last-success time moves only when ok.
func (s *ScanState) End(ok bool, status string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.status = status
	if ok {
		s.lastSuccess = at
	}
}

// InFlight reports whether a cycle is running.
func (s *ScanState) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Snapshot returns a copy of the current state.
func (s *ScanState) Snapshot() ScanSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ScanSnapshot{InFlight: s.inFlight, LastSuccess: s.lastSuccess, Status: s.status}
}
