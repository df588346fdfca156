package schedule

import (
	"sync"
	"time"
)

// Handle is a cancelable repeating task started by Slot.Arm.
type Handle struct {
	stop chan struct{}
	once sync.Once
}

// Cancel stops the task. It is safe to call more than once.
func (h *Handle) Cancel() {
	h.once.Do(func() { close(h.stop) })
}

// Canceled reports whether Cancel has been called.
func (h *Handle) Canceled() bool {
	select {
	case <-h.stop:
		return true
	default:
		return false
	}
}

func (h *Handle) run(interval time.Duration, fn func(*Handle)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			// A cancel racing with a tick must win. fn gets h so it can
			// repeat the check under its own lock.
			if h.Canceled() {
				return
			}
			fn(h)
		}
	}
}

// Slot holds at most one active repeating task. Arming a slot cancels
// whatever it held before.
type Slot struct {
	mu      sync.Mutex
	current *Handle
}

// Arm cancels the current task, if any, and starts fn every interval.
// fn receives the handle it was armed with.
func (s *Slot) Arm(interval time.Duration, fn func(*Handle)) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Cancel()
	}
	h := &Handle{stop: make(chan struct{})}
	s.current = h
	go h.run(interval, fn)
	return h
}

// Stop cancels the current task without starting a new one.
func (s *Slot) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Cancel()
		s.current = nil
	}
}

// Active reports whether the slot holds a running task.
func (s *Slot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && !s.current.Canceled()
}
