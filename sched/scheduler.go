package sched

import (
	"sync"
	"time"
)

// Handle is an opaque, cancellable reference to one scheduled callback. A nil
// Handle is valid and Cancel on it is a no-op, matching the forwarder's own
// pattern of unconditionally calling cancel on a PIT entry's (possibly
// unset) timers.
type Handle = *item[func(), int64]

// Scheduler runs every scheduled callback on one dedicated goroutine started
// by New, so no two scheduled callbacks ever run concurrently. Packet arrival
// shares that event loop only when the host delivers packets from scheduled
// callbacks, as cmd/ndnfwsim does; a call into the forwarder from another
// goroutine is not serialized with the callbacks. Schedule/Cancel/Now may be
// called from any goroutine, including from within a running callback.
type Scheduler struct {
	mu   sync.Mutex
	q    queue[func(), int64]
	now  func() time.Time
	wake chan struct{}
}

// New constructs a Scheduler driven by wall-clock time and starts its
// callback-firing goroutine.
func New() *Scheduler {
	s := &Scheduler{
		q:    newQueue[func(), int64](),
		now:  time.Now,
		wake: make(chan struct{}, 1),
	}
	go s.run()
	return s
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.now()
}

// Schedule arms callback to run after delay, returning a cancellable handle.
func (s *Scheduler) Schedule(delay time.Duration, callback func()) Handle {
	s.mu.Lock()
	fireAt := s.now().Add(delay).UnixNano()
	h := s.q.push(callback, fireAt)
	s.mu.Unlock()
	s.notify()
	return h
}

// Cancel cancels a previously scheduled callback. Cancelling an already
// fired or already cancelled handle, or a nil handle, is a no-op.
func (s *Scheduler) Cancel(h Handle) {
	if h == nil {
		return
	}
	s.mu.Lock()
	s.q.remove(h)
	s.mu.Unlock()
	s.notify()
}

// notify wakes the run goroutine so it can re-evaluate the next deadline
// after a Schedule or Cancel changes the earliest entry.
func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the sole goroutine that ever invokes a scheduled callback. It waits
// for either the next entry's deadline or a wake signal, then drains every
// due entry before waiting again. Holding the lock only around queue access,
// never around callback invocation, is safe here precisely because no other
// goroutine ever calls a callback: there is nothing for this goroutine to
// race against.
func (s *Scheduler) run() {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		s.mu.Lock()
		next, ok := s.q.peek()
		s.mu.Unlock()

		var deadline <-chan time.Time
		if ok {
			d := time.Until(time.Unix(0, next.priority))
			if d < 0 {
				d = 0
			}
			timer.Reset(d)
			deadline = timer.C
		}

		select {
		case <-deadline:
		case <-s.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		for {
			s.mu.Lock()
			next, ok := s.q.peek()
			if !ok || next.priority > s.now().UnixNano() {
				s.mu.Unlock()
				break
			}
			it := s.q.pop()
			s.mu.Unlock()

			it.object()
		}
	}
}
