package session

import (
	"context"
	"time"
)

// Start runs the periodic clock in a background goroutine until Stop is
// called or ctx is cancelled. It reports false if the clock was already
// running.
func (s *Session) Start(ctx context.Context) bool {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	if s.done != nil {
		select {
		case <-s.done:
			s.cancel()
		default:
			return false
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(ctx, done)

	s.logger.Info("clock started", "interval", s.interval)
	s.journal.Command("start", nil, nil)
	return true
}

func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Stop halts the clock and waits for the in-flight tick, if any, to finish.
// It reports false if the clock was not running. Stop must not be called
// from a TickObserver.
func (s *Session) Stop() bool {
	s.clockMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.clockMu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	<-done

	s.logger.Info("clock stopped", "tick", s.TickCount())
	s.journal.Command("stop", nil, nil)
	return true
}

// Running reports whether the clock is running.
func (s *Session) Running() bool {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}
