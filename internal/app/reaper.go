package app

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ReapIdle closes sessions of either mode that received no frame within the
// configured idle timeout and returns how many were closed.
func (a *App) ReapIdle(now time.Time) int {
	timeout := a.config.Settings.SessionIdleTimeout
	if timeout <= 0 {
		return 0
	}
	cutoff := now.Add(-timeout)

	a.mu.RLock()
	var idle []string
	for id, s := range a.sessions {
		if s.idleSince(cutoff) {
			idle = append(idle, id)
		}
	}
	a.mu.RUnlock()

	closed := 0
	for _, id := range idle {
		if _, err := a.CloseSession(id); err == nil {
			closed++
		}
	}
	if closed > 0 {
		log.Printf("Reaped %d idle sessions", closed)
	}
	return closed
}

// StartReaper runs ReapIdle on a cron schedule, either a 5-field expression
// or a descriptor such as "@every 1m".
func (a *App) StartReaper(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid reaper schedule %q: %w", schedule, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}
	a.stopCh = make(chan struct{})
	go a.runReaper(sched, a.stopCh)

	log.Printf("Session reaper scheduled (%s)", schedule)
	return nil
}

// StopReaper halts the reaper if it is running.
func (a *App) StopReaper() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
}

func (a *App) runReaper(sched cron.Schedule, stopCh <-chan struct{}) {
	for {
		now := a.now()
		timer := time.NewTimer(sched.Next(now).Sub(now))

		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C:
			a.ReapIdle(a.now())
		}
	}
}
