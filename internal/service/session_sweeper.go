package service

import (
	"log/slog"
	"sync"
	"time"

	"bloggers-platform/internal/repository"
)

// StartSessionSweeper periodically deletes sessions past their expiry so the
// store doesn't accumulate rows for devices that never log out. The returned
// stop function may be called any number of times, from any goroutine.
// Non-positive intervals fall back to one minute.
func StartSessionSweeper(sessions repository.SessionRepository, interval time.Duration, logger *slog.Logger) func() {
	if interval <= 0 {
		interval = time.Minute
	}
	done := make(chan struct{})
	var stopOnce sync.Once

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				removed, err := sessions.DeleteExpired()
				if err != nil {
					logger.Error("session sweep failed", "error", err)
					continue
				}
				if removed > 0 {
					logger.Info("expired sessions swept", "removed", removed)
				}
			}
		}
	}()

	return func() {
		stopOnce.Do(func() { close(done) })
	}
}
