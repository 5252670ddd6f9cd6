package offer

import (
	"context"
	"log"
	"time"
)

// Retention is the optional purge surface the sweeper drives on a
// coarser cadence: elapsed one-off blocks and terminal waitlist
// entries past their audit window.
type Retention interface {
	PurgeElapsed(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeTerminal(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically finds offers past their deadline and feeds them
// back into the coordinator as expiry events.  Each entry is attempted
// independently so one failure never aborts a pass, and re-running
// against an already-expired entry is a no-op because Expire re-checks
// status.
type Sweeper struct {
	Entries  EntryStore
	Coord    *Coordinator
	Interval time.Duration

	// Retention, when set, is purged once per RetentionEvery sweeps,
	// keeping rows older than RetentionWindow.
	Retention       Retention
	RetentionEvery  int
	RetentionWindow time.Duration

	// Now is the injected clock; nil means wall-clock UTC.
	Now func() time.Time
}

// Run sweeps on the configured interval until the context is
// cancelled.  It is meant to be started once, in its own goroutine,
// from main.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	passes := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if n, failed := s.SweepOnce(ctx); n > 0 || failed > 0 {
			log.Printf("sweeper: expired %d offers (%d failures)", n, failed)
		}
		passes++
		if s.Retention != nil && s.RetentionEvery > 0 && passes%s.RetentionEvery == 0 {
			s.purge(ctx)
		}
	}
}

// SweepOnce performs a single pass and returns how many entries were
// fed to Expire and how many of those attempts failed.  Failures are
// logged per entry and do not stop the pass.
func (s *Sweeper) SweepOnce(ctx context.Context) (swept, failed int) {
	now := s.clock()
	expired, err := s.Entries.ListExpiredOffers(ctx, now)
	if err != nil {
		log.Printf("sweeper: listing expired offers failed: %v", err)
		return 0, 0
	}
	for _, e := range expired {
		if err := s.Coord.Expire(ctx, e.ID); err != nil {
			log.Printf("sweeper: expiring entry %d failed: %v", e.ID, err)
			failed++
			continue
		}
		swept++
	}
	return swept, failed
}

func (s *Sweeper) purge(ctx context.Context) {
	cutoff := s.clock().Add(-s.RetentionWindow)
	if n, err := s.Retention.PurgeElapsed(ctx, cutoff); err != nil {
		log.Printf("sweeper: purging elapsed blocks failed: %v", err)
	} else if n > 0 {
		log.Printf("sweeper: purged %d elapsed blocks", n)
	}
	if n, err := s.Retention.PurgeTerminal(ctx, cutoff); err != nil {
		log.Printf("sweeper: purging terminal waitlist entries failed: %v", err)
	} else if n > 0 {
		log.Printf("sweeper: purged %d terminal waitlist entries", n)
	}
}

func (s *Sweeper) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
