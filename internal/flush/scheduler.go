// Package flush implements the Flush Scheduler (C6): a periodic,
// writer-only tick that ages out stale rows and drains the Write
// Queues into the Store Gateway, per spec.md §4.3. Grounded on
// internal/common/maintenance/scheduler.go's CleanupScheduler
// (ticker-driven, cancellable-context loop) and processor.go's
// transaction-per-tick pattern.
package flush

import (
	"context"
	"sync"
	"time"

	"github.com/transitfusion/gtfsrealtime/internal/logging"
	"github.com/transitfusion/gtfsrealtime/internal/queue"
	"github.com/transitfusion/gtfsrealtime/internal/store"
)

// Scheduler owns the writer connection's tick loop.
type Scheduler struct {
	interval     time.Duration
	reviewWindow time.Duration
	gateway      *store.Gateway
	queues       *queue.Queues
	log          logging.Logger
	alert        logging.AlertSink

	mu             sync.Mutex
	running        bool
	cancel         context.CancelFunc
	done           chan struct{}
	consecutiveErr int
}

// New constructs a Scheduler. alert may be a logging.NoopAlertSink.
func New(interval, reviewWindow time.Duration, gateway *store.Gateway, queues *queue.Queues, log logging.Logger, alert logging.AlertSink) *Scheduler {
	return &Scheduler{
		interval:     interval,
		reviewWindow: reviewWindow,
		gateway:      gateway,
		queues:       queues,
		log:          log,
		alert:        alert,
	}
}

// Start launches the tick loop. It returns immediately; the loop runs
// until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	tickCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	go s.loop(tickCtx)
}

// Stop cancels the tick loop and waits for the in-flight tick, if any,
// to finish, performing a final best-effort drain first.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.runTick(context.Background())
			return
		case <-ticker.C:
			s.runTick(ctx)
		}
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	if err := s.tick(ctx); err != nil {
		s.consecutiveErr++
		s.log.Error("flush tick failed", "error", err, "consecutive_failures", s.consecutiveErr)
		if s.consecutiveErr > 1 {
			if alertErr := s.alert.Alert("error", "repeated flush failures", map[string]interface{}{
				"consecutive_failures": s.consecutiveErr,
				"error":                err.Error(),
			}); alertErr != nil {
				s.log.Warn("failed to send flush failure alert", "error", alertErr)
			}
		}
		return
	}
	s.consecutiveErr = 0
}

// tick runs one flush cycle: age-out, drain deletes, drain inserts,
// all within a single transaction per spec.md §4.3. A StoreError aborts
// the tick and rolls the transaction back; items still in the queues
// retry next tick, while items already popped during the aborted tick
// are not re-queued.
func (s *Scheduler) tick(ctx context.Context) error {
	tx, err := s.gateway.BeginTx(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	cutoff := time.Now().Add(-s.reviewWindow).Unix()
	if err := s.gateway.AgeOutRealtime(ctx, tx, cutoff); err != nil {
		return err
	}

	if err := s.drainDeletes(ctx, tx); err != nil {
		return err
	}
	if err := s.drainInserts(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
