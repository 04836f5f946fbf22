// internal/app/system/workers/lifecyclesweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SweepCounts reports what one lifecycle pass changed.
type SweepCounts struct {
	Published int64 `json:"published"`
	Deleted   int64 `json:"deleted"`
	Archived  int64 `json:"archived"`
}

// Sweeper performs one lifecycle pass: publish due records, delete records
// past their auto-delete time, archive records past their auto-archive time.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (SweepCounts, error)
}

// LifecycleSweep is a background worker that periodically runs the activity
// lifecycle sweep so scheduled publishes and automations fire even when no
// request traffic triggers them.
type LifecycleSweep struct {
	sweeper  Sweeper
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewLifecycleSweep creates a new lifecycle sweep worker.
//
// Parameters:
//   - sweeper: the activity lifecycle sweeper
//   - logger: zap logger for logging
//   - interval: how often to run the sweep (e.g., 1 minute)
func NewLifecycleSweep(sweeper Sweeper, logger *zap.Logger, interval time.Duration) *LifecycleSweep {
	return &LifecycleSweep{
		sweeper:  sweeper,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *LifecycleSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("lifecycle sweep worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *LifecycleSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("lifecycle sweep worker stopped")
}

func (w *LifecycleSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *LifecycleSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	counts, err := w.sweeper.Sweep(ctx, time.Now())
	if err != nil {
		w.log.Error("lifecycle sweep failed", zap.Error(err))
		return
	}

	if counts.Published > 0 || counts.Deleted > 0 || counts.Archived > 0 {
		w.log.Info("lifecycle sweep applied changes",
			zap.Int64("published", counts.Published),
			zap.Int64("deleted", counts.Deleted),
			zap.Int64("archived", counts.Archived))
	}
}
