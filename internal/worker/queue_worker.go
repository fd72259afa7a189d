package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

// QueueFacade exposes the queue pass to the worker.
type QueueFacade interface {
	ProcessQueue(ctx context.Context) (*model.QueueReport, error)
}

// QueueWorker runs one queue pass per interval. Passes never overlap.
type QueueWorker struct {
	facade   QueueFacade
	interval time.Duration
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

func NewQueueWorker(facade QueueFacade, interval time.Duration, logger *slog.Logger) *QueueWorker {
	return &QueueWorker{facade: facade, interval: interval, logger: logger}
}

// Start launches the pass loop. A zero interval disables the worker.
func (w *QueueWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("auto-order queue worker disabled")
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(runCtx)
}

// Stop cancels the current pass and waits for the loop to exit.
func (w *QueueWorker) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *QueueWorker) run(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pass(ctx)
		}
	}
}

func (w *QueueWorker) pass(ctx context.Context) {
	report, err := w.facade.ProcessQueue(ctx)
	if err != nil {
		w.logger.Error("auto-order queue pass failed", slog.String("error", err.Error()))
		return
	}
	for _, res := range report.Results {
		if res.Status == model.QueueFailed {
			w.logger.Warn("queued order gave up",
				slog.String("order_id", res.OrderID),
				slog.String("queue_id", res.ID.String()),
				slog.String("error", res.Error),
			)
		}
	}
}
