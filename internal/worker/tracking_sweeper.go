package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

// TrackingFacade exposes the subset of application functionality required by the sweeper.
type TrackingFacade interface {
	ClaimPendingTracking(ctx context.Context, limit int, backoff time.Duration) ([]model.TrackingTarget, error)
	SyncTracking(ctx context.Context, target model.TrackingTarget) model.TrackingSyncResult
}

// TrackingSweeper periodically claims supplier orders without tracking and syncs them concurrently.
type TrackingSweeper struct {
	facade       TrackingFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewTrackingSweeper constructs the sweeper worker pool.
func NewTrackingSweeper(facade TrackingFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *TrackingSweeper {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &TrackingSweeper{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
	}
}

// Start launches background processing. A zero poll interval disables the sweeper.
func (s *TrackingSweeper) Start(ctx context.Context) {
	if s.pollInterval <= 0 {
		s.logger.Info("tracking sweeper disabled")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	// Each run owns its channel; dispatch closes it on the way out.
	jobs := make(chan model.TrackingTarget, s.batchSize*s.workers)
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx, jobs)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx, jobs)
}

// Stop waits for all workers to finish.
func (s *TrackingSweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *TrackingSweeper) dispatch(ctx context.Context, jobs chan<- model.TrackingTarget) {
	defer s.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.claimAndDispatch(ctx, jobs)
		}
	}
}

func (s *TrackingSweeper) claimAndDispatch(ctx context.Context, jobs chan<- model.TrackingTarget) {
	targets, err := s.facade.ClaimPendingTracking(ctx, s.batchSize, s.pollInterval)
	if err != nil {
		s.logger.Error("claim pending tracking failed", slog.String("error", err.Error()))
		return
	}
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return
		case jobs <- target:
		}
	}
}

func (s *TrackingSweeper) worker(ctx context.Context, jobs <-chan model.TrackingTarget) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case target, ok := <-jobs:
			if !ok {
				return
			}
			s.handle(ctx, target)
		}
	}
}

func (s *TrackingSweeper) handle(ctx context.Context, target model.TrackingTarget) {
	res := s.facade.SyncTracking(ctx, target)
	switch {
	case res.Error != "":
		s.logger.Warn("tracking sweep failed",
			slog.String("order_id", target.OrderID),
			slog.String("supplier", string(target.Supplier)),
			slog.String("supplier_order_id", target.SupplierOrderID),
			slog.String("error", res.Error),
		)
	case res.Updated:
		s.logger.Info("tracking updated",
			slog.String("order_id", target.OrderID),
			slog.String("supplier_order_id", target.SupplierOrderID),
			slog.Bool("propagated", res.Propagated),
		)
	}
}
