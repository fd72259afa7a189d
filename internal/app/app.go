package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/autoorder/internal/config"
	"github.com/polkiloo/autoorder/internal/worker"
)

// Module wires the facade, the HTTP server and the background workers into the fx lifecycle.
var Module = fx.Options(
	fx.Provide(
		NewFulfillmentFacade,
		newHTTPServer,
		newTrackingSweeper,
		newQueueWorker,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 2 * time.Minute
)

// No WriteTimeout: place_order runs supplier calls in sequence, each bounded by the supplier timeout.
func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:              p.Config.RunAddress,
		Handler:           p.Router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
}

type workerParams struct {
	fx.In

	Facade *FulfillmentFacade
	Config *config.Config
	Logger *slog.Logger
}

func newTrackingSweeper(p workerParams) *worker.TrackingSweeper {
	return worker.NewTrackingSweeper(
		p.Facade,
		p.Config.TrackingSyncInterval,
		p.Config.TrackingBatchSize,
		p.Config.TrackingWorkers,
		p.Logger,
	)
}

func newQueueWorker(p workerParams) *worker.QueueWorker {
	return worker.NewQueueWorker(p.Facade, p.Config.QueueInterval, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Sweeper    *worker.TrackingSweeper
	Queue      *worker.QueueWorker
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", p.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", p.Server.Addr, err)
			}
			p.Logger.Info("starting autoorder",
				slog.String("addr", ln.Addr().String()),
				slog.Duration("tracking_sync_interval", p.Config.TrackingSyncInterval),
				slog.Duration("queue_interval", p.Config.QueueInterval),
			)
			p.Sweeper.Start(ctx)
			p.Queue.Start(ctx)
			go func() {
				if err := p.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Queue.Stop()
			p.Sweeper.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("autoorder stopped")
			return nil
		},
	})
}
