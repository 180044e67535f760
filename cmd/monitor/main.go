package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/gugatkesheladze/youtube-monitor/internal/bootstrap"
	"github.com/gugatkesheladze/youtube-monitor/internal/logger"
)

const shutdownTimeout = 15 * time.Second

// httpServer is the part of *http.Server that Run drives.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
	Addr() string
}

type realServer struct{ *http.Server }

func (r realServer) Addr() string { return r.Server.Addr }

// worker is a background loop that stops when its ctx is cancelled.
type worker interface {
	Run(ctx context.Context)
}

// appBuilder builds the server, an optional background worker and a cleanup
// function.
type appBuilder func() (httpServer, worker, func(), error)

func Run(build appBuilder, sigCh <-chan os.Signal, lg zerolog.Logger) int {
	srv, w, cleanup, err := build()
	if err != nil {
		lg.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer cleanup()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	if w != nil {
		go func() {
			defer close(workerDone)
			w.Run(workerCtx)
		}()
	} else {
		close(workerDone)
	}
	// stop the worker before cleanup closes what it uses
	defer func() {
		stopWorker()
		select {
		case <-workerDone:
		case <-time.After(shutdownTimeout):
			lg.Warn().Msg("background worker did not stop in time")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", srv.Addr()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		lg.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		lg.Error().Err(err).Msg("server crashed")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		lg.Error().Err(err).Msg("graceful shutdown failed")
		_ = srv.Close()
	}

	lg.Info().Msg("shutdown complete")
	return 0
}

func buildFromBootstrap() (httpServer, worker, func(), error) {
	app, cleanup, err := bootstrap.NewApp()
	if err != nil {
		return nil, nil, nil, err
	}
	// a nil *jobs.Poller must not become a non-nil worker
	var w worker
	if app.Poller != nil {
		w = app.Poller
	}
	return realServer{app.Server}, w, cleanup, nil
}

func main() {
	logger.Init()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	os.Exit(Run(buildFromBootstrap, sigCh, logger.Logger))
}
