package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/de-tools/benford-monitor/pkg/handlers/status"
	benfordmiddleware "github.com/de-tools/benford-monitor/pkg/server/middleware"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Status status.Provider
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Fs and OutputDir locate the published page and chart.
	Fs        afero.Fs
	OutputDir string
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	deps := config.Dependencies
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.OutputDir == "" {
		deps.OutputDir = "."
	}

	statusHandler := status.NewHandler(deps.Status)

	router := chi.NewRouter()

	router.Use(benfordmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", statusHandler.Health)
	router.Get("/api/v1/status", statusHandler.Health)
	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	site := http.FileServer(afero.NewHttpFs(deps.Fs).Dir(deps.OutputDir))
	router.With(middleware.NoCache).Handle("/*", site)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

func (w *WebAPI) Handler() http.Handler {
	return w.router
}

// Start serves until ctx is cancelled and then shuts the server down gracefully.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(shutdownCtx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
