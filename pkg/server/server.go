package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	handlers "github.com/ses4j/ebird-statistical-report/pkg/handlers/report"
	"github.com/ses4j/ebird-statistical-report/pkg/metrics"
	reportmiddleware "github.com/ses4j/ebird-statistical-report/pkg/server/middleware"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Generator handlers.Generator
	Metrics   *metrics.Recorder
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	// RequestTimeout bounds one request, report sections included.
	RequestTimeout time.Duration
	Dependencies   Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	reportHandler := handlers.NewHandler(config.Dependencies.Generator)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(reportmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)
	if config.RequestTimeout > 0 {
		router.Use(middleware.Timeout(config.RequestTimeout))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/regions/{region}", reportHandler.GetRegion)
		r.Get("/regions/{region}/years/{year}/sections", reportHandler.GetSections)
	})
	router.Method(http.MethodGet, "/metrics", config.Dependencies.Metrics.Handler())

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
		shutdownTimeout: timeout,
	}
}

func (w *WebAPI) Handler() http.Handler {
	return w.router
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
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
