package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-certgen/config"
	"github.com/goliatone/go-router"
)

// server is the part of router.Server runServe needs; the plain net/http
// transport implements it too.
type server interface {
	Serve(address string) error
	Shutdown(ctx context.Context) error
}

// newServer builds the transport selected by cfg with the form mounted.
func newServer(ctx context.Context, app *App, cfg config.ServerConfig) server {
	if strings.EqualFold(strings.TrimSpace(cfg.Transport), config.TransportHTTP) {
		return &httpServer{srv: &http.Server{
			Handler:           app.HTTPHandler(ctx),
			ReadHeaderTimeout: 10 * time.Second,
		}}
	}
	srv := router.NewFiberAdapter(fiberAppInitializer())
	app.SetupRoutes(ctx, srv.Router())
	return srv
}

type httpServer struct {
	srv *http.Server
}

func (s *httpServer) Serve(address string) error {
	s.srv.Addr = address
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *httpServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests mirrors the fiber logger middleware line for net/http.
func logRequests(next http.Handler, log *StdLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Infof("%d %s %s %s", rec.status, r.Method, r.URL.Path, time.Since(start))
	})
}

func fiberAppInitializer() func(*fiber.App) *fiber.App {
	return func(*fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:               "certgen",
			DisableStartupMessage: true,
		})
		app.Use(recover.New())
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
		}))
		return app
	}
}
