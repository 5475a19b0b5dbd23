package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	docxtemplate "github.com/goliatone/go-certgen/adapters/docx"
	formhttp "github.com/goliatone/go-certgen/adapters/http"
	certpdf "github.com/goliatone/go-certgen/adapters/pdf"
	formrouter "github.com/goliatone/go-certgen/adapters/router"
	storefs "github.com/goliatone/go-certgen/adapters/store/fs"
	trackerbun "github.com/goliatone/go-certgen/adapters/tracker/bun"
	sheetxlsx "github.com/goliatone/go-certgen/adapters/xlsx"
	"github.com/goliatone/go-certgen/certgen"
	"github.com/goliatone/go-certgen/command"
	"github.com/goliatone/go-certgen/config"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// App holds the wired generator and its resources.
type App struct {
	Config    config.Config
	Logger    *StdLogger
	Generator *certgen.Generator
	Tracker   certgen.RunTracker

	closers       []io.Closer
	subscriptions []dispatcher.Subscription
}

// NewApp wires the generator, the run tracker and the go-command handlers.
func NewApp(ctx context.Context, cfg config.Config, logger *StdLogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewStdLogger("certgen", false)
	}
	app := &App{Config: cfg, Logger: logger}

	converter, closer, err := certpdf.NewConverter(cfg.Convert.PDFOptions())
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closer)

	tracker, trackerCloser, err := openTracker(ctx, cfg.History.DBPath)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, trackerCloser)
	app.Tracker = tracker

	gen := certgen.NewGenerator()
	gen.Source = sheetxlsx.Source{}
	gen.Templates = docxtemplate.Loader{}
	gen.Converter = converter
	gen.Stores = storefs.Factory()
	gen.Tracker = tracker
	gen.Logger = logger
	app.Generator = gen

	subscriptions, err := command.RegisterHandlers(nil, gen, tracker)
	app.subscriptions = subscriptions
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("register command handlers: %w", err)
	}
	return app, nil
}

// SetupRoutes registers the form on r. Batches started from the form run
// under ctx.
func (a *App) SetupRoutes(ctx context.Context, r router.Router[*fiber.App]) *formrouter.Handler {
	handler := formrouter.NewHandler(formrouter.Config{
		Context: ctx,
		Logger:  a.Logger,
	})
	handler.RegisterRoutes(r)
	return handler
}

// HTTPHandler mounts the form on a net/http mux for the plain server
// transport. Batches run under ctx as with SetupRoutes.
func (a *App) HTTPHandler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	formhttp.NewHandler(formhttp.Config{
		Context: ctx,
		Logger:  a.Logger,
	}).RegisterRoutes(mux)
	return logRequests(mux, a.Logger)
}

// Close releases app resources.
func (a *App) Close() error {
	for _, sub := range a.subscriptions {
		sub.Unsubscribe()
	}
	a.subscriptions = nil

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openTracker returns an in-memory tracker, or a sqlite-backed one when
// path is set.
func openTracker(ctx context.Context, path string) (certgen.RunTracker, io.Closer, error) {
	if path == "" {
		return certgen.NewMemoryTracker(), closerFunc(func() error { return nil }), nil
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+path+"?cache=shared")
	if err != nil {
		return nil, nil, certgen.NewError(certgen.KindStorage, "open history database", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, nil, certgen.NewError(certgen.KindStorage, "configure history database", err)
	}
	if err := trackerbun.CreateTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, certgen.NewError(certgen.KindStorage, "create history tables", err)
	}
	return trackerbun.NewTracker(db), db, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
