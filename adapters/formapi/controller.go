package formapi

import (
	"context"
	"embed"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/goliatone/go-certgen/adapters/formgen"
	pagetemplate "github.com/goliatone/go-certgen/adapters/template"
	"github.com/goliatone/go-certgen/certgen"
	"github.com/goliatone/go-certgen/command"
	"github.com/goliatone/go-certgen/query"
	"github.com/goliatone/go-command/dispatcher"
	errorslib "github.com/goliatone/go-errors"
)

const indexTemplate = "views/index.html"

//go:embed views/*.html
var viewsFS embed.FS

var formViews = pagetemplate.MustParse(viewsFS, indexTemplate)

// GenerateFunc runs one batch command.
type GenerateFunc func(ctx context.Context, msg command.GenerateCertificates) error

// HistoryFunc answers a run history query.
type HistoryFunc func(ctx context.Context, msg query.RunHistory) ([]certgen.RunRecord, error)

// Config configures the form controller.
type Config struct {
	BasePath string
	Title    string
	// UI overrides the widget contract; defaults to formgen.DefaultUI.
	UI *formgen.UI
	// Generate defaults to dispatcher.Dispatch.
	Generate GenerateFunc
	// History defaults to dispatcher.Query.
	History HistoryFunc
	// Context bounds batch runs; it outlives the HTTP request so a closed
	// browser tab does not abort a batch. Defaults to context.Background.
	Context context.Context
	// BrowseRoot is the picker start directory. Defaults to the home dir.
	BrowseRoot   string
	MaxBodyBytes int64
	Logger       certgen.Logger
}

// Controller serves the certificate form and its JSON API for multiple
// transports.
type Controller struct {
	basePath     string
	ui           formgen.UI
	generate     GenerateFunc
	history      HistoryFunc
	baseCtx      context.Context
	browseRoot   string
	maxBodyBytes int64
	logger       certgen.Logger
	busy         atomic.Bool
}

// NewController creates a shared form controller.
func NewController(cfg Config) *Controller {
	basePath := strings.TrimRight(cfg.BasePath, "/")
	logger := cfg.Logger
	if logger == nil {
		logger = certgen.NopLogger{}
	}
	generate := cfg.Generate
	if generate == nil {
		generate = func(ctx context.Context, msg command.GenerateCertificates) error {
			return dispatcher.Dispatch(ctx, msg)
		}
	}
	history := cfg.History
	if history == nil {
		history = func(ctx context.Context, msg query.RunHistory) ([]certgen.RunRecord, error) {
			return dispatcher.Query[query.RunHistory, []certgen.RunRecord](ctx, msg)
		}
	}
	baseCtx := cfg.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	root := cfg.BrowseRoot
	if root == "" {
		if home, err := os.UserHomeDir(); err == nil {
			root = home
		} else {
			root = "."
		}
	}
	ui := formgen.DefaultUI(basePath)
	if cfg.UI != nil {
		ui = *cfg.UI
	}
	if cfg.Title != "" {
		ui.RequestForm.Title = cfg.Title
	}
	return &Controller{
		basePath:     basePath,
		ui:           ui,
		generate:     generate,
		history:      history,
		baseCtx:      baseCtx,
		browseRoot:   root,
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       logger,
	}
}

// BasePath returns the configured base path.
func (c *Controller) BasePath() string {
	if c == nil {
		return ""
	}
	return c.basePath
}

// Busy reports whether a batch is running.
func (c *Controller) Busy() bool {
	return c != nil && c.busy.Load()
}

// Serve routes form endpoints.
func (c *Controller) Serve(req Request, res Response) {
	if res == nil {
		return
	}
	if c == nil {
		WriteError(res, certgen.NewError(certgen.KindInternal, "handler is nil", nil))
		return
	}
	if req == nil {
		WriteError(res, certgen.NewError(certgen.KindInternal, "request is nil", nil))
		return
	}
	if !strings.HasPrefix(req.Path(), c.basePath) {
		writeNotFound(res)
		return
	}

	route := strings.Trim(strings.TrimPrefix(req.Path(), c.basePath), "/")
	switch route {
	case "":
		if !allowMethod(req, res, http.MethodGet) {
			return
		}
		c.handleIndex(res)
	case "api/generate":
		if !allowMethod(req, res, http.MethodPost) {
			return
		}
		c.handleGenerate(req, res)
	case "api/browse":
		if !allowMethod(req, res, http.MethodGet) {
			return
		}
		c.handleBrowse(req, res)
	case "api/runs":
		if !allowMethod(req, res, http.MethodGet) {
			return
		}
		c.handleRuns(req, res)
	case "api/ui":
		if !allowMethod(req, res, http.MethodGet) {
			return
		}
		writeJSON(res, http.StatusOK, c.ui)
	default:
		writeNotFound(res)
	}
}

func (c *Controller) handleIndex(res Response) {
	renderer := pagetemplate.Renderer{Templates: formViews, TemplateName: indexTemplate}
	page, err := renderer.RenderBytes(map[string]any{
		"title": c.ui.RequestForm.Title,
		"ui":    c.ui,
		"config": map[string]any{
			"base":     c.basePath,
			"generate": c.ui.RequestForm.Action,
			"browse":   c.basePath + "/api/browse",
			"runs":     c.ui.History.DataURL,
			"root":     c.browseRoot,
			"fields":   c.ui.RequestForm.FieldNames(),
			"columns":  c.ui.History.Columns,
		},
	})
	if err != nil {
		c.logger.Errorf("render form page: %v", err)
		WriteError(res, certgen.NewError(certgen.KindInternal, "render form page", err))
		return
	}
	res.SetHeader("Content-Type", "text/html; charset=utf-8")
	res.WriteHeader(http.StatusOK)
	_, _ = res.Write(page)
}

func (c *Controller) handleGenerate(req Request, res Response) {
	request, err := decodeGenerateRequest(req, c.maxBodyBytes)
	if err == nil {
		err = certgen.ValidateRequest(request)
	}
	if err != nil {
		ge := certgen.AsGoError(err)
		writeJSON(res, statusForError(ge), GenerateResponse{Log: []string{}, Error: ge.Message, Code: ge.TextCode})
		return
	}

	if !c.busy.CompareAndSwap(false, true) {
		ge := certgen.AsGoError(certgen.NewError(certgen.KindBusy, "a batch is already running", nil))
		writeJSON(res, statusForError(ge), GenerateResponse{Log: []string{}, Error: ge.Message, Code: ge.TextCode})
		return
	}
	defer c.busy.Store(false)

	lines := []string{certgen.StartMessage}
	c.logger.Infof("%s", certgen.StartMessage)

	var result certgen.Result
	msg := command.GenerateCertificates{
		Request: request,
		Progress: func(line string) {
			lines = append(lines, line)
			c.logger.Infof("%s", line)
		},
		Result: &result,
	}
	if err := c.generate(c.baseCtx, msg); err != nil {
		line := certgen.ErrorMessage(err)
		lines = append(lines, line)
		c.logger.Errorf("%s", line)
		writeJSON(res, http.StatusInternalServerError, GenerateResponse{
			Count: result.Count,
			RunID: result.RunID,
			Log:   lines,
			Error: err.Error(),
			Code:  string(certgen.KindFromError(err)),
		})
		return
	}

	done := certgen.CompletedMessage(result.Count)
	lines = append(lines, done)
	c.logger.Infof("%s", done)
	writeJSON(res, http.StatusOK, GenerateResponse{Count: result.Count, RunID: result.RunID, Log: lines})
}

func (c *Controller) handleBrowse(req Request, res Response) {
	dir := strings.TrimSpace(req.Query("path"))
	if dir == "" {
		dir = c.browseRoot
	}
	mode := strings.ToLower(strings.TrimSpace(req.Query("mode")))
	if mode == "" {
		mode = browseFiles
	}
	if mode != browseFiles && mode != browseDirs {
		WriteError(res, certgen.NewError(certgen.KindValidation, fmt.Sprintf("unknown browse mode %q", mode), nil))
		return
	}

	listing, err := listDirectory(dir, mode, req.Query("ext"))
	if err != nil {
		WriteError(res, err)
		return
	}
	writeJSON(res, http.StatusOK, listing)
}

func (c *Controller) handleRuns(req Request, res Response) {
	msg := query.RunHistory{}
	if raw := strings.TrimSpace(req.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(res, certgen.NewError(certgen.KindValidation, "invalid limit", err))
			return
		}
		msg.Limit = limit
	}
	if err := msg.Validate(); err != nil {
		WriteError(res, err)
		return
	}

	runs, err := c.history(req.Context(), msg)
	if err != nil {
		WriteError(res, err)
		return
	}
	if runs == nil {
		runs = []certgen.RunRecord{}
	}
	writeJSON(res, http.StatusOK, RunsResponse{Runs: runs})
}

func allowMethod(req Request, res Response, method string) bool {
	if req.Method() == method {
		return true
	}
	res.SetHeader("Allow", method)
	writeJSON(res, http.StatusMethodNotAllowed, ErrorResponse{Error: ErrorBody{
		Message: "method not allowed",
		Code:    "method_not_allowed",
	}})
	return false
}

// WriteError writes a JSON error response.
func WriteError(res Response, err error) {
	if err == nil {
		res.WriteHeader(http.StatusNoContent)
		return
	}
	ge := certgen.AsGoError(err)
	writeJSON(res, statusForError(ge), ErrorResponse{
		Error: ErrorBody{
			Message: ge.Message,
			Code:    ge.TextCode,
		},
	})
}

func writeNotFound(res Response) {
	writeJSON(res, http.StatusNotFound, ErrorResponse{Error: ErrorBody{Message: "not found", Code: "not_found"}})
}

func writeJSON(res Response, status int, payload any) {
	_ = res.WriteJSON(status, payload)
}

func statusForError(err *errorslib.Error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	switch err.Category {
	case errorslib.CategoryValidation:
		return http.StatusUnprocessableEntity
	case errorslib.CategoryNotFound:
		return http.StatusNotFound
	case errorslib.CategoryOperation:
		switch err.TextCode {
		case "busy", "canceled":
			return http.StatusConflict
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
