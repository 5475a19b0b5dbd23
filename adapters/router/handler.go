package formrouter

import (
	"github.com/goliatone/go-certgen/adapters/formapi"
	"github.com/goliatone/go-certgen/certgen"
	"github.com/goliatone/go-router"
)

// Config configures the go-router adapter.
type Config = formapi.Config

// Handler exposes the certificate form for go-router.
type Handler struct {
	controller *formapi.Controller
}

// NewHandler creates a go-router handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{controller: formapi.NewController(cfg)}
}

// RegisterRoutes registers routes on a compatible go-router router.
func (h *Handler) RegisterRoutes(router any) {
	r, ok := router.(routeRegistrar)
	if !ok {
		return
	}
	base := h.basePath()

	r.Get(base+"/", h.Handle)
	if base != "" {
		r.Get(base, h.Handle)
	}
	r.Post(base+"/api/generate", h.Handle)
	r.Get(base+"/api/browse", h.Handle)
	r.Get(base+"/api/runs", h.Handle)
	r.Get(base+"/api/ui", h.Handle)
}

// Handle serves one form request.
func (h *Handler) Handle(c router.Context) error {
	if c == nil {
		return nil
	}
	if h == nil || h.controller == nil {
		formapi.WriteError(routerResponse{c: c}, certgen.NewError(certgen.KindInternal, "handler is nil", nil))
		return nil
	}
	h.controller.Serve(routerRequest{c: c}, routerResponse{c: c})
	return nil
}

// Busy reports whether a batch is running.
func (h *Handler) Busy() bool {
	return h != nil && h.controller.Busy()
}

func (h *Handler) basePath() string {
	if h == nil || h.controller == nil {
		return ""
	}
	return h.controller.BasePath()
}

type routeRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}
