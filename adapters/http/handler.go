package formhttp

import (
	"net/http"

	"github.com/goliatone/go-certgen/adapters/formapi"
	"github.com/goliatone/go-certgen/certgen"
)

// Config configures the HTTP adapter.
type Config = formapi.Config

// Handler exposes the certificate form over net/http.
type Handler struct {
	controller *formapi.Controller
}

// NewHandler creates a new HTTP handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{controller: formapi.NewController(cfg)}
}

// RegisterRoutes registers handlers on a compatible router.
func (h *Handler) RegisterRoutes(router any) {
	for _, pattern := range h.patterns() {
		switch r := router.(type) {
		case interface{ Handle(string, http.Handler) }:
			r.Handle(pattern, h)
		case interface {
			HandleFunc(string, func(http.ResponseWriter, *http.Request))
		}:
			r.HandleFunc(pattern, h.ServeHTTP)
		}
	}
}

// ServeHTTP routes form endpoints.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	if h == nil || h.controller == nil {
		formapi.WriteError(httpResponse{w: w}, certgen.NewError(certgen.KindInternal, "handler is nil", nil))
		return
	}
	h.controller.Serve(httpRequest{req: r}, httpResponse{w: w})
}

func (h *Handler) patterns() []string {
	base := ""
	if h != nil && h.controller != nil {
		base = h.controller.BasePath()
	}
	if base == "" {
		return []string{"/"}
	}
	return []string{base, base + "/"}
}
