package formhttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/goliatone/go-certgen/adapters/formapi"
)

var (
	_ formapi.Request  = httpRequest{}
	_ formapi.Response = httpResponse{}
)

// httpRequest reads from a server request; net/http never passes a nil one.
type httpRequest struct {
	req *http.Request
}

func (r httpRequest) Context() context.Context { return r.req.Context() }
func (r httpRequest) Method() string           { return r.req.Method }
func (r httpRequest) Path() string             { return r.req.URL.Path }
func (r httpRequest) Query(name string) string { return r.req.URL.Query().Get(name) }
func (r httpRequest) Body() io.ReadCloser      { return r.req.Body }

type httpResponse struct {
	w http.ResponseWriter
}

func (r httpResponse) SetHeader(name, value string)   { r.w.Header().Set(name, value) }
func (r httpResponse) WriteHeader(status int)         { r.w.WriteHeader(status) }
func (r httpResponse) Write(data []byte) (int, error) { return r.w.Write(data) }

func (r httpResponse) WriteJSON(status int, payload any) error {
	r.w.Header().Set("Content-Type", "application/json")
	r.w.WriteHeader(status)
	return json.NewEncoder(r.w).Encode(payload)
}
