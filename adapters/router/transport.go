package formrouter

import (
	"bytes"
	"context"
	"io"

	"github.com/goliatone/go-certgen/adapters/formapi"
	"github.com/goliatone/go-router"
)

var (
	_ formapi.Request  = routerRequest{}
	_ formapi.Response = routerResponse{}
)

// routerRequest and routerResponse wrap the context go-router hands to
// Handle; it is never nil there.
type routerRequest struct {
	c router.Context
}

func (r routerRequest) Context() context.Context { return r.c.Context() }
func (r routerRequest) Method() string           { return r.c.Method() }
func (r routerRequest) Path() string             { return r.c.Path() }
func (r routerRequest) Query(name string) string { return r.c.Query(name) }

// Body copies the buffered request body; fiber reuses its buffer after the
// handler returns.
func (r routerRequest) Body() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(bytes.Clone(r.c.Body())))
}

type routerResponse struct {
	c router.Context
}

func (r routerResponse) SetHeader(name, value string) { r.c.SetHeader(name, value) }
func (r routerResponse) WriteHeader(status int)       { r.c.Status(status) }

func (r routerResponse) Write(data []byte) (int, error) {
	if err := r.c.Send(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (r routerResponse) WriteJSON(status int, payload any) error {
	return r.c.JSON(status, payload)
}
