package formrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/goliatone/go-router"
)

// routerContext lets fakeContext embed router.Context without the embedded
// field name colliding with its Context method.
type routerContext = router.Context

// fakeContext implements the part of router.Context the form transport
// touches. Any other method panics through the nil embedded interface.
type fakeContext struct {
	routerContext

	method string
	path   string
	body   []byte
	query  map[string]string

	rec     *httptest.ResponseRecorder
	status  int
	written bool
	sent    bool
}

func newFakeContext(method, path string, body []byte, query map[string]string) *fakeContext {
	return &fakeContext{
		method: method,
		path:   path,
		body:   body,
		query:  query,
		rec:    httptest.NewRecorder(),
		status: http.StatusOK,
	}
}

func (c *fakeContext) Context() context.Context { return context.Background() }
func (c *fakeContext) Method() string           { return c.method }
func (c *fakeContext) Path() string             { return c.path }
func (c *fakeContext) Body() []byte             { return c.body }

func (c *fakeContext) Query(name string, defaultValue ...string) string {
	if v, ok := c.query[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *fakeContext) SetHeader(key, val string) router.Context {
	c.rec.Header().Set(key, val)
	return c
}

func (c *fakeContext) Status(code int) router.Context {
	c.status = code
	return c
}

func (c *fakeContext) Send(body []byte) error {
	c.sent = true
	c.flushStatus()
	_, err := c.rec.Write(body)
	return err
}

func (c *fakeContext) JSON(code int, v any) error {
	c.rec.Header().Set("Content-Type", "application/json")
	c.status = code
	c.flushStatus()
	return json.NewEncoder(c.rec).Encode(v)
}

func (c *fakeContext) flushStatus() {
	if c.written {
		return
	}
	c.written = true
	c.rec.WriteHeader(c.status)
}
