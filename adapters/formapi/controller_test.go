package formapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-certgen/adapters/formgen"
	"github.com/goliatone/go-certgen/certgen"
	"github.com/goliatone/go-certgen/command"
	"github.com/goliatone/go-certgen/query"
)

type fakeRequest struct {
	ctx    context.Context
	method string
	path   string
	query  map[string]string
	body   string
}

func (r fakeRequest) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}
func (r fakeRequest) Method() string           { return r.method }
func (r fakeRequest) Path() string             { return r.path }
func (r fakeRequest) Query(name string) string { return r.query[name] }
func (r fakeRequest) Body() io.ReadCloser      { return io.NopCloser(strings.NewReader(r.body)) }

type fakeResponse struct {
	status  int
	headers http.Header
	body    bytes.Buffer
}

func newFakeResponse() *fakeResponse {
	return &fakeResponse{headers: http.Header{}}
}

func (r *fakeResponse) SetHeader(name, value string) { r.headers.Set(name, value) }
func (r *fakeResponse) WriteHeader(status int)       { r.status = status }
func (r *fakeResponse) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(data)
}
func (r *fakeResponse) WriteJSON(status int, payload any) error {
	r.headers.Set("Content-Type", "application/json")
	r.status = status
	return json.NewEncoder(&r.body).Encode(payload)
}

type batchPaths struct {
	template    string
	spreadsheet string
	output      string
}

func newBatchPaths(t *testing.T) batchPaths {
	t.Helper()
	dir := t.TempDir()
	paths := batchPaths{
		template:    filepath.Join(dir, "template.docx"),
		spreadsheet: filepath.Join(dir, "people.xlsx"),
		output:      filepath.Join(dir, "out"),
	}
	for _, file := range []string{paths.template, paths.spreadsheet} {
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	if err := os.Mkdir(paths.output, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return paths
}

func (p batchPaths) body() string {
	payload, _ := json.Marshal(map[string]string{
		"template":    "  " + p.template + " ",
		"spreadsheet": p.spreadsheet,
		"output":      p.output,
	})
	return string(payload)
}

func decodeGenerate(t *testing.T, res *fakeResponse) GenerateResponse {
	t.Helper()
	var payload GenerateResponse
	if err := json.Unmarshal(res.body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v (%s)", err, res.body.String())
	}
	return payload
}

func TestController_Index(t *testing.T) {
	c := NewController(Config{BasePath: "/certs/", BrowseRoot: "/srv"})
	res := newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodGet, path: "/certs"}, res)

	if res.status != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.status)
	}
	if ct := res.headers.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}
	page := res.body.String()
	for _, want := range []string{
		"<title>Certificate Maker</title>",
		`"generate":"/certs/api/generate"`,
		`"root":"/srv"`,
		"Generate PDFs",
		`id="log" readonly`,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("expected %q in page", want)
		}
	}
}

func TestController_GenerateSuccess(t *testing.T) {
	paths := newBatchPaths(t)
	var got certgen.Request
	c := NewController(Config{
		Generate: func(ctx context.Context, msg command.GenerateCertificates) error {
			got = msg.Request
			msg.Progress("Processing: A1 -> Jane Doe")
			msg.Progress("Processing: B2 -> John Roe")
			*msg.Result = certgen.Result{RunID: "run-1", Count: 2}
			return nil
		},
	})

	res := newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodPost, path: "/api/generate", body: paths.body()}, res)

	if res.status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.status, res.body.String())
	}
	if got.TemplatePath != paths.template {
		t.Fatalf("expected trimmed template path, got %q", got.TemplatePath)
	}
	payload := decodeGenerate(t, res)
	want := []string{
		"Starting generation...",
		"Processing: A1 -> Jane Doe",
		"Processing: B2 -> John Roe",
		"Completed. Generated 2 certificates.",
	}
	if strings.Join(payload.Log, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected log: %#v", payload.Log)
	}
	if payload.Count != 2 || payload.RunID != "run-1" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if c.Busy() {
		t.Fatalf("expected busy flag released")
	}
}

func TestController_GenerateFailure(t *testing.T) {
	paths := newBatchPaths(t)
	c := NewController(Config{
		Generate: func(ctx context.Context, msg command.GenerateCertificates) error {
			msg.Progress("Processing: A1 -> Jane Doe")
			*msg.Result = certgen.Result{Count: 1}
			return certgen.NewError(certgen.KindConvert, "convert B2.docx", errors.New("soffice exited 1"))
		},
	})

	res := newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodPost, path: "/api/generate", body: paths.body()}, res)

	if res.status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.status)
	}
	payload := decodeGenerate(t, res)
	last := payload.Log[len(payload.Log)-1]
	if last != "Error: convert B2.docx: soffice exited 1" {
		t.Fatalf("unexpected last log line %q", last)
	}
	if payload.Code != "convert" || payload.Count != 1 {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if c.Busy() {
		t.Fatalf("expected busy flag released after failure")
	}
}

func TestController_GenerateValidation(t *testing.T) {
	paths := newBatchPaths(t)
	called := false
	c := NewController(Config{
		Generate: func(ctx context.Context, msg command.GenerateCertificates) error {
			called = true
			return nil
		},
	})

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing template",
			body: `{"template":"/nope.docx","spreadsheet":"` + paths.spreadsheet + `","output":"` + paths.output + `"}`,
			want: "Please select a valid .docx template file.",
		},
		{
			name: "spreadsheet is a directory",
			body: `{"template":"` + paths.template + `","spreadsheet":"` + paths.output + `","output":"` + paths.output + `"}`,
			want: "Please select a valid .xlsx file.",
		},
		{
			name: "output is a file",
			body: `{"template":"` + paths.template + `","spreadsheet":"` + paths.spreadsheet + `","output":"` + paths.template + `"}`,
			want: "Please select a valid output folder.",
		},
		{
			name: "malformed body",
			body: `{"template":`,
			want: "invalid request body",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := newFakeResponse()
			c.Serve(fakeRequest{method: http.MethodPost, path: "/api/generate", body: tc.body}, res)
			if res.status != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", res.status)
			}
			payload := decodeGenerate(t, res)
			if !strings.HasPrefix(payload.Error, tc.want) {
				t.Fatalf("expected %q, got %q", tc.want, payload.Error)
			}
		})
	}
	if called {
		t.Fatalf("generate must not run for invalid input")
	}
}

func TestController_GenerateBusy(t *testing.T) {
	paths := newBatchPaths(t)
	var c *Controller
	var nested *fakeResponse
	c = NewController(Config{
		Generate: func(ctx context.Context, msg command.GenerateCertificates) error {
			nested = newFakeResponse()
			c.Serve(fakeRequest{method: http.MethodPost, path: "/api/generate", body: paths.body()}, nested)
			return nil
		},
	})

	res := newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodPost, path: "/api/generate", body: paths.body()}, res)

	if res.status != http.StatusOK {
		t.Fatalf("expected outer 200, got %d", res.status)
	}
	if nested == nil || nested.status != http.StatusConflict {
		t.Fatalf("expected nested request to be rejected with 409")
	}
	if payload := decodeGenerate(t, nested); payload.Code != "busy" {
		t.Fatalf("expected busy code, got %#v", payload)
	}
}

func TestController_Browse(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.docx", "A.DOCX", "notes.txt", ".hidden.docx"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	c := NewController(Config{BrowseRoot: dir})

	res := newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodGet, path: "/api/browse", query: map[string]string{"mode": "file", "ext": "docx"}}, res)
	if res.status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.status, res.body.String())
	}
	var listing BrowseResponse
	if err := json.Unmarshal(res.body.Bytes(), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var names []string
	for _, e := range listing.Entries {
		names = append(names, e.Name)
	}
	if got := strings.Join(names, ","); got != "sub,A.DOCX,b.docx" {
		t.Fatalf("unexpected entries %q", got)
	}
	if listing.Path != dir || listing.Parent != filepath.Dir(dir) {
		t.Fatalf("unexpected paths: %#v", listing)
	}

	res = newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodGet, path: "/api/browse", query: map[string]string{"mode": "dir", "path": filepath.Join(dir, "b.docx")}}, res)
	listing = BrowseResponse{}
	if err := json.Unmarshal(res.body.Bytes(), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing.Entries) != 1 || !listing.Entries[0].Dir {
		t.Fatalf("expected only directories, got %#v", listing.Entries)
	}

	res = newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodGet, path: "/api/browse", query: map[string]string{"path": filepath.Join(dir, "missing")}}, res)
	if res.status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.status)
	}

	res = newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodGet, path: "/api/browse", query: map[string]string{"mode": "zip"}}, res)
	if res.status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.status)
	}
}

func TestController_Runs(t *testing.T) {
	tracker := certgen.NewMemoryTracker()
	if _, err := tracker.Start(context.Background(), certgen.RunRecord{ID: "run-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	handler := query.NewRunHistoryHandler(tracker)
	c := NewController(Config{History: handler.Query})

	res := newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodGet, path: "/api/runs", query: map[string]string{"limit": "5"}}, res)
	if res.status != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.status)
	}
	var payload RunsResponse
	if err := json.Unmarshal(res.body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Runs) != 1 || payload.Runs[0].ID != "run-1" {
		t.Fatalf("unexpected runs: %#v", payload.Runs)
	}

	res = newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodGet, path: "/api/runs", query: map[string]string{"limit": "500"}}, res)
	if res.status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for out of range limit, got %d", res.status)
	}
}

func TestController_Routing(t *testing.T) {
	c := NewController(Config{BasePath: "/certs"})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{method: http.MethodGet, path: "/other", status: http.StatusNotFound},
		{method: http.MethodGet, path: "/certs/api/unknown", status: http.StatusNotFound},
		{method: http.MethodGet, path: "/certs/api/generate", status: http.StatusMethodNotAllowed},
		{method: http.MethodPost, path: "/certs", status: http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		res := newFakeResponse()
		c.Serve(fakeRequest{method: tc.method, path: tc.path}, res)
		if res.status != tc.status {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.status, res.status)
		}
	}
}

func TestController_UIContract(t *testing.T) {
	c := NewController(Config{BasePath: "/certs", Title: "Diplomas"})

	res := newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodGet, path: "/certs/api/ui"}, res)
	if res.status != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.status)
	}
	var ui formgen.UI
	if err := json.Unmarshal(res.body.Bytes(), &ui); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ui.RequestForm.Title != "Diplomas" || ui.RequestForm.Action != "/certs/api/generate" {
		t.Fatalf("unexpected form contract: %#v", ui.RequestForm)
	}

	page := newFakeResponse()
	c.Serve(fakeRequest{method: http.MethodGet, path: "/certs/"}, page)
	for _, want := range []string{"<title>Diplomas</title>", `data-ext=".xlsx"`, "<th>Certificates</th>", "--primary: #2563eb;"} {
		if !strings.Contains(page.body.String(), want) {
			t.Fatalf("expected %q in page", want)
		}
	}
}
