package formapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/goliatone/go-certgen/certgen"
)

// DefaultMaxBodyBytes bounds generate request bodies.
const DefaultMaxBodyBytes int64 = 64 * 1024

// Request provides minimal request access for transport adapters.
type Request interface {
	Context() context.Context
	Method() string
	Path() string
	Query(name string) string
	Body() io.ReadCloser
}

type generatePayload struct {
	Template    string `json:"template"`
	Spreadsheet string `json:"spreadsheet"`
	Output      string `json:"output"`
}

// decodeGenerateRequest reads the JSON form body into a normalized request.
func decodeGenerateRequest(req Request, maxBytes int64) (certgen.Request, error) {
	body := req.Body()
	if body == nil {
		return certgen.Request{}, certgen.NewError(certgen.KindValidation, "request body is required", nil)
	}
	defer body.Close()

	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	dec := json.NewDecoder(io.LimitReader(body, maxBytes))
	dec.DisallowUnknownFields()

	var payload generatePayload
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return certgen.Request{}, certgen.NewError(certgen.KindValidation, "request body is required", nil)
		}
		return certgen.Request{}, certgen.NewError(certgen.KindValidation, "invalid request body", err)
	}

	return certgen.NormalizeRequest(certgen.Request{
		TemplatePath:    payload.Template,
		SpreadsheetPath: payload.Spreadsheet,
		OutputDir:       payload.Output,
	}), nil
}
