package formapi

import "github.com/goliatone/go-certgen/certgen"

// Response provides a minimal response interface for transport adapters.
type Response interface {
	SetHeader(name, value string)
	WriteHeader(status int)
	Write(data []byte) (int, error)
	WriteJSON(status int, payload any) error
}

// GenerateResponse is returned by POST /api/generate. Log holds the lines
// the form appends to its progress area.
type GenerateResponse struct {
	Count int      `json:"count"`
	RunID string   `json:"run_id,omitempty"`
	Log   []string `json:"log"`
	Error string   `json:"error,omitempty"`
	Code  string   `json:"code,omitempty"`
}

// BrowseResponse lists a directory for the path pickers.
type BrowseResponse struct {
	Path    string        `json:"path"`
	Parent  string        `json:"parent,omitempty"`
	Entries []BrowseEntry `json:"entries"`
}

// BrowseEntry is one directory entry.
type BrowseEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Dir  bool   `json:"dir"`
}

// RunsResponse wraps run history.
type RunsResponse struct {
	Runs []certgen.RunRecord `json:"runs"`
}

// ErrorResponse describes JSON error responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains error details.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
