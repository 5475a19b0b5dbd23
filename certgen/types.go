package certgen

import (
	"context"
	"io"
	"time"
)

// Format is an artifact file format.
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

const (
	// DefaultFontFace is applied to the name placeholder run.
	DefaultFontFace = "Calibri"
	// DefaultFontSizePt is the placeholder font size in points.
	DefaultFontSizePt = 16.0
)

// Row is a single spreadsheet row. ID and Name hold typed cell values:
// nil for empty cells, float64 for numbers, bool, or string.
type Row struct {
	Index int
	ID    any
	Name  any
}

// RowIterator yields rows in storage order and returns io.EOF when done.
type RowIterator interface {
	Next(ctx context.Context) (Row, error)
	Close() error
}

// RowSource opens a spreadsheet for iteration.
type RowSource interface {
	Open(ctx context.Context, path string) (RowIterator, error)
}

// RowSourceFunc adapts a function to a RowSource.
type RowSourceFunc func(ctx context.Context, path string) (RowIterator, error)

func (f RowSourceFunc) Open(ctx context.Context, path string) (RowIterator, error) {
	if f == nil {
		return nil, NewError(KindInternal, "row source func is nil", nil)
	}
	return f(ctx, path)
}

// TemplateLoader loads a fresh, editable copy of a template document.
type TemplateLoader interface {
	Load(ctx context.Context, path string) (Document, error)
}

// Document is an editable template instance.
type Document interface {
	// Placeholder returns the first run of the first paragraph.
	Placeholder() (Placeholder, error)
	WriteTo(w io.Writer) (int64, error)
}

// Placeholder is the styled text run that receives the participant name.
type Placeholder interface {
	SetFont(face string, sizePt float64)
	AppendText(text string)
}

// Converter renders a document file into PDF bytes.
type Converter interface {
	Convert(ctx context.Context, src string) ([]byte, error)
}

// ConverterFunc adapts a function to a Converter.
type ConverterFunc func(ctx context.Context, src string) ([]byte, error)

func (f ConverterFunc) Convert(ctx context.Context, src string) ([]byte, error) {
	if f == nil {
		return nil, NewError(KindInternal, "converter func is nil", nil)
	}
	return f(ctx, src)
}

// ArtifactRef points at a stored artifact.
type ArtifactRef struct {
	Key  string
	Path string
	Size int64
}

// ArtifactStore writes artifacts into a single output directory.
type ArtifactStore interface {
	Put(ctx context.Context, key string, r io.Reader) (ArtifactRef, error)
	Delete(ctx context.Context, key string) error
}

// StoreFactory returns a store rooted at dir.
type StoreFactory func(dir string) ArtifactStore

// ProgressFunc receives human readable progress lines.
type ProgressFunc func(message string)

// Request describes one batch run.
type Request struct {
	TemplatePath    string `json:"template"`
	SpreadsheetPath string `json:"spreadsheet"`
	OutputDir       string `json:"output"`
}

// Result summarizes a batch run.
type Result struct {
	RunID string `json:"run_id"`
	Count int    `json:"count"`
}

// RunState captures batch run states.
type RunState string

const (
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
)

// RunRecord captures tracker state for a batch run.
type RunRecord struct {
	ID              string           `json:"id"`
	TemplatePath    string           `json:"template"`
	SpreadsheetPath string           `json:"spreadsheet"`
	OutputDir       string           `json:"output"`
	State           RunState         `json:"state"`
	Count           int              `json:"count"`
	Error           string           `json:"error,omitempty"`
	StartedAt       time.Time        `json:"started_at"`
	CompletedAt     time.Time        `json:"completed_at,omitempty"`
	Artifacts       []ArtifactRecord `json:"artifacts,omitempty"`
}

// ArtifactRecord describes a rendered artifact produced by a run.
type ArtifactRecord struct {
	RunID      string    `json:"run_id"`
	RowIndex   int       `json:"row"`
	Identifier string    `json:"identifier"`
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunTracker records batch history.
type RunTracker interface {
	Start(ctx context.Context, record RunRecord) (string, error)
	Artifact(ctx context.Context, runID string, artifact ArtifactRecord) error
	Complete(ctx context.Context, runID string, count int) error
	Fail(ctx context.Context, runID string, err error) error
	List(ctx context.Context, limit int) ([]RunRecord, error)
}

// Logger provides structured logging hooks.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger is a no-op logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}
