package pagetemplate

import (
	"bytes"
	"errors"
	"io"
)

// DefaultTemplateName is used when Renderer.TemplateName is empty.
const DefaultTemplateName = "index.html"

// ErrTooLarge reports output beyond Renderer.MaxBytes.
var ErrTooLarge = errors.New("pagetemplate: rendered output exceeds limit")

// Renderer executes a single named template.
type Renderer struct {
	Templates    TemplateExecutor
	TemplateName string
	// MaxBytes bounds the rendered output; zero means unbounded.
	MaxBytes int64
}

// Render writes the page to w and returns the bytes written.
func (r Renderer) Render(w io.Writer, data any) (int64, error) {
	if r.Templates == nil {
		return 0, errors.New("pagetemplate: renderer requires templates")
	}
	name := r.TemplateName
	if name == "" {
		name = DefaultTemplateName
	}

	cw := &countingWriter{w: w, max: r.MaxBytes}
	if err := r.Templates.ExecuteTemplate(cw, name, data); err != nil {
		return cw.count, err
	}
	return cw.count, nil
}

// RenderBytes renders into memory.
func (r Renderer) RenderBytes(data any) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := r.Render(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w     io.Writer
	count int64
	max   int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	if cw.max > 0 && cw.count+int64(len(p)) > cw.max {
		return 0, ErrTooLarge
	}
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}
