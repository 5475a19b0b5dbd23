package docxtemplate

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-certgen/certgen"
)

const (
	documentPart  = "word/document.xml"
	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

var (
	ErrNoDocumentPart = errors.New("docx: word/document.xml not found")
	ErrNoParagraph    = errors.New("docx: template has no paragraph")
	ErrNoRun          = errors.New("docx: first paragraph has no run")
)

// Loader opens a fresh Document from disk on every call.
type Loader struct{}

// Load implements certgen.TemplateLoader.
func (Loader) Load(ctx context.Context, path string) (certgen.Document, error) {
	_ = ctx
	doc, err := Open(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type part struct {
	header zip.FileHeader
	data   []byte
}

// Document is an in-memory .docx package.
type Document struct {
	parts []part
	body  int
	err   error
}

// Open reads a .docx file.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, certgen.NewError(certgen.KindTemplate, fmt.Sprintf("read template %s", path), err)
	}
	return Parse(data)
}

// Parse reads a .docx package from bytes.
func Parse(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, certgen.NewError(certgen.KindTemplate, "template is not a docx package", err)
	}

	doc := &Document{body: -1}
	for _, f := range zr.File {
		content, err := readPart(f)
		if err != nil {
			return nil, certgen.NewError(certgen.KindTemplate, fmt.Sprintf("read part %s", f.Name), err)
		}
		doc.parts = append(doc.parts, part{header: f.FileHeader, data: content})
		if f.Name == documentPart {
			doc.body = len(doc.parts) - 1
		}
	}
	if doc.body < 0 {
		return nil, certgen.NewError(certgen.KindTemplate, "invalid template", ErrNoDocumentPart)
	}
	return doc, nil
}

// DocumentXML returns the current main document part.
func (d *Document) DocumentXML() []byte {
	return d.parts[d.body].data
}

// Placeholder returns the first run of the first body paragraph.
func (d *Document) Placeholder() (certgen.Placeholder, error) {
	if d.err != nil {
		return nil, d.err
	}
	if _, err := locateRun(d.DocumentXML()); err != nil {
		return nil, certgen.NewError(certgen.KindTemplate, "invalid template", err)
	}
	return &placeholderRun{doc: d}, nil
}

// Err reports the first edit failure, if any.
func (d *Document) Err() error {
	return d.err
}

// WriteTo encodes the package, preserving part order.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if d.err != nil {
		return 0, d.err
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, p := range d.parts {
		header := &zip.FileHeader{
			Name:     p.header.Name,
			Comment:  p.header.Comment,
			Method:   p.header.Method,
			Modified: p.header.Modified,
		}
		if header.Method != zip.Store {
			header.Method = zip.Deflate
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return cw.count, err
		}
		if _, err := fw.Write(p.data); err != nil {
			return cw.count, err
		}
	}
	if err := zw.Close(); err != nil {
		return cw.count, err
	}
	return cw.count, nil
}

// Save writes the package to path.
func (d *Document) Save(path string) error {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (d *Document) edit(fn func(data []byte, loc runLocation) []byte) {
	if d.err != nil {
		return
	}
	data := d.DocumentXML()
	loc, err := locateRun(data)
	if err != nil {
		d.err = certgen.NewError(certgen.KindTemplate, "invalid template", err)
		return
	}
	d.parts[d.body].data = fn(data, loc)
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}
