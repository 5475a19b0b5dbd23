package certgen_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	storefs "github.com/goliatone/go-certgen/adapters/store/fs"
	"github.com/goliatone/go-certgen/certgen"
)

type sliceIterator struct {
	rows []certgen.Row
	idx  int
}

func (it *sliceIterator) Next(ctx context.Context) (certgen.Row, error) {
	if it.idx >= len(it.rows) {
		return certgen.Row{}, io.EOF
	}
	row := it.rows[it.idx]
	it.idx++
	return row, nil
}

func (it *sliceIterator) Close() error { return nil }

// sheet builds rows with 1-based indexes; the first entry is the header.
func sheet(cells ...[2]any) certgen.RowSource {
	return certgen.RowSourceFunc(func(ctx context.Context, path string) (certgen.RowIterator, error) {
		rows := make([]certgen.Row, 0, len(cells))
		for i, c := range cells {
			rows = append(rows, certgen.Row{Index: i + 1, ID: c[0], Name: c[1]})
		}
		return &sliceIterator{rows: rows}, nil
	})
}

type fakeDocument struct {
	text string
	face string
	size float64
}

func (d *fakeDocument) Placeholder() (certgen.Placeholder, error) { return d, nil }
func (d *fakeDocument) SetFont(face string, sizePt float64)        { d.face, d.size = face, sizePt }
func (d *fakeDocument) AppendText(text string)                     { d.text += text }
func (d *fakeDocument) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, "docx:"+d.face+":"+d.text)
	return int64(n), err
}

type fakeLoader struct {
	docs []*fakeDocument
}

func (l *fakeLoader) Load(ctx context.Context, path string) (certgen.Document, error) {
	doc := &fakeDocument{text: "Awarded to "}
	l.docs = append(l.docs, doc)
	return doc, nil
}

// pdfConverter prefixes the docx bytes; it fails for sources named in failOn.
func pdfConverter(failOn string) certgen.Converter {
	return certgen.ConverterFunc(func(ctx context.Context, src string) ([]byte, error) {
		if failOn != "" && filepath.Base(src) == failOn {
			return nil, errors.New("soffice exited with status 1")
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, err
		}
		return append([]byte("%PDF-"), data...), nil
	})
}

func newTestGenerator(source certgen.RowSource, loader *fakeLoader, conv certgen.Converter) *certgen.Generator {
	gen := certgen.NewGenerator()
	gen.Source = source
	gen.Templates = loader
	gen.Converter = conv
	gen.Stores = storefs.Factory()
	n := 0
	gen.IDGenerator = func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
	return gen
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func request(dir string) certgen.Request {
	return certgen.Request{TemplatePath: "template.docx", SpreadsheetPath: "people.xlsx", OutputDir: dir}
}

func TestGenerator_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	gen := newTestGenerator(sheet([2]any{"ID", "Name"}), &fakeLoader{}, pdfConverter(""))

	result, err := gen.Process(context.Background(), request(dir), nil)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Count != 0 {
		t.Fatalf("expected zero certificates, got %d", result.Count)
	}
	if files := listDir(t, dir); len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
}

func TestGenerator_RendersQualifyingRows(t *testing.T) {
	dir := t.TempDir()
	loader := &fakeLoader{}
	gen := newTestGenerator(sheet(
		[2]any{"ID", "Name"},
		[2]any{"A+1 ", "jane doe"},
		[2]any{nil, "nobody"},
		[2]any{"", "empty"},
		[2]any{0.0, "zero"},
		[2]any{12.0, nil},
	), loader, pdfConverter(""))

	var lines []string
	result, err := gen.Process(context.Background(), request(dir), func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("expected 2 certificates, got %d", result.Count)
	}
	if got := strings.Join(listDir(t, dir), ","); got != "12.pdf,A1.pdf" {
		t.Fatalf("unexpected output files %q", got)
	}
	if strings.Join(lines, "|") != "Processing: A+1  -> jane doe|Processing: 12 -> " {
		t.Fatalf("unexpected progress lines %q", lines)
	}

	if len(loader.docs) != 2 {
		t.Fatalf("expected a fresh template per row, got %d loads", len(loader.docs))
	}
	first := loader.docs[0]
	if first.text != "Awarded to Jane Doe" || first.face != certgen.DefaultFontFace || first.size != certgen.DefaultFontSizePt {
		t.Fatalf("unexpected placeholder edit: %#v", first)
	}
	if loader.docs[1].text != "Awarded to  " {
		t.Fatalf("expected blank name to append a single space, got %q", loader.docs[1].text)
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "A1.pdf"))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("expected pdf bytes, got %q", pdf)
	}
}

func TestGenerator_RerunOverwrites(t *testing.T) {
	dir := t.TempDir()
	rows := sheet([2]any{"ID", "Name"}, [2]any{"ID+001", "ada"})

	for i := 0; i < 2; i++ {
		gen := newTestGenerator(rows, &fakeLoader{}, pdfConverter(""))
		if _, err := gen.Process(context.Background(), request(dir), nil); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if got := strings.Join(listDir(t, dir), ","); got != "ID001.pdf" {
		t.Fatalf("expected a single artifact after rerun, got %q", got)
	}
}

func TestGenerator_ReplacesStaleArtifacts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ID001.docx", "ID001.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("stale"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	gen := newTestGenerator(sheet([2]any{"ID", "Name"}, [2]any{"ID+001", "ada"}), &fakeLoader{}, pdfConverter(""))
	result, err := gen.Process(context.Background(), request(dir), nil)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected 1 certificate, got %d", result.Count)
	}
	if got := strings.Join(listDir(t, dir), ","); got != "ID001.pdf" {
		t.Fatalf("expected only the fresh pdf, got %q", got)
	}
	pdf, err := os.ReadFile(filepath.Join(dir, "ID001.pdf"))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-docx:")) {
		t.Fatalf("expected stale pdf to be replaced, got %q", pdf)
	}
}

func TestGenerator_ConverterFailureAborts(t *testing.T) {
	dir := t.TempDir()
	tracker := certgen.NewMemoryTracker()
	gen := newTestGenerator(sheet(
		[2]any{"ID", "Name"},
		[2]any{"A1", "jane"},
		[2]any{"B2", "john"},
		[2]any{"C3", "never"},
	), &fakeLoader{}, pdfConverter("B2.docx"))
	gen.Tracker = tracker

	result, err := gen.Process(context.Background(), request(dir), nil)
	if certgen.KindFromError(err) != certgen.KindConvert {
		t.Fatalf("expected convert error, got %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected the partial count, got %d", result.Count)
	}
	if got := strings.Join(listDir(t, dir), ","); got != "A1.pdf,B2.docx" {
		t.Fatalf("expected earlier pdf and failed intermediate, got %q", got)
	}

	record, err := tracker.Status(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if record.State != certgen.RunFailed || record.Count != 1 || !strings.Contains(record.Error, "B2.docx") {
		t.Fatalf("unexpected run record: %#v", record)
	}
}

func TestGenerator_TracksArtifacts(t *testing.T) {
	dir := t.TempDir()
	tracker := certgen.NewMemoryTracker()
	gen := newTestGenerator(sheet(
		[2]any{"ID", "Name"},
		[2]any{"A1", "jane"},
		[2]any{"B2", "john"},
	), &fakeLoader{}, pdfConverter(""))
	gen.Tracker = tracker

	result, err := gen.Process(context.Background(), request(dir), nil)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	record, err := tracker.Status(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if record.State != certgen.RunCompleted || record.Count != 2 || record.OutputDir != dir {
		t.Fatalf("unexpected run record: %#v", record)
	}
	if len(record.Artifacts) != 2 || record.Artifacts[1].Key != "B2.pdf" || record.Artifacts[1].RowIndex != 3 {
		t.Fatalf("unexpected artifacts: %#v", record.Artifacts)
	}
}

func TestGenerator_IdentifierWithSeparator(t *testing.T) {
	dir := t.TempDir()
	gen := newTestGenerator(sheet([2]any{"ID", "Name"}, [2]any{"a/b", "x"}), &fakeLoader{}, pdfConverter(""))

	_, err := gen.Process(context.Background(), request(dir), nil)
	if certgen.KindFromError(err) != certgen.KindStorage {
		t.Fatalf("expected storage error, got %v", err)
	}
	if files := listDir(t, dir); len(files) != 0 {
		t.Fatalf("expected nothing written, got %v", files)
	}
}

func TestGenerator_Errors(t *testing.T) {
	dir := t.TempDir()

	gen := certgen.NewGenerator()
	if _, err := gen.Process(context.Background(), request(dir), nil); certgen.KindFromError(err) != certgen.KindInternal {
		t.Fatalf("expected internal error for missing collaborators, got %v", err)
	}

	failing := certgen.RowSourceFunc(func(ctx context.Context, path string) (certgen.RowIterator, error) {
		return nil, errors.New("not a zip file")
	})
	gen = newTestGenerator(failing, &fakeLoader{}, pdfConverter(""))
	if _, err := gen.Process(context.Background(), request(dir), nil); certgen.KindFromError(err) != certgen.KindSource {
		t.Fatalf("expected source error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen = newTestGenerator(sheet([2]any{"ID", "Name"}, [2]any{"A1", "x"}), &fakeLoader{}, pdfConverter(""))
	if _, err := gen.Process(ctx, request(dir), nil); certgen.KindFromError(err) != certgen.KindCanceled {
		t.Fatalf("expected canceled error, got %v", err)
	}
}
