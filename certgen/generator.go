package certgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Generator turns spreadsheet rows into rendered certificates.
type Generator struct {
	Source      RowSource
	Templates   TemplateLoader
	Converter   Converter
	Stores      StoreFactory
	Tracker     RunTracker
	Logger      Logger
	FontFace    string
	FontSizePt  float64
	Now         func() time.Time
	IDGenerator func() string
}

// NewGenerator creates a generator with default presentation settings.
// Collaborators must be assigned before Process is called.
func NewGenerator() *Generator {
	return &Generator{
		Logger:      NopLogger{},
		FontFace:    DefaultFontFace,
		FontSizePt:  DefaultFontSizePt,
		Now:         time.Now,
		IDGenerator: uuid.NewString,
	}
}

// Process renders one PDF per data row and returns how many were produced.
// The first row is always treated as a header. Rows with a blank identifier
// are skipped. The first failing row aborts the batch; artifacts written
// before it are kept.
func (g *Generator) Process(ctx context.Context, req Request, progress ProgressFunc) (Result, error) {
	if g == nil {
		return Result{}, NewError(KindInternal, "generator is nil", nil)
	}
	if err := g.check(); err != nil {
		return Result{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	g.applyDefaults()

	store := g.Stores(req.OutputDir)
	if store == nil {
		return Result{}, NewError(KindInternal, "store factory returned nil", nil)
	}

	runID := g.start(ctx, req)
	result := Result{RunID: runID}
	g.Logger.Infof("run %s: template=%s spreadsheet=%s output=%s", runID, req.TemplatePath, req.SpreadsheetPath, req.OutputDir)

	rows, err := g.Source.Open(ctx, req.SpreadsheetPath)
	if err != nil {
		err = wrapError(KindSource, "open spreadsheet", err)
		g.fail(ctx, runID, err)
		return result, err
	}
	defer func() {
		_ = rows.Close()
	}()

	first := true
	for {
		if err := ctx.Err(); err != nil {
			err = wrapError(KindCanceled, "batch canceled", err)
			g.fail(ctx, runID, err)
			return result, err
		}

		row, err := rows.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			err = wrapError(KindSource, "read spreadsheet", err)
			g.fail(ctx, runID, err)
			return result, err
		}

		if first {
			first = false
			continue
		}
		if IsBlank(row.ID) {
			g.Logger.Debugf("run %s: row %d skipped, blank identifier", runID, row.Index)
			continue
		}

		if progress != nil {
			progress(ProgressMessage(row.ID, row.Name))
		}

		ref, err := g.renderOne(ctx, store, req.TemplatePath, row)
		if err != nil {
			g.fail(ctx, runID, err)
			return result, err
		}
		result.Count++
		g.track(ctx, runID, row, ref)
	}

	if g.Tracker != nil {
		if err := g.Tracker.Complete(ctx, runID, result.Count); err != nil {
			g.Logger.Errorf("run %s: tracker complete: %v", runID, err)
		}
	}
	g.Logger.Infof("run %s: completed, %d certificates", runID, result.Count)
	return result, nil
}

// renderOne writes <stem>.docx, converts it to <stem>.pdf and removes the
// intermediate. A failed conversion leaves the intermediate in place.
func (g *Generator) renderOne(ctx context.Context, store ArtifactStore, templatePath string, row Row) (ArtifactRef, error) {
	doc, err := g.Templates.Load(ctx, templatePath)
	if err != nil {
		return ArtifactRef{}, wrapError(KindTemplate, "load template", err)
	}

	placeholder, err := doc.Placeholder()
	if err != nil {
		return ArtifactRef{}, wrapError(KindTemplate, "locate name placeholder", err)
	}
	placeholder.SetFont(g.FontFace, g.FontSizePt)
	placeholder.AppendText(DisplayName(row.Name))

	stem := SanitizeIdentifier(row.ID)
	docKey := OutputFilename(stem, FormatDOCX)
	pdfKey := OutputFilename(stem, FormatPDF)

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return ArtifactRef{}, wrapError(KindTemplate, "encode document", err)
	}
	docRef, err := store.Put(ctx, docKey, &buf)
	if err != nil {
		return ArtifactRef{}, wrapError(KindStorage, fmt.Sprintf("save %s", docKey), err)
	}

	pdf, err := g.Converter.Convert(ctx, docRef.Path)
	if err != nil {
		return ArtifactRef{}, wrapError(KindConvert, fmt.Sprintf("convert %s", docKey), err)
	}
	pdfRef, err := store.Put(ctx, pdfKey, bytes.NewReader(pdf))
	if err != nil {
		return ArtifactRef{}, wrapError(KindStorage, fmt.Sprintf("save %s", pdfKey), err)
	}

	if err := store.Delete(ctx, docKey); err != nil {
		return pdfRef, wrapError(KindStorage, fmt.Sprintf("remove %s", docKey), err)
	}
	g.Logger.Debugf("row %d: wrote %s (%d bytes)", row.Index, pdfRef.Key, pdfRef.Size)
	return pdfRef, nil
}

func (g *Generator) check() error {
	switch {
	case g.Source == nil:
		return NewError(KindInternal, "generator requires a row source", nil)
	case g.Templates == nil:
		return NewError(KindInternal, "generator requires a template loader", nil)
	case g.Converter == nil:
		return NewError(KindInternal, "generator requires a converter", nil)
	case g.Stores == nil:
		return NewError(KindInternal, "generator requires an artifact store factory", nil)
	}
	return nil
}

func (g *Generator) applyDefaults() {
	if g.Logger == nil {
		g.Logger = NopLogger{}
	}
	if g.FontFace == "" {
		g.FontFace = DefaultFontFace
	}
	if g.FontSizePt <= 0 {
		g.FontSizePt = DefaultFontSizePt
	}
	if g.Now == nil {
		g.Now = time.Now
	}
	if g.IDGenerator == nil {
		g.IDGenerator = uuid.NewString
	}
}

func (g *Generator) start(ctx context.Context, req Request) string {
	runID := g.IDGenerator()
	if g.Tracker == nil {
		return runID
	}
	id, err := g.Tracker.Start(ctx, RunRecord{
		ID:              runID,
		TemplatePath:    req.TemplatePath,
		SpreadsheetPath: req.SpreadsheetPath,
		OutputDir:       req.OutputDir,
		State:           RunRunning,
		StartedAt:       g.Now(),
	})
	if err != nil {
		g.Logger.Errorf("run %s: tracker start: %v", runID, err)
		return runID
	}
	if id != "" {
		runID = id
	}
	return runID
}

func (g *Generator) track(ctx context.Context, runID string, row Row, ref ArtifactRef) {
	if g.Tracker == nil {
		return
	}
	err := g.Tracker.Artifact(ctx, runID, ArtifactRecord{
		RunID:      runID,
		RowIndex:   row.Index,
		Identifier: Stringify(row.ID),
		Name:       Stringify(row.Name),
		Key:        ref.Key,
		Size:       ref.Size,
		CreatedAt:  g.Now(),
	})
	if err != nil {
		g.Logger.Errorf("run %s: tracker artifact: %v", runID, err)
	}
}

func (g *Generator) fail(ctx context.Context, runID string, err error) {
	g.Logger.Errorf("run %s: failed: %v", runID, err)
	if g.Tracker == nil {
		return
	}
	if terr := g.Tracker.Fail(context.WithoutCancel(ctx), runID, err); terr != nil {
		g.Logger.Errorf("run %s: tracker fail: %v", runID, terr)
	}
}
