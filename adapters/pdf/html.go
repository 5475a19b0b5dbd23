package certpdf

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"

	docxtemplate "github.com/goliatone/go-certgen/adapters/docx"
	pagetemplate "github.com/goliatone/go-certgen/adapters/template"
	"github.com/goliatone/go-certgen/certgen"
)

// DefaultMaxHTMLBytes guards in-memory HTML buffering before PDF conversion.
const DefaultMaxHTMLBytes int64 = 8 * 1024 * 1024

const certificateTemplate = "templates/certificate.html"

//go:embed templates/*.html
var templateFS embed.FS

var certificateTemplates = pagetemplate.MustParse(templateFS, certificateTemplate)

type htmlParagraph struct {
	Align string
	Runs  []htmlRun
}

type htmlRun struct {
	Text  string
	Style string
}

// RenderHTML flattens doc into a printable HTML page.
func RenderHTML(doc *docxtemplate.Document, title string, maxBytes int64) ([]byte, error) {
	paragraphs, err := doc.Paragraphs()
	if err != nil {
		return nil, certgen.NewError(certgen.KindConvert, "read document paragraphs", err)
	}

	padding := "0.5in"
	if pg, ok, err := doc.Page(); err == nil && ok {
		padding = strings.Join([]string{
			inches(pg.MarginTop), inches(pg.MarginRight), inches(pg.MarginBottom), inches(pg.MarginLeft),
		}, " ")
	}

	view := make([]htmlParagraph, 0, len(paragraphs))
	for _, p := range paragraphs {
		hp := htmlParagraph{Align: textAlign(p.Align)}
		for _, r := range p.Runs {
			hp.Runs = append(hp.Runs, htmlRun{Text: r.Text, Style: runStyle(r)})
		}
		view = append(view, hp)
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxHTMLBytes
	}
	renderer := pagetemplate.Renderer{
		Templates:    certificateTemplates,
		TemplateName: certificateTemplate,
		MaxBytes:     maxBytes,
	}
	out, err := renderer.RenderBytes(map[string]any{
		"title":        title,
		"paragraphs":   view,
		"padding":      padding,
		"default_font": certgen.DefaultFontFace,
		"default_size": 11,
	})
	if err != nil {
		return nil, certgen.NewError(certgen.KindConvert, "render certificate html", err)
	}
	return out, nil
}

func documentTitle(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func textAlign(jc string) string {
	switch jc {
	case "center":
		return "center"
	case "right", "end":
		return "right"
	case "both", "distribute":
		return "justify"
	default:
		return "left"
	}
}

func runStyle(r docxtemplate.TextRun) string {
	var parts []string
	if r.Font != "" {
		parts = append(parts, fmt.Sprintf("font-family: '%s'", strings.ReplaceAll(r.Font, "'", "")))
	}
	if r.SizePt > 0 {
		parts = append(parts, fmt.Sprintf("font-size: %gpt", r.SizePt))
	}
	if r.Bold {
		parts = append(parts, "font-weight: bold")
	}
	if r.Italic {
		parts = append(parts, "font-style: italic")
	}
	if r.Underline {
		parts = append(parts, "text-decoration: underline")
	}
	if isHexColor(r.Color) {
		parts = append(parts, "color: #"+r.Color)
	}
	return strings.Join(parts, "; ")
}

func isHexColor(v string) bool {
	if len(v) != 6 {
		return false
	}
	for _, c := range v {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
