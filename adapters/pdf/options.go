package certpdf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/goliatone/go-certgen/certgen"
)

const defaultPDFScale = 1.0

var pdfLengthPattern = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]+)?)\s*([a-zA-Z]*)\s*$`)

var pdfPageSizesInches = map[string]struct {
	width  float64
	height float64
}{
	"A3":     {width: 11.69, height: 16.54},
	"A4":     {width: 8.27, height: 11.69},
	"A5":     {width: 5.83, height: 8.27},
	"LETTER": {width: 8.5, height: 11},
	"LEGAL":  {width: 8.5, height: 14},
}

// PDFOptions controls Chromium print settings.
type PDFOptions struct {
	// PageSize names a paper size (A3, A4, A5, Letter, Legal). When empty the
	// document's own page size is used.
	PageSize        string
	Landscape       *bool
	PrintBackground *bool
	Scale           float64
	MarginTop       string
	MarginBottom    string
	MarginLeft      string
	MarginRight     string

	// PaperWidth and PaperHeight are in inches and apply when PageSize is empty.
	PaperWidth  float64
	PaperHeight float64
}

func mergePDFOptions(base, override PDFOptions) PDFOptions {
	merged := base
	if override.PageSize != "" {
		merged.PageSize = override.PageSize
	}
	if override.Landscape != nil {
		merged.Landscape = override.Landscape
	}
	if override.PrintBackground != nil {
		merged.PrintBackground = override.PrintBackground
	}
	if override.Scale != 0 {
		merged.Scale = override.Scale
	}
	if override.MarginTop != "" {
		merged.MarginTop = override.MarginTop
	}
	if override.MarginBottom != "" {
		merged.MarginBottom = override.MarginBottom
	}
	if override.MarginLeft != "" {
		merged.MarginLeft = override.MarginLeft
	}
	if override.MarginRight != "" {
		merged.MarginRight = override.MarginRight
	}
	if override.PaperWidth > 0 && override.PaperHeight > 0 {
		merged.PaperWidth = override.PaperWidth
		merged.PaperHeight = override.PaperHeight
	}
	return merged
}

func buildPrintToPDFParams(opts PDFOptions) (*page.PrintToPDFParams, error) {
	params := page.PrintToPDF()

	scale := opts.Scale
	if scale == 0 {
		scale = defaultPDFScale
	}
	if scale < 0.1 || scale > 2.0 {
		return nil, certgen.NewError(certgen.KindValidation, "pdf scale must be between 0.1 and 2.0", nil)
	}
	params = params.WithScale(scale)

	if opts.Landscape != nil {
		params = params.WithLandscape(*opts.Landscape)
	}
	if opts.PrintBackground != nil {
		params = params.WithPrintBackground(*opts.PrintBackground)
	}

	switch {
	case opts.PageSize != "":
		size, ok := pdfPageSizesInches[strings.ToUpper(opts.PageSize)]
		if !ok {
			return nil, certgen.NewError(certgen.KindValidation, fmt.Sprintf("unsupported pdf page size: %s", opts.PageSize), nil)
		}
		params = params.WithPaperWidth(size.width).WithPaperHeight(size.height)
	case opts.PaperWidth > 0 && opts.PaperHeight > 0:
		params = params.WithPaperWidth(opts.PaperWidth).WithPaperHeight(opts.PaperHeight)
	default:
		params = params.WithPreferCSSPageSize(true)
	}

	margins := []struct {
		value string
		apply func(p *page.PrintToPDFParams, v float64) *page.PrintToPDFParams
	}{
		{opts.MarginTop, (*page.PrintToPDFParams).WithMarginTop},
		{opts.MarginBottom, (*page.PrintToPDFParams).WithMarginBottom},
		{opts.MarginLeft, (*page.PrintToPDFParams).WithMarginLeft},
		{opts.MarginRight, (*page.PrintToPDFParams).WithMarginRight},
	}
	for _, m := range margins {
		if m.value == "" {
			continue
		}
		value, err := parseLengthInches(m.value)
		if err != nil {
			return nil, err
		}
		params = m.apply(params, value)
	}

	return params, nil
}

func parseLengthInches(value string) (float64, error) {
	matches := pdfLengthPattern.FindStringSubmatch(value)
	if len(matches) != 3 {
		return 0, certgen.NewError(certgen.KindValidation, fmt.Sprintf("invalid pdf length: %s", value), nil)
	}

	unit := strings.ToLower(matches[2])
	if unit == "" {
		unit = "in"
	}
	amount, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, certgen.NewError(certgen.KindValidation, fmt.Sprintf("invalid pdf length: %s", value), err)
	}

	switch unit {
	case "in":
		return amount, nil
	case "cm":
		return amount / 2.54, nil
	case "mm":
		return amount / 25.4, nil
	case "pt":
		return amount / 72.0, nil
	case "px":
		return amount / 96.0, nil
	default:
		return 0, certgen.NewError(certgen.KindValidation, fmt.Sprintf("unsupported pdf length unit: %s", unit), nil)
	}
}

func inches(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64) + "in"
}

func boolPtr(value bool) *bool {
	return &value
}
