package certpdf

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	docxtemplate "github.com/goliatone/go-certgen/adapters/docx"
	"github.com/goliatone/go-certgen/certgen"
)

// ChromiumEngine prints flattened documents with a shared headless Chromium.
type ChromiumEngine struct {
	BrowserPath  string
	Headless     bool
	Timeout      time.Duration
	Args         []string
	MaxHTMLBytes int64

	// PDF overrides the page geometry read from the document.
	PDF PDFOptions

	initOnce      sync.Once
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

var _ certgen.Converter = (*ChromiumEngine)(nil)

// Convert opens the .docx at src, renders it to HTML and prints it.
func (e *ChromiumEngine) Convert(ctx context.Context, src string) ([]byte, error) {
	if e == nil {
		return nil, certgen.NewError(certgen.KindInternal, "chromium engine is nil", nil)
	}

	doc, err := docxtemplate.Open(src)
	if err != nil {
		return nil, certgen.NewError(certgen.KindConvert, "open document for conversion", err)
	}
	html, err := RenderHTML(doc, documentTitle(src), e.MaxHTMLBytes)
	if err != nil {
		return nil, err
	}

	opts := e.PDF
	if pg, ok, err := doc.Page(); err == nil && ok {
		opts = mergePDFOptions(PDFOptions{
			PaperWidth:  pg.Width,
			PaperHeight: pg.Height,
		}, e.PDF)
	}
	return e.Print(ctx, html, opts)
}

// Print renders an HTML page to PDF.
func (e *ChromiumEngine) Print(ctx context.Context, html []byte, opts PDFOptions) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := e.ensureBrowser(); err != nil {
		return nil, certgen.NewError(certgen.KindConvert, "chromium engine init failed", err)
	}

	tabCtx, cancel := chromedp.NewContext(e.browserCtx)
	defer cancel()

	execCtx, cancelReq := context.WithCancel(tabCtx)
	defer cancelReq()
	go func() {
		select {
		case <-ctx.Done():
			cancelReq()
		case <-execCtx.Done():
		}
	}()
	if e.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		execCtx, cancelTimeout = context.WithTimeout(execCtx, e.Timeout)
		defer cancelTimeout()
	}

	options := mergePDFOptions(PDFOptions{Scale: defaultPDFScale, PrintBackground: boolPtr(true)}, opts)
	params, err := buildPrintToPDFParams(options)
	if err != nil {
		return nil, err
	}

	var pdf []byte
	err = chromedp.Run(execCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = params.Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, certgen.NewError(certgen.KindConvert, "chromium pdf render failed", err)
	}
	return pdf, nil
}

// Close releases Chromium resources if they have been initialized.
func (e *ChromiumEngine) Close() error {
	if e == nil {
		return nil
	}
	if e.browserCancel != nil {
		e.browserCancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	return nil
}

func (e *ChromiumEngine) ensureBrowser() error {
	e.initOnce.Do(func() {
		options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		if e.BrowserPath != "" {
			options = append(options, chromedp.ExecPath(e.BrowserPath))
		}
		options = append(options, chromedp.Flag("headless", e.Headless))
		options = append(options, allocatorOptionsFromArgs(e.Args)...)

		e.allocCtx, e.allocCancel = chromedp.NewExecAllocator(context.Background(), options...)
		e.browserCtx, e.browserCancel = chromedp.NewContext(e.allocCtx)
	})
	if e.allocCtx == nil || e.browserCtx == nil {
		return errors.New("chromium allocator unavailable")
	}
	return nil
}

func allocatorOptionsFromArgs(args []string) []chromedp.ExecAllocatorOption {
	options := make([]chromedp.ExecAllocatorOption, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimPrefix(strings.TrimSpace(arg), "--")
		if arg == "" {
			continue
		}
		if name, value, ok := strings.Cut(arg, "="); ok {
			options = append(options, chromedp.Flag(name, value))
			continue
		}
		options = append(options, chromedp.Flag(arg, true))
	}
	return options
}
