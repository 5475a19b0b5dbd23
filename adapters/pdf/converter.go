package certpdf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goliatone/go-certgen/certgen"
)

const (
	EngineOffice   = "office"
	EngineChromium = "chromium"
)

// Options selects and configures a conversion engine.
type Options struct {
	Engine       string
	SofficePath  string
	ChromiumPath string
	ChromiumArgs []string
	Timeout      time.Duration
}

// NewConverter builds the engine named by opts.Engine. The returned closer
// releases engine resources and is never nil.
func NewConverter(opts Options) (certgen.Converter, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Engine)) {
	case "", EngineOffice:
		return OfficeEngine{Command: opts.SofficePath, Timeout: opts.Timeout}, nopCloser{}, nil
	case EngineChromium:
		engine := &ChromiumEngine{
			BrowserPath: opts.ChromiumPath,
			Headless:    true,
			Timeout:     opts.Timeout,
			Args:        opts.ChromiumArgs,
		}
		return engine, engine, nil
	default:
		return nil, nil, certgen.NewError(certgen.KindValidation, fmt.Sprintf("unknown conversion engine %q", opts.Engine), nil)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
