package certpdf

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-certgen/certgen"
)

// DefaultSofficeCommand is resolved through PATH.
const DefaultSofficeCommand = "soffice"

// OfficeEngine invokes LibreOffice for document-to-PDF conversion.
type OfficeEngine struct {
	Command string
	Args    []string
	Env     []string
	// Timeout bounds one conversion; zero waits indefinitely.
	Timeout time.Duration
}

var _ certgen.Converter = OfficeEngine{}

// Convert runs soffice against src in a scratch directory with its own
// profile, so concurrent desktop sessions do not block the conversion.
func (e OfficeEngine) Convert(ctx context.Context, src string) ([]byte, error) {
	cmdPath := strings.TrimSpace(e.Command)
	if cmdPath == "" {
		cmdPath = DefaultSofficeCommand
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cmdCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return nil, certgen.NewError(certgen.KindConvert, fmt.Sprintf("resolve %s", src), err)
	}

	workDir, err := os.MkdirTemp("", "certgen-soffice-*")
	if err != nil {
		return nil, certgen.NewError(certgen.KindConvert, "create conversion directory", err)
	}
	defer os.RemoveAll(workDir)

	outDir := filepath.Join(workDir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		return nil, certgen.NewError(certgen.KindConvert, "create conversion directory", err)
	}

	args := []string{
		"--headless",
		"--norestore",
		"-env:UserInstallation=" + fileURL(filepath.Join(workDir, "profile")),
		"--convert-to", "pdf",
		"--outdir", outDir,
	}
	args = append(args, e.Args...)
	args = append(args, srcAbs)

	cmd := exec.CommandContext(cmdCtx, cmdPath, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := cmdCtx.Err(); ctxErr != nil {
			return nil, certgen.NewError(certgen.KindConvert, "soffice conversion timed out or was canceled", ctxErr)
		}
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = "soffice conversion failed"
		}
		return nil, certgen.NewError(certgen.KindConvert, message, err)
	}

	stem := strings.TrimSuffix(filepath.Base(srcAbs), filepath.Ext(srcAbs))
	pdf, err := os.ReadFile(filepath.Join(outDir, stem+".pdf"))
	if err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = strings.TrimSpace(stdout.String())
		}
		if message == "" {
			message = "soffice produced no pdf"
		}
		return nil, certgen.NewError(certgen.KindConvert, message, err)
	}
	return pdf, nil
}

func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
