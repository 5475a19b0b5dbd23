package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/goliatone/go-certgen/certgen"
	"github.com/goliatone/go-certgen/command"
	"github.com/goliatone/go-certgen/config"
	"github.com/spf13/cobra"
)

type cliOptions struct {
	host         string
	port         string
	transport    string
	engine       string
	sofficePath  string
	chromiumPath string
	timeout      time.Duration
	historyDB    string
	open         bool
	verbose      bool

	template    string
	spreadsheet string
	output      string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "certgen",
		Short:         "Generate one PDF certificate per spreadsheet row",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.engine, "engine", "", "PDF engine: office or chromium")
	flags.StringVar(&opts.sofficePath, "soffice", "", "LibreOffice binary for the office engine")
	flags.StringVar(&opts.chromiumPath, "chromium", "", "Chromium binary for the chromium engine")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Per document conversion timeout (0 disables)")
	flags.StringVar(&opts.historyDB, "history-db", "", "SQLite file for run history (default: in memory)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the certificate form on a local port",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	for _, cmd := range []*cobra.Command{root, serve} {
		cmd.Flags().StringVar(&opts.host, "host", "", "Listen host")
		cmd.Flags().StringVar(&opts.port, "port", "", "Listen port")
		cmd.Flags().BoolVar(&opts.open, "open", false, "Open the form in the default browser")
		cmd.Flags().StringVar(&opts.transport, "transport", "", "Server transport: fiber or http")
	}

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Run one batch without the form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}
	generate.Flags().StringVar(&opts.template, "template", "", "Template .docx file")
	generate.Flags().StringVar(&opts.spreadsheet, "spreadsheet", "", "Spreadsheet .xlsx file")
	generate.Flags().StringVar(&opts.output, "output", "", "Output folder")
	for _, name := range []string{"template", "spreadsheet", "output"} {
		_ = generate.MarkFlagRequired(name)
	}

	root.AddCommand(serve, generate)
	return root
}

// loadConfig layers defaults, CERTGEN_* variables and explicit flags.
func loadConfig(cmd *cobra.Command, opts *cliOptions) (config.Config, error) {
	cfg := config.Defaults()
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("host") {
		cfg.Server.Host = opts.host
	}
	if changed("port") {
		cfg.Server.Port = opts.port
	}
	if changed("transport") {
		cfg.Server.Transport = opts.transport
	}
	if changed("engine") {
		cfg.Convert.Engine = opts.engine
	}
	if changed("soffice") {
		cfg.Convert.SofficePath = opts.sofficePath
	}
	if changed("chromium") {
		cfg.Convert.ChromiumPath = opts.chromiumPath
	}
	if changed("timeout") {
		cfg.Convert.Timeout = opts.timeout
	}
	if changed("history-db") {
		cfg.History.DBPath = opts.historyDB
	}
	return cfg, cfg.Validate()
}

func runServe(cmd *cobra.Command, opts *cliOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := NewStdLogger("certgen", opts.verbose)
	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := newServer(ctx, app, cfg.Server)

	addr := cfg.Server.Addr()
	url := "http://" + addr + "/"
	errCh := make(chan error, 1)
	go func() {
		log.Infof("serving certificate form on %s via %s", url, cfg.Server.Transport)
		errCh <- srv.Serve(addr)
	}()
	if opts.open {
		if err := openBrowser(url); err != nil {
			log.Errorf("open browser: %v", err)
		}
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runGenerate(cmd *cobra.Command, opts *cliOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, NewStdLogger("certgen", opts.verbose))
	if err != nil {
		return err
	}
	defer app.Close()

	_, err = generateBatch(ctx, app.Generator, cmd.OutOrStdout(), certgen.Request{
		TemplatePath:    opts.template,
		SpreadsheetPath: opts.spreadsheet,
		OutputDir:       opts.output,
	})
	return err
}

// generateBatch validates req, runs it and prints the same lines the form
// shows in its log area.
func generateBatch(ctx context.Context, gen command.Generator, out io.Writer, req certgen.Request) (certgen.Result, error) {
	req = certgen.NormalizeRequest(req)
	if err := certgen.ValidateRequest(req); err != nil {
		fmt.Fprintln(out, certgen.ErrorMessage(err))
		return certgen.Result{}, err
	}

	var result certgen.Result
	msg := command.GenerateCertificates{
		Request: req,
		Result:  &result,
		Progress: func(line string) {
			fmt.Fprintln(out, line)
		},
	}

	fmt.Fprintln(out, certgen.StartMessage)
	if err := command.NewGenerateCertificatesHandler(gen).Execute(ctx, msg); err != nil {
		fmt.Fprintln(out, certgen.ErrorMessage(err))
		return result, err
	}
	fmt.Fprintln(out, certgen.CompletedMessage(result.Count))
	return result, nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", url)
	default:
		return errors.New("unsupported platform " + runtime.GOOS)
	}
	return cmd.Start()
}
