package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	certpdf "github.com/goliatone/go-certgen/adapters/pdf"
	"github.com/goliatone/go-certgen/certgen"
)

// Environment variables read by ApplyEnv.
const (
	EnvHost           = "CERTGEN_HOST"
	EnvPort           = "CERTGEN_PORT"
	EnvEngine         = "CERTGEN_ENGINE"
	EnvSofficePath    = "CERTGEN_SOFFICE_PATH"
	EnvChromiumPath   = "CERTGEN_CHROMIUM_PATH"
	EnvConvertTimeout = "CERTGEN_CONVERT_TIMEOUT"
	EnvHistoryDB      = "CERTGEN_HISTORY_DB"
	EnvTransport      = "CERTGEN_TRANSPORT"
)

// Server transports.
const (
	TransportFiber = "fiber"
	TransportHTTP  = "http"
)

// Config holds the tool configuration. Batch paths are never part of it.
type Config struct {
	Server  ServerConfig
	Convert ConvertConfig
	History HistoryConfig
}

// ServerConfig holds HTTP server settings. Transport picks the fiber app
// (default) or a plain net/http server.
type ServerConfig struct {
	Host      string
	Port      string
	Transport string
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// ConvertConfig selects and tunes the PDF engine.
type ConvertConfig struct {
	Engine       string
	SofficePath  string
	ChromiumPath string
	Timeout      time.Duration
}

// PDFOptions maps the settings onto converter options.
func (c ConvertConfig) PDFOptions() certpdf.Options {
	return certpdf.Options{
		Engine:       c.Engine,
		SofficePath:  c.SofficePath,
		ChromiumPath: c.ChromiumPath,
		Timeout:      c.Timeout,
	}
}

// HistoryConfig enables the persistent run history. An empty DBPath keeps
// history in memory.
type HistoryConfig struct {
	DBPath string
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:      "127.0.0.1",
			Port:      "8080",
			Transport: TransportFiber,
		},
		Convert: ConvertConfig{
			Engine:      certpdf.EngineOffice,
			SofficePath: certpdf.DefaultSofficeCommand,
		},
	}
}

// ApplyEnv overrides fields from environment variables. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		return nil
	}
	set := func(target *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*target = v
		}
	}
	set(&c.Server.Host, EnvHost)
	set(&c.Server.Port, EnvPort)
	set(&c.Server.Transport, EnvTransport)
	set(&c.Convert.Engine, EnvEngine)
	set(&c.Convert.SofficePath, EnvSofficePath)
	set(&c.Convert.ChromiumPath, EnvChromiumPath)
	set(&c.History.DBPath, EnvHistoryDB)

	if raw := strings.TrimSpace(getenv(EnvConvertTimeout)); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return certgen.NewError(certgen.KindValidation, fmt.Sprintf("%s: invalid duration %q", EnvConvertTimeout, raw), err)
		}
		c.Convert.Timeout = timeout
	}
	return nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return certgen.NewError(certgen.KindValidation, "server host is required", nil)
	}
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 0 || port > 65535 {
		return certgen.NewError(certgen.KindValidation, fmt.Sprintf("invalid server port %q", c.Server.Port), err)
	}
	switch strings.ToLower(strings.TrimSpace(c.Server.Transport)) {
	case "", TransportFiber, TransportHTTP:
	default:
		return certgen.NewError(certgen.KindValidation, fmt.Sprintf("unknown server transport %q", c.Server.Transport), nil)
	}
	switch strings.ToLower(strings.TrimSpace(c.Convert.Engine)) {
	case "", certpdf.EngineOffice, certpdf.EngineChromium:
	default:
		return certgen.NewError(certgen.KindValidation, fmt.Sprintf("unknown pdf engine %q", c.Convert.Engine), nil)
	}
	if c.Convert.Timeout < 0 {
		return certgen.NewError(certgen.KindValidation, "convert timeout must not be negative", nil)
	}
	return nil
}
