package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/geometry"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/store"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultStoreDir    = ".annotations"

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment variable, e.g. PDF_ANNOTATOR_PORT.
	EnvPrefix = "PDF_ANNOTATOR"
)

// Config holds all configuration for the PDF annotator server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string
	MaxFileSize  int64 // Maximum PDF file size in bytes

	// Overlay persistence. StoreDir is only used by the badger backend and
	// defaults to a hidden directory inside PDFDirectory.
	StoreBackend string
	StoreDir     string
	StoreQuota   int64

	// Drawing defaults for every opened document
	HighlighterColor string
	HighlighterSize  float64
	DefaultScale     float64

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio,
		Host:             DefaultHost,
		Port:             DefaultPort,
		PDFDirectory:     currentDir,
		MaxFileSize:      DefaultMaxFileSize,
		StoreBackend:     store.BackendBadger,
		StoreDir:         filepath.Join(currentDir, DefaultStoreDir),
		StoreQuota:       store.DefaultQuota,
		HighlighterColor: overlay.DefaultHighlight.String(),
		HighlighterSize:  overlay.DefaultStrokeWidth,
		DefaultScale:     1,
		Version:          "0.1.0",
		ServerName:       "mcp-pdf-annotator",
		LogLevel:         DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}
	if cfg.StoreDir == "" {
		cfg.StoreDir = filepath.Join(cfg.PDFDirectory, DefaultStoreDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("store", cfg.StoreBackend)
	viper.SetDefault("storedir", "")
	viper.SetDefault("storequota", cfg.StoreQuota)
	viper.SetDefault("color", cfg.HighlighterColor)
	viper.SetDefault("size", cfg.HighlighterSize)
	viper.SetDefault("scale", cfg.DefaultScale)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP (SSE) server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("store", cfg.StoreBackend, "Overlay store backend: 'badger' (on disk) or 'memory'")
	pflag.String("storedir", "", "Overlay store directory (default <dir>/"+DefaultStoreDir+")")
	pflag.Int64("storequota", cfg.StoreQuota, "Overlay store quota in bytes")
	pflag.String("color", cfg.HighlighterColor, "Default highlighter color (CSS rgb/rgba or #rrggbb)")
	pflag.Float64("size", cfg.HighlighterSize, "Default highlighter width in PDF points")
	pflag.Float64("scale", cfg.DefaultScale, "Default render scale")
}

var flagNames = []string{
	"mode", "host", "port", "dir", "loglevel", "maxfilesize",
	"store", "storedir", "storequota", "color", "size", "scale",
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range flagNames {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Annotator - A Model Context Protocol server for highlighting, stamping and commenting PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs --store=memory      "+
			"# keep overlays in memory only\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # SSE server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		for _, name := range flagNames {
			fmt.Fprintf(os.Stderr, "  %s_%s\n", EnvPrefix, strings.ToUpper(name))
		}
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.StoreBackend = viper.GetString("store")
	cfg.StoreDir = viper.GetString("storedir")
	cfg.StoreQuota = viper.GetInt64("storequota")
	cfg.HighlighterColor = viper.GetString("color")
	cfg.HighlighterSize = viper.GetFloat64("size")
	cfg.DefaultScale = viper.GetFloat64("scale")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	switch c.StoreBackend {
	case store.BackendMemory:
	case store.BackendBadger:
		if c.StoreDir == "" {
			return errors.New("store directory cannot be empty for the badger backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be one of: %s, %s)",
			c.StoreBackend, store.BackendBadger, store.BackendMemory)
	}
	if c.StoreQuota <= 0 {
		return errors.New("store quota must be positive")
	}

	if _, err := overlay.ParseColor(c.HighlighterColor); err != nil {
		return fmt.Errorf("invalid highlighter color: %w", err)
	}
	if c.HighlighterSize <= 0 {
		return errors.New("highlighter size must be positive")
	}
	if c.DefaultScale < geometry.MinScale || c.DefaultScale > geometry.MaxScale {
		return fmt.Errorf("scale must be between %g and %g", geometry.MinScale, geometry.MaxScale)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, Store: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.StoreBackend, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
