package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}
	if cfg.ServerName != "mcp-pdf-annotator" {
		t.Errorf("Expected default server name to be 'mcp-pdf-annotator', got '%s'", cfg.ServerName)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}
	if cfg.StoreBackend != "badger" {
		t.Errorf("Expected default store backend to be 'badger', got '%s'", cfg.StoreBackend)
	}
	if cfg.StoreQuota != 5<<20 {
		t.Errorf("Expected default store quota to be 5MB, got %d", cfg.StoreQuota)
	}
	if cfg.HighlighterColor != "rgba(255, 255, 0, 0.5)" {
		t.Errorf("Expected default highlighter color to be translucent yellow, got '%s'", cfg.HighlighterColor)
	}
	if cfg.HighlighterSize != 10 {
		t.Errorf("Expected default highlighter size to be 10, got %g", cfg.HighlighterSize)
	}
	if cfg.DefaultScale != 1 {
		t.Errorf("Expected default scale to be 1, got %g", cfg.DefaultScale)
	}

	currentDir, _ := os.Getwd()
	if cfg.PDFDirectory != currentDir {
		t.Errorf("Expected default PDF directory to be '%s', got '%s'", currentDir, cfg.PDFDirectory)
	}
	if cfg.StoreDir != filepath.Join(currentDir, ".annotations") {
		t.Errorf("Expected default store directory inside the PDF directory, got '%s'", cfg.StoreDir)
	}
}

// validConfig returns a configuration that passes Validate, rooted in a
// temporary directory.
func validConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.PDFDirectory = dir
	cfg.StoreDir = filepath.Join(dir, ".annotations")
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config - stdio mode", mutate: func(*Config) {}},
		{name: "valid config - server mode", mutate: func(c *Config) { c.Mode = ModeServer }},
		{name: "valid config - memory store", mutate: func(c *Config) { c.StoreBackend = "memory"; c.StoreDir = "" }},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "invalid" }, wantErr: true},
		{name: "invalid port - too low (server mode)", mutate: func(c *Config) { c.Mode = ModeServer; c.Port = 0 }, wantErr: true},
		{name: "invalid port - too high (server mode)", mutate: func(c *Config) { c.Mode = ModeServer; c.Port = 70000 }, wantErr: true},
		{name: "invalid port ignored in stdio mode", mutate: func(c *Config) { c.Port = 0 }},
		{name: "empty PDF directory", mutate: func(c *Config) { c.PDFDirectory = "" }, wantErr: true},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "invalid" }, wantErr: true},
		{name: "invalid max file size", mutate: func(c *Config) { c.MaxFileSize = 0 }, wantErr: true},
		{name: "unknown store backend", mutate: func(c *Config) { c.StoreBackend = "redis" }, wantErr: true},
		{name: "badger without directory", mutate: func(c *Config) { c.StoreDir = "" }, wantErr: true},
		{name: "zero store quota", mutate: func(c *Config) { c.StoreQuota = 0 }, wantErr: true},
		{name: "css hex color", mutate: func(c *Config) { c.HighlighterColor = "#00ff00" }},
		{name: "bad color", mutate: func(c *Config) { c.HighlighterColor = "yellowish" }, wantErr: true},
		{name: "eraser is not a highlighter color", mutate: func(c *Config) { c.HighlighterColor = "eraser" }, wantErr: true},
		{name: "zero highlighter size", mutate: func(c *Config) { c.HighlighterSize = 0 }, wantErr: true},
		{name: "scale at minimum", mutate: func(c *Config) { c.DefaultScale = 0.5 }},
		{name: "scale at maximum", mutate: func(c *Config) { c.DefaultScale = 3 }},
		{name: "scale too small", mutate: func(c *Config) { c.DefaultScale = 0.25 }, wantErr: true},
		{name: "scale too large", mutate: func(c *Config) { c.DefaultScale = 4 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateCreatesDirectory(t *testing.T) {
	cfg := validConfig(t)
	cfg.PDFDirectory = filepath.Join(cfg.PDFDirectory, "non-existent", "pdfs")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() failed: %v", err)
	}
	if info, err := os.Stat(cfg.PDFDirectory); err != nil || !info.IsDir() {
		t.Errorf("Directory should have been created: %s", cfg.PDFDirectory)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{
		Host: "192.168.1.1",
		Port: 9090,
	}

	expected := "192.168.1.1:9090"
	if got := cfg.Address(); got != expected {
		t.Errorf("Config.Address() = %v, want %v", got, expected)
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		logLevel string
		want     bool
	}{
		{logLevel: "debug", want: true},
		{logLevel: "info", want: false},
		{logLevel: "warn", want: false},
		{logLevel: "error", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:         "server",
		Host:         "localhost",
		Port:         8080,
		PDFDirectory: "/home/user/pdfs",
		StoreBackend: "memory",
		LogLevel:     "debug",
		MaxFileSize:  1024,
	}

	result := cfg.String()
	for _, substr := range []string{
		"Mode: server",
		"Host: localhost",
		"Port: 8080",
		"PDFDirectory: /home/user/pdfs",
		"Store: memory",
		"LogLevel: debug",
		"MaxFileSize: 1024",
	} {
		if !strings.Contains(result, substr) {
			t.Errorf("Config.String() result doesn't contain expected substring: %s\nGot: %s", substr, result)
		}
	}
}

func TestConfigValidateLogLevels(t *testing.T) {
	validLevels := []string{"debug", "info", "warn", "error"}
	invalidLevels := []string{"DEBUG", "INFO", "trace", "fatal", ""}

	for _, level := range validLevels {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.LogLevel = level
			if err := cfg.Validate(); err != nil {
				t.Errorf("Config.Validate() should accept log level '%s', got error: %v", level, err)
			}
		})
	}

	for _, level := range invalidLevels {
		t.Run("invalid_"+level, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.LogLevel = level
			if err := cfg.Validate(); err == nil {
				t.Errorf("Config.Validate() should reject log level '%s'", level)
			}
		})
	}
}

func TestConfigModes(t *testing.T) {
	server := &Config{Mode: ModeServer}
	stdio := &Config{Mode: ModeStdio}

	if !server.IsServerMode() || server.IsStdioMode() {
		t.Error("server mode misreported")
	}
	if !stdio.IsStdioMode() || stdio.IsServerMode() {
		t.Error("stdio mode misreported")
	}
}
