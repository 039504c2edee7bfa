package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/phuslu/log"

	"github.com/a3tai/mcp-pdf-annotator/internal/config"
	"github.com/a3tai/mcp-pdf-annotator/internal/logging"
	"github.com/a3tai/mcp-pdf-annotator/internal/mcp"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/store"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := logging.New(cfg.LogLevel)
	logger.Debug().Str("config", cfg.String()).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		stop()
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

// run wires the store, the document service and the MCP server, then serves
// until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) (err error) {
	st, err := store.New(cfg.StoreBackend, cfg.StoreDir, cfg.StoreQuota, logger)
	if err != nil {
		return fmt.Errorf("failed to open annotation store: %w", err)
	}

	pdfService, err := pdf.NewService(pdf.ServiceOptions{
		MaxFileSize: cfg.MaxFileSize,
		Directory:   cfg.PDFDirectory,
		Store:       st,
		Logger:      logger,
		Color:       cfg.HighlighterColor,
		StrokeWidth: cfg.HighlighterSize,
		Scale:       cfg.DefaultScale,
	})
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to create PDF service: %w", err)
	}
	defer func() {
		if cerr := pdfService.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close annotation store: %w", cerr))
		}
	}()

	server, err := mcp.NewServer(cfg, pdfService, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP PDF Annotator\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
