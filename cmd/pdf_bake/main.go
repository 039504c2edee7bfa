package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-pdf-annotator/internal/logging"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/export"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/store"
)

var errUsage = errors.New("usage")

type options struct {
	overlayPath string
	output      string
	backend     string
	storeDir    string
	format      string
	logLevel    string
	inspect     bool
}

type result struct {
	Input       string             `json:"input"`
	Output      string             `json:"output,omitempty"`
	Fingerprint string             `json:"fingerprint"`
	Source      string             `json:"overlay_source,omitempty"`
	Report      *export.Report     `json:"report,omitempty"`
	Skipped     []string           `json:"skipped,omitempty"`
	Inspection  *export.Inspection `json:"inspection,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options
	fs := pflag.NewFlagSet("pdf_bake", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.overlayPath, "overlay", "", "Overlay JSON file (default: the overlay saved in the store)")
	fs.StringVarP(&opts.output, "out", "o", "", "Output PDF (default: <input>-annotated.pdf)")
	fs.StringVar(&opts.backend, "store", store.BackendBadger, "Store backend holding saved overlays (badger, memory)")
	fs.StringVar(&opts.storeDir, "storedir", "", "Badger store directory (default: .annotations next to the input)")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.StringVar(&opts.logLevel, "loglevel", "error", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.inspect, "inspect", false, "Only report whether the input can be exported")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pdf_bake [flags] <input.pdf>\n\n")
		fmt.Fprintf(stderr, "Writes a copy of the input with its annotation overlay drawn into the page content.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	res, err := bake(context.Background(), fs.Arg(0), opts)
	if err != nil {
		return err
	}
	return writeResult(stdout, res, opts.format)
}

func bake(ctx context.Context, input string, opts options) (*result, error) {
	logger := logging.NewWithWriter(opts.logLevel, os.Stderr)

	original, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	fp := store.FingerprintOf(original)
	res := &result{Input: input, Fingerprint: fp.String()}

	if opts.inspect {
		res.Inspection = export.Inspect(original)
		return res, nil
	}

	b, source, err := loadOverlay(fp, input, opts)
	if err != nil {
		return nil, err
	}
	res.Source = source

	data, report, err := export.NewProjector(logger).Project(ctx, original, b)
	if err != nil {
		return nil, err
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + "-annotated.pdf"
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	res.Output = out
	res.Report = report
	for _, e := range report.Skipped.Errors {
		res.Skipped = append(res.Skipped, e.Error())
	}
	return res, nil
}

// loadOverlay reads the overlay from a JSON file when one is given and from
// the store otherwise.
func loadOverlay(fp store.Fingerprint, input string, opts options) (*overlay.Bundle, string, error) {
	if opts.overlayPath != "" {
		raw, err := os.ReadFile(opts.overlayPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read overlay: %w", err)
		}
		var b overlay.Bundle
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, "", fmt.Errorf("failed to parse overlay: %w", err)
		}
		b.Normalize()
		return &b, opts.overlayPath, nil
	}

	dir := opts.storeDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(input), ".annotations")
	}
	st, err := store.New(opts.backend, dir, store.DefaultQuota, logging.Discard())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	b, err := st.Load(fp)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load overlay: %w", err)
	}
	if b == nil || b.IsEmpty() {
		return nil, "", fmt.Errorf("no saved overlay for %s", fp.Short())
	}
	return b, opts.backend + ":" + dir, nil
}

func writeResult(w io.Writer, res *result, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "Input: %s\n", res.Input)
	fmt.Fprintf(w, "Fingerprint: %s\n", res.Fingerprint)
	if res.Inspection != nil {
		fmt.Fprintf(w, "Readable: %t\n", res.Inspection.Readable)
		fmt.Fprintf(w, "Valid: %t\n", res.Inspection.Valid)
		fmt.Fprintf(w, "Pages: %d\n", res.Inspection.Pages)
		if res.Inspection.Problem != "" {
			fmt.Fprintf(w, "Problem: %s\n", res.Inspection.Problem)
		}
		return nil
	}
	fmt.Fprintf(w, "Overlay: %s\n", res.Source)
	fmt.Fprintf(w, "Output: %s\n", res.Output)
	fmt.Fprintf(w, "%s\n", res.Report.Summary())
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "  skipped: %s\n", s)
	}
	return nil
}
