package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/dgallion1/regsplit/internal/config"
	"github.com/dgallion1/regsplit/internal/manifest"
	"github.com/dgallion1/regsplit/internal/pdfdoc"
	"github.com/dgallion1/regsplit/internal/pipeline"
	"github.com/dgallion1/regsplit/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type splitFlags struct {
	out         string
	baseURL     string
	selection   string
	composition string
	dpi         float64
	marker      string
	concurrency int
}

func newSplitCmd() *cobra.Command {
	var f splitFlags
	cmd := &cobra.Command{
		Use:   "split <file.pdf>",
		Short: "Split a PDF and print the manifest as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.out, "out", "o", "", "output directory (forces local storage)")
	fl.StringVar(&f.baseURL, "base-url", "", "public URL prefix for image paths")
	fl.StringVar(&f.selection, "selection", "", "page selection: all, sparse or first")
	fl.StringVar(&f.composition, "composition", "", "composition: stack or crop-top-half")
	fl.Float64Var(&f.dpi, "dpi", 0, "render resolution")
	fl.StringVar(&f.marker, "marker", "", "marker mode: strict or lenient")
	fl.IntVar(&f.concurrency, "concurrency", 0, "groups rendered in parallel")
	return cmd
}

// applyFlags overlays explicitly set flags on the loaded configuration.
func applyFlags(cfg *config.Config, fl *pflag.FlagSet, f splitFlags) {
	if fl.Changed("out") {
		cfg.StorageBackend = "local"
		cfg.OutputDir = f.out
	}
	if fl.Changed("base-url") {
		cfg.PublicBaseURL = f.baseURL
	}
	if fl.Changed("selection") {
		cfg.DefaultSelection = f.selection
	}
	if fl.Changed("composition") {
		cfg.DefaultComposition = f.composition
	}
	if fl.Changed("dpi") {
		cfg.RenderDPI = f.dpi
	}
	if fl.Changed("marker") {
		cfg.MarkerMode = f.marker
	}
	if fl.Changed("concurrency") {
		cfg.MaxConcurrentGroups = f.concurrency
	}
}

func runSplit(cmd *cobra.Command, path string, f splitFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(&cfg, cmd.Flags(), f)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStore()

	opener := &pdfdoc.FitzOpener{
		Validate:     cfg.ValidatePDF,
		TextFallback: cfg.TextFallbackMuPDF,
		Log:          log,
	}
	runner := pipeline.NewRunner(cfg, opener, store, log)

	m, err := runner.Run(ctx, data, runner.Defaults(), nil)
	if err != nil {
		return err
	}
	return writeManifest(cmd, m)
}

func writeManifest(cmd *cobra.Command, m *manifest.Manifest) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Status string `json:"status"`
		*manifest.Manifest
	}{Status: "success", Manifest: m})
}
