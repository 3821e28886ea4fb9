package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tabsite/internal/config"
	"github.com/dgallion1/tabsite/internal/source"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tabsite",
	Short: "Publish a tabbed Google Doc as a website",
	Long: `tabsite fetches a Google Doc and serves each published tab as a section
of a single scrolling page, with a table of contents and a URL per tab.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(serveCmd, fetchCmd)
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newService builds the configured source wrapped in the publishing rules.
func newService(ctx context.Context, cfg config.Config, log *slog.Logger) (*source.Service, error) {
	var src source.Source
	switch cfg.Source {
	case config.SourceSnapshot:
		src = &source.Snapshot{Path: cfg.SourcePath}
	case config.SourceDOCX:
		src = &source.DOCX{Path: cfg.SourcePath}
	default:
		g, err := source.NewGoogleDocs(ctx, cfg.GoogleDocsID, []byte(cfg.GoogleServiceAccountJSON))
		if err != nil {
			return nil, err
		}
		src = g
	}
	return source.NewService(src, source.Options{
		DraftPrefixes:    cfg.DraftPrefixes,
		RequirePublished: cfg.RequirePublished,
	}, log), nil
}
