package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tabsite/internal/render"
)

var fetchMarkdown bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the document once and print it",
	Long: `Fetches the configured document, applies the draft and front matter
rules, and prints the result as JSON (or Markdown with --markdown).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr so stdout stays parseable.
		log := newLogger(os.Stderr)
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if cfg.FetchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.FetchTimeout)
			defer cancel()
		}

		svc, err := newService(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("creating source: %w", err)
		}
		doc, err := svc.Fetch(ctx)
		if err != nil {
			return err
		}

		if !fetchMarkdown {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}

		rend := render.New()
		for i, tab := range doc.Tabs {
			md, err := rend.Markdown(tab)
			if err != nil {
				return fmt.Errorf("tab %q: %w", tab.Title, err)
			}
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			fmt.Fprint(os.Stdout, md)
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchMarkdown, "markdown", false, "print each tab as Markdown")
}
