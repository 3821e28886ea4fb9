package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tabsite/internal/api"
	"github.com/dgallion1/tabsite/internal/docstore"
	"github.com/dgallion1/tabsite/internal/nav"
	"github.com/dgallion1/tabsite/internal/render"
	"github.com/dgallion1/tabsite/internal/site"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(os.Stdout)

		cfg, err := loadConfig()
		if err != nil {
			log.Error("invalid configuration", "error", err)
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		svc, err := newService(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("creating source: %w", err)
		}

		opts := []docstore.Option{docstore.WithTimeout(cfg.FetchTimeout)}
		if cfg.RedisURL != "" {
			cache, err := docstore.NewRedisCache(cfg.RedisURL, cfg.GoogleDocsID, cfg.CacheTTL)
			if err != nil {
				log.Warn("redis cache disabled", "error", err)
			} else {
				defer cache.Close()
				opts = append(opts, docstore.WithCache(cache))
			}
		}
		store := docstore.New(svc, log, opts...)
		store.Warm(ctx)

		// First fetch in the background; pages show the loading view until it lands.
		go store.Refetch(ctx)
		go store.Run(ctx, cfg.RefreshInterval)

		rend := render.New()
		pages, err := site.New(rend, site.Meta{
			Title:           cfg.SiteTitle,
			Description:     cfg.SiteDescription,
			GAMeasurementID: cfg.GAMeasurementID,
			BaseURL:         cfg.BaseURL,
		}, nav.DefaultScrollConfig())
		if err != nil {
			return err
		}

		srv := api.NewServer(store, pages, rend, log, cfg)
		httpServer := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			log.Info("shutting down...")

			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		log.Info("starting tabsite", "port", cfg.Port, "source", cfg.Source)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	},
}
