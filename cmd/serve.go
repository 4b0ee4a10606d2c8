package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"factline/internal/config"
	"factline/internal/server"
	"factline/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the content service",
	Long: `Serve figure content and the batch article endpoint over HTTP.

When content_dir is configured, curated figure files in that directory are
loaded into the store and watched for changes; every change is broadcast to
connected browsers over the update feed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer log.Sync()

		st, err := store.Open(config.StorePath())
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		srv := server.New(log, st, cfg.RateLimit)

		if cfg.ContentDir != "" {
			w, err := server.NewWatcher(log, st, srv.Hub(), cfg.ContentDir)
			if err != nil {
				return fmt.Errorf("watching content dir: %w", err)
			}
			defer w.Close()
			if err := w.LoadAll(); err != nil {
				return fmt.Errorf("loading content dir: %w", err)
			}
			go w.Run()
			log.Info("watching content directory", zap.String("dir", cfg.ContentDir))
		}

		log.Info("listening", zap.String("addr", cfg.Listen))
		return http.ListenAndServe(cfg.Listen, srv.Handler())
	},
}
