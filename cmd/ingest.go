package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"factline/internal/config"
	"factline/internal/ingest"
	"factline/internal/store"
)

var flagIngestForce bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch source articles from configured feeds",
	Long: `Pull articles from every enabled source feed into the local store so
curated timeline events can cite them. Runs only when the last ingest is older
than refresh_interval unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		st, err := store.Open(config.StorePath())
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		if !flagIngestForce && !st.NeedsRefresh(cfg.RefreshDuration()) {
			fmt.Println("Sources are fresh; use --force to ingest anyway.")
			return nil
		}

		sources := cfg.EnabledSources()
		if len(sources) == 0 {
			fmt.Println("No enabled sources configured.")
			return nil
		}

		fmt.Printf("Fetching %d source(s)...\n", len(sources))
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		result := ingest.FetchAll(ctx, sources)

		for _, e := range result.Errors {
			fmt.Printf("  [warn] %v\n", e)
		}

		if err := st.UpsertArticles(result.Articles); err != nil {
			return fmt.Errorf("storing articles: %w", err)
		}
		if err := st.SetLastRefresh(); err != nil {
			return fmt.Errorf("recording refresh: %w", err)
		}

		// Auto-prune old articles after a successful ingest
		st.Prune(cfg.RetentionDuration())

		fmt.Printf("Ingested %d article(s).\n", len(result.Articles))
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&flagIngestForce, "force", false, "ingest even if sources are fresh")
}
