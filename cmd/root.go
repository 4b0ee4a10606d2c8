package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagFigure string
	flagEvent  string
	flagServer string
	flagConfig string
)

var rootCmd = &cobra.Command{
	Use:   "factline",
	Short: "TUI browser for curated public-figure timelines",
	Long:  "factline browses a public figure's curated timeline of verified events, with category, year and search filters, and source articles loaded progressively in the background.",
	RunE:  runBrowse,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&flagFigure, "figure", "", "figure id to browse (defaults to config default_figure)")
	rootCmd.Flags().StringVar(&flagEvent, "event", "", "deep-link event slug to scroll to and highlight")
	rootCmd.Flags().StringVar(&flagServer, "server", "", "content service URL (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("factline %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
