package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"factline/internal/client"
	"factline/internal/config"
	"factline/internal/tui"
)

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	server := cfg.Server
	if flagServer != "" {
		server = flagServer
	}
	if server == "" {
		return fmt.Errorf("no content service configured: set server in config or pass --server")
	}

	figure := cfg.DefaultFigure
	if flagFigure != "" {
		figure = flagFigure
	}
	if figure == "" {
		return fmt.Errorf("no figure selected: set default_figure in config or pass --figure")
	}

	return tui.Run(tui.RunOpts{
		Cfg:      cfg,
		Client:   client.New(server, figure),
		FigureID: figure,
		Fragment: flagEvent,
	})
}
