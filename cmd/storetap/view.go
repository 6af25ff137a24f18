package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/rendis/storetap/internal/config"
	"github.com/rendis/storetap/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse crawl results interactively",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath != "" {
			if _, err := os.Stat(dbPath); err != nil {
				return eris.Wrapf(err, "view: open %s", dbPath)
			}
		}
		logCfg := cfg.Log
		logCfg.Quiet = true
		if err := config.InitLogger(logCfg); err != nil {
			return err
		}
		return tui.Browse(dbPath, version, tui.DefaultHistory())
	},
}

func init() {
	viewCmd.Flags().String("db", "", "open this .db file directly")
	rootCmd.AddCommand(viewCmd)
}
