package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/rendis/storetap/internal/engine/export"
	"github.com/rendis/storetap/internal/engine/storage"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export a run database to CSV",
	Example: "  storetap export --db starbucks_20260101_120000.db --output stores.csv",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath, _ := cmd.Flags().GetString("db")
		output, _ := cmd.Flags().GetString("output")

		n, csvPath, err := exportDB(dbPath, output)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d locations to %s\n", n, csvPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("db", "", "path to the .db file")
	exportCmd.Flags().String("output", "", "CSV output path (default: <db>.csv)")
	_ = exportCmd.MarkFlagRequired("db")
	rootCmd.AddCommand(exportCmd)
}

// exportDB writes every stored location of dbPath to output and returns the
// row count and path written.
func exportDB(dbPath, output string) (int, string, error) {
	if !strings.HasSuffix(dbPath, ".db") {
		return 0, "", eris.Errorf("export: %s is not a .db file", dbPath)
	}
	if output == "" {
		dir := filepath.Dir(dbPath)
		base := strings.TrimSuffix(filepath.Base(dbPath), ".db")
		output = filepath.Join(dir, base+".csv")
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return 0, "", err
	}
	defer store.Close()

	records, err := store.All()
	if err != nil {
		return 0, "", err
	}
	if err := export.WriteCSVFile(output, records); err != nil {
		return 0, "", err
	}
	return len(records), output, nil
}
