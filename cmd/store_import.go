package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

var (
	importHistoryFile string
	importResultsFile string
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the history and results store",
}

var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the store schema if needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		zap.L().Info("store ready", zap.String("driver", cfg.Store.Driver))
		return st.Close()
	},
}

var storeImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import history and results JSON files into the configured store",
	Long:  "Loads a history JSON array of URLs and/or a results JSON array of leads and copies them into the configured store. Domains already present are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if importHistoryFile == "" && importResultsFile == "" {
			return eris.New("at least one of --history or --results is required")
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		imp, ok := st.(store.Importer)
		if !ok {
			return eris.Errorf("store driver %q does not support import", cfg.Store.Driver)
		}

		if importHistoryFile != "" {
			var urls []string
			if err := readJSON(importHistoryFile, &urls); err != nil {
				return err
			}
			n, err := imp.ImportHistory(cmd.Context(), urls)
			if err != nil {
				return err
			}
			zap.L().Info("history imported", zap.Int("read", len(urls)), zap.Int64("added", n))
		}

		if importResultsFile != "" {
			var recs []model.LeadRecord
			if err := readJSON(importResultsFile, &recs); err != nil {
				return err
			}
			n, err := imp.ImportResults(cmd.Context(), recs)
			if err != nil {
				return err
			}
			zap.L().Info("results imported", zap.Int("read", len(recs)), zap.Int64("added", n))
		}
		return nil
	},
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "parse %s", path)
	}
	return nil
}

func init() {
	storeImportCmd.Flags().StringVar(&importHistoryFile, "history", "", "history JSON file (array of URLs)")
	storeImportCmd.Flags().StringVar(&importResultsFile, "results", "", "results JSON file (array of leads)")
	storeCmd.AddCommand(storeMigrateCmd, storeImportCmd)
	rootCmd.AddCommand(storeCmd)
}
