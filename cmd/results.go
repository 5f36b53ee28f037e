package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/export"
)

var (
	resultsCSV    bool
	resultsMasked bool
	resultsOut    string
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect and export recorded leads",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every recorded lead as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		recs, err := st.Load(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	},
}

var resultsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded leads as JSON or CSV",
	Long:  "Writes every recorded lead to --out (stdout by default). --masked replaces company names and websites with anonymous target IDs for sharing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		recs, err := st.Load(cmd.Context())
		if err != nil {
			return err
		}
		if resultsMasked {
			recs = export.MaskAll(recs)
		}

		var w io.Writer = cmd.OutOrStdout()
		if resultsOut != "" {
			f, err := os.Create(resultsOut)
			if err != nil {
				return eris.Wrapf(err, "create %s", resultsOut)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		if resultsCSV {
			return export.WriteCSV(w, recs)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(recs), "write json")
	},
}

func init() {
	resultsExportCmd.Flags().BoolVar(&resultsCSV, "csv", false, "write CSV instead of JSON")
	resultsExportCmd.Flags().BoolVar(&resultsMasked, "masked", false, "anonymize company names and websites")
	resultsExportCmd.Flags().StringVar(&resultsOut, "out", "", "output file (default stdout)")
	resultsCmd.AddCommand(resultsListCmd, resultsExportCmd)
	rootCmd.AddCommand(resultsCmd)
}
