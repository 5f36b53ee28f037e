package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the processed-domain history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every domain in history",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		domains, err := st.Domains(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, d := range domains {
			fmt.Fprintln(out, d)
		}
		return nil
	},
}

var historyCheckCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Report whether a URL's domain has already been processed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		seen, err := st.Exists(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		key := store.DomainKey(args[0])
		if key == "" {
			key = args[0]
		}
		if seen {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: seen\n", key)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: new\n", key)
		}
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyCheckCmd)
	rootCmd.AddCommand(historyCmd)
}
