package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/campaign"
	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	runNiche string
	runCount int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one campaign for a niche",
	Long:  "Finds up to --count qualified leads for --niche. Progress goes to stderr; the leads recorded by this run are printed to stdout as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runNiche == "" {
			return eris.New("--niche is required")
		}
		count := runCount
		if limit := cfg.Campaign.MaxTarget; limit > 0 && count > limit {
			count = limit
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initCampaign(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		session := campaign.NewSession(0)
		progress := cmd.ErrOrStderr()
		sink := func(ev model.Event) {
			session.Apply(ev)
			printEvent(progress, ev)
		}

		leads, runErr := env.Runner.Run(ctx, runNiche, count, sink)

		snap := session.Snapshot()
		fmt.Fprintf(progress, "scanned=%d qualified=%d socials=%d status=%s\n",
			snap.Scanned, snap.Qualified, snap.Socials, snap.Status)

		if leads == nil {
			leads = []model.LeadRecord{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(leads); err != nil {
			return eris.Wrap(err, "write leads")
		}
		return runErr
	},
}

// printEvent renders one progress event as a terminal line.
func printEvent(w io.Writer, ev model.Event) {
	switch ev.Type {
	case model.EventLog:
		fmt.Fprintf(w, "> %s\n", ev.Message)
	case model.EventError:
		fmt.Fprintf(w, "! %s\n", ev.Message)
	case model.EventNodeError:
		fmt.Fprintf(w, "  [%s] failed\n", nodeName(ev.Node))
	case model.EventResult:
		if ev.Data != nil {
			fmt.Fprintf(w, "+ %s (%s): %s\n", ev.Data.Company, ev.Data.Person, ev.Data.EmailSubject)
		}
	}
}

func nodeName(n model.Node) string {
	switch n {
	case model.NodeDiscovery:
		return "discovery"
	case model.NodeScrape:
		return "scrape"
	case model.NodeQualify:
		return "qualify"
	case model.NodeIdentify:
		return "identify"
	case model.NodeDraft:
		return "draft"
	}
	return string(n)
}

func init() {
	runCmd.Flags().StringVar(&runNiche, "niche", "", "target niche, e.g. \"Solar installers in Miami\"")
	runCmd.Flags().IntVar(&runCount, "count", 1, "number of qualified leads to find")
	rootCmd.AddCommand(runCmd)
}
