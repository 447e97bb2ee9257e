package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencivic/meetingfeed"
	"github.com/opencivic/meetingfeed/pkg/pipeline"
)

var (
	crawlConcurrency int
	crawlTimeout     time.Duration
	crawlTolerance   time.Duration
	crawlAgencies    []string
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run a crawl pass over all registered agencies",
	Long: `Crawl fetches every registered agency site, normalizes the observed
meetings, and reconciles them into the record store. Per-agency failures
are reported but do not stop the pass; the command fails only on fatal
faults such as a store write error.

With --snapshot the record store is loaded before the pass and saved
after it, so successive runs accumulate history.`,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().IntVar(&crawlConcurrency, "concurrency", pipeline.DefaultConcurrency, "maximum agencies crawled at once")
	crawlCmd.Flags().DurationVar(&crawlTimeout, "timeout", 0, "wall-clock limit for the whole pass (0 = none)")
	crawlCmd.Flags().DurationVar(&crawlTolerance, "tolerance", 0, "start drift that marks a meeting rescheduled (0 = default)")
	crawlCmd.Flags().StringSliceVar(&crawlAgencies, "agency", nil, "restrict the pass to these agency IDs")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	// Config file and env supply defaults; explicit flags win.
	if !cmd.Flags().Changed("concurrency") && cfg.Concurrency > 0 {
		crawlConcurrency = cfg.Concurrency
	}
	if !cmd.Flags().Changed("timeout") && cfg.Timeout > 0 {
		crawlTimeout = cfg.Timeout
	}
	if !cmd.Flags().Changed("tolerance") && cfg.Tolerance > 0 {
		crawlTolerance = cfg.Tolerance
	}

	opts := []meetingfeed.Option{
		meetingfeed.WithConcurrency(crawlConcurrency),
	}
	if crawlTimeout > 0 {
		opts = append(opts, meetingfeed.WithTimeout(crawlTimeout))
	}
	if crawlTolerance > 0 {
		opts = append(opts, meetingfeed.WithRescheduleTolerance(crawlTolerance))
	}

	if len(crawlAgencies) > 0 {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		subset, err := reg.Subset(crawlAgencies)
		if err != nil {
			return err
		}
		opts = append(opts, meetingfeed.WithRegistry(subset))
	}

	client, err := newClient(opts...)
	if err != nil {
		return err
	}

	report, err := client.Crawl(cmd.Context())
	if err != nil {
		return fmt.Errorf("crawl pass: %w", err)
	}

	printRunReport(report)

	if err := saveSnapshot(client); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	if failed := report.Failed(); len(failed) > 0 {
		fmt.Printf("\n%d of %d agencies failed\n", len(failed), len(report.Agencies))
	}
	return nil
}

func printRunReport(report *pipeline.RunReport) {
	for _, ar := range report.Agencies {
		if !ar.Succeeded() {
			fmt.Printf("✗ %-32s %s: %s\n", ar.AgencyID, ar.Failure, ar.FailureCause)
			continue
		}
		fmt.Printf("✓ %-32s %s\n", ar.AgencyID, ar.Summary())
	}

	observed, added, updated, unchanged, rejected := report.Totals()
	fmt.Printf("\n%d observed, %d new, %d updated, %d unchanged, %d rejected in %s\n",
		observed, added, updated, unchanged, rejected, report.Duration.Round(time.Millisecond))
}
