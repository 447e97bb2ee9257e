package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// agenciesCmd represents the agencies command
var agenciesCmd = &cobra.Command{
	Use:   "agencies",
	Short: "List registered agencies",
	Long: `Agencies lists every crawl target in the registry: the embedded
Columbia River Gorge set by default, or the file named by --registry.`,
	RunE: runAgencies,
}

func init() {
	rootCmd.AddCommand(agenciesCmd)
}

func runAgencies(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	agencies := client.Registry().List()
	if len(agencies) == 0 {
		fmt.Println("No agencies registered")
		return nil
	}

	fmt.Printf("Found %d agencies:\n\n", len(agencies))
	for _, a := range agencies {
		fmt.Printf("• %s - %s\n", a.ID, a.Name)
		if a.County != "" {
			fmt.Printf("  %s County, %s\n", a.County, a.State)
		}
		for _, u := range a.StartURLs {
			fmt.Printf("  %s\n", u)
		}
		fmt.Println()
	}
	return nil
}
