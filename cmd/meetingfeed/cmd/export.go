package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var (
	exportSince  string
	exportFormat string
	exportOutput string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the meeting feed",
	Long: `Export writes the current state of every meeting record as YAML or
JSON. With --since only records updated at or after the given point are
included; the value is either a duration back from now ("72h") or an
RFC 3339 timestamp.

Records come from the store snapshot named by --snapshot, so a crawl
pass with the same snapshot path must have run first.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportSince, "since", "", "only records updated since this duration or timestamp")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "output format: yaml or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	since, err := parseSince(exportSince)
	if err != nil {
		return err
	}

	items, err := client.Feed(since)
	if err != nil {
		return fmt.Errorf("reading feed: %w", err)
	}

	var data []byte
	switch exportFormat {
	case "yaml", "yml":
		data, err = yaml.Marshal(items)
	case "json":
		data, err = json.MarshalIndent(items, "", "  ")
	default:
		return fmt.Errorf("unknown format %q: expected yaml or json", exportFormat)
	}
	if err != nil {
		return fmt.Errorf("encoding feed: %w", err)
	}

	if exportOutput == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", exportOutput, err)
	}
	fmt.Printf("Wrote %d records to %s\n", len(items), exportOutput)
	return nil
}
