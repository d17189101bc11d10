package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/race-forecast/internal/datasource"
	"github.com/yourusername/race-forecast/internal/extract"
	"github.com/yourusername/race-forecast/internal/models"
)

var (
	pageKind    string
	parseRaceID string
)

func init() {
	parseCmd.Flags().StringVar(&pageKind, "kind", datasource.KindEntry, "Page kind: entry or history")
	parseCmd.Flags().StringVar(&parseRaceID, "race-id", defaultRaceID, "Race ID of an entry page")
}

type parsedEntry struct {
	Race     models.RaceInfo  `json:"race"`
	Entrants []models.Entrant `json:"entrants"`
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Extract a saved page and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read page: %w", err)
		}
		page, err := datasource.DecodePage(raw, "")
		if err != nil {
			return fmt.Errorf("failed to decode page: %w", err)
		}

		entry := logrus.NewEntry(log)
		var out any
		switch pageKind {
		case datasource.KindEntry:
			race, entrants := extract.NewEntryExtractor(extract.WithEntryLogger(entry)).Extract(parseRaceID, bytes.NewReader(page))
			out = parsedEntry{Race: race, Entrants: entrants}
		case datasource.KindHistory:
			out = extract.NewHistoryExtractor(extract.WithHistoryLogger(entry)).Extract(bytes.NewReader(page))
		default:
			return fmt.Errorf("unknown page kind %q", pageKind)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}
