package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/race-forecast/internal/datasource"
	"github.com/yourusername/race-forecast/internal/models"
)

// defaultRaceID is forecast when no race is named.
const defaultRaceID = "202508040701"

var (
	entryFile    string
	outputFormat string
	topN         int
)

func init() {
	predictCmd.Flags().StringVar(&entryFile, "entry-file", "", "Saved entry page used when the entry page cannot be fetched")
	predictCmd.Flags().StringVarP(&outputFormat, "output", "o", formatText, "Output format: text or json")
	predictCmd.Flags().IntVar(&topN, "top", 0, "Show only the top N entrants (0 shows all)")
}

var predictCmd = &cobra.Command{
	Use:   "predict [race-id]",
	Short: "Forecast one race",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(outputFormat); err != nil {
			return err
		}

		raceID := defaultRaceID
		if len(args) == 1 {
			raceID = args[0]
		}

		run, err := predict(cmd.Context(), raceID)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), run, outputFormat, topN)
	},
}

func predict(ctx context.Context, raceID string) (*models.ForecastRun, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	svc, cleanup, err := buildService(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	run, err := svc.ForecastRace(ctx, raceID)
	if err == nil || entryFile == "" {
		return run, err
	}

	log.WithError(err).WithField("entry_file", entryFile).Warn("Entry page unavailable, using saved page")
	raw, readErr := os.ReadFile(entryFile)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read entry file: %w", readErr)
	}
	page, decodeErr := datasource.DecodePage(raw, "")
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode entry file: %w", decodeErr)
	}
	return svc.ForecastDocuments(ctx, raceID, page)
}
