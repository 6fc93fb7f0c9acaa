package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/trendcast/internal/app"
	"github.com/bobmcallan/trendcast/internal/common"
	"github.com/bobmcallan/trendcast/internal/models"
	"github.com/bobmcallan/trendcast/internal/services/prediction"
	"github.com/bobmcallan/trendcast/internal/services/suggest"
)

func predictCmd() *cobra.Command {
	var days int
	var timeout time.Duration
	var chartOut string

	cmd := &cobra.Command{
		Use:   "predict <ticker>",
		Short: "Print the JSON prediction for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.NewApp(configPath)
			if err != nil {
				return err
			}

			horizon := a.Horizon.ClampString(strconv.Itoa(days))
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			result, err := a.PredictionService.Predict(ctx, models.PredictionRequest{Ticker: args[0], Horizon: horizon})
			if err != nil {
				var perr *prediction.Error
				if errors.As(err, &perr) {
					return fmt.Errorf("%s", perr.Message)
				}
				return err
			}

			if chartOut != "" {
				png, err := a.ChartRenderer.RenderPrediction(result)
				if err != nil {
					return err
				}
				if err := os.WriteFile(chartOut, png, 0o644); err != nil {
					return fmt.Errorf("failed to write chart: %w", err)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 30, "Days to project (7-180)")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall timeout")
	cmd.Flags().StringVar(&chartOut, "chart", "", "Also write a PNG chart to this path")
	return cmd
}

func suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <query>",
		Short: "List companies matching a name or ticker fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range suggest.Default().Suggest(args[0], suggest.DefaultLimit) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", s.Ticker, s.Name)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trendcast %s\n", common.GetFullVersion())
		},
	}
}
