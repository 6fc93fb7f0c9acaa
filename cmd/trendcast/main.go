// trendcast - stock trend projection service
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trendcast",
		Short: "Stock trend projection service",
		Long: `trendcast fetches five years of daily prices for a ticker, fits a
straight trend line against time and projects it forward.`,
		PersistentPreRunE: loadEnv,
		RunE:              runServe,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (defaults to TRENDCAST_CONFIG, then trendcast.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the config, ignored when absent")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(suggestCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadEnv reads the dotenv file into the process environment.
// Variables already set take precedence.
func loadEnv(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	return nil
}
