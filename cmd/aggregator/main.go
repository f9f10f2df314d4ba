package main

import (
	"os"

	_ "github.com/dhima/filplus-aggregator/docs" // Import generated docs
	"github.com/spf13/cobra"
)

// @title Filecoin Plus Aggregator API
// @version 1.0
// @description Runs the ETL cycle that fills the derived Filecoin Plus tables and exposes its state.
// @description
// @description Runners declare the tables they fill and depend on; every cycle rediscovers a valid order,
// @description retries failing runners with a fixed delay and never runs two cycles at once.

// @contact.name API Support
// @contact.url https://github.com/dhima/filplus-aggregator

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

var rootCmd = &cobra.Command{
	Use:   "aggregator",
	Short: "Filecoin Plus derived-table aggregator",
	Long: `aggregator fills the derived Filecoin Plus tables from the raw chain data.

It runs every registered runner once per cycle in dependency order, on a cron
schedule (serve), once (run-once), or only prints the planned order (plan).
`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("manifest", "", "runner manifest (JSON); overrides RUNNER_MANIFEST_PATH")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(runOnceCmd())
	rootCmd.AddCommand(planCmd())
}
