// Package cmd implements the dextick command line
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sljivkov/dextick/config"
)

var (
	flagEnvFile   *string
	flagLogLevel  *string
	flagLogFormat *string

	flagRPCURL    *string
	flagPool      *string
	flagTimeAgo   *string
	flagInterval  *string
	flagPrecision *int32
)

var rootCmd = &cobra.Command{
	Use:          "dextick",
	Short:        "Observe the price of a concentrated-liquidity pool",
	Long:         `dextick follows a Uniswap V3 style pool block by block and reports its current price and a windowed series of average prices.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flagEnvFile = rootCmd.PersistentFlags().StringP("env-file", "e", "", "Load variables from a .env file before reading the environment")
	flagLogLevel = rootCmd.PersistentFlags().StringP("log-level", "", "", "Log level (overrides LOG_LEVEL)")
	flagLogFormat = rootCmd.PersistentFlags().StringP("log-format", "", "", "Log format, text or json (overrides LOG_FORMAT)")

	flagRPCURL = rootCmd.PersistentFlags().StringP("rpc-url", "r", "", "Websocket RPC endpoint (overrides RPC_URL)")
	flagPool = rootCmd.PersistentFlags().StringP("pool", "p", "", "Pool contract address (overrides POOL)")
	flagTimeAgo = rootCmd.PersistentFlags().StringP("time-ago", "", "", "Start of the observation window, e.g. 1h (overrides TIME_AGO)")
	flagInterval = rootCmd.PersistentFlags().StringP("interval", "i", "", "Width of one window bucket, e.g. 5m (overrides TICK_INTERVAL)")
	flagPrecision = rootCmd.PersistentFlags().Int32P("precision", "", 0, "Decimal places of displayed prices (overrides PRECISION)")
}

// loadConfig reads the environment and applies the flags that were set on cmd
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var opts []config.Option

	if *flagEnvFile != "" {
		opts = append(opts, config.WithEnvFile(*flagEnvFile))
	}

	flags := cmd.Flags()

	if flags.Changed("rpc-url") {
		opts = append(opts, config.WithRPCURL(*flagRPCURL))
	}

	if flags.Changed("pool") {
		opts = append(opts, config.WithPool(*flagPool))
	}

	if flags.Changed("time-ago") || flags.Changed("interval") {
		opts = append(opts, windowOption(*flagTimeAgo, *flagInterval))
	}

	if flags.Changed("precision") {
		opts = append(opts, config.WithPrecision(*flagPrecision))
	}

	opts = append(opts, config.WithLogging(*flagLogLevel, *flagLogFormat))

	return config.NewConfig(opts...)
}
