package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:           "dexsim",
		Short:         "Run constant-product pool demo scenarios on in-process chain simulators",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	root.AddCommand(newCwCmd(), newSolCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCwCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cw",
		Short: "Run the scenario against the contract-based pool stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runCw(cfg, log)
		},
	}
	addScenarioFlags(cmd)
	return cmd
}

func newSolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sol",
		Short: "Run the scenario against the program-based pool stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runSol(cfg, log)
		},
	}
	addScenarioFlags(cmd)
	return cmd
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().String("denom-a", "uatom", "first pool denom")
	cmd.Flags().String("denom-b", "uosmo", "second pool denom")
	cmd.Flags().Int64("deposit-a", 100_000, "seed deposit of token A")
	cmd.Flags().Int64("deposit-b", 200_000, "seed deposit of token B")
	cmd.Flags().Int64("second-a", 50_000, "second provider deposit of token A")
	cmd.Flags().Int64("second-b", 100_000, "second provider deposit of token B")
	cmd.Flags().Int64("swap-in", 10_000, "swap input amount of token A")
	cmd.Flags().Int64("min-out", 0, "minimum acceptable swap output")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
