package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ScenarioConfig drives the demo scenario both simulators run: a seeding
// deposit, a second provider, one swap, then full withdrawal.
type ScenarioConfig struct {
	DenomA   string
	DenomB   string
	DepositA int64
	DepositB int64
	SecondA  int64
	SecondB  int64
	SwapIn   int64
	MinOut   int64
	LogLevel string
}

// Load merges config file, environment variables, and flags into
// ScenarioConfig.
func Load(cfgFile string, flags *pflag.FlagSet) (ScenarioConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("DEXSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("denom-a", "uatom")
	v.SetDefault("denom-b", "uosmo")
	v.SetDefault("deposit-a", int64(100_000))
	v.SetDefault("deposit-b", int64(200_000))
	v.SetDefault("second-a", int64(50_000))
	v.SetDefault("second-b", int64(100_000))
	v.SetDefault("swap-in", int64(10_000))
	v.SetDefault("min-out", int64(0))
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return ScenarioConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return ScenarioConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return ScenarioConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := ScenarioConfig{
		DenomA:   v.GetString("denom-a"),
		DenomB:   v.GetString("denom-b"),
		DepositA: v.GetInt64("deposit-a"),
		DepositB: v.GetInt64("deposit-b"),
		SecondA:  v.GetInt64("second-a"),
		SecondB:  v.GetInt64("second-b"),
		SwapIn:   v.GetInt64("swap-in"),
		MinOut:   v.GetInt64("min-out"),
		LogLevel: v.GetString("log-level"),
	}

	if cfg.DepositA <= 0 || cfg.DepositB <= 0 {
		return ScenarioConfig{}, fmt.Errorf("initial deposits must be positive")
	}
	if cfg.SecondA < 0 || cfg.SecondB < 0 || cfg.SwapIn < 0 || cfg.MinOut < 0 {
		return ScenarioConfig{}, fmt.Errorf("amounts must not be negative")
	}
	return cfg, nil
}
