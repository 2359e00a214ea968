package config

import (
	"time"

	"github.com/spf13/pflag"
)

// SyncConfig holds configuration for the sync command.
type SyncConfig struct {
	Common
	Out         string
	Interval    time.Duration
	MetricsAddr string
}

// LoadSync merges config file, environment variables, and flags into SyncConfig.
func LoadSync(cfgFile string, flags *pflag.FlagSet) (SyncConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return SyncConfig{}, err
	}
	v.SetDefault("out", "./data/pools.jsonl")

	common, err := loadCommon(v)
	if err != nil {
		return SyncConfig{}, err
	}

	return SyncConfig{
		Common:      common,
		Out:         v.GetString("out"),
		Interval:    v.GetDuration("interval"),
		MetricsAddr: v.GetString("metrics-addr"),
	}, nil
}
