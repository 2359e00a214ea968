package config

import (
	"github.com/spf13/pflag"

	"pairScope/internal/model"
)

// SubscribeConfig holds configuration for the subscribe command.
type SubscribeConfig struct {
	Common
	Contracts  []string
	KeyXdr     string
	Durability string
	Hydrate    bool
}

// LoadSubscribe merges config file, environment variables, and flags into SubscribeConfig.
func LoadSubscribe(cfgFile string, flags *pflag.FlagSet) (SubscribeConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return SubscribeConfig{}, err
	}
	v.SetDefault("durability", model.DurabilityPersistent)
	v.SetDefault("hydrate", true)

	common, err := loadCommon(v)
	if err != nil {
		return SubscribeConfig{}, err
	}

	return SubscribeConfig{
		Common:     common,
		Contracts:  getStringSlice(v, "contract"),
		KeyXdr:     v.GetString("key-xdr"),
		Durability: v.GetString("durability"),
		Hydrate:    v.GetBool("hydrate"),
	}, nil
}
