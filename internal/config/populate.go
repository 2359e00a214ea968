package config

import "github.com/spf13/pflag"

// PopulateConfig holds configuration for the populate command.
type PopulateConfig struct {
	Common
	DryRun bool
}

// LoadPopulate merges config file, environment variables, and flags into PopulateConfig.
func LoadPopulate(cfgFile string, flags *pflag.FlagSet) (PopulateConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return PopulateConfig{}, err
	}

	common, err := loadCommon(v)
	if err != nil {
		return PopulateConfig{}, err
	}

	return PopulateConfig{
		Common: common,
		DryRun: v.GetBool("dry-run"),
	}, nil
}
