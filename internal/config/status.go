package config

import "github.com/spf13/pflag"

// LoadStatus merges config file, environment variables, and flags for the status command.
func LoadStatus(cfgFile string, flags *pflag.FlagSet) (Common, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Common{}, err
	}
	return loadCommon(v)
}
