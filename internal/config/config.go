package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pairScope/internal/model"
)

// Counter sources.
const (
	SourceMercury = "mercury"
	SourceRPC     = "rpc"
)

// Common holds the settings shared by every subcommand.
type Common struct {
	Network           model.Network
	MercuryGraphQL    string
	MercuryBackend    string
	MercuryToken      string
	MercuryEmail      string
	MercuryPassword   string
	SorobanRPC        string
	FactoryAddress    string
	FactoryURL        string
	CounterSource     string
	SoroswapFactories []string
	PhoenixFactories  []string
	TokensFile        string
	PGDSN             string
	QueryBatchSize    int
	RequestTimeout    time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// newViper merges config file, environment variables (INDEXER_*), and flags.
func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", "testnet")
	v.SetDefault("counter-source", SourceMercury)
	v.SetDefault("query-batch-size", 50)
	v.SetDefault("request-timeout", 15*time.Second)
	v.SetDefault("max-retries", 1)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func loadCommon(v *viper.Viper) (Common, error) {
	network, err := model.ParseNetwork(v.GetString("network"))
	if err != nil {
		return Common{}, err
	}
	defaults := DefaultsFor(network)

	cfg := Common{
		Network:           network,
		MercuryGraphQL:    stringOr(v, "mercury-graphql", defaults.MercuryGraphQL),
		MercuryBackend:    stringOr(v, "mercury-backend", defaults.MercuryBackend),
		MercuryToken:      v.GetString("mercury-token"),
		MercuryEmail:      v.GetString("mercury-email"),
		MercuryPassword:   v.GetString("mercury-password"),
		SorobanRPC:        stringOr(v, "soroban-rpc", defaults.SorobanRPC),
		FactoryAddress:    v.GetString("factory-address"),
		FactoryURL:        v.GetString("factory-url"),
		CounterSource:     strings.ToLower(strings.TrimSpace(v.GetString("counter-source"))),
		SoroswapFactories: getStringSlice(v, "soroswap-factories"),
		PhoenixFactories:  getStringSlice(v, "phoenix-factories"),
		TokensFile:        v.GetString("tokens-file"),
		PGDSN:             v.GetString("pg-dsn"),
		QueryBatchSize:    v.GetInt("query-batch-size"),
		RequestTimeout:    v.GetDuration("request-timeout"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}

	switch cfg.CounterSource {
	case SourceMercury, SourceRPC:
	default:
		return Common{}, fmt.Errorf("invalid counter source: %q", cfg.CounterSource)
	}
	if cfg.QueryBatchSize <= 0 {
		return Common{}, fmt.Errorf("query batch size must be greater than zero")
	}
	return cfg, nil
}

func stringOr(v *viper.Viper, key, fallback string) string {
	if value := strings.TrimSpace(v.GetString(key)); value != "" {
		return value
	}
	return fallback
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
