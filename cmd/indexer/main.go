package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Soroban AMM pair indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Subscribe new pairs and write assembled liquidity pools",
		RunE:  runSync,
	}

	addCommonFlags(syncCmd.Flags())
	syncCmd.Flags().String("out", "./data/pools.jsonl", "output JSONL path")
	syncCmd.Flags().Duration("interval", 0, "repeat the sync on this interval, 0 runs once")
	syncCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	root.AddCommand(syncCmd)

	populateCmd := &cobra.Command{
		Use:   "populate",
		Short: "Rebuild the subscription table from Mercury's subscription list",
		RunE:  runPopulate,
	}

	addCommonFlags(populateCmd.Flags())
	populateCmd.Flags().Bool("dry-run", false, "classify without persisting")

	root.AddCommand(populateCmd)

	subscribeCmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Subscribe arbitrary contracts to a ledger key",
		RunE:  runSubscribe,
	}

	addCommonFlags(subscribeCmd.Flags())
	subscribeCmd.Flags().StringSlice("contract", nil, "contract ids (comma-separated)")
	subscribeCmd.Flags().String("key-xdr", "", "base64 ScVal ledger key, defaults to the instance key")
	subscribeCmd.Flags().String("durability", "persistent", "entry durability")
	subscribeCmd.Flags().Bool("hydrate", true, "ask Mercury to hydrate existing entries")

	root.AddCommand(subscribeCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest ledger and pair counters",
		RunE:  runStatus,
	}

	addCommonFlags(statusCmd.Flags())

	root.AddCommand(statusCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(fs *pflag.FlagSet) {
	fs.String("network", "testnet", "stellar network (mainnet, testnet)")
	fs.String("mercury-graphql", "", "Mercury GraphQL endpoint, defaults per network")
	fs.String("mercury-backend", "", "Mercury backend endpoint, defaults per network")
	fs.String("mercury-token", "", "Mercury JWT")
	fs.String("mercury-email", "", "Mercury login email, used when the token is missing or expired")
	fs.String("mercury-password", "", "Mercury login password")
	fs.String("soroban-rpc", "", "Soroban RPC URL, defaults per network")
	fs.String("factory-address", "", "pair factory contract id, skips remote lookup")
	fs.String("factory-url", "", "contracts JSON URL template (%s is the network)")
	fs.String("counter-source", "mercury", "ledger read source (mercury, rpc)")
	fs.StringSlice("soroswap-factories", nil, "extra Soroswap factory ids (comma-separated)")
	fs.StringSlice("phoenix-factories", nil, "extra Phoenix factory ids (comma-separated)")
	fs.String("tokens-file", "", "YAML token list")
	fs.String("pg-dsn", "", "Postgres DSN, in-memory store when empty")
	fs.Int("query-batch-size", 50, "aliases per batched GraphQL query")
	fs.Duration("request-timeout", 15*time.Second, "per-request timeout")
	fs.Int("max-retries", 1, "maximum retry attempts for ledger reads")
	fs.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
