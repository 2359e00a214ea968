package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"pairScope/internal/model"
)

func TestLoadSyncDefaults(t *testing.T) {
	cfg, err := LoadSync("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Network != model.NetworkTestnet || cfg.CounterSource != SourceMercury {
		t.Fatalf("unexpected defaults: %+v", cfg.Common)
	}
	if cfg.MercuryGraphQL != DefaultsFor(model.NetworkTestnet).MercuryGraphQL {
		t.Fatalf("network endpoint default not applied: %s", cfg.MercuryGraphQL)
	}
	if cfg.Out != "./data/pools.jsonl" || cfg.QueryBatchSize != 50 || cfg.MaxRetries != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.RequestTimeout)
	}
}

func TestLoadSyncEnvAndFlags(t *testing.T) {
	t.Setenv("INDEXER_NETWORK", "mainnet")
	t.Setenv("INDEXER_PG_DSN", "postgres://localhost/pairs")
	t.Setenv("INDEXER_SOROSWAP_FACTORIES", "CA, CB ,")

	flags := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	flags.Duration("interval", 0, "")
	flags.String("mercury-graphql", "", "")
	if err := flags.Parse([]string{"--interval=30s", "--mercury-graphql=http://localhost:5000/graphql"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadSync("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Network != model.NetworkMainnet || cfg.PGDSN != "postgres://localhost/pairs" {
		t.Fatalf("env not applied: %+v", cfg.Common)
	}
	if cfg.Interval != 30*time.Second || cfg.MercuryGraphQL != "http://localhost:5000/graphql" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.MercuryBackend != DefaultsFor(model.NetworkMainnet).MercuryBackend {
		t.Fatalf("mainnet backend default not applied: %s", cfg.MercuryBackend)
	}
	if !reflect.DeepEqual(cfg.SoroswapFactories, []string{"CA", "CB"}) {
		t.Fatalf("factory list mismatch: %v", cfg.SoroswapFactories)
	}
}

func TestLoadSubscribeConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indexer.yaml")
	content := []byte("network: testnet\ncontract:\n  - CA\n  - CB\nkey-xdr: AAAAFA==\nhydrate: false\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadSubscribe(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Contracts, []string{"CA", "CB"}) || cfg.KeyXdr != "AAAAFA==" {
		t.Fatalf("config file not applied: %+v", cfg)
	}
	if cfg.Hydrate || cfg.Durability != model.DurabilityPersistent {
		t.Fatalf("unexpected subscribe options: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("INDEXER_NETWORK", "futurenet")
	if _, err := LoadStatus("", nil); err == nil {
		t.Fatalf("expected error for unknown network")
	}

	t.Setenv("INDEXER_NETWORK", "testnet")
	t.Setenv("INDEXER_COUNTER_SOURCE", "horizon")
	if _, err := LoadPopulate("", nil); err == nil {
		t.Fatalf("expected error for unknown counter source")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := LoadStatus(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}
