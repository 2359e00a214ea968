package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pairScope/internal/model"
)

// poolLine is one JSONL row: a pool snapshot stamped with the time it was written.
type poolLine struct {
	model.LiquidityPool
	Network    model.Network `json:"network"`
	ObservedAt string        `json:"observed_at"`
}

// JsonlStorage appends pool snapshots to a JSONL file.
type JsonlStorage struct {
	path    string
	network model.Network
	mu      sync.Mutex
}

func NewJsonlStorage(path string, network model.Network) *JsonlStorage {
	return &JsonlStorage{path: path, network: network}
}

// PutPoolBatch appends a batch of pools as JSON lines.
func (s *JsonlStorage) PutPoolBatch(pools []model.LiquidityPool) error {
	if len(pools) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	observedAt := time.Now().UTC().Format(time.RFC3339Nano)
	writer := bufio.NewWriter(file)
	for _, pool := range pools {
		line, err := json.Marshal(poolLine{LiquidityPool: pool, Network: s.network, ObservedAt: observedAt})
		if err != nil {
			return fmt.Errorf("marshal pool %s: %w", pool.Address, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write pool: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
