package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairScope/internal/model"
	"pairScope/internal/storage"
)

// Store provides Postgres persistence for subscriptions and pair counters.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	contract_id   TEXT NOT NULL,
	key_xdr       TEXT NOT NULL,
	network       TEXT NOT NULL,
	protocol      TEXT NOT NULL DEFAULT '',
	contract_type TEXT NOT NULL DEFAULT '',
	storage_type  TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (contract_id, key_xdr, network)
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_network ON subscriptions(network);

CREATE TABLE IF NOT EXISTS pair_counters (
	network    TEXT PRIMARY KEY,
	count      BIGINT NOT NULL CHECK (count >= 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// InitSchema creates the tables if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SubscriptionExists looks up a subscription by its natural key.
func (s *Store) SubscriptionExists(ctx context.Context, contractID, keyXdr string, network model.Network) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions WHERE contract_id=$1 AND key_xdr=$2 AND network=$3
		)
	`, contractID, keyXdr, string(network)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup subscription: %w", err)
	}
	return exists, nil
}

// CreateSubscription inserts a subscription; an existing row is a no-op.
func (s *Store) CreateSubscription(ctx context.Context, sub model.Subscription) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (contract_id, key_xdr, network, protocol, contract_type, storage_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (contract_id, key_xdr, network) DO NOTHING
	`,
		sub.ContractID,
		sub.KeyXdr,
		string(sub.Network),
		string(sub.Protocol),
		string(sub.ContractType),
		string(sub.StorageType),
	)
	if err != nil {
		return false, fmt.Errorf("create subscription: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpsertSubscriptions inserts the subscriptions that do not exist yet. Existing rows
// are left untouched.
func (s *Store) UpsertSubscriptions(ctx context.Context, subs []model.Subscription) error {
	if len(subs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sub := range subs {
		batch.Queue(`
			INSERT INTO subscriptions (contract_id, key_xdr, network, protocol, contract_type, storage_type, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (contract_id, key_xdr, network) DO NOTHING
		`,
			sub.ContractID,
			sub.KeyXdr,
			string(sub.Network),
			string(sub.Protocol),
			string(sub.ContractType),
			string(sub.StorageType),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, sub := range subs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert subscription %s: %w", sub.ContractID, err)
		}
	}
	return nil
}

// ListSubscriptions returns all subscriptions of a network ordered by contract and key.
func (s *Store) ListSubscriptions(ctx context.Context, network model.Network) ([]model.Subscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT contract_id, key_xdr, network, protocol, contract_type, storage_type, created_at
		FROM subscriptions
		WHERE network=$1
		ORDER BY contract_id, key_xdr
	`, string(network))
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []model.Subscription
	for rows.Next() {
		var (
			sub                                      model.Subscription
			net, protocol, contractType, storageType string
		)
		if err := rows.Scan(&sub.ContractID, &sub.KeyXdr, &net, &protocol, &contractType, &storageType, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sub.Network = model.Network(net)
		sub.Protocol = model.Protocol(protocol)
		sub.ContractType = model.ContractType(contractType)
		sub.StorageType = model.StorageType(storageType)
		out = append(out, sub)
	}
	return out, rows.Err()
}

// LoadCounter returns the persisted pair counter of a network.
func (s *Store) LoadCounter(ctx context.Context, network model.Network) (model.Counter, bool, error) {
	var (
		count     int64
		updatedAt time.Time
	)
	row := s.pool.QueryRow(ctx, `SELECT count, updated_at FROM pair_counters WHERE network=$1`, string(network))
	if err := row.Scan(&count, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Counter{}, false, nil
		}
		return model.Counter{}, false, err
	}
	return model.Counter{Network: network, Count: uint32(count), UpdatedAt: updatedAt}, true, nil
}

// SaveCounter upserts the pair counter of a network; it never moves backwards.
func (s *Store) SaveCounter(ctx context.Context, network model.Network, count uint32) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pair_counters (network, count, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (network) DO UPDATE
		SET count = GREATEST(pair_counters.count, EXCLUDED.count), updated_at = now()
	`, string(network), int64(count))
	return err
}

// TryLock takes a session-level advisory lock on a dedicated connection. The lock is
// released, and the connection returned to the pool, by the returned func.
func (s *Store) TryLock(ctx context.Context, key string) (func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("try advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, storage.ErrLockHeld
	}

	return func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, key)
		conn.Release()
	}, nil
}

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Locker = (*Store)(nil)
)
