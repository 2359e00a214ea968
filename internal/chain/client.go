package chain

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/stellar/go-stellar-sdk/clients/rpcclient"
	stellarrpc "github.com/stellar/go-stellar-sdk/protocols/rpc"
	"github.com/stellar/go-stellar-sdk/xdr"

	"pairScope/internal/dex"
	"pairScope/internal/model"
)

// Client wraps a JSON-RPC connection to a Soroban RPC node.
type Client struct {
	rpcClient *rpcclient.Client
	timeout   time.Duration

	mu      sync.RWMutex
	keyXdrs map[string]string
}

// NewClient builds a client for the Soroban RPC endpoint. Requests are sent lazily.
func NewClient(_ context.Context, rpcURL string, timeout time.Duration) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("soroban rpc url is required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		rpcClient: rpcclient.NewClient(rpcURL, &http.Client{Timeout: timeout}),
		timeout:   timeout,
		keyXdrs:   make(map[string]string),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		_ = c.rpcClient.Close()
	}
}

// GetLatestLedger returns the most recent ledger known to the node.
func (c *Client) GetLatestLedger(ctx context.Context) (stellarrpc.GetLatestLedgerResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.rpcClient.GetLatestLedger(ctx)
	if err != nil {
		return stellarrpc.GetLatestLedgerResponse{}, fmt.Errorf("get latest ledger: %w", err)
	}
	return out, nil
}

// GetLedgerEntries fetches raw ledger entries by base64 LedgerKey. Entries that do not
// exist are absent from the result.
func (c *Client) GetLedgerEntries(ctx context.Context, keys []string) ([]stellarrpc.LedgerEntryResult, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.rpcClient.GetLedgerEntries(ctx, stellarrpc.GetLedgerEntriesRequest{Keys: keys})
	if err != nil {
		return nil, fmt.Errorf("get ledger entries: %w", err)
	}
	return out.Entries, nil
}

type entryRef struct {
	contractID string
	keyXdr     string
}

// LatestEntry returns the current value stored under keyXdr (base64 ScVal) for a
// contract. A missing entry yields an empty set.
func (c *Client) LatestEntry(ctx context.Context, contractID, keyXdr string) (*model.EntrySet, error) {
	sets, err := c.entries(ctx, []entryRef{{contractID: contractID, keyXdr: keyXdr}})
	if err != nil {
		return nil, err
	}
	return sets[0], nil
}

// EntriesByKeys reads several keys of one contract in a single call.
func (c *Client) EntriesByKeys(ctx context.Context, contractID string, keys []string) ([]*model.EntrySet, error) {
	refs := make([]entryRef, len(keys))
	for i, key := range keys {
		refs[i] = entryRef{contractID: contractID, keyXdr: key}
	}
	return c.entries(ctx, refs)
}

// EntriesByContracts reads the same key from several contracts in a single call.
func (c *Client) EntriesByContracts(ctx context.Context, contractIDs []string, keyXdr string) ([]*model.EntrySet, error) {
	refs := make([]entryRef, len(contractIDs))
	for i, id := range contractIDs {
		refs[i] = entryRef{contractID: id, keyXdr: keyXdr}
	}
	return c.entries(ctx, refs)
}

func (c *Client) entries(ctx context.Context, refs []entryRef) ([]*model.EntrySet, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ledgerKeys := make([]string, len(refs))
	for i, ref := range refs {
		key, err := c.ledgerKey(ref.contractID, ref.keyXdr)
		if err != nil {
			return nil, err
		}
		ledgerKeys[i] = key
	}

	results, err := c.GetLedgerEntries(ctx, ledgerKeys)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]stellarrpc.LedgerEntryResult, len(results))
	for _, result := range results {
		byKey[result.KeyXDR] = result
	}

	sets := make([]*model.EntrySet, len(refs))
	for i, ref := range refs {
		set := &model.EntrySet{Alias: ref.contractID, Entries: []model.LedgerEntry{}}
		if result, ok := byKey[ledgerKeys[i]]; ok {
			valueXdr, err := contractDataValue(result.DataXDR)
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", ref.contractID, err)
			}
			set.Entries = append(set.Entries, model.LedgerEntry{
				ContractID: ref.contractID,
				KeyXdr:     ref.keyXdr,
				ValueXdr:   valueXdr,
				Durability: model.DurabilityPersistent,
			})
		}
		sets[i] = set
	}
	return sets, nil
}

// ledgerKey builds the base64 LedgerKey of a persistent contract data entry, using an
// in-memory cache.
func (c *Client) ledgerKey(contractID, keyXdr string) (string, error) {
	cacheKey := contractID + ":" + keyXdr
	c.mu.RLock()
	key, ok := c.keyXdrs[cacheKey]
	c.mu.RUnlock()
	if ok {
		return key, nil
	}

	key, err := ContractDataKey(contractID, keyXdr)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.keyXdrs[cacheKey] = key
	c.mu.Unlock()
	return key, nil
}

// ContractDataKey encodes the LedgerKey of a persistent contract data entry.
func ContractDataKey(contractID, keyXdr string) (string, error) {
	addr, err := dex.ContractAddress(contractID)
	if err != nil {
		return "", err
	}
	scKey, err := dex.ParseScVal(keyXdr)
	if err != nil {
		return "", fmt.Errorf("storage key %s: %w", keyXdr, err)
	}

	ledgerKey := xdr.LedgerKey{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.LedgerKeyContractData{
			Contract:   addr,
			Key:        scKey,
			Durability: xdr.ContractDataDurabilityPersistent,
		},
	}
	encoded, err := xdr.MarshalBase64(ledgerKey)
	if err != nil {
		return "", fmt.Errorf("marshal ledger key: %w", err)
	}
	return encoded, nil
}

func contractDataValue(entryXdr string) (string, error) {
	var data xdr.LedgerEntryData
	if err := xdr.SafeUnmarshalBase64(entryXdr, &data); err != nil {
		return "", fmt.Errorf("unmarshal ledger entry: %w", err)
	}
	contractData, ok := data.GetContractData()
	if !ok {
		return "", fmt.Errorf("ledger entry is not contract data")
	}
	return dex.EncodeScVal(contractData.Val)
}
