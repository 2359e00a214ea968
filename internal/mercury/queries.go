package mercury

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pairScope/internal/model"
)

// ErrQueryNotOK is returned when Mercury answers a query without usable data.
var ErrQueryNotOK = errors.New("mercury query not ok")

const entryFields = `edges { node { contractId keyXdr valueXdr } }`

// LastContractEntryQuery fetches the latest value of one key of one contract.
const LastContractEntryQuery = `query GetLastContractEntry($contractId: String!, $ledgerKey: String!) {
  entryUpdateByContractIdAndKey(ledgerKey: $ledgerKey, contract: $contractId, lastN: 1) {
    ` + entryFields + `
  }
}`

// AllSubscriptionsQuery lists every ledger entry subscription of the account.
const AllSubscriptionsQuery = `query GetAllLedgerEntrySubscriptions {
  allLedgerEntrySubscriptions {
    edges { node { contractId keyXdr durability } }
  }
}`

// KeyAlias and ContractAlias name the i-th (1-based) sub-query of a batched request.
func KeyAlias(i int) string      { return "ledgerKey" + strconv.Itoa(i) }
func ContractAlias(i int) string { return "contractId" + strconv.Itoa(i) }

// BuildKeysQuery returns a query with n aliased sub-queries ledgerKey1..ledgerKeyN, all
// against the contract in $contractId.
func BuildKeysQuery(n int) string {
	var b strings.Builder
	b.WriteString("query GetEntriesByKeys($contractId: String!")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, ", $%s: String!", KeyAlias(i))
	}
	b.WriteString(") {\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "  %s: entryUpdateByContractIdAndKey(ledgerKey: $%s, contract: $contractId, lastN: 1) { %s }\n",
			KeyAlias(i), KeyAlias(i), entryFields)
	}
	b.WriteString("}")
	return b.String()
}

// BuildContractsQuery returns a query with n aliased sub-queries contractId1..contractIdN,
// all reading the same key from different contracts.
func BuildContractsQuery(n int) string {
	var b strings.Builder
	b.WriteString("query GetEntriesByContracts($ledgerKey: String!")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, ", $%s: String!", ContractAlias(i))
	}
	b.WriteString(") {\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "  %s: entryUpdateByContractIdAndKey(ledgerKey: $ledgerKey, contract: $%s, lastN: 1) { %s }\n",
			ContractAlias(i), ContractAlias(i), entryFields)
	}
	b.WriteString("}")
	return b.String()
}

type entryNode struct {
	ContractID string `json:"contractId"`
	KeyXdr     string `json:"keyXdr"`
	ValueXdr   string `json:"valueXdr"`
	Durability string `json:"durability"`
}

type connection struct {
	Edges []struct {
		Node entryNode `json:"node"`
	} `json:"edges"`
}

func (c *connection) entries() []model.LedgerEntry {
	entries := make([]model.LedgerEntry, 0, len(c.Edges))
	for _, edge := range c.Edges {
		entries = append(entries, model.LedgerEntry{
			ContractID: edge.Node.ContractID,
			KeyXdr:     edge.Node.KeyXdr,
			ValueXdr:   edge.Node.ValueXdr,
			Durability: edge.Node.Durability,
		})
	}
	return entries
}

// EntrySets extracts one EntrySet per alias from a query's data. An alias that is
// missing or null yields a nil set.
func EntrySets(data json.RawMessage, aliases []string) ([]*model.EntrySet, error) {
	var fields map[string]*connection
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}

	sets := make([]*model.EntrySet, len(aliases))
	for i, alias := range aliases {
		conn, ok := fields[alias]
		if !ok || conn == nil {
			continue
		}
		sets[i] = &model.EntrySet{Alias: alias, Entries: conn.entries()}
	}
	return sets, nil
}

func (c *Client) run(ctx context.Context, request string, variables map[string]any) (json.RawMessage, error) {
	resp, err := c.Query(ctx, request, variables)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrQueryNotOK, resp.Errors[0].Message)
		}
		return nil, ErrQueryNotOK
	}
	return resp.Data, nil
}

// LatestEntry returns the latest entry set stored under keyXdr for contractID.
func (c *Client) LatestEntry(ctx context.Context, contractID, keyXdr string) (*model.EntrySet, error) {
	data, err := c.run(ctx, LastContractEntryQuery, map[string]any{
		"contractId": contractID,
		"ledgerKey":  keyXdr,
	})
	if err != nil {
		return nil, err
	}
	sets, err := EntrySets(data, []string{"entryUpdateByContractIdAndKey"})
	if err != nil {
		return nil, err
	}
	return sets[0], nil
}

// EntriesByKeys reads several keys of one contract in a single batched query. The
// result is aligned with keys.
func (c *Client) EntriesByKeys(ctx context.Context, contractID string, keys []string) ([]*model.EntrySet, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	variables := map[string]any{"contractId": contractID}
	aliases := make([]string, len(keys))
	for i, key := range keys {
		aliases[i] = KeyAlias(i + 1)
		variables[aliases[i]] = key
	}

	data, err := c.run(ctx, BuildKeysQuery(len(keys)), variables)
	if err != nil {
		return nil, err
	}
	return EntrySets(data, aliases)
}

// EntriesByContracts reads the same key from several contracts in a single batched
// query. The result is aligned with contractIDs.
func (c *Client) EntriesByContracts(ctx context.Context, contractIDs []string, keyXdr string) ([]*model.EntrySet, error) {
	if len(contractIDs) == 0 {
		return nil, nil
	}
	variables := map[string]any{"ledgerKey": keyXdr}
	aliases := make([]string, len(contractIDs))
	for i, id := range contractIDs {
		aliases[i] = ContractAlias(i + 1)
		variables[aliases[i]] = id
	}

	data, err := c.run(ctx, BuildContractsQuery(len(contractIDs)), variables)
	if err != nil {
		return nil, err
	}
	return EntrySets(data, aliases)
}

// AllSubscriptions lists the ledger entry subscriptions registered with Mercury.
// A null listing is returned as an empty slice.
func (c *Client) AllSubscriptions(ctx context.Context) ([]model.LedgerEntry, error) {
	resp, err := c.Query(ctx, AllSubscriptionsQuery, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrQueryNotOK, resp.Errors[0].Message)
	}
	if !resp.OK {
		return nil, nil
	}

	sets, err := EntrySets(resp.Data, []string{"allLedgerEntrySubscriptions"})
	if err != nil {
		return nil, err
	}
	if sets[0] == nil {
		return nil, nil
	}
	return sets[0].Entries, nil
}
