package model

// Durability values accepted by the ledger subscription API.
const (
	DurabilityPersistent = "persistent"
	DurabilityTemporary  = "temporary"
	DurabilityInstance   = "instance"
)

// LedgerEntry is a raw contract storage entry as returned by the ledger query service.
// KeyXdr and ValueXdr are base64-encoded ScVal XDR.
type LedgerEntry struct {
	ContractID string `json:"contract_id"`
	KeyXdr     string `json:"key_xdr"`
	ValueXdr   string `json:"value_xdr"`
	Durability string `json:"durability,omitempty"`
}

// EntrySet is the entry list returned for one query field. A nil *EntrySet means the
// field was missing from the response; an empty Entries slice means no entries exist.
type EntrySet struct {
	Alias   string        `json:"alias"`
	Entries []LedgerEntry `json:"entries"`
}

// SubscribeRequest asks the ledger service to track one storage slot of a contract.
type SubscribeRequest struct {
	ContractID string `json:"contract_id"`
	KeyXdr     string `json:"key_xdr"`
	Durability string `json:"durability"`
	Hydrate    bool   `json:"hydrate"`
}
