package model

// FactoryInstanceEntry is the decoded instance storage of a pair factory contract.
type FactoryInstanceEntry struct {
	FeeTo       string `json:"fee_to"`
	FeeToSetter string `json:"fee_to_setter"`
	TotalPairs  uint32 `json:"total_pairs"`
	FeesEnabled bool   `json:"fees_enabled"`
}

// PairInstanceEntry is the decoded instance storage of a pair contract.
type PairInstanceEntry struct {
	Address     string `json:"address"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	Factory     string `json:"factory,omitempty"`
	TotalShares string `json:"total_shares,omitempty"`
}

// Complete reports whether the entry carries both tokens and both reserves.
func (p PairInstanceEntry) Complete() bool {
	return p.Token0 != "" && p.Token1 != "" && p.Reserve0 != "" && p.Reserve1 != ""
}
