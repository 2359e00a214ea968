package protocol

import "pairScope/internal/model"

// Well-known storage keys (base64 ScVal XDR).
const (
	// InstanceKeyXdr is ScvLedgerKeyContractInstance: a contract's instance storage.
	InstanceKeyXdr = "AAAAFA=="
	// Phoenix factory persistent DataKey entries: U32(1), U32(2), U32(3).
	PhoenixConfigKeyXdr      = "AAAAAwAAAAE="
	PhoenixLpVecKeyXdr       = "AAAAAwAAAAI="
	PhoenixInitializedKeyXdr = "AAAAAwAAAAM="
)

// FactorySets lists the known factory contracts per protocol.
type FactorySets struct {
	Soroswap []string
	Phoenix  []string
}

var defaultFactories = map[model.Network]FactorySets{
	model.NetworkMainnet: {
		Soroswap: []string{"CA4HEQTL2WPEUYKYKCDOHCDNIV4QHNJ7EL4J4NQ6VADP7SYHVRYZ7AW2"},
		Phoenix:  []string{"CB4SVAWJA6TSRNOJZ7W2AWFW46D5VR4ZMFZKDIKXEINZCZEGZCJZCKMI"},
	},
	model.NetworkTestnet: {
		Soroswap: []string{"CDP3HMUH6SMS3S7NPGNDJLULCOXXEPSHY4JKUKMBNQMATHDHWXRRJTBY"},
	},
}

// DefaultFactories returns the built-in factory sets for a network.
func DefaultFactories(network model.Network) FactorySets {
	sets := defaultFactories[network]
	return FactorySets{
		Soroswap: append([]string(nil), sets.Soroswap...),
		Phoenix:  append([]string(nil), sets.Phoenix...),
	}
}

// WithOverrides replaces a protocol's set when the override is non-empty.
func (s FactorySets) WithOverrides(soroswap, phoenix []string) FactorySets {
	if len(soroswap) > 0 {
		s.Soroswap = soroswap
	}
	if len(phoenix) > 0 {
		s.Phoenix = phoenix
	}
	return s
}
