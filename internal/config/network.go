package config

import "pairScope/internal/model"

// NetworkDefaults are the public endpoints used when none are configured.
type NetworkDefaults struct {
	MercuryGraphQL string
	MercuryBackend string
	SorobanRPC     string
}

var networkDefaults = map[model.Network]NetworkDefaults{
	model.NetworkMainnet: {
		MercuryGraphQL: "https://mainnet.mercurydata.app/graphql",
		MercuryBackend: "https://mainnet.mercurydata.app",
	},
	model.NetworkTestnet: {
		MercuryGraphQL: "https://api.mercurydata.app/graphql",
		MercuryBackend: "https://api.mercurydata.app",
		SorobanRPC:     "https://soroban-testnet.stellar.org",
	},
}

// DefaultsFor returns the endpoint defaults of a network.
func DefaultsFor(network model.Network) NetworkDefaults {
	return networkDefaults[network]
}
