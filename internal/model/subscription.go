package model

import (
	"fmt"
	"strings"
	"time"
)

// Protocol identifies the DEX protocol that owns a contract.
type Protocol string

const (
	ProtocolUnset    Protocol = ""
	ProtocolSoroswap Protocol = "SOROSWAP"
	ProtocolPhoenix  Protocol = "PHOENIX"
)

// ContractType distinguishes factory contracts from pair contracts.
type ContractType string

const (
	ContractTypeUnset   ContractType = ""
	ContractTypeFactory ContractType = "FACTORY"
	ContractTypePair    ContractType = "PAIR"
)

// StorageType is the durability class of a subscribed storage slot.
type StorageType string

const (
	StorageTypeUnset      StorageType = ""
	StorageTypeInstance   StorageType = "INSTANCE"
	StorageTypePersistent StorageType = "PERSISTENT"
)

// Network is the Stellar network a record belongs to.
type Network string

const (
	NetworkMainnet Network = "MAINNET"
	NetworkTestnet Network = "TESTNET"
)

// ParseNetwork accepts mainnet/testnet in any case ("public" is an alias of mainnet).
func ParseNetwork(input string) (Network, error) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "MAINNET", "PUBLIC":
		return NetworkMainnet, nil
	case "TESTNET":
		return NetworkTestnet, nil
	default:
		return "", fmt.Errorf("invalid network: %q", input)
	}
}

// Subscription is a registered interest in one storage slot of a contract.
// (ContractID, KeyXdr, Network) is unique.
type Subscription struct {
	ContractID   string       `json:"contract_id"`
	KeyXdr       string       `json:"key_xdr"`
	Protocol     Protocol     `json:"protocol,omitempty"`
	ContractType ContractType `json:"contract_type,omitempty"`
	StorageType  StorageType  `json:"storage_type,omitempty"`
	Network      Network      `json:"network"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Counter is the last known number of pairs created by the factory on a network.
type Counter struct {
	Network   Network   `json:"network"`
	Count     uint32    `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}
