package dex

import (
	"fmt"
	"regexp"

	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/xdr"
)

var addressPattern = regexp.MustCompile(`^[A-Z0-9]{56}$`)

// IsAddress reports whether value looks like a 56-character strkey address.
func IsAddress(value string) bool {
	return addressPattern.MatchString(value)
}

// IsContractAddress reports whether value is a checksummed contract strkey (C...).
func IsContractAddress(value string) bool {
	_, err := strkey.Decode(strkey.VersionByteContract, value)
	return err == nil
}

// ShortenAddress renders an address as its first and last chars characters.
func ShortenAddress(address string, chars int) (string, error) {
	if address == "" {
		return "", nil
	}
	if !IsAddress(address) {
		return "", fmt.Errorf("invalid address %q", address)
	}
	if chars <= 0 || chars*2 >= len(address) {
		return address, nil
	}
	return address[:chars] + "..." + address[len(address)-chars:], nil
}

// ContractAddress converts a contract strkey into an ScAddress.
func ContractAddress(contractID string) (xdr.ScAddress, error) {
	raw, err := strkey.Decode(strkey.VersionByteContract, contractID)
	if err != nil {
		return xdr.ScAddress{}, fmt.Errorf("decode contract id %s: %w", contractID, err)
	}
	var id xdr.ContractId
	copy(id[:], raw)
	return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &id}, nil
}

// AddressScVal wraps an ScAddress in an ScVal.
func AddressScVal(addr xdr.ScAddress) xdr.ScVal {
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &addr}
}
