package dex

import (
	"fmt"

	"github.com/stellar/go-stellar-sdk/xdr"
)

// PairAddressesSymbol tags the factory's indexed pair list in persistent storage.
const PairAddressesSymbol = "PairAddressesNIndexed"

// EncodeScVal encodes an ScVal as base64 XDR.
func EncodeScVal(val xdr.ScVal) (string, error) {
	return xdr.MarshalBase64(val)
}

// InstanceKeyXdr returns the storage key of a contract's instance entry.
func InstanceKeyXdr() (string, error) {
	return EncodeScVal(xdr.ScVal{Type: xdr.ScValTypeScvLedgerKeyContractInstance})
}

// U32KeyXdr encodes a u32 storage key, as used by integer-keyed DataKey enums.
func U32KeyXdr(value uint32) (string, error) {
	v := xdr.Uint32(value)
	return EncodeScVal(xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &v})
}

// PairKeyXdr derives the storage key addressing the index-th pair of a factory:
// Vec[Symbol(PairAddressesNIndexed), U32(index)].
func PairKeyXdr(index uint32) (string, error) {
	sym := xdr.ScSymbol(PairAddressesSymbol)
	idx := xdr.Uint32(index)
	vec := xdr.ScVec{
		{Type: xdr.ScValTypeScvSymbol, Sym: &sym},
		{Type: xdr.ScValTypeScvU32, U32: &idx},
	}
	vecPtr := &vec
	key, err := EncodeScVal(xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &vecPtr})
	if err != nil {
		return "", fmt.Errorf("encode pair key %d: %w", index, err)
	}
	return key, nil
}

// PairIndexFromKey is the inverse of PairKeyXdr.
func PairIndexFromKey(keyXdr string) (uint32, error) {
	val, err := ParseScVal(keyXdr)
	if err != nil {
		return 0, err
	}
	vec, ok := val.GetVec()
	if !ok || vec == nil || len(*vec) != 2 {
		return 0, fmt.Errorf("not a pair key: %s", keyXdr)
	}
	sym, ok := (*vec)[0].GetSym()
	if !ok || string(sym) != PairAddressesSymbol {
		return 0, fmt.Errorf("not a pair key: %s", keyXdr)
	}
	idx, ok := (*vec)[1].GetU32()
	if !ok {
		return 0, fmt.Errorf("pair key without u32 index: %s", keyXdr)
	}
	return uint32(idx), nil
}
