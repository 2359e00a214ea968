package dex

import (
	"fmt"
	"math"
	"math/big"

	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// MapEntry is a decoded ScMap entry. Map keys may be any ScVal, so maps decode to an
// ordered slice of entries rather than a Go map.
type MapEntry struct {
	Key interface{}
	Val interface{}
}

// ParseScVal decodes a base64 XDR ScVal.
func ParseScVal(b64 string) (xdr.ScVal, error) {
	var val xdr.ScVal
	if err := xdr.SafeUnmarshalBase64(b64, &val); err != nil {
		return xdr.ScVal{}, fmt.Errorf("unmarshal scval: %w", err)
	}
	return val, nil
}

// DecodeValue decodes a base64 XDR ScVal into plain Go values.
func DecodeValue(b64 string) (interface{}, error) {
	val, err := ParseScVal(b64)
	if err != nil {
		return nil, err
	}
	return ToNative(val)
}

// ToNative converts an ScVal into Go values: bool, uint32, int32, uint64, int64,
// *big.Int for 128-bit integers, string for symbols/strings/addresses, []byte,
// []interface{} for vectors, []MapEntry for maps and contract instance storage.
func ToNative(val xdr.ScVal) (interface{}, error) {
	switch val.Type {
	case xdr.ScValTypeScvVoid, xdr.ScValTypeScvLedgerKeyContractInstance:
		return nil, nil
	case xdr.ScValTypeScvBool:
		b, _ := val.GetB()
		return b, nil
	case xdr.ScValTypeScvU32:
		v, _ := val.GetU32()
		return uint32(v), nil
	case xdr.ScValTypeScvI32:
		v, _ := val.GetI32()
		return int32(v), nil
	case xdr.ScValTypeScvU64:
		v, _ := val.GetU64()
		return uint64(v), nil
	case xdr.ScValTypeScvI64:
		v, _ := val.GetI64()
		return int64(v), nil
	case xdr.ScValTypeScvU128, xdr.ScValTypeScvI128:
		return asBigInt(val)
	case xdr.ScValTypeScvBytes:
		v, _ := val.GetBytes()
		return []byte(v), nil
	case xdr.ScValTypeScvString:
		v, _ := val.GetStr()
		return string(v), nil
	case xdr.ScValTypeScvSymbol:
		v, _ := val.GetSym()
		return string(v), nil
	case xdr.ScValTypeScvAddress:
		return asAddress(val)
	case xdr.ScValTypeScvVec:
		vec, ok := val.GetVec()
		if !ok || vec == nil {
			return []interface{}{}, nil
		}
		out := make([]interface{}, 0, len(*vec))
		for _, item := range *vec {
			native, err := ToNative(item)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	case xdr.ScValTypeScvMap:
		m, ok := val.GetMap()
		if !ok || m == nil {
			return []MapEntry{}, nil
		}
		return mapToNative(*m)
	case xdr.ScValTypeScvContractInstance:
		storage, _ := instanceStorage(val)
		return mapToNative(storage)
	default:
		return nil, fmt.Errorf("unsupported scval type: %s", val.Type)
	}
}

func mapToNative(m xdr.ScMap) ([]MapEntry, error) {
	out := make([]MapEntry, 0, len(m))
	for _, entry := range m {
		key, err := ToNative(entry.Key)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		val, err := ToNative(entry.Val)
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		out = append(out, MapEntry{Key: key, Val: val})
	}
	return out, nil
}

// instanceStorage returns the storage map of a contract instance value.
func instanceStorage(val xdr.ScVal) (xdr.ScMap, bool) {
	instance, ok := val.GetInstance()
	if !ok {
		return nil, false
	}
	if instance.Storage == nil {
		return xdr.ScMap{}, true
	}
	return *instance.Storage, true
}

func asAddress(val xdr.ScVal) (string, error) {
	addr, ok := val.GetAddress()
	if !ok {
		return "", fmt.Errorf("expected address, got %s", val.Type)
	}
	switch addr.Type {
	case xdr.ScAddressTypeScAddressTypeContract:
		if addr.ContractId == nil {
			return "", fmt.Errorf("contract address without id")
		}
		id := *addr.ContractId
		return strkey.Encode(strkey.VersionByteContract, id[:])
	case xdr.ScAddressTypeScAddressTypeAccount:
		if addr.AccountId == nil || addr.AccountId.Ed25519 == nil {
			return "", fmt.Errorf("account address without key")
		}
		key := *addr.AccountId.Ed25519
		return strkey.Encode(strkey.VersionByteAccountID, key[:])
	default:
		return "", fmt.Errorf("unsupported address type: %s", addr.Type)
	}
}

func asBigInt(val xdr.ScVal) (*big.Int, error) {
	switch val.Type {
	case xdr.ScValTypeScvU32:
		v, _ := val.GetU32()
		return new(big.Int).SetUint64(uint64(v)), nil
	case xdr.ScValTypeScvI32:
		v, _ := val.GetI32()
		return big.NewInt(int64(v)), nil
	case xdr.ScValTypeScvU64:
		v, _ := val.GetU64()
		return new(big.Int).SetUint64(uint64(v)), nil
	case xdr.ScValTypeScvI64:
		v, _ := val.GetI64()
		return big.NewInt(int64(v)), nil
	case xdr.ScValTypeScvU128:
		parts, _ := val.GetU128()
		hi := new(big.Int).SetUint64(uint64(parts.Hi))
		hi.Lsh(hi, 64)
		return hi.Add(hi, new(big.Int).SetUint64(uint64(parts.Lo))), nil
	case xdr.ScValTypeScvI128:
		parts, _ := val.GetI128()
		hi := big.NewInt(int64(parts.Hi))
		hi.Lsh(hi, 64)
		return hi.Add(hi, new(big.Int).SetUint64(uint64(parts.Lo))), nil
	default:
		return nil, fmt.Errorf("expected integer, got %s", val.Type)
	}
}

func asUint32(val xdr.ScVal) (uint32, error) {
	n, err := asBigInt(val)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || !n.IsUint64() || n.Uint64() > math.MaxUint32 {
		return 0, fmt.Errorf("value out of uint32 range: %s", n)
	}
	return uint32(n.Uint64()), nil
}

func asBool(val xdr.ScVal) (bool, error) {
	b, ok := val.GetB()
	if !ok {
		return false, fmt.Errorf("expected bool, got %s", val.Type)
	}
	return b, nil
}

// asAmount formats a non-negative integer value as a decimal string.
func asAmount(val xdr.ScVal) (string, error) {
	n, err := asBigInt(val)
	if err != nil {
		return "", err
	}
	if n.Sign() < 0 {
		return "", fmt.Errorf("negative amount: %s", n)
	}
	return n.String(), nil
}
