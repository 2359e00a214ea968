package dex

import (
	"errors"
	"strings"

	"github.com/stellar/go-stellar-sdk/xdr"
)

// ErrMalformedEntry reports a structurally unusable ledger entry response.
var ErrMalformedEntry = errors.New("malformed entry")

// Field names of the factory DataKey enum, in ordinal order.
const (
	FieldFeeTo       = "feeTo"
	FieldFeeToSetter = "feeToSetter"
	FieldTotalPairs  = "totalPairs"
	FieldFeesEnabled = "feesEnabled"
)

// Field names of the pair DataKey enum, in ordinal order.
const (
	FieldToken0      = "token0"
	FieldToken1      = "token1"
	FieldReserve0    = "reserve0"
	FieldReserve1    = "reserve1"
	FieldFactory     = "factory"
	FieldTotalShares = "totalShares"
)

// DataKeyTable maps a contract's DataKey ordinal to a field name.
type DataKeyTable []string

// FactoryDataKeys is the factory contract's instance storage layout.
var FactoryDataKeys = DataKeyTable{FieldFeeTo, FieldFeeToSetter, FieldTotalPairs, FieldFeesEnabled}

// PairDataKeys is the pair contract's instance storage layout.
var PairDataKeys = DataKeyTable{FieldToken0, FieldToken1, FieldReserve0, FieldReserve1, FieldFactory, FieldTotalShares}

// Name returns the field for an ordinal. Out-of-range ordinals report false.
func (t DataKeyTable) Name(ordinal int) (string, bool) {
	if ordinal < 0 || ordinal >= len(t) {
		return "", false
	}
	return t[ordinal], true
}

func (t DataKeyTable) ordinalOf(name string) (int, bool) {
	for i, field := range t {
		if strings.EqualFold(field, name) {
			return i, true
		}
	}
	return 0, false
}

// resolve picks the ordinal of a storage map entry. Integer keys are ordinals;
// symbol keys (or a vector whose first item is a symbol) are looked up by name;
// anything else falls back to the entry position.
func (t DataKeyTable) resolve(key xdr.ScVal, position int) (string, bool) {
	switch key.Type {
	case xdr.ScValTypeScvU32, xdr.ScValTypeScvI32:
		n, err := asBigInt(key)
		if err != nil || !n.IsInt64() {
			return "", false
		}
		return t.Name(int(n.Int64()))
	case xdr.ScValTypeScvSymbol:
		sym, _ := key.GetSym()
		if i, ok := t.ordinalOf(string(sym)); ok {
			return t[i], true
		}
		return "", false
	case xdr.ScValTypeScvVec:
		vec, ok := key.GetVec()
		if ok && vec != nil && len(*vec) > 0 {
			if sym, ok := (*vec)[0].GetSym(); ok {
				if i, ok := t.ordinalOf(string(sym)); ok {
					return t[i], true
				}
				return "", false
			}
		}
	}
	return t.Name(position)
}

// storageFields decodes an instance value and remaps its storage map through the table.
// ok is false when the value is not a contract instance.
func (t DataKeyTable) storageFields(valueXdr string) (map[string]xdr.ScVal, bool, error) {
	val, err := ParseScVal(valueXdr)
	if err != nil {
		return nil, false, err
	}
	storage, ok := instanceStorage(val)
	if !ok {
		return nil, false, nil
	}

	fields := make(map[string]xdr.ScVal, len(storage))
	for i, entry := range storage {
		name, ok := t.resolve(entry.Key, i)
		if !ok {
			continue
		}
		fields[name] = entry.Val
	}
	return fields, true, nil
}
