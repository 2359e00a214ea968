package dex

import (
	"fmt"

	"go.uber.org/zap"

	"pairScope/internal/model"
)

// DecodePairInstances decodes pair instance storage, one set per pair contract.
// Sets with no entries, non-instance values and incomplete pairs are omitted.
func DecodePairInstances(sets []*model.EntrySet, logger *zap.Logger) ([]model.PairInstanceEntry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make([]model.PairInstanceEntry, 0, len(sets))
	for _, set := range sets {
		entry, ok := latestEntry(set)
		if !ok {
			continue
		}
		if entry.ValueXdr == "" {
			return nil, fmt.Errorf("%w: no value xdr for %s", ErrMalformedEntry, entry.ContractID)
		}

		fields, ok, err := PairDataKeys.storageFields(entry.ValueXdr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
		}
		if !ok {
			continue
		}

		pair := model.PairInstanceEntry{Address: entry.ContractID}
		for name, val := range fields {
			var ferr error
			switch name {
			case FieldToken0:
				pair.Token0, ferr = asAddress(val)
			case FieldToken1:
				pair.Token1, ferr = asAddress(val)
			case FieldReserve0:
				pair.Reserve0, ferr = asAmount(val)
			case FieldReserve1:
				pair.Reserve1, ferr = asAmount(val)
			case FieldFactory:
				pair.Factory, ferr = asAddress(val)
			case FieldTotalShares:
				pair.TotalShares, ferr = asAmount(val)
			}
			if ferr != nil {
				logger.Debug("pair field skipped", zap.String("pair", entry.ContractID), zap.String("field", name), zap.Error(ferr))
			}
		}
		if !pair.Complete() {
			logger.Debug("incomplete pair omitted", zap.String("pair", entry.ContractID))
			continue
		}
		out = append(out, pair)
	}
	return out, nil
}

// DecodePairAddresses decodes the factory's indexed pair list, one set per index in
// order. Every index must resolve to an address: callers slice the result by index.
func DecodePairAddresses(sets []*model.EntrySet) ([]string, error) {
	addresses := make([]string, 0, len(sets))
	for i, set := range sets {
		entry, ok := latestEntry(set)
		if !ok {
			return nil, fmt.Errorf("%w: no entry for pair index %d", ErrMalformedEntry, i)
		}
		if entry.ValueXdr == "" {
			return nil, fmt.Errorf("%w: no value xdr for pair index %d", ErrMalformedEntry, i)
		}
		val, err := ParseScVal(entry.ValueXdr)
		if err != nil {
			return nil, fmt.Errorf("%w: pair index %d: %v", ErrMalformedEntry, i, err)
		}
		address, err := asAddress(val)
		if err != nil {
			return nil, fmt.Errorf("%w: pair index %d: %v", ErrMalformedEntry, i, err)
		}
		addresses = append(addresses, address)
	}
	return addresses, nil
}

func latestEntry(set *model.EntrySet) (model.LedgerEntry, bool) {
	if set == nil || len(set.Entries) == 0 {
		return model.LedgerEntry{}, false
	}
	return set.Entries[len(set.Entries)-1], true
}
