package dex

import (
	"fmt"

	"pairScope/internal/model"
)

// DecodeFactoryInstance decodes factory instance storage entries.
// A nil set or an entry without a value fails with ErrMalformedEntry; an empty set
// yields an empty list.
func DecodeFactoryInstance(set *model.EntrySet) ([]model.FactoryInstanceEntry, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: no entries provided", ErrMalformedEntry)
	}

	parsed := make([]model.FactoryInstanceEntry, 0, len(set.Entries))
	for _, entry := range set.Entries {
		if entry.ValueXdr == "" {
			return nil, fmt.Errorf("%w: no value xdr for %s", ErrMalformedEntry, entry.ContractID)
		}
		fields, ok, err := FactoryDataKeys.storageFields(entry.ValueXdr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
		}
		if !ok {
			continue
		}

		var out model.FactoryInstanceEntry
		if val, ok := fields[FieldFeeTo]; ok {
			if out.FeeTo, err = asAddress(val); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEntry, FieldFeeTo, err)
			}
		}
		if val, ok := fields[FieldFeeToSetter]; ok {
			if out.FeeToSetter, err = asAddress(val); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEntry, FieldFeeToSetter, err)
			}
		}
		if val, ok := fields[FieldTotalPairs]; ok {
			if out.TotalPairs, err = asUint32(val); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEntry, FieldTotalPairs, err)
			}
		}
		if val, ok := fields[FieldFeesEnabled]; ok {
			if out.FeesEnabled, err = asBool(val); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEntry, FieldFeesEnabled, err)
			}
		}
		parsed = append(parsed, out)
	}
	return parsed, nil
}
