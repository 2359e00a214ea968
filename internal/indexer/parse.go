package indexer

import (
	"fmt"
	"strings"

	"pairScope/internal/dex"
)

// ParseContractIDs trims, validates and de-duplicates contract strkeys, keeping
// their first-seen order. Blank inputs are skipped.
func ParseContractIDs(inputs []string) ([]string, error) {
	ids := make([]string, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !dex.IsContractAddress(input) {
			return nil, fmt.Errorf("%w: invalid contract id: %s", ErrInvalidRequest, input)
		}
		if _, ok := seen[input]; ok {
			continue
		}
		seen[input] = struct{}{}
		ids = append(ids, input)
	}
	return ids, nil
}

// ParseKeyXdr checks that a storage key is a decodable base64 ScVal.
func ParseKeyXdr(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: key xdr is required", ErrInvalidRequest)
	}
	if _, err := dex.ParseScVal(input); err != nil {
		return "", fmt.Errorf("%w: invalid key xdr: %v", ErrInvalidRequest, err)
	}
	return input, nil
}
