package indexer

import "fmt"

// IndexRange represents an inclusive range of pair indices or list positions.
type IndexRange struct {
	From uint64
	To   uint64
}

// Len returns the number of indices covered by the range.
func (r IndexRange) Len() int {
	return int(r.To - r.From + 1)
}

// SplitRange splits an inclusive range into batches of size batchSize.
func SplitRange(from, to, batchSize uint64) ([]IndexRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("range end must be >= range start")
	}

	ranges := make([]IndexRange, 0)
	start := from
	for start <= to {
		remaining := to - start + 1
		var end uint64
		if remaining <= batchSize {
			end = to
		} else {
			end = start + batchSize - 1
		}
		ranges = append(ranges, IndexRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}

// chunks splits n items into consecutive batches of at most size items.
func chunks(n int, size int) []IndexRange {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = n
	}
	ranges, _ := SplitRange(0, uint64(n-1), uint64(size))
	return ranges
}
