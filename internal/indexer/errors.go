package indexer

import (
	"errors"
	"fmt"
	"strings"

	"pairScope/internal/dex"
)

var (
	// ErrInvalidRequest marks malformed caller input, such as an empty address list.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrServiceUnavailable marks a failed or non-ok read from the ledger service.
	ErrServiceUnavailable = errors.New("ledger service unavailable")
	// ErrSubscribeFailure marks a failed subscribe call; see SubscribeError.
	ErrSubscribeFailure = errors.New("subscribe failure")
	// ErrSyncInProgress is returned when another process holds the sync lock.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrMalformedEntry marks structurally unusable ledger data.
	ErrMalformedEntry = dex.ErrMalformedEntry
)

// SubscribeError is a single failed subscription, tagged with the key it targeted.
// Index is the pair index for factory keys and the pair position for contract batches.
type SubscribeError struct {
	Index      int
	ContractID string
	KeyXdr     string
	Err        error
}

func (e *SubscribeError) Error() string {
	return fmt.Sprintf("subscribe %d (%s, %s): %v", e.Index, e.ContractID, e.KeyXdr, e.Err)
}

func (e *SubscribeError) Unwrap() []error {
	return []error{ErrSubscribeFailure, e.Err}
}

// PartialSyncError reports the subscriptions that failed during a sync whose pools
// were still assembled. The pair counter has already been advanced; the failed keys
// can be re-subscribed with SubscribeFactoryRange and SubscribeContracts.
type PartialSyncError struct {
	Failures []*SubscribeError
}

func (e *PartialSyncError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		parts = append(parts, failure.Error())
	}
	return fmt.Sprintf("partial sync, %d subscriptions failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *PartialSyncError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, failure := range e.Failures {
		errs = append(errs, failure)
	}
	return errs
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, err)
}
