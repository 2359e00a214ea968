package indexer

import (
	"context"

	"pairScope/internal/model"
)

// EntrySource reads contract storage from the ledger service. Batched reads return
// one set per input, in input order; a nil set means the service returned no field.
type EntrySource interface {
	LatestEntry(ctx context.Context, contractID, keyXdr string) (*model.EntrySet, error)
	EntriesByKeys(ctx context.Context, contractID string, keys []string) ([]*model.EntrySet, error)
	EntriesByContracts(ctx context.Context, contractIDs []string, keyXdr string) ([]*model.EntrySet, error)
}

// Subscriber registers ledger entry subscriptions. SubscribeBatch returns one error
// slot per request, nil where the subscription succeeded.
type Subscriber interface {
	Subscribe(ctx context.Context, req model.SubscribeRequest) error
	SubscribeBatch(ctx context.Context, reqs []model.SubscribeRequest) []error
}

// SubscriptionLister lists every subscription known to the ledger service.
type SubscriptionLister interface {
	AllSubscriptions(ctx context.Context) ([]model.LedgerEntry, error)
}
