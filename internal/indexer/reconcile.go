package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pairScope/internal/model"
	"pairScope/internal/protocol"
	"pairScope/internal/storage"
)

// Report counts the outcomes of a reconciliation pass.
type Report struct {
	Total     int
	Persisted int
	Outcomes  map[protocol.Outcome]int
}

// Reconciler classifies every subscription registered with the ledger service and
// persists the classified ones.
type Reconciler struct {
	network    model.Network
	lister     SubscriptionLister
	store      storage.SubscriptionStore
	classifier *protocol.Classifier
	metrics    *Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewReconciler(network model.Network, lister SubscriptionLister, store storage.SubscriptionStore, classifier *protocol.Classifier, metrics *Metrics, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		network:    network,
		lister:     lister,
		store:      store,
		classifier: classifier,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Reconcile runs one pass. Unclassifiable entries are counted as "other" and skipped;
// the rest of the listing is still processed.
func (r *Reconciler) Reconcile(ctx context.Context) (Report, error) {
	report := Report{Outcomes: make(map[protocol.Outcome]int)}

	entries, err := r.lister.AllSubscriptions(ctx)
	if err != nil {
		return report, unavailable("list subscriptions", err)
	}
	if len(entries) == 0 {
		r.logger.Info("database up to date", zap.String("network", string(r.network)))
		return report, nil
	}

	subs := make([]model.Subscription, 0, len(entries))
	for _, entry := range entries {
		report.Total++
		cl, outcome, ok := r.classifier.Classify(entry.ContractID, entry.KeyXdr)
		report.Outcomes[outcome]++
		r.metrics.reconcileOutcome(outcome)
		if !ok {
			r.logger.Debug("unclassifiable subscription skipped",
				zap.String("contract", entry.ContractID),
				zap.String("key_xdr", entry.KeyXdr),
			)
			continue
		}
		subs = append(subs, cl.Apply(model.Subscription{
			ContractID: entry.ContractID,
			KeyXdr:     entry.KeyXdr,
			Network:    r.network,
			CreatedAt:  r.now().UTC(),
		}))
	}

	if err := r.store.UpsertSubscriptions(ctx, subs); err != nil {
		return report, fmt.Errorf("persist subscriptions: %w", err)
	}
	report.Persisted = len(subs)

	fields := []zap.Field{zap.String("network", string(r.network)), zap.Int("total", report.Total), zap.Int("persisted", report.Persisted)}
	for outcome, n := range report.Outcomes {
		fields = append(fields, zap.Int(string(outcome), n))
	}
	r.logger.Info("reconciliation complete", fields...)
	return report, nil
}
