package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/xdr"

	"pairScope/internal/dex"
	"pairScope/internal/model"
	"pairScope/internal/protocol"
	"pairScope/internal/storage"
)

const testFactory = "CA4HEQTL2WPEUYKYKCDOHCDNIV4QHNJ7EL4J4NQ6VADP7SYHVRYZ7AW2"

var errDown = errors.New("ledger service down")

// fakeLedger serves factory and pair storage from memory.
type fakeLedger struct {
	mu         sync.Mutex
	totalPairs uint32
	noCounter  bool
	pairs      []string
	pairData   map[string]string

	latestErr   error
	keysErr     error
	latestCalls int
	keysCalls   int
	pairCalls   int

	t *testing.T
}

func (f *fakeLedger) LatestEntry(_ context.Context, contractID, keyXdr string) (*model.EntrySet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestCalls++
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	if contractID != testFactory || keyXdr != protocol.InstanceKeyXdr {
		f.t.Errorf("unexpected counter lookup %s %s", contractID, keyXdr)
	}
	if f.noCounter {
		return &model.EntrySet{Entries: []model.LedgerEntry{}}, nil
	}
	value := encode(f.t, instanceVal(
		xdr.ScMapEntry{Key: u32Val(2), Val: u32Val(f.totalPairs)},
		xdr.ScMapEntry{Key: u32Val(3), Val: boolVal(false)},
	))
	return &model.EntrySet{Entries: []model.LedgerEntry{{ContractID: contractID, KeyXdr: keyXdr, ValueXdr: value}}}, nil
}

func (f *fakeLedger) EntriesByKeys(_ context.Context, contractID string, keys []string) ([]*model.EntrySet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keysCalls++
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	sets := make([]*model.EntrySet, len(keys))
	for i, key := range keys {
		index, err := dex.PairIndexFromKey(key)
		if err != nil {
			f.t.Errorf("bad pair key %s: %v", key, err)
			continue
		}
		if int(index) >= len(f.pairs) {
			continue
		}
		value := encode(f.t, addressVal(f.t, f.pairs[index]))
		sets[i] = &model.EntrySet{Entries: []model.LedgerEntry{{ContractID: contractID, KeyXdr: key, ValueXdr: value}}}
	}
	return sets, nil
}

func (f *fakeLedger) EntriesByContracts(_ context.Context, contractIDs []string, keyXdr string) ([]*model.EntrySet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairCalls++
	sets := make([]*model.EntrySet, len(contractIDs))
	for i, id := range contractIDs {
		value, ok := f.pairData[id]
		if !ok {
			continue
		}
		sets[i] = &model.EntrySet{Entries: []model.LedgerEntry{{ContractID: id, KeyXdr: keyXdr, ValueXdr: value}}}
	}
	return sets, nil
}

// fakeSubscriber records subscribe calls and fails the configured keys or contracts.
type fakeSubscriber struct {
	mu       sync.Mutex
	single   []model.SubscribeRequest
	batches  [][]model.SubscribeRequest
	failKeys map[string]bool
	failIDs  map[string]bool

	// gate, when set, holds every Subscribe until closed; entered receives the
	// first arrival.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeSubscriber) Subscribe(_ context.Context, req model.SubscribeRequest) error {
	if f.gate != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.single = append(f.single, req)
	if f.failKeys[req.KeyXdr] {
		return errors.New("subscribe rejected")
	}
	return nil
}

func (f *fakeSubscriber) SubscribeBatch(_ context.Context, reqs []model.SubscribeRequest) []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]model.SubscribeRequest(nil), reqs...))
	errs := make([]error, len(reqs))
	for i, req := range reqs {
		if f.failIDs[req.ContractID] {
			errs[i] = errors.New("subscribe rejected")
		}
	}
	return errs
}

type fixture struct {
	ledger     *fakeLedger
	subscriber *fakeSubscriber
	store      *storage.MemoryStore
	sync       *Synchronizer
	pools      *PoolAggregator
	counter    *CounterTracker
	metrics    *Metrics
}

// newFixture builds a synchronizer over n pairs. Pairs listed in incomplete carry
// only token0 in their storage.
func newFixture(t *testing.T, n int, incomplete ...int) *fixture {
	t.Helper()
	ledger := &fakeLedger{totalPairs: uint32(n), pairData: make(map[string]string), t: t}
	token0 := testContract(t, 0xf0)
	token1 := testContract(t, 0xf1)
	skip := make(map[int]bool)
	for _, i := range incomplete {
		skip[i] = true
	}
	for i := 0; i < n; i++ {
		pair := testContract(t, byte(i+1))
		ledger.pairs = append(ledger.pairs, pair)
		entries := []xdr.ScMapEntry{{Key: u32Val(0), Val: addressVal(t, token0)}}
		if !skip[i] {
			entries = append(entries,
				xdr.ScMapEntry{Key: u32Val(1), Val: addressVal(t, token1)},
				xdr.ScMapEntry{Key: u32Val(2), Val: i128Val(uint64(1000 + i))},
				xdr.ScMapEntry{Key: u32Val(3), Val: i128Val(uint64(2000 + i))},
			)
		}
		ledger.pairData[pair] = encode(t, instanceVal(entries...))
	}

	metrics := NewMetrics(nil)
	factory := protocol.StaticFactory(testFactory)
	retry := RetryConfig{MaxRetries: 1, RetryBackoff: time.Millisecond}
	classifier := protocol.NewClassifier(protocol.DefaultFactories(model.NetworkMainnet))
	store := storage.NewMemoryStore()
	subscriber := &fakeSubscriber{failKeys: map[string]bool{}, failIDs: map[string]bool{}}

	counter := NewCounterTracker(model.NetworkMainnet, factory, ledger, retry, metrics, nil)
	pools := NewPoolAggregator(model.NetworkMainnet, factory, ledger, nil, 2, retry, metrics, nil)
	synchronizer := NewSynchronizer(model.NetworkMainnet, counter, pools, store, subscriber, classifier, nil).WithMetrics(metrics)

	return &fixture{
		ledger:     ledger,
		subscriber: subscriber,
		store:      store,
		sync:       synchronizer,
		pools:      pools,
		counter:    counter,
		metrics:    metrics,
	}
}

func testContract(t *testing.T, fill byte) string {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = fill
	}
	id, err := strkey.Encode(strkey.VersionByteContract, raw)
	if err != nil {
		t.Fatalf("encode contract id: %v", err)
	}
	return id
}

func addressVal(t *testing.T, contract string) xdr.ScVal {
	t.Helper()
	addr, err := dex.ContractAddress(contract)
	if err != nil {
		t.Fatalf("contract address: %v", err)
	}
	return dex.AddressScVal(addr)
}

func u32Val(v uint32) xdr.ScVal {
	n := xdr.Uint32(v)
	return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &n}
}

func boolVal(v bool) xdr.ScVal {
	return xdr.ScVal{Type: xdr.ScValTypeScvBool, B: &v}
}

func i128Val(lo uint64) xdr.ScVal {
	parts := xdr.Int128Parts{Hi: 0, Lo: xdr.Uint64(lo)}
	return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &parts}
}

func instanceVal(entries ...xdr.ScMapEntry) xdr.ScVal {
	storage := xdr.ScMap(entries)
	instance := xdr.ScContractInstance{
		Executable: xdr.ContractExecutable{Type: xdr.ContractExecutableTypeContractExecutableStellarAsset},
		Storage:    &storage,
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvContractInstance, Instance: &instance}
}

func encode(t *testing.T, val xdr.ScVal) string {
	t.Helper()
	encoded, err := dex.EncodeScVal(val)
	if err != nil {
		t.Fatalf("encode scval: %v", err)
	}
	return encoded
}
