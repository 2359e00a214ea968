package protocol

import (
	"sync"

	"pairScope/internal/model"
)

// Classification is the taxonomy assigned to a subscription.
type Classification struct {
	Protocol     model.Protocol
	ContractType model.ContractType
	StorageType  model.StorageType
}

// Outcome names the rule that matched a subscription.
type Outcome string

const (
	OutcomeSoroswapFactoryInstance   Outcome = "soroswap_factory_instance"
	OutcomePhoenixFactoryInstance    Outcome = "phoenix_factory_instance"
	OutcomeSoroswapFactoryPersistent Outcome = "soroswap_factory_persistent"
	OutcomePhoenixFactoryConfig      Outcome = "phoenix_factory_config"
	OutcomePhoenixFactoryLpVec       Outcome = "phoenix_factory_lp_vec"
	OutcomePhoenixFactoryInitialized Outcome = "phoenix_factory_initialized"
	OutcomePairStorage               Outcome = "pair_storage"
	OutcomeOther                     Outcome = "other"
)

type subject struct {
	soroswap bool
	phoenix  bool
	keyXdr   string
}

type rule struct {
	outcome Outcome
	match   func(s subject) bool
	result  Classification
}

// Classifier maps (contractId, keyXdr) to a Classification by evaluating an ordered
// rule table; the first match wins.
type Classifier struct {
	mu       sync.RWMutex
	soroswap map[string]struct{}
	phoenix  map[string]struct{}
	rules    []rule
}

// NewClassifier builds a classifier for the given factory sets.
func NewClassifier(sets FactorySets) *Classifier {
	factoryInstance := func(p model.Protocol) Classification {
		return Classification{Protocol: p, ContractType: model.ContractTypeFactory, StorageType: model.StorageTypeInstance}
	}
	factoryPersistent := func(p model.Protocol) Classification {
		return Classification{Protocol: p, ContractType: model.ContractTypeFactory, StorageType: model.StorageTypePersistent}
	}
	phoenixKey := func(key string) func(s subject) bool {
		return func(s subject) bool { return s.phoenix && s.keyXdr == key }
	}

	return &Classifier{
		soroswap: toSet(sets.Soroswap),
		phoenix:  toSet(sets.Phoenix),
		rules: []rule{
			{
				outcome: OutcomeSoroswapFactoryInstance,
				match:   func(s subject) bool { return s.soroswap && s.keyXdr == InstanceKeyXdr },
				result:  factoryInstance(model.ProtocolSoroswap),
			},
			{
				outcome: OutcomePhoenixFactoryInstance,
				match:   func(s subject) bool { return s.phoenix && s.keyXdr == InstanceKeyXdr },
				result:  factoryInstance(model.ProtocolPhoenix),
			},
			{
				outcome: OutcomeSoroswapFactoryPersistent,
				match:   func(s subject) bool { return s.soroswap && s.keyXdr != InstanceKeyXdr },
				result:  factoryPersistent(model.ProtocolSoroswap),
			},
			{outcome: OutcomePhoenixFactoryConfig, match: phoenixKey(PhoenixConfigKeyXdr), result: factoryPersistent(model.ProtocolPhoenix)},
			{outcome: OutcomePhoenixFactoryLpVec, match: phoenixKey(PhoenixLpVecKeyXdr), result: factoryPersistent(model.ProtocolPhoenix)},
			{outcome: OutcomePhoenixFactoryInitialized, match: phoenixKey(PhoenixInitializedKeyXdr), result: factoryPersistent(model.ProtocolPhoenix)},
			{
				outcome: OutcomePairStorage,
				match:   func(s subject) bool { return !s.soroswap && !s.phoenix && s.keyXdr == InstanceKeyXdr },
				result:  Classification{ContractType: model.ContractTypePair, StorageType: model.StorageTypeInstance},
			},
		},
	}
}

// Classify returns the classification and the matching rule. ok is false (with
// OutcomeOther) when no rule matches.
func (c *Classifier) Classify(contractID, keyXdr string) (Classification, Outcome, bool) {
	c.mu.RLock()
	_, soroswap := c.soroswap[contractID]
	_, phoenix := c.phoenix[contractID]
	c.mu.RUnlock()
	s := subject{soroswap: soroswap, phoenix: phoenix, keyXdr: keyXdr}

	for _, r := range c.rules {
		if r.match(s) {
			return r.result, r.outcome, true
		}
	}
	return Classification{}, OutcomeOther, false
}

// AddSoroswapFactory registers a factory resolved at runtime. It reports whether the
// set changed; ids already known to either protocol are left alone.
func (c *Classifier) AddSoroswapFactory(contractID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.soroswap[contractID]; ok {
		return false
	}
	if _, ok := c.phoenix[contractID]; ok {
		return false
	}
	c.soroswap[contractID] = struct{}{}
	return true
}

// Apply stamps a classification onto a subscription.
func (cl Classification) Apply(sub model.Subscription) model.Subscription {
	sub.Protocol = cl.Protocol
	sub.ContractType = cl.ContractType
	sub.StorageType = cl.StorageType
	return sub
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
