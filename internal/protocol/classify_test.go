package protocol

import (
	"testing"

	"pairScope/internal/model"
)

const (
	soroswapFactory = "CA4HEQTL2WPEUYKYKCDOHCDNIV4QHNJ7EL4J4NQ6VADP7SYHVRYZ7AW2"
	phoenixFactory  = "CB4SVAWJA6TSRNOJZ7W2AWFW46D5VR4ZMFZKDIKXEINZCZEGZCJZCKMI"
	pairContract    = "CDP3HMUH6SMS3S7NPGNDJLULCOXXEPSHY4JKUKMBNQMATHDHWXRRJTBY"
	arbitraryKey    = "AAAAEAAAAAEAAAACAAAADwAAABVQYWlyQWRkcmVzc2VzTkluZGV4ZWQAAAAAAAADAAAAAA=="
)

func TestClassifyPhoenixLpVec(t *testing.T) {
	c := NewClassifier(FactorySets{Soroswap: []string{soroswapFactory}, Phoenix: []string{phoenixFactory}})

	got, outcome, ok := c.Classify(phoenixFactory, PhoenixLpVecKeyXdr)
	if !ok {
		t.Fatalf("expected classification")
	}
	want := Classification{Protocol: model.ProtocolPhoenix, ContractType: model.ContractTypeFactory, StorageType: model.StorageTypePersistent}
	if got != want {
		t.Fatalf("classification mismatch: %+v != %+v", got, want)
	}
	if outcome != OutcomePhoenixFactoryLpVec {
		t.Fatalf("outcome mismatch: %s", outcome)
	}
}

func TestClassifyTotality(t *testing.T) {
	c := NewClassifier(FactorySets{Soroswap: []string{soroswapFactory}, Phoenix: []string{phoenixFactory}})

	factoryInstance := func(p model.Protocol) Classification {
		return Classification{Protocol: p, ContractType: model.ContractTypeFactory, StorageType: model.StorageTypeInstance}
	}
	factoryPersistent := func(p model.Protocol) Classification {
		return Classification{Protocol: p, ContractType: model.ContractTypeFactory, StorageType: model.StorageTypePersistent}
	}
	pairInstance := Classification{ContractType: model.ContractTypePair, StorageType: model.StorageTypeInstance}

	type expectation struct {
		ok      bool
		outcome Outcome
		result  Classification
	}

	keys := []string{InstanceKeyXdr, PhoenixConfigKeyXdr, PhoenixLpVecKeyXdr, PhoenixInitializedKeyXdr, arbitraryKey}
	want := map[string][]expectation{
		soroswapFactory: {
			{true, OutcomeSoroswapFactoryInstance, factoryInstance(model.ProtocolSoroswap)},
			{true, OutcomeSoroswapFactoryPersistent, factoryPersistent(model.ProtocolSoroswap)},
			{true, OutcomeSoroswapFactoryPersistent, factoryPersistent(model.ProtocolSoroswap)},
			{true, OutcomeSoroswapFactoryPersistent, factoryPersistent(model.ProtocolSoroswap)},
			{true, OutcomeSoroswapFactoryPersistent, factoryPersistent(model.ProtocolSoroswap)},
		},
		phoenixFactory: {
			{true, OutcomePhoenixFactoryInstance, factoryInstance(model.ProtocolPhoenix)},
			{true, OutcomePhoenixFactoryConfig, factoryPersistent(model.ProtocolPhoenix)},
			{true, OutcomePhoenixFactoryLpVec, factoryPersistent(model.ProtocolPhoenix)},
			{true, OutcomePhoenixFactoryInitialized, factoryPersistent(model.ProtocolPhoenix)},
			{false, OutcomeOther, Classification{}},
		},
		pairContract: {
			{true, OutcomePairStorage, pairInstance},
			{false, OutcomeOther, Classification{}},
			{false, OutcomeOther, Classification{}},
			{false, OutcomeOther, Classification{}},
			{false, OutcomeOther, Classification{}},
		},
	}

	for contract, expectations := range want {
		for i, key := range keys {
			exp := expectations[i]
			got, outcome, ok := c.Classify(contract, key)
			if ok != exp.ok || outcome != exp.outcome || got != exp.result {
				t.Fatalf("classify(%s, %s) = (%+v, %s, %v), want (%+v, %s, %v)",
					contract, key, got, outcome, ok, exp.result, exp.outcome, exp.ok)
			}
		}
	}
}

func TestClassifyRulesMutuallyExclusive(t *testing.T) {
	c := NewClassifier(FactorySets{Soroswap: []string{soroswapFactory}, Phoenix: []string{phoenixFactory}})

	keys := []string{InstanceKeyXdr, PhoenixConfigKeyXdr, PhoenixLpVecKeyXdr, PhoenixInitializedKeyXdr, arbitraryKey}
	for _, contract := range []string{soroswapFactory, phoenixFactory, pairContract} {
		for _, key := range keys {
			s := subject{
				soroswap: contract == soroswapFactory,
				phoenix:  contract == phoenixFactory,
				keyXdr:   key,
			}
			matches := 0
			for _, r := range c.rules {
				if r.match(s) {
					matches++
				}
			}
			if matches > 1 {
				t.Fatalf("%s/%s matched %d rules", contract, key, matches)
			}
		}
	}
}

func TestClassificationApply(t *testing.T) {
	cl := Classification{Protocol: model.ProtocolSoroswap, ContractType: model.ContractTypeFactory, StorageType: model.StorageTypeInstance}
	sub := cl.Apply(model.Subscription{ContractID: soroswapFactory, KeyXdr: InstanceKeyXdr, Network: model.NetworkMainnet})
	if sub.Protocol != model.ProtocolSoroswap || sub.StorageType != model.StorageTypeInstance || sub.Network != model.NetworkMainnet {
		t.Fatalf("apply mismatch: %+v", sub)
	}
}

func TestAddSoroswapFactory(t *testing.T) {
	c := NewClassifier(FactorySets{Phoenix: []string{phoenixFactory}})

	if _, outcome, _ := c.Classify(soroswapFactory, arbitraryKey); outcome != OutcomeOther {
		t.Fatalf("unknown factory key must be unclassified, got %s", outcome)
	}
	if !c.AddSoroswapFactory(soroswapFactory) {
		t.Fatalf("expected the factory to be added")
	}
	if c.AddSoroswapFactory(soroswapFactory) {
		t.Fatalf("second add must report no change")
	}
	if _, outcome, ok := c.Classify(soroswapFactory, arbitraryKey); !ok || outcome != OutcomeSoroswapFactoryPersistent {
		t.Fatalf("added factory key outcome = %s", outcome)
	}

	if c.AddSoroswapFactory(phoenixFactory) {
		t.Fatalf("a phoenix factory must not become soroswap")
	}
	if _, outcome, _ := c.Classify(phoenixFactory, InstanceKeyXdr); outcome != OutcomePhoenixFactoryInstance {
		t.Fatalf("phoenix factory outcome = %s", outcome)
	}
}
