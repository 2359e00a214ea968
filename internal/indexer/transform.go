package indexer

import (
	"time"

	"pairScope/internal/dex"
	"pairScope/internal/model"
	"pairScope/internal/protocol"
)

// buildSubscription stamps the classification of (contractID, keyXdr). Unclassifiable
// slots keep unset classification fields.
func buildSubscription(classifier *protocol.Classifier, network model.Network, contractID, keyXdr string, now time.Time) model.Subscription {
	sub := model.Subscription{
		ContractID: contractID,
		KeyXdr:     keyXdr,
		Network:    network,
		CreatedAt:  now.UTC(),
	}
	if classifier == nil {
		return sub
	}
	if cl, _, ok := classifier.Classify(contractID, keyXdr); ok {
		sub = cl.Apply(sub)
	}
	return sub
}

func buildPool(pair model.PairInstanceEntry, tokens *dex.TokenList, network model.Network) model.LiquidityPool {
	return model.LiquidityPool{
		Address:  pair.Address,
		Token0:   tokens.Resolve(network, pair.Token0),
		Token1:   tokens.Resolve(network, pair.Token1),
		Reserve0: pair.Reserve0,
		Reserve1: pair.Reserve1,
	}
}
