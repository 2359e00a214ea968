package model

// Token captures Soroban token contract metadata.
type Token struct {
	Contract string `json:"contract"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Decimals uint32 `json:"decimals"`
}

// LiquidityPool is a pair snapshot: both tokens and their reserves.
// Reserves are base-unit integers encoded as decimal strings.
type LiquidityPool struct {
	Address  string `json:"address"`
	Token0   Token  `json:"token0"`
	Token1   Token  `json:"token1"`
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
}
