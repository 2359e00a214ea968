package dex

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pairScope/internal/model"
)

// DefaultTokenDecimals applies to tokens missing from the token list.
// Stellar asset contracts use seven decimals.
const DefaultTokenDecimals = 7

// TokenList holds known token metadata per network.
type TokenList struct {
	tokens map[model.Network]map[string]model.Token
}

type tokenListFile map[string][]tokenListItem

type tokenListItem struct {
	Contract string  `yaml:"contract"`
	Code     string  `yaml:"code"`
	Name     string  `yaml:"name"`
	Decimals *uint32 `yaml:"decimals"`
}

// NewTokenList builds a list from in-memory tokens.
func NewTokenList(tokens map[model.Network][]model.Token) *TokenList {
	list := &TokenList{
		tokens: make(map[model.Network]map[string]model.Token, len(tokens)),
	}
	for network, items := range tokens {
		byContract := make(map[string]model.Token, len(items))
		for _, token := range items {
			byContract[token.Contract] = token
		}
		list.tokens[network] = byContract
	}
	return list
}

// LoadTokenList reads a YAML (or JSON) token list keyed by network:
//
//	mainnet:
//	  - contract: CAS3...
//	    code: USDC
//	    name: USD Coin
//	    decimals: 7
//
// An empty path yields an empty list.
func LoadTokenList(path string) (*TokenList, error) {
	if path == "" {
		return NewTokenList(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token list: %w", err)
	}
	return ParseTokenList(data)
}

// ParseTokenList parses token list bytes.
func ParseTokenList(data []byte) (*TokenList, error) {
	var file tokenListFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse token list: %w", err)
	}

	tokens := make(map[model.Network][]model.Token, len(file))
	for key, items := range file {
		network, err := model.ParseNetwork(key)
		if err != nil {
			return nil, fmt.Errorf("token list: %w", err)
		}
		for _, item := range items {
			contract := strings.TrimSpace(item.Contract)
			if contract == "" {
				continue
			}
			decimals := uint32(DefaultTokenDecimals)
			if item.Decimals != nil {
				decimals = *item.Decimals
			}
			tokens[network] = append(tokens[network], model.Token{
				Contract: contract,
				Code:     item.Code,
				Name:     item.Name,
				Decimals: decimals,
			})
		}
	}
	return NewTokenList(tokens), nil
}

// Resolve returns token metadata for a contract. Unknown tokens use the contract
// address as both code and name.
func (l *TokenList) Resolve(network model.Network, contract string) model.Token {
	if l == nil {
		return fallbackToken(contract)
	}
	if token, ok := l.tokens[network][contract]; ok {
		return token
	}
	return fallbackToken(contract)
}

func fallbackToken(contract string) model.Token {
	return model.Token{
		Contract: contract,
		Code:     contract,
		Name:     contract,
		Decimals: DefaultTokenDecimals,
	}
}
