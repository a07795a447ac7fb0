// Package domain contains the core domain types for the venues context.
package domain

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// TokenPair is an unordered pair of token addresses in canonical
// form: Token0 sorts below Token1 byte-wise, matching how pair
// registries key their pools. Two pairs over the same tokens are
// always equal regardless of construction order.
type TokenPair struct {
	Token0 common.Address
	Token1 common.Address
}

// NewTokenPair creates a canonical pair from two token addresses.
// Panics on identical addresses; callers enumerate distinct tokens.
func NewTokenPair(a, b common.Address) TokenPair {
	switch bytes.Compare(a.Bytes(), b.Bytes()) {
	case -1:
		return TokenPair{Token0: a, Token1: b}
	case 1:
		return TokenPair{Token0: b, Token1: a}
	default:
		panic("venues: pair of identical tokens")
	}
}

// Contains reports whether addr is one of the pair's tokens.
func (p TokenPair) Contains(addr common.Address) bool {
	return p.Token0 == addr || p.Token1 == addr
}

// Other returns the pair's other token. Panics if addr is not in
// the pair.
func (p TokenPair) Other(addr common.Address) common.Address {
	switch addr {
	case p.Token0:
		return p.Token1
	case p.Token1:
		return p.Token0
	default:
		panic("venues: address not in pair")
	}
}

func (p TokenPair) String() string {
	return p.Token0.Hex() + "/" + p.Token1.Hex()
}

// PairsOf enumerates every distinct canonical pair over the given
// token universe. Duplicate addresses are collapsed before pairing.
func PairsOf(tokens []common.Address) []TokenPair {
	seen := make(map[common.Address]struct{}, len(tokens))
	uniq := make([]common.Address, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		uniq = append(uniq, t)
	}

	var pairs []TokenPair
	for i := 0; i < len(uniq); i++ {
		for j := i + 1; j < len(uniq); j++ {
			pairs = append(pairs, NewTokenPair(uniq[i], uniq[j]))
		}
	}
	return pairs
}
