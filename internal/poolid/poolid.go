// Package poolid identifies a venue and a token pair without touching the
// pricing math itself: reserves, ticks, and sqrt prices all live in
// pkg/pools/*; this package exists purely to give the example programs
// (cmd/sandwichsim) a stable key to register and look up pool state by,
// the way the teacher's concentrated_liquidity.Pool keys a pool on
// (tokenA, tokenB, fee) (spec §6: identity, never derived into pricing).
package poolid

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ID is the identity of a two-token venue: its two token addresses
// (order-independent — canonicalized so (A,B) and (B,A) compare equal) and
// a venue-specific fee tier.
type ID struct {
	TokenA common.Address
	TokenB common.Address
	FeeBps uint32
}

// New canonicalizes tokenA/tokenB into a consistent order (lexicographically
// smaller address first) so an ID built from either token ordering compares
// equal.
func New(tokenA, tokenB common.Address, feeBps uint32) ID {
	if bytesLess(tokenB, tokenA) {
		tokenA, tokenB = tokenB, tokenA
	}
	return ID{TokenA: tokenA, TokenB: tokenB, FeeBps: feeBps}
}

func bytesLess(a, b common.Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// String renders a stable, human-readable key for logging and map use.
func (id ID) String() string {
	return fmt.Sprintf("%s/%s@%d", id.TokenA.Hex(), id.TokenB.Hex(), id.FeeBps)
}

// Registry maps pool identities to an arbitrary state snapshot type,
// letting cmd/sandwichsim hold several pools of potentially different
// families (v2.State, v3.State, ...) behind one lookup keyed by ID.
type Registry[S any] struct {
	pools map[ID]S
}

// NewRegistry returns an empty Registry.
func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{pools: make(map[ID]S)}
}

// Set records or replaces the state for id.
func (r *Registry[S]) Set(id ID, state S) {
	r.pools[id] = state
}

// Get returns the state for id and whether it was present.
func (r *Registry[S]) Get(id ID) (S, bool) {
	s, ok := r.pools[id]
	return s, ok
}

// Delete removes id from the registry, if present.
func (r *Registry[S]) Delete(id ID) {
	delete(r.pools, id)
}

// Len returns the number of pools currently registered.
func (r *Registry[S]) Len() int {
	return len(r.pools)
}
