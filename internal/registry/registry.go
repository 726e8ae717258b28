// Package registry reads the on-chain facts an address prediction depends on:
// the implementation addresses a Summoner clones and the DAOs it has already
// summoned.
package registry

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Bidon15/summonpredict/internal/create2"
)

// Sentinel errors
var (
	ErrNoSummoner       = errors.New("registry: summoner address not configured")
	ErrNoImplementation = errors.New("registry: implementation not set")
	ErrNoCode           = errors.New("registry: no contract code at address")
)

// Registry is the read-only view of the chain that prediction needs.
type Registry interface {
	// Implementation returns the DAO implementation the Summoner clones.
	Implementation(ctx context.Context) (common.Address, error)
	// DependentImplementations returns the shares, badges and loot
	// implementations recorded on a DAO implementation.
	DependentImplementations(ctx context.Context, primary common.Address) ([create2.NumDependents]common.Address, error)
	// Deployments lists NewDAO events emitted since fromBlock.
	Deployments(ctx context.Context, fromBlock uint64) ([]Deployment, error)
}

// TokenReader reads the token addresses of an already summoned DAO.
type TokenReader interface {
	Tokens(ctx context.Context, dao common.Address) (*DAOTokens, error)
}

// Implementations is the full set of addresses a prediction clones.
type Implementations struct {
	Factory common.Address `json:"summoner_address"`
	Primary common.Address `json:"moloch_implementation"`
	Shares  common.Address `json:"shares_implementation"`
	Badges  common.Address `json:"badges_implementation"`
	Loot    common.Address `json:"loot_implementation"`
}

// Dependents returns the token implementations in deployment order.
func (i Implementations) Dependents() [create2.NumDependents]common.Address {
	return [create2.NumDependents]common.Address{i.Shares, i.Badges, i.Loot}
}

// Deployment is one NewDAO event.
type Deployment struct {
	Index       int            `json:"index"`
	Summoner    common.Address `json:"summoner"`
	DAO         common.Address `json:"dao"`
	BlockNumber uint64         `json:"block_number"`
	TxHash      common.Hash    `json:"transaction_hash"`
}

// DAOTokens describes a deployed DAO and its token clones.
type DAOTokens struct {
	DAO    common.Address `json:"dao"`
	Name   string         `json:"name"`
	Symbol string         `json:"symbol"`
	Shares common.Address `json:"shares"`
	Badges common.Address `json:"badges"`
	Loot   common.Address `json:"loot"`
}

// Resolve fetches the DAO implementation and its three token
// implementations in sequence.
func Resolve(ctx context.Context, r Registry, factory common.Address) (*Implementations, error) {
	primary, err := r.Implementation(ctx)
	if err != nil {
		return nil, err
	}
	deps, err := r.DependentImplementations(ctx, primary)
	if err != nil {
		return nil, err
	}
	return &Implementations{
		Factory: factory,
		Primary: primary,
		Shares:  deps[create2.SharesIndex],
		Badges:  deps[create2.BadgesIndex],
		Loot:    deps[create2.LootIndex],
	}, nil
}
