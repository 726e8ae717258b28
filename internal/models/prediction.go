// Package models defines request, response and persisted types.
package models

import (
	"github.com/Bidon15/summonpredict/internal/create2"
	"github.com/Bidon15/summonpredict/internal/ethereum"
	"github.com/Bidon15/summonpredict/internal/registry"
)

// PredictRequest asks for the addresses a summoning would produce. Empty
// implementation addresses are looked up on chain; an empty summoner selects
// the configured one. Addresses take an optional 0x prefix.
type PredictRequest struct {
	SummonerAddress      string   `json:"summoner_address,omitempty" yaml:"summoner_address" validate:"omitempty,address"`
	MolochImplementation string   `json:"moloch_implementation,omitempty" yaml:"moloch_implementation" validate:"omitempty,address"`
	SharesImplementation string   `json:"shares_implementation,omitempty" yaml:"shares_implementation" validate:"omitempty,address"`
	BadgesImplementation string   `json:"badges_implementation,omitempty" yaml:"badges_implementation" validate:"omitempty,address"`
	LootImplementation   string   `json:"loot_implementation,omitempty" yaml:"loot_implementation" validate:"omitempty,address"`
	InitHolders          []string `json:"init_holders" yaml:"init_holders" validate:"dive,address"`
	InitShares           []string `json:"init_shares" yaml:"init_shares" validate:"dive,required"`
	CustomSalt           string   `json:"custom_salt,omitempty" yaml:"custom_salt" validate:"omitempty,hexadecimal"`
}

// Raw returns the request in the form create2.ParseConfig accepts.
func (r *PredictRequest) Raw() create2.RawConfig {
	return create2.RawConfig{
		SummonerAddress:      r.SummonerAddress,
		MolochImplementation: r.MolochImplementation,
		SharesImplementation: r.SharesImplementation,
		BadgesImplementation: r.BadgesImplementation,
		LootImplementation:   r.LootImplementation,
		InitHolders:          r.InitHolders,
		InitShares:           r.InitShares,
		CustomSalt:           r.CustomSalt,
	}
}

// ImplementationsResponse lists the addresses a prediction cloned.
type ImplementationsResponse struct {
	SummonerAddress      string `json:"summoner_address" yaml:"summoner_address"`
	MolochImplementation string `json:"moloch_implementation" yaml:"moloch_implementation"`
	SharesImplementation string `json:"shares_implementation" yaml:"shares_implementation"`
	BadgesImplementation string `json:"badges_implementation" yaml:"badges_implementation"`
	LootImplementation   string `json:"loot_implementation" yaml:"loot_implementation"`
}

// NewImplementationsResponse renders impls with lower-case hex.
func NewImplementationsResponse(impls registry.Implementations) *ImplementationsResponse {
	return &ImplementationsResponse{
		SummonerAddress:      ethereum.EncodeAddress(impls.Factory),
		MolochImplementation: ethereum.EncodeAddress(impls.Primary),
		SharesImplementation: ethereum.EncodeAddress(impls.Shares),
		BadgesImplementation: ethereum.EncodeAddress(impls.Badges),
		LootImplementation:   ethereum.EncodeAddress(impls.Loot),
	}
}

// PredictResponse carries the predicted addresses and the inputs used.
type PredictResponse struct {
	Addresses       create2.PredictedAddresses `json:"addresses" yaml:"addresses"`
	Implementations *ImplementationsResponse   `json:"implementations" yaml:"implementations"`
	Salt            string                     `json:"salt" yaml:"salt"`
}

// ExplainResponse exposes every intermediate value of a prediction.
type ExplainResponse struct {
	Implementations     *ImplementationsResponse   `json:"implementations" yaml:"implementations"`
	PrimarySalt         string                     `json:"primary_salt" yaml:"primary_salt"`
	PrimaryBytecode     string                     `json:"primary_bytecode" yaml:"primary_bytecode"`
	PrimaryInitCodeHash string                     `json:"primary_init_code_hash" yaml:"primary_init_code_hash"`
	DependentSalt       string                     `json:"dependent_salt" yaml:"dependent_salt"`
	DependentInitHashes map[string]string          `json:"dependent_init_code_hashes" yaml:"dependent_init_code_hashes"`
	Addresses           create2.PredictedAddresses `json:"addresses" yaml:"addresses"`
}

// NewExplainResponse renders a breakdown.
func NewExplainResponse(impls registry.Implementations, b *create2.Breakdown) *ExplainResponse {
	hashes := make(map[string]string, create2.NumDependents)
	for i, name := range create2.DependentNames {
		hashes[name] = ethereum.EncodeHash(b.DependentInitHashes[i])
	}
	return &ExplainResponse{
		Implementations:     NewImplementationsResponse(impls),
		PrimarySalt:         ethereum.EncodeHash(b.PrimarySalt),
		PrimaryBytecode:     ethereum.EncodeBytes(b.PrimaryBytecode),
		PrimaryInitCodeHash: ethereum.EncodeHash(b.PrimaryInitCodeHash),
		DependentSalt:       ethereum.EncodeHash(b.DependentSalt),
		DependentInitHashes: hashes,
		Addresses:           b.Addresses,
	}
}

// DAOTokensResponse is the API form of registry.DAOTokens.
type DAOTokensResponse struct {
	DAO    string `json:"dao" yaml:"dao"`
	Name   string `json:"name" yaml:"name"`
	Symbol string `json:"symbol" yaml:"symbol"`
	Shares string `json:"shares" yaml:"shares"`
	Badges string `json:"badges" yaml:"badges"`
	Loot   string `json:"loot" yaml:"loot"`
}

// NewDAOTokensResponse renders t with lower-case hex.
func NewDAOTokensResponse(t *registry.DAOTokens) *DAOTokensResponse {
	return &DAOTokensResponse{
		DAO:    ethereum.EncodeAddress(t.DAO),
		Name:   t.Name,
		Symbol: t.Symbol,
		Shares: ethereum.EncodeAddress(t.Shares),
		Badges: ethereum.EncodeAddress(t.Badges),
		Loot:   ethereum.EncodeAddress(t.Loot),
	}
}
