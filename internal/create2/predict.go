// Package create2 predicts the CREATE2 addresses of a summoned DAO and of the
// three token clones the DAO deploys while it initializes.
//
// The Summoner (the factory) deploys a minimal proxy of the DAO
// implementation with a salt derived from the initial holders, their share
// amounts and an optional custom salt. The DAO then deploys minimal proxies of
// the shares, badges and loot implementations, all with the same salt: the
// DAO's own address padded to 32 bytes. Every function here is pure and safe
// for concurrent use.
package create2

import (
	"encoding/json"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Bidon15/summonpredict/internal/ethereum"
)

// Dependent token clones, in the order the DAO deploys them.
const (
	SharesIndex = iota
	BadgesIndex
	LootIndex

	NumDependents
)

// DependentNames labels DependentImpls and Dependents by index.
var DependentNames = [NumDependents]string{"shares", "badges", "loot"}

// DeploymentConfig is everything the prediction depends on.
type DeploymentConfig struct {
	// Factory is the Summoner contract that deploys the DAO.
	Factory common.Address
	// PrimaryImpl is the DAO implementation the Summoner clones.
	PrimaryImpl common.Address
	// DependentImpls are the shares, badges and loot implementations.
	DependentImpls [NumDependents]common.Address
	// Holders and Shares are parallel: Shares[i] is minted to Holders[i].
	// Their order is part of the salt.
	Holders []common.Address
	Shares  []*uint256.Int
	// CustomSalt defaults to 32 zero bytes, which is also its zero value.
	CustomSalt common.Hash
}

// PredictedAddresses holds the four derived addresses.
type PredictedAddresses struct {
	Primary    common.Address
	Dependents [NumDependents]common.Address
}

// DAO returns the predicted DAO address.
func (p PredictedAddresses) DAO() common.Address { return p.Primary }

// Shares returns the predicted shares token address.
func (p PredictedAddresses) Shares() common.Address { return p.Dependents[SharesIndex] }

// Badges returns the predicted badges token address.
func (p PredictedAddresses) Badges() common.Address { return p.Dependents[BadgesIndex] }

// Loot returns the predicted loot token address.
func (p PredictedAddresses) Loot() common.Address { return p.Dependents[LootIndex] }

// addressesView is the textual form shared by JSON and YAML output.
type addressesView struct {
	Moloch string `json:"moloch" yaml:"moloch"`
	Shares string `json:"shares" yaml:"shares"`
	Badges string `json:"badges" yaml:"badges"`
	Loot   string `json:"loot" yaml:"loot"`
}

func (p PredictedAddresses) view() addressesView {
	return addressesView{
		Moloch: ethereum.EncodeAddress(p.Primary),
		Shares: ethereum.EncodeAddress(p.Shares()),
		Badges: ethereum.EncodeAddress(p.Badges()),
		Loot:   ethereum.EncodeAddress(p.Loot()),
	}
}

// MarshalJSON renders lower-case 0x addresses.
func (p PredictedAddresses) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.view())
}

// MarshalYAML renders lower-case 0x addresses.
func (p PredictedAddresses) MarshalYAML() (any, error) {
	return p.view(), nil
}

// PredictAll predicts the DAO address and the three token addresses.
func PredictAll(cfg DeploymentConfig) (*PredictedAddresses, error) {
	b, err := Explain(cfg)
	if err != nil {
		return nil, err
	}
	return &b.Addresses, nil
}

// Breakdown exposes every intermediate value of a prediction.
type Breakdown struct {
	PrimaryBytecode     []byte
	PrimaryInitCodeHash common.Hash
	PrimarySalt         common.Hash
	DependentSalt       common.Hash
	DependentBytecodes  [NumDependents][]byte
	DependentInitHashes [NumDependents]common.Hash
	Addresses           PredictedAddresses
}

// Explain runs the prediction and keeps the intermediate values.
func Explain(cfg DeploymentConfig) (*Breakdown, error) {
	if len(cfg.Holders) != len(cfg.Shares) {
		return nil, invalid("shares", "holders and shares must have the same length")
	}

	var b Breakdown
	b.PrimaryBytecode = BuildProxyBytecode(cfg.PrimaryImpl)
	b.PrimaryInitCodeHash = Keccak256(b.PrimaryBytecode)

	salt, err := PrimarySalt(cfg.Holders, cfg.Shares, cfg.CustomSalt)
	if err != nil {
		return nil, err
	}
	b.PrimarySalt = salt
	b.Addresses.Primary = DeriveFromHash(cfg.Factory, b.PrimarySalt, b.PrimaryInitCodeHash)

	// The DAO is the deployer of its own tokens.
	b.DependentSalt = DependentSalt(b.Addresses.Primary)
	for i, impl := range cfg.DependentImpls {
		b.DependentBytecodes[i] = BuildProxyBytecode(impl)
		b.DependentInitHashes[i] = Keccak256(b.DependentBytecodes[i])
		b.Addresses.Dependents[i] = DeriveFromHash(b.Addresses.Primary, b.DependentSalt, b.DependentInitHashes[i])
	}

	return &b, nil
}

// TryPredictAll is PredictAll for display code that only needs to know
// whether a prediction is available. Failures are logged and yield nil.
func TryPredictAll(cfg *DeploymentConfig, logger *slog.Logger) *PredictedAddresses {
	if cfg == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	addrs, err := PredictAll(*cfg)
	if err != nil {
		logger.Error("address prediction failed", slog.String("error", err.Error()))
		return nil
	}
	return addrs
}
