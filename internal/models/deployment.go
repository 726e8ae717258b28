package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/Bidon15/summonpredict/internal/ethereum"
	"github.com/Bidon15/summonpredict/internal/registry"
)

// DeploymentRecord is an indexed NewDAO event.
type DeploymentRecord struct {
	ID          uuid.UUID      `json:"id"`
	ChainID     int64          `json:"chain_id"`
	Factory     common.Address `json:"factory"`
	LogIndex    int            `json:"log_index"`
	Summoner    common.Address `json:"summoner"`
	DAO         common.Address `json:"dao"`
	BlockNumber uint64         `json:"block_number"`
	TxHash      common.Hash    `json:"tx_hash"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewDeploymentRecord builds the record for a deployment read from factory.
func NewDeploymentRecord(chainID int64, factory common.Address, d registry.Deployment) *DeploymentRecord {
	return &DeploymentRecord{
		ID:          uuid.New(),
		ChainID:     chainID,
		Factory:     factory,
		LogIndex:    d.Index,
		Summoner:    d.Summoner,
		DAO:         d.DAO,
		BlockNumber: d.BlockNumber,
		TxHash:      d.TxHash,
	}
}

// Deployment converts the record back to its registry form.
func (r *DeploymentRecord) Deployment() registry.Deployment {
	return registry.Deployment{
		Index:       r.LogIndex,
		Summoner:    r.Summoner,
		DAO:         r.DAO,
		BlockNumber: r.BlockNumber,
		TxHash:      r.TxHash,
	}
}

// DeploymentResponse is the API form of a deployment.
type DeploymentResponse struct {
	Index           int    `json:"index" yaml:"index"`
	Summoner        string `json:"summoner" yaml:"summoner"`
	DAO             string `json:"dao" yaml:"dao"`
	BlockNumber     uint64 `json:"block_number" yaml:"block_number"`
	TransactionHash string `json:"transaction_hash" yaml:"transaction_hash"`
}

// NewDeploymentResponse renders d with lower-case hex.
func NewDeploymentResponse(d registry.Deployment) *DeploymentResponse {
	return &DeploymentResponse{
		Index:           d.Index,
		Summoner:        ethereum.EncodeAddress(d.Summoner),
		DAO:             ethereum.EncodeAddress(d.DAO),
		BlockNumber:     d.BlockNumber,
		TransactionHash: ethereum.EncodeHash(d.TxHash),
	}
}

// SyncResult reports one indexing pass.
type SyncResult struct {
	FromBlock uint64 `json:"from_block" yaml:"from_block"`
	Found     int    `json:"found" yaml:"found"`
	Inserted  int    `json:"inserted" yaml:"inserted"`
}

// DeploymentList is a page of deployments and where it was read from.
type DeploymentList struct {
	FromBlock   uint64                `json:"from_block" yaml:"from_block"`
	Source      string                `json:"source" yaml:"source"`
	Deployments []*DeploymentResponse `json:"deployments" yaml:"deployments"`
}

// Deployment list sources.
const (
	SourceIndex = "index"
	SourceChain = "chain"
)
