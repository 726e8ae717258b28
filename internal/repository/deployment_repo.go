// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bidon15/summonpredict/internal/models"
)

// DeploymentRepository stores indexed NewDAO events.
type DeploymentRepository interface {
	// Upsert inserts rec unless (chain_id, tx_hash, dao) is already stored.
	// It reports whether a row was inserted.
	Upsert(ctx context.Context, rec *models.DeploymentRecord) (bool, error)
	ListByFactory(ctx context.Context, chainID int64, factory common.Address, fromBlock uint64) ([]*models.DeploymentRecord, error)
	GetByDAO(ctx context.Context, chainID int64, dao common.Address) (*models.DeploymentRecord, error)
	// LatestBlock returns the highest indexed block, or 0 when none is.
	LatestBlock(ctx context.Context, chainID int64, factory common.Address) (uint64, error)
}

type deploymentRepo struct {
	pool *pgxpool.Pool
}

// NewDeploymentRepository creates a new deployment repository.
func NewDeploymentRepository(pool *pgxpool.Pool) DeploymentRepository {
	return &deploymentRepo{pool: pool}
}

const deploymentColumns = `id, chain_id, factory, log_index, summoner, dao, block_number, tx_hash, created_at`

// Upsert inserts a deployment record, ignoring duplicates.
func (r *deploymentRepo) Upsert(ctx context.Context, rec *models.DeploymentRecord) (bool, error) {
	query := `
		INSERT INTO deployments (id, chain_id, factory, log_index, summoner, dao, block_number, tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (chain_id, tx_hash, dao) DO NOTHING
		RETURNING created_at`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.ChainID,
		rec.Factory.Bytes(),
		rec.LogIndex,
		rec.Summoner.Bytes(),
		rec.DAO.Bytes(),
		int64(rec.BlockNumber),
		rec.TxHash.Bytes(),
	).Scan(&rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert deployment: %w", err)
	}
	return true, nil
}

// ListByFactory returns the deployments of factory at or after fromBlock in
// chain order.
func (r *deploymentRepo) ListByFactory(ctx context.Context, chainID int64, factory common.Address, fromBlock uint64) ([]*models.DeploymentRecord, error) {
	query := `SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE chain_id = $1 AND factory = $2 AND block_number >= $3
		ORDER BY block_number, log_index`

	rows, err := r.pool.Query(ctx, query, chainID, factory.Bytes(), int64(fromBlock))
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	defer rows.Close()

	var out []*models.DeploymentRecord
	for rows.Next() {
		rec, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetByDAO returns the deployment that created dao, or nil.
func (r *deploymentRepo) GetByDAO(ctx context.Context, chainID int64, dao common.Address) (*models.DeploymentRecord, error) {
	query := `SELECT ` + deploymentColumns + `
		FROM deployments WHERE chain_id = $1 AND dao = $2
		ORDER BY block_number LIMIT 1`

	rec, err := scanDeployment(r.pool.QueryRow(ctx, query, chainID, dao.Bytes()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// LatestBlock returns the highest indexed block number for factory.
func (r *deploymentRepo) LatestBlock(ctx context.Context, chainID int64, factory common.Address) (uint64, error) {
	query := `SELECT COALESCE(MAX(block_number), 0) FROM deployments WHERE chain_id = $1 AND factory = $2`

	var latest int64
	if err := r.pool.QueryRow(ctx, query, chainID, factory.Bytes()).Scan(&latest); err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	return uint64(latest), nil
}

func scanDeployment(row pgx.Row) (*models.DeploymentRecord, error) {
	var (
		rec                        models.DeploymentRecord
		factory, summoner, dao, tx []byte
		block                      int64
	)
	err := row.Scan(
		&rec.ID,
		&rec.ChainID,
		&factory,
		&rec.LogIndex,
		&summoner,
		&dao,
		&block,
		&tx,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(factory) != common.AddressLength || len(summoner) != common.AddressLength || len(dao) != common.AddressLength {
		return nil, fmt.Errorf("deployment %s: malformed address column", rec.ID)
	}
	if len(tx) != common.HashLength {
		return nil, fmt.Errorf("deployment %s: malformed tx_hash column", rec.ID)
	}
	rec.Factory = common.BytesToAddress(factory)
	rec.Summoner = common.BytesToAddress(summoner)
	rec.DAO = common.BytesToAddress(dao)
	rec.BlockNumber = uint64(block)
	rec.TxHash = common.BytesToHash(tx)
	return &rec, nil
}
