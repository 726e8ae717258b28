// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Bidon15/summonpredict/internal/create2"
	"github.com/Bidon15/summonpredict/internal/ethereum"
	"github.com/Bidon15/summonpredict/internal/models"
	apierrors "github.com/Bidon15/summonpredict/internal/pkg/errors"
	"github.com/Bidon15/summonpredict/internal/registry"
	"github.com/Bidon15/summonpredict/internal/repository"
)

// PredictionService defines the operations exposed over HTTP, JSON-RPC and
// the CLI.
type PredictionService interface {
	// Predict returns the DAO and token addresses a summoning would create.
	Predict(ctx context.Context, req *models.PredictRequest) (*models.PredictResponse, error)
	// Explain is Predict with every intermediate value.
	Explain(ctx context.Context, req *models.PredictRequest) (*models.ExplainResponse, error)
	// Implementations reads the implementations of the configured summoner.
	Implementations(ctx context.Context) (*models.ImplementationsResponse, error)
	// Deployments lists summoned DAOs, from the index when one is configured.
	Deployments(ctx context.Context, fromBlock uint64) (*models.DeploymentList, error)
	// SyncDeployments copies NewDAO events into the index.
	SyncDeployments(ctx context.Context, fromBlock uint64) (*models.SyncResult, error)
	// Tokens reads the token addresses of a deployed DAO.
	Tokens(ctx context.Context, dao string) (*models.DAOTokensResponse, error)
}

// Options configures a PredictionService. Registry, Tokens and Repository
// are optional; operations that need a missing one fail with
// service_unavailable.
type Options struct {
	Registry   registry.Registry
	Tokens     registry.TokenReader
	Repository repository.DeploymentRepository
	Factory    common.Address
	ChainID    int64
	StartBlock uint64
	Logger     *slog.Logger
}

type predictionService struct {
	registry   registry.Registry
	tokens     registry.TokenReader
	repo       repository.DeploymentRepository
	factory    common.Address
	chainID    int64
	startBlock uint64
	logger     *slog.Logger
}

// NewPredictionService creates a new prediction service.
func NewPredictionService(opts Options) PredictionService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &predictionService{
		registry:   opts.Registry,
		tokens:     opts.Tokens,
		repo:       opts.Repository,
		factory:    opts.Factory,
		chainID:    opts.ChainID,
		startBlock: opts.StartBlock,
		logger:     logger,
	}
}

// Predict implements PredictionService.
func (s *predictionService) Predict(ctx context.Context, req *models.PredictRequest) (*models.PredictResponse, error) {
	impls, b, err := s.explain(ctx, req)
	if err != nil {
		return nil, err
	}
	return &models.PredictResponse{
		Addresses:       b.Addresses,
		Implementations: models.NewImplementationsResponse(impls),
		Salt:            ethereum.EncodeHash(b.PrimarySalt),
	}, nil
}

// Explain implements PredictionService.
func (s *predictionService) Explain(ctx context.Context, req *models.PredictRequest) (*models.ExplainResponse, error) {
	impls, b, err := s.explain(ctx, req)
	if err != nil {
		return nil, err
	}
	return models.NewExplainResponse(impls, b), nil
}

func (s *predictionService) explain(ctx context.Context, req *models.PredictRequest) (registry.Implementations, *create2.Breakdown, error) {
	if req == nil {
		return registry.Implementations{}, nil, apierrors.ErrBadRequest.WithMessage("request body is required")
	}

	raw := req.Raw()
	if raw.SummonerAddress == "" && s.factory != (common.Address{}) {
		raw.SummonerAddress = ethereum.EncodeAddress(s.factory)
	}
	cfg, err := create2.ParseConfig(raw)
	if err != nil {
		return registry.Implementations{}, nil, s.validationError(err)
	}

	if cfg.MissingImplementations() {
		if err := s.fillImplementations(ctx, &cfg); err != nil {
			return registry.Implementations{}, nil, err
		}
	}

	b, err := create2.Explain(cfg)
	if err != nil {
		return registry.Implementations{}, nil, s.validationError(err)
	}

	impls := registry.Implementations{
		Factory: cfg.Factory,
		Primary: cfg.PrimaryImpl,
		Shares:  cfg.DependentImpls[create2.SharesIndex],
		Badges:  cfg.DependentImpls[create2.BadgesIndex],
		Loot:    cfg.DependentImpls[create2.LootIndex],
	}
	s.logger.Debug("predicted addresses",
		slog.String("summoner", impls.Factory.Hex()),
		slog.String("dao", b.Addresses.Primary.Hex()),
		slog.Int("holders", len(cfg.Holders)),
	)
	return impls, b, nil
}

// fillImplementations replaces zero implementation addresses in cfg with the
// ones recorded on chain. Addresses given by the caller are kept.
func (s *predictionService) fillImplementations(ctx context.Context, cfg *create2.DeploymentConfig) error {
	if s.registry == nil {
		return apierrors.NewValidationError("moloch_implementation",
			"implementation addresses are required when no chain RPC is configured")
	}
	if cfg.Factory != s.factory {
		return apierrors.NewValidationError("summoner_address",
			fmt.Sprintf("implementations can only be looked up for summoner %s", ethereum.EncodeAddress(s.factory)))
	}

	if cfg.PrimaryImpl == (common.Address{}) {
		impl, err := s.registry.Implementation(ctx)
		if err != nil {
			return s.registryError("fetch implementation", err)
		}
		cfg.PrimaryImpl = impl
	}

	missing := false
	for _, impl := range cfg.DependentImpls {
		if impl == (common.Address{}) {
			missing = true
		}
	}
	if !missing {
		return nil
	}

	deps, err := s.registry.DependentImplementations(ctx, cfg.PrimaryImpl)
	if err != nil {
		return s.registryError("fetch token implementations", err)
	}
	for i := range cfg.DependentImpls {
		if cfg.DependentImpls[i] == (common.Address{}) {
			cfg.DependentImpls[i] = deps[i]
		}
	}
	return nil
}

// Implementations implements PredictionService.
func (s *predictionService) Implementations(ctx context.Context) (*models.ImplementationsResponse, error) {
	if s.registry == nil {
		return nil, apierrors.ErrServiceUnavailable.WithMessage("chain RPC is not configured")
	}
	impls, err := registry.Resolve(ctx, s.registry, s.factory)
	if err != nil {
		return nil, s.registryError("fetch implementations", err)
	}
	return models.NewImplementationsResponse(*impls), nil
}

// Deployments implements PredictionService.
func (s *predictionService) Deployments(ctx context.Context, fromBlock uint64) (*models.DeploymentList, error) {
	list := &models.DeploymentList{FromBlock: fromBlock, Deployments: []*models.DeploymentResponse{}}

	if s.repo != nil {
		records, err := s.repo.ListByFactory(ctx, s.chainID, s.factory, fromBlock)
		if err != nil {
			s.logger.Error("failed to list deployments", slog.String("error", err.Error()))
			return nil, apierrors.ErrInternal
		}
		list.Source = models.SourceIndex
		for _, rec := range records {
			list.Deployments = append(list.Deployments, models.NewDeploymentResponse(rec.Deployment()))
		}
		return list, nil
	}

	if s.registry == nil {
		return nil, apierrors.ErrServiceUnavailable.WithMessage("neither a deployment index nor a chain RPC is configured")
	}
	deployments, err := s.registry.Deployments(ctx, fromBlock)
	if err != nil {
		return nil, s.registryError("fetch deployments", err)
	}
	list.Source = models.SourceChain
	for _, d := range deployments {
		list.Deployments = append(list.Deployments, models.NewDeploymentResponse(d))
	}
	return list, nil
}

// SyncDeployments implements PredictionService. A zero fromBlock resumes
// from the highest indexed block, or the configured start block.
func (s *predictionService) SyncDeployments(ctx context.Context, fromBlock uint64) (*models.SyncResult, error) {
	if s.repo == nil {
		return nil, apierrors.ErrServiceUnavailable.WithMessage("deployment index is not configured")
	}
	if s.registry == nil {
		return nil, apierrors.ErrServiceUnavailable.WithMessage("chain RPC is not configured")
	}

	if fromBlock == 0 {
		latest, err := s.repo.LatestBlock(ctx, s.chainID, s.factory)
		if err != nil {
			s.logger.Error("failed to read latest indexed block", slog.String("error", err.Error()))
			return nil, apierrors.ErrInternal
		}
		fromBlock = max(latest, s.startBlock)
	}

	deployments, err := s.registry.Deployments(ctx, fromBlock)
	if err != nil {
		return nil, s.registryError("fetch deployments", err)
	}

	result := &models.SyncResult{FromBlock: fromBlock, Found: len(deployments)}
	for _, d := range deployments {
		inserted, err := s.repo.Upsert(ctx, models.NewDeploymentRecord(s.chainID, s.factory, d))
		if err != nil {
			s.logger.Error("failed to store deployment",
				slog.String("dao", d.DAO.Hex()),
				slog.String("error", err.Error()),
			)
			return nil, apierrors.ErrInternal
		}
		if inserted {
			result.Inserted++
		}
	}

	s.logger.Info("deployments synced",
		slog.Uint64("from_block", result.FromBlock),
		slog.Int("found", result.Found),
		slog.Int("inserted", result.Inserted),
	)
	return result, nil
}

// Tokens implements PredictionService.
func (s *predictionService) Tokens(ctx context.Context, dao string) (*models.DAOTokensResponse, error) {
	addr, err := ethereum.DecodeAddress(dao)
	if err != nil {
		return nil, apierrors.NewValidationError("address", err.Error())
	}
	if s.tokens == nil {
		return nil, apierrors.ErrServiceUnavailable.WithMessage("chain RPC is not configured")
	}

	tokens, err := s.tokens.Tokens(ctx, addr)
	if err != nil {
		if errors.Is(err, registry.ErrNoCode) {
			return nil, apierrors.NewNotFoundError("DAO").WithDetails(map[string]string{
				"address": ethereum.EncodeAddress(addr),
			})
		}
		return nil, s.registryError("fetch DAO tokens", err)
	}
	return models.NewDAOTokensResponse(tokens), nil
}

// validationError maps core input errors to a 400 and anything else to a
// logged 500.
func (s *predictionService) validationError(err error) error {
	var verr *create2.ValidationError
	if errors.As(err, &verr) {
		msg := verr.Reason
		if verr.Err != nil {
			if msg != "" {
				msg += ": "
			}
			msg += verr.Err.Error()
		}
		return apierrors.NewValidationError(verr.Field, msg)
	}
	s.logger.Error("prediction failed", slog.String("error", err.Error()))
	return apierrors.ErrInternal
}

func (s *predictionService) registryError(op string, err error) error {
	if errors.Is(err, registry.ErrNoSummoner) {
		return apierrors.ErrServiceUnavailable.WithMessage(err.Error())
	}
	s.logger.Warn("registry call failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return apierrors.NewUpstreamError(op, err)
}
