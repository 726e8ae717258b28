package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Bidon15/summonpredict/internal/create2"
	"github.com/Bidon15/summonpredict/internal/models"
	apierrors "github.com/Bidon15/summonpredict/internal/pkg/errors"
	"github.com/Bidon15/summonpredict/internal/registry"
	"github.com/Bidon15/summonpredict/internal/registry/registrytest"
	"github.com/Bidon15/summonpredict/internal/repository"
)

// MockDeploymentRepository is a mock implementation of DeploymentRepository for testing.
type MockDeploymentRepository struct {
	mock.Mock
}

func (m *MockDeploymentRepository) Upsert(ctx context.Context, rec *models.DeploymentRecord) (bool, error) {
	args := m.Called(ctx, rec)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeploymentRepository) ListByFactory(ctx context.Context, chainID int64, factory common.Address, fromBlock uint64) ([]*models.DeploymentRecord, error) {
	args := m.Called(ctx, chainID, factory, fromBlock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DeploymentRecord), args.Error(1)
}

func (m *MockDeploymentRepository) GetByDAO(ctx context.Context, chainID int64, dao common.Address) (*models.DeploymentRecord, error) {
	args := m.Called(ctx, chainID, dao)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeploymentRecord), args.Error(1)
}

func (m *MockDeploymentRepository) LatestBlock(ctx context.Context, chainID int64, factory common.Address) (uint64, error) {
	args := m.Called(ctx, chainID, factory)
	return args.Get(0).(uint64), args.Error(1)
}

var _ repository.DeploymentRepository = (*MockDeploymentRepository)(nil)

var (
	testFactory = common.HexToAddress("0x0000000000000000000000000000000000000001")
	testPrimary = common.HexToAddress("0x0000000000000000000000000000000000000002")
	testDeps    = [create2.NumDependents]common.Address{
		common.HexToAddress("0x0000000000000000000000000000000000000003"),
		common.HexToAddress("0x0000000000000000000000000000000000000004"),
		common.HexToAddress("0x0000000000000000000000000000000000000005"),
	}
)

func goldenRequest() *models.PredictRequest {
	return &models.PredictRequest{
		InitHolders: []string{
			"0x1234567890123456789012345678901234567890",
			"0x2234567890123456789012345678901234567890",
		},
		InitShares: []string{"1000000000000000000", "2000000000000000000"},
	}
}

func assertAPIError(t *testing.T, err error, code string, status int) *apierrors.APIError {
	t.Helper()
	require.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.Equal(t, code, apiErr.Code)
	assert.Equal(t, status, apiErr.StatusCode)
	return apiErr
}

func TestPredict_FillsImplementationsFromRegistry(t *testing.T) {
	static := registrytest.New(testPrimary, testDeps)
	svc := NewPredictionService(Options{Registry: static, Factory: testFactory})

	resp, err := svc.Predict(context.Background(), goldenRequest())
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0x23c30b970e3608e37fd5d760a3750cc60e4fac38"), resp.Addresses.DAO())
	assert.Equal(t, common.HexToAddress("0x70674594659c6d3099fec09eb2135911443b4fe4"), resp.Addresses.Shares())
	assert.Equal(t, common.HexToAddress("0x5ff408e3428fbf4ed5620188ddec3b3b1f2c105d"), resp.Addresses.Badges())
	assert.Equal(t, common.HexToAddress("0x4fc607f253dc47cf6f8c0783e674b0cedef80a20"), resp.Addresses.Loot())
	assert.Equal(t, "0x7b32ed2026d3e424d546db465a367e68a62e7e673d2161c04344048df328aff1", resp.Salt)
	assert.Equal(t, "0x0000000000000000000000000000000000000002", resp.Implementations.MolochImplementation)
	assert.Equal(t, 1, static.Calls("Implementation"))
	assert.Equal(t, 1, static.Calls("DependentImplementations"))
}

func TestPredict_ExplicitImplementationsSkipRegistry(t *testing.T) {
	static := registrytest.New(testPrimary, testDeps)
	svc := NewPredictionService(Options{Registry: static, Factory: testFactory})

	req := goldenRequest()
	req.MolochImplementation = "0x0000000000000000000000000000000000000002"
	req.SharesImplementation = "0x0000000000000000000000000000000000000003"
	req.BadgesImplementation = "0x0000000000000000000000000000000000000004"
	req.LootImplementation = "0x0000000000000000000000000000000000000005"

	resp, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x23c30b970e3608e37fd5d760a3750cc60e4fac38"), resp.Addresses.Primary)
	assert.Equal(t, 0, static.Calls("Implementation"))
	assert.Equal(t, 0, static.Calls("DependentImplementations"))
}

func TestPredict_PartialOverride(t *testing.T) {
	static := registrytest.New(testPrimary, testDeps)
	svc := NewPredictionService(Options{Registry: static, Factory: testFactory})

	req := goldenRequest()
	req.LootImplementation = "0x00000000000000000000000000000000000000ff"

	resp, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000ff", resp.Implementations.LootImplementation)
	assert.Equal(t, "0x0000000000000000000000000000000000000003", resp.Implementations.SharesImplementation)
	assert.Equal(t, common.HexToAddress("0x23c30b970e3608e37fd5d760a3750cc60e4fac38"), resp.Addresses.Primary)
	assert.NotEqual(t, common.HexToAddress("0x4fc607f253dc47cf6f8c0783e674b0cedef80a20"), resp.Addresses.Loot())
}

func TestPredict_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("nil request", func(t *testing.T) {
		svc := NewPredictionService(Options{Factory: testFactory})
		_, err := svc.Predict(ctx, nil)
		assertAPIError(t, err, "bad_request", http.StatusBadRequest)
	})

	t.Run("length mismatch", func(t *testing.T) {
		svc := NewPredictionService(Options{Registry: registrytest.New(testPrimary, testDeps), Factory: testFactory})
		req := goldenRequest()
		req.InitShares = req.InitShares[:1]
		_, err := svc.Predict(ctx, req)
		apiErr := assertAPIError(t, err, "validation_error", http.StatusBadRequest)
		assert.Equal(t, "init_shares", apiErr.Details.(map[string]string)["field"])
	})

	t.Run("no registry and missing implementations", func(t *testing.T) {
		svc := NewPredictionService(Options{Factory: testFactory})
		_, err := svc.Predict(ctx, goldenRequest())
		assertAPIError(t, err, "validation_error", http.StatusBadRequest)
	})

	t.Run("other summoner needs explicit implementations", func(t *testing.T) {
		svc := NewPredictionService(Options{Registry: registrytest.New(testPrimary, testDeps), Factory: testFactory})
		req := goldenRequest()
		req.SummonerAddress = "0x00000000000000000000000000000000000000aa"
		_, err := svc.Predict(ctx, req)
		apiErr := assertAPIError(t, err, "validation_error", http.StatusBadRequest)
		assert.Equal(t, "summoner_address", apiErr.Details.(map[string]string)["field"])
	})

	t.Run("no summoner at all", func(t *testing.T) {
		svc := NewPredictionService(Options{})
		_, err := svc.Predict(ctx, goldenRequest())
		apiErr := assertAPIError(t, err, "validation_error", http.StatusBadRequest)
		assert.Equal(t, "summoner_address", apiErr.Details.(map[string]string)["field"])
	})

	t.Run("registry failure", func(t *testing.T) {
		static := registrytest.New(testPrimary, testDeps)
		static.Err = errors.New("connection refused")
		svc := NewPredictionService(Options{Registry: static, Factory: testFactory})
		_, err := svc.Predict(ctx, goldenRequest())
		apiErr := assertAPIError(t, err, "upstream_error", http.StatusBadGateway)
		assert.Contains(t, apiErr.Message, "connection refused")
	})
}

func TestExplain(t *testing.T) {
	svc := NewPredictionService(Options{Registry: registrytest.New(testPrimary, testDeps), Factory: testFactory})

	resp, err := svc.Explain(context.Background(), goldenRequest())
	require.NoError(t, err)
	assert.Equal(t, "0x7b32ed2026d3e424d546db465a367e68a62e7e673d2161c04344048df328aff1", resp.PrimarySalt)
	assert.Equal(t, "0xef5f6678e47903152903141d3f3a5769eb4ee0ecd3b4196c079e3c7a48d3443e", resp.PrimaryInitCodeHash)
	assert.Equal(t, "0x23c30b970e3608e37fd5d760a3750cc60e4fac38000000000000000000000000", resp.DependentSalt)
	assert.Len(t, resp.DependentInitHashes, 3)
	assert.Contains(t, resp.DependentInitHashes, "badges")
}

func TestImplementations(t *testing.T) {
	svc := NewPredictionService(Options{Registry: registrytest.New(testPrimary, testDeps), Factory: testFactory})
	resp, err := svc.Implementations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.ImplementationsResponse{
		SummonerAddress:      "0x0000000000000000000000000000000000000001",
		MolochImplementation: "0x0000000000000000000000000000000000000002",
		SharesImplementation: "0x0000000000000000000000000000000000000003",
		BadgesImplementation: "0x0000000000000000000000000000000000000004",
		LootImplementation:   "0x0000000000000000000000000000000000000005",
	}, resp)

	_, err = NewPredictionService(Options{}).Implementations(context.Background())
	assertAPIError(t, err, "service_unavailable", http.StatusServiceUnavailable)

	static := registrytest.New(testPrimary, testDeps)
	static.Err = registry.ErrNoSummoner
	_, err = NewPredictionService(Options{Registry: static}).Implementations(context.Background())
	assertAPIError(t, err, "service_unavailable", http.StatusServiceUnavailable)
}

func TestDeployments(t *testing.T) {
	ctx := context.Background()
	dao := common.HexToAddress("0x00000000000000000000000000000000000000d1")

	t.Run("from index", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		repo.On("ListByFactory", ctx, int64(1), testFactory, uint64(100)).Return([]*models.DeploymentRecord{
			{LogIndex: 0, DAO: dao, BlockNumber: 120},
		}, nil)

		svc := NewPredictionService(Options{Repository: repo, Factory: testFactory, ChainID: 1})
		list, err := svc.Deployments(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, models.SourceIndex, list.Source)
		require.Len(t, list.Deployments, 1)
		assert.Equal(t, "0x00000000000000000000000000000000000000d1", list.Deployments[0].DAO)
		repo.AssertExpectations(t)
	})

	t.Run("from chain", func(t *testing.T) {
		static := registrytest.New(testPrimary, testDeps)
		static.Deployed = []registry.Deployment{{DAO: dao, BlockNumber: 5}}
		svc := NewPredictionService(Options{Registry: static, Factory: testFactory})

		list, err := svc.Deployments(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, models.SourceChain, list.Source)
		assert.Len(t, list.Deployments, 1)
	})

	t.Run("empty list is not nil", func(t *testing.T) {
		svc := NewPredictionService(Options{Registry: registrytest.New(testPrimary, testDeps), Factory: testFactory})
		list, err := svc.Deployments(ctx, 0)
		require.NoError(t, err)
		assert.NotNil(t, list.Deployments)
		assert.Empty(t, list.Deployments)
	})

	t.Run("index failure", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		repo.On("ListByFactory", ctx, int64(1), testFactory, uint64(0)).Return(nil, errors.New("db down"))
		svc := NewPredictionService(Options{Repository: repo, Factory: testFactory, ChainID: 1})
		_, err := svc.Deployments(ctx, 0)
		assertAPIError(t, err, "internal_error", http.StatusInternalServerError)
	})
}

func TestSyncDeployments(t *testing.T) {
	ctx := context.Background()
	static := registrytest.New(testPrimary, testDeps)
	static.Deployed = []registry.Deployment{
		{Index: 0, DAO: common.HexToAddress("0xd1"), BlockNumber: 40, TxHash: common.HexToHash("0x01")},
		{Index: 1, DAO: common.HexToAddress("0xd2"), BlockNumber: 55, TxHash: common.HexToHash("0x02")},
		{Index: 2, DAO: common.HexToAddress("0xd3"), BlockNumber: 60, TxHash: common.HexToHash("0x03")},
	}

	t.Run("resumes from latest indexed block", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		repo.On("LatestBlock", ctx, int64(1), testFactory).Return(uint64(55), nil)
		repo.On("Upsert", ctx, mock.MatchedBy(func(rec *models.DeploymentRecord) bool {
			return rec.DAO == common.HexToAddress("0xd2")
		})).Return(false, nil)
		repo.On("Upsert", ctx, mock.MatchedBy(func(rec *models.DeploymentRecord) bool {
			return rec.DAO == common.HexToAddress("0xd3") && rec.ChainID == 1 && rec.Factory == testFactory
		})).Return(true, nil)

		svc := NewPredictionService(Options{Registry: static, Repository: repo, Factory: testFactory, ChainID: 1, StartBlock: 10})
		res, err := svc.SyncDeployments(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, &models.SyncResult{FromBlock: 55, Found: 2, Inserted: 1}, res)
		repo.AssertExpectations(t)
	})

	t.Run("start block floor", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		repo.On("LatestBlock", ctx, int64(1), testFactory).Return(uint64(0), nil)
		repo.On("Upsert", ctx, mock.Anything).Return(true, nil)

		svc := NewPredictionService(Options{Registry: static, Repository: repo, Factory: testFactory, ChainID: 1, StartBlock: 50})
		res, err := svc.SyncDeployments(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(50), res.FromBlock)
		assert.Equal(t, 2, res.Inserted)
	})

	t.Run("explicit from block", func(t *testing.T) {
		repo := new(MockDeploymentRepository)
		repo.On("Upsert", ctx, mock.Anything).Return(true, nil)

		svc := NewPredictionService(Options{Registry: static, Repository: repo, Factory: testFactory, ChainID: 1})
		res, err := svc.SyncDeployments(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Found)
		repo.AssertNotCalled(t, "LatestBlock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no index configured", func(t *testing.T) {
		svc := NewPredictionService(Options{Registry: static, Factory: testFactory})
		_, err := svc.SyncDeployments(ctx, 0)
		assertAPIError(t, err, "service_unavailable", http.StatusServiceUnavailable)
	})
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	dao := common.HexToAddress("0x00000000000000000000000000000000000000d1")
	static := registrytest.New(testPrimary, testDeps)
	static.DAOs = map[common.Address]*registry.DAOTokens{
		dao: {DAO: dao, Name: "Test DAO", Symbol: "TDAO", Shares: testDeps[0], Badges: testDeps[1], Loot: testDeps[2]},
	}
	svc := NewPredictionService(Options{Registry: static, Tokens: static, Factory: testFactory})

	resp, err := svc.Tokens(ctx, "0x00000000000000000000000000000000000000D1")
	require.NoError(t, err)
	assert.Equal(t, "Test DAO", resp.Name)
	assert.Equal(t, "0x00000000000000000000000000000000000000d1", resp.DAO)
	assert.Equal(t, "0x0000000000000000000000000000000000000005", resp.Loot)

	_, err = svc.Tokens(ctx, "0x1234")
	assertAPIError(t, err, "validation_error", http.StatusBadRequest)

	_, err = svc.Tokens(ctx, "0x00000000000000000000000000000000000000D2")
	apiErr := assertAPIError(t, err, "not_found", http.StatusNotFound)
	assert.Equal(t, map[string]string{"address": "0x00000000000000000000000000000000000000d2"}, apiErr.Details)

	_, err = NewPredictionService(Options{}).Tokens(ctx, "0x00000000000000000000000000000000000000d1")
	assertAPIError(t, err, "service_unavailable", http.StatusServiceUnavailable)
}
