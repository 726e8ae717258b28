package registry

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"

	"github.com/Bidon15/summonpredict/internal/create2"
)

// Backend is the subset of ethclient.Client the registry uses.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// EthRegistry reads a Summoner and the contracts it references over JSON-RPC.
type EthRegistry struct {
	backend  Backend
	summoner common.Address
	logger   *slog.Logger
	timeout  time.Duration
	closer   func()
}

var (
	_ Registry    = (*EthRegistry)(nil)
	_ TokenReader = (*EthRegistry)(nil)
)

// NewEthRegistry creates a registry for summoner on top of backend.
func NewEthRegistry(backend Backend, summoner common.Address, logger *slog.Logger) *EthRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &EthRegistry{backend: backend, summoner: summoner, logger: logger}
}

// Dial connects to an Ethereum RPC endpoint and returns a registry for
// summoner. Close releases the connection.
func Dial(ctx context.Context, rpcURL string, summoner common.Address, logger *slog.Logger) (*EthRegistry, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("registry: rpc url is required")
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	r := NewEthRegistry(client, summoner, logger)
	r.closer = client.Close
	return r, nil
}

// SetCallTimeout bounds every RPC round trip. Zero disables the bound.
func (r *EthRegistry) SetCallTimeout(d time.Duration) {
	r.timeout = d
}

func (r *EthRegistry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Close closes the RPC connection if the registry owns one.
func (r *EthRegistry) Close() {
	if r.closer != nil {
		r.closer()
	}
}

// Summoner returns the factory address the registry reads from.
func (r *EthRegistry) Summoner() common.Address {
	return r.summoner
}

// Implementation calls Summoner.implementation().
func (r *EthRegistry) Implementation(ctx context.Context) (common.Address, error) {
	if r.summoner == (common.Address{}) {
		return common.Address{}, ErrNoSummoner
	}
	impl, err := r.callAddress(ctx, SummonerABI, r.summoner, "implementation")
	if err != nil {
		return common.Address{}, err
	}
	if impl == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: implementation() on %s", ErrNoImplementation, r.summoner.Hex())
	}
	r.logger.Debug("fetched implementation",
		slog.String("summoner", r.summoner.Hex()),
		slog.String("implementation", impl.Hex()),
	)
	return impl, nil
}

// DependentImplementations calls sharesImpl(), badgesImpl() and lootImpl()
// on the DAO implementation.
func (r *EthRegistry) DependentImplementations(ctx context.Context, primary common.Address) ([create2.NumDependents]common.Address, error) {
	var out [create2.NumDependents]common.Address
	for i, method := range implGetters {
		addr, err := r.callAddress(ctx, MolochABI, primary, method)
		if err != nil {
			return out, err
		}
		if addr == (common.Address{}) {
			return out, fmt.Errorf("%w: %s() on %s", ErrNoImplementation, method, primary.Hex())
		}
		out[i] = addr
	}
	return out, nil
}

// Implementations resolves every implementation the Summoner clones.
func (r *EthRegistry) Implementations(ctx context.Context) (*Implementations, error) {
	return Resolve(ctx, r, r.summoner)
}

// Deployments returns the NewDAO events emitted by the Summoner from
// fromBlock to the chain head, indexed in log order.
func (r *EthRegistry) Deployments(ctx context.Context, fromBlock uint64) ([]Deployment, error) {
	if r.summoner == (common.Address{}) {
		return nil, ErrNoSummoner
	}
	event := SummonerABI.Events["NewDAO"]
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	logs, err := r.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{r.summoner},
		Topics:    [][]common.Hash{{event.ID}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter NewDAO logs: %w", err)
	}

	deployments := make([]Deployment, 0, len(logs))
	for _, l := range logs {
		if l.Removed || len(l.Topics) < 3 {
			continue
		}
		deployments = append(deployments, Deployment{
			Index:       len(deployments),
			Summoner:    common.BytesToAddress(l.Topics[1].Bytes()),
			DAO:         common.BytesToAddress(l.Topics[2].Bytes()),
			BlockNumber: l.BlockNumber,
			TxHash:      l.TxHash,
		})
	}
	r.logger.Debug("fetched deployments",
		slog.Uint64("from_block", fromBlock),
		slog.Int("count", len(deployments)),
	)
	return deployments, nil
}

// Tokens reads the name, symbol and token addresses of a deployed DAO.
func (r *EthRegistry) Tokens(ctx context.Context, dao common.Address) (*DAOTokens, error) {
	out := &DAOTokens{DAO: dao}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.call(gctx, DAOABI, dao, "name", &out.Name) })
	g.Go(func() error { return r.call(gctx, DAOABI, dao, "symbol", &out.Symbol) })
	g.Go(func() error { return r.call(gctx, DAOABI, dao, "shares", &out.Shares) })
	g.Go(func() error { return r.call(gctx, DAOABI, dao, "badges", &out.Badges) })
	g.Go(func() error { return r.call(gctx, DAOABI, dao, "loot", &out.Loot) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EthRegistry) callAddress(ctx context.Context, contract abi.ABI, to common.Address, method string) (common.Address, error) {
	var addr common.Address
	err := r.call(ctx, contract, to, method, &addr)
	return addr, err
}

func (r *EthRegistry) call(ctx context.Context, contract abi.ABI, to common.Address, method string, out any) error {
	data, err := contract.Pack(method)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	result, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}
	if len(result) == 0 {
		return fmt.Errorf("%w: %s() on %s returned no data", ErrNoCode, method, to.Hex())
	}
	if err := contract.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("decode %s: %w", method, err)
	}
	return nil
}
