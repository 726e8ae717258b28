// Package registrytest provides an in-memory registry for tests.
package registrytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Bidon15/summonpredict/internal/create2"
	"github.com/Bidon15/summonpredict/internal/registry"
)

// Static answers every lookup from its fields. Err, when set, is returned by
// every method. Calls counts lookups per method name.
type Static struct {
	Primary    common.Address
	Dependents [create2.NumDependents]common.Address
	Deployed   []registry.Deployment
	DAOs       map[common.Address]*registry.DAOTokens
	Err        error

	mu    sync.Mutex
	calls map[string]int
}

var (
	_ registry.Registry    = (*Static)(nil)
	_ registry.TokenReader = (*Static)(nil)
)

// New returns a Static registry serving the given implementations.
func New(primary common.Address, dependents [create2.NumDependents]common.Address) *Static {
	return &Static{Primary: primary, Dependents: dependents}
}

func (s *Static) record(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++
}

// Calls returns how often method was invoked.
func (s *Static) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Implementation implements registry.Registry.
func (s *Static) Implementation(_ context.Context) (common.Address, error) {
	s.record("Implementation")
	if s.Err != nil {
		return common.Address{}, s.Err
	}
	return s.Primary, nil
}

// DependentImplementations implements registry.Registry.
func (s *Static) DependentImplementations(_ context.Context, primary common.Address) ([create2.NumDependents]common.Address, error) {
	s.record("DependentImplementations")
	if s.Err != nil {
		return [create2.NumDependents]common.Address{}, s.Err
	}
	if primary != s.Primary {
		return [create2.NumDependents]common.Address{}, fmt.Errorf("%w: unknown implementation %s", registry.ErrNoImplementation, primary.Hex())
	}
	return s.Dependents, nil
}

// Deployments implements registry.Registry.
func (s *Static) Deployments(_ context.Context, fromBlock uint64) ([]registry.Deployment, error) {
	s.record("Deployments")
	if s.Err != nil {
		return nil, s.Err
	}
	var out []registry.Deployment
	for _, d := range s.Deployed {
		if d.BlockNumber >= fromBlock {
			out = append(out, d)
		}
	}
	return out, nil
}

// Tokens implements registry.TokenReader.
func (s *Static) Tokens(_ context.Context, dao common.Address) (*registry.DAOTokens, error) {
	s.record("Tokens")
	if s.Err != nil {
		return nil, s.Err
	}
	t, ok := s.DAOs[dao]
	if !ok {
		return nil, fmt.Errorf("%w: %s", registry.ErrNoCode, dao.Hex())
	}
	return t, nil
}
