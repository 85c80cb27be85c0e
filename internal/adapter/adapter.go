// Package adapter contains the per-chain-family strategies for fetching and
// unit-converting balances. Each variant swallows per-(address, chain) failures
// at this boundary: a failed pair yields no asset row instead of an error.
package adapter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/port"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

// Result summarizes one account's fetch pass so the orchestrator can decide
// account-level status. Attempted counts (address, chain) pairs; Failed counts
// pairs that yielded no data at all.
type Result struct {
	Attempted int
	Failed    int
}

// Unreachable reports whether every attempted pair failed, i.e. no data could
// be fetched for the account at all.
func (r Result) Unreachable() bool {
	return r.Attempted > 0 && r.Failed == r.Attempted
}

// ChainAdapter fetches all balances for one account. Zero balances are dropped
// from the output ("not held"); per-pair failures are logged and counted, never
// raised.
type ChainAdapter interface {
	FetchAssets(ctx context.Context, account entity.Account) ([]entity.Asset, Result)
}

// Registry selects the adapter variant for an account by its normalized
// platform. All adapters are injected at construction; there is no ambient
// lookup.
type Registry struct {
	evm        *EVMAdapter
	multichain *MultiChainAdapter
	solana     *NativeOnlyAdapter
	sui        *NativeOnlyAdapter
}

// NewRegistry wires the adapter set from the network definitions and clients.
func NewRegistry(
	networks []entity.NetworkDefinition,
	evmClients port.EVMClientProvider,
	solanaClient port.BalanceClient,
	suiClient port.BalanceClient,
	logger *zap.Logger,
) *Registry {
	defs := make(map[entity.ChainID]entity.NetworkDefinition, len(networks))
	for _, n := range networks {
		defs[n.Chain] = n
	}

	evm := NewEVMAdapter(defs, evmClients, logger)
	return &Registry{
		evm:        evm,
		multichain: NewMultiChainAdapter(evm, logger),
		solana:     NewNativeOnlyAdapter(entity.PlatformSolana, defs, solanaClient, logger),
		sui:        NewNativeOnlyAdapter(entity.PlatformSui, defs, suiClient, logger),
	}
}

// ForAccount returns the adapter variant matching the account's platform.
func (r *Registry) ForAccount(account entity.Account) (ChainAdapter, error) {
	switch account.Platform {
	case entity.PlatformEVM:
		return r.evm, nil
	case entity.PlatformMultiChainEVM:
		return r.multichain, nil
	case entity.PlatformSolana:
		return r.solana, nil
	case entity.PlatformSui:
		return r.sui, nil
	default:
		return nil, fmt.Errorf("no adapter for platform %q", account.Platform)
	}
}
