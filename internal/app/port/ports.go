// Package port declares the interfaces the sync core consumes. Implementations
// live under internal/infrastructure; tests substitute fakes.
package port

import (
	"context"
	"math/big"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

// TokenBalance is one item of a batched token balance call. Per-item failures
// are reported in Err instead of failing the whole batch.
type TokenBalance struct {
	Token entity.TokenRef
	Raw   *big.Int
	Err   error
}

// EVMClient talks to one EVM-compatible network.
type EVMClient interface {
	// NativeBalance fetches the native currency balance in wei.
	NativeBalance(ctx context.Context, address string) (*big.Int, error)

	// TokenBalances fetches ERC-20 style balances for the given tokens in one
	// batched RPC call.
	TokenBalances(ctx context.Context, address string, tokens []entity.TokenRef) ([]TokenBalance, error)

	// Chain returns the network this client is connected to.
	Chain() entity.ChainID
}

// EVMClientProvider hands out (and caches) EVM clients per chain.
type EVMClientProvider interface {
	ClientFor(chain entity.ChainID) (EVMClient, error)
}

// BalanceClient is the minimal native-balance surface of non-EVM networks
// (Solana-like, Sui-like). Endpoint fallback is internal to the client.
type BalanceClient interface {
	NativeBalance(ctx context.Context, address string) (*big.Int, error)
}

// PriceOracle resolves a USD (or other vs-currency) quote for a symbol. A
// missing quote is reported as *entity.PriceUnavailable, not a hard failure.
type PriceOracle interface {
	Price(ctx context.Context, symbol, vsCurrency string) (float64, error)
}

// AccountRepository persists the account list. Only account identity and
// configuration are durable; assets, prices and loading state never are.
type AccountRepository interface {
	Load() ([]entity.Account, error)
	Save(accounts []entity.Account) error
}
