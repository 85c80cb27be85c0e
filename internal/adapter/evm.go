package adapter

import (
	"context"

	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/port"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/pkg/utils"
)

// EVMAdapter serves single-chain EVM accounts: one declared chain, native
// balance plus any tracked ERC-20 style tokens declared for that chain.
type EVMAdapter struct {
	defs    map[entity.ChainID]entity.NetworkDefinition
	clients port.EVMClientProvider
	logger  *zap.Logger
}

// NewEVMAdapter creates the single-chain EVM variant.
func NewEVMAdapter(defs map[entity.ChainID]entity.NetworkDefinition, clients port.EVMClientProvider, logger *zap.Logger) *EVMAdapter {
	return &EVMAdapter{defs: defs, clients: clients, logger: logger.Named("EVMAdapter")}
}

// FetchAssets fetches balances for every declared chain of the account
// (exactly one for single-chain accounts).
func (a *EVMAdapter) FetchAssets(ctx context.Context, account entity.Account) ([]entity.Asset, Result) {
	var rows []entity.Asset
	var res Result
	for _, chain := range account.DeclaredChains {
		for _, address := range account.Addresses {
			pairRows, ok := a.fetchPair(ctx, account, chain, address)
			res.Attempted++
			if !ok {
				res.Failed++
				continue
			}
			rows = append(rows, pairRows...)
		}
	}
	return rows, res
}

// fetchPair fetches native and token balances for one (address, chain) pair.
// Failures are swallowed here: a failed native call fails the pair, a failed
// token sub-call only drops that token's row. Zero balances yield no row.
func (a *EVMAdapter) fetchPair(ctx context.Context, account entity.Account, chain entity.ChainID, address string) ([]entity.Asset, bool) {
	def, ok := a.defs[chain]
	if !ok {
		a.logger.Warn("Account declares a chain with no network definition",
			zap.String("account", account.ID), zap.String("chain", string(chain)))
		return nil, false
	}

	client, err := a.clients.ClientFor(chain)
	if err != nil {
		a.logger.Warn("No client for chain",
			zap.String("account", account.ID), zap.String("chain", string(chain)), zap.Error(err))
		return nil, false
	}

	raw, err := client.NativeBalance(ctx, address)
	if err != nil {
		a.logger.Warn("Native balance fetch failed, omitting pair",
			zap.String("account", account.ID),
			zap.Error(&entity.FetchError{Chain: chain, Address: address, Symbol: def.NativeSymbol, Err: err}))
		return nil, false
	}

	var rows []entity.Asset
	if raw != nil && raw.Sign() > 0 {
		asset := entity.NewAsset(account.ID, chain, address, def.NativeSymbol)
		asset.Name = def.Name
		asset.Balance = utils.FromSmallestUnit(raw, def.NativeDecimals)
		asset.SourceLabel = account.DisplayLabel()
		rows = append(rows, asset)
	}

	tokens := tokensForChain(account.TrackedTokens, chain)
	if len(tokens) == 0 {
		return rows, true
	}

	balances, err := client.TokenBalances(ctx, address, tokens)
	if err != nil {
		// Token batch failure does not fail the pair; native data was fetched.
		a.logger.Warn("Token balance batch failed",
			zap.String("account", account.ID),
			zap.String("chain", string(chain)),
			zap.String("address", address),
			zap.Error(err))
		return rows, true
	}

	for _, tb := range balances {
		if tb.Err != nil {
			a.logger.Warn("Token balance sub-call failed, omitting row",
				zap.String("account", account.ID),
				zap.String("chain", string(chain)),
				zap.String("token", tb.Token.Symbol),
				zap.Error(tb.Err))
			continue
		}
		if tb.Raw == nil || tb.Raw.Sign() == 0 {
			continue
		}
		asset := entity.NewAsset(account.ID, chain, address, tb.Token.Symbol)
		asset.Name = tb.Token.Name
		asset.Balance = utils.FromSmallestUnit(tb.Raw, tb.Token.Decimals)
		asset.SourceLabel = account.DisplayLabel()
		rows = append(rows, asset)
	}
	return rows, true
}

func tokensForChain(tokens []entity.TokenRef, chain entity.ChainID) []entity.TokenRef {
	var out []entity.TokenRef
	for _, t := range tokens {
		if t.Chain == chain {
			out = append(out, t)
		}
	}
	return out
}
