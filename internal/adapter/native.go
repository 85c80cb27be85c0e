package adapter

import (
	"context"

	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/port"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/pkg/utils"
)

// NativeOnlyAdapter serves Solana-like and Sui-like accounts: a single native
// balance query per address, converted by the chain's fixed base-unit divisor
// (lamports, MIST). Endpoint fallback lives inside the injected client.
type NativeOnlyAdapter struct {
	platform entity.Platform
	defs     map[entity.ChainID]entity.NetworkDefinition
	client   port.BalanceClient
	logger   *zap.Logger
}

// NewNativeOnlyAdapter creates the native-balance-only variant for one
// platform.
func NewNativeOnlyAdapter(platform entity.Platform, defs map[entity.ChainID]entity.NetworkDefinition, client port.BalanceClient, logger *zap.Logger) *NativeOnlyAdapter {
	return &NativeOnlyAdapter{
		platform: platform,
		defs:     defs,
		client:   client,
		logger:   logger.Named("NativeAdapter").With(zap.String("platform", string(platform))),
	}
}

// FetchAssets queries the native balance for each account address.
func (a *NativeOnlyAdapter) FetchAssets(ctx context.Context, account entity.Account) ([]entity.Asset, Result) {
	chain := a.chainFor(account)
	def, ok := a.defs[chain]
	if !ok {
		a.logger.Warn("No network definition for chain", zap.String("chain", string(chain)))
		return nil, Result{Attempted: len(account.Addresses), Failed: len(account.Addresses)}
	}

	var rows []entity.Asset
	var res Result
	for _, address := range account.Addresses {
		res.Attempted++
		raw, err := a.client.NativeBalance(ctx, address)
		if err != nil {
			res.Failed++
			a.logger.Warn("Native balance fetch failed, omitting row",
				zap.String("account", account.ID),
				zap.Error(&entity.FetchError{Chain: chain, Address: address, Symbol: def.NativeSymbol, Err: err}))
			continue
		}
		if raw == nil || raw.Sign() == 0 {
			continue
		}
		asset := entity.NewAsset(account.ID, chain, address, def.NativeSymbol)
		asset.Name = def.Name
		asset.Balance = utils.FromSmallestUnit(raw, def.NativeDecimals)
		asset.SourceLabel = account.DisplayLabel()
		rows = append(rows, asset)
	}
	return rows, res
}

// chainFor resolves the account's chain; these platforms carry exactly one.
func (a *NativeOnlyAdapter) chainFor(account entity.Account) entity.ChainID {
	if len(account.DeclaredChains) > 0 {
		return account.DeclaredChains[0]
	}
	return entity.ChainID(a.platform)
}
