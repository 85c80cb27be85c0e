package adapter

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

// multiChainConcurrency bounds the parallel (address, chain) fetches within one
// account.
const multiChainConcurrency = 8

// MultiChainAdapter serves multi-chain EVM accounts. The declared chain set is
// an external input recorded during connection; the adapter takes the full
// address×chain cross-product and fetches each pair independently and
// concurrently.
type MultiChainAdapter struct {
	evm    *EVMAdapter
	logger *zap.Logger
}

// NewMultiChainAdapter creates the multi-chain EVM variant on top of the
// single-chain fetch path.
func NewMultiChainAdapter(evm *EVMAdapter, logger *zap.Logger) *MultiChainAdapter {
	return &MultiChainAdapter{evm: evm, logger: logger.Named("MultiChainAdapter")}
}

// FetchAssets fans out over the address×chain cross-product. One failing pair
// costs only its own rows.
func (a *MultiChainAdapter) FetchAssets(ctx context.Context, account entity.Account) ([]entity.Asset, Result) {
	type pair struct {
		chain   entity.ChainID
		address string
	}

	var pairs []pair
	for _, chain := range account.DeclaredChains {
		for _, address := range account.Addresses {
			pairs = append(pairs, pair{chain: chain, address: address})
		}
	}

	var (
		mu   sync.Mutex
		rows []entity.Asset
		res  = Result{Attempted: len(pairs)}
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(multiChainConcurrency)
	for _, p := range pairs {
		eg.Go(func() error {
			pairRows, ok := a.evm.fetchPair(egCtx, account, p.chain, p.address)
			mu.Lock()
			defer mu.Unlock()
			if !ok {
				res.Failed++
				return nil
			}
			rows = append(rows, pairRows...)
			return nil
		})
	}
	// Goroutines only return nil; Wait is for completion.
	_ = eg.Wait()

	a.logger.Debug("Multi-chain fetch complete",
		zap.String("account", account.ID),
		zap.Int("pairs", res.Attempted),
		zap.Int("failed", res.Failed),
		zap.Int("rows", len(rows)))
	return rows, res
}
