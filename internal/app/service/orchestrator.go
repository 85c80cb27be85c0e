package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/adapter"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/port"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/pkg/metrics"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/pkg/utils"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/store"
)

// priceResolutionConcurrency bounds parallel oracle calls within one cycle.
const priceResolutionConcurrency = 4

// OrchestratorConfig tunes one orchestrator instance.
type OrchestratorConfig struct {
	Interval              time.Duration
	MaxConcurrentAccounts int
	OracleTimeout         time.Duration
	VsCurrency            string
}

// Orchestrator runs the sync cycle: it fans out per-account balance fetches
// through the adapter registry, resolves prices for distinct symbols, and
// atomically replaces the store's asset list. Partial results of an
// in-progress cycle are never published.
type Orchestrator struct {
	store    *store.Store
	adapters *adapter.Registry
	oracle   port.PriceOracle
	loader   *Loader
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *zap.Logger
	cfg      OrchestratorConfig
	trigger  chan struct{}
}

// NewOrchestrator wires an orchestrator. All collaborators are injected; there
// is no ambient lookup. loader and m may be nil for one-shot runs.
func NewOrchestrator(
	st *store.Store,
	adapters *adapter.Registry,
	oracle port.PriceOracle,
	loader *Loader,
	limiter *rate.Limiter,
	m *metrics.Metrics,
	cfg OrchestratorConfig,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.MaxConcurrentAccounts <= 0 {
		cfg.MaxConcurrentAccounts = 1
	}
	if cfg.VsCurrency == "" {
		cfg.VsCurrency = "usd"
	}
	return &Orchestrator{
		store:    st,
		adapters: adapters,
		oracle:   oracle,
		loader:   loader,
		limiter:  limiter,
		metrics:  m,
		logger:   logger.Named("SyncOrchestrator"),
		cfg:      cfg,
		trigger:  make(chan struct{}, 1),
	}
}

// TriggerSync requests an immediate cycle; requests are coalesced.
func (o *Orchestrator) TriggerSync() {
	select {
	case o.trigger <- struct{}{}:
	default:
	}
}

// Run executes one immediate cycle, then repeats on the configured interval
// and whenever the connected-account set changes, until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	if err := o.RunCycle(ctx); err != nil {
		o.logger.Error("Initial sync cycle failed", zap.Error(err))
	}

	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Sync loop stopped")
			return
		case <-ticker.C:
		case <-o.trigger:
		case <-o.store.Changed():
		}
		if err := o.RunCycle(ctx); err != nil {
			o.logger.Error("Sync cycle failed", zap.Error(err))
		}
	}
}

// RunCycle performs one full synchronization pass.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	started := time.Now()
	accounts := o.store.ConnectedAccounts()
	o.logger.Debug("Starting sync cycle", zap.Int("accounts", len(accounts)))

	var (
		mu   sync.Mutex
		rows []entity.Asset
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(o.cfg.MaxConcurrentAccounts)
	for _, account := range accounts {
		eg.Go(func() error {
			fetched := o.syncAccount(egCtx, account)
			mu.Lock()
			rows = append(rows, fetched...)
			mu.Unlock()
			return nil
		})
	}
	// Per-account failures are absorbed in syncAccount; Wait is for completion.
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	o.resolvePrices(ctx, rows)

	o.store.ReplaceAssets(rows)
	published := o.store.Assets()
	if o.loader != nil {
		o.loader.Sync(published)
	}
	aggregate := o.store.Aggregate()

	if o.metrics != nil {
		o.metrics.SyncCycles.Inc()
		o.metrics.CycleDuration.Observe(time.Since(started).Seconds())
		o.metrics.TrackedAssets.Set(float64(aggregate.TotalAssetCount))
		o.metrics.TotalValueUSD.Set(aggregate.TotalValueUSD)
	}

	o.logger.Info("Sync cycle complete",
		zap.Int("accounts", len(accounts)),
		zap.Int("assets", aggregate.TotalAssetCount),
		zap.Float64("total_value_usd", aggregate.TotalValueUSD),
		zap.Duration("elapsed", time.Since(started)))
	return nil
}

// syncAccount fetches one account's rows and records its resulting status.
// Only whole-account unreachability escalates to a visible error state.
func (o *Orchestrator) syncAccount(ctx context.Context, account entity.Account) []entity.Asset {
	ad, err := o.adapters.ForAccount(account)
	if err != nil {
		o.logger.Error("No adapter for account",
			zap.String("account", account.ID), zap.String("platform", string(account.Platform)), zap.Error(err))
		o.store.SetAccountStatus(account.ID, entity.StatusError, nil)
		return nil
	}

	rows, res := ad.FetchAssets(ctx, account)
	if o.metrics != nil && res.Failed > 0 {
		o.metrics.FetchFailures.WithLabelValues(string(account.Platform)).Add(float64(res.Failed))
	}

	if res.Unreachable() {
		connErr := &entity.ConnectionError{
			Platform: account.Platform,
			Err:      fmt.Errorf("all %d balance fetches failed", res.Failed),
		}
		o.logger.Warn("Account provider unreachable",
			zap.String("account", account.ID), zap.Error(connErr))
		o.store.SetAccountStatus(account.ID, entity.StatusError, nil)
		return nil
	}

	now := time.Now().UTC()
	o.store.SetAccountStatus(account.ID, entity.StatusConnected, &now)
	return rows
}

// resolvePrices fills PriceUSD/ValueUSD for every row. Cached quotes are used
// first; each remaining distinct symbol is resolved once per cycle. A failed
// resolution leaves the rows unpriced instead of discarding them.
func (o *Orchestrator) resolvePrices(ctx context.Context, rows []entity.Asset) {
	if len(rows) == 0 {
		return
	}

	resolved := make(map[string]float64)
	var missing []string
	seen := make(map[string]struct{})
	for _, row := range rows {
		if _, dup := seen[row.Symbol]; dup {
			continue
		}
		seen[row.Symbol] = struct{}{}
		if price, ok := o.store.Price(row.Symbol); ok {
			resolved[row.Symbol] = price
		} else {
			missing = append(missing, row.Symbol)
		}
	}

	if len(missing) > 0 && o.oracle != nil {
		var mu sync.Mutex
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(priceResolutionConcurrency)
		for _, symbol := range missing {
			eg.Go(func() error {
				if o.limiter != nil {
					if err := o.limiter.Wait(egCtx); err != nil {
						return nil
					}
				}
				callCtx, cancel := context.WithTimeout(egCtx, o.cfg.OracleTimeout)
				price, err := o.oracle.Price(callCtx, symbol, o.cfg.VsCurrency)
				cancel()
				if err != nil {
					if o.metrics != nil {
						o.metrics.PriceMisses.Inc()
					}
					if entity.IsPriceUnavailable(err) {
						o.logger.Debug("No quote for symbol", zap.String("symbol", symbol))
					} else {
						o.logger.Warn("Price resolution failed", zap.String("symbol", symbol), zap.Error(err))
					}
					return nil
				}
				o.store.SetPrice(symbol, price)
				mu.Lock()
				resolved[symbol] = price
				mu.Unlock()
				return nil
			})
		}
		_ = eg.Wait()
	}

	for i := range rows {
		price, ok := resolved[rows[i].Symbol]
		if !ok {
			rows[i].PriceUSD = nil
			rows[i].ValueUSD = nil
			continue
		}
		value, err := utils.ValueUSD(rows[i].Balance, price)
		if err != nil {
			o.logger.Error("Failed to compute USD value",
				zap.String("asset", rows[i].ID), zap.String("balance", rows[i].Balance), zap.Error(err))
			rows[i].PriceUSD = nil
			rows[i].ValueUSD = nil
			continue
		}
		p, v := price, value
		rows[i].PriceUSD = &p
		rows[i].ValueUSD = &v
	}
}
