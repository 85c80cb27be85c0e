package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/pkg/scheduler"
)

// LoadKind distinguishes the two per-asset load tracks.
type LoadKind string

const (
	LoadBalance LoadKind = "balance"
	LoadPrice   LoadKind = "price"
)

// LoadFunc performs one load attempt for one asset. The passed context carries
// the soft-timeout deadline for the attempt.
type LoadFunc func(ctx context.Context, asset entity.Asset) error

// LoaderConfig tunes staggering, timeouts and the retry budget.
type LoaderConfig struct {
	StaggerDelay time.Duration
	SoftTimeout  time.Duration
	BackoffBase  time.Duration
	MaxAttempts  int
}

// Loader tracks per-asset loading state on two independent tracks, balance and
// price. New assets are started with a staggered delay proportional to their
// position in the synced list, failed attempts retry with linear backoff up to
// the attempt budget, and concurrent duplicate loads for the same target are
// suppressed.
type Loader struct {
	mu       sync.Mutex
	states   map[entity.AssetKey]*entity.AssetLoadingState
	assets   map[entity.AssetKey]entity.Asset
	inflight map[string]struct{}

	sched       *scheduler.Scheduler
	balanceLoad LoadFunc
	priceLoad   LoadFunc
	cfg         LoaderConfig
	logger      *zap.Logger
}

// NewLoader creates a controller whose scheduled work is bounded by parent.
func NewLoader(parent context.Context, cfg LoaderConfig, balanceLoad, priceLoad LoadFunc, logger *zap.Logger) *Loader {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Loader{
		states:      make(map[entity.AssetKey]*entity.AssetLoadingState),
		assets:      make(map[entity.AssetKey]entity.Asset),
		inflight:    make(map[string]struct{}),
		sched:       scheduler.New(parent),
		balanceLoad: balanceLoad,
		priceLoad:   priceLoad,
		cfg:         cfg,
		logger:      logger.Named("ProgressiveLoader"),
	}
}

// Stop cancels all scheduled and running attempts and waits for them.
func (l *Loader) Stop() {
	l.sched.Stop()
}

// Sync reconciles the tracked key set against the current asset list. Keys no
// longer present are dropped with their state; keys not seen before get a
// fresh idle state and both tracks scheduled, staggered by list position.
func (l *Loader) Sync(assets []entity.Asset) {
	l.mu.Lock()
	defer l.mu.Unlock()

	present := make(map[entity.AssetKey]struct{}, len(assets))
	for _, asset := range assets {
		present[asset.Key()] = struct{}{}
	}
	for key := range l.states {
		if _, ok := present[key]; !ok {
			delete(l.states, key)
			delete(l.assets, key)
		}
	}

	for i, asset := range assets {
		key := asset.Key()
		l.assets[key] = asset
		if _, tracked := l.states[key]; tracked {
			continue
		}
		l.states[key] = &entity.AssetLoadingState{
			BalancePhase: entity.PhaseIdle,
			PricePhase:   entity.PhaseIdle,
		}
		delay := l.cfg.StaggerDelay * time.Duration(i)
		l.scheduleLocked(delay, LoadBalance, key, 1)
		l.scheduleLocked(delay, LoadPrice, key, 1)
	}
}

// States returns a copy of the loading state keyed by asset id.
func (l *Loader) States() map[string]entity.AssetLoadingState {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]entity.AssetLoadingState, len(l.states))
	for key, state := range l.states {
		out[key.String()] = *state
	}
	return out
}

// IsFullyLoaded reports whether both tracks for the key reached success.
func (l *Loader) IsFullyLoaded(key entity.AssetKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	return ok && state.FullyLoaded()
}

func (l *Loader) scheduleLocked(delay time.Duration, kind LoadKind, key entity.AssetKey, attempt int) {
	l.sched.After(delay, func(ctx context.Context) {
		l.attempt(ctx, kind, key, attempt)
	})
}

// guardKey identifies one load target. Price loads are per symbol so that
// several rows of the same asset never race the oracle.
func (l *Loader) guardKey(kind LoadKind, key entity.AssetKey) string {
	if kind == LoadPrice {
		return string(kind) + "|" + key.Symbol
	}
	return string(kind) + "|" + key.String()
}

// loadTargetLocked resolves the asset an attempt should operate on. Balance
// loads die with their key; price loads target the symbol, so any surviving
// key sharing the symbol keeps the load (and its retry chain) alive after the
// originating key vanished.
func (l *Loader) loadTargetLocked(kind LoadKind, key entity.AssetKey) (entity.Asset, bool) {
	if asset, ok := l.assets[key]; ok {
		return asset, true
	}
	if kind != LoadPrice {
		return entity.Asset{}, false
	}
	for other, asset := range l.assets {
		if other.Symbol == key.Symbol {
			return asset, true
		}
	}
	return entity.Asset{}, false
}

func (l *Loader) attempt(ctx context.Context, kind LoadKind, key entity.AssetKey, attempt int) {
	l.mu.Lock()
	asset, tracked := l.loadTargetLocked(kind, key)
	if !tracked {
		l.mu.Unlock()
		return
	}
	key = asset.Key()
	guard := l.guardKey(kind, key)
	if _, busy := l.inflight[guard]; busy {
		l.mu.Unlock()
		return
	}
	l.inflight[guard] = struct{}{}
	l.applyPhaseLocked(kind, key, entity.PhaseLoading, "")
	l.mu.Unlock()

	fn := l.balanceLoad
	if kind == LoadPrice {
		fn = l.priceLoad
	}
	attemptCtx, cancel := context.WithTimeout(ctx, l.cfg.SoftTimeout)
	err := fn(attemptCtx, asset)
	cancel()

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, guard)
	survivor, still := l.loadTargetLocked(kind, key)
	if !still {
		return
	}
	key = survivor.Key()

	if err == nil {
		l.applyPhaseLocked(kind, key, entity.PhaseSuccess, "")
		return
	}

	if attempt >= l.cfg.MaxAttempts {
		l.logger.Warn("Load attempts exhausted",
			zap.String("kind", string(kind)), zap.String("asset", key.String()),
			zap.Int("attempts", attempt), zap.Error(err))
		l.applyPhaseLocked(kind, key, entity.PhaseError, err.Error())
		return
	}

	l.applyPhaseLocked(kind, key, entity.PhaseError, err.Error())
	l.logger.Debug("Load attempt failed, retrying",
		zap.String("kind", string(kind)), zap.String("asset", key.String()),
		zap.Int("attempt", attempt), zap.Error(err))
	l.scheduleLocked(l.cfg.BackoffBase*time.Duration(attempt), kind, key, attempt+1)
}

// applyPhaseLocked records a phase transition. Price transitions fan out to
// every tracked key sharing the symbol, since the symbol is the load target.
func (l *Loader) applyPhaseLocked(kind LoadKind, key entity.AssetKey, phase entity.LoadPhase, lastError string) {
	now := time.Now().UTC()
	apply := func(state *entity.AssetLoadingState) {
		switch kind {
		case LoadBalance:
			state.BalancePhase = phase
			if phase == entity.PhaseSuccess {
				state.BalanceUpdatedAt = now
			}
		case LoadPrice:
			state.PricePhase = phase
			if phase == entity.PhaseSuccess {
				state.PriceUpdatedAt = now
			}
		}
		if lastError != "" {
			state.LastError = lastError
		} else if phase == entity.PhaseSuccess && state.BalancePhase != entity.PhaseError && state.PricePhase != entity.PhaseError {
			state.LastError = ""
		}
	}

	if kind == LoadPrice {
		for other, state := range l.states {
			if other.Symbol == key.Symbol {
				apply(state)
			}
		}
		return
	}
	if state, ok := l.states[key]; ok {
		apply(state)
	}
}
