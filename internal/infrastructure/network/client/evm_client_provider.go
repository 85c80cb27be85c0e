package client

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/port"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

const defaultConnectionTimeout = 10 * time.Second

// evmClientProvider implements port.EVMClientProvider, caching one client per
// chain so repeated cycles do not redial.
type evmClientProvider struct {
	mu                sync.Mutex
	clients           map[entity.ChainID]port.EVMClient
	defs              map[entity.ChainID]entity.NetworkDefinition
	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration
	logger            *zap.Logger
}

// NewEVMClientProvider creates a provider over the EVM network definitions.
func NewEVMClientProvider(networks []entity.NetworkDefinition, rpcCallTimeout time.Duration, logger *zap.Logger) port.EVMClientProvider {
	defs := make(map[entity.ChainID]entity.NetworkDefinition)
	for _, n := range networks {
		if n.Kind == entity.NetworkEVM {
			defs[n.Chain] = n
		}
	}
	return &evmClientProvider{
		clients:           make(map[entity.ChainID]port.EVMClient),
		defs:              defs,
		connectionTimeout: defaultConnectionTimeout,
		rpcCallTimeout:    rpcCallTimeout,
		logger:            logger.Named("EVMClientProvider"),
	}
}

// ClientFor returns the cached client for a chain, dialing on first use.
func (p *evmClientProvider) ClientFor(chain entity.ChainID) (port.EVMClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[chain]; ok {
		return c, nil
	}
	def, ok := p.defs[chain]
	if !ok {
		return nil, fmt.Errorf("no EVM network configured for chain %s", chain)
	}

	p.logger.Info("Creating new EVM client", zap.String("chain", string(chain)), zap.String("rpc_primary", def.PrimaryRPCURL))
	c, err := NewEVMClient(def, p.connectionTimeout, p.rpcCallTimeout)
	if err != nil {
		p.logger.Error("Failed to create EVM client", zap.String("chain", string(chain)), zap.Error(err))
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", chain, err)
	}
	p.clients[chain] = c
	return c, nil
}
