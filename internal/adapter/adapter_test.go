package adapter

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/port"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

var oneEth = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

type fakeEVMClient struct {
	chain       entity.ChainID
	balances    map[string]*big.Int
	nativeErr   error
	tokenErr    error
	tokenResult []port.TokenBalance
}

func (c *fakeEVMClient) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	if c.nativeErr != nil {
		return nil, c.nativeErr
	}
	if b, ok := c.balances[address]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (c *fakeEVMClient) TokenBalances(ctx context.Context, address string, tokens []entity.TokenRef) ([]port.TokenBalance, error) {
	if c.tokenErr != nil {
		return nil, c.tokenErr
	}
	return c.tokenResult, nil
}

func (c *fakeEVMClient) Chain() entity.ChainID { return c.chain }

type fakeProvider struct {
	clients map[entity.ChainID]port.EVMClient
}

func (p *fakeProvider) ClientFor(chain entity.ChainID) (port.EVMClient, error) {
	c, ok := p.clients[chain]
	if !ok {
		return nil, errors.New("unknown chain")
	}
	return c, nil
}

type fakeBalanceClient struct {
	balances map[string]*big.Int
	err      error
}

func (c *fakeBalanceClient) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.balances[address], nil
}

func ethDefs() map[entity.ChainID]entity.NetworkDefinition {
	return map[entity.ChainID]entity.NetworkDefinition{
		"ethereum": {Chain: "ethereum", Kind: entity.NetworkEVM, Name: "Ethereum", NativeSymbol: "ETH", NativeDecimals: 18},
		"polygon":  {Chain: "polygon", Kind: entity.NetworkEVM, Name: "Polygon", NativeSymbol: "MATIC", NativeDecimals: 18},
		"solana":   {Chain: "solana", Kind: entity.NetworkSolana, Name: "Solana", NativeSymbol: "SOL", NativeDecimals: 9},
	}
}

func TestEVMAdapterDropsZeroBalances(t *testing.T) {
	provider := &fakeProvider{clients: map[entity.ChainID]port.EVMClient{
		"ethereum": &fakeEVMClient{chain: "ethereum", balances: map[string]*big.Int{
			"0xfunded": oneEth,
			"0xempty":  big.NewInt(0),
		}},
	}}
	a := NewEVMAdapter(ethDefs(), provider, zap.NewNop())

	account := entity.Account{
		ID: "acct-1", Platform: entity.PlatformEVM, Label: "Main",
		Addresses:      []string{"0xfunded", "0xempty"},
		DeclaredChains: []entity.ChainID{"ethereum"},
	}
	rows, res := a.FetchAssets(context.Background(), account)

	require.Len(t, rows, 1, "zero balances yield no row")
	assert.Equal(t, "ETH", rows[0].Symbol)
	assert.Equal(t, "1", rows[0].Balance)
	assert.Equal(t, "Main", rows[0].SourceLabel)
	assert.Equal(t, Result{Attempted: 2, Failed: 0}, res)
	assert.False(t, res.Unreachable(), "a zero balance is data, not a failure")
}

func TestEVMAdapterTokenRows(t *testing.T) {
	usdc := entity.TokenRef{ContractAddress: "0xusdc", Symbol: "USDC", Name: "USD Coin", Decimals: 6, Chain: "ethereum"}
	dai := entity.TokenRef{ContractAddress: "0xdai", Symbol: "DAI", Decimals: 18, Chain: "ethereum"}
	otherChain := entity.TokenRef{ContractAddress: "0xpol", Symbol: "POL", Decimals: 18, Chain: "polygon"}

	provider := &fakeProvider{clients: map[entity.ChainID]port.EVMClient{
		"ethereum": &fakeEVMClient{
			chain:    "ethereum",
			balances: map[string]*big.Int{"0xaaa": oneEth},
			tokenResult: []port.TokenBalance{
				{Token: usdc, Raw: big.NewInt(2500000)},
				{Token: dai, Err: errors.New("execution reverted")},
			},
		},
	}}
	a := NewEVMAdapter(ethDefs(), provider, zap.NewNop())

	account := entity.Account{
		ID: "acct-1", Platform: entity.PlatformEVM,
		Addresses:      []string{"0xaaa"},
		DeclaredChains: []entity.ChainID{"ethereum"},
		TrackedTokens:  []entity.TokenRef{usdc, dai, otherChain},
	}
	rows, res := a.FetchAssets(context.Background(), account)

	require.Len(t, rows, 2, "native plus the one successful token")
	assert.Equal(t, "ETH", rows[0].Symbol)
	assert.Equal(t, "USDC", rows[1].Symbol)
	assert.Equal(t, "2.5", rows[1].Balance)
	assert.Equal(t, Result{Attempted: 1, Failed: 0}, res, "a token sub-call failure does not fail the pair")
}

func TestEVMAdapterTokenBatchFailureKeepsNativeRow(t *testing.T) {
	usdc := entity.TokenRef{ContractAddress: "0xusdc", Symbol: "USDC", Decimals: 6, Chain: "ethereum"}
	provider := &fakeProvider{clients: map[entity.ChainID]port.EVMClient{
		"ethereum": &fakeEVMClient{
			chain:    "ethereum",
			balances: map[string]*big.Int{"0xaaa": oneEth},
			tokenErr: errors.New("batch call failed"),
		},
	}}
	a := NewEVMAdapter(ethDefs(), provider, zap.NewNop())

	account := entity.Account{
		ID: "acct-1", Platform: entity.PlatformEVM,
		Addresses:      []string{"0xaaa"},
		DeclaredChains: []entity.ChainID{"ethereum"},
		TrackedTokens:  []entity.TokenRef{usdc},
	}
	rows, res := a.FetchAssets(context.Background(), account)

	require.Len(t, rows, 1)
	assert.Equal(t, "ETH", rows[0].Symbol)
	assert.Equal(t, Result{Attempted: 1, Failed: 0}, res)
}

func TestEVMAdapterUndeclaredChainFailsPair(t *testing.T) {
	provider := &fakeProvider{clients: map[entity.ChainID]port.EVMClient{}}
	a := NewEVMAdapter(ethDefs(), provider, zap.NewNop())

	account := entity.Account{
		ID: "acct-1", Platform: entity.PlatformEVM,
		Addresses:      []string{"0xaaa"},
		DeclaredChains: []entity.ChainID{"unknown-chain"},
	}
	rows, res := a.FetchAssets(context.Background(), account)

	assert.Empty(t, rows)
	assert.Equal(t, Result{Attempted: 1, Failed: 1}, res)
	assert.True(t, res.Unreachable())
}

func TestMultiChainAdapterCrossProduct(t *testing.T) {
	full := map[string]*big.Int{"0xaaa": oneEth, "0xbbb": oneEth}
	provider := &fakeProvider{clients: map[entity.ChainID]port.EVMClient{
		"ethereum": &fakeEVMClient{chain: "ethereum", balances: full},
		"polygon":  &fakeEVMClient{chain: "polygon", nativeErr: errors.New("rpc down")},
	}}
	evm := NewEVMAdapter(ethDefs(), provider, zap.NewNop())
	a := NewMultiChainAdapter(evm, zap.NewNop())

	account := entity.Account{
		ID: "acct-1", Platform: entity.PlatformMultiChainEVM,
		Addresses:      []string{"0xaaa", "0xbbb"},
		DeclaredChains: []entity.ChainID{"ethereum", "polygon"},
	}
	rows, res := a.FetchAssets(context.Background(), account)

	assert.Len(t, rows, 2, "both ethereum pairs; polygon pairs failed independently")
	assert.Equal(t, Result{Attempted: 4, Failed: 2}, res)
	assert.False(t, res.Unreachable())
}

func TestNativeOnlyAdapter(t *testing.T) {
	client := &fakeBalanceClient{balances: map[string]*big.Int{
		"sol-addr-1": big.NewInt(2500000000),
		"sol-addr-2": big.NewInt(0),
	}}
	a := NewNativeOnlyAdapter(entity.PlatformSolana, ethDefs(), client, zap.NewNop())

	account := entity.Account{
		ID: "acct-sol", Platform: entity.PlatformSolana,
		Addresses:      []string{"sol-addr-1", "sol-addr-2"},
		DeclaredChains: []entity.ChainID{"solana"},
	}
	rows, res := a.FetchAssets(context.Background(), account)

	require.Len(t, rows, 1)
	assert.Equal(t, "SOL", rows[0].Symbol)
	assert.Equal(t, "2.5", rows[0].Balance, "lamports divided by 10^9")
	assert.Equal(t, Result{Attempted: 2, Failed: 0}, res)
}

func TestNativeOnlyAdapterAllAddressesFailing(t *testing.T) {
	client := &fakeBalanceClient{err: errors.New("connection refused")}
	a := NewNativeOnlyAdapter(entity.PlatformSolana, ethDefs(), client, zap.NewNop())

	account := entity.Account{
		ID: "acct-sol", Platform: entity.PlatformSolana,
		Addresses:      []string{"sol-addr-1", "sol-addr-2"},
		DeclaredChains: []entity.ChainID{"solana"},
	}
	rows, res := a.FetchAssets(context.Background(), account)

	assert.Empty(t, rows)
	assert.True(t, res.Unreachable())
}

func TestRegistryDispatch(t *testing.T) {
	provider := &fakeProvider{clients: map[entity.ChainID]port.EVMClient{}}
	networks := []entity.NetworkDefinition{
		{Chain: "ethereum", Kind: entity.NetworkEVM, NativeSymbol: "ETH", NativeDecimals: 18},
	}
	r := NewRegistry(networks, provider, &fakeBalanceClient{}, &fakeBalanceClient{}, zap.NewNop())

	for _, platform := range []entity.Platform{
		entity.PlatformEVM, entity.PlatformMultiChainEVM, entity.PlatformSolana, entity.PlatformSui,
	} {
		_, err := r.ForAccount(entity.Account{Platform: platform})
		assert.NoError(t, err, "platform %s", platform)
	}

	_, err := r.ForAccount(entity.Account{Platform: "cosmos"})
	assert.Error(t, err)
}
