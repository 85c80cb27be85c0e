package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/app/port"
	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

// EVMClient implements port.EVMClient over go-ethereum's JSON-RPC client,
// batching token balance calls into one round trip.
type EVMClient struct {
	ethClient      *ethclient.Client
	def            entity.NetworkDefinition
	rpcCallTimeout time.Duration
}

// ERC20 ABI minimal part for balanceOf.
const erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
	erc20MethodID   []byte
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
		balanceOfMethod, ok := parsedERC20ABI.Methods["balanceOf"]
		if !ok {
			panic("balanceOf method not found in parsed ERC20 ABI")
		}
		erc20MethodID = balanceOfMethod.ID
	})
}

// NewEVMClient dials the network's RPC endpoints in order, primary first, and
// returns a client bound to the first endpoint that accepts a connection.
func NewEVMClient(def entity.NetworkDefinition, connectionTimeout, rpcCallTimeout time.Duration) (*EVMClient, error) {
	initParsedERC20ABI()

	var lastErr error
	for _, rpcURL := range def.Endpoints() {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		ethClient, err := ethclient.DialContext(ctx, rpcURL)
		cancel()
		if err == nil {
			return &EVMClient{ethClient: ethClient, def: def, rpcCallTimeout: rpcCallTimeout}, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", def.Chain, lastErr)
}

// Chain returns the network this client is connected to.
func (c *EVMClient) Chain() entity.ChainID { return c.def.Chain }

// NativeBalance fetches the native currency balance in wei.
func (c *EVMClient) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()
	return c.ethClient.BalanceAt(callCtx, common.HexToAddress(address), nil)
}

// TokenBalances fetches ERC-20 balances for the given tokens using one
// JSON-RPC batch of eth_call balanceOf requests. Per-item failures are
// reported inside the result slice.
func (c *EVMClient) TokenBalances(ctx context.Context, address string, tokens []entity.TokenRef) ([]port.TokenBalance, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	paddedWallet := common.LeftPadBytes(common.HexToAddress(address).Bytes(), 32)
	callData := append(append([]byte{}, erc20MethodID...), paddedWallet...)

	batchElems := make([]rpc.BatchElem, len(tokens))
	results := make([]port.TokenBalance, len(tokens))
	for i, token := range tokens {
		results[i] = port.TokenBalance{Token: token}
		batchElems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args: []interface{}{
				map[string]interface{}{
					"to":   common.HexToAddress(token.ContractAddress),
					"data": hexutil.Bytes(callData),
				},
				"latest",
			},
			Result: new(hexutil.Bytes),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()
	if err := c.ethClient.Client().BatchCallContext(callCtx, batchElems); err != nil {
		return nil, fmt.Errorf("RPC batch call failed on %s: %w", c.def.Chain, err)
	}

	for i, elem := range batchElems {
		if elem.Error != nil {
			results[i].Err = fmt.Errorf("failed to fetch %s balance (wallet %s): %w",
				tokens[i].Symbol, address, elem.Error)
			continue
		}
		raw, ok := elem.Result.(*hexutil.Bytes)
		if !ok || raw == nil {
			results[i].Err = fmt.Errorf("failed to decode balance for %s: unexpected result type", tokens[i].Symbol)
			continue
		}
		if len(*raw) == 0 {
			results[i].Raw = big.NewInt(0)
			continue
		}
		unpacked, err := parsedERC20ABI.Unpack("balanceOf", *raw)
		if err != nil {
			results[i].Err = fmt.Errorf("failed to unpack balanceOf result for %s: %w", tokens[i].Symbol, err)
			continue
		}
		if len(unpacked) == 0 {
			results[i].Err = fmt.Errorf("balanceOf unpack returned no data for %s", tokens[i].Symbol)
			continue
		}
		balance, ok := unpacked[0].(*big.Int)
		if !ok {
			results[i].Err = fmt.Errorf("failed to assert unpacked balanceOf result for %s: got %T", tokens[i].Symbol, unpacked[0])
			continue
		}
		results[i].Raw = balance
	}
	return results, nil
}
