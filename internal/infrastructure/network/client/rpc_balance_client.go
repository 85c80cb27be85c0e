package client

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// postFunc executes one JSON-RPC POST against an endpoint. Swappable in tests.
type postFunc func(ctx context.Context, endpoint string, body []byte, timeout time.Duration) ([]byte, error)

// rpcBalanceClient is the shared native-balance client for Solana-like and
// Sui-like networks. Endpoint selection follows the configured ordered list:
// the client advances to the next endpoint only when the current one fails at
// the connection level, never on a valid-but-stale response.
type rpcBalanceClient struct {
	endpoints []string
	method    string
	parse     func(result []byte) (*big.Int, error)
	timeout   time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	current int

	post postFunc
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  *rpcError           `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func fasthttpPost(ctx context.Context, endpoint string, body []byte, timeout time.Duration) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	client := &fasthttp.Client{}
	if deadline, ok := ctx.Deadline(); ok {
		if err := client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.DoTimeout(req, resp, timeout); err != nil {
			return nil, err
		}
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("endpoint %s returned status %d", endpoint, resp.StatusCode())
	}
	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

// NativeBalance queries the native balance in the chain's smallest unit,
// walking the endpoint list on connection failures.
func (c *rpcBalanceClient) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: c.method, Params: []interface{}{address}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", c.method, err)
	}

	c.mu.Lock()
	start := c.current
	c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < len(c.endpoints); attempt++ {
		idx := (start + attempt) % len(c.endpoints)
		endpoint := c.endpoints[idx]

		raw, err := c.post(ctx, endpoint, body, c.timeout)
		if err != nil {
			// Connection-level failure: advance to the next endpoint.
			lastErr = fmt.Errorf("endpoint %s unreachable: %w", endpoint, err)
			c.logger.Warn("RPC endpoint unreachable, advancing to fallback",
				zap.String("endpoint", endpoint), zap.Error(err))
			c.mu.Lock()
			c.current = (idx + 1) % len(c.endpoints)
			c.mu.Unlock()
			continue
		}

		var resp rpcResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode %s response from %s: %w", c.method, endpoint, err)
		}
		if resp.Error != nil {
			// The endpoint answered; this is a call failure, not a reason to
			// rotate endpoints.
			return nil, fmt.Errorf("%s failed on %s: %s (code %d)", c.method, endpoint, resp.Error.Message, resp.Error.Code)
		}
		return c.parse(resp.Result)
	}
	return nil, fmt.Errorf("all %d endpoints unreachable: %w", len(c.endpoints), lastErr)
}

// NewSolanaClient creates a Solana-like native balance client. getBalance
// returns lamports inside a context wrapper.
func NewSolanaClient(endpoints []string, timeout time.Duration, logger *zap.Logger) *rpcBalanceClient {
	return &rpcBalanceClient{
		endpoints: endpoints,
		method:    "getBalance",
		timeout:   timeout,
		logger:    logger.Named("SolanaClient"),
		post:      fasthttpPost,
		parse: func(result []byte) (*big.Int, error) {
			var payload struct {
				Value uint64 `json:"value"`
			}
			if err := json.Unmarshal(result, &payload); err != nil {
				return nil, fmt.Errorf("failed to decode getBalance result: %w", err)
			}
			return new(big.Int).SetUint64(payload.Value), nil
		},
	}
}

// NewSuiClient creates a Sui-like native balance client. suix_getBalance
// returns the total MIST balance as a decimal string.
func NewSuiClient(endpoints []string, timeout time.Duration, logger *zap.Logger) *rpcBalanceClient {
	return &rpcBalanceClient{
		endpoints: endpoints,
		method:    "suix_getBalance",
		timeout:   timeout,
		logger:    logger.Named("SuiClient"),
		post:      fasthttpPost,
		parse: func(result []byte) (*big.Int, error) {
			var payload struct {
				TotalBalance string `json:"totalBalance"`
			}
			if err := json.Unmarshal(result, &payload); err != nil {
				return nil, fmt.Errorf("failed to decode suix_getBalance result: %w", err)
			}
			total, ok := new(big.Int).SetString(payload.TotalBalance, 10)
			if !ok {
				return nil, fmt.Errorf("malformed totalBalance %q", payload.TotalBalance)
			}
			return total, nil
		},
	}
}
