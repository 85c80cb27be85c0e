// Package oracle implements the price oracle client. The absence of a quote is
// a recoverable condition surfaced as *entity.PriceUnavailable, never a crash.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client fetches symbol quotes from the configured quote service.
type Client struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// quoteResponse is the wire shape of one quote.
type quoteResponse struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
}

// New creates a quote client against the given base URL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("OracleClient"),
	}
}

// Price resolves one symbol against the vs currency. A 404 or a null price in
// the body both mean the oracle has no quote.
func (c *Client) Price(ctx context.Context, symbol, vsCurrency string) (float64, error) {
	requestURL := fmt.Sprintf("%s/v1/quotes/%s?vs=%s", c.baseURL, strings.ToUpper(symbol), strings.ToLower(vsCurrency))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentType("application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return 0, fmt.Errorf("failed to execute quote request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return 0, fmt.Errorf("failed to execute quote request to %s with default timeout: %w", requestURL, err)
		}
	}

	if resp.StatusCode() == fasthttp.StatusNotFound {
		return 0, &entity.PriceUnavailable{Symbol: symbol}
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Warn("Quote request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()))
		return 0, fmt.Errorf("quote request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	var quote quoteResponse
	if err := json.Unmarshal(resp.Body(), &quote); err != nil {
		return 0, fmt.Errorf("failed to unmarshal quote response from %s: %w", requestURL, err)
	}
	if quote.Price == nil {
		return 0, &entity.PriceUnavailable{Symbol: symbol}
	}
	return *quote.Price, nil
}
