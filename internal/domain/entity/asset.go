package entity

import (
	"fmt"
	"time"
)

// AssetKey is the structured composite identity of one balance observation:
// one symbol on one chain from one address of one account. It is comparable
// and safe to use as a map key across sync cycles.
type AssetKey struct {
	AccountID string  `json:"accountId"`
	Chain     ChainID `json:"chain"`
	Address   string  `json:"address"`
	Symbol    string  `json:"symbol"`
}

// String renders the key as a stable identifier for logs and API payloads.
func (k AssetKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.AccountID, k.Chain, k.Address, k.Symbol)
}

// Asset is one pre-aggregation balance row. Balance is an arbitrary-precision
// decimal string in display units; PriceUSD/ValueUSD are nil until a quote
// resolves.
type Asset struct {
	ID          string   `json:"id"`
	AccountID   string   `json:"accountId"`
	Symbol      string   `json:"symbol"`
	Name        string   `json:"name,omitempty"`
	Balance     string   `json:"balance"`
	Chain       ChainID  `json:"chain"`
	Address     string   `json:"address"`
	SourceLabel string   `json:"sourceLabel,omitempty"`
	PriceUSD    *float64 `json:"priceUsd"`
	ValueUSD    *float64 `json:"valueUsd"`
}

// Key derives the structured composite key for this row.
func (a Asset) Key() AssetKey {
	return AssetKey{AccountID: a.AccountID, Chain: a.Chain, Address: a.Address, Symbol: a.Symbol}
}

// NewAsset builds a row with its ID derived from the composite key, so identity
// stays stable even if display fields change.
func NewAsset(accountID string, chain ChainID, address, symbol string) Asset {
	key := AssetKey{AccountID: accountID, Chain: chain, Address: address, Symbol: symbol}
	return Asset{
		ID:        key.String(),
		AccountID: accountID,
		Symbol:    symbol,
		Chain:     chain,
		Address:   address,
	}
}

// AggregateRow is an asset row after merging duplicates across accounts and
// addresses by (symbol, chain). UnpricedRows counts contributors whose quote
// was missing; their value contributed 0 to ValueUSD.
type AggregateRow struct {
	Symbol       string   `json:"symbol"`
	Chain        ChainID  `json:"chain"`
	Name         string   `json:"name,omitempty"`
	Balance      string   `json:"balance"`
	ValueUSD     float64  `json:"valueUsd"`
	Addresses    []string `json:"addresses"`
	RowCount     int      `json:"rowCount"`
	UnpricedRows int      `json:"unpricedRows"`
}

// PortfolioAggregate is a derived projection over the current asset list. It is
// recomputed, never hand-edited.
type PortfolioAggregate struct {
	TotalValueUSD   float64   `json:"totalValueUsd"`
	TotalAssetCount int       `json:"totalAssetCount"`
	LastUpdatedAt   time.Time `json:"lastUpdatedAt"`
}
