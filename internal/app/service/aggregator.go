package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

// Aggregate groups the flattened asset list by (symbol, chain), summing
// balances and USD values and unioning the contributing source addresses.
// Rows without a quote contribute 0 to the value sum but are counted in
// UnpricedRows rather than silently treated as priced. Pure function:
// identical input yields identical output.
func Aggregate(assets []entity.Asset) []entity.AggregateRow {
	type groupKey struct {
		symbol string
		chain  entity.ChainID
	}

	groups := make(map[groupKey]*entity.AggregateRow)
	sums := make(map[groupKey]decimal.Decimal)
	addrSets := make(map[groupKey]map[string]struct{})

	for _, asset := range assets {
		key := groupKey{symbol: asset.Symbol, chain: asset.Chain}
		row, ok := groups[key]
		if !ok {
			row = &entity.AggregateRow{
				Symbol: asset.Symbol,
				Chain:  asset.Chain,
				Name:   asset.Name,
			}
			groups[key] = row
			sums[key] = decimal.Zero
			addrSets[key] = make(map[string]struct{})
		}

		balance, err := decimal.NewFromString(asset.Balance)
		if err == nil {
			sums[key] = sums[key].Add(balance)
		}
		if asset.ValueUSD != nil {
			row.ValueUSD += *asset.ValueUSD
		}
		if asset.PriceUSD == nil {
			row.UnpricedRows++
		}
		if row.Name == "" {
			row.Name = asset.Name
		}
		addrSets[key][asset.Address] = struct{}{}
		row.RowCount++
	}

	rows := make([]entity.AggregateRow, 0, len(groups))
	for key, row := range groups {
		row.Balance = sums[key].String()
		addrs := make([]string, 0, len(addrSets[key]))
		for addr := range addrSets[key] {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		row.Addresses = addrs
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		return rows[i].Chain < rows[j].Chain
	})
	return rows
}

// RecomputeTotals derives the portfolio scalar projection from the asset list.
// Nil values contribute 0. Idempotent up to the timestamp.
func RecomputeTotals(assets []entity.Asset) entity.PortfolioAggregate {
	var total float64
	for _, asset := range assets {
		if asset.ValueUSD != nil {
			total += *asset.ValueUSD
		}
	}
	return entity.PortfolioAggregate{
		TotalValueUSD:   total,
		TotalAssetCount: len(assets),
		LastUpdatedAt:   time.Now().UTC(),
	}
}
