package rebalance

import (
	"sort"

	"github.com/joshwigginton/composer-signals-alpaca/internal/models"
)

// Separate partitions orders into sells and buys. Sells must run first so
// freed cash funds the buys. Each group is sorted by symbol so execution
// order is deterministic across runs.
func Separate(orders map[string]OrderRequest) (sells, buys []OrderRequest) {
	for _, ord := range orders {
		switch ord.Side {
		case models.Sell:
			sells = append(sells, ord)
		case models.Buy:
			buys = append(buys, ord)
		}
	}

	bySymbol := func(group []OrderRequest) {
		sort.Slice(group, func(i, j int) bool { return group[i].Symbol < group[j].Symbol })
	}
	bySymbol(sells)
	bySymbol(buys)
	return sells, buys
}
