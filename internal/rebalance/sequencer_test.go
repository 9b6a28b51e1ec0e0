package rebalance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshwigginton/composer-signals-alpaca/internal/models"
)

func orderSet() map[string]OrderRequest {
	one := decimal.NewFromInt(1)
	return map[string]OrderRequest{
		"TLT": {Symbol: "TLT", Side: models.Sell, Value: one, Qty: one},
		"SPY": {Symbol: "SPY", Side: models.Buy, Value: one, Qty: one},
		"GLD": {Symbol: "GLD", Side: models.Buy, Value: one, Qty: one},
		"QQQ": {Symbol: "QQQ", Side: models.Sell, Value: one, Qty: one},
	}
}

func TestSeparate_PartitionsWithoutLossOrDuplication(t *testing.T) {
	orders := orderSet()
	sells, buys := Separate(orders)

	require.Equal(t, len(orders), len(sells)+len(buys))

	seen := map[string]int{}
	for _, o := range sells {
		assert.Equal(t, models.Sell, o.Side)
		seen[o.Symbol]++
	}
	for _, o := range buys {
		assert.Equal(t, models.Buy, o.Side)
		seen[o.Symbol]++
	}
	for sym := range orders {
		assert.Equal(t, 1, seen[sym], "symbol %s", sym)
	}
}

func TestSeparate_DeterministicSymbolOrder(t *testing.T) {
	sells, buys := Separate(orderSet())

	require.Len(t, sells, 2)
	require.Len(t, buys, 2)
	assert.Equal(t, "QQQ", sells[0].Symbol)
	assert.Equal(t, "TLT", sells[1].Symbol)
	assert.Equal(t, "GLD", buys[0].Symbol)
	assert.Equal(t, "SPY", buys[1].Symbol)
}

func TestSeparate_Empty(t *testing.T) {
	sells, buys := Separate(map[string]OrderRequest{})
	assert.Empty(t, sells)
	assert.Empty(t, buys)
}
