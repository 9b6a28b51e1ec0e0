package rebalance

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/joshwigginton/composer-signals-alpaca/internal/broker"
	"github.com/joshwigginton/composer-signals-alpaca/internal/models"
)

// Calculator turns (target allocation, current snapshot, budget) into
// priced order requests.
type Calculator struct {
	quoter broker.Quoter
	log    zerolog.Logger
}

// NewCalculator creates a calculator that prices intents via the given
// quoter.
func NewCalculator(quoter broker.Quoter, log zerolog.Logger) *Calculator {
	return &Calculator{
		quoter: quoter,
		log:    log.With().Str("component", "calculator").Logger(),
	}
}

// ComputeOrders runs the three passes:
//
//  1. Liquidation: every held symbol absent from the target is sold in
//     full, reusing the position's own quantity and market value.
//  2. Rebalance: for each target symbol, the difference between
//     budget*weight and the current market value becomes a buy or sell
//     intent; an exact zero difference emits nothing.
//  3. Pricing: rebalance intents get qty = value / latest price.
//     Non-fractionable instruments are rounded half away from zero; an
//     intent that rounds to zero shares is dropped.
//
// A price or asset lookup failure aborts only that symbol's order, so one
// bad symbol does not block rebalancing the rest.
func (c *Calculator) ComputeOrders(target map[string]float64, positions models.Snapshot, budget decimal.Decimal) map[string]OrderRequest {
	orders := make(map[string]OrderRequest)

	// Liquidation pass. These carry their own quantity and skip pricing.
	for symbol, pos := range positions {
		if _, ok := target[symbol]; ok {
			continue
		}
		orders[symbol] = OrderRequest{
			Symbol: symbol,
			Side:   models.Sell,
			Value:  pos.MarketValue,
			Qty:    pos.Qty,
		}
	}

	// Rebalance pass.
	for symbol, weight := range target {
		desired := budget.Mul(decimal.NewFromFloat(weight))
		current := decimal.Zero
		if pos, ok := positions[symbol]; ok {
			current = pos.MarketValue
		}
		difference := desired.Sub(current)

		if difference.IsZero() {
			continue
		}

		side := models.Buy
		if difference.IsNegative() {
			side = models.Sell
		}

		req, err := c.priceIntent(OrderRequest{
			Symbol: symbol,
			Side:   side,
			Value:  difference.Abs(),
		})
		if err != nil {
			c.log.Error().Err(err).Str("symbol", symbol).Msg("Skipping symbol, pricing failed")
			continue
		}
		if req.Qty.IsZero() {
			c.log.Debug().Str("symbol", symbol).Str("value", req.Value.String()).
				Msg("Intent rounds to zero shares, dropping")
			continue
		}
		orders[symbol] = req
	}

	return orders
}

// priceIntent resolves the share quantity for a value-only intent.
// Non-fractionable quantities are rounded half away from zero; truncation
// would systematically under-invest.
func (c *Calculator) priceIntent(req OrderRequest) (OrderRequest, error) {
	price, err := c.quoter.GetLatestPrice(req.Symbol)
	if err != nil {
		return req, err
	}

	asset, err := c.quoter.GetAsset(req.Symbol)
	if err != nil {
		return req, err
	}

	qty := req.Value.Div(price)
	if !asset.Fractionable {
		qty = qty.Round(0)
	}
	req.Qty = qty
	return req, nil
}
