package rebalance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joshwigginton/composer-signals-alpaca/internal/models"
)

// fakeClock advances only when someone sleeps, so poll loops run
// instantly in tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

// scriptedOrder drives what the fake broker reports while an order is
// polled.
type scriptedOrder struct {
	symbol      string
	pollsUntil  int    // non-terminal polls before finalStatus is reported
	finalStatus string // "filled", "canceled", "expired", or "new" (never terminal)
	pollErrs    int    // transient status-check errors before any status
}

// fakeBroker implements broker.Broker with per-symbol scripting. It keeps
// a monotonically increasing event counter so tests can assert ordering
// between submissions and terminal resolutions.
type fakeBroker struct {
	prices    map[string]decimal.Decimal
	priceErrs map[string]error
	assets    map[string]models.Asset
	assetErrs map[string]error

	equity    decimal.Decimal
	clockOpen bool
	positions models.Snapshot

	submitErrs map[string]error
	scripts    map[string]scriptedOrder // keyed by symbol

	seq         int
	submittedAt map[string]int // symbol -> seq of submission
	resolvedAt  map[string]int // symbol -> seq of first terminal status report
	submissions []string       // symbols in submission order
	live        map[string]*scriptedOrder
	liveSymbol  map[string]string // clientOrderID -> symbol
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		prices:      map[string]decimal.Decimal{},
		priceErrs:   map[string]error{},
		assets:      map[string]models.Asset{},
		assetErrs:   map[string]error{},
		equity:      decimal.NewFromInt(1000),
		clockOpen:   true,
		positions:   models.Snapshot{},
		submitErrs:  map[string]error{},
		scripts:     map[string]scriptedOrder{},
		submittedAt: map[string]int{},
		resolvedAt:  map[string]int{},
		live:        map[string]*scriptedOrder{},
		liveSymbol:  map[string]string{},
	}
}

func (b *fakeBroker) GetLatestPrice(symbol string) (decimal.Decimal, error) {
	if err, ok := b.priceErrs[symbol]; ok {
		return decimal.Zero, err
	}
	p, ok := b.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price for %s", symbol)
	}
	return p, nil
}

func (b *fakeBroker) GetAsset(symbol string) (*models.Asset, error) {
	if err, ok := b.assetErrs[symbol]; ok {
		return nil, err
	}
	if a, ok := b.assets[symbol]; ok {
		return &a, nil
	}
	// Default: fractionable, tradable.
	return &models.Asset{Symbol: symbol, Tradable: true, Fractionable: true}, nil
}

func (b *fakeBroker) GetEquity() (decimal.Decimal, error) { return b.equity, nil }

func (b *fakeBroker) GetClock() (*models.Clock, error) {
	return &models.Clock{IsOpen: b.clockOpen}, nil
}

func (b *fakeBroker) ListPositions() (models.Snapshot, error) { return b.positions, nil }

func (b *fakeBroker) SubmitOrder(symbol string, qty decimal.Decimal, side models.Side, clientOrderID string) (*models.Order, error) {
	b.seq++
	if err, ok := b.submitErrs[symbol]; ok {
		return nil, err
	}
	b.submittedAt[symbol] = b.seq
	b.submissions = append(b.submissions, symbol)

	script, ok := b.scripts[symbol]
	if !ok {
		script = scriptedOrder{finalStatus: "filled"}
	}
	script.symbol = symbol
	b.live[clientOrderID] = &script
	b.liveSymbol[clientOrderID] = symbol

	return &models.Order{
		ID:            "srv_" + clientOrderID,
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Qty:           qty,
		Side:          side,
		Status:        "new",
	}, nil
}

func (b *fakeBroker) GetOrderByClientOrderID(clientOrderID string) (*models.Order, error) {
	b.seq++
	script, ok := b.live[clientOrderID]
	if !ok {
		return nil, fmt.Errorf("unknown client order id %s", clientOrderID)
	}

	if script.pollErrs > 0 {
		script.pollErrs--
		return nil, fmt.Errorf("transient status error for %s", clientOrderID)
	}

	status := script.finalStatus
	if script.pollsUntil > 0 {
		script.pollsUntil--
		status = "new"
	}

	symbol := b.liveSymbol[clientOrderID]
	if terminal(status) {
		if _, seen := b.resolvedAt[symbol]; !seen {
			b.resolvedAt[symbol] = b.seq
		}
	}

	return &models.Order{
		ID:            "srv_" + clientOrderID,
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Status:        status,
	}, nil
}

func terminal(status string) bool {
	switch status {
	case "filled", "canceled", "cancelled", "expired":
		return true
	}
	return false
}
