// Package broker defines the narrow brokerage capability set the
// rebalancer needs. Any struct that implements these methods satisfies the
// interface, so the Alpaca client can be swapped for a test double without
// touching the code that uses it.
package broker

import (
	"github.com/shopspring/decimal"

	"github.com/joshwigginton/composer-signals-alpaca/internal/models"
)

// Broker is the full capability set used by a rebalancing run.
type Broker interface {
	Quoter

	// GetEquity returns the account's current total equity.
	GetEquity() (decimal.Decimal, error)

	// GetClock returns the market clock (open/close status).
	GetClock() (*models.Clock, error)

	// ListPositions returns all open positions keyed by symbol.
	ListPositions() (models.Snapshot, error)

	// SubmitOrder places a day market order and returns the broker's view
	// of it. The clientOrderID is the caller-generated tracking key.
	SubmitOrder(symbol string, qty decimal.Decimal, side models.Side, clientOrderID string) (*models.Order, error)

	// GetOrderByClientOrderID fetches an order by its client order ID.
	GetOrderByClientOrderID(clientOrderID string) (*models.Order, error)
}

// Quoter is the pricing subset of Broker used by the order calculator.
type Quoter interface {
	// GetLatestPrice returns the latest trade price for a symbol.
	GetLatestPrice(symbol string) (decimal.Decimal, error)

	// GetAsset returns instrument metadata, including fractionability.
	GetAsset(symbol string) (*models.Asset, error)
}
