package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Position represents a single holding at the broker.
type Position struct {
	Symbol      string          `json:"symbol"`
	Qty         decimal.Decimal `json:"qty"`
	MarketValue decimal.Decimal `json:"market_value"`
}

// Snapshot is the account's current holdings, one entry per held symbol.
type Snapshot map[string]Position

// Symbols returns the held symbols in no particular order.
func (s Snapshot) Symbols() []string {
	out := make([]string, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	return out
}

// Clock represents the market status.
type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

// Asset represents a tradable instrument.
type Asset struct {
	Symbol       string
	Name         string
	Tradable     bool
	Fractionable bool
}

// Order represents a broker order as reported by the broker.
type Order struct {
	ID             string          `json:"id"`
	ClientOrderID  string          `json:"client_order_id"`
	Symbol         string          `json:"symbol"`
	Qty            decimal.Decimal `json:"qty"`
	FilledQty      decimal.Decimal `json:"filled_qty"`
	Side           Side            `json:"side"`
	Status         string          `json:"status"` // new, filled, canceled, expired, ...
	FilledAvgPrice decimal.Decimal `json:"filled_avg_price"`
	CreatedAt      time.Time       `json:"created_at"`
	FilledAt       *time.Time      `json:"filled_at,omitempty"`
}
