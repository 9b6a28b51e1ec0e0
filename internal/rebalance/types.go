package rebalance

import (
	"github.com/shopspring/decimal"

	"github.com/joshwigginton/composer-signals-alpaca/internal/models"
)

// OrderRequest is a fully priced instruction for the executor: a signed
// move expressed as side + notional value + share quantity. At most one
// request exists per symbol per run.
type OrderRequest struct {
	Symbol string
	Side   models.Side
	Value  decimal.Decimal // target notional amount, always positive
	Qty    decimal.Decimal
}

// Status is the terminal state of an order attempt.
type Status string

const (
	StatusFilled           Status = "filled"
	StatusCancelled        Status = "cancelled"
	StatusExpired          Status = "expired"
	StatusTimeout          Status = "timeout"
	StatusSubmissionFailed Status = "submission_failed"
)

// OrderResult records how one order attempt ended.
type OrderResult struct {
	Symbol        string
	Side          models.Side
	ClientOrderID string
	Status        Status
	Err           error
}

// Succeeded reports whether the order reached a fill.
func (r OrderResult) Succeeded() bool {
	return r.Status == StatusFilled
}
