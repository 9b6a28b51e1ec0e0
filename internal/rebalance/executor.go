package rebalance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joshwigginton/composer-signals-alpaca/internal/broker"
)

// Executor submits orders one at a time and waits for each to reach a
// terminal state. All sells are fully resolved before the first buy is
// submitted; that barrier is what funds the buys.
type Executor struct {
	broker       broker.Broker
	clock        Clock
	pollInterval time.Duration
	timeout      time.Duration
	log          zerolog.Logger
}

// NewExecutor creates an executor. timeout bounds the fill wait per
// order; pollInterval is the status-check cadence.
func NewExecutor(b broker.Broker, clock Clock, pollInterval, timeout time.Duration, log zerolog.Logger) *Executor {
	return &Executor{
		broker:       b,
		clock:        clock,
		pollInterval: pollInterval,
		timeout:      timeout,
		log:          log.With().Str("component", "executor").Logger(),
	}
}

// Execute runs all sell orders to a terminal state, then all buy orders.
// One order's failure never aborts the batch; every attempted order gets
// a result entry.
func (e *Executor) Execute(ctx context.Context, sells, buys []OrderRequest) map[string]OrderResult {
	results := make(map[string]OrderResult, len(sells)+len(buys))

	for _, group := range [][]OrderRequest{sells, buys} {
		for _, ord := range group {
			if !ord.Qty.IsPositive() {
				// Guard: the calculator never emits these, but a zero-qty
				// submission would be a pointless rejected API call.
				e.log.Warn().Str("symbol", ord.Symbol).Str("qty", ord.Qty.String()).
					Msg("Skipping order with non-positive quantity")
				continue
			}
			results[ord.Symbol] = e.executeOne(ctx, ord)
		}
	}

	return results
}

func (e *Executor) executeOne(ctx context.Context, ord OrderRequest) OrderResult {
	clientOrderID := uuid.NewString()
	result := OrderResult{
		Symbol:        ord.Symbol,
		Side:          ord.Side,
		ClientOrderID: clientOrderID,
	}

	e.log.Info().
		Str("symbol", ord.Symbol).
		Str("side", string(ord.Side)).
		Str("qty", ord.Qty.String()).
		Str("value", ord.Value.String()).
		Str("client_order_id", clientOrderID).
		Msg("Submitting order")

	if _, err := e.broker.SubmitOrder(ord.Symbol, ord.Qty, ord.Side, clientOrderID); err != nil {
		e.log.Error().Err(err).Str("symbol", ord.Symbol).Msg("Order submission failed")
		result.Status = StatusSubmissionFailed
		result.Err = err
		return result
	}

	result.Status = e.waitForFill(ctx, clientOrderID)

	evt := e.log.Info()
	if result.Status != StatusFilled {
		evt = e.log.Error()
	}
	evt.Str("symbol", ord.Symbol).
		Str("side", string(ord.Side)).
		Str("status", string(result.Status)).
		Str("client_order_id", clientOrderID).
		Msg("Order resolved")

	return result
}

// waitForFill polls the order status until it is terminal or the timeout
// budget is exhausted. Transient status-check errors are logged and the
// loop continues; only the clock ends it.
func (e *Executor) waitForFill(ctx context.Context, clientOrderID string) Status {
	start := e.clock.Now()

	for e.clock.Now().Sub(start) < e.timeout {
		if ctx.Err() != nil {
			return StatusTimeout
		}

		order, err := e.broker.GetOrderByClientOrderID(clientOrderID)
		if err != nil {
			e.log.Warn().Err(err).Str("client_order_id", clientOrderID).
				Msg("Status check failed, retrying")
		} else {
			switch order.Status {
			case "filled":
				return StatusFilled
			case "canceled", "cancelled":
				return StatusCancelled
			case "expired":
				return StatusExpired
			}
		}

		e.clock.Sleep(e.pollInterval)
	}

	return StatusTimeout
}
