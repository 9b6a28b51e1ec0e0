package rebalance

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/joshwigginton/composer-signals-alpaca/internal/broker"
	"github.com/joshwigginton/composer-signals-alpaca/internal/models"
)

// TargetProvider supplies the normalized target allocation for the run.
type TargetProvider interface {
	TargetAllocations(ctx context.Context) (map[string]float64, error)
}

// Report summarizes one rebalancing run.
type Report struct {
	Target     map[string]float64
	Positions  models.Snapshot
	Budget     decimal.Decimal
	MarketOpen bool
	Sells      int
	Buys       int
	Results    map[string]OrderResult
}

// Filled counts the orders that reached a fill.
func (r *Report) Filled() int {
	n := 0
	for _, res := range r.Results {
		if res.Succeeded() {
			n++
		}
	}
	return n
}

// Service owns the end-to-end run sequence. It holds no algorithmic
// logic itself: fetch target, snapshot the account, size the budget, gate
// on the market clock, then compute, sequence and execute.
type Service struct {
	targets    TargetProvider
	broker     broker.Broker
	calculator *Calculator
	executor   *Executor
	cashWeight float64
	log        zerolog.Logger
}

// NewService wires the orchestrator.
func NewService(targets TargetProvider, b broker.Broker, calc *Calculator, exec *Executor, cashWeight float64, log zerolog.Logger) *Service {
	return &Service{
		targets:    targets,
		broker:     b,
		calculator: calc,
		executor:   exec,
		cashWeight: cashWeight,
		log:        log.With().Str("component", "rebalance").Logger(),
	}
}

// Run performs one rebalancing cycle. trigger is the opaque payload of
// the invoking event, logged for traceability only.
//
// A closed market is a clean short-circuit, not an error. Per-order
// failures are recorded in the report but do not fail the run; only a
// failure to assemble the run's inputs returns an error.
func (s *Service) Run(ctx context.Context, trigger string) (*Report, error) {
	s.log.Info().Str("trigger", trigger).Msg("Rebalancing run started")

	target, err := s.targets.TargetAllocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebalance: fetching target allocations: %w", err)
	}
	s.log.Info().Interface("allocations", target).Msg("Target allocations computed")

	positions, err := s.broker.ListPositions()
	if err != nil {
		return nil, fmt.Errorf("rebalance: listing positions: %w", err)
	}
	s.log.Info().Int("count", len(positions)).Strs("symbols", positions.Symbols()).
		Msg("Current positions fetched")

	equity, err := s.broker.GetEquity()
	if err != nil {
		return nil, fmt.Errorf("rebalance: fetching account equity: %w", err)
	}
	budget := equity.Mul(decimal.NewFromFloat(s.cashWeight))
	s.log.Info().
		Str("equity", equity.String()).
		Float64("cash_weight", s.cashWeight).
		Str("budget", budget.String()).
		Msg("Investment budget computed")

	report := &Report{
		Target:    target,
		Positions: positions,
		Budget:    budget,
		Results:   map[string]OrderResult{},
	}

	clock, err := s.broker.GetClock()
	if err != nil {
		return nil, fmt.Errorf("rebalance: fetching market clock: %w", err)
	}
	report.MarketOpen = clock.IsOpen
	if !clock.IsOpen {
		s.log.Info().Time("next_open", clock.NextOpen).
			Msg("Market is closed, no orders will be placed")
		return report, nil
	}

	orders := s.calculator.ComputeOrders(target, positions, budget)
	sells, buys := Separate(orders)
	report.Sells = len(sells)
	report.Buys = len(buys)
	s.log.Info().Int("sells", len(sells)).Int("buys", len(buys)).Msg("Orders computed")

	report.Results = s.executor.Execute(ctx, sells, buys)

	s.log.Info().
		Int("attempted", len(report.Results)).
		Int("filled", report.Filled()).
		Msg("Rebalancing complete")
	return report, nil
}
