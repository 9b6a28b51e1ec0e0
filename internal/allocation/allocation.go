// Package allocation fetches the symphony allocation sheet, selects the
// rows of one symphony, and turns them into a normalized target
// allocation. A failure at any stage is a hard error for the run: an
// invalid or missing target must never degrade into an empty one, because
// an empty target downstream means "liquidate everything".
package allocation

import (
	"context"
	"errors"
	"io"
)

// Data-integrity failures. Callers distinguish them with errors.Is.
var (
	// ErrMissingColumns means the sheet does not carry the required
	// Symphony / Ticker / Ticker Allocation Percent columns.
	ErrMissingColumns = errors.New("allocation: missing required columns")

	// ErrSymphonyNotFound means the symphony filter matched zero rows.
	// Treated as a validation failure, not an empty-but-valid target.
	ErrSymphonyNotFound = errors.New("allocation: symphony has no rows in sheet")

	// ErrBadAllocationValue means at least one allocation percent failed
	// numeric coercion or was negative. The whole batch is rejected.
	ErrBadAllocationValue = errors.New("allocation: invalid allocation value")

	// ErrZeroAllocation means the raw weights sum to zero and cannot be
	// normalized.
	ErrZeroAllocation = errors.New("allocation: allocations sum to zero")
)

// Source provides the raw allocation CSV. Implementations fetch from
// Google Drive or an S3-compatible store.
type Source interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
}

// Fetcher ties a source to the parse and normalize steps.
type Fetcher struct {
	source   Source
	symphony string
}

// NewFetcher returns a fetcher bound to one symphony name.
func NewFetcher(source Source, symphony string) *Fetcher {
	return &Fetcher{source: source, symphony: symphony}
}

// TargetAllocations fetches the sheet and returns the symphony's
// normalized weights, summing to 1.0.
func (f *Fetcher) TargetAllocations(ctx context.Context) (map[string]float64, error) {
	body, err := f.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := ParseCSV(body, f.symphony)
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}
