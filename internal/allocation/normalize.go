package allocation

import "fmt"

// Normalize scales raw weights into a distribution summing to 1.0. The
// zero-sum case is guarded explicitly: it would otherwise divide by zero
// and must be reported, not papered over.
func Normalize(raw map[string]float64) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, ErrSymphonyNotFound
	}

	var total float64
	for ticker, w := range raw {
		if w < 0 {
			return nil, fmt.Errorf("%w: negative weight %f for %s", ErrBadAllocationValue, w, ticker)
		}
		total += w
	}
	if total == 0 {
		return nil, ErrZeroAllocation
	}

	normalized := make(map[string]float64, len(raw))
	for ticker, w := range raw {
		normalized[ticker] = w / total
	}
	return normalized, nil
}
