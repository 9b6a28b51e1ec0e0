package allocation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names as exported by Composer. The format is externally owned; we
// only validate that the columns exist.
const (
	colSymphony = "Symphony"
	colTicker   = "Ticker"
	colPercent  = "Ticker Allocation Percent"
)

// ParseCSV reads the allocation sheet and returns the raw (un-normalized)
// weights of the given symphony, keyed by ticker. Duplicate tickers within
// one symphony are summed, since the export carries one row per slot.
//
// Any non-numeric or negative percent rejects the whole batch: downstream
// budget math assumes a complete, valid distribution.
func ParseCSV(r io.Reader, symphony string) (map[string]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("allocation: reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range []string{colSymphony, colTicker, colPercent} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	raw := make(map[string]float64)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("allocation: reading line %d: %w", line, err)
		}
		if len(record) <= idx[colPercent] || len(record) <= idx[colTicker] || len(record) <= idx[colSymphony] {
			return nil, fmt.Errorf("allocation: short record at line %d", line)
		}
		if strings.TrimSpace(record[idx[colSymphony]]) != symphony {
			continue
		}

		ticker := strings.TrimSpace(record[idx[colTicker]])
		if ticker == "" {
			return nil, fmt.Errorf("%w: empty ticker at line %d", ErrBadAllocationValue, line)
		}

		pct, err := strconv.ParseFloat(strings.TrimSpace(record[idx[colPercent]]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q for %s at line %d", ErrBadAllocationValue,
				record[idx[colPercent]], ticker, line)
		}
		if pct < 0 {
			return nil, fmt.Errorf("%w: negative percent %f for %s at line %d", ErrBadAllocationValue,
				pct, ticker, line)
		}

		raw[ticker] += pct
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrSymphonyNotFound, symphony)
	}
	return raw, nil
}
