package fetch

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sentinai/sentin"
)

// BaselineFetcher reads historical daily admission rates per illness
// category from a CSV file with a category,rate header. Each row becomes a
// rate_<category> reading key.
type BaselineFetcher struct {
	path string
}

// NewBaselineFetcher creates a baseline fetcher over a CSV file.
func NewBaselineFetcher(path string) *BaselineFetcher {
	return &BaselineFetcher{path: path}
}

// Fetch parses the CSV. Rows with a malformed rate fail the fetch rather
// than silently dropping a category from the baseline.
func (b *BaselineFetcher) Fetch(ctx context.Context) (sentin.SensorReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(b.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open baseline file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse baseline CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("baseline CSV %s has no data rows", b.path)
	}

	reading := sentin.SensorReading{}
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return nil, fmt.Errorf("baseline CSV row %d is malformed", i+2)
		}
		category := strings.TrimSpace(strings.ToLower(row[0]))
		rate, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("baseline CSV row %d has invalid rate %q: %w", i+2, row[1], err)
		}
		reading["rate_"+category] = rate
	}
	return reading, nil
}
