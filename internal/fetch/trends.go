package fetch

import (
	"context"
	"net/url"
	"strings"

	"github.com/sentinai/sentin"
)

// trendBatchSize caps the number of terms per upstream request; the trends
// API rejects larger batches.
const trendBatchSize = 5

// defaultTrendTerms are the symptom search terms tracked for surge signals.
var defaultTrendTerms = []string{
	"dengue", "fever", "asthma", "cough", "cold",
	"loose_motion", "vomiting", "stomach_pain",
}

// TrendsFetcher reads relative search interest (0-100) for symptom terms
// from a trends endpoint, batching terms to respect the upstream limit.
type TrendsFetcher struct {
	baseURL string
	terms   []string
	opts    Options
}

// NewTrendsFetcher creates a trends fetcher for the default symptom terms.
func NewTrendsFetcher(baseURL string, opts Options) *TrendsFetcher {
	return &TrendsFetcher{
		baseURL: baseURL,
		terms:   defaultTrendTerms,
		opts:    opts.withDefaults(),
	}
}

// Fetch queries every term batch and merges the results into one reading.
// A failure in any batch fails the whole fetch; partial trend data would
// skew the symptom averages.
func (t *TrendsFetcher) Fetch(ctx context.Context) (sentin.SensorReading, error) {
	reading := sentin.SensorReading{}
	for start := 0; start < len(t.terms); start += trendBatchSize {
		end := start + trendBatchSize
		if end > len(t.terms) {
			end = len(t.terms)
		}
		batch := t.terms[start:end]

		u := t.baseURL + "?terms=" + url.QueryEscape(strings.Join(batch, ","))
		var values map[string]float64
		if err := getJSON(ctx, t.opts, u, &values); err != nil {
			return nil, err
		}
		for term, value := range values {
			reading[term] = value
		}
	}
	return reading, nil
}
