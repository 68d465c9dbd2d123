package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/sentinai/sentin"
)

// CanonicalHash derives a stable fingerprint of a risk state. Two states with
// the same environment readings and the same per-category scores hash
// identically regardless of map iteration order, so the hash can key a
// decision cache.
func CanonicalHash(state sentin.RiskState) string {
	parts := make([]string, 0, len(state.Environment)+len(state.Predictions))
	for key, value := range state.Environment {
		parts = append(parts, "env:"+key+"="+formatFloat(value))
	}
	for category, score := range state.Predictions {
		parts = append(parts, "risk:"+category+"="+formatFloat(score.Score)+":"+score.Status)
	}
	sort.Strings(parts)

	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
