// Package risk scores surge risk per illness category from merged sensor
// readings. Scoring is rule-driven: each category carries a set of boolean
// expressions over reading keys, and every expression that holds adds its
// weight to the category's base score.
package risk

import (
	"log"
	"math"
	"unicode"

	"github.com/Knetic/govaluate"

	"github.com/sentinai/sentin"
)

const (
	baseScore = 1.0
	maxScore  = 10.0

	criticalThreshold = 7.0
	warningThreshold  = 4.0
)

// Rule is a weighted condition over sensor reading keys, e.g.
// "aqi > 150" with weight 3.
type Rule struct {
	Expression string
	Weight     float64
}

type compiledRule struct {
	expr   *govaluate.EvaluableExpression
	weight float64
}

// Assessor evaluates category rule sets against a reading.
type Assessor struct {
	rules map[string][]compiledRule
}

// NewAssessor compiles a rule set, keyed by category. Compilation errors
// surface immediately so a bad rule cannot silently drop out of scoring.
func NewAssessor(rules map[string][]Rule) (*Assessor, error) {
	compiled := make(map[string][]compiledRule, len(rules))
	for category, set := range rules {
		for _, rule := range set {
			expr, err := govaluate.NewEvaluableExpression(rule.Expression)
			if err != nil {
				return nil, sentin.NewConfigurationError("invalid risk rule: "+rule.Expression, err)
			}
			compiled[category] = append(compiled[category], compiledRule{expr: expr, weight: rule.Weight})
		}
	}
	return &Assessor{rules: compiled}, nil
}

// NewDefaultAssessor compiles the built-in rule set. The rules are static,
// so compilation cannot fail.
func NewDefaultAssessor() *Assessor {
	a, err := NewAssessor(DefaultRules())
	if err != nil {
		panic(err)
	}
	return a
}

// Assess scores every category. Scores start at the base, accumulate the
// weights of matching rules, are capped at the maximum, and round to one
// decimal place. A rule that references a missing reading key is skipped.
func (a *Assessor) Assess(reading sentin.SensorReading) map[string]sentin.RiskScore {
	params := make(map[string]interface{}, len(reading))
	for key, value := range reading {
		params[key] = value
	}

	out := make(map[string]sentin.RiskScore, len(a.rules))
	for category, rules := range a.rules {
		score := baseScore
		for _, rule := range rules {
			result, err := rule.expr.Evaluate(params)
			if err != nil {
				log.Printf("Risk rule skipped (category: %s, error: %v)", category, err)
				continue
			}
			if matched, ok := result.(bool); ok && matched {
				score += rule.weight
			}
		}
		if score > maxScore {
			score = maxScore
		}
		score = math.Round(score*10) / 10
		out[category] = sentin.RiskScore{
			Score:  score,
			Status: statusFor(score),
		}
	}
	return out
}

func statusFor(score float64) string {
	switch {
	case score >= criticalThreshold:
		return sentin.StatusCritical
	case score >= warningThreshold:
		return sentin.StatusWarning
	default:
		return sentin.StatusNormal
	}
}

// DefaultRules returns the built-in scoring rules for the three tracked
// categories.
func DefaultRules() map[string][]Rule {
	return map[string][]Rule{
		sentin.CategoryRespiratory: {
			{Expression: "aqi > 150", Weight: 3},
			{Expression: "aqi > 100 && aqi <= 150", Weight: 1.5},
			{Expression: "temp < 18", Weight: 2},
			{Expression: "(cough + cold + asthma) / 3 > 50", Weight: 3},
		},
		sentin.CategoryWater: {
			{Expression: "rainfall > 100", Weight: 3},
			{Expression: "(loose_motion + vomiting + stomach_pain) / 3 > 40", Weight: 4},
		},
		sentin.CategoryVector: {
			{Expression: "humidity > 70", Weight: 2},
			{Expression: "temp > 25 && temp < 34", Weight: 2},
			{Expression: "rainfall > 50", Weight: 1},
			{Expression: "(dengue + fever) / 2 > 60", Weight: 4},
			{Expression: "(dengue + fever) / 2 > 30 && (dengue + fever) / 2 <= 60", Weight: 2},
		},
	}
}

// trendKeys are the symptom search terms tracked by the trends source.
var trendKeys = []string{
	"dengue", "fever", "asthma", "cough", "cold",
	"loose_motion", "vomiting", "stomach_pain",
}

// TopTrend returns the symptom term with the highest reading, title-cased
// for use as the headline trend in a risk state. It returns "" when no trend
// keys are present.
func TopTrend(reading sentin.SensorReading) string {
	top := ""
	best := math.Inf(-1)
	for _, key := range trendKeys {
		value, ok := reading[key]
		if !ok {
			continue
		}
		if value > best {
			best = value
			top = key
		}
	}
	return titleTrend(top)
}

// titleTrend uppercases the first letter of each word, words being split on
// spaces and underscores ("loose_motion" becomes "Loose_Motion").
func titleTrend(term string) string {
	out := []rune(term)
	upNext := true
	for i, r := range out {
		if r == ' ' || r == '_' {
			upNext = true
			continue
		}
		if upNext {
			out[i] = unicode.ToUpper(r)
			upNext = false
		}
	}
	return string(out)
}
