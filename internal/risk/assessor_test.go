package risk

import (
	"testing"

	"github.com/sentinai/sentin"
)

func fullReading() sentin.SensorReading {
	return sentin.SensorReading{
		"temp": 32.5, "rainfall": 120.5, "humidity": 78, "aqi": 165,
		"dengue": 85, "fever": 60, "asthma": 40, "cough": 30, "cold": 20,
		"loose_motion": 15, "vomiting": 10, "stomach_pain": 25,
	}
}

func TestAssessSevereConditions(t *testing.T) {
	a := NewDefaultAssessor()
	scores := a.Assess(fullReading())

	// vector: base 1 + humidity 2 + temp band 2 + rainfall 1 + trend avg 72.5 -> 4 = 10
	vector := scores[sentin.CategoryVector]
	if vector.Score != 10 {
		t.Errorf("expected vector score 10, got %v", vector.Score)
	}
	if vector.Status != sentin.StatusCritical {
		t.Errorf("expected vector CRITICAL, got %s", vector.Status)
	}

	// respiratory: base 1 + aqi>150 -> 3 = 4 (symptom avg 30, temp warm)
	resp := scores[sentin.CategoryRespiratory]
	if resp.Score != 4 {
		t.Errorf("expected respiratory score 4, got %v", resp.Score)
	}
	if resp.Status != sentin.StatusWarning {
		t.Errorf("expected respiratory WARNING, got %s", resp.Status)
	}

	// water: base 1 + rainfall>100 -> 3 = 4 (symptom avg 16.7)
	water := scores[sentin.CategoryWater]
	if water.Score != 4 {
		t.Errorf("expected water score 4, got %v", water.Score)
	}
}

func TestAssessCalmConditions(t *testing.T) {
	a := NewDefaultAssessor()
	scores := a.Assess(sentin.SensorReading{
		"temp": 22, "rainfall": 5, "humidity": 40, "aqi": 60,
		"dengue": 5, "fever": 10, "asthma": 5, "cough": 8, "cold": 6,
		"loose_motion": 2, "vomiting": 1, "stomach_pain": 3,
	})

	for category, score := range scores {
		if score.Score != 1 {
			t.Errorf("expected base score 1 for %s, got %v", category, score.Score)
		}
		if score.Status != sentin.StatusNormal {
			t.Errorf("expected NORMAL for %s, got %s", category, score.Status)
		}
	}
}

func TestAssessModerateAQIBand(t *testing.T) {
	a := NewDefaultAssessor()
	scores := a.Assess(sentin.SensorReading{
		"temp": 22, "rainfall": 0, "humidity": 40, "aqi": 120,
		"dengue": 0, "fever": 0, "asthma": 0, "cough": 0, "cold": 0,
		"loose_motion": 0, "vomiting": 0, "stomach_pain": 0,
	})

	// Only the 100-150 band fires: base 1 + 1.5.
	resp := scores[sentin.CategoryRespiratory]
	if resp.Score != 2.5 {
		t.Errorf("expected respiratory 2.5, got %v", resp.Score)
	}
}

func TestAssessMissingKeySkipsRule(t *testing.T) {
	a := NewDefaultAssessor()
	// No symptom keys at all. Environment rules still evaluate.
	scores := a.Assess(sentin.SensorReading{
		"temp": 30, "rainfall": 60, "humidity": 80, "aqi": 50,
	})

	vector := scores[sentin.CategoryVector]
	// humidity 2 + temp band 2 + rainfall 1, trend rules skipped.
	if vector.Score != 6 {
		t.Errorf("expected vector 6 with trend rules skipped, got %v", vector.Score)
	}
}

func TestNewAssessorRejectsBadRule(t *testing.T) {
	_, err := NewAssessor(map[string][]Rule{
		"broken": {{Expression: "aqi >> ((", Weight: 1}},
	})
	if err == nil {
		t.Fatal("expected error for unparseable rule")
	}
}

func TestTopTrend(t *testing.T) {
	if got := TopTrend(fullReading()); got != "Dengue" {
		t.Errorf("expected top trend 'Dengue', got %q", got)
	}
	if got := TopTrend(sentin.SensorReading{"temp": 30}); got != "" {
		t.Errorf("expected empty top trend, got %q", got)
	}
	// Multi-word terms title each segment.
	if got := TopTrend(sentin.SensorReading{"loose_motion": 90}); got != "Loose_Motion" {
		t.Errorf("expected 'Loose_Motion', got %q", got)
	}
}
