package services

import (
	"math"
	"testing"

	"github.com/findmelab/findme/internal/models"
)

func TestReverseScore(t *testing.T) {
	cases := []struct {
		raw, points, want int
	}{
		{1, 5, 5},
		{2, 5, 4},
		{3, 5, 3},
		{5, 5, 1},
		{0, 5, 5},
		{6, 5, 1},
		{1, 7, 7},
		{7, 7, 1},
	}
	for _, c := range cases {
		if got := ReverseScore(c.raw, c.points); got != c.want {
			t.Fatalf("ReverseScore(%d,%d)=%d, want %d", c.raw, c.points, got, c.want)
		}
	}
}

func traitDefinition() *models.TestDefinition {
	return &models.TestDefinition{
		Code:    "trait_v1",
		Version: 1,
		Status:  models.StatusPublished,
		Questions: []models.Question{
			{ID: "Q1"},
			{ID: "Q2", Reverse: true},
			{ID: "Q3"},
			{ID: "Q4"},
			{ID: "Q5"},
		},
		Scoring: models.ScoringSpec{
			ScaleMin: 1,
			ScaleMax: 5,
			TraitRules: []models.TraitRule{
				{Name: "A", NormCoeff: 0.9},
				{Name: "B", Base: 100, NormCoeff: -0.5},
				{Name: "C", RawCoeff: 1.2},
			},
		},
	}
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScoreReferenceVector(t *testing.T) {
	answers := []models.Answer{
		{QuestionID: "Q1", Value: 5},
		{QuestionID: "Q2", Value: 1},
		{QuestionID: "Q3", Value: 3},
		{QuestionID: "Q4", Value: 4},
		{QuestionID: "Q5", Value: 2},
	}
	got, err := Score(traitDefinition(), answers)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	// raw total = 5 + (6-1) + 3 + 4 + 2 = 19, average 3.8, normalized 70.
	if !almostEqual(got.RawTotal, 19) {
		t.Fatalf("raw total = %v, want 19", got.RawTotal)
	}
	if !almostEqual(got.Normalized, 70) {
		t.Fatalf("normalized = %v, want 70", got.Normalized)
	}
	if !almostEqual(got.Traits["A"], 63) {
		t.Fatalf("trait A = %v, want 63", got.Traits["A"])
	}
	if !almostEqual(got.Traits["B"], 65) {
		t.Fatalf("trait B = %v, want 65", got.Traits["B"])
	}
	if !almostEqual(got.Traits["C"], 91.2) {
		t.Fatalf("trait C = %v, want 91.2", got.Traits["C"])
	}
}

func TestScoreDeterministic(t *testing.T) {
	answers := []models.Answer{
		{QuestionID: "Q1", Value: 4},
		{QuestionID: "Q2", Value: 2},
		{QuestionID: "Q3", Value: 5},
	}
	def := traitDefinition()
	first, err := Score(def, answers)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Score(def, answers)
		if err != nil {
			t.Fatalf("Score returned error on call %d: %v", i, err)
		}
		if !almostEqual(again.Normalized, first.Normalized) {
			t.Fatalf("normalized drifted: %v vs %v", again.Normalized, first.Normalized)
		}
		for name, v := range first.Traits {
			if !almostEqual(again.Traits[name], v) {
				t.Fatalf("trait %s drifted: %v vs %v", name, again.Traits[name], v)
			}
		}
	}
}

func TestScoreBounds(t *testing.T) {
	def := traitDefinition()
	for _, v := range []int{1, 2, 3, 4, 5} {
		answers := make([]models.Answer, 0, len(def.Questions))
		for _, q := range def.Questions {
			answers = append(answers, models.Answer{QuestionID: q.ID, Value: v})
		}
		got, err := Score(def, answers)
		if err != nil {
			t.Fatalf("Score(%d) returned error: %v", v, err)
		}
		if got.Normalized < 0 || got.Normalized > 100 {
			t.Fatalf("normalized %v out of [0,100] for uniform value %d", got.Normalized, v)
		}
	}
}

func TestScoreEmptySubmission(t *testing.T) {
	_, err := Score(traitDefinition(), nil)
	if err == nil {
		t.Fatalf("expected error for empty submission")
	}
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestScoreUnknownQuestionSkipped(t *testing.T) {
	// The unknown answer contributes nothing to the numerator but still
	// counts toward the denominator.
	answers := []models.Answer{
		{QuestionID: "Q1", Value: 5},
		{QuestionID: "NOPE", Value: 5},
	}
	got, err := Score(traitDefinition(), answers)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !almostEqual(got.RawTotal, 5) {
		t.Fatalf("raw total = %v, want 5", got.RawTotal)
	}
	// average = 5/2 = 2.5, normalized = ((2.5-1)/4)*100 = 37.5
	if !almostEqual(got.Normalized, 37.5) {
		t.Fatalf("normalized = %v, want 37.5", got.Normalized)
	}
}
