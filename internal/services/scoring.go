package services

import (
	"github.com/findmelab/findme/internal/models"
)

// ReverseScore maps a raw Likert value to its reverse-scored value given the
// number of points in the scale (e.g., 5 or 7). raw is expected to be within
// [1, points]. Out-of-range values are clamped.
func ReverseScore(raw, points int) int {
	if points < 2 {
		return raw
	}
	if raw < 1 {
		raw = 1
	}
	if raw > points {
		raw = points
	}
	return (points + 1) - raw
}

// ScoreResult is the output of scoring one submission.
type ScoreResult struct {
	Normalized float64
	RawTotal   float64
	Traits     map[string]float64
}

// Score computes the normalized 0-100 score and the trait vector for a
// submission against a definition. It is pure: the same definition and
// answers always produce the same result.
//
// Answers referencing unknown question ids contribute nothing to the total
// but still count toward the denominator; that preserves the scoring
// semantics of previously published results.
func Score(def *models.TestDefinition, answers []models.Answer) (*ScoreResult, error) {
	if def == nil {
		return nil, NewNotFoundError("test definition required")
	}
	if len(answers) == 0 {
		return nil, NewInvalidError("answers: must not be empty")
	}

	scaleMin := def.Scoring.ScaleMin
	scaleMax := def.Scoring.ScaleMax
	if scaleMax <= scaleMin {
		scaleMin, scaleMax = 1, 5
	}

	byID := make(map[string]models.Question, len(def.Questions))
	for _, q := range def.Questions {
		byID[q.ID] = q
	}

	total := 0.0
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		v := a.Value
		if q.Reverse {
			v = ReverseScore(v, scaleMax)
		}
		total += float64(v)
	}

	average := total / float64(len(answers))
	normalized := ((average - float64(scaleMin)) / float64(scaleMax-scaleMin)) * 100

	traits := make(map[string]float64, len(def.Scoring.TraitRules))
	rawRatio := 0.0
	if n := len(def.Questions); n > 0 {
		rawRatio = total / float64(n*scaleMax) * 100
	}
	for _, rule := range def.Scoring.TraitRules {
		traits[rule.Name] = rule.Base + rule.NormCoeff*normalized + rule.RawCoeff*rawRatio
	}

	return &ScoreResult{Normalized: normalized, RawTotal: total, Traits: traits}, nil
}
