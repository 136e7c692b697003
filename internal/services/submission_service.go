package services

import (
	"context"

	"github.com/findmelab/findme/internal/models"
)

// SubmissionService runs the submit workflow: resolve the active definition,
// score the answers, persist the result.
type SubmissionService struct {
	definitions *DefinitionService
	results     *ResultService
}

func NewSubmissionService(definitions *DefinitionService, results *ResultService) *SubmissionService {
	return &SubmissionService{definitions: definitions, results: results}
}

// Submit scores answers against the active definition for testCode and
// records the result, attributed to ownerID when the caller is known.
func (s *SubmissionService) Submit(ctx context.Context, testCode, ownerID string, answers []models.Answer, attachment string) (*models.Result, error) {
	def, err := s.definitions.GetActive(ctx, testCode)
	if err != nil {
		return nil, err
	}
	scored, err := Score(def, answers)
	if err != nil {
		return nil, err
	}
	return s.results.Record(ctx, ownerID, def.Code, scored.Normalized, scored.Traits, attachment)
}
