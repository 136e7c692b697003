package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/findmelab/findme/internal/models"
)

// DefinitionStore abstracts persistence for versioned test definitions.
// PublishDefinition and ArchiveDefinition must execute as single atomic
// units: readers never observe two PUBLISHED versions for one code, nor zero
// mid-transition for a code that had one.
type DefinitionStore interface {
	GetActiveDefinition(ctx context.Context, code string) (*models.TestDefinition, error)
	GetDefinition(ctx context.Context, code string, version int) (*models.TestDefinition, error)
	MaxDefinitionVersion(ctx context.Context, code string) (int, error)
	InsertDefinition(ctx context.Context, def *models.TestDefinition) error
	ListDefinitionVersions(ctx context.Context, code string) ([]*models.TestDefinition, error)
	// PublishDefinition archives the currently published version for code (if
	// any) and promotes the target version, in one transaction. It reports
	// whether the target version exists.
	PublishDefinition(ctx context.Context, code string, version int, now time.Time) (bool, error)
	ArchiveDefinition(ctx context.Context, code string, version int, now time.Time) (bool, error)
}

// ImportRequest carries a new draft definition version.
type ImportRequest struct {
	Code      string             `json:"code"`
	Title     string             `json:"title"`
	Version   int                `json:"version"`
	Questions []models.Question  `json:"questions"`
	Scoring   models.ScoringSpec `json:"scoring"`
}

// DefinitionService owns the definition publish lifecycle:
// DRAFT -> PUBLISHED -> ARCHIVED, no deletion.
type DefinitionService struct {
	store DefinitionStore
	now   func() time.Time
	idGen func() string
}

func NewDefinitionService(store DefinitionStore) *DefinitionService {
	return &DefinitionService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: shortID,
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// GetActive returns the PUBLISHED definition for code. DRAFT and ARCHIVED
// versions are never served to submission endpoints.
func (s *DefinitionService) GetActive(ctx context.Context, code string) (*models.TestDefinition, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, NewInvalidError("code: required")
	}
	def, err := s.store.GetActiveDefinition(ctx, code)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, NewNotFoundError("test not found: " + code)
	}
	return def, nil
}

// Import creates a new DRAFT version. The version must be strictly greater
// than the highest existing version for the code.
func (s *DefinitionService) Import(ctx context.Context, req ImportRequest) (*models.TestDefinition, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Title = strings.TrimSpace(req.Title)
	if req.Code == "" {
		return nil, NewInvalidError("code: required")
	}
	if req.Title == "" {
		return nil, NewInvalidError("title: required")
	}
	if req.Version < 1 {
		return nil, NewInvalidError("version: must be >= 1")
	}
	if len(req.Questions) == 0 {
		return nil, NewInvalidError("questions: must not be empty")
	}
	seen := make(map[string]bool, len(req.Questions))
	for _, q := range req.Questions {
		if strings.TrimSpace(q.ID) == "" {
			return nil, NewInvalidError("questions: id required")
		}
		if seen[q.ID] {
			return nil, NewInvalidError("questions: duplicate id " + q.ID)
		}
		seen[q.ID] = true
	}
	if req.Scoring.ScaleMax <= req.Scoring.ScaleMin {
		req.Scoring.ScaleMin, req.Scoring.ScaleMax = 1, 5
	}

	maxVersion, err := s.store.MaxDefinitionVersion(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if req.Version <= maxVersion {
		return nil, NewConflictError("duplicate version: " + req.Code)
	}

	now := s.now()
	def := &models.TestDefinition{
		ID:        s.idGen(),
		Code:      req.Code,
		Version:   req.Version,
		Status:    models.StatusDraft,
		Title:     req.Title,
		Questions: req.Questions,
		Scoring:   req.Scoring,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertDefinition(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// Publish promotes the target version to PUBLISHED, archiving any currently
// published version of the same code in the same transaction. Publishing an
// already-published version is a no-op in effect.
func (s *DefinitionService) Publish(ctx context.Context, code string, version int) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return NewInvalidError("code: required")
	}
	found, err := s.store.PublishDefinition(ctx, code, version, s.now())
	if err != nil {
		return err
	}
	if !found {
		return NewNotFoundError("test version not found")
	}
	return nil
}

// Archive retires a version directly. Archiving the published version leaves
// the code with no active definition.
func (s *DefinitionService) Archive(ctx context.Context, code string, version int) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return NewInvalidError("code: required")
	}
	found, err := s.store.ArchiveDefinition(ctx, code, version, s.now())
	if err != nil {
		return err
	}
	if !found {
		return NewNotFoundError("test version not found")
	}
	return nil
}

// ListVersions returns every version for a code, newest first.
func (s *DefinitionService) ListVersions(ctx context.Context, code string) ([]*models.TestDefinition, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, NewInvalidError("code: required")
	}
	return s.store.ListDefinitionVersions(ctx, code)
}

// Seed installs the built-in trait_v1 definition on first run.
func (s *DefinitionService) Seed(ctx context.Context) error {
	maxVersion, err := s.store.MaxDefinitionVersion(ctx, "trait_v1")
	if err != nil {
		return err
	}
	if maxVersion > 0 {
		return nil
	}
	now := s.now()
	def := &models.TestDefinition{
		ID:      s.idGen(),
		Code:    "trait_v1",
		Version: 1,
		Status:  models.StatusPublished,
		Title:   "Trait Test v1",
		Questions: []models.Question{
			{ID: "Q1", Body: "I enjoy meeting new people."},
			{ID: "Q2", Body: "Spending time alone drains my energy.", Reverse: true},
			{ID: "Q3", Body: "I like being the center of conversation."},
			{ID: "Q4", Body: "I prefer making plans and sticking to them."},
			{ID: "Q5", Body: "I enjoy spontaneous activities."},
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
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.store.InsertDefinition(ctx, def)
}
