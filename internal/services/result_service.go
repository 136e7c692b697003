package services

import (
	"context"
	"strings"
	"time"

	"github.com/findmelab/findme/internal/models"
)

// ResultStore abstracts persistence for scored results. Results are
// insert-only; there is no update operation.
type ResultStore interface {
	InsertResult(ctx context.Context, r *models.Result) error
	GetResult(ctx context.Context, id string) (*models.Result, error)
	// ListResults returns up to limit results for owner ordered by creation
	// time descending, skipping offset rows.
	ListResults(ctx context.Context, ownerID string, offset, limit int) ([]*models.Result, error)
}

// ResultService owns the immutable result ledger.
type ResultService struct {
	store ResultStore
	now   func() time.Time
	idGen func() string
}

func NewResultService(store ResultStore) *ResultService {
	return &ResultService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: shortID,
	}
}

// Record persists one scored submission and returns the stored record with
// its assigned id and timestamp. ownerID is empty for anonymous callers.
func (s *ResultService) Record(ctx context.Context, ownerID, testCode string, score float64, traits map[string]float64, attachment string) (*models.Result, error) {
	if strings.TrimSpace(testCode) == "" {
		return nil, NewInvalidError("testCode: required")
	}
	r := &models.Result{
		ID:         s.idGen(),
		OwnerID:    ownerID,
		TestCode:   testCode,
		Score:      score,
		Traits:     traits,
		Attachment: attachment,
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertResult(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ResultService) Get(ctx context.Context, id string) (*models.Result, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewInvalidError("id: required")
	}
	r, err := s.store.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, NewNotFoundError("result not found: " + id)
	}
	return r, nil
}

// List pages through an owner's results, newest first. hasMore reports
// whether another page exists.
func (s *ResultService) List(ctx context.Context, ownerID string, page, pageSize int) ([]*models.Result, bool, error) {
	if page < 0 {
		page = 0
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	// Fetch one extra row to decide hasMore without a count query.
	items, err := s.store.ListResults(ctx, ownerID, page*pageSize, pageSize+1)
	if err != nil {
		return nil, false, err
	}
	hasMore := len(items) > pageSize
	if hasMore {
		items = items[:pageSize]
	}
	return items, hasMore, nil
}
