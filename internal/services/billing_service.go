package services

import (
	"context"
	"strings"
	"time"

	"github.com/findmelab/findme/internal/models"
)

// BillingStore abstracts persistence for purchases and entitlements.
// RecordPaidPurchase must append the purchase and upsert the entitlement as
// one atomic unit; the entitlement upsert is a single-row operation keyed on
// (user_id, item_code) so concurrent payments cannot produce duplicate rows.
type BillingStore interface {
	RecordPaidPurchase(ctx context.Context, p *models.Purchase, e *models.Entitlement) error
	GetEntitlement(ctx context.Context, userID, itemCode string) (*models.Entitlement, error)
	ListEntitlements(ctx context.Context, userID string) ([]*models.Entitlement, error)
}

// BillingService applies mock payment events and answers entitlement checks.
type BillingService struct {
	store BillingStore
	now   func() time.Time
	idGen func() string
}

func NewBillingService(store BillingStore) *BillingService {
	return &BillingService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: shortID,
	}
}

// RecordPayment appends a PAID purchase for userID and grants (or refreshes)
// the matching entitlement. The mock flow never fails after the identity
// check. Repeated payments for the same item leave exactly one entitlement
// row, permanent after every call: the upsert only ever clears expires_at,
// never sets it, so a permanent grant cannot be downgraded.
func (s *BillingService) RecordPayment(ctx context.Context, userID, itemCode string, amount int64) (*models.Purchase, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("login required for payment")
	}
	itemCode = strings.TrimSpace(itemCode)
	if itemCode == "" {
		return nil, NewInvalidError("itemCode: required")
	}
	if amount < 0 {
		return nil, NewInvalidError("amount: must not be negative")
	}

	now := s.now()
	purchase := &models.Purchase{
		ID:        s.idGen(),
		UserID:    userID,
		ItemCode:  itemCode,
		Amount:    amount,
		Status:    "PAID",
		CreatedAt: now,
	}
	entitlement := &models.Entitlement{
		ID:        s.idGen(),
		UserID:    userID,
		ItemCode:  itemCode,
		ExpiresAt: nil, // permanent
		GrantedAt: now,
	}
	if err := s.store.RecordPaidPurchase(ctx, purchase, entitlement); err != nil {
		return nil, err
	}
	return purchase, nil
}

// HasEntitlement reports whether userID holds a live entitlement for
// itemCode: the row exists and, when time-bounded, has not expired.
func (s *BillingService) HasEntitlement(ctx context.Context, userID, itemCode string) (bool, error) {
	if userID == "" || itemCode == "" {
		return false, nil
	}
	e, err := s.store.GetEntitlement(ctx, userID, itemCode)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}
	if e.ExpiresAt != nil && !e.ExpiresAt.After(s.now()) {
		return false, nil
	}
	return true, nil
}

// ListEntitlements returns every entitlement held by userID.
func (s *BillingService) ListEntitlements(ctx context.Context, userID string) ([]*models.Entitlement, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("login required")
	}
	return s.store.ListEntitlements(ctx, userID)
}
