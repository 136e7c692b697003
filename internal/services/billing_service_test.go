package services

import (
	"context"
	"testing"
	"time"

	"github.com/findmelab/findme/internal/models"
)

// billingStubStore mirrors the upsert semantics of the sqlite store: one
// entitlement row per (user, item), conflict upgrades to permanent.
type billingStubStore struct {
	purchases    []*models.Purchase
	entitlements map[string]*models.Entitlement
}

func newBillingStubStore() *billingStubStore {
	return &billingStubStore{entitlements: map[string]*models.Entitlement{}}
}

func entKey(userID, itemCode string) string { return userID + "\x00" + itemCode }

func (s *billingStubStore) RecordPaidPurchase(_ context.Context, p *models.Purchase, e *models.Entitlement) error {
	s.purchases = append(s.purchases, p)
	key := entKey(e.UserID, e.ItemCode)
	if existing, ok := s.entitlements[key]; ok {
		existing.ExpiresAt = nil
		existing.GrantedAt = e.GrantedAt
		return nil
	}
	copy := *e
	s.entitlements[key] = &copy
	return nil
}

func (s *billingStubStore) GetEntitlement(_ context.Context, userID, itemCode string) (*models.Entitlement, error) {
	if e, ok := s.entitlements[entKey(userID, itemCode)]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, nil
}

func (s *billingStubStore) ListEntitlements(_ context.Context, userID string) ([]*models.Entitlement, error) {
	var out []*models.Entitlement
	for _, e := range s.entitlements {
		if e.UserID == userID {
			copy := *e
			out = append(out, &copy)
		}
	}
	return out, nil
}

func TestRecordPaymentAppendsPurchase(t *testing.T) {
	store := newBillingStubStore()
	svc := NewBillingService(store)
	ctx := context.Background()

	p, err := svc.RecordPayment(ctx, "u1", "hires_download", 1000)
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if p.Status != "PAID" {
		t.Fatalf("status = %q, want PAID", p.Status)
	}
	if p.ID == "" {
		t.Fatalf("expected assigned purchase id")
	}
	if len(store.purchases) != 1 {
		t.Fatalf("purchases = %d, want 1", len(store.purchases))
	}
}

func TestRecordPaymentRequiresIdentity(t *testing.T) {
	svc := NewBillingService(newBillingStubStore())
	_, err := svc.RecordPayment(context.Background(), "", "hires_download", 1000)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	svc := NewBillingService(newBillingStubStore())
	if _, err := svc.RecordPayment(context.Background(), "u1", "", 100); err == nil {
		t.Fatalf("expected error for empty item code")
	}
	if _, err := svc.RecordPayment(context.Background(), "u1", "x", -1); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestRepeatPaymentKeepsOneEntitlement(t *testing.T) {
	store := newBillingStubStore()
	svc := NewBillingService(store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.RecordPayment(ctx, "u1", "hires_download", 1000); err != nil {
			t.Fatalf("RecordPayment call %d: %v", i+1, err)
		}
	}
	if len(store.purchases) != 2 {
		t.Fatalf("purchases = %d, want 2 (ledger is append-only)", len(store.purchases))
	}
	if len(store.entitlements) != 1 {
		t.Fatalf("entitlement rows = %d, want 1", len(store.entitlements))
	}
	e, _ := store.GetEntitlement(ctx, "u1", "hires_download")
	if e.ExpiresAt != nil {
		t.Fatalf("expected permanent entitlement after repeat payment, got expiry %v", e.ExpiresAt)
	}
}

func TestRepeatPaymentNeverDowngrades(t *testing.T) {
	store := newBillingStubStore()
	svc := NewBillingService(store)
	ctx := context.Background()

	// Pre-existing temporary grant: the payment upgrades it to permanent.
	expires := time.Now().UTC().Add(time.Hour)
	store.entitlements[entKey("u1", "hires_download")] = &models.Entitlement{
		ID: "e1", UserID: "u1", ItemCode: "hires_download", ExpiresAt: &expires, GrantedAt: time.Now().UTC(),
	}
	if _, err := svc.RecordPayment(ctx, "u1", "hires_download", 1000); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	e, _ := store.GetEntitlement(ctx, "u1", "hires_download")
	if e.ExpiresAt != nil {
		t.Fatalf("expected upgrade to permanent, got expiry %v", e.ExpiresAt)
	}
}

func TestHasEntitlement(t *testing.T) {
	store := newBillingStubStore()
	svc := NewBillingService(store)
	now := time.Unix(1000000, 0).UTC()
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := svc.HasEntitlement(ctx, "u1", "hires_download")
	if err != nil || ok {
		t.Fatalf("expected no entitlement, got ok=%v err=%v", ok, err)
	}

	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)
	store.entitlements[entKey("u1", "expired")] = &models.Entitlement{UserID: "u1", ItemCode: "expired", ExpiresAt: &past}
	store.entitlements[entKey("u1", "live")] = &models.Entitlement{UserID: "u1", ItemCode: "live", ExpiresAt: &future}
	store.entitlements[entKey("u1", "permanent")] = &models.Entitlement{UserID: "u1", ItemCode: "permanent"}

	cases := []struct {
		item string
		want bool
	}{
		{"expired", false},
		{"live", true},
		{"permanent", true},
	}
	for _, c := range cases {
		ok, err := svc.HasEntitlement(ctx, "u1", c.item)
		if err != nil {
			t.Fatalf("HasEntitlement(%s): %v", c.item, err)
		}
		if ok != c.want {
			t.Fatalf("HasEntitlement(%s) = %v, want %v", c.item, ok, c.want)
		}
	}
}

func TestListEntitlementsRequiresIdentity(t *testing.T) {
	svc := NewBillingService(newBillingStubStore())
	_, err := svc.ListEntitlements(context.Background(), "")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
