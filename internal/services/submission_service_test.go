package services

import (
	"context"
	"testing"
	"time"

	"github.com/findmelab/findme/internal/models"
)

func TestSubmitScoresAndRecords(t *testing.T) {
	defStore := &defStubStore{}
	resStore := &resultStubStore{}
	defs := newDefService(defStore)
	results := NewResultService(resStore)
	results.now = func() time.Time { return time.Unix(7, 0).UTC() }
	svc := NewSubmissionService(defs, results)
	ctx := context.Background()

	if err := defs.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	answers := []models.Answer{
		{QuestionID: "Q1", Value: 5},
		{QuestionID: "Q2", Value: 1},
		{QuestionID: "Q3", Value: 3},
		{QuestionID: "Q4", Value: 4},
		{QuestionID: "Q5", Value: 2},
	}
	r, err := svc.Submit(ctx, "trait_v1", "local:u1", answers, "ode to testing")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !almostEqual(r.Score, 70) {
		t.Fatalf("score = %v, want 70", r.Score)
	}
	if !almostEqual(r.Traits["A"], 63) || !almostEqual(r.Traits["B"], 65) {
		t.Fatalf("traits = %v, want A=63 B=65", r.Traits)
	}
	if r.OwnerID != "local:u1" || r.Attachment != "ode to testing" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if len(resStore.results) != 1 {
		t.Fatalf("stored results = %d, want 1", len(resStore.results))
	}
}

func TestSubmitUnknownCode(t *testing.T) {
	defs := newDefService(&defStubStore{})
	svc := NewSubmissionService(defs, NewResultService(&resultStubStore{}))
	_, err := svc.Submit(context.Background(), "nope", "", []models.Answer{{QuestionID: "Q1", Value: 3}}, "")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmitEmptyAnswers(t *testing.T) {
	defStore := &defStubStore{}
	defs := newDefService(defStore)
	resStore := &resultStubStore{}
	svc := NewSubmissionService(defs, NewResultService(resStore))
	ctx := context.Background()

	if err := defs.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	_, err := svc.Submit(ctx, "trait_v1", "", nil, "")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
	if len(resStore.results) != 0 {
		t.Fatalf("no result should be recorded on failure")
	}
}
