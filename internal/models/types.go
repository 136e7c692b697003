package models

import "time"

// Definition lifecycle states.
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusArchived  = "ARCHIVED"
)

// Question is a single item of a test definition.
type Question struct {
	ID      string `json:"id"`
	Body    string `json:"body"`
	Reverse bool   `json:"reverse"`
}

// TraitRule derives one named trait value as a linear combination of the
// normalized score and the raw-total ratio.
type TraitRule struct {
	Name      string  `json:"name"`
	Base      float64 `json:"base"`
	NormCoeff float64 `json:"norm_coeff"`
	RawCoeff  float64 `json:"raw_coeff"`
}

// ScoringSpec holds the answer scale and the trait derivation rules for a
// definition. The scale is inclusive on both ends (e.g. Likert 1..5).
type ScoringSpec struct {
	ScaleMin   int         `json:"scale_min"`
	ScaleMax   int         `json:"scale_max"`
	TraitRules []TraitRule `json:"trait_rules"`
}

// TestDefinition is one version of a test. At most one version per code is
// PUBLISHED at any time; a PUBLISHED definition becomes ARCHIVED when a newer
// version is published and is immutable afterwards.
type TestDefinition struct {
	ID        string
	Code      string
	Version   int
	Status    string
	Title     string
	Questions []Question
	Scoring   ScoringSpec
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Answer is a single raw response within a submission.
type Answer struct {
	QuestionID string `json:"questionId"`
	Value      int    `json:"value"`
}

// Result is the immutable record of one scored submission. OwnerID is empty
// for anonymous submissions.
type Result struct {
	ID         string
	OwnerID    string
	TestCode   string
	Score      float64
	Traits     map[string]float64
	Attachment string
	CreatedAt  time.Time
}

// Purchase is one append-only payment record. The mock flow always records
// status PAID.
type Purchase struct {
	ID        string
	UserID    string
	ItemCode  string
	Amount    int64
	Status    string
	CreatedAt time.Time
}

// Entitlement grants a user access to a paid item. A nil ExpiresAt means the
// grant is permanent. At most one row exists per (UserID, ItemCode).
type Entitlement struct {
	ID        string
	UserID    string
	ItemCode  string
	ExpiresAt *time.Time
	GrantedAt time.Time
}

// User is a registered account. Subject is the stable identity string
// embedded in bearer tokens.
type User struct {
	ID        string
	Email     string
	PassHash  []byte
	Nickname  string
	Subject   string
	CreatedAt time.Time
}
