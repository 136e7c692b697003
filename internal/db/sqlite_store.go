package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/findmelab/findme/internal/models"
	"github.com/findmelab/findme/internal/services"
)

var (
	_ services.DefinitionStore = (*SQLiteStore)(nil)
	_ services.ResultStore     = (*SQLiteStore)(nil)
	_ services.BillingStore    = (*SQLiteStore)(nil)
	_ services.AccountStore    = (*SQLiteStore)(nil)
)

// SQLiteStore implements every service store interface against one sqlite
// database. All multi-row mutations (publish/archive, purchase+grant) run
// inside a transaction; the entitlement grant is a single-row upsert.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// --- definitions ---

const defColumns = "id, code, version, status, title, questions, scoring, created_at, updated_at"

func scanDefinition(row interface{ Scan(...any) error }) (*models.TestDefinition, error) {
	var d models.TestDefinition
	var questions, scoring string
	err := row.Scan(&d.ID, &d.Code, &d.Version, &d.Status, &d.Title, &questions, &scoring, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questions), &d.Questions); err != nil {
		return nil, fmt.Errorf("decode questions for %s: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(scoring), &d.Scoring); err != nil {
		return nil, fmt.Errorf("decode scoring for %s: %w", d.ID, err)
	}
	return &d, nil
}

func (s *SQLiteStore) GetActiveDefinition(ctx context.Context, code string) (*models.TestDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+defColumns+" FROM test_defs WHERE code = ? AND status = ?",
		code, models.StatusPublished)
	return scanDefinition(row)
}

func (s *SQLiteStore) GetDefinition(ctx context.Context, code string, version int) (*models.TestDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+defColumns+" FROM test_defs WHERE code = ? AND version = ?",
		code, version)
	return scanDefinition(row)
}

func (s *SQLiteStore) MaxDefinitionVersion(ctx context.Context, code string) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM test_defs WHERE code = ?", code).Scan(&v)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (s *SQLiteStore) InsertDefinition(ctx context.Context, def *models.TestDefinition) error {
	questions, err := encodeJSON(def.Questions)
	if err != nil {
		return err
	}
	scoring, err := encodeJSON(def.Scoring)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO test_defs ("+defColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		def.ID, def.Code, def.Version, def.Status, def.Title, questions, scoring, def.CreatedAt, def.UpdatedAt)
	return err
}

func (s *SQLiteStore) ListDefinitionVersions(ctx context.Context, code string) ([]*models.TestDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+defColumns+" FROM test_defs WHERE code = ? ORDER BY version DESC", code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.TestDefinition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PublishDefinition(ctx context.Context, code string, version int, now time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var targetID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM test_defs WHERE code = ? AND version = ?", code, version).Scan(&targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE test_defs SET status = ?, updated_at = ? WHERE code = ? AND status = ? AND version != ?",
		models.StatusArchived, now, code, models.StatusPublished, version); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE test_defs SET status = ?, updated_at = ? WHERE id = ?",
		models.StatusPublished, now, targetID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (s *SQLiteStore) ArchiveDefinition(ctx context.Context, code string, version int, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE test_defs SET status = ?, updated_at = ? WHERE code = ? AND version = ?",
		models.StatusArchived, now, code, version)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- results ---

func (s *SQLiteStore) InsertResult(ctx context.Context, r *models.Result) error {
	traits, err := encodeJSON(r.Traits)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO results (id, owner_id, test_code, score, traits, attachment, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.ID, toNullString(r.OwnerID), r.TestCode, r.Score, traits, toNullString(r.Attachment), r.CreatedAt)
	return err
}

func scanResult(row interface{ Scan(...any) error }) (*models.Result, error) {
	var r models.Result
	var owner, attachment sql.NullString
	var traits string
	err := row.Scan(&r.ID, &owner, &r.TestCode, &r.Score, &traits, &attachment, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.OwnerID = fromNullString(owner)
	r.Attachment = fromNullString(attachment)
	if err := json.Unmarshal([]byte(traits), &r.Traits); err != nil {
		return nil, fmt.Errorf("decode traits for %s: %w", r.ID, err)
	}
	return &r, nil
}

func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*models.Result, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, test_code, score, traits, attachment, created_at FROM results WHERE id = ?", id)
	return scanResult(row)
}

func (s *SQLiteStore) ListResults(ctx context.Context, ownerID string, offset, limit int) ([]*models.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, test_code, score, traits, attachment, created_at FROM results WHERE owner_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- billing ---

func (s *SQLiteStore) RecordPaidPurchase(ctx context.Context, p *models.Purchase, e *models.Entitlement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO purchases (id, user_id, item_code, amount, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.UserID, p.ItemCode, p.Amount, p.Status, p.CreatedAt); err != nil {
		return err
	}
	// Upgrade-only upsert: an existing row always ends up permanent.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entitlements (id, user_id, item_code, expires_at, granted_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, item_code)
		 DO UPDATE SET expires_at = NULL, granted_at = excluded.granted_at`,
		e.ID, e.UserID, e.ItemCode, toNullTime(e.ExpiresAt), e.GrantedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetEntitlement(ctx context.Context, userID, itemCode string) (*models.Entitlement, error) {
	var e models.Entitlement
	var expires sql.NullTime
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, item_code, expires_at, granted_at FROM entitlements WHERE user_id = ? AND item_code = ?",
		userID, itemCode).Scan(&e.ID, &e.UserID, &e.ItemCode, &expires, &e.GrantedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.ExpiresAt = fromNullTime(expires)
	return &e, nil
}

func (s *SQLiteStore) ListEntitlements(ctx context.Context, userID string) ([]*models.Entitlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, item_code, expires_at, granted_at FROM entitlements WHERE user_id = ? ORDER BY granted_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Entitlement
	for rows.Next() {
		var e models.Entitlement
		var expires sql.NullTime
		if err := rows.Scan(&e.ID, &e.UserID, &e.ItemCode, &expires, &e.GrantedAt); err != nil {
			return nil, err
		}
		e.ExpiresAt = fromNullTime(expires)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// --- users ---

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PassHash, &u.Nickname, &u.Subject, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, pass_hash, nickname, subject, created_at FROM users WHERE email = ?", email)
	return scanUser(row)
}

func (s *SQLiteStore) FindUserBySubject(ctx context.Context, subject string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, pass_hash, nickname, subject, created_at FROM users WHERE subject = ?", subject)
	return scanUser(row)
}

func (s *SQLiteStore) AddUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, pass_hash, nickname, subject, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, u.Email, u.PassHash, u.Nickname, u.Subject, u.CreatedAt)
	return err
}
