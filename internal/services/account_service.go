package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/findmelab/findme/internal/models"
)

// AccountStore abstracts persistence for registered users.
type AccountStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserBySubject(ctx context.Context, subject string) (*models.User, error)
	AddUser(ctx context.Context, u *models.User) error
}

// TokenSigner mints a bearer token for a subject.
type TokenSigner func(subject string) (string, error)

// AuthResult is returned by the register and login flows.
type AuthResult struct {
	Token    string
	UserID   string
	Subject  string
	Nickname string
}

// AccountService implements the credentialed login collaborator: it verifies
// accounts and mints bearer tokens for their stable subjects.
type AccountService struct {
	store     AccountStore
	now       func() time.Time
	idGen     func() string
	signToken TokenSigner
}

func NewAccountService(store AccountStore, signer TokenSigner) *AccountService {
	return &AccountService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     shortID,
		signToken: signer,
	}
}

// Register creates an account and returns a freshly issued token.
func (s *AccountService) Register(ctx context.Context, email, password, nickname string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	nickname = strings.TrimSpace(nickname)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	if nickname == "" {
		nickname = email
	}
	existing, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	userID := s.idGen()
	u := &models.User{
		ID:        userID,
		Email:     email,
		PassHash:  hash,
		Nickname:  nickname,
		Subject:   "local:" + userID,
		CreatedAt: s.now(),
	}
	if err := s.store.AddUser(ctx, u); err != nil {
		return nil, err
	}
	token, err := s.signToken(u.Subject)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: u.ID, Subject: u.Subject, Nickname: u.Nickname}, nil
}

// Login verifies credentials and returns a freshly issued token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	token, err := s.signToken(u.Subject)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: u.ID, Subject: u.Subject, Nickname: u.Nickname}, nil
}

// GetBySubject resolves the account behind a token subject.
func (s *AccountService) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, NewUnauthorizedError("login required")
	}
	u, err := s.store.FindUserBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("account not found")
	}
	return u, nil
}
