package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finassist/internal/auth"
	"finassist/internal/model"
	"finassist/internal/repository"
)

// TokenTypeBearer is reported alongside issued tokens.
const TokenTypeBearer = "bearer"

// RegisterInput is a new account with an optional profile and ITR document.
type RegisterInput struct {
	Username string        `json:"username" validate:"required,max=64"`
	Email    string        `json:"email" validate:"required,email,max=254"`
	Password string        `json:"password" validate:"required,min=8,maxbytes=72"`
	Profile  model.Profile `json:"-"`
	Document *Upload       `json:"-"`
}

// LoginInput carries credentials for Login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Tokens is the token pair handed to clients. RefreshToken and UserID are
// empty when only the access token was reissued.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	TokenType    string `json:"token_type"`
}

// AuthService covers account creation, credential checks and identity resolution.
type AuthService interface {
	// Register creates the user, merging any document-derived fields, and returns fresh tokens.
	Register(ctx context.Context, in RegisterInput) (*Tokens, error)
	// Login checks credentials and returns fresh tokens.
	Login(ctx context.Context, in LoginInput) (*Tokens, error)
	// Refresh exchanges a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	// Resolve maps a bearer token to the user it names.
	Resolve(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	repo   repository.UserRepository
	tokens *auth.TokenService
	ingest *Ingestor
	now    func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(repo repository.UserRepository, tokens *auth.TokenService, ingest *Ingestor) AuthService {
	return &authService{repo: repo, tokens: tokens, ingest: ingest, now: time.Now}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*Tokens, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	usr := &model.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var ing *Ingested
	if in.Document != nil {
		if ing, err = s.ingest.Ingest(ctx, usr.ID, in.Document); err != nil {
			return nil, err
		}
	}
	upd := BuildUpdate(in.Profile, ing)
	usr.Apply(upd)

	// The unique email index decides concurrent registrations.
	created, err := s.repo.Create(ctx, usr)
	if err != nil {
		s.ingest.Discard(ctx, upd.DocumentKey)
		return nil, err
	}
	return s.issuePair(created)
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*Tokens, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	usr, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(usr.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issuePair(usr)
}

func (s *authService) Refresh(_ context.Context, refreshToken string) (*Tokens, error) {
	access, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, TokenType: TokenTypeBearer}, nil
}

func (s *authService) Resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	// IDs are minted by Register as UUIDs; anything else never names a user.
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", auth.ErrTokenInvalid)
	}
	usr, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserMissing
		}
		return nil, err
	}
	return usr, nil
}

func (s *authService) issuePair(usr *model.User) (*Tokens, error) {
	access, err := s.tokens.IssueAccessToken(usr.ID, usr.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(usr.ID, usr.Email)
	if err != nil {
		return nil, err
	}
	return &Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       usr.ID,
		TokenType:    TokenTypeBearer,
	}, nil
}
