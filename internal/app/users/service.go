package users

import (
	"context"

	"github.com/harumakino16/setlink/internal/store"
)

// Store describes the persistence operations required by the user service.
type Store interface {
	CreateUser(ctx context.Context, email, password, displayName, signupSource string, adAttributed bool) (int64, error)
	Authenticate(ctx context.Context, email, password string) (int64, error)
	GetUser(ctx context.Context, userID int64) (store.User, error)
	TouchActivity(ctx context.Context, userID int64) error
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID int64) (string, error)
}

// Service exposes account workflows.
type Service interface {
	Signup(ctx context.Context, email, password, displayName, signupSource string, adAttributed bool) error
	Login(ctx context.Context, email, password string) (string, error)
	Profile(ctx context.Context, userID int64) (store.User, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

type service struct {
	store  Store
	tokens TokenIssuer
}

// New wires a Service backed by the provided Store and token issuer.
func New(store Store, tokens TokenIssuer) Service {
	return &service{store: store, tokens: tokens}
}

func (s *service) Signup(ctx context.Context, email, password, displayName, signupSource string, adAttributed bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.store.CreateUser(ctx, email, password, displayName, signupSource, adAttributed)
	return err
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	userID, err := s.store.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	if err := s.store.TouchActivity(ctx, userID); err != nil {
		return "", err
	}
	return s.tokens.Generate(userID)
}

func (s *service) Profile(ctx context.Context, userID int64) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}
	return s.store.GetUser(ctx, userID)
}

func (s *service) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.store.IsAdmin(ctx, userID)
}
