package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"

	"jobboard/domain"
)

const tokenBytes = 20

// UserService issues API tokens and resolves them to actors.
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Create registers a user and returns the plain token. Only its hash is
// stored.
func (s *UserService) Create(ctx context.Context, email string, staff bool) (*domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := domain.ValidateEmail(email); err != nil {
		return nil, "", err
	}

	token, err := newToken()
	if err != nil {
		return nil, "", err
	}
	u := &domain.User{Email: email, IsStaff: staff, TokenHash: HashToken(token)}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Authenticate resolves a token. No token is the anonymous actor; an
// unknown token is ErrInvalidToken.
func (s *UserService) Authenticate(ctx context.Context, token string) (domain.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Anonymous(), nil
	}
	u, err := s.users.GetByTokenHash(ctx, HashToken(token))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Anonymous(), domain.ErrInvalidToken
	}
	if err != nil {
		return domain.Anonymous(), err
	}
	return domain.ActorFor(u), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generate token")
	}
	return hex.EncodeToString(b), nil
}
