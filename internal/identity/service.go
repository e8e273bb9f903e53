package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Service issues and redeems credentials. Password storage uses bcrypt;
// tokens come from the shared Verifier so the rest of the system only ever
// sees Identity values.
type Service struct {
	repo     Repository
	verifier *Verifier
	tokenTTL time.Duration
}

func NewService(repo Repository, verifier *Verifier, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, verifier: verifier, tokenTTL: tokenTTL}
}

// Register creates a patient account. Staff accounts are provisioned out of
// band (seed tooling), never through the public endpoint.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidCredentials)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password too short", ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         RolePatient,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login checks the credentials and returns a signed identity token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.verifier.Issue(user.Identity(), s.tokenTTL)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}
