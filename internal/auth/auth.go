// Package auth issues and verifies bearer tokens for the API. The workflow
// core never touches tokens; it receives the authenticated user id as an
// explicit argument.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-order-payments.git/internal/orders"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Blocklist remembers revoked token ids until their natural expiry.
// A nil blocklist makes logout and refresh-revocation no-ops.
type Blocklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	Revoked(ctx context.Context, jti string) (bool, error)
}

type Service struct {
	Store     orders.Store
	Secret    []byte
	TokenTTL  time.Duration
	Blocklist Blocklist
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (TokenResponse, error) {
	if in.Name == "" || in.Email == "" || len(in.Password) < 8 {
		return TokenResponse{}, fmt.Errorf("%w: name, email and a password of at least 8 chars are required", orders.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return TokenResponse{}, err
	}
	u := &orders.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	err = s.Store.WithTx(ctx, func(tx orders.Tx) error {
		return tx.InsertUser(ctx, u)
	})
	if err != nil {
		return TokenResponse{}, err
	}
	return s.issue(u.ID)
}

func (s *Service) Login(ctx context.Context, in Credentials) (TokenResponse, error) {
	var u *orders.User
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		var err error
		u, err = tx.GetUserByEmail(ctx, in.Email)
		return err
	})
	if errors.Is(err, orders.ErrNotFound) {
		return TokenResponse{}, orders.ErrUnauthenticated
	}
	if err != nil {
		return TokenResponse{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return TokenResponse{}, orders.ErrUnauthenticated
	}
	return s.issue(u.ID)
}

func (s *Service) Me(ctx context.Context, userID string) (*orders.User, error) {
	var u *orders.User
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		var err error
		u, err = tx.GetUser(ctx, userID)
		return err
	})
	return u, err
}

// Refresh trades a live token for a fresh one. The old token is revoked so a
// stolen copy stops working the moment its owner rotates.
func (s *Service) Refresh(ctx context.Context, token string) (TokenResponse, error) {
	claims, err := s.verifyClaims(ctx, token)
	if err != nil {
		return TokenResponse{}, err
	}
	if err := s.revoke(ctx, claims); err != nil {
		return TokenResponse{}, err
	}
	return s.issue(claims.Subject)
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.verifyClaims(ctx, token)
	if err != nil {
		return err
	}
	return s.revoke(ctx, claims)
}

func (s *Service) revoke(ctx context.Context, claims *jwt.RegisteredClaims) error {
	if s.Blocklist == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.Blocklist.Revoke(ctx, claims.ID, ttl)
}

func (s *Service) issue(userID string) (TokenResponse, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken: tok,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.TokenTTL.Seconds()),
	}, nil
}

// Verify returns the user id carried by a bearer token that is neither
// expired nor revoked.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	claims, err := s.verifyClaims(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *Service) verifyClaims(ctx context.Context, token string) (*jwt.RegisteredClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, orders.ErrUnauthenticated
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, orders.ErrUnauthenticated
	}
	if s.Blocklist != nil && claims.ID != "" {
		revoked, err := s.Blocklist.Revoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, orders.ErrUnauthenticated
		}
	}
	return claims, nil
}
