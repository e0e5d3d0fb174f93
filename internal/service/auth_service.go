package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"heating_scheduler/internal/repository"
)

const defaultTokenTTL = time.Hour

// Domain errors for auth flows.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	errNoSigningKey       = errors.New("api.signing_key is not configured")
)

// AuthService handles operator auth logic
type AuthService struct {
	operatorRepo repository.OperatorRepo
	signingKey   []byte
	tokenTTL     time.Duration
}

func NewAuthService(repo repository.OperatorRepo, signingKey string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{operatorRepo: repo, signingKey: []byte(signingKey), tokenTTL: tokenTTL}
}

// SyncOperators makes the stored operators exactly the configured ones (name -> bcrypt hash).
// Operators missing from the map lose access.
func (s *AuthService) SyncOperators(ctx context.Context, operators map[string]string) error {
	for name, hash := range operators {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return fmt.Errorf("operator %q: password must be a bcrypt hash: %w", name, err)
		}
	}
	if operators == nil {
		operators = map[string]string{}
	}
	return s.operatorRepo.Replace(ctx, operators)
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	Operator string `json:"operator"`
}

// GenerateToken validates credentials and returns JWT
func (s *AuthService) GenerateToken(ctx context.Context, name, password string) (string, error) {
	if len(s.signingKey) == 0 {
		return "", errNoSigningKey
	}
	op, err := s.operatorRepo.GetByName(ctx, name)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", ErrInvalidCredentials
	}
	if err := verifyPassword(op.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(op.Name, time.Now())
}

// ParseToken parses JWT and returns the operator name
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	if len(s.signingKey) == 0 {
		return "", errNoSigningKey
	}
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Operator == "" {
		return "", ErrInvalidToken
	}
	return claims.Operator, nil
}

// HashPassword returns the bcrypt hash to put under api.operators.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) issueToken(operator string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Operator: operator,
	})
	return token.SignedString(s.signingKey)
}
