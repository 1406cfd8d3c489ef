package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"leaveflow-backend/models"
	"leaveflow-backend/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const defaultTokenExpiry = 30 * time.Minute

// AuthService handles registration, credential verification, and bearer
// token issuance
type AuthService struct {
	userRepo    *repository.UserRepository
	balanceRepo *repository.LeaveBalanceRepository
	secret      []byte
	tokenExpiry time.Duration
}

// AuthServiceOption is a functional option for AuthService
type AuthServiceOption func(*AuthService)

// AuthWithUserRepository sets the user repository
func AuthWithUserRepository(repo *repository.UserRepository) AuthServiceOption {
	return func(s *AuthService) {
		s.userRepo = repo
	}
}

// AuthWithBalanceRepository sets the leave balance repository
func AuthWithBalanceRepository(repo *repository.LeaveBalanceRepository) AuthServiceOption {
	return func(s *AuthService) {
		s.balanceRepo = repo
	}
}

// AuthWithSecret sets the token signing secret
func AuthWithSecret(secret string) AuthServiceOption {
	return func(s *AuthService) {
		s.secret = []byte(secret)
	}
}

// AuthWithTokenExpiry sets the access token lifetime
func AuthWithTokenExpiry(d time.Duration) AuthServiceOption {
	return func(s *AuthService) {
		if d > 0 {
			s.tokenExpiry = d
		}
	}
}

// NewAuthService creates a new auth service
func NewAuthService(opts ...AuthServiceOption) *AuthService {
	s := &AuthService{tokenExpiry: defaultTokenExpiry}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenExpiryFromEnv reads ACCESS_TOKEN_EXPIRE_MINUTES, defaulting to 30
func TokenExpiryFromEnv() time.Duration {
	raw := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES")
	if raw == "" {
		return defaultTokenExpiry
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return defaultTokenExpiry
	}
	return time.Duration(minutes) * time.Minute
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Sex       *string
}

// Register creates a new user with a hashed password and provisions the
// default leave balance
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if s.userRepo == nil {
		return nil, errors.New("user repository not set")
	}

	_, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Sex:          req.Sex,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.balanceRepo != nil {
		if err := s.balanceRepo.CreateDefault(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to provision leave balance: %w", err)
		}
	}

	return user, nil
}

// Login verifies credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if s.userRepo == nil {
		return "", errors.New("user repository not set")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if !s.VerifyPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return s.IssueToken(user.Username)
}

// GetUser resolves a user by username
func (s *AuthService) GetUser(ctx context.Context, username string) (*models.User, error) {
	if s.userRepo == nil {
		return nil, errors.New("user repository not set")
	}
	return s.userRepo.GetByUsername(ctx, username)
}

// HashPassword hashes a plaintext password with bcrypt
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext password matches the hash
func (s *AuthService) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs an HS256 access token with the username as subject
func (s *AuthService) IssueToken(username string) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("token secret not set")
	}

	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenExpiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ParseToken validates an access token and returns the subject username
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("token secret not set")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
