// Package auth provides the standalone-mode authenticator.
//
// In standalone mode there is no remote API: credentials are checked
// locally against bcrypt hashes in the local store and the bearer token is
// a locally signed JWT. The token then flows through the same token store
// and session service as a remotely issued one.
package auth

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"goldtracker/internal/errors"
	"goldtracker/internal/localstore"
	"goldtracker/internal/models"
)

const (
	// TokenDuration is the lifetime of a locally issued token.
	TokenDuration = 24 * time.Hour

	// BcryptCost is the bcrypt hashing cost.
	BcryptCost = 12

	usersNamespace = "users"

	// Demo credentials seeded on first start.
	demoEmail    = "demo@example.com"
	demoPassword = "password123"
)

// ErrInvalidCredentials is returned when login credentials are invalid.
var ErrInvalidCredentials = errors.New(errors.ErrValidation, "invalid email or password")

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword compares a password with a hash.
func CheckPassword(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Claims is the payload of a locally issued token.
type Claims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies local HS256 tokens.
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
}

// NewTokenIssuer creates an issuer from the configured secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), duration: TokenDuration}
}

// Issue signs a token for a user.
func (i *TokenIssuer) Issue(user models.UserSummary) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a locally issued token.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// storedUser is the local account record.
type storedUser struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	Picture      string `json:"picture,omitempty"`
}

// Standalone authenticates against locally stored accounts.
type Standalone struct {
	store  *localstore.Store
	issuer *TokenIssuer
}

// NewStandalone creates the standalone authenticator.
func NewStandalone(store *localstore.Store, issuer *TokenIssuer) *Standalone {
	return &Standalone{store: store, issuer: issuer}
}

// EnsureDemoUser seeds the demo account if it does not exist yet.
func (s *Standalone) EnsureDemoUser() error {
	_, ok, err := s.store.Get(usersNamespace, demoEmail)
	if err != nil {
		return errors.Storage("checking demo user failed", err)
	}
	if ok {
		return nil
	}
	_, _, err = s.Register(demoEmail, "demo", demoPassword)
	return err
}

// Login checks credentials and issues a token.
func (s *Standalone) Login(email, password string) (string, models.UserSummary, error) {
	email = normalizeEmail(email)

	raw, ok, err := s.store.Get(usersNamespace, email)
	if err != nil {
		return "", models.UserSummary{}, errors.Storage("loading account failed", err)
	}
	if !ok {
		return "", models.UserSummary{}, ErrInvalidCredentials
	}

	var user storedUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", models.UserSummary{}, fmt.Errorf("decoding account: %w", err)
	}
	if !CheckPassword(password, user.PasswordHash) {
		return "", models.UserSummary{}, ErrInvalidCredentials
	}

	return s.issueFor(user)
}

// Register creates a local account and issues a token.
func (s *Standalone) Register(email, username, password string) (string, models.UserSummary, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", models.UserSummary{}, errors.Validation("a valid email is required")
	}
	if len(password) < 8 {
		return "", models.UserSummary{}, errors.Validation("the password must be at least 8 characters")
	}
	if username == "" {
		username = email[:strings.Index(email, "@")]
	}

	if _, ok, err := s.store.Get(usersNamespace, email); err != nil {
		return "", models.UserSummary{}, errors.Storage("checking account failed", err)
	} else if ok {
		return "", models.UserSummary{}, errors.Validation("an account with this email already exists")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", models.UserSummary{}, err
	}
	user := storedUser{Email: email, Username: username, PasswordHash: hash}
	data, err := json.Marshal(user)
	if err != nil {
		return "", models.UserSummary{}, fmt.Errorf("encoding account: %w", err)
	}
	if err := s.store.Set(usersNamespace, email, string(data)); err != nil {
		return "", models.UserSummary{}, errors.Storage("saving account failed", err)
	}

	return s.issueFor(user)
}

// LoginVerified issues a token for an externally verified identity
// (Google sign-in), creating the local account on first use.
func (s *Standalone) LoginVerified(email, username, picture string) (string, models.UserSummary, error) {
	email = normalizeEmail(email)
	if username == "" && strings.Contains(email, "@") {
		username = email[:strings.Index(email, "@")]
	}

	user := storedUser{Email: email, Username: username, Picture: picture}
	if raw, ok, err := s.store.Get(usersNamespace, email); err == nil && ok {
		_ = json.Unmarshal([]byte(raw), &user)
		if picture != "" {
			user.Picture = picture
		}
	}
	data, err := json.Marshal(user)
	if err != nil {
		return "", models.UserSummary{}, fmt.Errorf("encoding account: %w", err)
	}
	if err := s.store.Set(usersNamespace, email, string(data)); err != nil {
		return "", models.UserSummary{}, errors.Storage("saving account failed", err)
	}

	return s.issueFor(user)
}

func (s *Standalone) issueFor(user storedUser) (string, models.UserSummary, error) {
	summary := models.UserSummary{
		Email:    user.Email,
		Username: user.Username,
		Picture:  user.Picture,
	}
	token, err := s.issuer.Issue(summary)
	if err != nil {
		return "", models.UserSummary{}, err
	}
	return token, summary, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
