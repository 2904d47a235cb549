package usecase

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"cxls/internal/config"
	"cxls/internal/domain"
	"cxls/internal/ledger"
)

// AuthUsecase is the thin authentication wrapper around the core: it
// owns password hashing and token issuance, the ledger just stores the
// opaque hash.
type AuthUsecase struct {
	led    *ledger.Ledger
	secret []byte
	ttl    time.Duration
}

func NewAuthUsecase(led *ledger.Ledger, cfg *config.AuthConfig) *AuthUsecase {
	return &AuthUsecase{
		led:    led,
		secret: []byte(cfg.JWTSecret),
		ttl:    time.Duration(cfg.TokenTTL) * time.Hour,
	}
}

func (a *AuthUsecase) Register(ctx context.Context, username, password, display, contact string) (*domain.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	u, err := a.led.RegisterUser(ctx, username, display, contact, string(hash), domain.RoleUser)
	if err != nil {
		return nil, "", err
	}
	token, err := a.IssueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (a *AuthUsecase) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	u, err := a.led.UserByUsername(username)
	if err != nil {
		// same message for unknown user and bad password
		return nil, "", ledger.Forbiddenf("invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PassHash), []byte(password)) != nil {
		return nil, "", ledger.Forbiddenf("invalid username or password")
	}
	token, err := a.IssueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (a *AuthUsecase) IssueToken(u *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  string(u.ID),
		"role": string(u.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(a.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken validates the signature and expiry and returns the user id.
func (a *AuthUsecase) ParseToken(token string) (domain.UserID, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ledger.Forbiddenf("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ledger.Forbiddenf("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ledger.Forbiddenf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ledger.Forbiddenf("invalid token subject")
	}
	return domain.UserID(sub), nil
}
