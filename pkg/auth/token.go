package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingMethod = jwt.SigningMethodHS256

var (
	ErrMissingSecret = errors.New("auth: jwt secret is required")
	ErrMissingIssuer = errors.New("auth: jwt issuer is required")
)

func checkConfig(cfg config.JWTConfig) error {
	switch {
	case cfg.Secret == "":
		return ErrMissingSecret
	case cfg.Issuer == "":
		return ErrMissingIssuer
	}
	return nil
}

func (p AccessTokenPayload) validate() error {
	if p.UserID == uuid.Nil {
		return errors.New("auth: user id is required")
	}
	if !p.Role.IsValid() {
		return fmt.Errorf("auth: invalid actor role %q", p.Role)
	}
	if !p.UserType.IsValid() {
		return fmt.Errorf("auth: invalid user type %q", p.UserType)
	}
	return nil
}

// MintAccessToken signs an HS256 access token for payload. It expires
// cfg.ExpirationMinutes after now; a blank JTI gets a fresh v7 uuid.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkConfig(cfg); err != nil {
		return "", err
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", errors.New("auth: jwt expiration minutes must be positive")
	}
	if err := payload.validate(); err != nil {
		return "", err
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("auth: token id: %w", err)
		}
		jti = id.String()
	}
	ttl := time.Duration(cfg.ExpirationMinutes) * time.Minute

	signed, err := jwt.NewWithClaims(signingMethod, AccessTokenClaims{
		UserID:   payload.UserID,
		Username: payload.Username,
		Role:     payload.Role,
		UserType: payload.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	return parse(cfg, raw)
}

// ParseAccessTokenAllowExpired verifies signature and issuer but ignores the
// time claims. Refresh and logout use it to recover the jti of a stale token.
func ParseAccessTokenAllowExpired(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	return parse(cfg, raw, jwt.WithoutClaimsValidation())
}

func parse(cfg config.JWTConfig, raw string, extra ...jwt.ParserOption) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	opts := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	}, extra...)

	claims := new(AccessTokenClaims)
	if _, err := jwt.NewParser(opts...).ParseWithClaims(raw, claims, secretKey(cfg.Secret)); err != nil {
		return nil, err
	}
	return claims, nil
}

func secretKey(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if token.Method != signingMethod {
			return nil, fmt.Errorf("auth: unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}
}
