package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/academic-grading-api/internal/models"
)

const tokenLeeway = 30 * time.Second

var errUnknownRole = errors.New("token carries an unknown role")

// tokenSigner issues and verifies HS256 access tokens.
type tokenSigner struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func newTokenSigner(cfg AuthConfig) tokenSigner {
	return tokenSigner{secret: []byte(cfg.Secret), ttl: cfg.TokenTTL, issuer: cfg.Issuer, now: time.Now}
}

func (t tokenSigner) sign(user *models.User) (string, time.Time, error) {
	issuedAt := t.now().UTC()
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Role:     user.Role,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

func (t tokenSigner) parse(raw string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &models.JWTClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...); err != nil {
		return nil, err
	}
	if !claims.Role.Valid() {
		return nil, errUnknownRole
	}
	return claims, nil
}
