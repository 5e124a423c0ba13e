// Package token issues and verifies the signed bearer credentials that
// stand in for server-side sessions.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"webchat/internal/common/clock"
	commoncrypto "webchat/internal/common/crypto"
	"webchat/internal/observability/metrics"
)

// NeverExpires disables the exp claim entirely, the non-production
// deployment mode.
const NeverExpires = "never"

var ErrInvalidToken = errors.New("token is not valid")

// Service signs HS256 tokens carrying the authenticated username and the
// issuance timestamp. There is no revocation: a token stays valid until it
// expires or the signing key rotates.
type Service struct {
	key          []byte
	ttl          time.Duration
	neverExpires bool
	ids          commoncrypto.IDGenerator
	clock        clock.Clock
}

// NewService builds a token service. expiry is either NeverExpires or a Go
// duration string.
func NewService(key string, expiry string, ids commoncrypto.IDGenerator, clk clock.Clock) (*Service, error) {
	s := &Service{
		key:   []byte(key),
		ids:   ids,
		clock: clk,
	}

	if expiry == NeverExpires {
		s.neverExpires = true
		return s, nil
	}

	ttl, err := time.ParseDuration(expiry)
	if err != nil {
		return nil, fmt.Errorf("invalid token expiry %q: %w", expiry, err)
	}
	s.ttl = ttl
	return s, nil
}

// Issue produces a signed token for the given username.
func (s *Service) Issue(username string) (string, error) {
	jti, err := s.ids.NewID()
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"jti": jti,
		"iat": now.Unix(),
	}
	if !s.neverExpires {
		claims["exp"] = now.Add(s.ttl).Unix()
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", err
	}

	metrics.TokensIssuedTotal.Inc()
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded username.
// Every failure mode collapses into ErrInvalidToken.
func (s *Service) Verify(tokenString string) (string, error) {
	parsed, err := jwt.Parse(
		tokenString,
		func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return s.key, nil
		},
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	username, _ := mapClaims["sub"].(string)
	if username == "" {
		return "", ErrInvalidToken
	}

	return username, nil
}
