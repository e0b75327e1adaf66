package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const assertionIssuer = "userdir"

// ErrInvalidAssertion indicates an identity assertion failed validation.
var ErrInvalidAssertion = errors.New("auth: invalid assertion")

// AssertionClaims are the verified claims of an identity assertion: subject
// is the user id, audience the client id.
type AssertionClaims struct {
	jwt.RegisteredClaims
}

// asserter mints short-lived HS256 proofs of a live session so collaborating
// services can consume identity without reaching the session store.
type asserter struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (a *asserter) mint(userID, clientID string) (string, error) {
	now := a.now().UTC()
	claims := AssertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    assertionIssuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *asserter) verify(assertion string) (*AssertionClaims, error) {
	assertion = strings.TrimSpace(assertion)
	if assertion == "" {
		return nil, ErrInvalidAssertion
	}
	parsed, err := jwt.ParseWithClaims(assertion, &AssertionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidAssertion
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithIssuer(assertionIssuer))
	if err != nil {
		return nil, ErrInvalidAssertion
	}
	claims, ok := parsed.Claims.(*AssertionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidAssertion
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidAssertion
	}
	return claims, nil
}
