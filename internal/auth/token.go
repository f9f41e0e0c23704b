// Package auth supplies the bearer token attached to API requests.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/balkashynov/taskboard/internal/db"
)

// ErrNotLoggedIn means there is no usable token; the caller should send the
// user to `taskboard login` instead of making the request.
var ErrNotLoggedIn = errors.New("not logged in")

// Source hands out the current bearer token
type Source interface {
	Token() (string, error)
}

// Static is a fixed token, mostly for tests and one-off commands
type Static string

func (s Static) Token() (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNotLoggedIn
	}
	if Expired(string(s), time.Now()) {
		return "", ErrNotLoggedIn
	}
	return string(s), nil
}

// StoreSource reads the token saved for BaseURL in the local database
type StoreSource struct {
	BaseURL string
	Now     func() time.Time
}

func (s StoreSource) Token() (string, error) {
	cred, err := db.GetCredential(s.BaseURL)
	if errors.Is(err, db.ErrNoCredential) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if cred.Token == "" || Expired(cred.Token, now) {
		return "", ErrNotLoggedIn
	}
	return cred.Token, nil
}

// Expired reads the exp claim without verifying the signature; only the
// server can verify it. Tokens that are not JWTs, or carry no exp, never
// expire here.
func Expired(token string, now time.Time) bool {
	exp, ok := ExpiresAt(token)
	return ok && !now.Before(exp)
}

// ExpiresAt returns the exp claim of a JWT
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Subject returns the sub claim of a JWT, or "" when there is none
func Subject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}
