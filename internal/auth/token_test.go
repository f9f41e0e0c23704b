package auth

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/balkashynov/taskboard/internal/db"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestExpired(t *testing.T) {
	now := time.Now()
	live := signed(t, jwt.MapClaims{"sub": "u1", "exp": now.Add(time.Hour).Unix()})
	dead := signed(t, jwt.MapClaims{"sub": "u1", "exp": now.Add(-time.Minute).Unix()})
	forever := signed(t, jwt.MapClaims{"sub": "u1"})

	if Expired(live, now) {
		t.Error("live token reported expired")
	}
	if !Expired(dead, now) {
		t.Error("dead token reported live")
	}
	if Expired(forever, now) {
		t.Error("token without exp should not expire")
	}
	if Expired("opaque-token", now) {
		t.Error("opaque token should not expire")
	}
	if Subject(live) != "u1" {
		t.Errorf("expected subject u1, got %q", Subject(live))
	}
	if exp, ok := ExpiresAt(live); !ok || exp.Unix() != now.Add(time.Hour).Unix() {
		t.Errorf("unexpected expiry %v %v", exp, ok)
	}
	if _, ok := ExpiresAt(forever); ok {
		t.Error("token without exp has no expiry")
	}
}

func TestStatic(t *testing.T) {
	if _, err := Static("").Token(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	tok, err := Static("abc").Token()
	if err != nil || tok != "abc" {
		t.Fatalf("unexpected %q %v", tok, err)
	}
}

func TestStoreSource(t *testing.T) {
	if err := db.Initialize(filepath.Join(t.TempDir(), "taskboard.db")); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	src := StoreSource{BaseURL: "http://api"}
	if _, err := src.Token(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn without credential, got %v", err)
	}

	now := time.Now()
	token := signed(t, jwt.MapClaims{"sub": "u1", "exp": now.Add(time.Hour).Unix()})
	if _, err := db.SaveCredential("http://api", "a@example.com", token); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := src.Token()
	if err != nil || got != token {
		t.Fatalf("expected saved token, got %q %v", got, err)
	}

	later := StoreSource{BaseURL: "http://api", Now: func() time.Time { return now.Add(2 * time.Hour) }}
	if _, err := later.Token(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected expired token to count as logged out, got %v", err)
	}
}
