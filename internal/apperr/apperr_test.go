package apperr

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestFromDBNotFound(t *testing.T) {
	e := FromDB(gorm.ErrRecordNotFound)
	if e.Kind != NotFound {
		t.Fatalf("expected NotFound, got %s", e.Kind)
	}
}

func TestFromDBUniqueViolation(t *testing.T) {
	e := FromDB(errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE 23505)`))
	if e.Kind != Database {
		t.Fatalf("expected Database, got %s", e.Kind)
	}
	if e.Message != "This record already exists." {
		t.Fatalf("unexpected message: %s", e.Message)
	}
	if e.Code != "23505" {
		t.Fatalf("unexpected code: %s", e.Code)
	}
}

func TestFromDBPassthrough(t *testing.T) {
	orig := New(Validation, "plate already registered", "plate: ABC123")
	e := FromDB(orig)
	if e != orig {
		t.Fatal("classified error should pass through unchanged")
	}
}

func TestFromAuthInvalidCredentials(t *testing.T) {
	e := FromAuth(errors.New("invalid login credentials"))
	if e.Kind != Authentication {
		t.Fatalf("expected Authentication, got %s", e.Kind)
	}
	if e.Message != "Wrong email or password." {
		t.Fatalf("unexpected message: %s", e.Message)
	}
}

func TestFromAuthUnauthorized(t *testing.T) {
	e := FromAuth(errors.New("unauthorized: admin only"))
	if e.Kind != Authorization {
		t.Fatalf("expected Authorization, got %s", e.Kind)
	}
}

func TestWrapKeepsTechnicalMessage(t *testing.T) {
	e := Wrap(errors.New("connection refused"))
	if e.Kind != Network {
		t.Fatalf("expected Network, got %s", e.Kind)
	}
	if e.Technical != "connection refused" {
		t.Fatalf("technical message lost: %s", e.Technical)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		Authentication: 401,
		Authorization:  403,
		Validation:     400,
		NotFound:       404,
		Network:        502,
		Database:       500,
		Storage:        500,
		Unknown:        500,
	}
	for kind, want := range cases {
		if got := Status(New(kind, "", "")); got != want {
			t.Errorf("kind %s: expected %d, got %d", kind, want, got)
		}
	}
}

func TestErrorsIsByKind(t *testing.T) {
	e := New(Validation, "bad input", "")
	if !errors.Is(e, New(Validation, "", "")) {
		t.Fatal("errors.Is should match on kind")
	}
	if errors.Is(e, New(Database, "", "")) {
		t.Fatal("errors.Is should not match a different kind")
	}
}
