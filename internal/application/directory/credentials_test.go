package directory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gugatkesheladze/youtube-monitor/internal/application/directory"
	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
	"github.com/gugatkesheladze/youtube-monitor/internal/infrastructure/memory"
)

func TestVerifyCredentials_Success(t *testing.T) {
	svc, _, _ := newTestService(&fixedClock{now: t0})
	ctx := context.Background()
	_, _ = svc.CreateUser(ctx, directory.NewUser{Username: "alice", Password: "pw"})

	id, err := svc.VerifyCredentials(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Username != "alice" || !id.Authenticated() {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestVerifyCredentials_UnknownAndWrongPasswordAreIndistinguishable(t *testing.T) {
	svc, _, hasher := newTestService(&fixedClock{now: t0})
	ctx := context.Background()
	_, _ = svc.CreateUser(ctx, directory.NewUser{Username: "alice", Password: "pw"})

	_, errUnknown := svc.VerifyCredentials(ctx, "nobody", "pw")
	_, errWrong := svc.VerifyCredentials(ctx, "alice", "nope")

	var a, b *domain.Error
	if !errors.As(errUnknown, &a) || !errors.As(errWrong, &b) {
		t.Fatalf("expected domain errors, got %v / %v", errUnknown, errWrong)
	}
	if a.Kind != b.Kind || a.Code != b.Code || a.Message != b.Message || len(a.Meta) != 0 || len(b.Meta) != 0 {
		t.Fatalf("errors differ: %+v vs %+v", a, b)
	}
	if a.Code != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials, got %s", a.Code)
	}

	// both paths run a hash comparison
	if len(hasher.compares) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(hasher.compares))
	}
}

func TestVerifyCredentials_EmptyInput(t *testing.T) {
	svc, _, _ := newTestService(&fixedClock{now: t0})
	if _, err := svc.VerifyCredentials(context.Background(), "", "x"); !domain.Is(err, "invalid_credentials") {
		t.Fatalf("expected invalid_credentials, got %v", err)
	}
}

func TestVerifyCredentials_StoreFailureIsNotMasked(t *testing.T) {
	svc := directory.NewService(failingStore{err: domain.ErrDBUnavailable(errors.New("down"))}, &fakeHasher{}, directory.Config{})
	if _, err := svc.VerifyCredentials(context.Background(), "alice", "x"); !domain.Is(err, "db_unavailable") {
		t.Fatalf("expected db_unavailable, got %v", err)
	}
}

func TestVerifyCredentials_DecoyFallsBackWhenHashFails(t *testing.T) {
	hasher := &fakeHasher{hashErr: errors.New("bcrypt down")}
	svc := directory.NewService(memory.NewUserStore(), hasher, directory.Config{})

	for i := 0; i < 2; i++ {
		if _, err := svc.VerifyCredentials(context.Background(), "nobody", "pw"); !domain.Is(err, "invalid_credentials") {
			t.Fatalf("expected invalid_credentials, got %v", err)
		}
	}

	if len(hasher.compares) != 2 {
		t.Fatalf("expected a comparison on every unknown-user attempt, got %d", len(hasher.compares))
	}
	for _, h := range hasher.compares {
		if !strings.HasPrefix(h, "$2a$12$") || len(h) != 60 {
			t.Fatalf("expected a bcrypt-shaped decoy hash, got %q", h)
		}
	}
}
