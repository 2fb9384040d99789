package account

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/internal/users"
	"github.com/angelmondragon/vapevault-backend/pkg/config"
	"github.com/angelmondragon/vapevault-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/security"
)

const verifiedAddress = "1600 Amphitheatre Pkwy, Mountain View, CA 94043, USA"

type stubVerifier struct {
	calls int
}

func (s *stubVerifier) Verify(ctx context.Context, raw string) (string, error) {
	s.calls++
	if raw != verifiedAddress {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Please select a valid address.")
	}
	return raw, nil
}

func setup(t *testing.T) (Service, *users.Repository, *stubVerifier, uuid.UUID) {
	t.Helper()
	repo := users.NewRepository(dbtest.Open(t))
	user, err := repo.Create(context.Background(), users.CreateUserDTO{
		FullName:     "Riley",
		Email:        "riley@example.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	verifier := &stubVerifier{}
	svc, err := NewService(repo, verifier, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, verifier, user.ID
}

func TestUpdateProfileWithVerifiedAddress(t *testing.T) {
	svc, _, verifier, id := setup(t)
	name := "Riley Stone"
	phone := " 555-0100 "
	addr := verifiedAddress

	dto, err := svc.Update(context.Background(), id, UpdateRequest{FullName: &name, PhoneNumber: &phone, Address: &addr})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.FullName != name || dto.PhoneNumber == nil || *dto.PhoneNumber != "555-0100" {
		t.Fatalf("unexpected profile %+v", dto)
	}
	if dto.Address == nil || *dto.Address != verifiedAddress || verifier.calls != 1 {
		t.Fatalf("expected verified address to be stored")
	}
}

func TestUpdateRejectsUnverifiedAddress(t *testing.T) {
	svc, _, _, id := setup(t)
	addr := "somewhere vague"
	_, err := svc.Update(context.Background(), id, UpdateRequest{Address: &addr})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "Please select a valid address." {
		t.Fatalf("expected address validation error, got %v", err)
	}

	got, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Address != nil {
		t.Fatalf("address should be unchanged")
	}
}

func TestUpdatePassword(t *testing.T) {
	svc, repo, _, id := setup(t)
	pw := "N3w!Password"
	mismatch := "other"

	if _, err := svc.Update(context.Background(), id, UpdateRequest{Password: &pw, ConfirmPassword: &mismatch}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected mismatch validation error, got %v", err)
	}

	if _, err := svc.Update(context.Background(), id, UpdateRequest{Password: &pw, ConfirmPassword: &pw}); err != nil {
		t.Fatalf("update password: %v", err)
	}
	user, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if ok, err := security.VerifyPassword(pw, user.PasswordHash); err != nil || !ok {
		t.Fatalf("expected new password hash")
	}
}

func TestGetMissingUser(t *testing.T) {
	svc, _, _, _ := setup(t)
	if _, err := svc.Get(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
