package users

import (
	"context"
	"errors"
	"testing"

	"github.com/assetops/sga/internal/app/domain/user"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/internal/app/storage/memory"
)

func TestService_UserLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil)

	created, err := svc.Create(ctx, Input{FullName: "Ana Ríos", Email: "Ana@Example.com", Role: "Técnico"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.Email != "ana@example.com" {
		t.Fatalf("email not lowercased: %q", created.Email)
	}
	if created.Role != user.RoleTechnician {
		t.Fatalf("role = %s", created.Role)
	}

	if _, err := svc.Create(ctx, Input{FullName: "Otra Ana", Email: "ANA@example.com", Role: "Admin"}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate email err = %v, want ErrConflict", err)
	}

	byEmail, err := svc.GetByEmail(ctx, "ANA@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("get by email returned %s, want %s", byEmail.ID, created.ID)
	}

	all, err := svc.List(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("list: %v (%d users)", err, len(all))
	}
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil)

	cases := []struct {
		name string
		in   Input
	}{
		{"missing name", Input{Email: "a@b.com", Role: "Admin"}},
		{"missing email", Input{FullName: "x", Role: "Admin"}},
		{"malformed email", Input{FullName: "x", Email: "not-an-email", Role: "Admin"}},
		{"unknown role", Input{FullName: "x", Email: "a@b.com", Role: "Gerente"}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.in); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
