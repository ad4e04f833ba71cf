package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/assetops/sga/internal/app/domain/dates"
	userssvc "github.com/assetops/sga/internal/app/services/users"
	"github.com/assetops/sga/internal/app/storage/memory"
)

func TestService_PurchaseLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, nil)

	requester, err := userssvc.New(store, nil).Create(ctx, userssvc.Input{
		FullName: "Luis Mora",
		Email:    "luis@example.com",
		Role:     "Admin",
	})
	require.NoError(t, err)

	created, err := svc.Create(ctx, Input{
		InvoiceNumber: " F-001 ",
		Supplier:      "Proveedora Norte",
		PurchaseDate:  dates.New(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)),
		RequestedByID: requester.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "F-001", created.InvoiceNumber)
	require.Equal(t, "Proveedora Norte", created.Supplier)
	require.NotEmpty(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, nil)

	_, err := svc.Create(ctx, Input{Supplier: "sin fecha"})
	require.Error(t, err)

	_, err = svc.Create(ctx, Input{
		PurchaseDate:  dates.New(time.Now()),
		RequestedByID: "no-such-user",
	})
	require.Error(t, err)
}
