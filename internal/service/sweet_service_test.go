package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sweetshop/internal/domain"
	"sweetshop/internal/models"
	"sweetshop/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Sweet{}))
	return db
}

func newSweetService(t *testing.T) *SweetService {
	return &SweetService{Sweets: &repo.SweetRepo{DB: newTestDB(t)}}
}

func TestCreateValidation(t *testing.T) {
	svc := newSweetService(t)
	ctx := context.Background()

	cases := []models.Sweet{
		{Name: "x", Category: "Stick", Price: 1, Quantity: 1},
		{Name: "Lollipop", Category: "s", Price: 1, Quantity: 1},
		{Name: "Lollipop", Category: "Stick", Price: -1, Quantity: 1},
		{Name: "Lollipop", Category: "Stick", Price: 1, Quantity: -1},
	}
	for _, sweet := range cases {
		err := svc.Create(ctx, &sweet)
		require.ErrorIs(t, err, domain.ErrValidation)
	}

	ok := models.Sweet{Name: "Lollipop", Category: "Stick", Price: 1, Quantity: 1}
	require.NoError(t, svc.Create(ctx, &ok))
	require.NotZero(t, ok.ID)
}

func TestSearchRequiresQuery(t *testing.T) {
	svc := newSweetService(t)

	_, err := svc.Search(context.Background(), "  ")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestPurchaseRejectsNonPositiveQuantity(t *testing.T) {
	svc := newSweetService(t)

	_, err := svc.Purchase(context.Background(), 1, 0)
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Purchase(context.Background(), 1, -3)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestRestockRejectsNonPositiveQuantity(t *testing.T) {
	svc := newSweetService(t)

	_, err := svc.Restock(context.Background(), 1, 0)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateValidatesOnlySuppliedFields(t *testing.T) {
	svc := newSweetService(t)
	ctx := context.Background()

	sweet := models.Sweet{Name: "Lollipop", Category: "Stick", Price: 1, Quantity: 5}
	require.NoError(t, svc.Create(ctx, &sweet))

	bad := "x"
	_, err := svc.Update(ctx, sweet.ID, repo.SweetPatch{Name: &bad})
	require.ErrorIs(t, err, domain.ErrValidation)

	price := 1.5
	got, err := svc.Update(ctx, sweet.ID, repo.SweetPatch{Price: &price})
	require.NoError(t, err)
	require.Equal(t, 1.5, got.Price)
	require.Equal(t, "Lollipop", got.Name)
}

// Full walk through the shop lifecycle: admin stocks the shelf, a user buys
// what is there, overbuying fails without touching stock, restock tops up.
func TestInventoryLifecycle(t *testing.T) {
	svc := newSweetService(t)
	ctx := context.Background()

	sweet := models.Sweet{Name: "Lollipop", Category: "Stick", Price: 1.00, Quantity: 5}
	require.NoError(t, svc.Create(ctx, &sweet))

	got, err := svc.Purchase(ctx, sweet.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 3, got.Quantity)

	_, err = svc.Purchase(ctx, sweet.ID, 10)
	require.ErrorIs(t, err, domain.ErrOutOfStock)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 3, list[0].Quantity)

	got, err = svc.Restock(ctx, sweet.ID, 5)
	require.NoError(t, err)
	require.Equal(t, 8, got.Quantity)
}
