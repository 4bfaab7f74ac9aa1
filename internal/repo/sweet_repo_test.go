package repo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sweetshop/internal/domain"
	"sweetshop/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every session on the same in-memory database and
	// makes concurrent transactions queue instead of hitting SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Sweet{}))
	return db
}

func seedSweet(t *testing.T, db *gorm.DB, quantity int) models.Sweet {
	sweet := models.Sweet{Name: "Fudge", Category: "Chocolate", Price: 2.5, Quantity: quantity}
	require.NoError(t, db.Create(&sweet).Error)
	return sweet
}

func TestPurchaseDecrementsStock(t *testing.T) {
	db := newTestDB(t)
	r := &SweetRepo{DB: db}
	sweet := seedSweet(t, db, 5)

	got, err := r.Purchase(context.Background(), sweet.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 3, got.Quantity)

	var stored models.Sweet
	require.NoError(t, db.First(&stored, sweet.ID).Error)
	require.Equal(t, 3, stored.Quantity)
}

func TestPurchaseOutOfStockLeavesRowUntouched(t *testing.T) {
	db := newTestDB(t)
	r := &SweetRepo{DB: db}
	sweet := seedSweet(t, db, 3)

	_, err := r.Purchase(context.Background(), sweet.ID, 10)
	require.ErrorIs(t, err, domain.ErrOutOfStock)
	require.Contains(t, err.Error(), "stock")

	var stored models.Sweet
	require.NoError(t, db.First(&stored, sweet.ID).Error)
	require.Equal(t, 3, stored.Quantity)
}

func TestPurchaseUnknownSweet(t *testing.T) {
	db := newTestDB(t)
	r := &SweetRepo{DB: db}

	_, err := r.Purchase(context.Background(), 42, 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPurchaseConcurrentLastUnit(t *testing.T) {
	db := newTestDB(t)
	r := &SweetRepo{DB: db}
	sweet := seedSweet(t, db, 1)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Purchase(context.Background(), sweet.ID, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, outOfStock int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected purchase error: %v", err)
		}
	}
	require.Equal(t, 1, successes, "exactly one purchase of the last unit may succeed")
	require.Equal(t, 1, outOfStock)

	var stored models.Sweet
	require.NoError(t, db.First(&stored, sweet.ID).Error)
	require.Equal(t, 0, stored.Quantity, "quantity must never go negative")
}

func TestRestockAccumulates(t *testing.T) {
	db := newTestDB(t)
	r := &SweetRepo{DB: db}
	sweet := seedSweet(t, db, 3)

	_, err := r.Restock(context.Background(), sweet.ID, 5)
	require.NoError(t, err)
	got, err := r.Restock(context.Background(), sweet.ID, 5)
	require.NoError(t, err)
	require.Equal(t, 13, got.Quantity)
}

func TestRestockUnknownSweet(t *testing.T) {
	db := newTestDB(t)
	r := &SweetRepo{DB: db}

	_, err := r.Restock(context.Background(), 42, 5)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPatchAppliesOnlyGivenFields(t *testing.T) {
	db := newTestDB(t)
	r := &SweetRepo{DB: db}
	sweet := seedSweet(t, db, 3)

	price := 9.99
	got, err := r.Patch(context.Background(), sweet.ID, SweetPatch{Price: &price})
	require.NoError(t, err)
	require.Equal(t, 9.99, got.Price)
	require.Equal(t, "Fudge", got.Name)
	require.Equal(t, "Chocolate", got.Category)
	require.Equal(t, 3, got.Quantity)
}

func TestPatchUnknownSweet(t *testing.T) {
	db := newTestDB(t)
	r := &SweetRepo{DB: db}

	name := "Toffee"
	_, err := r.Patch(context.Background(), 42, SweetPatch{Name: &name})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	r := &SweetRepo{DB: db}
	sweet := seedSweet(t, db, 3)

	require.NoError(t, r.Delete(context.Background(), sweet.ID))
	require.NoError(t, r.Delete(context.Background(), sweet.ID))
	require.NoError(t, r.Delete(context.Background(), 42))
}

func TestSearchMatchesNameAndCategoryCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	r := &SweetRepo{DB: db}
	require.NoError(t, db.Create(&models.Sweet{Name: "Lollipop", Category: "Stick", Price: 1, Quantity: 5}).Error)
	require.NoError(t, db.Create(&models.Sweet{Name: "Toffee", Category: "Chewy", Price: 2, Quantity: 5}).Error)
	require.NoError(t, db.Create(&models.Sweet{Name: "Candy Stick", Category: "Hard", Price: 3, Quantity: 5}).Error)

	got, err := r.Search(context.Background(), "STICK")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Lollipop", got[0].Name)
	require.Equal(t, "Candy Stick", got[1].Name)

	got, err = r.Search(context.Background(), "nothing")
	require.NoError(t, err)
	require.Empty(t, got)
}
