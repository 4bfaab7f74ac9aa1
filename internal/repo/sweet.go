package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sweetshop/internal/domain"
	"sweetshop/internal/models"
)

type SweetRepo struct {
	DB *gorm.DB
}

// SweetPatch carries a partial update; nil fields are left untouched.
type SweetPatch struct {
	Name     *string
	Category *string
	Price    *float64
	Quantity *int
}

func (r *SweetRepo) Create(ctx context.Context, sweet *models.Sweet) error {
	return r.DB.WithContext(ctx).Create(sweet).Error
}

func (r *SweetRepo) List(ctx context.Context) ([]models.Sweet, error) {
	items := make([]models.Sweet, 0)
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SweetRepo) Search(ctx context.Context, q string) ([]models.Sweet, error) {
	pattern := "%" + strings.ToLower(q) + "%"
	items := make([]models.Sweet, 0)
	err := r.DB.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ?", pattern, pattern).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SweetRepo) Patch(ctx context.Context, id uint, patch SweetPatch) (*models.Sweet, error) {
	var sweet models.Sweet
	if err := r.DB.WithContext(ctx).First(&sweet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if patch.Name != nil {
		sweet.Name = *patch.Name
	}
	if patch.Category != nil {
		sweet.Category = *patch.Category
	}
	if patch.Price != nil {
		sweet.Price = *patch.Price
	}
	if patch.Quantity != nil {
		sweet.Quantity = *patch.Quantity
	}

	if err := r.DB.WithContext(ctx).Save(&sweet).Error; err != nil {
		return nil, err
	}
	return &sweet, nil
}

// Delete is idempotent: removing an id that does not exist is not an error.
func (r *SweetRepo) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Sweet{}, id).Error
}

// Purchase decrements stock inside a single transaction holding an exclusive
// row lock, so two purchases of the same sweet serialize at the database and
// the check-then-write below can never lose an update. The second transaction
// blocks on First until the first commits, then re-reads the decremented
// quantity. Rollback on any error leaves the row untouched.
func (r *SweetRepo) Purchase(ctx context.Context, id uint, quantity int) (*models.Sweet, error) {
	var sweet models.Sweet
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked := tx
		// sqlite rejects FOR UPDATE syntax; its transaction write lock
		// already serializes writers for the whole database.
		if tx.Dialector.Name() != "sqlite" {
			locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		if err := locked.First(&sweet, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock sweet row: %w", err)
		}

		if sweet.Quantity < quantity {
			return fmt.Errorf("%w: have %d, want %d", domain.ErrOutOfStock, sweet.Quantity, quantity)
		}

		sweet.Quantity -= quantity
		return tx.Model(&models.Sweet{}).
			Where("id = ?", id).
			Update("quantity", sweet.Quantity).Error
	})
	if err != nil {
		return nil, err
	}
	return &sweet, nil
}

// Restock needs no row lock: a single atomic increment is commutative under
// concurrency. Zero rows affected means the sweet does not exist.
func (r *SweetRepo) Restock(ctx context.Context, id uint, quantity int) (*models.Sweet, error) {
	res := r.DB.WithContext(ctx).Model(&models.Sweet{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", quantity))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}

	var sweet models.Sweet
	if err := r.DB.WithContext(ctx).First(&sweet, id).Error; err != nil {
		return nil, err
	}
	return &sweet, nil
}
