package service

import (
	"context"
	"fmt"
	"strings"

	"sweetshop/internal/domain"
	"sweetshop/internal/logging"
	"sweetshop/internal/models"
	"sweetshop/internal/repo"
)

type SweetService struct {
	Sweets *repo.SweetRepo
}

func (s *SweetService) Create(ctx context.Context, sweet *models.Sweet) error {
	l := logging.FromContext(ctx).With("svc", "sweets.create")

	patch := repo.SweetPatch{
		Name:     &sweet.Name,
		Category: &sweet.Category,
		Price:    &sweet.Price,
		Quantity: &sweet.Quantity,
	}
	if err := validatePatch(patch); err != nil {
		return err
	}

	if err := s.Sweets.Create(ctx, sweet); err != nil {
		l.Error("create_failed", "error", err)
		return err
	}
	l.Info("sweet_created", "sweet_id", sweet.ID, "name", sweet.Name)
	return nil
}

func (s *SweetService) List(ctx context.Context) ([]models.Sweet, error) {
	return s.Sweets.List(ctx)
}

func (s *SweetService) Search(ctx context.Context, q string) ([]models.Sweet, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", domain.ErrValidation)
	}
	return s.Sweets.Search(ctx, q)
}

func (s *SweetService) Update(ctx context.Context, id uint, patch repo.SweetPatch) (*models.Sweet, error) {
	l := logging.FromContext(ctx).With("svc", "sweets.update", "sweet_id", id)

	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	sweet, err := s.Sweets.Patch(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	l.Info("sweet_updated", "name", sweet.Name)
	return sweet, nil
}

func (s *SweetService) Delete(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "sweets.delete", "sweet_id", id)
	if err := s.Sweets.Delete(ctx, id); err != nil {
		l.Error("delete_failed", "error", err)
		return err
	}
	l.Info("sweet_deleted")
	return nil
}

func (s *SweetService) Purchase(ctx context.Context, id uint, quantity int) (*models.Sweet, error) {
	l := logging.FromContext(ctx).With("svc", "sweets.purchase", "sweet_id", id)

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: purchase quantity must be positive", domain.ErrValidation)
	}

	sweet, err := s.Sweets.Purchase(ctx, id, quantity)
	if err != nil {
		return nil, err
	}
	l.Info("sweet_purchased", "quantity", quantity, "remaining", sweet.Quantity)
	return sweet, nil
}

func (s *SweetService) Restock(ctx context.Context, id uint, quantity int) (*models.Sweet, error) {
	l := logging.FromContext(ctx).With("svc", "sweets.restock", "sweet_id", id)

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be positive", domain.ErrValidation)
	}

	sweet, err := s.Sweets.Restock(ctx, id, quantity)
	if err != nil {
		return nil, err
	}
	l.Info("sweet_restocked", "quantity", quantity, "total", sweet.Quantity)
	return sweet, nil
}

// validatePatch checks whichever fields are present; absent fields keep their
// stored values and are not re-validated.
func validatePatch(patch repo.SweetPatch) error {
	if patch.Name != nil && len(strings.TrimSpace(*patch.Name)) < 2 {
		return fmt.Errorf("%w: name must be at least 2 characters", domain.ErrValidation)
	}
	if patch.Category != nil && len(strings.TrimSpace(*patch.Category)) < 2 {
		return fmt.Errorf("%w: category must be at least 2 characters", domain.ErrValidation)
	}
	if patch.Price != nil && *patch.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", domain.ErrValidation)
	}
	return nil
}
