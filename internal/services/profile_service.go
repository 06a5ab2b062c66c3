package services

import (
	"context"
	"fmt"

	"marketfront/internal/domain"
)

// ProfileService covers the seller's own products and their status changes.
type ProfileService struct {
	API ProductAPI
}

func NewProfileService(api ProductAPI) *ProfileService { return &ProfileService{API: api} }

func (s *ProfileService) MyProducts(ctx context.Context, token string) ([]domain.SavedProduct, error) {
	if token == "" {
		return nil, domain.ErrAuthRequired
	}
	return s.API.MyProducts(ctx, token)
}

// ByStatus keeps the products in status, in their original order.
func ByStatus(products []domain.SavedProduct, status domain.ProductStatus) []domain.SavedProduct {
	var out []domain.SavedProduct
	for _, p := range products {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// Find returns one of the seller's own products.
func (s *ProfileService) Find(ctx context.Context, token string, id int64) (domain.SavedProduct, error) {
	list, err := s.MyProducts(ctx, token)
	if err != nil {
		return domain.SavedProduct{}, err
	}
	for _, p := range list {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.SavedProduct{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
}

// Apply performs a confirmed action with exactly one backend call. Status
// changes are checked against the product's current status first.
func (s *ProfileService) Apply(ctx context.Context, token string, id int64, action domain.Action) error {
	p, err := s.Find(ctx, token, id)
	if err != nil {
		return err
	}
	if action == domain.ActionDelete {
		return s.API.DeleteProduct(ctx, token, id)
	}
	target, ok := action.Target()
	if !ok {
		return fmt.Errorf("action %q: %w", action, domain.ErrInvalidTransition)
	}
	if !domain.CanTransition(p.Status, target) {
		return fmt.Errorf("%s to %s: %w", p.Status, target, domain.ErrInvalidTransition)
	}
	return s.API.UpdateStatus(ctx, token, id, target)
}
