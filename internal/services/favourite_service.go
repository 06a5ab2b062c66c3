package services

import (
	"context"

	"marketfront/internal/domain"
	"marketfront/internal/repos"
)

type FavouriteService struct {
	Favs *repos.FavouriteRepo
	API  ProductAPI
}

func NewFavouriteService(favs *repos.FavouriteRepo, api ProductAPI) *FavouriteService {
	return &FavouriteService{Favs: favs, API: api}
}

// Add snapshots the product's title, price and cover at the time it is saved.
func (s *FavouriteService) Add(ctx context.Context, userID, productID int64) error {
	p, err := s.API.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	return s.Favs.Add(ctx, domain.Favourite{
		UserID:    userID,
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Image:     p.Cover(),
	})
}

func (s *FavouriteService) Remove(ctx context.Context, userID, productID int64) error {
	return s.Favs.Remove(ctx, userID, productID)
}

func (s *FavouriteService) List(ctx context.Context, userID int64) ([]domain.Favourite, error) {
	return s.Favs.List(ctx, userID)
}

func (s *FavouriteService) Has(ctx context.Context, userID, productID int64) (bool, error) {
	return s.Favs.Has(ctx, userID, productID)
}
