package services

import (
	"context"

	"marketfront/internal/backend"
	"marketfront/internal/domain"
)

// ProductAPI is the part of the backend client the product services call.
type ProductAPI interface {
	GetProduct(ctx context.Context, id int64) (domain.SavedProduct, error)
	AllProducts(ctx context.Context) ([]domain.SavedProduct, error)
	LatestProducts(ctx context.Context, page, size int) (domain.Page, error)
	LatestByCategory(ctx context.Context, cat domain.Category, page, size int) (domain.Page, error)
	MyProducts(ctx context.Context, token string) ([]domain.SavedProduct, error)
	CreateProduct(ctx context.Context, token string, listing domain.Listing, uploads []backend.Upload) (domain.SavedProduct, error)
	EditProduct(ctx context.Context, token string, id int64, listing domain.Listing, uploads []backend.Upload) (domain.SavedProduct, error)
	UpdateStatus(ctx context.Context, token string, id int64, status domain.ProductStatus) error
	DeleteProduct(ctx context.Context, token string, id int64) error
}

// AuthAPI is the authentication half of the backend client.
type AuthAPI interface {
	Login(ctx context.Context, cred backend.Credentials) (backend.AuthResult, error)
	Register(ctx context.Context, reg backend.Registration) error
}

var (
	_ ProductAPI = (*backend.Client)(nil)
	_ AuthAPI    = (*backend.Client)(nil)
)

// API is everything the front end needs from the backend.
type API interface {
	ProductAPI
	AuthAPI
}
