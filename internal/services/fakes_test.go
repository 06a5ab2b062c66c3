package services_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"marketfront/internal/backend"
	"marketfront/internal/domain"
	"marketfront/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// filedb is an on-disk database, shared by every pooled connection.
func filedb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "marketfront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type created struct {
	id      int64
	token   string
	listing domain.Listing
	uploads []backend.Upload
}

// fakeAPI records calls and answers from canned data.
type fakeAPI struct {
	mu        sync.Mutex
	products  map[int64]domain.SavedProduct
	mine      []domain.SavedProduct
	createErr error
	statusErr error
	catErr    map[domain.Category]error
	all       []domain.SavedProduct
	allErr    error
	created   []created
	edited    []created
	statuses  []domain.ProductStatus
	deleted   []int64

	loginUser  domain.User
	loginToken string
	loginErr   error
	registered []backend.Registration
}

func (f *fakeAPI) GetProduct(_ context.Context, id int64) (domain.SavedProduct, error) {
	p, ok := f.products[id]
	if !ok {
		return domain.SavedProduct{}, &backend.StatusError{Status: 404}
	}
	return p, nil
}

func (f *fakeAPI) AllProducts(context.Context) ([]domain.SavedProduct, error) {
	if f.allErr != nil {
		return nil, f.allErr
	}
	return f.all, nil
}

func (f *fakeAPI) LatestProducts(context.Context, int, int) (domain.Page, error) {
	return domain.Page{Content: []domain.SavedProduct{{ID: 1, Title: "newest"}}}, nil
}

func (f *fakeAPI) LatestByCategory(_ context.Context, cat domain.Category, page, _ int) (domain.Page, error) {
	if err := f.catErr[cat]; err != nil {
		return domain.Page{}, err
	}
	return domain.Page{Content: []domain.SavedProduct{{ID: int64(cat) * 100, CategoryID: cat}}, Number: page}, nil
}

func (f *fakeAPI) MyProducts(context.Context, string) ([]domain.SavedProduct, error) {
	return f.mine, nil
}

func (f *fakeAPI) CreateProduct(_ context.Context, token string, l domain.Listing, uploads []backend.Upload) (domain.SavedProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, created{token: token, listing: l, uploads: uploads})
	if f.createErr != nil {
		return domain.SavedProduct{}, f.createErr
	}
	return domain.SavedProduct{ID: 77, Title: l.Title, Status: domain.StatusOnSell}, nil
}

func (f *fakeAPI) EditProduct(_ context.Context, token string, id int64, l domain.Listing, uploads []backend.Upload) (domain.SavedProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, created{id: id, token: token, listing: l, uploads: uploads})
	if f.createErr != nil {
		return domain.SavedProduct{}, f.createErr
	}
	return domain.SavedProduct{ID: id, Title: l.Title, Status: l.Status}, nil
}

func (f *fakeAPI) UpdateStatus(_ context.Context, _ string, _ int64, s domain.ProductStatus) error {
	f.statuses = append(f.statuses, s)
	return f.statusErr
}

func (f *fakeAPI) DeleteProduct(_ context.Context, _ string, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) Login(_ context.Context, cred backend.Credentials) (backend.AuthResult, error) {
	if f.loginErr != nil {
		return backend.AuthResult{}, f.loginErr
	}
	if cred.Password != "right-password" {
		return backend.AuthResult{}, &backend.StatusError{Status: 401}
	}
	return backend.AuthResult{Token: f.loginToken, User: f.loginUser}, nil
}

func (f *fakeAPI) Register(_ context.Context, reg backend.Registration) error {
	f.registered = append(f.registered, reg)
	return nil
}
