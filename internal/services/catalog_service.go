package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"marketfront/internal/domain"
)

const (
	homeLatestSize = 12
	homeRowSize    = 6
	categoryPage   = 12
	searchLimit    = 20
)

type CatalogService struct {
	API ProductAPI
}

func NewCatalogService(api ProductAPI) *CatalogService {
	return &CatalogService{API: api}
}

// CategoryRow is one category strip on the home page. Err is set when the
// backend could not produce it; the rest of the page still renders.
type CategoryRow struct {
	Schema   domain.FieldSchema
	Products []domain.SavedProduct
	Err      error
}

type HomeView struct {
	Latest []domain.SavedProduct
	Rows   []CategoryRow
}

// Home fetches the latest products and one row per category concurrently.
func (s *CatalogService) Home(ctx context.Context) (HomeView, error) {
	schemas := domain.Schemas()
	view := HomeView{Rows: make([]CategoryRow, len(schemas))}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.API.LatestProducts(gctx, 0, homeLatestSize)
		if err != nil {
			return err
		}
		view.Latest = page.Content
		return nil
	})
	for i, schema := range schemas {
		view.Rows[i].Schema = schema
		g.Go(func() error {
			page, err := s.API.LatestByCategory(gctx, schema.Category, 0, homeRowSize)
			if err != nil {
				view.Rows[i].Err = err
				return nil
			}
			view.Rows[i].Products = page.Content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return HomeView{}, err
	}
	return view, nil
}

// Category returns one page (0-based) of a category's products.
func (s *CatalogService) Category(ctx context.Context, cat domain.Category, page int) (domain.FieldSchema, domain.Page, error) {
	schema, ok := domain.SchemaFor(cat)
	if !ok {
		return domain.FieldSchema{}, domain.Page{}, domain.ErrUnknownCategory
	}
	if page < 0 {
		page = 0
	}
	p, err := s.API.LatestByCategory(ctx, cat, page, categoryPage)
	return schema, p, err
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.SavedProduct, error) {
	return s.API.GetProduct(ctx, id)
}

// SearchQuery narrows a search. Zero Category and empty Condition match all.
type SearchQuery struct {
	Q         string
	Category  domain.Category
	Condition string
}

// Search matches products on sale whose title or description contains the
// query, newest first. Filtering runs over the backend's full product list.
func (s *CatalogService) Search(ctx context.Context, q SearchQuery) ([]domain.SavedProduct, error) {
	all, err := s.API.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(q.Q)
	out := make([]domain.SavedProduct, 0, searchLimit)
	for i := len(all) - 1; i >= 0 && len(out) < searchLimit; i-- {
		p := all[i]
		if p.Status != "" && p.Status != domain.StatusOnSell {
			continue
		}
		if q.Category != domain.CategoryNone && p.CategoryID != q.Category {
			continue
		}
		if q.Condition != "" && p.ItemCondition != q.Condition {
			continue
		}
		if !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
