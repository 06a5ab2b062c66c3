package repos

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"marketfront/internal/domain"
)

type FavouriteRepo struct{ db *sqlx.DB }

func NewFavouriteRepo(db *sqlx.DB) *FavouriteRepo { return &FavouriteRepo{db: db} }

// Add is idempotent; re-adding keeps the original added_at.
func (r *FavouriteRepo) Add(ctx context.Context, f domain.Favourite) error {
	if f.AddedAt == "" {
		f.AddedAt = time.Now().UTC().Format(time.RFC3339)
	}
	q, args, err := sq.Insert("favourites").
		Columns("user_id", "product_id", "title", "price", "image", "added_at").
		Values(f.UserID, f.ProductID, f.Title, f.Price.String(), f.Image, f.AddedAt).
		Suffix("ON CONFLICT(user_id, product_id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

func (r *FavouriteRepo) Remove(ctx context.Context, userID, productID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favourites WHERE user_id=? AND product_id=?`, userID, productID)
	return err
}

func (r *FavouriteRepo) List(ctx context.Context, userID int64) ([]domain.Favourite, error) {
	q, args, err := sq.Select("user_id", "product_id", "title", "price", "image", "added_at").
		From("favourites").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("added_at DESC", "product_id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	var out []domain.Favourite
	err = r.db.SelectContext(ctx, &out, q, args...)
	return out, err
}

func (r *FavouriteRepo) Has(ctx context.Context, userID, productID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM favourites WHERE user_id=? AND product_id=?`, userID, productID)
	return n > 0, err
}
