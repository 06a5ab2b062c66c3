package domain

import "github.com/shopspring/decimal"

// Favourite is a product a user bookmarked, kept in the local store.
type Favourite struct {
	UserID    int64           `db:"user_id"`
	ProductID int64           `db:"product_id"`
	Title     string          `db:"title"`
	Price     decimal.Decimal `db:"price"`
	Image     string          `db:"image"`
	AddedAt   string          `db:"added_at"`
}
