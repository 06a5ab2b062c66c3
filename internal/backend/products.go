package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"marketfront/internal/domain"
)

// GetProduct fetches one product. A missing product unwraps to domain.ErrNotFound.
func (c *Client) GetProduct(ctx context.Context, id int64) (domain.SavedProduct, error) {
	var p domain.SavedProduct
	err := c.call(ctx, request{method: http.MethodGet, path: "/api/products/" + strconv.FormatInt(id, 10)}, &p)
	return p, err
}

// AllProducts returns every product the backend knows about, unpaged.
func (c *Client) AllProducts(ctx context.Context) ([]domain.SavedProduct, error) {
	var out []domain.SavedProduct
	err := c.call(ctx, request{method: http.MethodGet, path: "/api/products/all-products"}, &out)
	return out, err
}

// LatestProducts returns a page of the most recent products.
func (c *Client) LatestProducts(ctx context.Context, page, size int) (domain.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	var p domain.Page
	err := c.call(ctx, request{method: http.MethodGet, path: "/api/products/latest-products?" + q.Encode()}, &p)
	return p, err
}

// LatestByCategory returns a page of the most recent products in a category.
func (c *Client) LatestByCategory(ctx context.Context, cat domain.Category, page, size int) (domain.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	path := fmt.Sprintf("/api/products/latest-by-category-wp/%d?%s", int(cat), q.Encode())
	var p domain.Page
	err := c.call(ctx, request{method: http.MethodGet, path: path}, &p)
	return p, err
}

// MyProducts lists the products owned by the token's user.
func (c *Client) MyProducts(ctx context.Context, token string) ([]domain.SavedProduct, error) {
	var out []domain.SavedProduct
	err := c.call(ctx, request{method: http.MethodGet, path: "/api/products/my-products", token: token}, &out)
	return out, err
}

// CreateProduct submits a listing with its images in one multipart request.
func (c *Client) CreateProduct(ctx context.Context, token string, listing domain.Listing, uploads []Upload) (domain.SavedProduct, error) {
	return c.sendListing(ctx, http.MethodPost, "/api/products/create-product", token, listing, uploads)
}

// EditProduct replaces the fields of product id. listing.ImageURLs are the
// existing images to keep; uploads are sent alongside as new images.
func (c *Client) EditProduct(ctx context.Context, token string, id int64, listing domain.Listing, uploads []Upload) (domain.SavedProduct, error) {
	return c.sendListing(ctx, http.MethodPut, fmt.Sprintf("/api/products/edit-product/%d", id), token, listing, uploads)
}

func (c *Client) sendListing(ctx context.Context, method, path, token string, listing domain.Listing, uploads []Upload) (domain.SavedProduct, error) {
	body, contentType, err := EncodeListing(listing, uploads)
	if err != nil {
		return domain.SavedProduct{}, err
	}
	var p domain.SavedProduct
	err = c.call(ctx, request{
		method:      method,
		path:        path,
		token:       token,
		body:        body,
		contentType: contentType,
	}, &p)
	return p, err
}

type statusUpdate struct {
	ProductStatus domain.ProductStatus `json:"productStatus"`
}

// UpdateStatus moves a product to status.
func (c *Client) UpdateStatus(ctx context.Context, token string, id int64, status domain.ProductStatus) error {
	b, err := json.Marshal(statusUpdate{ProductStatus: status})
	if err != nil {
		return err
	}
	return c.call(ctx, request{
		method:      http.MethodPut,
		path:        fmt.Sprintf("/api/products/%d/status", id),
		token:       token,
		body:        bytes.NewReader(b),
		contentType: "application/json",
	}, nil)
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, token string, id int64) error {
	return c.call(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/api/products/%d", id),
		token:  token,
	}, nil)
}
