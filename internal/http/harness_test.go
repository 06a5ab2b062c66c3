package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"marketfront/internal/backend"
	"marketfront/internal/config"
	"marketfront/internal/domain"
	"marketfront/internal/http/handlers"
	"marketfront/internal/repos"
)

// pngBytes starts with the PNG signature so content sniffing reports image/png.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type uploadCall struct {
	path    string
	images  []string
	product domain.Listing
	auth    string
}

// fakeBackend is an in-process stand-in for the marketplace REST API.
type fakeBackend struct {
	mu          sync.Mutex
	uploads     []uploadCall
	statuses    []string
	deletes     []string
	down        bool
	rejectToken bool
	failStatus  bool
	failCreate  bool
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		hj, _ := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		_ = conn.Close()
		return
	}
	writeJSON := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	authed := r.Header.Get("Authorization") == "Bearer tok-ana" && !f.rejectToken

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/auth/login":
		var cred backend.Credentials
		_ = json.NewDecoder(r.Body).Decode(&cred)
		if cred.Password != "secret-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(200, map[string]any{"token": "tok-ana", "user": map[string]any{"id": 3, "name": "Ana", "email": cred.Email}})
	case r.Method == http.MethodPost && r.URL.Path == "/api/auth/register":
		var reg backend.Registration
		_ = json.NewDecoder(r.Body).Decode(&reg)
		if reg.Email == "taken@example.com" {
			writeJSON(http.StatusConflict, map[string]any{"message": "Email already registered"})
			return
		}
		w.WriteHeader(http.StatusCreated)
	case r.URL.Path == "/api/products/all-products":
		sofa := product(2, "Old sofa", "ON_SELL")
		sofa["categoryId"] = 1
		sofa["itemCondition"] = "GOOD"
		writeJSON(200, []any{product(1, "Vintage bike", "ON_SELL"), sofa, product(9, "Sold bike", "SOLD")})
	case r.URL.Path == "/api/products/latest-products":
		writeJSON(200, map[string]any{"content": []any{product(1, "Vintage bike", "ON_SELL")}, "totalPages": 1, "last": true})
	case strings.HasPrefix(r.URL.Path, "/api/products/latest-by-category-wp/"):
		writeJSON(200, map[string]any{"content": []any{product(8, "Category pick", "ON_SELL")}, "totalPages": 1, "last": true})
	case r.URL.Path == "/api/products/my-products":
		if !authed {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(200, []any{product(1, "Vintage bike", "ON_SELL"), product(2, "Old sofa", "SOLD")})
	case r.Method == http.MethodPost && r.URL.Path == "/api/products/create-product",
		r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/products/edit-product/"):
		if !authed {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		id := 55
		if r.Method == http.MethodPut {
			id, _ = strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/products/edit-product/"))
			if id != 1 && id != 2 {
				writeJSON(http.StatusNotFound, map[string]any{"message": "Product not found"})
				return
			}
		}
		call := uploadCall{path: r.URL.Path, auth: r.Header.Get("Authorization")}
		mr, _ := r.MultipartReader()
		for {
			p, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			data, _ := io.ReadAll(p)
			if p.FormName() == "images" {
				call.images = append(call.images, p.FileName())
			} else if p.FormName() == "product" {
				_ = json.Unmarshal(data, &call.product)
			}
		}
		f.uploads = append(f.uploads, call)
		if f.failCreate {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "Failed to create product with images")
			return
		}
		if call.product.Title == "bad" {
			writeJSON(http.StatusBadRequest, map[string]any{"message": "Invalid product", "errors": map[string]string{"price": "must be positive"}})
			return
		}
		if r.Method == http.MethodPost {
			writeJSON(http.StatusCreated, product(id, call.product.Title, "ON_SELL"))
			return
		}
		writeJSON(http.StatusOK, product(id, call.product.Title, string(call.product.Status)))
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/status"):
		if !authed {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.failStatus {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.statuses = append(f.statuses, r.URL.Path+"="+body["productStatus"])
		writeJSON(200, map[string]any{})
	case r.Method == http.MethodDelete:
		if !authed {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.deletes = append(f.deletes, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && r.URL.Path == "/api/products/1":
		writeJSON(200, product(1, "Vintage bike", "ON_SELL"))
	case r.Method == http.MethodGet && r.URL.Path == "/api/products/55":
		writeJSON(200, product(55, "Freshly listed", "ON_SELL"))
	default:
		writeJSON(http.StatusNotFound, map[string]any{"message": "Product not found"})
	}
}

func product(id int, title, status string) map[string]any {
	return map[string]any{
		"id": id, "title": title, "price": 120.5, "productStatus": status,
		"categoryId": 2, "categoryName": "Cars", "attributes": map[string]any{"brand": "Seat", "year": 2012},
		"imageUrls": []string{"https://img.example/" + title + ".jpg"}, "userId": 3,
		"createdAt": "2026-01-02T10:00:00",
	}
}

type harness struct {
	t       *testing.T
	app     *fiber.App
	deps    *handlers.Deps
	backend *fakeBackend
	jar     map[string]string
}

func newHarness(t *testing.T, opts ...func(*handlers.Deps)) *harness {
	t.Helper()
	fb := &fakeBackend{}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		SessionSecret: "test-secret-value-123",
		SessionTTL:    time.Hour,
		ImageSlots:    4,
		MaxImageBytes: 1024,
	}
	api := backend.New(srv.URL, 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	deps := handlers.NewDeps(db, cfg, api)
	for _, o := range opts {
		o(deps)
	}

	app := fiber.New(fiber.Config{
		Views:        handlers.NewViews("../../web/templates"),
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    1 << 20,
	})
	app.Use(deps.Session())
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	deps.Routes(app)

	return &harness{t: t, app: app, deps: deps, backend: fb, jar: map[string]string{}}
}

// do sends req with the jar's cookies and keeps whatever the response sets.
func (h *harness) do(req *http.Request) *http.Response {
	h.t.Helper()
	for name, v := range h.jar {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	resp, err := h.app.Test(req, -1)
	if err != nil {
		h.t.Fatal(err)
	}
	for _, c := range resp.Cookies() {
		if c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(h.jar, c.Name)
			continue
		}
		h.jar[c.Name] = c.Value
	}
	return resp
}

func (h *harness) get(path string) *http.Response {
	h.t.Helper()
	return h.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// csrfToken makes sure the jar holds a CSRF cookie.
func (h *harness) csrfToken() string {
	h.t.Helper()
	if tok := h.jar["csrf_"]; tok != "" {
		return tok
	}
	h.get("/login")
	tok := h.jar["csrf_"]
	if tok == "" {
		h.t.Fatal("csrf token missing")
	}
	return tok
}

func (h *harness) post(path string, vals url.Values) *http.Response {
	h.t.Helper()
	if vals == nil {
		vals = url.Values{}
	}
	vals.Set("csrf", h.csrfToken())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) upload(path, filename string, data []byte) *http.Response {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("csrf", h.csrfToken())
	fw, _ := mw.CreateFormFile("image", filename)
	_, _ = fw.Write(data)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req)
}

func (h *harness) login() {
	h.t.Helper()
	resp := h.post("/login", url.Values{"email": {"ana@example.com"}, "password": {"secret-pass"}})
	if resp.StatusCode != http.StatusFound {
		h.t.Fatalf("login: expected redirect, got %d", resp.StatusCode)
	}
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
