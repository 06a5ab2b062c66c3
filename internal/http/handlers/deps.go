package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/jmoiron/sqlx"

	"marketfront/internal/config"
	applog "marketfront/internal/log"
	"marketfront/internal/repos"
	"marketfront/internal/services"
)

type Deps struct {
	Auth     *services.AuthService
	Listings *services.ListingService
	Secure   bool

	AuthHandler      *AuthHandler
	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	ListingHandler   *ListingHandler
	ProfileHandler   *ProfileHandler
	FavouriteHandler *FavouriteHandler
	SearchHandler    *SearchHandler

	// LoginLimiter guards the credential endpoints when set.
	LoginLimiter fiber.Handler
	// SearchLimiter guards /search when set.
	SearchLimiter fiber.Handler
}

func NewDeps(db *sqlx.DB, cfg config.Config, api services.API) *Deps {
	sessRepo := repos.NewSessionRepo(db, repos.NewTokenBox(cfg.SessionSecret))
	draftRepo := repos.NewDraftRepo(db)
	favRepo := repos.NewFavouriteRepo(db)

	listingSvc := services.NewListingService(draftRepo, api, cfg.ImageSlots, cfg.MaxImageBytes)
	authSvc := &services.AuthService{API: api, Sessions: sessRepo, Listings: listingSvc, TTL: cfg.SessionTTL}
	catalogSvc := services.NewCatalogService(api)
	profileSvc := services.NewProfileService(api)
	favSvc := services.NewFavouriteService(favRepo, api)

	return &Deps{
		Auth:             authSvc,
		Listings:         listingSvc,
		Secure:           cfg.CookieSecure,
		AuthHandler:      &AuthHandler{Auth: authSvc, Secure: cfg.CookieSecure},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc, Favourites: favSvc},
		ListingHandler:   &ListingHandler{Listings: listingSvc, Profile: profileSvc, Auth: authSvc, MaxImageBytes: cfg.MaxImageBytes},
		ProfileHandler:   &ProfileHandler{Profile: profileSvc, Auth: authSvc},
		FavouriteHandler: &FavouriteHandler{Favs: favSvc},
		SearchHandler:    &SearchHandler{Catalog: catalogSvc},
	}
}

// Session is the middleware that resolves the browser session.
func (d *Deps) Session() fiber.Handler { return Session(d.Auth, d.Secure) }

// RequestDeadline gives every request's UserContext a deadline. fasthttp
// does not cancel it when the browser goes away, so this bounds how long a
// handler and its backend calls may run.
func RequestDeadline(d time.Duration) fiber.Handler {
	if d <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return timeout.NewWithContext(func(c *fiber.Ctx) error { return c.Next() }, d)
}

// Routes mounts every page. Session and CSRF middleware must already be in place.
func (d *Deps) Routes(app *fiber.App) {
	gate := RequireUser()
	pass := func(c *fiber.Ctx) error { return c.Next() }
	throttle, searchThrottle := d.LoginLimiter, d.SearchLimiter
	if throttle == nil {
		throttle = pass
	}
	if searchThrottle == nil {
		searchThrottle = pass
	}

	// Public pages
	app.Get("/", d.CategoryHandler.Home)
	app.Get("/category/:id", d.CategoryHandler.List)
	app.Get("/product/:id", d.ProductHandler.Detail)
	app.Get("/search", searchThrottle, d.SearchHandler.Search)

	// Auth
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", throttle, d.AuthHandler.Login)
	app.Get("/register", d.AuthHandler.RegisterForm)
	app.Post("/register", throttle, d.AuthHandler.Register)
	app.Post("/logout", d.AuthHandler.Logout)

	// Sell form
	sell := app.Group("/sell", gate)
	sell.Get("/", d.ListingHandler.Form)
	sell.Post("/category", d.ListingHandler.SelectCategory)
	sell.Post("/fields", d.ListingHandler.SaveFields)
	sell.Get("/images/preview/:handle", d.ListingHandler.Preview)
	sell.Post("/images/:slot", d.ListingHandler.UploadImage)
	sell.Post("/images/:slot/delete", d.ListingHandler.DeleteImage)
	sell.Post("/kept/:index/delete", d.ListingHandler.DropKept)
	sell.Post("/submit", d.ListingHandler.Submit)
	sell.Post("/discard", d.ListingHandler.Discard)

	// Seller profile
	me := app.Group("/me", gate)
	me.Get("/products", d.ProfileHandler.MyProducts)
	me.Get("/products/:id/confirm", d.ProfileHandler.Confirm)
	me.Get("/products/:id/edit", d.ListingHandler.Edit)
	me.Post("/products/:id/status", d.ProfileHandler.UpdateStatus)
	me.Post("/products/:id/delete", d.ProfileHandler.Delete)

	// Favourites
	app.Get("/favourites", gate, d.FavouriteHandler.List)
	app.Post("/favourites", gate, d.FavouriteHandler.Save)
	app.Post("/favourites/delete", gate, d.FavouriteHandler.Unsave)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return notFound(c, fiber.StatusNotFound, "Page not found")
	})
}

// ErrorHandler logs and shows a friendly message without leaking internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < 500 {
		code = fe.Code
		msg = fe.Message
	}
	applog.Error(c, "server.error", err, map[string]any{"code": code})
	// best-effort render
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// Janitor purges stale drafts, their images and idle anonymous sessions
// every interval until ctx is done.
func (d *Deps) Janitor(ctx context.Context, interval, draftTTL time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			d.Sweep(ctx, draftTTL)
		}
	}
}

func (d *Deps) Sweep(ctx context.Context, draftTTL time.Duration) {
	drafts, err := d.Listings.PurgeStale(ctx, draftTTL)
	applog.Job("janitor.drafts", err, map[string]any{"removed": drafts})
	sessions, err := d.Auth.Sessions.PurgeIdle(ctx, time.Now().Add(-draftTTL))
	applog.Job("janitor.sessions", err, map[string]any{"removed": sessions})
}
