package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"marketfront/internal/domain"
	applog "marketfront/internal/log"
	"marketfront/internal/services"
	"marketfront/internal/validate"
)

type FavouriteHandler struct {
	Favs *services.FavouriteService
}

func (h *FavouriteHandler) List(c *fiber.Ctx) error {
	v := viewerOf(c)
	items, err := h.Favs.List(c.UserContext(), v.UserID)
	if err != nil {
		applog.Error(c, "favourites.list.fail", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load favourites")
	}
	return render(c, "favourites", fiber.Map{"Items": items})
}

// back returns to the page that posted the form, or the favourites list.
func back(c *fiber.Ctx) string {
	if ref, err := url.Parse(c.Get(fiber.HeaderReferer)); err == nil && ref.Path != "" {
		return validate.Next(ref.RequestURI())
	}
	return "/favourites"
}

func (h *FavouriteHandler) Save(c *fiber.Ctx) error {
	v := viewerOf(c)
	pid, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if err := h.Favs.Add(c.UserContext(), v.UserID, pid); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFound(c, fiber.StatusNotFound, "This item is no longer available")
		}
		applog.Error(c, "favourites.save.fail", err, map[string]any{"product": pid})
		return c.Status(fiber.StatusBadGateway).SendString("Could not save item")
	}
	applog.Audit(c, "favourites.save", map[string]any{"product": pid})
	return c.Redirect(back(c))
}

func (h *FavouriteHandler) Unsave(c *fiber.Ctx) error {
	v := viewerOf(c)
	pid, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	if err := h.Favs.Remove(c.UserContext(), v.UserID, pid); err != nil {
		applog.Error(c, "favourites.unsave.fail", err, map[string]any{"product": pid})
		return c.Status(fiber.StatusInternalServerError).SendString("Could not unsave item")
	}
	applog.Audit(c, "favourites.unsave", map[string]any{"product": pid})
	return c.Redirect(back(c))
}
