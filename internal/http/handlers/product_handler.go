package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"marketfront/internal/domain"
	"marketfront/internal/log"
	"marketfront/internal/services"
	"marketfront/internal/validate"
)

type ProductHandler struct {
	Catalog    *services.CatalogService
	Favourites *services.FavouriteService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, fiber.StatusNotFound, "This item is no longer available")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c, fiber.StatusNotFound, "This item is no longer available")
	}
	if err != nil {
		log.Error(c, "product.load.fail", err, map[string]any{"product": id})
		return notFound(c, fiber.StatusBadGateway, "The marketplace is unavailable right now. Please try again.")
	}

	data := fiber.Map{"P": p}
	if s, ok := domain.SchemaFor(p.CategoryID); ok {
		data["Schema"] = s
	}
	if v := viewerOf(c); v != nil {
		data["IsOwner"] = v.UserID == p.UserID
		if h.Favourites != nil {
			fav, err := h.Favourites.Has(c.UserContext(), v.UserID, p.ID)
			if err != nil {
				log.Error(c, "favourite.lookup.fail", err, map[string]any{"product": id})
			}
			data["IsFavourite"] = fav
		}
	}
	return render(c, "product", data)
}
