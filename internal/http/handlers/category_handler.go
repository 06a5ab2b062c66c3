package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marketfront/internal/domain"
	"marketfront/internal/log"
	"marketfront/internal/services"
	"marketfront/internal/validate"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	view, err := h.Catalog.Home(c.UserContext())
	if err != nil {
		log.Error(c, "home.load.fail", err, nil)
		return notFound(c, fiber.StatusBadGateway, "The marketplace is unavailable right now. Please try again.")
	}
	for _, row := range view.Rows {
		if row.Err != nil {
			log.Error(c, "home.row.fail", row.Err, map[string]any{"category": row.Schema.Name})
		}
	}
	return render(c, "home", fiber.Map{"Latest": view.Latest, "Rows": view.Rows})
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "category"})
		return notFound(c, fiber.StatusNotFound, "Category not found")
	}
	page := validate.Page(c.Query("page"))
	schema, products, err := h.Catalog.Category(c.UserContext(), domain.Category(id), page)
	if err != nil {
		if schema.Name == "" {
			return notFound(c, fiber.StatusNotFound, "Category not found")
		}
		log.Error(c, "category.load.fail", err, map[string]any{"category": id})
		return notFound(c, fiber.StatusBadGateway, "The marketplace is unavailable right now. Please try again.")
	}
	return render(c, "category", fiber.Map{
		"Schema":   schema,
		"Products": products.Content,
		"Page":     page,
		"HasPrev":  page > 0,
		"HasNext":  !products.Last && page+1 < products.TotalPages,
	})
}
