package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"marketfront/internal/domain"
	"marketfront/internal/log"
	"marketfront/internal/services"
	"marketfront/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	base := fiber.Map{"Q": "", "Products": []domain.SavedProduct{}, "Count": 0, "Conditions": domain.ItemConditions}
	if strings.TrimSpace(rawQ) == "" {
		return render(c, "search", base)
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q", "value": validate.Text(rawQ, 50)})
		base["Err"] = "Enter a valid keyword (letters and numbers only)"
		return render(c.Status(fiber.StatusBadRequest), "search", base)
	}
	base["Q"] = q
	query := services.SearchQuery{Q: q}

	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, ok := validate.ID(raw)
		if _, known := domain.SchemaFor(domain.Category(id)); !ok || !known {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			base["Err"] = "Invalid category"
			return render(c.Status(fiber.StatusBadRequest), "search", base)
		}
		query.Category = domain.Category(id)
	}
	if raw := strings.TrimSpace(c.Query("condition")); raw != "" {
		cond, ok := validate.Condition(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "condition"})
			base["Err"] = "Invalid filter"
			return render(c.Status(fiber.StatusBadRequest), "search", base)
		}
		query.Condition = cond
	}
	base["CategoryID"] = int(query.Category)
	base["Condition"] = query.Condition

	products, err := h.Catalog.Search(c.UserContext(), query)
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return notFound(c, fiber.StatusBadGateway, "Could not load results. Please retry.")
	}
	base["Products"] = products
	base["Count"] = len(products)
	return render(c, "search", base)
}
