package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"marketfront/internal/domain"
	"marketfront/internal/log"
	"marketfront/internal/services"
	"marketfront/internal/validate"
)

type ProfileHandler struct {
	Profile *services.ProfileService
	Auth    *services.AuthService
}

type statusTab struct {
	Status domain.ProductStatus
	Count  int
	Active bool
}

var tabOrder = []domain.ProductStatus{domain.StatusOnSell, domain.StatusReserved, domain.StatusSold}

func (h *ProfileHandler) MyProducts(c *fiber.Ctx) error {
	all, err := h.Profile.MyProducts(c.UserContext(), sessionOf(c).Token)
	if errors.Is(err, domain.ErrAuthRequired) {
		return authLost(c, h.Auth)
	}
	if err != nil {
		log.Error(c, "profile.products.fail", err, nil)
		return notFound(c, fiber.StatusBadGateway, "Could not load your products. Please try again.")
	}

	current, ok := domain.ParseStatus(c.Query("tab"))
	if !ok {
		current = domain.StatusOnSell
	}
	tabs := make([]statusTab, 0, len(tabOrder))
	for _, s := range tabOrder {
		tabs = append(tabs, statusTab{Status: s, Count: len(services.ByStatus(all, s)), Active: s == current})
	}
	return render(c, "my_products", fiber.Map{
		"Tabs":     tabs,
		"Current":  current,
		"Products": services.ByStatus(all, current),
	})
}

// Confirm is the confirmation step every status change and delete goes through.
func (h *ProfileHandler) Confirm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, fiber.StatusNotFound, "This item is no longer available")
	}
	action, ok := validate.Action(c.Query("action"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "action"})
		return notFound(c, fiber.StatusBadRequest, "Unknown action")
	}
	p, err := h.Profile.Find(c.UserContext(), sessionOf(c).Token, id)
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return authLost(c, h.Auth)
	case errors.Is(err, domain.ErrNotFound):
		return notFound(c, fiber.StatusNotFound, "This item is no longer available")
	case err != nil:
		log.Error(c, "profile.confirm.fail", err, map[string]any{"product": id})
		return notFound(c, fiber.StatusBadGateway, "Could not load your product. Please try again.")
	}
	if target, ok := action.Target(); ok && !domain.CanTransition(p.Status, target) {
		setFlash(c, "That change is not possible for "+statusLabel(p.Status)+" products.")
		return c.Redirect("/me/products?tab=" + string(p.Status))
	}
	form := "/me/products/" + c.Params("id") + "/status"
	if action == domain.ActionDelete {
		form = "/me/products/" + c.Params("id") + "/delete"
	}
	return render(c, "confirm", fiber.Map{"P": p, "Action": string(action), "Form": form})
}

func (h *ProfileHandler) apply(c *fiber.Ctx, action domain.Action) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, fiber.StatusNotFound, "This item is no longer available")
	}
	start := time.Now()
	err := h.Profile.Apply(c.UserContext(), sessionOf(c).Token, id, action)
	log.Backend(c, string(action)+"_product", time.Since(start), err)
	switch {
	case err == nil:
		log.Audit(c, "profile.product."+string(action), map[string]any{"product": id})
		setFlash(c, "Your product was updated.")
	case errors.Is(err, domain.ErrAuthRequired):
		return authLost(c, h.Auth)
	case errors.Is(err, domain.ErrInvalidTransition):
		log.Security(c, "profile.transition.denied", map[string]any{"product": id, "action": string(action)})
		setFlash(c, "That change is not possible for this product.")
	case errors.Is(err, domain.ErrNotFound):
		setFlash(c, "This item is no longer available.")
	default:
		log.Error(c, "profile.product."+string(action)+".fail", err, map[string]any{"product": id})
		setFlash(c, "Could not "+strings.ToLower(string(action))+" the product. Please try again.")
	}
	return c.Redirect("/me/products")
}

func (h *ProfileHandler) UpdateStatus(c *fiber.Ctx) error {
	action, ok := validate.Action(c.FormValue("action"))
	if !ok || action == domain.ActionDelete {
		log.Security(c, "validation.fail", map[string]any{"field": "action"})
		setFlash(c, "Unknown action.")
		return c.Redirect("/me/products")
	}
	return h.apply(c, action)
}

func (h *ProfileHandler) Delete(c *fiber.Ctx) error {
	return h.apply(c, domain.ActionDelete)
}
