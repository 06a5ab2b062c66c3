package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"marketfront/internal/domain"
)

const flashCookie = "flash"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Inject the viewer if signed in
	if v := viewerOf(c); v != nil {
		data["User"] = v
	}
	if _, ok := data["Categories"]; !ok {
		data["Categories"] = domain.Schemas()
	}
	if msg := popFlash(c); msg != "" {
		if _, ok := data["Flash"]; !ok {
			data["Flash"] = msg
		}
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		// Fallback: the CSRF cookie, so hidden fields are never empty
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

// notFound renders the shared message page.
func notFound(c *fiber.Ctx, status int, msg string) error {
	return render(c.Status(status), "notfound", fiber.Map{"Message": msg})
}

// setFlash leaves a one-shot message for the next rendered page.
func setFlash(c *fiber.Ctx, msg string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Minute),
	})
}

func popFlash(c *fiber.Ctx) string {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return ""
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-time.Hour),
	})
	msg, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return msg
}
