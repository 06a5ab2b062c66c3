package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketfront/internal/http/handlers"
)

func newErrorApp() *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        handlers.NewViews("../../web/templates"),
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    1 << 20,
	})
	app.Use(requestid.New())
	app.Get("/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})
	app.Get("/gone", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusGone, "This page has moved")
	})
	app.Post("/echo", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestErrorHandlerFriendlyMessage(t *testing.T) {
	app := newErrorApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/err", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "Something went wrong")
	assert.NotContains(t, string(b), "secret")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/gone", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	b, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "This page has moved")
}

func TestBodySizeLimit(t *testing.T) {
	app := newErrorApp()

	oversize := bytes.Repeat([]byte("A"), (1<<20)+10)
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	// fasthttp may drop the connection instead of answering
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestRequestDeadlineBoundsUserContext(t *testing.T) {
	app := fiber.New()
	app.Use(handlers.RequestDeadline(time.Minute))
	app.Get("/deadline", func(c *fiber.Ctx) error {
		dl, ok := c.UserContext().Deadline()
		if !ok {
			return c.SendString("none")
		}
		return c.SendString(time.Until(dl).Round(time.Minute).String())
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/deadline", nil), -1)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "1m0s", string(b))
}
