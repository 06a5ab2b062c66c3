package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"marketfront/internal/domain"
	applog "marketfront/internal/log"
	"marketfront/internal/services"
	"marketfront/internal/validate"
)

const (
	sidCookie  = "sid"
	sessionKey = "session"
)

func ensureSID(c *fiber.Ctx, secure bool) string {
	sid := c.Cookies(sidCookie)
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
		setSID(c, sid, secure)
	}
	return sid
}

func setSID(c *fiber.Ctx, sid string, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
	})
}

// Session resolves the sid cookie once per request. Handlers read the
// *domain.Session and its *domain.Viewer projection from Locals; nothing
// else writes them.
func Session(auth *services.AuthService, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := ensureSID(c, secure)
		sess, err := auth.Current(c.UserContext(), sid)
		if err != nil {
			applog.Error(c, "session.load.fail", err, nil)
			sess = &domain.Session{ID: sid}
		}
		c.Locals(sessionKey, sess)
		if v := sess.Viewer(time.Now()); v != nil {
			c.Locals(applog.ViewerKey, v)
		}
		return c.Next()
	}
}

func sessionOf(c *fiber.Ctx) *domain.Session {
	if s, ok := c.Locals(sessionKey).(*domain.Session); ok && s != nil {
		return s
	}
	return &domain.Session{ID: c.Cookies(sidCookie)}
}

func viewerOf(c *fiber.Ctx) *domain.Viewer {
	v, _ := c.Locals(applog.ViewerKey).(*domain.Viewer)
	return v
}

// loginURL sends the browser back to where it was after signing in. Form
// posts return to the page that held the form.
func loginURL(c *fiber.Ctx) string {
	next := c.OriginalURL()
	if c.Method() != fiber.MethodGet {
		next = "/"
		if ref, err := url.Parse(c.Get(fiber.HeaderReferer)); err == nil && ref.Path != "" {
			next = ref.RequestURI()
		}
	}
	return "/login?next=" + url.QueryEscape(validate.Next(next))
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if viewerOf(c) == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return c.Redirect(loginURL(c))
		}
		return c.Next()
	}
}

// authLost handles a backend that stopped accepting the session's token:
// the identity is dropped and the browser sent to sign in again.
func authLost(c *fiber.Ctx, auth *services.AuthService) error {
	if err := auth.Expire(c.UserContext(), sessionOf(c).ID); err != nil {
		applog.Error(c, "session.expire.fail", err, nil)
	}
	applog.Security(c, "session.expired", nil)
	return c.Redirect(loginURL(c))
}
