package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"marketfront/internal/backend"
	"marketfront/internal/log"
	"marketfront/internal/services"
	"marketfront/internal/validate"
)

type AuthHandler struct {
	Auth   *services.AuthService
	Secure bool
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if viewerOf(c) != nil {
		return c.Redirect(validate.Next(c.Query("next")))
	}
	return render(c, "login", fiber.Map{"Err": "", "Email": "", "Next": validate.Next(c.Query("next"))})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := sessionOf(c).ID
	in := validate.LoginInput{Email: c.FormValue("email"), Password: c.FormValue("password")}
	next := validate.Next(c.FormValue("next"))
	fail := func(status int, msg string) error {
		return render(c.Status(status), "login", fiber.Map{"Err": msg, "Email": in.Email, "Next": next})
	}

	if bad := validate.Struct(in); bad != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "bad_format", "fields": bad})
		return fail(fiber.StatusUnauthorized, "Invalid email or password")
	}

	sess, err := h.Auth.Login(c.UserContext(), sid, in.Email, in.Password)
	if errors.Is(err, services.ErrBadCreds) {
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Email})
		return fail(fiber.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		log.Error(c, "auth.login.error", err, map[string]any{"email": in.Email})
		return fail(fiber.StatusBadGateway, "Sign in is unavailable right now. Please try again.")
	}

	setSID(c, sess.ID, h.Secure)
	log.Audit(c, "auth.login.success", map[string]any{"email": in.Email, "user_id": sess.User.ID})
	return c.Redirect(next)
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{"Err": "", "Name": "", "Email": ""})
}

var registerMessages = map[string]string{
	"Name":     "Enter a name between 2 and 50 characters.",
	"Email":    "Enter a valid email address.",
	"Password": "Password must be 6 to 64 characters.",
	"Terms":    "You must accept the terms of use.",
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	sid := sessionOf(c).ID
	in := validate.RegisterInput{
		Name:     validate.Text(c.FormValue("name"), 50),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		Terms:    c.FormValue("terms") != "",
	}
	form := fiber.Map{"Name": in.Name, "Email": in.Email}

	if bad := validate.Struct(in); bad != nil {
		errs := map[string]string{}
		for _, f := range bad {
			errs[f] = registerMessages[f]
		}
		log.Security(c, "auth.register.fail", map[string]any{"email": in.Email, "reason": "bad_format", "fields": bad})
		form["Errors"] = errs
		return render(c.Status(fiber.StatusBadRequest), "register", form)
	}

	sess, err := h.Auth.Register(c.UserContext(), sid, backend.Registration{
		Name: in.Name, Email: in.Email, Password: in.Password, AgreeToTerms: in.Terms,
	})
	if err != nil {
		var verr *backend.ValidationError
		if errors.As(err, &verr) {
			log.Security(c, "auth.register.rejected", map[string]any{"email": in.Email, "status": verr.Status})
			form["Err"] = verr.Message
			form["Errors"] = verr.Fields
			return render(c.Status(fiber.StatusBadRequest), "register", form)
		}
		log.Error(c, "auth.register.error", err, map[string]any{"email": in.Email})
		form["Err"] = "Registration is unavailable right now. Please try again."
		return render(c.Status(fiber.StatusBadGateway), "register", form)
	}

	setSID(c, sess.ID, h.Secure)
	log.Audit(c, "auth.register.success", map[string]any{"email": in.Email, "user_id": sess.User.ID})
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := sessionOf(c).ID
	if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
		log.Error(c, "auth.logout.fail", err, nil)
	}
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.Secure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}
