package validate

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"marketfront/internal/domain"
)

var (
	reID    = regexp.MustCompile(`^[0-9]{1,18}$`)
	reQ     = regexp.MustCompile(`^[\p{L}\p{N} _'-]{1,50}$`)
	reField = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{0,31}$`)

	v = validator.New(validator.WithRequiredStructEnabled())
)

// LoginInput is the login form.
type LoginInput struct {
	Email    string `validate:"required,email,max=100"`
	Password string `validate:"required,min=6,max=64"`
}

// RegisterInput is the registration form. Terms must be accepted.
type RegisterInput struct {
	Name     string `validate:"required,min=2,max=50"`
	Email    string `validate:"required,email,max=100"`
	Password string `validate:"required,min=6,max=64"`
	Terms    bool   `validate:"eq=true"`
}

// Struct runs the tag rules and returns the failing field names, or nil.
func Struct(in any) []string {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Field())
	}
	return out
}

// ID parses a backend numeric id (products, categories).
func ID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if !reID.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil && n > 0
}

// Slot parses a 0-based image slot index below capacity.
func Slot(s string, capacity int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n >= capacity {
		return 0, false
	}
	return n, true
}

// Page parses a 0-based page number; anything odd becomes 0.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	if n > 1000 {
		return 1000
	} // clamp to avoid abuse
	return n
}

// Q validates a search query: trims, enforces allowed characters and max length.
func Q(s string) (string, bool) {
	s = Text(s, 50)
	if s == "" {
		return "", false
	}
	return s, reQ.MatchString(s)
}

// Condition accepts one of the backend's item conditions.
func Condition(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, c := range domain.ItemConditions {
		if s == c {
			return s, true
		}
	}
	return "", false
}

// Action validates a seller action (reserve, sell, delete).
func Action(s string) (domain.Action, bool) {
	return domain.ParseAction(s)
}

// FieldName validates a dynamic attribute key.
func FieldName(s string) bool {
	return reField.MatchString(s)
}

// Next keeps post-login redirects on this site.
func Next(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") || strings.Contains(s, "\\") {
		return "/"
	}
	u, err := url.Parse(s)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return s
}

// Text trims and caps free text at max runes.
func Text(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}
