package domain

import "time"

// User is the identity record returned by the authentication exchange.
type User struct {
	ID         int64  `json:"id" db:"user_id"`
	Name       string `json:"name" db:"name"`
	Email      string `json:"email" db:"email"`
	ProfileImg string `json:"profileImg" db:"profile_img"`
}

// Session is what the front end believes about the browser's identity.
// A nil User means Anonymous.
type Session struct {
	ID        string
	User      *User
	Token     string
	ExpiresAt time.Time
}

// Authenticated reports whether the session carries a live identity at now.
func (s *Session) Authenticated(now time.Time) bool {
	if s == nil || s.User == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Viewer is the read-only projection of the session handed to handlers and
// templates. It never exposes the bearer token.
type Viewer struct {
	UserID     int64
	Name       string
	Email      string
	ProfileImg string
}

// Viewer projects an authenticated session; nil for Anonymous.
func (s *Session) Viewer(now time.Time) *Viewer {
	if !s.Authenticated(now) {
		return nil
	}
	return &Viewer{
		UserID:     s.User.ID,
		Name:       s.User.Name,
		Email:      s.User.Email,
		ProfileImg: s.User.ProfileImg,
	}
}
