package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"marketfront/internal/backend"
	"marketfront/internal/domain"
	"marketfront/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthService struct {
	API      AuthAPI
	Sessions *repos.SessionRepo
	Listings *ListingService
	TTL      time.Duration
	Now      func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login exchanges credentials with the backend and binds the identity to a
// new session id that replaces sid. Callers must hand the returned ID to the
// browser; sid stops resolving.
func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.Session, error) {
	res, err := s.API.Login(ctx, backend.Credentials{Email: email, Password: password})
	if err != nil {
		var verr *backend.ValidationError
		if errors.Is(err, domain.ErrAuthRequired) || errors.As(err, &verr) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	exp := TokenExpiry(res.Token, s.now(), s.TTL)
	next := uuid.NewString()
	if err := s.Sessions.Rotate(ctx, sid, next, res.User, res.Token, exp); err != nil {
		return nil, err
	}
	u := res.User
	return &domain.Session{ID: next, User: &u, Token: res.Token, ExpiresAt: exp}, nil
}

// Register creates the account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, sid string, reg backend.Registration) (*domain.Session, error) {
	if err := s.API.Register(ctx, reg); err != nil {
		return nil, err
	}
	return s.Login(ctx, sid, reg.Email, reg.Password)
}

// Logout tears down the draft and returns sid to Anonymous.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	if s.Listings != nil {
		if err := s.Listings.Discard(ctx, sid); err != nil {
			return err
		}
	}
	return s.Sessions.Unbind(ctx, sid)
}

// Current resolves sid. A session whose token has expired is unbound on
// first sight and comes back Anonymous.
func (s *AuthService) Current(ctx context.Context, sid string) (*domain.Session, error) {
	if err := s.Sessions.Touch(ctx, sid); err != nil {
		return nil, err
	}
	sess, err := s.Sessions.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if sess.User != nil && !sess.Authenticated(s.now()) {
		if err := s.Expire(ctx, sid); err != nil {
			return nil, err
		}
		return &domain.Session{ID: sid}, nil
	}
	return sess, nil
}

// Expire forgets the identity after the backend stopped accepting its token.
func (s *AuthService) Expire(ctx context.Context, sid string) error {
	return s.Sessions.Unbind(ctx, sid)
}

// TokenExpiry is the earlier of the token's exp claim and now+ttl. Tokens
// that are not JWTs only get the ttl.
func TokenExpiry(token string, now time.Time, ttl time.Duration) time.Time {
	limit := now.Add(ttl)
	if ttl <= 0 {
		limit = time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return limit
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return limit
	}
	if limit.IsZero() || exp.Time.Before(limit) {
		return exp.Time
	}
	return limit
}
