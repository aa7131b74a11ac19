package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jakechorley/church-ops/pkg/core/apperr"
	"github.com/jakechorley/church-ops/pkg/db"
)

// Session is the resolved identity of the caller
type Session struct {
	UserID    string
	ProfileID string
	ChurchID  string
	Role      db.ChurchRole
}

// IsAdmin reports whether the caller administers their church
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == db.RoleAdmin
}

// CanManageVolunteers reports whether the caller may staff positions and send invitations
func (s *Session) CanManageVolunteers() bool {
	return s != nil && (s.Role == db.RoleAdmin || s.Role == db.RoleLeader)
}

// RequireRole returns an error unless the session holds one of the given roles
func RequireRole(s *Session, roles ...db.ChurchRole) error {
	if s == nil || s.ProfileID == "" {
		return apperr.ErrAuth
	}
	for _, role := range roles {
		if s.Role == role {
			return nil
		}
	}
	return apperr.ErrForbidden
}

// RequireSession returns an error unless the session identifies a profile
func RequireSession(s *Session) error {
	if s == nil || s.ProfileID == "" || s.ChurchID == "" {
		return apperr.ErrAuth
	}
	return nil
}

// ProfileReader looks up profiles for session resolution
type ProfileReader interface {
	GetProfile(ctx context.Context, profileID string) (*db.Profile, error)
	GetProfileByUserID(ctx context.Context, userID string) (*db.Profile, error)
}

// FromProfile builds a session for a profile
func FromProfile(p *db.Profile) *Session {
	return &Session{
		UserID:    p.UserID,
		ProfileID: p.ID,
		ChurchID:  p.ChurchID,
		Role:      p.Role,
	}
}

// ResolveUser builds the session for an authenticated user id
func ResolveUser(ctx context.Context, profiles ProfileReader, userID string) (*Session, error) {
	if userID == "" {
		return nil, apperr.ErrAuth
	}
	profile, err := profiles.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.Auth("No profile found for this account")
		}
		return nil, apperr.Store(err, fmt.Sprintf("failed to load profile for user %s", userID))
	}
	return FromProfile(profile), nil
}

// ResolveProfile builds the session for a profile id (used by the CLI --as flag)
func ResolveProfile(ctx context.Context, profiles ProfileReader, profileID string) (*Session, error) {
	if profileID == "" {
		return nil, apperr.ErrAuth
	}
	profile, err := profiles.GetProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.Auth("Profile %s not found", profileID)
		}
		return nil, apperr.Store(err, fmt.Sprintf("failed to load profile %s", profileID))
	}
	return FromProfile(profile), nil
}

type contextKey string

const sessionContextKey contextKey = "session"

// WithSession stores the session on the context
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext returns the session stored on the context, or nil
func SessionFromContext(ctx context.Context) *Session {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return s
}
