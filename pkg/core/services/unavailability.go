package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/church-ops/pkg/cache"
	"github.com/jakechorley/church-ops/pkg/core/apperr"
	"github.com/jakechorley/church-ops/pkg/core/auth"
	"github.com/jakechorley/church-ops/pkg/db"
)

// UnavailabilityInput describes an inclusive date range a volunteer cannot serve
type UnavailabilityInput struct {
	ProfileID string `json:"profile_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason,omitempty"`
}

// UnavailabilityStore defines the database operations needed to manage unavailability
type UnavailabilityStore interface {
	GetProfile(ctx context.Context, profileID string) (*db.Profile, error)
	ListUnavailability(ctx context.Context, profileIDs []string) ([]db.VolunteerUnavailability, error)
	InsertUnavailability(ctx context.Context, unavailability *db.VolunteerUnavailability) error
}

// authorizeProfileAccess allows callers to manage their own records, and admins anyone's in their church
func authorizeProfileAccess(
	ctx context.Context,
	store UnavailabilityStore,
	session *auth.Session,
	logger *zap.Logger,
	profileID string,
) error {
	if err := auth.RequireSession(session); err != nil {
		return err
	}
	if profileID == session.ProfileID {
		return nil
	}
	if !session.IsAdmin() {
		return apperr.Forbidden("You can only manage your own availability")
	}

	profile, err := store.GetProfile(ctx, profileID)
	if err != nil {
		return storeError(logger, err, "failed to load profile", apperr.NotFound("Person not found"))
	}
	if profile.ChurchID != session.ChurchID {
		return apperr.NotFound("Person not found")
	}
	return nil
}

// ListUnavailability returns a person's unavailability ranges
func ListUnavailability(
	ctx context.Context,
	store UnavailabilityStore,
	session *auth.Session,
	logger *zap.Logger,
	profileID string,
) ([]db.VolunteerUnavailability, error) {
	if err := authorizeProfileAccess(ctx, store, session, logger, profileID); err != nil {
		return nil, err
	}

	ranges, err := store.ListUnavailability(ctx, []string{profileID})
	if err != nil {
		return nil, storeError(logger, err, "failed to load unavailability", nil)
	}
	if ranges == nil {
		ranges = []db.VolunteerUnavailability{}
	}
	return ranges, nil
}

// AddUnavailability records a range a person cannot serve
func AddUnavailability(
	ctx context.Context,
	store UnavailabilityStore,
	invalidator cache.Invalidator,
	session *auth.Session,
	logger *zap.Logger,
	input UnavailabilityInput,
) (*db.VolunteerUnavailability, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.StartDate > input.EndDate {
		return nil, apperr.Validation("start_date must not be after end_date")
	}
	if err := authorizeProfileAccess(ctx, store, session, logger, input.ProfileID); err != nil {
		return nil, err
	}

	u := &db.VolunteerUnavailability{
		ID:        uuid.NewString(),
		ProfileID: input.ProfileID,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Reason:    input.Reason,
	}

	if err := store.InsertUnavailability(ctx, u); err != nil {
		return nil, storeError(logger, err, "failed to record unavailability", nil)
	}

	logger.Debug("Unavailability recorded",
		zap.String("profile_id", u.ProfileID),
		zap.String("start_date", u.StartDate),
		zap.String("end_date", u.EndDate))

	invalidator.Invalidate(ctx, cache.ProfileTag(u.ProfileID))

	return u, nil
}
