package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/church-ops/pkg/cache"
	"github.com/jakechorley/church-ops/pkg/core/apperr"
	"github.com/jakechorley/church-ops/pkg/core/auth"
	"github.com/jakechorley/church-ops/pkg/db"
)

// AssignmentStore defines the database operations needed to staff positions
type AssignmentStore interface {
	GetPosition(ctx context.Context, churchID, positionID string) (*db.Position, error)
	GetProfile(ctx context.Context, profileID string) (*db.Profile, error)
	InsertAssignment(ctx context.Context, assignment *db.Assignment) error
	DeleteAssignment(ctx context.Context, churchID, assignmentID string) error
}

// AssignVolunteer assigns a profile to a position without inviting them
func AssignVolunteer(
	ctx context.Context,
	store AssignmentStore,
	invalidator cache.Invalidator,
	session *auth.Session,
	logger *zap.Logger,
	positionID string,
	profileID string,
) (*db.Assignment, error) {
	if err := auth.RequireRole(session, db.RoleAdmin, db.RoleLeader); err != nil {
		return nil, err
	}

	position, err := store.GetPosition(ctx, session.ChurchID, positionID)
	if err != nil {
		return nil, storeError(logger, err, "failed to load position", apperr.NotFound("Position not found"))
	}

	profile, err := store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, storeError(logger, err, "failed to load profile", apperr.NotFound("Person not found"))
	}
	if profile.ChurchID != session.ChurchID {
		return nil, apperr.NotFound("Person not found")
	}

	assignment := &db.Assignment{
		ID:         uuid.NewString(),
		PositionID: position.ID,
		ProfileID:  profile.ID,
		Status:     db.StatusAssigned,
		AssignedBy: session.ProfileID,
		CreatedAt:  time.Now().UTC(),
	}

	if err := store.InsertAssignment(ctx, assignment); err != nil {
		if errors.Is(err, db.ErrAlreadyAssigned) {
			return nil, apperr.ErrAlreadyAssigned
		}
		return nil, storeError(logger, err, "failed to create assignment", nil)
	}

	logger.Debug("Volunteer assigned",
		zap.String("assignment_id", assignment.ID),
		zap.String("position_id", position.ID),
		zap.String("profile_id", profile.ID))

	invalidator.Invalidate(ctx,
		cache.EventTag(position.EventID),
		cache.PositionTag(position.ID),
		cache.AssignmentTag(assignment.ID))

	return assignment, nil
}

// UnassignVolunteer removes an assignment in any state
func UnassignVolunteer(
	ctx context.Context,
	store AssignmentStore,
	invalidator cache.Invalidator,
	session *auth.Session,
	logger *zap.Logger,
	assignmentID string,
) error {
	if err := auth.RequireRole(session, db.RoleAdmin, db.RoleLeader); err != nil {
		return err
	}

	if err := store.DeleteAssignment(ctx, session.ChurchID, assignmentID); err != nil {
		return storeError(logger, err, "failed to delete assignment", apperr.NotFound("Assignment not found"))
	}

	logger.Debug("Volunteer unassigned", zap.String("assignment_id", assignmentID))

	invalidator.Invalidate(ctx, cache.AssignmentTag(assignmentID))

	return nil
}
