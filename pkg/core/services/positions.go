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

// PositionInput describes a position to create
type PositionInput struct {
	EventID        string `json:"event_id" validate:"required"`
	MinistryID     string `json:"ministry_id" validate:"required"`
	RoleID         string `json:"role_id,omitempty"`
	Title          string `json:"title" validate:"required"`
	QuantityNeeded int    `json:"quantity_needed" validate:"min=1"`
	SortOrder      int    `json:"sort_order"`
}

// PositionStore defines the database operations needed to manage positions
type PositionStore interface {
	GetEvent(ctx context.Context, churchID, eventID string) (*db.Event, error)
	GetMinistry(ctx context.Context, churchID, ministryID string) (*db.Ministry, error)
	ListPositions(ctx context.Context, churchID, eventID string) ([]db.Position, error)
	InsertPosition(ctx context.Context, position *db.Position) error
	DeletePosition(ctx context.Context, churchID, positionID string) error
}

// ListPositions returns an event's positions in display order
func ListPositions(
	ctx context.Context,
	store PositionStore,
	session *auth.Session,
	logger *zap.Logger,
	eventID string,
) ([]db.Position, error) {
	if err := auth.RequireSession(session); err != nil {
		return nil, err
	}

	if _, err := store.GetEvent(ctx, session.ChurchID, eventID); err != nil {
		return nil, storeError(logger, err, "failed to load event", apperr.NotFound("Event not found"))
	}

	positions, err := store.ListPositions(ctx, session.ChurchID, eventID)
	if err != nil {
		return nil, storeError(logger, err, "failed to load positions", nil)
	}
	if positions == nil {
		positions = []db.Position{}
	}
	return positions, nil
}

// CreatePosition adds a staffing slot to an event
func CreatePosition(
	ctx context.Context,
	store PositionStore,
	invalidator cache.Invalidator,
	session *auth.Session,
	logger *zap.Logger,
	input PositionInput,
) (*db.Position, error) {
	if err := auth.RequireRole(session, db.RoleAdmin, db.RoleLeader); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if _, err := store.GetEvent(ctx, session.ChurchID, input.EventID); err != nil {
		return nil, storeError(logger, err, "failed to load event", apperr.NotFound("Event not found"))
	}
	if _, err := store.GetMinistry(ctx, session.ChurchID, input.MinistryID); err != nil {
		return nil, storeError(logger, err, "failed to load ministry", apperr.NotFound("Ministry not found"))
	}

	position := &db.Position{
		ID:             uuid.NewString(),
		EventID:        input.EventID,
		MinistryID:     input.MinistryID,
		RoleID:         input.RoleID,
		Title:          input.Title,
		QuantityNeeded: input.QuantityNeeded,
		SortOrder:      input.SortOrder,
	}

	if err := store.InsertPosition(ctx, position); err != nil {
		return nil, storeError(logger, err, "failed to create position", nil)
	}

	logger.Debug("Position created", zap.String("position_id", position.ID), zap.String("event_id", position.EventID))

	invalidator.Invalidate(ctx, cache.EventTag(position.EventID), cache.PositionTag(position.ID))

	return position, nil
}

// DeletePosition removes a position and its assignments
func DeletePosition(
	ctx context.Context,
	store PositionStore,
	invalidator cache.Invalidator,
	session *auth.Session,
	logger *zap.Logger,
	positionID string,
) error {
	if err := auth.RequireRole(session, db.RoleAdmin, db.RoleLeader); err != nil {
		return err
	}

	if err := store.DeletePosition(ctx, session.ChurchID, positionID); err != nil {
		return storeError(logger, err, "failed to delete position", apperr.NotFound("Position not found"))
	}

	logger.Debug("Position deleted", zap.String("position_id", positionID))

	invalidator.Invalidate(ctx, cache.PositionTag(positionID))

	return nil
}
