package services

import (
	"context"
	"errors"
	"slices"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/church-ops/pkg/core/apperr"
	"github.com/jakechorley/church-ops/pkg/core/auth"
	"github.com/jakechorley/church-ops/pkg/db"
)

// EligibleVolunteer is a ministry member who can fill a position, with booking warnings
type EligibleVolunteer struct {
	ProfileID string   `json:"profile_id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email,omitempty"`
	RoleIDs   []string `json:"role_ids"`

	IsUnavailable     bool   `json:"is_unavailable"`
	UnavailableReason string `json:"unavailable_reason,omitempty"`

	// IsAlreadyAssigned is set when the person holds another position on the same event.
	// It is a warning, not a block.
	IsAlreadyAssigned bool     `json:"is_already_assigned"`
	AssignedPositions []string `json:"assigned_positions"`
}

// EligibilityStore defines the database operations needed to resolve eligible volunteers
type EligibilityStore interface {
	GetPosition(ctx context.Context, churchID, positionID string) (*db.Position, error)
	GetEvent(ctx context.Context, churchID, eventID string) (*db.Event, error)
	ListMinistryMembers(ctx context.Context, ministryID string) ([]db.MemberProfile, error)
	ListEventAssignments(ctx context.Context, eventID string) ([]db.EventAssignment, error)
	ListMinistryUnavailabilityOn(ctx context.Context, ministryID, date string) ([]db.VolunteerUnavailability, error)
}

// GetEligibleVolunteers returns the active members of the position's ministry who hold its required role
// and are not already assigned to it. Available people come first, then those booked elsewhere on the
// same event; unavailable people come last.
func GetEligibleVolunteers(
	ctx context.Context,
	store EligibilityStore,
	session *auth.Session,
	logger *zap.Logger,
	positionID string,
) ([]EligibleVolunteer, error) {
	if err := auth.RequireRole(session, db.RoleAdmin, db.RoleLeader); err != nil {
		return nil, err
	}

	logger.Debug("Resolving eligible volunteers", zap.String("position_id", positionID))

	position, err := store.GetPosition(ctx, session.ChurchID, positionID)
	if err != nil {
		return nil, storeError(logger, err, "failed to load position", apperr.NotFound("Position not found"))
	}

	event, err := store.GetEvent(ctx, session.ChurchID, position.EventID)
	if err != nil {
		return nil, storeError(logger, err, "failed to load event", apperr.NotFound("Event not found"))
	}

	if position.MinistryID == "" {
		logger.Debug("Position has no ministry", zap.String("position_id", positionID))
		return []EligibleVolunteer{}, nil
	}

	eventDate := event.Date()

	var (
		members     []db.MemberProfile
		assignments []db.EventAssignment
		unavailable []db.VolunteerUnavailability
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = store.ListMinistryMembers(gctx, position.MinistryID)
		return err
	})
	g.Go(func() error {
		var err error
		assignments, err = store.ListEventAssignments(gctx, event.ID)
		return err
	})
	g.Go(func() error {
		var err error
		unavailable, err = store.ListMinistryUnavailabilityOn(gctx, position.MinistryID, eventDate)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(logger, err, "failed to load eligibility data", nil)
	}

	logger.Debug("Loaded eligibility data",
		zap.Int("members", len(members)),
		zap.Int("event_assignments", len(assignments)),
		zap.Int("unavailability_ranges", len(unavailable)))

	result := resolveEligibility(position, eventDate, members, assignments, unavailable)

	logger.Debug("Resolved eligible volunteers", zap.Int("count", len(result)))

	return result, nil
}

// resolveEligibility filters and annotates members for a position, preserving member order on ties
func resolveEligibility(
	position *db.Position,
	eventDate string,
	members []db.MemberProfile,
	assignments []db.EventAssignment,
	unavailable []db.VolunteerUnavailability,
) []EligibleVolunteer {
	onThisPosition := make(map[string]bool)
	elsewhere := make(map[string][]string)
	for _, a := range assignments {
		if a.PositionID == position.ID {
			onThisPosition[a.ProfileID] = true
			continue
		}
		elsewhere[a.ProfileID] = append(elsewhere[a.ProfileID], a.PositionTitle)
	}

	unavailableReason := make(map[string]string)
	for _, u := range unavailable {
		if !u.Covers(eventDate) {
			continue
		}
		if _, seen := unavailableReason[u.ProfileID]; !seen {
			unavailableReason[u.ProfileID] = u.Reason
		}
	}

	result := make([]EligibleVolunteer, 0, len(members))
	for _, m := range members {
		if !m.Member.IsActive {
			continue
		}
		if position.RoleID != "" && !slices.Contains(m.Member.RoleIDs, position.RoleID) {
			continue
		}
		if onThisPosition[m.Profile.ID] {
			continue
		}

		v := EligibleVolunteer{
			ProfileID:         m.Profile.ID,
			FirstName:         m.Profile.FirstName,
			LastName:          m.Profile.LastName,
			Email:             m.Profile.Email,
			RoleIDs:           m.Member.RoleIDs,
			AssignedPositions: elsewhere[m.Profile.ID],
		}
		if v.RoleIDs == nil {
			v.RoleIDs = []string{}
		}
		if v.AssignedPositions == nil {
			v.AssignedPositions = []string{}
		}
		v.IsAlreadyAssigned = len(v.AssignedPositions) > 0
		if reason, ok := unavailableReason[m.Profile.ID]; ok {
			v.IsUnavailable = true
			v.UnavailableReason = reason
		}

		result = append(result, v)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.IsUnavailable != b.IsUnavailable {
			return !a.IsUnavailable
		}
		return !a.IsAlreadyAssigned && b.IsAlreadyAssigned
	})

	return result
}

// storeError maps a store failure to an application error.
// db.ErrNotFound becomes notFound when given; anything else is logged and reported generically.
func storeError(logger *zap.Logger, err error, operation string, notFound *apperr.Error) error {
	if notFound != nil && errors.Is(err, db.ErrNotFound) {
		return notFound
	}
	logger.Error(operation, zap.Error(err))
	return apperr.Store(err, operation)
}
