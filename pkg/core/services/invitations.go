package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/church-ops/pkg/cache"
	"github.com/jakechorley/church-ops/pkg/core/apperr"
	"github.com/jakechorley/church-ops/pkg/core/auth"
	"github.com/jakechorley/church-ops/pkg/core/notify"
	"github.com/jakechorley/church-ops/pkg/db"
)

// InvitationResult reports how many assignments were invited
type InvitationResult struct {
	InvitedCount int `json:"invited_count"`
}

// InvitationStore defines the database operations needed to send invitations
type InvitationStore interface {
	ListPendingAssignments(ctx context.Context, filter db.PendingFilter) ([]db.PendingAssignment, error)
	MarkAssignmentsInvited(ctx context.Context, assignmentIDs []string, invitedAt time.Time) ([]string, error)
	InsertNotifications(ctx context.Context, notifications []db.Notification) error
	GetProfile(ctx context.Context, profileID string) (*db.Profile, error)
}

// SendInvitations invites every uninvited assignment of one event matching the scope.
// Returns apperr.ErrNoPendingAssignments when nothing is left to invite.
func SendInvitations(
	ctx context.Context,
	store InvitationStore,
	notifier Notifier,
	session *auth.Session,
	logger *zap.Logger,
	scope Scope,
) (*InvitationResult, error) {
	if err := auth.RequireRole(session, db.RoleAdmin, db.RoleLeader); err != nil {
		return nil, err
	}

	logger.Debug("Starting sendInvitations",
		zap.String("event_id", scope.EventID),
		zap.String("scope", string(scope.Type)))

	filter, err := scope.filter(session.ChurchID)
	if err != nil {
		return nil, err
	}

	pending, err := store.ListPendingAssignments(ctx, filter)
	if err != nil {
		return nil, storeError(logger, err, "failed to load pending assignments", nil)
	}

	return invitePending(ctx, store, notifier.withDefaults(), session, logger, pending)
}

// SendBulkInvitations invites every uninvited assignment across the given events matching the scope
func SendBulkInvitations(
	ctx context.Context,
	store InvitationStore,
	notifier Notifier,
	session *auth.Session,
	logger *zap.Logger,
	scope BulkScope,
) (*InvitationResult, error) {
	if err := auth.RequireRole(session, db.RoleAdmin, db.RoleLeader); err != nil {
		return nil, err
	}

	logger.Debug("Starting sendBulkInvitations",
		zap.Int("events", len(scope.EventIDs)),
		zap.String("scope", string(scope.Type)))

	filter, err := scope.filter(session.ChurchID)
	if err != nil {
		return nil, err
	}

	pending, err := store.ListPendingAssignments(ctx, filter)
	if err != nil {
		return nil, storeError(logger, err, "failed to load pending assignments", nil)
	}

	pending = scope.matchesDates(pending)

	return invitePending(ctx, store, notifier.withDefaults(), session, logger, pending)
}

// invitePending moves pending assignments to invited, records one notification per assignment and
// dispatches email and push delivery in the background
func invitePending(
	ctx context.Context,
	store InvitationStore,
	notifier Notifier,
	session *auth.Session,
	logger *zap.Logger,
	pending []db.PendingAssignment,
) (*InvitationResult, error) {
	if len(pending) == 0 {
		return nil, apperr.ErrNoPendingAssignments
	}

	byID := make(map[string]db.PendingAssignment, len(pending))
	ids := make([]string, 0, len(pending))
	for _, pa := range pending {
		byID[pa.Assignment.ID] = pa
		ids = append(ids, pa.Assignment.ID)
	}

	now := time.Now().UTC()
	updated, err := store.MarkAssignmentsInvited(ctx, ids, now)
	if err != nil {
		return nil, storeError(logger, err, "failed to mark assignments invited", nil)
	}
	if len(updated) == 0 {
		// Another sender invited them between the read and the update
		return nil, apperr.ErrNoPendingAssignments
	}

	logger.Debug("Assignments marked invited", zap.Int("matched", len(ids)), zap.Int("updated", len(updated)))

	invited := make([]db.PendingAssignment, 0, len(updated))
	notifications := make([]db.Notification, 0, len(updated))
	for _, id := range updated {
		pa, ok := byID[id]
		if !ok {
			continue
		}
		n, err := invitationNotification(pa, now)
		if err != nil {
			return nil, storeError(logger, err, "failed to build invitation", nil)
		}
		invited = append(invited, pa)
		notifications = append(notifications, n)
	}

	tags := invitationTags(invited)

	if err := store.InsertNotifications(ctx, notifications); err != nil {
		// The status change is authoritative; these invitations go out without notifications
		logger.Error("Failed to insert invitation notifications",
			zap.Int("count", len(notifications)),
			zap.Error(err))
		notifier.Cache.Invalidate(ctx, tags...)
		return &InvitationResult{InvitedCount: len(updated)}, nil
	}

	for i := range notifications {
		n := notifications[i]
		details := invitationDetails(invited[i])
		notifier.Dispatcher.Go(ctx, "invitation:"+n.AssignmentID, func(ctx context.Context) error {
			return deliverInvitation(ctx, store, notifier, logger, n, details)
		})
	}

	notifier.Cache.Invalidate(ctx, tags...)

	logger.Debug("Invitations sent", zap.Int("invited_count", len(updated)))

	return &InvitationResult{InvitedCount: len(updated)}, nil
}

func invitationDetails(pa db.PendingAssignment) notify.InvitationDetails {
	d := notify.InvitationDetails{PositionTitle: pa.Position.Title, Event: pa.Event}
	if pa.Ministry != nil {
		d.MinistryName = pa.Ministry.Name
	}
	return d
}

// invitationNotification builds the in-app notification for an invited assignment.
// It expires when the event starts.
func invitationNotification(pa db.PendingAssignment, now time.Time) (db.Notification, error) {
	token, err := newEmailToken()
	if err != nil {
		return db.Notification{}, err
	}

	details := invitationDetails(pa)
	expiresAt := pa.Event.StartTime

	return db.Notification{
		ID:           uuid.NewString(),
		ChurchID:     pa.Event.ChurchID,
		RecipientID:  pa.Assignment.ProfileID,
		Type:         db.NotificationPositionInvitation,
		Title:        notify.InvitationTitle(details),
		Message:      notify.InvitationMessage(details),
		EventID:      pa.Event.ID,
		AssignmentID: pa.Assignment.ID,
		EmailToken:   token,
		ExpiresAt:    &expiresAt,
		CreatedAt:    now,
	}, nil
}

// deliverInvitation emails and pushes one invitation. Email needs the recipient's
// opt-in and an address; push is always attempted.
func deliverInvitation(
	ctx context.Context,
	store InvitationStore,
	notifier Notifier,
	logger *zap.Logger,
	n db.Notification,
	details notify.InvitationDetails,
) error {
	recipient, err := store.GetProfile(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to load recipient %s: %w", n.RecipientID, err)
	}

	if notifier.Email != nil && recipient.ReceiveEmailNotifications && recipient.Email != "" {
		subject, body := notify.InvitationEmail(recipient, details, notifier.BaseURL, n.EmailToken)
		if err := notifier.Email.SendEmail(recipient.Email, subject, body); err != nil {
			logger.Warn("Failed to send invitation email",
				zap.String("assignment_id", n.AssignmentID),
				zap.String("recipient_id", recipient.ID),
				zap.Error(err))
		}
	}

	msg := notify.PushMessage{
		Title: n.Title,
		Body:  n.Message,
		Data: map[string]string{
			"type":          string(n.Type),
			"assignment_id": n.AssignmentID,
			"event_id":      n.EventID,
		},
	}
	if err := notifier.Push.SendToUser(ctx, recipient.UserID, msg); err != nil {
		return fmt.Errorf("failed to push invitation to %s: %w", recipient.ID, err)
	}

	return nil
}

// invitationTags lists the cache entries touched by sending invitations
func invitationTags(invited []db.PendingAssignment) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	for _, pa := range invited {
		add(cache.EventTag(pa.Event.ID))
		add(cache.AssignmentTag(pa.Assignment.ID))
		add(cache.NotificationsTag(pa.Assignment.ProfileID))
	}
	return tags
}
