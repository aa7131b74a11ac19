package services

import (
	"context"
	"errors"
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

// ResponseResult is the recorded response on an assignment
type ResponseResult struct {
	AssignmentID string              `json:"assignment_id"`
	Status       db.AssignmentStatus `json:"status"`
	RespondedAt  time.Time           `json:"responded_at"`
}

// ResponseStore defines the database operations needed to record invitation responses
type ResponseStore interface {
	GetAssignmentDetail(ctx context.Context, assignmentID string) (*db.AssignmentDetail, error)
	SetAssignmentResponse(ctx context.Context, assignmentID string, status db.AssignmentStatus, respondedAt time.Time) error
	GetNotificationByToken(ctx context.Context, token string) (*db.Notification, error)
	MarkNotificationActioned(ctx context.Context, assignmentID, recipientID, action string) error
	InsertNotifications(ctx context.Context, notifications []db.Notification) error
	GetProfile(ctx context.Context, profileID string) (*db.Profile, error)
}

// RespondToInvitation records the caller's accept or decline on their own invited assignment.
// A response may be changed any number of times once the assignment has been invited.
func RespondToInvitation(
	ctx context.Context,
	store ResponseStore,
	notifier Notifier,
	session *auth.Session,
	logger *zap.Logger,
	assignmentID string,
	response db.AssignmentStatus,
) (*ResponseResult, error) {
	if err := auth.RequireSession(session); err != nil {
		return nil, err
	}

	logger.Debug("Starting respondToInvitation",
		zap.String("assignment_id", assignmentID),
		zap.String("response", string(response)))

	return respond(ctx, store, notifier.withDefaults(), logger, session.ChurchID, session.ProfileID, assignmentID, response)
}

// RespondByEmailToken records a response from a one-time email link. The token identifies the
// responder, so no session is needed; a token stops working once used or after the event starts.
func RespondByEmailToken(
	ctx context.Context,
	store ResponseStore,
	notifier Notifier,
	logger *zap.Logger,
	token string,
	action string,
) (*ResponseResult, error) {
	response, err := parseEmailAction(action)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, apperr.Validation("token is required")
	}

	n, err := store.GetNotificationByToken(ctx, token)
	if err != nil {
		return nil, storeError(logger, err, "failed to load notification", apperr.NotFound("This link is not valid"))
	}

	if n.Type != db.NotificationPositionInvitation || n.AssignmentID == "" {
		return nil, apperr.NotFound("This link is not valid")
	}
	if n.IsActioned {
		return nil, apperr.InvalidState("This link has already been used")
	}
	if n.ExpiresAt != nil && time.Now().After(*n.ExpiresAt) {
		return nil, apperr.InvalidState("This invitation has expired")
	}

	logger.Debug("Responding by email token",
		zap.String("assignment_id", n.AssignmentID),
		zap.String("response", string(response)))

	return respond(ctx, store, notifier.withDefaults(), logger, n.ChurchID, n.RecipientID, n.AssignmentID, response)
}

func parseEmailAction(action string) (db.AssignmentStatus, error) {
	switch action {
	case "accept":
		return db.StatusAccepted, nil
	case "decline":
		return db.StatusDeclined, nil
	}
	return "", apperr.Validation("action must be accept or decline")
}

func respond(
	ctx context.Context,
	store ResponseStore,
	notifier Notifier,
	logger *zap.Logger,
	churchID string,
	responderID string,
	assignmentID string,
	response db.AssignmentStatus,
) (*ResponseResult, error) {
	if response != db.StatusAccepted && response != db.StatusDeclined {
		return nil, apperr.Validation("response must be accepted or declined")
	}

	detail, err := store.GetAssignmentDetail(ctx, assignmentID)
	if err != nil {
		return nil, storeError(logger, err, "failed to load assignment", apperr.NotFound("Assignment not found"))
	}
	if detail.Event.ChurchID != churchID {
		return nil, apperr.NotFound("Assignment not found")
	}
	if detail.Assignment.ProfileID != responderID {
		return nil, apperr.Forbidden("You can only respond to your own invitations")
	}
	if !detail.Assignment.Status.HasBeenInvited() {
		return nil, apperr.ErrInvalidState
	}

	now := time.Now().UTC()
	if err := store.SetAssignmentResponse(ctx, assignmentID, response, now); err != nil {
		if errors.Is(err, db.ErrStatusChanged) {
			return nil, apperr.ErrInvalidState
		}
		return nil, storeError(logger, err, "failed to record response", nil)
	}

	logger.Debug("Response recorded",
		zap.String("assignment_id", assignmentID),
		zap.String("previous_status", string(detail.Assignment.Status)),
		zap.String("status", string(response)))

	if err := store.MarkNotificationActioned(ctx, assignmentID, responderID, string(response)); err != nil {
		logger.Warn("Failed to mark invitation notification actioned",
			zap.String("assignment_id", assignmentID),
			zap.Error(err))
	}

	d := *detail
	d.Assignment.Status = response
	d.Assignment.RespondedAt = &now

	notifier.Dispatcher.Go(ctx, "response-notify:"+assignmentID, func(ctx context.Context) error {
		return notifyStakeholders(ctx, store, notifier, logger, d)
	})
	notifier.Dispatcher.Go(ctx, "calendar-sync:"+d.Event.ID, func(ctx context.Context) error {
		return notifier.Calendar.SyncEvent(ctx, d.Event.ID)
	})

	notifier.Cache.Invalidate(ctx,
		cache.EventTag(d.Event.ID),
		cache.AssignmentTag(assignmentID),
		cache.NotificationsTag(responderID))

	return &ResponseResult{AssignmentID: assignmentID, Status: response, RespondedAt: now}, nil
}

// stakeholders returns the ministry leader and event responsible person, deduplicated,
// excluding the responder
func stakeholders(d db.AssignmentDetail) []string {
	var ids []string
	if d.Ministry != nil && d.Ministry.LeaderID != "" {
		ids = append(ids, d.Ministry.LeaderID)
	}
	if rp := d.Event.ResponsiblePersonID; rp != "" && (len(ids) == 0 || ids[0] != rp) {
		ids = append(ids, rp)
	}

	out := ids[:0]
	for _, id := range ids {
		if id != d.Assignment.ProfileID {
			out = append(out, id)
		}
	}
	return out
}

// notifyStakeholders tells the leader and responsible person about a response on each channel
// their preferences allow
func notifyStakeholders(
	ctx context.Context,
	store ResponseStore,
	notifier Notifier,
	logger *zap.Logger,
	d db.AssignmentDetail,
) error {
	recipients := stakeholders(d)
	if len(recipients) == 0 {
		return nil
	}

	volunteer, err := store.GetProfile(ctx, d.Assignment.ProfileID)
	if err != nil {
		return fmt.Errorf("failed to load volunteer %s: %w", d.Assignment.ProfileID, err)
	}

	details := notify.ResponseDetails{
		VolunteerName: volunteer.FullName(),
		PositionTitle: d.Position.Title,
		Event:         d.Event,
		Status:        d.Assignment.Status,
	}
	key := notify.ResponseKey(d.Assignment.Status)
	title := notify.ResponseTitle(details)
	message := notify.ResponseMessage(details)

	var inApp []db.Notification
	for _, id := range recipients {
		recipient, err := store.GetProfile(ctx, id)
		if err != nil {
			logger.Warn("Failed to load response recipient", zap.String("recipient_id", id), zap.Error(err))
			continue
		}
		prefs := recipient.NotificationPreferences

		if notify.ShouldNotify(prefs, key, notify.ChannelInApp) {
			inApp = append(inApp, db.Notification{
				ID:           uuid.NewString(),
				ChurchID:     d.Event.ChurchID,
				RecipientID:  recipient.ID,
				Type:         notify.ResponseNotificationType(d.Assignment.Status),
				Title:        title,
				Message:      message,
				EventID:      d.Event.ID,
				AssignmentID: d.Assignment.ID,
				CreatedAt:    time.Now().UTC(),
			})
		}

		if notifier.Email != nil && notify.CanEmail(recipient, key) {
			if err := notifier.Email.SendEmail(recipient.Email, title, message); err != nil {
				logger.Warn("Failed to email response notification",
					zap.String("recipient_id", recipient.ID),
					zap.Error(err))
			}
		}

		if notify.ShouldNotify(prefs, key, notify.ChannelPush) {
			msg := notify.PushMessage{
				Title: title,
				Body:  message,
				Data: map[string]string{
					"type":          string(notify.ResponseNotificationType(d.Assignment.Status)),
					"assignment_id": d.Assignment.ID,
					"event_id":      d.Event.ID,
				},
			}
			if err := notifier.Push.SendToUser(ctx, recipient.UserID, msg); err != nil {
				logger.Warn("Failed to push response notification",
					zap.String("recipient_id", recipient.ID),
					zap.Error(err))
			}
		}
	}

	if err := store.InsertNotifications(ctx, inApp); err != nil {
		return fmt.Errorf("failed to insert response notifications: %w", err)
	}

	tags := make([]string, 0, len(inApp))
	for _, n := range inApp {
		tags = append(tags, cache.NotificationsTag(n.RecipientID))
	}
	if len(tags) > 0 {
		notifier.Cache.Invalidate(ctx, tags...)
	}

	return nil
}
