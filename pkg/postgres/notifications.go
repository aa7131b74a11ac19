package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/church-ops/pkg/db"
)

// InsertNotifications inserts notification rows in one batch
func (d *DB) InsertNotifications(ctx context.Context, notifications []db.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range notifications {
		batch.Queue(`
			INSERT INTO notifications (id, church_id, recipient_id, type, title, message, event_id,
				assignment_id, email_token, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, n.ID, n.ChurchID, n.RecipientID, string(n.Type), n.Title, n.Message, nullable(n.EventID),
			nullable(n.AssignmentID), nullable(n.EmailToken), n.ExpiresAt, n.CreatedAt)
	}

	if err := d.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert notifications: %w", err)
	}
	return nil
}

// GetNotificationByToken retrieves the notification carrying an email response token
func (d *DB) GetNotificationByToken(ctx context.Context, token string) (*db.Notification, error) {
	var n db.Notification
	var notificationType string
	var eventID, assignmentID, emailToken, actionTaken *string
	err := d.pool.QueryRow(ctx, `
		SELECT id, church_id, recipient_id, type, title, message, event_id, assignment_id,
			email_token, expires_at, is_read, is_actioned, action_taken, created_at
		FROM notifications
		WHERE email_token = $1
	`, token).Scan(&n.ID, &n.ChurchID, &n.RecipientID, &notificationType, &n.Title, &n.Message,
		&eventID, &assignmentID, &emailToken, &n.ExpiresAt, &n.IsRead, &n.IsActioned, &actionTaken, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification by token: %w", notFound(err))
	}

	n.Type = db.NotificationType(notificationType)
	n.EventID = deref(eventID)
	n.AssignmentID = deref(assignmentID)
	n.EmailToken = deref(emailToken)
	n.ActionTaken = deref(actionTaken)
	return &n, nil
}

// MarkNotificationActioned records the response on the invitation notifications for an assignment
func (d *DB) MarkNotificationActioned(ctx context.Context, assignmentID, recipientID, action string) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE notifications
		SET is_actioned = TRUE, action_taken = $3, is_read = TRUE
		WHERE assignment_id = $1 AND recipient_id = $2 AND type = $4
	`, assignmentID, recipientID, action, string(db.NotificationPositionInvitation))
	if err != nil {
		return fmt.Errorf("failed to mark notification actioned: %w", err)
	}
	return nil
}
