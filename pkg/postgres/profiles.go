package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/church-ops/pkg/db"
)

const profileColumns = `pr.id, pr.user_id, pr.church_id, pr.first_name, pr.last_name, pr.email, pr.role,
	pr.receive_email_notifications, pr.language, pr.notification_preferences`

func scanProfile(row pgx.Row) (*db.Profile, error) {
	var p db.Profile
	var email *string
	var role string
	var prefs []byte
	if err := row.Scan(&p.ID, &p.UserID, &p.ChurchID, &p.FirstName, &p.LastName, &email, &role,
		&p.ReceiveEmailNotifications, &p.Language, &prefs); err != nil {
		return nil, err
	}
	p.Email = deref(email)
	p.Role = db.ChurchRole(role)

	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &p.NotificationPreferences); err != nil {
			return nil, fmt.Errorf("failed to decode notification preferences for profile %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

// GetProfile retrieves a profile by id
func (d *DB) GetProfile(ctx context.Context, profileID string) (*db.Profile, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles pr WHERE pr.id = $1`, profileID)

	profile, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", profileID, notFound(err))
	}
	return profile, nil
}

// GetProfileByUserID retrieves the profile belonging to an authenticated user
func (d *DB) GetProfileByUserID(ctx context.Context, userID string) (*db.Profile, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles pr WHERE pr.user_id = $1`, userID)

	profile, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, notFound(err))
	}
	return profile, nil
}
