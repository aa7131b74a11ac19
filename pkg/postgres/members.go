package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/church-ops/pkg/db"
)

// GetMinistry retrieves a ministry within a church
func (d *DB) GetMinistry(ctx context.Context, churchID, ministryID string) (*db.Ministry, error) {
	var m db.Ministry
	var leaderID *string
	err := d.pool.QueryRow(ctx, `
		SELECT id, church_id, name, leader_id
		FROM ministries
		WHERE id = $1 AND church_id = $2
	`, ministryID, churchID).Scan(&m.ID, &m.ChurchID, &m.Name, &leaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ministry %s: %w", ministryID, notFound(err))
	}
	m.LeaderID = deref(leaderID)
	return &m, nil
}

// ListMinistryMembers retrieves the active members of a ministry with their profiles,
// ordered by last name then first name
func (d *DB) ListMinistryMembers(ctx context.Context, ministryID string) ([]db.MemberProfile, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT mm.id, mm.ministry_id, mm.profile_id, mm.role_ids, mm.is_active, `+profileColumns+`
		FROM ministry_members mm
		JOIN profiles pr ON pr.id = mm.profile_id
		WHERE mm.ministry_id = $1 AND mm.is_active
		ORDER BY pr.last_name, pr.first_name
	`, ministryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ministry members: %w", err)
	}
	defer rows.Close()

	var members []db.MemberProfile
	for rows.Next() {
		var mp db.MemberProfile
		var email *string
		var role string
		var prefs []byte
		m := &mp.Member
		p := &mp.Profile
		if err := rows.Scan(&m.ID, &m.MinistryID, &m.ProfileID, &m.RoleIDs, &m.IsActive,
			&p.ID, &p.UserID, &p.ChurchID, &p.FirstName, &p.LastName, &email, &role,
			&p.ReceiveEmailNotifications, &p.Language, &prefs); err != nil {
			return nil, fmt.Errorf("failed to scan ministry member: %w", err)
		}
		p.Email = deref(email)
		p.Role = db.ChurchRole(role)
		members = append(members, mp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ministry members: %w", err)
	}

	return members, nil
}

// ListUnavailability retrieves the unavailability ranges of the given profiles
func (d *DB) ListUnavailability(ctx context.Context, profileIDs []string) ([]db.VolunteerUnavailability, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id, profile_id, to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'), reason
		FROM volunteer_unavailability
		WHERE profile_id = ANY($1)
		ORDER BY start_date
	`, profileIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query unavailability: %w", err)
	}
	defer rows.Close()

	return scanUnavailability(rows)
}

// ListMinistryUnavailabilityOn retrieves the ranges of the ministry's members that cover a 2006-01-02 date
func (d *DB) ListMinistryUnavailabilityOn(ctx context.Context, ministryID, date string) ([]db.VolunteerUnavailability, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT vu.id, vu.profile_id, to_char(vu.start_date, 'YYYY-MM-DD'), to_char(vu.end_date, 'YYYY-MM-DD'), vu.reason
		FROM volunteer_unavailability vu
		JOIN ministry_members mm ON mm.profile_id = vu.profile_id
		WHERE mm.ministry_id = $1 AND vu.start_date <= $2::date AND vu.end_date >= $2::date
		ORDER BY vu.start_date
	`, ministryID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query ministry unavailability: %w", err)
	}
	defer rows.Close()

	return scanUnavailability(rows)
}

func scanUnavailability(rows pgx.Rows) ([]db.VolunteerUnavailability, error) {
	var ranges []db.VolunteerUnavailability
	for rows.Next() {
		var u db.VolunteerUnavailability
		var reason *string
		if err := rows.Scan(&u.ID, &u.ProfileID, &u.StartDate, &u.EndDate, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan unavailability: %w", err)
		}
		u.Reason = deref(reason)
		ranges = append(ranges, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unavailability: %w", err)
	}

	return ranges, nil
}

// InsertUnavailability inserts an unavailability range
func (d *DB) InsertUnavailability(ctx context.Context, u *db.VolunteerUnavailability) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO volunteer_unavailability (id, profile_id, start_date, end_date, reason)
		VALUES ($1, $2, $3::date, $4::date, $5)
	`, u.ID, u.ProfileID, u.StartDate, u.EndDate, nullable(u.Reason))
	if err != nil {
		return fmt.Errorf("failed to insert unavailability: %w", err)
	}
	return nil
}
