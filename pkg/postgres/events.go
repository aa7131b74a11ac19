package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/church-ops/pkg/db"
)

const eventColumns = `e.id, e.church_id, e.title, e.start_time, e.end_time, e.location, e.responsible_person_id, e.created_by`

func scanEvent(row pgx.Row) (*db.Event, error) {
	var e db.Event
	var location, responsible, createdBy *string
	if err := row.Scan(&e.ID, &e.ChurchID, &e.Title, &e.StartTime, &e.EndTime, &location, &responsible, &createdBy); err != nil {
		return nil, err
	}
	e.Location = deref(location)
	e.ResponsiblePersonID = deref(responsible)
	e.CreatedBy = deref(createdBy)
	return &e, nil
}

// GetEvent retrieves an event within a church
func (d *DB) GetEvent(ctx context.Context, churchID, eventID string) (*db.Event, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		WHERE e.id = $1 AND e.church_id = $2
	`, eventID, churchID)

	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, notFound(err))
	}
	return event, nil
}

// GetEventByID retrieves an event without tenant scoping, for background jobs such as calendar sync
func (d *DB) GetEventByID(ctx context.Context, eventID string) (*db.Event, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		WHERE e.id = $1
	`, eventID)

	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, notFound(err))
	}
	return event, nil
}
