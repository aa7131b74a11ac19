package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/church-ops/pkg/db"
)

const positionColumns = `p.id, p.event_id, p.ministry_id, p.role_id, p.title, p.quantity_needed, p.sort_order`

func scanPosition(row pgx.Row) (*db.Position, error) {
	var p db.Position
	var ministryID, roleID *string
	if err := row.Scan(&p.ID, &p.EventID, &ministryID, &roleID, &p.Title, &p.QuantityNeeded, &p.SortOrder); err != nil {
		return nil, err
	}
	p.MinistryID = deref(ministryID)
	p.RoleID = deref(roleID)
	return &p, nil
}

// GetPosition retrieves a position whose event belongs to the church
func (d *DB) GetPosition(ctx context.Context, churchID, positionID string) (*db.Position, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+positionColumns+`
		FROM positions p
		JOIN events e ON e.id = p.event_id
		WHERE p.id = $1 AND e.church_id = $2
	`, positionID, churchID)

	position, err := scanPosition(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get position %s: %w", positionID, notFound(err))
	}
	return position, nil
}

// ListPositions retrieves the positions of an event in display order
func (d *DB) ListPositions(ctx context.Context, churchID, eventID string) ([]db.Position, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+positionColumns+`
		FROM positions p
		JOIN events e ON e.id = p.event_id
		WHERE p.event_id = $1 AND e.church_id = $2
		ORDER BY p.sort_order, p.title
	`, eventID, churchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []db.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// InsertPosition inserts a position record
func (d *DB) InsertPosition(ctx context.Context, p *db.Position) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO positions (id, event_id, ministry_id, role_id, title, quantity_needed, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.EventID, nullable(p.MinistryID), nullable(p.RoleID), p.Title, p.QuantityNeeded, p.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}
	return nil
}

// DeletePosition deletes a position (and, by cascade, its assignments)
func (d *DB) DeletePosition(ctx context.Context, churchID, positionID string) error {
	tag, err := d.pool.Exec(ctx, `
		DELETE FROM positions p
		USING events e
		WHERE p.id = $1 AND e.id = p.event_id AND e.church_id = $2
	`, positionID, churchID)
	if err != nil {
		return fmt.Errorf("failed to delete position %s: %w", positionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete position %s: %w", positionID, db.ErrNotFound)
	}
	return nil
}
