package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/church-ops/pkg/db"
)

const assignmentColumns = `a.id, a.position_id, a.profile_id, a.status, a.invited_at, a.responded_at, a.assigned_by, a.created_at`

// ministryRelation embeds the position's ministry as JSON so it decodes through db.Relation
const ministryRelation = `(
	SELECT json_build_object('id', m.id, 'churchID', m.church_id, 'name', m.name, 'leaderID', m.leader_id)
	FROM ministries m
	WHERE m.id = p.ministry_id
)`

// assignmentJoin selects an assignment with its position, event and embedded ministry
const assignmentJoin = `
	SELECT ` + assignmentColumns + `, ` + positionColumns + `, ` + eventColumns + `, ` + ministryRelation + `
	FROM assignments a
	JOIN positions p ON p.id = a.position_id
	JOIN events e ON e.id = p.event_id
`

func scanAssignmentJoin(row pgx.Row) (db.PendingAssignment, error) {
	var out db.PendingAssignment
	var status, assignedBy, ministryID, roleID *string
	var location, responsible, createdBy *string
	var ministry db.Relation[db.Ministry]

	a := &out.Assignment
	p := &out.Position
	e := &out.Event
	err := row.Scan(
		&a.ID, &a.PositionID, &a.ProfileID, &status, &a.InvitedAt, &a.RespondedAt, &assignedBy, &a.CreatedAt,
		&p.ID, &p.EventID, &ministryID, &roleID, &p.Title, &p.QuantityNeeded, &p.SortOrder,
		&e.ID, &e.ChurchID, &e.Title, &e.StartTime, &e.EndTime, &location, &responsible, &createdBy,
		&ministry,
	)
	if err != nil {
		return out, err
	}

	a.Status = db.AssignmentStatus(deref(status))
	a.AssignedBy = deref(assignedBy)
	p.MinistryID = deref(ministryID)
	p.RoleID = deref(roleID)
	e.Location = deref(location)
	e.ResponsiblePersonID = deref(responsible)
	e.CreatedBy = deref(createdBy)
	out.Ministry = ministry.Ptr()

	return out, nil
}

// InsertAssignment inserts an uninvited assignment.
// Returns db.ErrAlreadyAssigned if the profile already holds the position.
func (d *DB) InsertAssignment(ctx context.Context, a *db.Assignment) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO assignments (id, position_id, profile_id, status, assigned_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.PositionID, a.ProfileID, nullable(string(a.Status)), nullable(a.AssignedBy), a.CreatedAt)
	if isUniqueViolation(err) {
		return db.ErrAlreadyAssigned
	}
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

// DeleteAssignment deletes an assignment whose event belongs to the church
func (d *DB) DeleteAssignment(ctx context.Context, churchID, assignmentID string) error {
	tag, err := d.pool.Exec(ctx, `
		DELETE FROM assignments a
		USING positions p, events e
		WHERE a.id = $1 AND p.id = a.position_id AND e.id = p.event_id AND e.church_id = $2
	`, assignmentID, churchID)
	if err != nil {
		return fmt.Errorf("failed to delete assignment %s: %w", assignmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete assignment %s: %w", assignmentID, db.ErrNotFound)
	}
	return nil
}

// GetAssignmentDetail retrieves an assignment with its position, event and ministry
func (d *DB) GetAssignmentDetail(ctx context.Context, assignmentID string) (*db.AssignmentDetail, error) {
	row := d.pool.QueryRow(ctx, assignmentJoin+` WHERE a.id = $1`, assignmentID)

	joined, err := scanAssignmentJoin(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment %s: %w", assignmentID, notFound(err))
	}

	detail := db.AssignmentDetail(joined)
	return &detail, nil
}

// ListEventAssignments retrieves every assignment on any position of the event
func (d *DB) ListEventAssignments(ctx context.Context, eventID string) ([]db.EventAssignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT a.id, a.position_id, p.title, a.profile_id, a.status
		FROM assignments a
		JOIN positions p ON p.id = a.position_id
		WHERE p.event_id = $1
		ORDER BY p.sort_order, a.created_at
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.EventAssignment
	for rows.Next() {
		var ea db.EventAssignment
		var status *string
		if err := rows.Scan(&ea.AssignmentID, &ea.PositionID, &ea.PositionTitle, &ea.ProfileID, &status); err != nil {
			return nil, fmt.Errorf("failed to scan event assignment: %w", err)
		}
		ea.Status = db.AssignmentStatus(deref(status))
		assignments = append(assignments, ea)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event assignments: %w", err)
	}

	return assignments, nil
}

// pendingWhere builds the WHERE clause and arguments for a pending assignment filter
func pendingWhere(filter db.PendingFilter) (string, []any) {
	clauses := []string{"a.status IS NULL", "e.church_id = $1"}
	args := []any{filter.ChurchID}

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if len(filter.EventIDs) > 0 {
		add("e.id = ANY($%d)", filter.EventIDs)
	}
	if len(filter.MinistryIDs) > 0 {
		add("p.ministry_id = ANY($%d)", filter.MinistryIDs)
	}
	if len(filter.PositionIDs) > 0 {
		add("p.id = ANY($%d)", filter.PositionIDs)
	}
	if filter.StartFrom != nil {
		add("e.start_time >= $%d", *filter.StartFrom)
	}
	if filter.StartBefore != nil {
		add("e.start_time < $%d", *filter.StartBefore)
	}

	return strings.Join(clauses, " AND "), args
}

// ListPendingAssignments retrieves the not-yet-invited assignments matching the filter
func (d *DB) ListPendingAssignments(ctx context.Context, filter db.PendingFilter) ([]db.PendingAssignment, error) {
	where, args := pendingWhere(filter)

	rows, err := d.pool.Query(ctx, assignmentJoin+` WHERE `+where+` ORDER BY e.start_time, p.sort_order, a.created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending assignments: %w", err)
	}
	defer rows.Close()

	var pending []db.PendingAssignment
	for rows.Next() {
		pa, err := scanAssignmentJoin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending assignment: %w", err)
		}
		pending = append(pending, pa)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending assignments: %w", err)
	}

	return pending, nil
}

// MarkAssignmentsInvited moves the given uninvited assignments to invited in a single statement.
// Assignments invited concurrently by another sender are skipped; the updated ids are returned.
func (d *DB) MarkAssignmentsInvited(ctx context.Context, assignmentIDs []string, invitedAt time.Time) ([]string, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}

	rows, err := d.pool.Query(ctx, `
		UPDATE assignments
		SET status = 'invited', invited_at = $2
		WHERE id = ANY($1) AND status IS NULL
		RETURNING id
	`, assignmentIDs, invitedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to mark assignments invited: %w", err)
	}

	updated, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read invited assignment ids: %w", err)
	}

	return updated, nil
}

// SetAssignmentResponse records a response on an assignment that has already been invited.
// Returns db.ErrStatusChanged if the assignment is missing or was never invited.
func (d *DB) SetAssignmentResponse(ctx context.Context, assignmentID string, status db.AssignmentStatus, respondedAt time.Time) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE assignments
		SET status = $2, responded_at = $3
		WHERE id = $1 AND status IN ('invited', 'accepted', 'declined')
	`, assignmentID, string(status), respondedAt)
	if err != nil {
		return fmt.Errorf("failed to set assignment response: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrStatusChanged
	}
	return nil
}

// ListAcceptedProfiles retrieves the distinct profiles that accepted a position on the event
func (d *DB) ListAcceptedProfiles(ctx context.Context, eventID string) ([]db.Profile, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT DISTINCT `+profileColumns+`
		FROM assignments a
		JOIN positions p ON p.id = a.position_id
		JOIN profiles pr ON pr.id = a.profile_id
		WHERE p.event_id = $1 AND a.status = 'accepted'
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accepted profiles: %w", err)
	}
	defer rows.Close()

	var profiles []db.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan accepted profile: %w", err)
		}
		profiles = append(profiles, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accepted profiles: %w", err)
	}

	return profiles, nil
}
