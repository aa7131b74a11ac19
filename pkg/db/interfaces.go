package db

import (
	"context"
	"time"
)

// PendingFilter selects not-yet-invited assignments.
// Empty slices are not applied; ChurchID is always applied.
type PendingFilter struct {
	ChurchID    string
	EventIDs    []string
	MinistryIDs []string
	PositionIDs []string

	// StartFrom and StartBefore bound the event start time when set
	StartFrom   *time.Time
	StartBefore *time.Time
}

// IsEmpty reports whether the filter would select every pending assignment in the church
func (f PendingFilter) IsEmpty() bool {
	return len(f.EventIDs) == 0 && len(f.MinistryIDs) == 0 && len(f.PositionIDs) == 0 &&
		f.StartFrom == nil && f.StartBefore == nil
}

// EventStore defines event read operations
type EventStore interface {
	GetEvent(ctx context.Context, churchID, eventID string) (*Event, error)
	GetEventByID(ctx context.Context, eventID string) (*Event, error)
}

// PositionStore defines position operations
type PositionStore interface {
	GetPosition(ctx context.Context, churchID, positionID string) (*Position, error)
	ListPositions(ctx context.Context, churchID, eventID string) ([]Position, error)
	InsertPosition(ctx context.Context, position *Position) error
	DeletePosition(ctx context.Context, churchID, positionID string) error
}

// AssignmentStore defines assignment operations
type AssignmentStore interface {
	InsertAssignment(ctx context.Context, assignment *Assignment) error
	DeleteAssignment(ctx context.Context, churchID, assignmentID string) error
	GetAssignmentDetail(ctx context.Context, assignmentID string) (*AssignmentDetail, error)
	ListEventAssignments(ctx context.Context, eventID string) ([]EventAssignment, error)
	ListPendingAssignments(ctx context.Context, filter PendingFilter) ([]PendingAssignment, error)
	MarkAssignmentsInvited(ctx context.Context, assignmentIDs []string, invitedAt time.Time) ([]string, error)
	SetAssignmentResponse(ctx context.Context, assignmentID string, status AssignmentStatus, respondedAt time.Time) error
	ListAcceptedProfiles(ctx context.Context, eventID string) ([]Profile, error)
}

// MemberStore defines ministry membership and availability reads
type MemberStore interface {
	GetMinistry(ctx context.Context, churchID, ministryID string) (*Ministry, error)
	ListMinistryMembers(ctx context.Context, ministryID string) ([]MemberProfile, error)
	ListUnavailability(ctx context.Context, profileIDs []string) ([]VolunteerUnavailability, error)
	ListMinistryUnavailabilityOn(ctx context.Context, ministryID, date string) ([]VolunteerUnavailability, error)
	InsertUnavailability(ctx context.Context, unavailability *VolunteerUnavailability) error
}

// NotificationStore defines notification operations
type NotificationStore interface {
	InsertNotifications(ctx context.Context, notifications []Notification) error
	GetNotificationByToken(ctx context.Context, token string) (*Notification, error)
	MarkNotificationActioned(ctx context.Context, assignmentID, recipientID, action string) error
}

// ProfileStore defines profile reads
type ProfileStore interface {
	GetProfile(ctx context.Context, profileID string) (*Profile, error)
	GetProfileByUserID(ctx context.Context, userID string) (*Profile, error)
}

// Database defines the interface for all database operations.
// postgres.DB implements this interface.
type Database interface {
	EventStore
	PositionStore
	AssignmentStore
	MemberStore
	NotificationStore
	ProfileStore
}
