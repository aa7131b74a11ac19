package db

import "time"

// ChurchRole is a profile's role within its church
type ChurchRole string

const (
	RoleAdmin     ChurchRole = "admin"
	RoleLeader    ChurchRole = "leader"
	RoleVolunteer ChurchRole = "volunteer"
	RoleMember    ChurchRole = "member"
)

func (r ChurchRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleLeader, RoleVolunteer, RoleMember:
		return true
	}
	return false
}

// AssignmentStatus is the invitation state of an assignment.
// The zero value is an assignment that has not been invited yet (NULL in the database).
type AssignmentStatus string

const (
	StatusAssigned AssignmentStatus = ""
	StatusInvited  AssignmentStatus = "invited"
	StatusAccepted AssignmentStatus = "accepted"
	StatusDeclined AssignmentStatus = "declined"
)

// HasBeenInvited reports whether a response may be recorded for this status
func (s AssignmentStatus) HasBeenInvited() bool {
	return s == StatusInvited || s == StatusAccepted || s == StatusDeclined
}

// Event represents a scheduled church event
type Event struct {
	ID                  string
	ChurchID            string
	Title               string
	StartTime           time.Time
	EndTime             *time.Time
	Location            string
	ResponsiblePersonID string // empty if nobody is responsible
	CreatedBy           string
}

// Date returns the calendar date of the event start (UTC) in 2006-01-02 format
func (e Event) Date() string {
	return CalendarDate(e.StartTime)
}

// Ministry represents a ministry team within a church
type Ministry struct {
	ID       string
	ChurchID string
	Name     string
	LeaderID string // empty if the ministry has no leader
}

// Position is a slot on an event that a ministry needs to staff
type Position struct {
	ID             string `json:"id"`
	EventID        string `json:"event_id"`
	MinistryID     string `json:"ministry_id"`
	RoleID         string `json:"role_id,omitempty"` // empty if any member of the ministry may fill it
	Title          string `json:"title"`
	QuantityNeeded int    `json:"quantity_needed"`
	SortOrder      int    `json:"sort_order"`
}

// Assignment links a position to a profile
type Assignment struct {
	ID          string           `json:"id"`
	PositionID  string           `json:"position_id"`
	ProfileID   string           `json:"profile_id"`
	Status      AssignmentStatus `json:"status"`
	InvitedAt   *time.Time       `json:"invited_at,omitempty"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
	AssignedBy  string           `json:"assigned_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// MinistryMember links a profile to a ministry with the roles they hold there
type MinistryMember struct {
	ID         string
	MinistryID string
	ProfileID  string
	RoleIDs    []string
	IsActive   bool
}

// MemberProfile is a ministry member joined with their profile
type MemberProfile struct {
	Member  MinistryMember
	Profile Profile
}

// VolunteerUnavailability is an inclusive date range a volunteer cannot serve
type VolunteerUnavailability struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	StartDate string `json:"start_date"` // 2006-01-02
	EndDate   string `json:"end_date"`   // 2006-01-02
	Reason    string `json:"reason,omitempty"`
}

// Covers reports whether the given 2006-01-02 date falls inside the range
func (u VolunteerUnavailability) Covers(date string) bool {
	return u.StartDate <= date && date <= u.EndDate
}

// NotificationType identifies what a notification is about
type NotificationType string

const (
	NotificationPositionInvitation NotificationType = "position_invitation"
	NotificationInvitationAccepted NotificationType = "invitation_accepted"
	NotificationInvitationDeclined NotificationType = "invitation_declined"
)

// Notification is an in-app notification row
type Notification struct {
	ID           string
	ChurchID     string
	RecipientID  string
	Type         NotificationType
	Title        string
	Message      string
	EventID      string
	AssignmentID string
	EmailToken   string // empty for notifications without email actions
	ExpiresAt    *time.Time
	IsRead       bool
	IsActioned   bool
	ActionTaken  string
	CreatedAt    time.Time
}

// ChannelPreference holds per-channel toggles for one notification type.
// A nil toggle means the user never set it.
type ChannelPreference struct {
	InApp *bool `json:"in_app,omitempty"`
	Email *bool `json:"email,omitempty"`
	Push  *bool `json:"push,omitempty"`
}

// NotificationPreferences maps a preference key (e.g. "volunteer_accepted") to its channel toggles
type NotificationPreferences map[string]ChannelPreference

// Profile is a person within a church
type Profile struct {
	ID                        string
	UserID                    string
	ChurchID                  string
	FirstName                 string
	LastName                  string
	Email                     string
	Role                      ChurchRole
	ReceiveEmailNotifications bool
	Language                  string
	NotificationPreferences   NotificationPreferences
}

// FullName returns the first and last name joined by a space
func (p Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	if p.FirstName == "" {
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

// EventAssignment is an assignment on some position of an event, with the position title
type EventAssignment struct {
	AssignmentID  string
	PositionID    string
	PositionTitle string
	ProfileID     string
	Status        AssignmentStatus
}

// PendingAssignment is an assignment joined with the entities invitation logic needs
type PendingAssignment struct {
	Assignment Assignment
	Position   Position
	Event      Event
	Ministry   *Ministry // nil if the position's ministry is missing
}

// AssignmentDetail is an assignment with its position, event and ministry
type AssignmentDetail struct {
	Assignment Assignment
	Position   Position
	Event      Event
	Ministry   *Ministry
}

// CalendarDate truncates a timestamp to its UTC calendar date in 2006-01-02 format
func CalendarDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
