package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/church-ops/pkg/core/auth"
	"github.com/jakechorley/church-ops/pkg/core/notify"
	"github.com/jakechorley/church-ops/pkg/db"
)

var errStoreDown = errors.New("connection refused")

// mockStore is an in-memory store covering every service interface
type mockStore struct {
	mu sync.Mutex

	events        map[string]db.Event
	ministries    map[string]db.Ministry
	positions     map[string]db.Position
	assignments   map[string]db.Assignment
	members       []db.MemberProfile
	unavailable   []db.VolunteerUnavailability
	profiles      map[string]db.Profile
	notifications []db.Notification

	// assignmentOrder keeps insertion order for deterministic listing
	assignmentOrder []string

	failPending       error
	failMarkInvited   error
	failInsertNotif   error
	failMembers       error
	failAssignments   error
	failUnavailable   error
	failSetResponse   error
	failMarkActioned  error
	markInvitedCalls  int
	setResponseCalls  int
	markActionedCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		events:      map[string]db.Event{},
		ministries:  map[string]db.Ministry{},
		positions:   map[string]db.Position{},
		assignments: map[string]db.Assignment{},
		profiles:    map[string]db.Profile{},
	}
}

func (m *mockStore) addEvent(e db.Event) { m.events[e.ID] = e }
func (m *mockStore) addMinistry(mi db.Ministry) { m.ministries[mi.ID] = mi }
func (m *mockStore) addPosition(p db.Position) { m.positions[p.ID] = p }
func (m *mockStore) addProfile(p db.Profile) { m.profiles[p.ID] = p }

func (m *mockStore) addAssignment(a db.Assignment) {
	m.assignments[a.ID] = a
	m.assignmentOrder = append(m.assignmentOrder, a.ID)
}

func (m *mockStore) addMember(ministryID string, p db.Profile, roleIDs ...string) {
	m.addProfile(p)
	m.members = append(m.members, db.MemberProfile{
		Member:  db.MinistryMember{ID: "mm-" + p.ID, MinistryID: ministryID, ProfileID: p.ID, RoleIDs: roleIDs, IsActive: true},
		Profile: p,
	})
}

func (m *mockStore) assignment(id string) db.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignments[id]
}

func (m *mockStore) notificationsFor(recipientID string) []db.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Notification
	for _, n := range m.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

func (m *mockStore) GetEvent(ctx context.Context, churchID, eventID string) (*db.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok || e.ChurchID != churchID {
		return nil, db.ErrNotFound
	}
	return &e, nil
}

func (m *mockStore) GetEventByID(ctx context.Context, eventID string) (*db.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &e, nil
}

func (m *mockStore) GetMinistry(ctx context.Context, churchID, ministryID string) (*db.Ministry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mi, ok := m.ministries[ministryID]
	if !ok || mi.ChurchID != churchID {
		return nil, db.ErrNotFound
	}
	return &mi, nil
}

func (m *mockStore) GetPosition(ctx context.Context, churchID, positionID string) (*db.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[positionID]
	if !ok || m.events[p.EventID].ChurchID != churchID {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (m *mockStore) ListPositions(ctx context.Context, churchID, eventID string) ([]db.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Position
	for _, p := range m.positions {
		if p.EventID == eventID && m.events[p.EventID].ChurchID == churchID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b db.Position) int { return a.SortOrder - b.SortOrder })
	return out, nil
}

func (m *mockStore) InsertPosition(ctx context.Context, p *db.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[p.ID] = *p
	return nil
}

func (m *mockStore) DeletePosition(ctx context.Context, churchID, positionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[positionID]
	if !ok || m.events[p.EventID].ChurchID != churchID {
		return db.ErrNotFound
	}
	delete(m.positions, positionID)
	return nil
}

func (m *mockStore) InsertAssignment(ctx context.Context, a *db.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.assignments {
		if existing.PositionID == a.PositionID && existing.ProfileID == a.ProfileID {
			return db.ErrAlreadyAssigned
		}
	}
	m.assignments[a.ID] = *a
	m.assignmentOrder = append(m.assignmentOrder, a.ID)
	return nil
}

func (m *mockStore) DeleteAssignment(ctx context.Context, churchID, assignmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[assignmentID]
	if !ok || m.events[m.positions[a.PositionID].EventID].ChurchID != churchID {
		return db.ErrNotFound
	}
	delete(m.assignments, assignmentID)
	return nil
}

func (m *mockStore) joined(a db.Assignment) db.PendingAssignment {
	p := m.positions[a.PositionID]
	pa := db.PendingAssignment{Assignment: a, Position: p, Event: m.events[p.EventID]}
	if mi, ok := m.ministries[p.MinistryID]; ok {
		pa.Ministry = &mi
	}
	return pa
}

func (m *mockStore) GetAssignmentDetail(ctx context.Context, assignmentID string) (*db.AssignmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[assignmentID]
	if !ok {
		return nil, db.ErrNotFound
	}
	d := db.AssignmentDetail(m.joined(a))
	return &d, nil
}

func (m *mockStore) ListEventAssignments(ctx context.Context, eventID string) ([]db.EventAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAssignments != nil {
		return nil, m.failAssignments
	}
	var out []db.EventAssignment
	for _, id := range m.assignmentOrder {
		a, ok := m.assignments[id]
		if !ok {
			continue
		}
		p := m.positions[a.PositionID]
		if p.EventID != eventID {
			continue
		}
		out = append(out, db.EventAssignment{
			AssignmentID: a.ID, PositionID: p.ID, PositionTitle: p.Title, ProfileID: a.ProfileID, Status: a.Status,
		})
	}
	return out, nil
}

func (m *mockStore) ListPendingAssignments(ctx context.Context, f db.PendingFilter) ([]db.PendingAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPending != nil {
		return nil, m.failPending
	}
	var out []db.PendingAssignment
	for _, id := range m.assignmentOrder {
		a, ok := m.assignments[id]
		if !ok || a.Status != db.StatusAssigned {
			continue
		}
		pa := m.joined(a)
		switch {
		case pa.Event.ChurchID != f.ChurchID:
		case len(f.EventIDs) > 0 && !slices.Contains(f.EventIDs, pa.Event.ID):
		case len(f.MinistryIDs) > 0 && !slices.Contains(f.MinistryIDs, pa.Position.MinistryID):
		case len(f.PositionIDs) > 0 && !slices.Contains(f.PositionIDs, pa.Position.ID):
		case f.StartFrom != nil && pa.Event.StartTime.Before(*f.StartFrom):
		case f.StartBefore != nil && !pa.Event.StartTime.Before(*f.StartBefore):
		default:
			out = append(out, pa)
		}
	}
	return out, nil
}

func (m *mockStore) MarkAssignmentsInvited(ctx context.Context, ids []string, invitedAt time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markInvitedCalls++
	if m.failMarkInvited != nil {
		return nil, m.failMarkInvited
	}
	var updated []string
	for _, id := range ids {
		a, ok := m.assignments[id]
		if !ok || a.Status != db.StatusAssigned {
			continue
		}
		a.Status = db.StatusInvited
		at := invitedAt
		a.InvitedAt = &at
		m.assignments[id] = a
		updated = append(updated, id)
	}
	return updated, nil
}

func (m *mockStore) SetAssignmentResponse(ctx context.Context, id string, status db.AssignmentStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setResponseCalls++
	if m.failSetResponse != nil {
		return m.failSetResponse
	}
	a, ok := m.assignments[id]
	if !ok || !a.Status.HasBeenInvited() {
		return db.ErrStatusChanged
	}
	a.Status = status
	a.RespondedAt = &at
	m.assignments[id] = a
	return nil
}

func (m *mockStore) ListAcceptedProfiles(ctx context.Context, eventID string) ([]db.Profile, error) {
	return nil, nil
}

func (m *mockStore) ListMinistryMembers(ctx context.Context, ministryID string) ([]db.MemberProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMembers != nil {
		return nil, m.failMembers
	}
	var out []db.MemberProfile
	for _, mp := range m.members {
		if mp.Member.MinistryID == ministryID {
			out = append(out, mp)
		}
	}
	return out, nil
}

func (m *mockStore) ListUnavailability(ctx context.Context, profileIDs []string) ([]db.VolunteerUnavailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUnavailable != nil {
		return nil, m.failUnavailable
	}
	var out []db.VolunteerUnavailability
	for _, u := range m.unavailable {
		if slices.Contains(profileIDs, u.ProfileID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockStore) ListMinistryUnavailabilityOn(ctx context.Context, ministryID, date string) ([]db.VolunteerUnavailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUnavailable != nil {
		return nil, m.failUnavailable
	}
	memberIDs := map[string]bool{}
	for _, mp := range m.members {
		if mp.Member.MinistryID == ministryID {
			memberIDs[mp.Profile.ID] = true
		}
	}
	var out []db.VolunteerUnavailability
	for _, u := range m.unavailable {
		if memberIDs[u.ProfileID] && u.Covers(date) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockStore) InsertUnavailability(ctx context.Context, u *db.VolunteerUnavailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = append(m.unavailable, *u)
	return nil
}

func (m *mockStore) InsertNotifications(ctx context.Context, notifications []db.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertNotif != nil {
		return m.failInsertNotif
	}
	m.notifications = append(m.notifications, notifications...)
	return nil
}

func (m *mockStore) GetNotificationByToken(ctx context.Context, token string) (*db.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.EmailToken != "" && n.EmailToken == token {
			return &n, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockStore) MarkNotificationActioned(ctx context.Context, assignmentID, recipientID, action string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markActionedCalls++
	if m.failMarkActioned != nil {
		return m.failMarkActioned
	}
	for i, n := range m.notifications {
		if n.AssignmentID == assignmentID && n.RecipientID == recipientID && n.Type == db.NotificationPositionInvitation {
			m.notifications[i].IsActioned = true
			m.notifications[i].IsRead = true
			m.notifications[i].ActionTaken = action
		}
	}
	return nil
}

func (m *mockStore) GetProfile(ctx context.Context, profileID string) (*db.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[profileID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

type sentEmail struct {
	to, subject, body string
}

type mockEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *mockEmail) SendEmail(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmail{to, subject, body})
	return m.err
}

func (m *mockEmail) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.sent {
		out = append(out, e.to)
	}
	return out
}

type sentPush struct {
	userID string
	msg    notify.PushMessage
}

type mockPush struct {
	mu   sync.Mutex
	sent []sentPush
	err  error
}

func (m *mockPush) SendToUser(ctx context.Context, userID string, msg notify.PushMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentPush{userID, msg})
	return m.err
}

func (m *mockPush) users() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, p := range m.sent {
		out = append(out, p.userID)
	}
	return out
}

type mockCalendar struct {
	mu     sync.Mutex
	synced []string
	err    error
}

func (m *mockCalendar) SyncEvent(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced = append(m.synced, eventID)
	return m.err
}

type mockInvalidator struct {
	mu   sync.Mutex
	tags []string
}

func (m *mockInvalidator) Invalidate(ctx context.Context, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = append(m.tags, tags...)
}

// testNotifier wires recording channels into a Notifier
type testNotifier struct {
	dispatcher *notify.Dispatcher
	email      *mockEmail
	push       *mockPush
	calendar   *mockCalendar
	cache      *mockInvalidator
}

func newTestNotifier() *testNotifier {
	return &testNotifier{
		dispatcher: notify.NewDispatcher(zap.NewNop()),
		email:      &mockEmail{},
		push:       &mockPush{},
		calendar:   &mockCalendar{},
		cache:      &mockInvalidator{},
	}
}

func (tn *testNotifier) notifier() Notifier {
	return Notifier{
		Dispatcher: tn.dispatcher,
		Email:      tn.email,
		Push:       tn.push,
		Calendar:   tn.calendar,
		Cache:      tn.cache,
		BaseURL:    "https://church.example.com",
	}
}

func leaderSession() *auth.Session {
	return &auth.Session{UserID: "user-leader", ProfileID: "leader", ChurchID: "church-1", Role: db.RoleLeader}
}

func volunteerSession(profileID string) *auth.Session {
	return &auth.Session{UserID: "user-" + profileID, ProfileID: profileID, ChurchID: "church-1", Role: db.RoleVolunteer}
}

func boolPtr(b bool) *bool { return &b }

// seedChurch creates one event with a worship ministry led by "leader" and two positions
func seedChurch() *mockStore {
	m := newMockStore()
	m.addProfile(db.Profile{ID: "leader", UserID: "user-leader", ChurchID: "church-1", FirstName: "Lydia", LastName: "Thyatira",
		Email: "lydia@example.com", Role: db.RoleLeader, ReceiveEmailNotifications: true})
	m.addProfile(db.Profile{ID: "pastor", UserID: "user-pastor", ChurchID: "church-1", FirstName: "Paul", LastName: "Tarsus",
		Email: "paul@example.com", Role: db.RoleAdmin, ReceiveEmailNotifications: true})
	m.addEvent(db.Event{ID: "event-1", ChurchID: "church-1", Title: "Sunday Service",
		StartTime: time.Date(2030, 3, 3, 10, 0, 0, 0, time.UTC), ResponsiblePersonID: "pastor"})
	m.addMinistry(db.Ministry{ID: "worship", ChurchID: "church-1", Name: "Worship", LeaderID: "leader"})
	m.addPosition(db.Position{ID: "pos-vocals", EventID: "event-1", MinistryID: "worship", Title: "Vocals", QuantityNeeded: 2})
	m.addPosition(db.Position{ID: "pos-keys", EventID: "event-1", MinistryID: "worship", RoleID: "role-keys", Title: "Keys", QuantityNeeded: 1})
	return m
}
