package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/church-ops/pkg/core/apperr"
	"github.com/jakechorley/church-ops/pkg/db"
)

func profileIDs(vs []EligibleVolunteer) []string {
	ids := make([]string, 0, len(vs))
	for _, v := range vs {
		ids = append(ids, v.ProfileID)
	}
	return ids
}

func TestGetEligibleVolunteers_AllAvailable(t *testing.T) {
	store := seedChurch()
	store.addMember("worship", db.Profile{ID: "anna", ChurchID: "church-1", FirstName: "Anna"})
	store.addMember("worship", db.Profile{ID: "boaz", ChurchID: "church-1", FirstName: "Boaz"})
	store.addMember("worship", db.Profile{ID: "caleb", ChurchID: "church-1", FirstName: "Caleb"})

	result, err := GetEligibleVolunteers(context.Background(), store, leaderSession(), zap.NewNop(), "pos-vocals")
	require.NoError(t, err)

	assert.Equal(t, []string{"anna", "boaz", "caleb"}, profileIDs(result))
	for _, v := range result {
		assert.False(t, v.IsUnavailable)
		assert.False(t, v.IsAlreadyAssigned)
		assert.Empty(t, v.AssignedPositions)
	}
}

func TestGetEligibleVolunteers_RequiredRole(t *testing.T) {
	store := seedChurch()
	store.addMember("worship", db.Profile{ID: "anna", ChurchID: "church-1"}, "role-keys")
	store.addMember("worship", db.Profile{ID: "boaz", ChurchID: "church-1"}, "role-vocals")
	store.addMember("worship", db.Profile{ID: "caleb", ChurchID: "church-1"}, "role-vocals", "role-keys")
	store.addMember("worship", db.Profile{ID: "dinah", ChurchID: "church-1"})

	result, err := GetEligibleVolunteers(context.Background(), store, leaderSession(), zap.NewNop(), "pos-keys")
	require.NoError(t, err)

	assert.Equal(t, []string{"anna", "caleb"}, profileIDs(result))
	for _, v := range result {
		assert.Contains(t, v.RoleIDs, "role-keys")
	}
}

func TestGetEligibleVolunteers_ExcludesAssignedAndInactive(t *testing.T) {
	store := seedChurch()
	store.addMember("worship", db.Profile{ID: "anna", ChurchID: "church-1"})
	store.addMember("worship", db.Profile{ID: "boaz", ChurchID: "church-1"})
	store.addMember("worship", db.Profile{ID: "caleb", ChurchID: "church-1"})
	store.members[2].Member.IsActive = false
	store.addAssignment(db.Assignment{ID: "a1", PositionID: "pos-vocals", ProfileID: "anna", Status: db.StatusDeclined})

	result, err := GetEligibleVolunteers(context.Background(), store, leaderSession(), zap.NewNop(), "pos-vocals")
	require.NoError(t, err)

	assert.Equal(t, []string{"boaz"}, profileIDs(result))
}

func TestGetEligibleVolunteers_Ordering(t *testing.T) {
	store := seedChurch()
	store.addPosition(db.Position{ID: "pos-sound", EventID: "event-1", MinistryID: "tech", Title: "Sound"})
	for _, id := range []string{"away-booked", "away", "booked", "free"} {
		store.addMember("worship", db.Profile{ID: id, ChurchID: "church-1"})
	}
	store.addAssignment(db.Assignment{ID: "a1", PositionID: "pos-sound", ProfileID: "booked"})
	store.addAssignment(db.Assignment{ID: "a2", PositionID: "pos-keys", ProfileID: "away-booked"})
	store.unavailable = []db.VolunteerUnavailability{
		{ID: "u1", ProfileID: "away", StartDate: "2030-03-01", EndDate: "2030-03-03", Reason: "Holiday"},
		{ID: "u2", ProfileID: "away-booked", StartDate: "2030-03-03", EndDate: "2030-03-03"},
		{ID: "u3", ProfileID: "free", StartDate: "2030-03-04", EndDate: "2030-03-10"},
	}

	result, err := GetEligibleVolunteers(context.Background(), store, leaderSession(), zap.NewNop(), "pos-vocals")
	require.NoError(t, err)

	assert.Equal(t, []string{"free", "booked", "away", "away-booked"}, profileIDs(result))

	byID := map[string]EligibleVolunteer{}
	for _, v := range result {
		byID[v.ProfileID] = v
	}
	assert.True(t, byID["away"].IsUnavailable)
	assert.Equal(t, "Holiday", byID["away"].UnavailableReason)
	assert.False(t, byID["free"].IsUnavailable, "range starting the day after does not cover the event")
	assert.True(t, byID["booked"].IsAlreadyAssigned)
	assert.Equal(t, []string{"Sound"}, byID["booked"].AssignedPositions)
	assert.Equal(t, []string{"Keys"}, byID["away-booked"].AssignedPositions)

	for i := 1; i < len(result); i++ {
		assert.False(t, result[i-1].IsUnavailable && !result[i].IsUnavailable, "unavailable must sort last")
	}
}

func TestResolveEligibility_InclusiveRangeEnds(t *testing.T) {
	position := &db.Position{ID: "p"}
	members := []db.MemberProfile{
		{Member: db.MinistryMember{IsActive: true}, Profile: db.Profile{ID: "starts"}},
		{Member: db.MinistryMember{IsActive: true}, Profile: db.Profile{ID: "ends"}},
	}
	unavailable := []db.VolunteerUnavailability{
		{ProfileID: "starts", StartDate: "2030-03-03", EndDate: "2030-03-09"},
		{ProfileID: "ends", StartDate: "2030-02-20", EndDate: "2030-03-03"},
	}

	result := resolveEligibility(position, "2030-03-03", members, nil, unavailable)

	require.Len(t, result, 2)
	assert.True(t, result[0].IsUnavailable)
	assert.True(t, result[1].IsUnavailable)
}

func TestGetEligibleVolunteers_Errors(t *testing.T) {
	t.Run("volunteer is forbidden", func(t *testing.T) {
		_, err := GetEligibleVolunteers(context.Background(), seedChurch(), volunteerSession("anna"), zap.NewNop(), "pos-vocals")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("no session", func(t *testing.T) {
		_, err := GetEligibleVolunteers(context.Background(), seedChurch(), nil, zap.NewNop(), "pos-vocals")
		assert.ErrorIs(t, err, apperr.ErrAuth)
	})

	t.Run("unknown position", func(t *testing.T) {
		_, err := GetEligibleVolunteers(context.Background(), seedChurch(), leaderSession(), zap.NewNop(), "missing")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("position in another church", func(t *testing.T) {
		session := leaderSession()
		session.ChurchID = "church-2"
		_, err := GetEligibleVolunteers(context.Background(), seedChurch(), session, zap.NewNop(), "pos-vocals")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("store failure is generic", func(t *testing.T) {
		store := seedChurch()
		store.failMembers = errStoreDown
		_, err := GetEligibleVolunteers(context.Background(), store, leaderSession(), zap.NewNop(), "pos-vocals")
		require.Error(t, err)
		assert.Equal(t, apperr.KindStore, apperr.KindOf(err))
		assert.Equal(t, apperr.GenericMessage, apperr.Message(err))
		assert.ErrorIs(t, err, errStoreDown)
	})
}

func TestGetEligibleVolunteers_EmptyMinistry(t *testing.T) {
	result, err := GetEligibleVolunteers(context.Background(), seedChurch(), leaderSession(), zap.NewNop(), "pos-vocals")
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}
