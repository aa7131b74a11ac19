package commands

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/church-ops/pkg/core/services"
)

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{line: "sendInvitations event-1", want: []string{"sendInvitations", "event-1"}},
		{line: `respondToInvitation  "a 1"   accepted`, want: []string{"respondToInvitation", "a 1", "accepted"}},
		{line: `eligibleVolunteers 'pos-1'`, want: []string{"eligibleVolunteers", "pos-1"}},
		{line: `unassignVolunteer "a-1`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommandLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventScope(t *testing.T) {
	scope, err := eventScope("event-1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, services.ScopeAll, scope.Type)

	scope, err = eventScope("event-1", "worship", nil)
	require.NoError(t, err)
	assert.Equal(t, services.ScopeMinistry, scope.Type)
	assert.Equal(t, "worship", scope.MinistryID)

	scope, err = eventScope("event-1", "", []string{"pos-1", "pos-2"})
	require.NoError(t, err)
	assert.Equal(t, services.ScopePositions, scope.Type)

	_, err = eventScope("event-1", "worship", []string{"pos-1"})
	assert.Error(t, err)
}

func TestBulkFlags_Scope(t *testing.T) {
	now := time.Date(2030, 3, 1, 15, 0, 0, 0, time.UTC) // a Friday
	events := []string{"event-1", "event-2"}

	t.Run("no selection invites everything", func(t *testing.T) {
		scope, err := bulkFlags{events: events}.scope(now)
		require.NoError(t, err)
		assert.Equal(t, services.ScopeAll, scope.Type)
		assert.Equal(t, events, scope.EventIDs)
	})

	t.Run("explicit dates", func(t *testing.T) {
		scope, err := bulkFlags{events: events, dates: []string{"2030-03-03"}}.scope(now)
		require.NoError(t, err)
		assert.Equal(t, services.ScopeDates, scope.Type)
		assert.Equal(t, []string{"2030-03-03"}, scope.Dates)
	})

	t.Run("rrule defaults to four weeks from today", func(t *testing.T) {
		scope, err := bulkFlags{events: events, rrule: "FREQ=WEEKLY;BYDAY=SU"}.scope(now)
		require.NoError(t, err)
		assert.Equal(t, services.ScopeDates, scope.Type)
		assert.Equal(t, []string{"2030-03-03", "2030-03-10", "2030-03-17", "2030-03-24"}, scope.Dates)
	})

	t.Run("rrule with an inclusive until", func(t *testing.T) {
		f := bulkFlags{events: events, rrule: "FREQ=WEEKLY;BYDAY=SU", from: "2030-03-01", until: "2030-03-10"}
		scope, err := f.scope(now)
		require.NoError(t, err)
		assert.Equal(t, []string{"2030-03-03", "2030-03-10"}, scope.Dates)
	})

	t.Run("ministries", func(t *testing.T) {
		scope, err := bulkFlags{events: events, ministries: []string{"worship"}}.scope(now)
		require.NoError(t, err)
		assert.Equal(t, services.ScopeMinistries, scope.Type)
	})

	t.Run("selected events", func(t *testing.T) {
		scope, err := bulkFlags{events: events, selected: []string{"event-2"}}.scope(now)
		require.NoError(t, err)
		assert.Equal(t, services.ScopeEvents, scope.Type)
		assert.Equal(t, []string{"event-2"}, scope.SelectedEventIDs)
	})

	t.Run("two selections", func(t *testing.T) {
		_, err := bulkFlags{events: events, dates: []string{"2030-03-03"}, positions: []string{"pos-1"}}.scope(now)
		assert.Error(t, err)
	})

	t.Run("bad from", func(t *testing.T) {
		_, err := bulkFlags{events: events, rrule: "FREQ=WEEKLY", from: "03/01/2030"}.scope(now)
		assert.ErrorContains(t, err, "--from")
	})
}

func TestRunInSession_ResetsFlagsBetweenRuns(t *testing.T) {
	var seen [][]string
	cmd := &cobra.Command{
		Use:  "probe",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, _ := cmd.Flags().GetStringSlice("positions")
			seen = append(seen, ids)
			return nil
		},
	}
	cmd.Flags().StringSlice("positions", nil, "")

	require.NoError(t, runInSession(cmd, []string{"--positions", "pos-1,pos-2"}))
	require.NoError(t, runInSession(cmd, nil))

	require.Len(t, seen, 2)
	assert.Equal(t, []string{"pos-1", "pos-2"}, seen[0])
	assert.Empty(t, seen[1])
}
