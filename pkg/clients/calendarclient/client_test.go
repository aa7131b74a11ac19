package calendarclient

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/jakechorley/church-ops/pkg/db"
)

func TestCalendarEventID(t *testing.T) {
	id := calendarEventID("3F2504E0-4F89-11D3-9A0C-0305E82C3301")
	assert.Equal(t, "3f2504e04f8911d39a0c0305e82c3301", id)
}

func TestBuildCalendarEvent(t *testing.T) {
	start := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	event := &db.Event{ID: "3f2504e0-4f89-11d3-9a0c-0305e82c3301", Title: "Sunday Service", StartTime: start, Location: "Main hall"}
	accepted := []db.Profile{
		{FirstName: "Ruth", LastName: "Moab", Email: "ruth@example.com"},
		{FirstName: "Boaz", Email: ""},
	}

	entry := buildCalendarEvent(event, accepted)

	assert.Equal(t, "Sunday Service", entry.Summary)
	assert.Equal(t, "2025-03-02T10:00:00Z", entry.Start.DateTime)
	assert.Equal(t, "2025-03-02T11:00:00Z", entry.End.DateTime)
	require.Len(t, entry.Attendees, 1)
	assert.Equal(t, "ruth@example.com", entry.Attendees[0].Email)
	assert.Equal(t, "Ruth Moab", entry.Attendees[0].DisplayName)
}

func TestBuildCalendarEvent_UsesEndTime(t *testing.T) {
	start := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	entry := buildCalendarEvent(&db.Event{ID: "e", StartTime: start, EndTime: &end}, nil)

	assert.Equal(t, "2025-03-02T13:00:00Z", entry.End.DateTime)
	assert.Empty(t, entry.Attendees)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusNotFound})))
	assert.False(t, isNotFound(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, isNotFound(nil))
}
