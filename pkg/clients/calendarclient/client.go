package calendarclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/jakechorley/church-ops/pkg/db"
)

const defaultEventLength = time.Hour

// EventReader loads what a calendar entry is built from
type EventReader interface {
	GetEventByID(ctx context.Context, eventID string) (*db.Event, error)
	ListAcceptedProfiles(ctx context.Context, eventID string) ([]db.Profile, error)
}

// Client mirrors church events into a Google Calendar, listing accepted volunteers as attendees
type Client struct {
	service    *calendar.Service
	calendarID string
	store      EventReader
	logger     *zap.Logger
}

// NewClient creates a calendar client from an authorised OAuth token
func NewClient(ctx context.Context, oauthConfig *oauth2.Config, token *oauth2.Token, calendarID string, store EventReader, logger *zap.Logger) (*Client, error) {
	httpClient := oauthConfig.Client(ctx, token)

	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &Client{
		service:    service,
		calendarID: calendarID,
		store:      store,
		logger:     logger,
	}, nil
}

// SyncEvent creates or updates the calendar entry for an event.
// Attendees are not emailed by Google; invitations are sent separately.
func (c *Client) SyncEvent(ctx context.Context, eventID string) error {
	event, err := c.store.GetEventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load event %s: %w", eventID, err)
	}

	accepted, err := c.store.ListAcceptedProfiles(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load accepted volunteers for event %s: %w", eventID, err)
	}

	entry := buildCalendarEvent(event, accepted)

	_, err = c.service.Events.Update(c.calendarID, entry.Id, entry).SendUpdates("none").Context(ctx).Do()
	if isNotFound(err) {
		_, err = c.service.Events.Insert(c.calendarID, entry).SendUpdates("none").Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("failed to sync calendar event %s: %w", eventID, err)
	}

	c.logger.Debug("Calendar event synced",
		zap.String("event_id", eventID),
		zap.Int("attendees", len(entry.Attendees)))

	return nil
}

// calendarEventID derives a stable Google Calendar id (base32hex alphabet) from a uuid
func calendarEventID(eventID string) string {
	return strings.ToLower(strings.ReplaceAll(eventID, "-", ""))
}

func buildCalendarEvent(event *db.Event, accepted []db.Profile) *calendar.Event {
	end := event.StartTime.Add(defaultEventLength)
	if event.EndTime != nil && event.EndTime.After(event.StartTime) {
		end = *event.EndTime
	}

	attendees := make([]*calendar.EventAttendee, 0, len(accepted))
	for _, p := range accepted {
		if p.Email == "" {
			continue
		}
		attendees = append(attendees, &calendar.EventAttendee{
			Email:          p.Email,
			DisplayName:    p.FullName(),
			ResponseStatus: "accepted",
		})
	}

	return &calendar.Event{
		Id:        calendarEventID(event.ID),
		Summary:   event.Title,
		Location:  event.Location,
		Start:     &calendar.EventDateTime{DateTime: event.StartTime.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:       &calendar.EventDateTime{DateTime: end.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		Attendees: attendees,
	}
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
