package services

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/church-ops/pkg/core/auth"
	"github.com/jakechorley/church-ops/pkg/db"
)

// DateCount counts pending invitations on a calendar date
type DateCount struct {
	Date     string   `json:"date"`
	EventIDs []string `json:"event_ids"`
	Count    int      `json:"count"`
}

// EventCount counts pending invitations on an event
type EventCount struct {
	EventID string `json:"event_id"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Count   int    `json:"count"`
}

// MinistryCount counts pending invitations for a ministry
type MinistryCount struct {
	MinistryID string `json:"ministry_id"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

// PositionCount counts pending invitations for a position
type PositionCount struct {
	PositionID string `json:"position_id"`
	EventID    string `json:"event_id"`
	Title      string `json:"title"`
	Count      int    `json:"count"`
}

// PendingSummary groups uninvited assignments four ways for bulk-send screens.
// Groups are listed in the order they are first seen (event start order).
type PendingSummary struct {
	Total      int             `json:"total"`
	ByDate     []DateCount     `json:"by_date"`
	ByEvent    []EventCount    `json:"by_event"`
	ByMinistry []MinistryCount `json:"by_ministry"`
	ByPosition []PositionCount `json:"by_position"`
}

// PendingStore defines the database operations needed to summarise pending invitations
type PendingStore interface {
	ListPendingAssignments(ctx context.Context, filter db.PendingFilter) ([]db.PendingAssignment, error)
}

// SummarisePendingInvitations counts uninvited assignments across the given events
func SummarisePendingInvitations(
	ctx context.Context,
	store PendingStore,
	session *auth.Session,
	logger *zap.Logger,
	eventIDs []string,
) (*PendingSummary, error) {
	if err := auth.RequireRole(session, db.RoleAdmin, db.RoleLeader); err != nil {
		return nil, err
	}

	if len(eventIDs) == 0 {
		return summarise(nil), nil
	}

	pending, err := store.ListPendingAssignments(ctx, db.PendingFilter{ChurchID: session.ChurchID, EventIDs: eventIDs})
	if err != nil {
		return nil, storeError(logger, err, "failed to load pending assignments", nil)
	}

	logger.Debug("Summarising pending invitations",
		zap.Int("events", len(eventIDs)),
		zap.Int("pending", len(pending)))

	return summarise(pending), nil
}

// summarise reduces one row set into the four groupings
func summarise(pending []db.PendingAssignment) *PendingSummary {
	return &PendingSummary{
		Total:      len(pending),
		ByDate:     countByDate(pending),
		ByEvent:    countByEvent(pending),
		ByMinistry: countByMinistry(pending),
		ByPosition: countByPosition(pending),
	}
}

func countByDate(pending []db.PendingAssignment) []DateCount {
	out := []DateCount{}
	index := make(map[string]int)
	for _, pa := range pending {
		date := pa.Event.Date()
		i, ok := index[date]
		if !ok {
			i = len(out)
			index[date] = i
			out = append(out, DateCount{Date: date, EventIDs: []string{}})
		}
		out[i].Count++
		if !slices.Contains(out[i].EventIDs, pa.Event.ID) {
			out[i].EventIDs = append(out[i].EventIDs, pa.Event.ID)
		}
	}
	return out
}

func countByEvent(pending []db.PendingAssignment) []EventCount {
	out := []EventCount{}
	index := make(map[string]int)
	for _, pa := range pending {
		i, ok := index[pa.Event.ID]
		if !ok {
			i = len(out)
			index[pa.Event.ID] = i
			out = append(out, EventCount{EventID: pa.Event.ID, Title: pa.Event.Title, Date: pa.Event.Date()})
		}
		out[i].Count++
	}
	return out
}

// countByMinistry skips assignments whose position has no ministry
func countByMinistry(pending []db.PendingAssignment) []MinistryCount {
	out := []MinistryCount{}
	index := make(map[string]int)
	for _, pa := range pending {
		if pa.Ministry == nil {
			continue
		}
		i, ok := index[pa.Ministry.ID]
		if !ok {
			i = len(out)
			index[pa.Ministry.ID] = i
			out = append(out, MinistryCount{MinistryID: pa.Ministry.ID, Name: pa.Ministry.Name})
		}
		out[i].Count++
	}
	return out
}

func countByPosition(pending []db.PendingAssignment) []PositionCount {
	out := []PositionCount{}
	index := make(map[string]int)
	for _, pa := range pending {
		i, ok := index[pa.Position.ID]
		if !ok {
			i = len(out)
			index[pa.Position.ID] = i
			out = append(out, PositionCount{PositionID: pa.Position.ID, EventID: pa.Position.EventID, Title: pa.Position.Title})
		}
		out[i].Count++
	}
	return out
}
