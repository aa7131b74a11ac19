package services

import (
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/church-ops/pkg/core/apperr"
	"github.com/jakechorley/church-ops/pkg/db"
)

// ScopeType selects which pending assignments an invitation send covers
type ScopeType string

const (
	ScopeAll        ScopeType = "all"
	ScopeMinistry   ScopeType = "ministry"
	ScopePositions  ScopeType = "positions"
	ScopeDates      ScopeType = "dates"
	ScopeEvents     ScopeType = "events"
	ScopeMinistries ScopeType = "ministries"
)

// Scope selects pending assignments within one event
type Scope struct {
	EventID     string    `json:"event_id" validate:"required"`
	Type        ScopeType `json:"type" validate:"required,oneof=all ministry positions"`
	MinistryID  string    `json:"ministry_id,omitempty" validate:"required_if=Type ministry"`
	PositionIDs []string  `json:"position_ids,omitempty" validate:"required_if=Type positions,dive,required"`
}

// filter converts the scope into a store filter for the church
func (s Scope) filter(churchID string) (db.PendingFilter, error) {
	if err := validateInput(s); err != nil {
		return db.PendingFilter{}, err
	}

	filter := db.PendingFilter{ChurchID: churchID, EventIDs: []string{s.EventID}}
	switch s.Type {
	case ScopeMinistry:
		filter.MinistryIDs = []string{s.MinistryID}
	case ScopePositions:
		if len(s.PositionIDs) == 0 {
			return db.PendingFilter{}, apperr.Validation("position_ids is required")
		}
		filter.PositionIDs = s.PositionIDs
	}
	return filter, nil
}

// BulkScope selects pending assignments across several events
type BulkScope struct {
	EventIDs []string  `json:"event_ids" validate:"required,min=1,dive,required"`
	Type     ScopeType `json:"type" validate:"required,oneof=all dates events ministries positions"`

	Dates            []string `json:"dates,omitempty" validate:"required_if=Type dates,dive,datetime=2006-01-02"`
	SelectedEventIDs []string `json:"selected_event_ids,omitempty" validate:"required_if=Type events,dive,required"`
	MinistryIDs      []string `json:"ministry_ids,omitempty" validate:"required_if=Type ministries,dive,required"`
	PositionIDs      []string `json:"position_ids,omitempty" validate:"required_if=Type positions,dive,required"`
}

// values returns the selection list the scope type requires
func (s BulkScope) values() []string {
	switch s.Type {
	case ScopeDates:
		return s.Dates
	case ScopeEvents:
		return s.SelectedEventIDs
	case ScopeMinistries:
		return s.MinistryIDs
	case ScopePositions:
		return s.PositionIDs
	}
	return nil
}

// filter converts the scope into a store filter for the church.
// Date scopes bound the query by the earliest and latest selected date; exact dates are
// matched afterwards by matchesDates.
func (s BulkScope) filter(churchID string) (db.PendingFilter, error) {
	if err := validateInput(s); err != nil {
		return db.PendingFilter{}, err
	}
	if s.Type != ScopeAll && len(s.values()) == 0 {
		return db.PendingFilter{}, apperr.Validation("%s scope needs at least one value", s.Type)
	}

	filter := db.PendingFilter{ChurchID: churchID, EventIDs: s.EventIDs}
	switch s.Type {
	case ScopeDates:
		from, before, err := dateBounds(s.Dates)
		if err != nil {
			return db.PendingFilter{}, err
		}
		filter.StartFrom = &from
		filter.StartBefore = &before
	case ScopeEvents:
		var selected []string
		for _, id := range s.SelectedEventIDs {
			if slices.Contains(s.EventIDs, id) {
				selected = append(selected, id)
			}
		}
		if len(selected) == 0 {
			return db.PendingFilter{}, apperr.ErrNoPendingAssignments
		}
		filter.EventIDs = selected
	case ScopeMinistries:
		filter.MinistryIDs = s.MinistryIDs
	case ScopePositions:
		filter.PositionIDs = s.PositionIDs
	}
	return filter, nil
}

// matchesDates keeps only assignments whose event falls on one of the selected dates
func (s BulkScope) matchesDates(pending []db.PendingAssignment) []db.PendingAssignment {
	if s.Type != ScopeDates {
		return pending
	}

	selected := make(map[string]bool, len(s.Dates))
	for _, d := range s.Dates {
		selected[d] = true
	}

	var kept []db.PendingAssignment
	for _, pa := range pending {
		if selected[pa.Event.Date()] {
			kept = append(kept, pa)
		}
	}
	return kept
}

// dateBounds returns [midnight UTC of the earliest date, midnight UTC after the latest date)
func dateBounds(dates []string) (time.Time, time.Time, error) {
	var from, last time.Time
	for i, d := range dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Validation("invalid date %q", d)
		}
		if i == 0 || t.Before(from) {
			from = t
		}
		if i == 0 || t.After(last) {
			last = t
		}
	}
	return from, last.AddDate(0, 0, 1), nil
}

// ScheduleDates expands an rrule into the 2006-01-02 dates it produces in [from, until]
func ScheduleDates(rule string, from, until time.Time) ([]string, error) {
	if until.Before(from) {
		return nil, apperr.Validation("schedule end must not be before its start")
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, apperr.Validation("invalid schedule rrule: %s", err)
	}
	r.DTStart(from)

	var dates []string
	for _, occurrence := range r.Between(from, until, true) {
		date := db.CalendarDate(occurrence)
		if len(dates) == 0 || dates[len(dates)-1] != date {
			dates = append(dates, date)
		}
	}

	if len(dates) == 0 {
		return nil, apperr.Validation("schedule %s has no dates between %s and %s",
			rule, db.CalendarDate(from), db.CalendarDate(until))
	}
	return dates, nil
}
