package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jakechorley/church-ops/pkg/cache"
	"github.com/jakechorley/church-ops/pkg/core/apperr"
	"github.com/jakechorley/church-ops/pkg/core/auth"
	"github.com/jakechorley/church-ops/pkg/core/services"
	"github.com/jakechorley/church-ops/pkg/db"
)

func (s *Server) invalidator() cache.Invalidator {
	if s.notifier.Cache == nil {
		return cache.Nop{}
	}
	return s.notifier.Cache
}

func (s *Server) eligibleVolunteers(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	volunteers, err := services.GetEligibleVolunteers(r.Context(), s.store, session, s.logger, chi.URLParam(r, "positionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, volunteers)
}

type assignRequest struct {
	ProfileID string `json:"profile_id"`
}

func (s *Server) assignVolunteer(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	session := auth.SessionFromContext(r.Context())
	assignment, err := services.AssignVolunteer(r.Context(), s.store, s.invalidator(), session, s.logger,
		chi.URLParam(r, "positionID"), req.ProfileID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, assignment)
}

func (s *Server) unassignVolunteer(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	err := services.UnassignVolunteer(r.Context(), s.store, s.invalidator(), session, s.logger, chi.URLParam(r, "assignmentID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type responseRequest struct {
	Response db.AssignmentStatus `json:"response"`
}

func (s *Server) respondToInvitation(w http.ResponseWriter, r *http.Request) {
	var req responseRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	session := auth.SessionFromContext(r.Context())
	result, err := services.RespondToInvitation(r.Context(), s.store, s.notifier, session, s.logger,
		chi.URLParam(r, "assignmentID"), req.Response)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

// respondByEmail handles the accept/decline links in invitation emails.
// The one-time token authorizes the response so no session is needed.
func (s *Server) respondByEmail(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	token := query.Get("token")
	if token == "" {
		s.writeError(w, apperr.Validation("token is required"))
		return
	}

	result, err := services.RespondByEmailToken(r.Context(), s.store, s.notifier, s.logger, token, query.Get("action"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (s *Server) sendInvitations(w http.ResponseWriter, r *http.Request) {
	var scope services.Scope
	if err := decode(r, &scope); err != nil {
		s.writeError(w, err)
		return
	}
	eventID := chi.URLParam(r, "eventID")
	if scope.EventID != "" && scope.EventID != eventID {
		s.writeError(w, apperr.Validation("event_id does not match the URL"))
		return
	}
	scope.EventID = eventID

	session := auth.SessionFromContext(r.Context())
	result, err := services.SendInvitations(r.Context(), s.store, s.notifier, session, s.logger, scope)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (s *Server) sendBulkInvitations(w http.ResponseWriter, r *http.Request) {
	var scope services.BulkScope
	if err := decode(r, &scope); err != nil {
		s.writeError(w, err)
		return
	}

	session := auth.SessionFromContext(r.Context())
	result, err := services.SendBulkInvitations(r.Context(), s.store, s.notifier, session, s.logger, scope)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

// pendingInvitations accepts event_id repeated or comma separated
func (s *Server) pendingInvitations(w http.ResponseWriter, r *http.Request) {
	var eventIDs []string
	for _, v := range r.URL.Query()["event_id"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				eventIDs = append(eventIDs, id)
			}
		}
	}

	session := auth.SessionFromContext(r.Context())
	summary, err := services.SummarisePendingInvitations(r.Context(), s.store, session, s.logger, eventIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, summary)
}

func (s *Server) listPositions(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	positions, err := services.ListPositions(r.Context(), s.store, session, s.logger, chi.URLParam(r, "eventID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, positions)
}

func (s *Server) createPosition(w http.ResponseWriter, r *http.Request) {
	var input services.PositionInput
	if err := decode(r, &input); err != nil {
		s.writeError(w, err)
		return
	}

	session := auth.SessionFromContext(r.Context())
	position, err := services.CreatePosition(r.Context(), s.store, s.invalidator(), session, s.logger, input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, position)
}

func (s *Server) deletePosition(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	err := services.DeletePosition(r.Context(), s.store, s.invalidator(), session, s.logger, chi.URLParam(r, "positionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listUnavailability(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	ranges, err := services.ListUnavailability(r.Context(), s.store, session, s.logger, chi.URLParam(r, "profileID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, ranges)
}

func (s *Server) addUnavailability(w http.ResponseWriter, r *http.Request) {
	var input services.UnavailabilityInput
	if err := decode(r, &input); err != nil {
		s.writeError(w, err)
		return
	}
	input.ProfileID = chi.URLParam(r, "profileID")

	session := auth.SessionFromContext(r.Context())
	unavailability, err := services.AddUnavailability(r.Context(), s.store, s.invalidator(), session, s.logger, input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, unavailability)
}
