package v1

import (
	"net/http"
	"time"

	"github.com/vmunix/reelview/internal/events"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", err.Error())
		return
	}
	limit = min(limit, maxLimit)

	raws, err := s.deps.EventLog.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toEventsResponse(raws))
}

func (s *Server) listMovieEvents(w http.ResponseWriter, r *http.Request) {
	raws, err := s.deps.EventLog.ForEntity(events.EntityMovie, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toEventsResponse(raws))
}

func toEventsResponse(raws []events.RawEvent) listEventsResponse {
	resp := listEventsResponse{
		Items: make([]EventResponse, len(raws)),
		Total: len(raws),
	}
	for i, e := range raws {
		resp.Items[i] = EventResponse{
			ID:         e.ID,
			EventType:  e.EventType,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			OccurredAt: e.OccurredAt.Format(time.RFC3339),
		}
	}
	return resp
}
