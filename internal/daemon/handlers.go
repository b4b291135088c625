package daemon

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/luxd/internal/audit"
	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
	"git.home.luguber.info/inful/luxd/internal/lighting"
	"git.home.luguber.info/inful/luxd/internal/logfields"
	"git.home.luguber.info/inful/luxd/internal/state"
)

// maxBodyBytes caps request bodies; the largest legitimate payload is a
// full schedule list.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// scheduleData mirrors the frontend's nested schedule envelope.
type scheduleData struct {
	ScheduleCount int                 `json:"scheduleCount"`
	Schedules     []lighting.Schedule `json:"schedules"`
}

// stateRequest is the POST /api/state body. Nil sections are partial
// updates that leave the store's corresponding field untouched.
type stateRequest struct {
	Lighting     *lighting.Vector `json:"lighting"`
	ScheduleData *struct {
		Schedules []lighting.Schedule `json:"schedules"`
	} `json:"scheduleData"`
}

func (s *HTTPServer) handleGetState(w http.ResponseWriter, r *http.Request) {
	vector, schedules := s.d.store.Get()
	writeJSON(w, http.StatusOK, map[string]any{
		"lighting":     vector,
		"scheduleData": scheduleData{ScheduleCount: len(schedules), Schedules: schedules},
	})
}

func (s *HTTPServer) handlePostState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.adapter.WriteErrorResponse(w, r, luxerrors.ValidationFailed("body", "unreadable"))
		return
	}

	var req stateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.adapter.WriteErrorResponse(w, r, luxerrors.ValidationFailed("body", err.Error()))
		return
	}

	origin := requestOrigin(r)
	if !s.d.arbiter.Admit(origin) {
		s.d.metrics.WritesRejectedTotal.Inc()
		s.adapter.WriteErrorResponse(w, r, luxerrors.RemoteLocked())
		return
	}

	update := lighting.StateUpdate{Lighting: req.Lighting}
	if req.ScheduleData != nil {
		update.Schedules = &req.ScheduleData.Schedules
	}

	if err := s.d.store.Apply(r.Context(), update, origin); err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}
	s.d.metrics.WritesTotal.WithLabelValues(string(origin)).Inc()

	// Echo the body back verbatim so callers can verify what was applied.
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"received": json.RawMessage(body),
	})
}

func (s *HTTPServer) handleGetLock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"local_lock": s.d.arbiter.LockedForRemote(),
	})
}

func (s *HTTPServer) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.d.profiles.List()
	if err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]lighting.Profile{"profiles": profiles})
}

func (s *HTTPServer) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   *string          `json:"name"`
		Values *lighting.Vector `json:"values"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Name == nil {
		s.adapter.WriteErrorResponse(w, r, luxerrors.MissingField("name"))
		return
	}
	if req.Values == nil {
		s.adapter.WriteErrorResponse(w, r, luxerrors.MissingField("values"))
		return
	}

	if err := s.d.profiles.Create(*req.Name, *req.Values); err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}
	s.audit("Profile '"+*req.Name+"' created", logfields.Profile(*req.Name))
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (s *HTTPServer) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.d.profiles.Delete(req.Name); err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}
	s.audit("Profile '"+req.Name+"' deleted", logfields.Profile(req.Name))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *HTTPServer) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.d.schedules.List()
	if err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]lighting.Schedule{"schedules": schedules})
}

func (s *HTTPServer) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var fields state.ScheduleFields
	if !s.decodeBody(w, r, &fields) {
		return
	}

	sched, err := s.d.schedules.Create(fields)
	if err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}
	s.audit("Schedule '"+sched.Title+"' created", logfields.ScheduleID(sched.ID))
	s.resyncSchedules()
	writeJSON(w, http.StatusCreated, map[string]any{"status": "created", "schedule": sched})
}

func (s *HTTPServer) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID *string `json:"id"`
		state.ScheduleFields
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.ID == nil {
		s.adapter.WriteErrorResponse(w, r, luxerrors.MissingField("id"))
		return
	}

	sched, err := s.d.schedules.Update(*req.ID, req.ScheduleFields)
	if err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}
	s.audit("Schedule '"+sched.Title+"' updated", logfields.ScheduleID(sched.ID))
	s.resyncSchedules()
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated", "schedule": sched})
}

func (s *HTTPServer) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.d.schedules.Delete(req.ID); err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}
	s.audit("Schedule "+req.ID+" deleted", logfields.ScheduleID(req.ID))
	s.resyncSchedules()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleReadLog serves one history log, oldest first.
func (s *HTTPServer) handleReadLog(log *audit.HistoryLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := log.Read()
		if err != nil {
			s.adapter.WriteErrorResponse(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]audit.Entry{"history": entries})
	}
}

func (s *HTTPServer) handleAppendLog(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
		Status string `json:"status"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.d.eventLog.Append(req.Action, audit.Status(req.Status)); err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "logged"})
}

func (s *HTTPServer) handleQueryArchive(w http.ResponseWriter, r *http.Request) {
	if s.d.archive == nil {
		s.adapter.WriteErrorResponse(w, r,
			luxerrors.New(luxerrors.CategoryNotFound, luxerrors.SeverityInfo, "audit archive not enabled"))
		return
	}

	since := time.Time{}
	until := time.Now()
	var err error
	if v := r.URL.Query().Get("since"); v != "" {
		if since, err = time.Parse(time.RFC3339, v); err != nil {
			s.adapter.WriteErrorResponse(w, r, luxerrors.ValidationFailed("since", "must be RFC3339"))
			return
		}
	}
	if v := r.URL.Query().Get("until"); v != "" {
		if until, err = time.Parse(time.RFC3339, v); err != nil {
			s.adapter.WriteErrorResponse(w, r, luxerrors.ValidationFailed("until", "must be RFC3339"))
			return
		}
	}

	entries, err := s.d.archive.Range(r.Context(), since, until)
	if err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string][]audit.Entry{"history": entries})
}

func (s *HTTPServer) handleStateRequest(w http.ResponseWriter, r *http.Request) {
	s.d.hub.PushCurrent()
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resyncSchedules rebuilds executor jobs after any schedule CRUD.
func (s *HTTPServer) resyncSchedules() {
	if s.d.executor == nil {
		return
	}
	if err := s.d.executor.Resync(); err != nil {
		slog.Warn("schedule resync failed", logfields.Error(err))
	}
}

// decodeBody parses a JSON body, writing the validation error itself
// when parsing fails.
func (s *HTTPServer) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		s.adapter.WriteErrorResponse(w, r, luxerrors.ValidationFailed("body", err.Error()))
		return false
	}
	return true
}

// audit appends a success entry to the event history; failures are
// logged but never fail the request that triggered them.
func (s *HTTPServer) audit(action string, attrs ...any) {
	if err := s.d.eventLog.Append(action, audit.StatusSuccess); err != nil {
		args := append([]any{logfields.Error(err)}, attrs...)
		slog.Warn("audit entry not written", args...)
	}
}
