package api

import (
	"net/http"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/workout"
)

func (h *Handler) registerWorkoutRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/workouts/templates", h.read(h.templates))
	mux.HandleFunc("GET /v1/workouts/exercises", h.read(h.exercises))
	mux.HandleFunc("GET /v1/workouts/session", h.read(h.currentSession))
	mux.HandleFunc("POST /v1/workouts/session", h.write(h.startSession))
	mux.HandleFunc("DELETE /v1/workouts/session", h.write(h.discardSession))
	mux.HandleFunc("POST /v1/workouts/session/pause", h.write(h.pauseSession))
	mux.HandleFunc("POST /v1/workouts/session/resume", h.write(h.resumeSession))
	mux.HandleFunc("POST /v1/workouts/session/exercises", h.write(h.completeExercise))
	mux.HandleFunc("POST /v1/workouts/session/end", h.write(h.endSession))
	mux.HandleFunc("GET /v1/workouts", h.read(h.workoutHistory))
	mux.HandleFunc("POST /v1/workouts", h.write(h.logWorkout))
	mux.HandleFunc("GET /v1/workouts/stats", h.read(h.workoutStats))
	mux.HandleFunc("GET /v1/workouts/records", h.read(h.personalRecords))
	mux.HandleFunc("GET /v1/workouts/{id}", h.read(h.getWorkout))
	mux.HandleFunc("PATCH /v1/workouts/{id}", h.write(h.updateWorkout))
	mux.HandleFunc("DELETE /v1/workouts/{id}", h.write(h.deleteWorkout))
}

func (h *Handler) templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Workouts().Catalog().Templates())
}

func (h *Handler) exercises(w http.ResponseWriter, r *http.Request) {
	catalog := h.svc.Workouts().Catalog()
	q := r.URL.Query()
	if category := q.Get("category"); category != "" {
		c := domain.WorkoutCategory(category)
		if !c.Valid() {
			writeError(w, http.StatusBadRequest, "validation_failed", "unknown category "+category)
			return
		}
		writeJSON(w, http.StatusOK, catalog.ByCategory(c))
		return
	}
	limit, ok := intParam(w, r, "limit", 0)
	if !ok {
		return
	}
	if query := q.Get("q"); query != "" {
		writeJSON(w, http.StatusOK, catalog.Search(query, limit))
		return
	}
	writeJSON(w, http.StatusOK, catalog.Exercises())
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.svc.Workouts().Current()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no workout in progress")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req workout.StartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	session, err := h.svc.Workouts().Start(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) discardSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Workouts().Discard(); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pauseSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Workouts().Pause()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) resumeSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Workouts().Resume()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) completeExercise(w http.ResponseWriter, r *http.Request) {
	var done domain.CompletedExercise
	if !decodeBody(w, r, &done) {
		return
	}
	session, err := h.svc.Workouts().CompleteExercise(done)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// EndSessionRequest is the payload for POST /v1/workouts/session/end.
type EndSessionRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	var req EndSessionRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	record, err := h.svc.Workouts().End(r.Context(), req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) workoutHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := intParam(w, r, "limit", workout.DefaultPageSize)
	if !ok {
		return
	}
	page, err := h.svc.Workouts().History(r.Context(), workout.Filter{
		Category:  domain.WorkoutCategory(q.Get("category")),
		StartDate: q.Get("start"),
		EndDate:   q.Get("end"),
		Limit:     limit,
		Cursor:    q.Get("cursor"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) logWorkout(w http.ResponseWriter, r *http.Request) {
	var record domain.WorkoutRecord
	if !decodeBody(w, r, &record) {
		return
	}
	saved, err := h.svc.LogWorkout(r.Context(), record)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) workoutStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Workouts().Stats(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) personalRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.Workouts().PersonalRecords(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) getWorkout(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.Workouts().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) updateWorkout(w http.ResponseWriter, r *http.Request) {
	var patch workout.Patch
	if !decodeBody(w, r, &patch) {
		return
	}
	record, err := h.svc.Workouts().Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) deleteWorkout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Workouts().Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
