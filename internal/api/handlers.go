// Package api exposes HTTP handlers for the fitness tracker.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"example.com/fittrack/internal/auth"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/tracker"
)

const maxImportBytes = 10 << 20

// Handler coordinates HTTP requests with the tracker service.
type Handler struct {
	svc *tracker.Service
}

// NewHandler builds a Handler.
func NewHandler(svc *tracker.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", healthz)

	mux.HandleFunc("GET /v1/profile", h.read(h.getProfile))
	mux.HandleFunc("PUT /v1/profile", h.write(h.putProfile))
	mux.HandleFunc("GET /v1/goals", h.read(h.getGoals))
	mux.HandleFunc("PUT /v1/goals", h.write(h.putGoals))
	mux.HandleFunc("GET /v1/settings", h.read(h.getSettings))
	mux.HandleFunc("PUT /v1/settings", h.write(h.putSettings))

	mux.HandleFunc("POST /v1/steps", h.write(h.addSteps))
	mux.HandleFunc("POST /v1/steps/calibrate", h.write(h.calibrate))
	mux.HandleFunc("GET /v1/steps/progress", h.read(h.stepProgress))
	mux.HandleFunc("GET /v1/steps/history", h.read(h.stepHistory))
	mux.HandleFunc("POST /v1/activity", h.write(h.recordActivity))
	mux.HandleFunc("GET /v1/activity/{date}", h.read(h.getRecord))
	mux.HandleFunc("POST /v1/water", h.write(h.logWater))
	mux.HandleFunc("GET /v1/water", h.read(h.waterProgress))
	mux.HandleFunc("POST /v1/sleep", h.write(h.logSleep))
	mux.HandleFunc("GET /v1/sleep", h.read(h.sleepProgress))
	mux.HandleFunc("GET /v1/health/summary", h.read(h.healthSummary))
	mux.HandleFunc("GET /v1/health/trends", h.read(h.healthTrends))
	mux.HandleFunc("GET /v1/health/energy", h.read(h.energy))

	h.registerWorkoutRoutes(mux)
	h.registerProgressRoutes(mux)

	mux.HandleFunc("POST /v1/checks/goals", h.write(h.checkGoals))
	mux.HandleFunc("POST /v1/checks/streak", h.write(h.checkStreak))
	mux.HandleFunc("GET /v1/schedule", h.read(h.schedule))
	mux.HandleFunc("GET /v1/export", h.read(h.export))
	mux.HandleFunc("POST /v1/import", h.write(h.importData))
	mux.HandleFunc("POST /v1/reset", h.write(h.reset))
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) read(next http.HandlerFunc) http.HandlerFunc {
	return requireScope(auth.ScopeRead, next)
}

func (h *Handler) write(next http.HandlerFunc) http.HandlerFunc {
	return requireScope(auth.ScopeWrite, next)
}

func requireScope(scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		if !claims.HasScope(scope) {
			writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
			return
		}
		next(w, r)
	}
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Store().Profile(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) putProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	profile, err := h.svc.Store().UpdateProfile(r.Context(), req.apply)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) getGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.svc.Store().Goals(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *Handler) putGoals(w http.ResponseWriter, r *http.Request) {
	var goals domain.Goals
	if !decodeBody(w, r, &goals) {
		return
	}
	if err := h.svc.Store().SetGoals(r.Context(), goals); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Store().Settings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if !decodeBody(w, r, &settings) {
		return
	}
	if err := h.svc.UpdateSettings(r.Context(), settings); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) addSteps(w http.ResponseWriter, r *http.Request) {
	var req StepsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.svc.AddSteps(r.Context(), req.Date, req.Steps)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) calibrate(w http.ResponseWriter, r *http.Request) {
	var req CalibrateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	factor, err := h.svc.Calibrate(r.Context(), req.Actual, req.Measured)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"stepCalibration": factor})
}

func (h *Handler) stepProgress(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Progress().StepProgress(r.Context(), h.dateParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) stepHistory(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(w, r, "days", 7)
	if !ok {
		return
	}
	out, err := h.svc.Progress().StepHistory(r.Context(), days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) recordActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	field, err := domain.ParseField(req.Field)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rec, err := h.svc.RecordActivity(r.Context(), req.Date, field, req.Value, req.Mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if date == "today" {
		date = h.svc.Store().Today()
	}
	if _, err := domain.ParseDate(date, h.svc.Store().Location()); err != nil {
		writeServiceError(w, err)
		return
	}
	rec, err := h.svc.Store().Record(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) logWater(w http.ResponseWriter, r *http.Request) {
	var req WaterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.svc.LogWater(r.Context(), req.Date, req.Glasses)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) waterProgress(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Progress().WaterProgress(r.Context(), h.dateParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) logSleep(w http.ResponseWriter, r *http.Request) {
	var req SleepRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.svc.LogSleep(r.Context(), req.Bedtime, req.WakeTime, req.Quality)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) sleepProgress(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Progress().SleepProgress(r.Context(), h.dateParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) checkGoals(w http.ResponseWriter, r *http.Request) {
	awarded, err := h.svc.CheckGoals(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AwardsResponse{Awarded: nonNil(awarded)})
}

func (h *Handler) checkStreak(w http.ResponseWriter, r *http.Request) {
	awarded, err := h.svc.CheckStreak(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AwardsResponse{Awarded: nonNil(awarded)})
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Scheduled())
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Export(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="fittrack-backup-`+h.svc.Store().Today()+`.json"`)
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) importData(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
		return
	}
	res, err := h.svc.Import(r.Context(), raw)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dateParam returns the date query parameter, defaulting to today.
func (h *Handler) dateParam(r *http.Request) string {
	if d := r.URL.Query().Get("date"); d != "" {
		return d
	}
	return h.svc.Store().Today()
}

func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid "+name+" parameter")
		return 0, false
	}
	return v, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	return true
}

func nonNil(awarded []domain.AwardedAchievement) []domain.AwardedAchievement {
	if awarded == nil {
		return []domain.AwardedAchievement{}
	}
	return awarded
}

// ProfileRequest is the payload for PUT /v1/profile. Absent fields keep their value.
type ProfileRequest struct {
	Name          *string  `json:"name"`
	Age           *int     `json:"age"`
	Gender        *string  `json:"gender"`
	HeightCm      *float64 `json:"height"`
	WeightKg      *float64 `json:"weight"`
	ActivityLevel *string  `json:"activityLevel"`
}

func (req ProfileRequest) apply(p *domain.UserProfile) error {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.HeightCm != nil {
		p.HeightCm = *req.HeightCm
	}
	if req.WeightKg != nil {
		p.WeightKg = *req.WeightKg
	}
	if req.ActivityLevel != nil {
		p.ActivityLevel = *req.ActivityLevel
	}
	return nil
}

// StepsRequest is the payload for POST /v1/steps.
type StepsRequest struct {
	Date  string `json:"date"`
	Steps int    `json:"steps"`
}

// CalibrateRequest is the payload for POST /v1/steps/calibrate.
type CalibrateRequest struct {
	Actual   int `json:"actual"`
	Measured int `json:"measured"`
}

// ActivityRequest is the payload for POST /v1/activity.
type ActivityRequest struct {
	Date  string  `json:"date"`
	Field string  `json:"field"`
	Value float64 `json:"value"`
	Mode  string  `json:"mode"`
}

// WaterRequest is the payload for POST /v1/water.
type WaterRequest struct {
	Date    string  `json:"date"`
	Glasses float64 `json:"glasses"`
}

// SleepRequest is the payload for POST /v1/sleep.
type SleepRequest struct {
	Bedtime  time.Time `json:"bedtime"`
	WakeTime time.Time `json:"wakeTime"`
	Quality  string    `json:"quality"`
}

// AwardsResponse lists achievements unlocked by a request.
type AwardsResponse struct {
	Awarded []domain.AwardedAchievement `json:"awarded"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidValue), errors.Is(err, domain.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrAlreadyInProgress):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
