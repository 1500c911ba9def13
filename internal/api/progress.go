package api

import (
	"net/http"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/progress"
)

func (h *Handler) registerProgressRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/achievements", h.read(h.achievementSummary))
	mux.HandleFunc("GET /v1/achievements/catalog", h.read(h.achievementCatalog))
	mux.HandleFunc("GET /v1/achievements/available", h.read(h.availableAchievements))
	mux.HandleFunc("GET /v1/achievements/{id}/progress", h.read(h.achievementProgress))
	mux.HandleFunc("POST /v1/achievements/{id}/share", h.write(h.shareAchievement))
	mux.HandleFunc("POST /v1/achievements/reset", h.write(h.resetAchievements))
	mux.HandleFunc("POST /v1/encouragements", h.write(h.encourage))
	mux.HandleFunc("GET /v1/streak", h.read(h.streak))
	mux.HandleFunc("GET /v1/progress/weekly", h.read(h.weeklyStats))
	mux.HandleFunc("GET /v1/progress/monthly", h.read(h.monthlyStats))
}

func (h *Handler) achievementSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Progress().Summary(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) achievementCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Achievements().Catalog().All())
}

func (h *Handler) availableAchievements(w http.ResponseWriter, r *http.Request) {
	available, err := h.svc.Progress().Available(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if available == nil {
		available = []progress.AvailableAchievement{}
	}
	writeJSON(w, http.StatusOK, available)
}

// AchievementProgress reports progress toward one definition.
type AchievementProgress struct {
	ID       string  `json:"id"`
	Progress float64 `json:"progress"`
	Earned   bool    `json:"earned"`
}

func (h *Handler) achievementProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.svc.Progress().ProgressToward(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	earned, err := h.svc.Achievements().Earned(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AchievementProgress{ID: id, Progress: p, Earned: earned})
}

func (h *Handler) shareAchievement(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Achievements().Share(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res.New = nonNil(res.New)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) resetAchievements(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Achievements().Reset(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) encourage(w http.ResponseWriter, r *http.Request) {
	awarded, err := h.svc.Achievements().Encourage(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AwardsResponse{Awarded: nonNil(awarded)})
}

// StreakResponse combines the persisted streak with the live count.
type StreakResponse struct {
	domain.StreakState
	Live int `json:"live"`
}

func (h *Handler) streak(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Streak().State(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	live, err := h.svc.Streak().LiveStreak(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StreakResponse{StreakState: state, Live: live})
}

func (h *Handler) weeklyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Progress().WeeklyStats(r.Context(), r.URL.Query().Get("start"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) monthlyStats(w http.ResponseWriter, r *http.Request) {
	year, ok := intParam(w, r, "year", 0)
	if !ok {
		return
	}
	month, ok := intParam(w, r, "month", 0)
	if !ok {
		return
	}
	stats, err := h.svc.Progress().MonthlyStats(r.Context(), year, time.Month(month))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) healthSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Progress().HealthSummary(r.Context(), h.svc.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) healthTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := h.svc.Progress().WeeklyHealthTrends(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

// EnergyResponse carries BMR, TDEE and the calorie goal for the requested kind.
type EnergyResponse struct {
	progress.Energy
	Goal        string `json:"goal"`
	CalorieGoal int    `json:"calorieGoal"`
}

func (h *Handler) energy(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Store().Profile(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	e, err := progress.ComputeEnergy(profile)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	kind := r.URL.Query().Get("goal")
	if kind == "" {
		kind = progress.GoalMaintain
	}
	target, err := progress.CalorieGoal(e, kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EnergyResponse{Energy: e, Goal: kind, CalorieGoal: target})
}
