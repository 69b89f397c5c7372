package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/soaringjerry/Empatia/internal/middleware"
	"github.com/soaringjerry/Empatia/internal/services"
	"github.com/soaringjerry/Empatia/internal/utils"
)

// GET /api/questions
func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	c, err := rt.deps.Catalog.Catalog(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// POST /api/responses {"responses":[2,3,1,...]}
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Responses []int `json:"responses"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if len(req.Responses) == 0 {
		rt.writeError(w, r, services.NewValidationError("responses required"))
		return
	}
	sub, err := rt.deps.Responses.Submit(r.Context(), req.Responses)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	view := describe(locale, sub.Profile)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"id":          sub.ID,
		"total":       sub.Total,
		"profile":     sub.Profile,
		"description": view.Description,
		"color":       view.Color,
		"message":     utils.T(locale, "response.saved"),
	})
}

// GET /api/responses
func (rt *Router) handleListResponses(w http.ResponseWriter, r *http.Request) {
	rs, err := rt.deps.Responses.List(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": rs, "count": len(rs)})
}

// GET /api/stats returns counts and percentages per profile.
func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	ps, err := rt.deps.Analytics.PercentagesByProfile(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	total := 0
	for _, p := range ps {
		total += p.Count
	}
	body := map[string]any{"total": total, "profiles": ps}
	if total == 0 {
		body["message"] = utils.T(middleware.LocaleFromContext(r.Context()), "stats.empty")
	}
	writeJSON(w, http.StatusOK, body)
}

func (rt *Router) handleSummary(w http.ResponseWriter, r *http.Request) {
	s, err := rt.deps.Analytics.SummaryStatistics(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GET /api/stats/timeline?days=N; a missing or non-positive N uses the configured window.
func (rt *Router) handleTimeline(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			rt.writeError(w, r, services.NewValidationError("days must be an integer"))
			return
		}
		days = n
	}
	pts, err := rt.deps.Analytics.DailyTimeline(r.Context(), days)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeline": pts})
}

func (rt *Router) handleDistribution(w http.ResponseWriter, r *http.Request) {
	d, err := rt.deps.Analytics.ScoreDistribution(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"distribution": d})
}

func (rt *Router) handleProfileStats(w http.ResponseWriter, r *http.Request) {
	ps, err := rt.deps.Analytics.ProfileStatistics(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": ps})
}

func (rt *Router) handleChart(w http.ResponseWriter, r *http.Request) {
	cs, err := rt.deps.Analytics.ChartSeries(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	body := map[string]any{"has_data": cs.HasData, "points": cs.Points}
	if !cs.HasData {
		body["message"] = utils.T(middleware.LocaleFromContext(r.Context()), "stats.empty")
	}
	writeJSON(w, http.StatusOK, body)
}

func (rt *Router) handleBundle(w http.ResponseWriter, r *http.Request) {
	b, err := rt.deps.Analytics.Bundle(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GET /api/export?format=json|yaml|csv
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	res, err := rt.deps.Exporter.Export(r.Context(), r.URL.Query().Get("format"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// POST /api/admin/login {"password": "..."}
func (rt *Router) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	tok, err := rt.deps.Admin.Login(req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// DELETE /api/admin/responses
func (rt *Router) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := rt.deps.Responses.ClearAll(r.Context()); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.ObserveClear()
	}
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": utils.T(locale, "responses.cleared")})
}
