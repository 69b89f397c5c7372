package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/soaringjerry/Empatia/internal/logger"
	"github.com/soaringjerry/Empatia/internal/metrics"
	"github.com/soaringjerry/Empatia/internal/middleware"
	"github.com/soaringjerry/Empatia/internal/services"
	"github.com/soaringjerry/Empatia/internal/utils"
)

const maxBodyBytes = 1 << 20

// BuildInfo is reported by /health and /version.
type BuildInfo struct {
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Deps are the collaborators the HTTP layer is built from. Metrics and StaticDir
// are optional.
type Deps struct {
	Store     Store
	Responses *services.ResponseService
	Analytics *services.AnalyticsService
	Exporter  *services.ExportService
	Catalog   *services.CatalogService
	Board     *services.BoardService
	Admin     *services.AdminAuthService
	Auth      *middleware.TokenAuth
	Metrics   *metrics.Manager
	Log       logger.Logger
	Build     BuildInfo
	StaticDir string

	// AssetMaxAge is how long browsers may cache static assets.
	AssetMaxAge time.Duration
}

type Router struct {
	deps Deps
	log  logger.Logger
}

func NewRouter(d Deps) *Router {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Router{deps: d, log: log.Named("api")}
}

// Handler assembles the routes and the global middleware chain.
func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()
	var obs middleware.RequestObserver
	if rt.deps.Metrics != nil {
		obs = rt.deps.Metrics
	}
	r.Use(middleware.RequestID, middleware.AccessLog(rt.log, obs))

	r.HandleFunc("/health", rt.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/version", rt.handleVersion).Methods(http.MethodGet)
	if rt.deps.Metrics != nil {
		r.Handle("/metrics", rt.deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/questions", rt.handleQuestions).Methods(http.MethodGet)
	a.HandleFunc("/responses", rt.handleSubmit).Methods(http.MethodPost)
	a.HandleFunc("/responses", rt.handleListResponses).Methods(http.MethodGet)

	a.HandleFunc("/stats", rt.handleStats).Methods(http.MethodGet)
	a.HandleFunc("/stats/summary", rt.handleSummary).Methods(http.MethodGet)
	a.HandleFunc("/stats/timeline", rt.handleTimeline).Methods(http.MethodGet)
	a.HandleFunc("/stats/distribution", rt.handleDistribution).Methods(http.MethodGet)
	a.HandleFunc("/stats/profiles", rt.handleProfileStats).Methods(http.MethodGet)
	a.HandleFunc("/stats/chart", rt.handleChart).Methods(http.MethodGet)
	a.HandleFunc("/stats/bundle", rt.handleBundle).Methods(http.MethodGet)
	a.HandleFunc("/export", rt.handleExport).Methods(http.MethodGet)

	a.HandleFunc("/admin/login", rt.handleAdminLogin).Methods(http.MethodPost)
	a.Handle("/admin/responses", rt.deps.Auth.RequireAdmin(http.HandlerFunc(rt.handleClear))).Methods(http.MethodDelete)

	a.HandleFunc("/schools", rt.handleListSchools).Methods(http.MethodGet)
	a.HandleFunc("/schools/{id:[0-9]+}", rt.handleGetSchool).Methods(http.MethodGet)
	a.HandleFunc("/schools/{id:[0-9]+}/posts", rt.handleSchoolPosts).Methods(http.MethodGet)
	a.HandleFunc("/users", rt.handleCreateUser).Methods(http.MethodPost)
	a.HandleFunc("/users/{id:[0-9]+}", rt.handleGetUser).Methods(http.MethodGet)
	a.HandleFunc("/posts", rt.handleListPosts).Methods(http.MethodGet)
	a.HandleFunc("/posts", rt.handleCreatePost).Methods(http.MethodPost)
	a.HandleFunc("/posts/{id:[0-9]+}", rt.handleGetPost).Methods(http.MethodGet)
	a.HandleFunc("/posts/{id:[0-9]+}/resolve", rt.handleResolvePost).Methods(http.MethodPost)
	a.HandleFunc("/posts/{id:[0-9]+}/comments", rt.handleListComments).Methods(http.MethodGet)
	a.HandleFunc("/posts/{id:[0-9]+}/comments", rt.handleAddComment).Methods(http.MethodPost)

	if rt.deps.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(rt.deps.StaticDir)))
	}

	cacheControl := middleware.CacheControl(rt.deps.AssetMaxAge)
	return middleware.SecureHeaders(middleware.CORS(cacheControl(middleware.LocaleMiddleware(r))))
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	status := http.StatusOK
	ok := true
	if p, isPinger := rt.deps.Store.(Pinger); isPinger {
		if err := p.Ping(r.Context()); err != nil {
			rt.log.Warn(r.Context(), "health ping", logger.Error(err))
			status, ok = http.StatusServiceUnavailable, false
		}
	}
	msg := utils.T(locale, "health.ok")
	if !ok {
		msg = utils.T(locale, "error.persistence")
	}
	writeJSON(w, status, map[string]any{
		"ok":         ok,
		"name":       "Empatia API",
		"locale":     locale,
		"msg":        msg,
		"commit":     rt.deps.Build.Commit,
		"build_time": rt.deps.Build.BuildTime,
	})
}

func (rt *Router) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.deps.Build)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorValidation, services.ErrorUnsupportedFormat:
		return http.StatusBadRequest
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with {"code","error"} where error is localized. Validation
// failures also carry the service message as detail.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	se, ok := services.AsServiceError(err)
	if !ok {
		rt.log.Error(r.Context(), "unhandled error", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"code":  "internal",
			"error": utils.T(locale, "error.internal"),
		})
		return
	}
	body := map[string]any{
		"code":  se.Code,
		"error": utils.T(locale, "error."+string(se.Code)),
	}
	switch se.Code {
	case services.ErrorValidation, services.ErrorUnsupportedFormat:
		body["detail"] = se.Message
	case services.ErrorPersistence:
		rt.log.Error(r.Context(), "persistence failure", logger.String("path", r.URL.Path), logger.Error(err))
	}
	writeJSON(w, statusFor(se.Code), body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return services.NewValidationError("request body required")
		}
		return services.NewValidationError("malformed JSON: " + err.Error())
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, services.NewValidationError("invalid id")
	}
	return id, nil
}

// profileView is a profile with its localized description and chart colour.
type profileView struct {
	Profile     services.Profile `json:"profile"`
	Description string           `json:"description"`
	Color       string           `json:"color"`
}

func describe(locale string, p services.Profile) profileView {
	desc := p.Description()
	if key := p.Key(); key != "" {
		if v, ok := utils.Lookup(locale, "profile."+key); ok {
			desc = v
		}
	}
	return profileView{Profile: p, Description: desc, Color: p.Color()}
}
