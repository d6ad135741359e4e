package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/healthmonitor/internal/domain"
	"github.com/hamed0406/healthmonitor/internal/history"
	apimw "github.com/hamed0406/healthmonitor/internal/httpapi/middleware"
	"github.com/hamed0406/healthmonitor/internal/httpapi/respond"
	"github.com/hamed0406/healthmonitor/internal/scheduler"
)

type HealthChecker interface {
	CheckAll(ctx context.Context) domain.Snapshot
	CheckCategory(ctx context.Context, c domain.Category) (domain.Snapshot, error)
}

type Scheduler interface {
	RunNow(ctx context.Context) (domain.Snapshot, error)
	Status() scheduler.CronStatus
}

type HistoryReader interface {
	History(ctx context.Context, w history.Window, filter domain.Category) ([]domain.Record, error)
	Statistics(ctx context.Context, w history.Window, filter domain.Category) (domain.Statistics, error)
}

type Server struct {
	Logger    *zap.Logger
	Health    HealthChecker
	Scheduler Scheduler
	History   HistoryReader
	Gatherer  prometheus.Gatherer
	Now       func() time.Time
	Location  *time.Location
}

func NewServer(l *zap.Logger, h HealthChecker, s Scheduler, hr HistoryReader, g prometheus.Gatherer) *Server {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return &Server{
		Logger:    l,
		Health:    h,
		Scheduler: s,
		History:   hr,
		Gatherer:  g,
		Now:       time.Now,
		Location:  time.UTC,
	}
}

// Router wires the HTTP API. Read endpoints need any configured key, the
// manual trigger needs an admin key; with no keys configured everything is
// open.
func (s *Server) Router(keys apimw.Keys, origins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(origins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(pubRPM, pubBurst), apimw.Require(keys, apimw.Public))

			r.Get("/", s.handleHealth)
			r.Get("/cron-status", s.handleCronStatus)
			r.Get("/history/last-days", s.handleHistoryLastDays)
			r.Get("/history/range", s.handleHistoryRange)
			r.Get("/history/day", s.handleHistoryDay)
			r.Get("/stats/last-days", s.handleStatsLastDays)
			r.Get("/stats/range", s.handleStatsRange)
			r.Get("/{category}", s.handleCategory)
		})

		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(admRPM, admBurst), apimw.Require(keys, apimw.Admin))
			r.Post("/check-now", s.handleCheckNow)
		})
	})

	return r
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// GET /health and GET /health/{category} answer 503 when the verdict is down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.Health.CheckAll(r.Context())
	respond.JSON(w, snapshotCode(snap), snap)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	c, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "unknown category")
		return
	}
	snap, err := s.Health.CheckCategory(r.Context(), c)
	if err != nil {
		s.fail(w, err)
		return
	}
	respond.JSON(w, snapshotCode(snap), snap)
}

func snapshotCode(snap domain.Snapshot) int {
	if snap.OverallStatus == domain.StatusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (s *Server) handleCheckNow(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Scheduler.RunNow(r.Context())
	if err != nil {
		s.Logger.Error("check_now_failed", zap.Error(err))
		respond.JSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Failed to perform health check",
			"error":   err.Error(),
		})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Health check completed and saved",
		"data":    snap,
	})
}

func (s *Server) handleCronStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    s.Scheduler.Status(),
	})
}

func (s *Server) handleHistoryLastDays(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", nil)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.serveHistory(w, r, history.LastDays(days))
}

func (s *Server) handleHistoryRange(w http.ResponseWriter, r *http.Request) {
	win, err := rangeWindow(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.serveHistory(w, r, win)
}

func (s *Server) handleHistoryDay(w http.ResponseWriter, r *http.Request) {
	zero := 0
	daysAgo, err := intParam(r, "daysAgo", &zero)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.serveHistory(w, r, history.Day(daysAgo))
}

func (s *Server) handleStatsLastDays(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", nil)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.serveStats(w, r, history.LastDays(days))
}

func (s *Server) handleStatsRange(w http.ResponseWriter, r *http.Request) {
	win, err := rangeWindow(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.serveStats(w, r, win)
}

func (s *Server) serveHistory(w http.ResponseWriter, r *http.Request, win history.Window) {
	filter, err := filterParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	recs, err := s.History.History(r.Context(), win, filter)
	if err != nil {
		s.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    recs,
		"count":   len(recs),
		"period":  s.period(win),
		"filter":  filterName(filter),
	})
}

func (s *Server) serveStats(w http.ResponseWriter, r *http.Request, win history.Window) {
	filter, err := filterParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	st, err := s.History.Statistics(r.Context(), win, filter)
	if err != nil {
		s.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    st,
		"period":  s.period(win),
		"filter":  filterName(filter),
	})
}

func (s *Server) period(win history.Window) map[string]string {
	start, end := win.Resolve(s.Now(), s.Location)
	return map[string]string{
		"startDate": start.Format(time.DateOnly),
		"endDate":   end.Format(time.DateOnly),
	}
}

// fail maps validation errors to 400 and everything else to 500.
func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrValidation) {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s.Logger.Error("request_failed", zap.Error(err))
	respond.Error(w, http.StatusInternalServerError, "internal error")
}

func rangeWindow(r *http.Request) (history.Window, error) {
	start, err := intParam(r, "startDays", nil)
	if err != nil {
		return history.Window{}, err
	}
	zero := 0
	end, err := intParam(r, "endDays", &zero)
	if err != nil {
		return history.Window{}, err
	}
	return history.Range(start, end), nil
}

// intParam parses an integer query parameter. A nil def makes it required.
func intParam(r *http.Request, name string, def *int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if def != nil {
			return *def, nil
		}
		return 0, &paramError{name: name, msg: "is required"}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, msg: "must be an integer"}
	}
	return n, nil
}

func filterParam(r *http.Request) (domain.Category, error) {
	raw := r.URL.Query().Get("filter")
	if raw == "" {
		return "", nil
	}
	return domain.ParseCategory(raw)
}

func filterName(c domain.Category) string {
	if c == "" {
		return "all"
	}
	return string(c)
}

type paramError struct {
	name, msg string
}

func (e *paramError) Error() string { return e.name + " " + e.msg }
func (e *paramError) Unwrap() error { return domain.ErrValidation }
