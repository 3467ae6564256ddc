package http

import (
	"net/http"
	"strconv"
	"time"

	"coding-trivia-service/internal/app"
	"coding-trivia-service/internal/domain"
	"coding-trivia-service/pkg/logger"
)

const defaultRequestTimeout = 10 * time.Second

// Observer receives one observation per served request.
type Observer interface {
	ObserveHTTP(route, method, code string, seconds float64)
}

type nopObserver struct{}

func (nopObserver) ObserveHTTP(string, string, string, float64) {}

// Handler exposes the scoring service over JSON/HTTP.
type Handler struct {
	service  *app.ScoringService
	log      logger.Logger
	observer Observer
	metrics  http.Handler
	timeout  time.Duration
}

type Option func(*Handler)

func WithLogger(l logger.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// WithObserver records request counts and latency. metricsHandler, when non-nil,
// is served on GET /metrics.
func WithObserver(o Observer, metricsHandler http.Handler) Option {
	return func(h *Handler) {
		h.observer = o
		h.metrics = metricsHandler
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func NewHandler(service *app.ScoringService, opts ...Option) *Handler {
	h := &Handler{
		service:  service,
		log:      logger.Named("http"),
		observer: nopObserver{},
		timeout:  defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the full HTTP surface wrapped in the request middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.handle(mux, "POST /api/participants/register", h.register)
	h.handle(mux, "GET /api/participants/{id}", h.getParticipant)
	h.handle(mux, "GET /api/participants/{id}/progress", h.progress)
	h.handle(mux, "GET /api/rounds", h.listRounds)
	h.handle(mux, "GET /api/rounds/{id}", h.getRound)
	h.handle(mux, "POST /api/submissions", h.submit)
	h.handle(mux, "GET /api/leaderboard", h.leaderboard)
	h.handle(mux, "GET /api/stats", h.stats)
	h.handle(mux, "GET /healthz", h.health)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
	h.handle(mux, "/", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})

	return requestID(h.withTimeout(mux))
}

func (h *Handler) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.Handle(pattern, h.instrument(pattern, fn))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req app.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, ParticipantID: &p.ID})
}

func (h *Handler) getParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "participant")
	if !ok {
		return
	}
	p, err := h.service.GetParticipant(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, p)
}

func (h *Handler) progress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "participant")
	if !ok {
		return
	}
	p, err := h.service.Progress(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, p)
}

func (h *Handler) listRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.service.ListRounds(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rounds == nil {
		rounds = []domain.RoundView{}
	}
	writeData(w, rounds)
}

func (h *Handler) getRound(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "round")
	if !ok {
		return
	}
	round, err := h.service.GetRound(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, round)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req app.SubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.service.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, res)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var limit *int
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = &n
	}
	entries, err := h.service.Leaderboard(r.Context(), q.Get("language"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.RankedEntry{}
	}
	writeData(w, entries)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.SystemStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if stats.Languages == nil {
		stats.Languages = []domain.LanguageCount{}
	}
	writeData(w, stats)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.log.Warn(r.Context(), "health check failed", logger.Error(err))
		writeMessage(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeData(w, map[string]string{"status": "ok"})
}

func pathID(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid "+what+" id")
		return 0, false
	}
	return id, true
}
