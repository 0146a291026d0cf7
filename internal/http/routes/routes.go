package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/newsgpt/actions"
	"github.com/briangreenhill/newsgpt/internal/jobs"
	"github.com/briangreenhill/newsgpt/newsapi"
)

const (
	sessionCountryKey = "country"
	maxPageSize       = 100
)

// News is the service surface the HTTP layer exposes.
type News interface {
	SearchNews(ctx context.Context, p newsapi.QueryParams) ([]newsapi.Article, error)
	TopHeadlines(ctx context.Context, p newsapi.QueryParams) ([]newsapi.Article, error)
	ClearCache(ctx context.Context)
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Server struct {
	Router  *chi.Mux
	News    News
	Sess    *scs.SessionManager
	Queue   Enqueuer
	Actions *actions.Registry
	Logger  zerolog.Logger
}

type ServerOptions struct {
	News News
	Sess *scs.SessionManager
	// Queue is optional; without it cache warming answers 503.
	Queue Enqueuer
	// Actions is optional; without it /v1/ask is not mounted.
	Actions *actions.Registry
	Logger  zerolog.Logger
}

func New(opts ServerOptions) *Server {
	if opts.Sess == nil {
		opts.Sess = scs.New()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", chimw.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled.")
	}))
	r.Use(chimw.Recoverer)
	r.Use(opts.Sess.LoadAndSave)

	s := &Server{
		Router:  r,
		News:    opts.News,
		Sess:    opts.Sess,
		Queue:   opts.Queue,
		Actions: opts.Actions,
		Logger:  opts.Logger.With().Str("component", "HTTP").Logger(),
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			s.Logger.Error().Err(err).Msg("Error writing health check response.")
		}
	})

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/search", s.handleSearch)
		v1.Get("/headlines", s.handleHeadlines)
		v1.Put("/preferences", s.handlePreferences)
		v1.Delete("/cache", s.handleClearCache)
		v1.Post("/cache/warm", s.handleWarm)
		if s.Actions != nil {
			v1.Post("/ask", s.handleAsk)
		}
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

type articlesResponse struct {
	Articles []newsapi.Article `json:"articles"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageSize, err := parsePageSize(q.Get("pageSize"))
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	articles, err := s.News.SearchNews(r.Context(), newsapi.QueryParams{
		Query:    q.Get("q"),
		Language: q.Get("language"),
		PageSize: pageSize,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, articlesResponse{Articles: articles})
}

func (s *Server) handleHeadlines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageSize, err := parsePageSize(q.Get("pageSize"))
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	country := strings.ToLower(q.Get("country"))
	if country == "" {
		country = s.Sess.GetString(r.Context(), sessionCountryKey)
	}

	articles, err := s.News.TopHeadlines(r.Context(), newsapi.QueryParams{
		Country:  country,
		Category: q.Get("category"),
		PageSize: pageSize,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, articlesResponse{Articles: articles})
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	country := strings.ToLower(strings.TrimSpace(r.FormValue("country")))
	if !validCountry(country) {
		s.badRequest(w, "country must be a two letter code")
		return
	}
	s.Sess.Put(r.Context(), sessionCountryKey, country)
	s.writeJSON(w, http.StatusOK, map[string]string{"country": country})
}

// handleClearCache clears this process's cache and, when a queue is
// configured, asks the worker to clear the cache it holds.
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.News.ClearCache(r.Context())
	if s.Queue != nil {
		info, err := s.Queue.EnqueueContext(r.Context(), jobs.NewClearCacheTask())
		if err != nil {
			s.Logger.Warn().Err(err).Msg("Failed to enqueue worker cache clear.")
		} else {
			s.Logger.Info().Str("task_id", info.ID).Msg("Enqueued worker cache clear.")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWarm(w http.ResponseWriter, r *http.Request) {
	if s.Queue == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "job queue not configured", Kind: "unavailable"})
		return
	}
	q := r.URL.Query()
	pageSize, err := parsePageSize(q.Get("pageSize"))
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	task, id, err := jobs.NewWarmHeadlinesTask(jobs.WarmHeadlinesPayload{
		Country:  strings.ToLower(q.Get("country")),
		Category: q.Get("category"),
		PageSize: pageSize,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	info, err := s.Queue.EnqueueContext(r.Context(), task)
	if err != nil {
		s.Logger.Error().Err(err).Msg("Enqueue failed.")
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "failed to enqueue task", Kind: "unavailable"})
		return
	}
	s.Logger.Info().Str("task_id", info.ID).Str("queue", info.Queue).Msg("Enqueued warm task.")
	if info.ID != "" {
		id = info.ID
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id, "queue": info.Queue})
}

type askRequest struct {
	Message string `json:"message"`
	// Action optionally names the action instead of routing on the message.
	Action string `json:"action,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON body")
		return
	}

	var (
		action actions.Action
		ok     bool
	)
	if req.Action != "" {
		action, ok = s.Actions.Get(req.Action)
	} else {
		action, ok = s.Actions.Route(req.Message)
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no action matches the request", Kind: "not_found"})
		return
	}

	reply, err := action.Handle(r.Context(), req.Message)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("action", action.Name()).Msg("Action failed.")
	}
	// the reply carries the user-facing text either way
	s.writeJSON(w, http.StatusOK, struct {
		Action string `json:"action"`
		actions.Reply
	}{Action: action.Name(), Reply: reply})
}

type errorResponse struct {
	Error          string `json:"error"`
	Kind           string `json:"kind"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error(), Kind: "internal"}

	var e *newsapi.Error
	if errors.As(err, &e) {
		resp.Kind = e.Kind.String()
		switch e.Kind {
		case newsapi.KindUnavailable:
			status = http.StatusServiceUnavailable
		case newsapi.KindHTTP:
			status = http.StatusBadGateway
			resp.UpstreamStatus = e.StatusCode
		case newsapi.KindLogical, newsapi.KindValidation:
			status = http.StatusBadGateway
		}
	}
	if errors.Is(err, context.Canceled) {
		// client went away; nobody reads the body
		status = 499
	}

	hlog.FromRequest(r).Error().Err(err).Int("status", status).Msg("Request failed.")
	s.writeJSON(w, status, resp)
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Kind: "bad_request"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error().Err(err).Msg("Error writing JSON response.")
	}
}

func parsePageSize(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxPageSize {
		return 0, errors.New("pageSize must be an integer between 1 and 100")
	}
	return n, nil
}

func validCountry(c string) bool {
	if len(c) != 2 {
		return false
	}
	for _, r := range c {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
