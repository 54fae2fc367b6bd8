package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"auto_x_quote_publisher/composer"
	"auto_x_quote_publisher/generator"
	"auto_x_quote_publisher/workflow"
)

const requestTimeout = 90 * time.Second

type Server struct {
	genAgent   *generator.Agent
	flow       *workflow.Workflow
	theme      generator.Theme
	composer   *composer.Composer
	cronSecret string
	store      *sessionStore
	logger     *zap.Logger
}

// Options configures a Server.
type Options struct {
	Theme      generator.Theme
	Composer   *composer.Composer
	CronSecret string
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*generator.Session
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*generator.Session)}
}

func (s *sessionStore) set(id string, sess *generator.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

func (s *sessionStore) get(id string) (*generator.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func New(genAgent *generator.Agent, flow *workflow.Workflow, opts Options, logger *zap.Logger) (*Server, error) {
	if genAgent == nil {
		return nil, errors.New("generator agent required")
	}
	if flow == nil {
		return nil, errors.New("workflow required")
	}
	if opts.Composer == nil {
		opts.Composer = composer.New(composer.DefaultBudget)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		genAgent:   genAgent,
		flow:       flow,
		theme:      opts.Theme,
		composer:   opts.Composer,
		cronSecret: opts.CronSecret,
		store:      newStore(),
		logger:     logger,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/generate", s.authorized(s.handleGenerate))
	mux.Handle("/post", s.authorized(s.handlePost))
	mux.Handle("/scheduled", s.authorized(s.handleScheduled))
	mux.HandleFunc("/api/compose", s.handleCompose)
	mux.Handle("/api/sessions", s.authorized(s.handleSessionCreate))
	mux.Handle("/api/sessions/", s.authorized(s.handleSessionByID))
	return s.logMiddleware(mux)
}

// --- Handlers ---

type composeReq struct {
	composer.Post
	Budget *int `json:"budget,omitempty"`
}

type sessionCreateReq struct {
	Theme       string   `json:"theme"`
	Subtheme    string   `json:"subtheme"`
	Constraints []string `json:"constraints"`
}

type sessionResp struct {
	SessionID string            `json:"session_id"`
	Content   generator.Content `json:"content"`
	PostText  string            `json:"post_text"`
	History   []generator.Turn  `json:"history"`
}

type reviseReq struct {
	Comment string `json:"comment"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost, http.MethodGet) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	draft, err := s.flow.CreateDraft(ctx, nil)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeResult(w, draft)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost, http.MethodGet) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	posted, err := s.flow.PostLatestDraft(ctx)
	if errors.Is(err, workflow.ErrNoDraft) {
		s.fail(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.fail(w, http.StatusBadGateway, err)
		return
	}
	writeResult(w, posted)
}

func (s *Server) handleScheduled(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost, http.MethodGet) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	posted, err := s.flow.CreateAndPost(ctx)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeResult(w, posted)
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req composeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	c := *s.composer
	if req.Budget != nil {
		c.Budget = *req.Budget
	}
	writeResult(w, c.Compose(req.Post))
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req sessionCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	theme := s.theme
	if req.Theme != "" {
		theme.Theme = req.Theme
	}
	if req.Subtheme != "" {
		theme.Subtheme = req.Subtheme
	}
	theme.Constraints = append(append([]string(nil), s.theme.Constraints...), req.Constraints...)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	recent, err := s.flow.Recent(ctx)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	id := uuid.NewString()
	sess := generator.NewSession(id, theme, recent, s.genAgent)
	if _, err := sess.Propose(ctx); err != nil {
		s.fail(w, http.StatusBadGateway, err)
		return
	}
	s.store.set(id, sess)
	writeResult(w, s.sessionResp(sess))
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	sess, ok := s.store.get(id)
	if !ok {
		s.fail(w, http.StatusNotFound, errors.New("session not found"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeResult(w, s.sessionResp(sess))
	case http.MethodPost:
		var req reviseReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, http.StatusBadRequest, err)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		if _, err := sess.Revise(ctx, req.Comment); err != nil {
			s.fail(w, http.StatusBadGateway, err)
			return
		}
		writeResult(w, s.sessionResp(sess))
	default:
		s.fail(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// --- Helpers ---

func (s *Server) sessionResp(sess *generator.Session) sessionResp {
	content, history := sess.Snapshot()
	text, _ := s.flow.Compose(content)
	return sessionResp{SessionID: sess.ID, Content: content, PostText: text, History: history}
}

// authorized requires the cron secret, from the X-Cron-Secret header or the
// secret query parameter, when one is configured.
func (s *Server) authorized(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cronSecret != "" {
			got := r.Header.Get("X-Cron-Secret")
			if got == "" {
				got = r.URL.Query().Get("secret")
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.cronSecret)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "Unauthorized"})
				return
			}
		}
		next(w, r)
	})
}

func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
	return false
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
}

func writeResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
