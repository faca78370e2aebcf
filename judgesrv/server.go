// Package judgesrv is an in-process judge backend serving the same REST
// surface the api package consumes. It keeps everything in memory and
// exists for integration tests and for running the client against a local
// server without a real judge deployment. Code is accepted but never
// actually judged; submissions stay in the Waiting status.
package judgesrv

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"

	"github.com/penguin-judge/penguin-judge-go/api"
)

type storedUser struct {
	user         api.User
	passwordHash []byte
}

// Server implements http.Handler.
type Server struct {
	router   *chi.Mux
	jwtKey   []byte
	nowFn    func() time.Time
	logLevel slog.Level

	mu          sync.Mutex
	users       map[string]*storedUser
	envs        []api.Environment
	contests    map[string]api.Contest // problems kept inline
	submissions []api.Submission
	nextSubmID  int
}

type Option func(*Server)

// WithClock substitutes the time source used for contest status filters
// and submission timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.nowFn = now }
}

// WithLogLevel sets the request-log verbosity. Defaults to errors only so
// test output stays quiet.
func WithLogLevel(level slog.Level) Option {
	return func(s *Server) { s.logLevel = level }
}

func New(seed Seed, opts ...Option) (*Server, error) {
	jwtKey := make([]byte, 32)
	if _, err := rand.Read(jwtKey); err != nil {
		return nil, fmt.Errorf("generate jwt key: %w", err)
	}

	s := &Server{
		jwtKey:     jwtKey,
		nowFn:      time.Now,
		logLevel:   slog.LevelError,
		users:      make(map[string]*storedUser),
		envs:       seed.Environments,
		contests:   make(map[string]api.Contest),
		nextSubmID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, su := range seed.Users {
		hash, err := hashPassword(su.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", su.User.ID, err)
		}
		s.users[su.User.ID] = &storedUser{user: su.User, passwordHash: hash}
	}
	for _, c := range seed.Contests {
		s.contests[c.ID] = c
	}
	for _, subm := range seed.Submissions {
		if subm.ID >= s.nextSubmID {
			s.nextSubmID = subm.ID + 1
		}
		s.submissions = append(s.submissions, subm)
	}

	s.router = s.newRouter()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) newRouter() *chi.Mux {
	router := chi.NewRouter()

	reqLogger := httplog.NewLogger("judgesrv", httplog.Options{
		LogLevel: s.logLevel,
		Concise:  true,
	})
	router.Use(httplog.RequestLogger(reqLogger))

	router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}).Handler)

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth", s.login)
		r.Delete("/auth", s.logout)
		r.Get("/user", s.currentUser)
		r.Get("/environments", s.listEnvironments)
		r.Get("/contests", s.listContests)
		r.Get("/contests/{contestID}", s.getContest)
		r.Get("/contests/{contestID}/problems", s.listProblems)
		r.Get("/contests/{contestID}/submissions", s.listSubmissions)
		r.Post("/contests/{contestID}/submissions", s.createSubmission)
	})
	return router
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed login body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[body.ID]
	s.mu.Unlock()
	if !ok || !checkPassword(u.passwordHash, body.Password) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "id or password incorrect")
		return
	}

	now := s.nowFn()
	token, err := s.issueToken(u.user.ID, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_server_error", "token issue failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(tokenLifetime.Seconds()),
	})
	writeJSON(w, http.StatusOK, api.Token{
		Token:     token,
		ExpiresIn: int(tokenLifetime.Seconds()),
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if s.authenticate(w, r) == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name: tokenCookie, Value: "", Path: "/", MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	u := s.authenticate(w, r)
	if u == nil {
		return
	}
	writeJSON(w, http.StatusOK, u.user)
}

func (s *Server) listEnvironments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	envs := make([]api.Environment, len(s.envs))
	copy(envs, s.envs)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, envs)
}

func (s *Server) listContests(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", string(api.ContestRunning), string(api.ContestScheduled), string(api.ContestFinished):
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "unknown status filter")
		return
	}

	now := s.nowFn()
	s.mu.Lock()
	list := make([]api.Contest, 0, len(s.contests))
	for _, c := range s.contests {
		switch api.ContestStatus(status) {
		case api.ContestRunning:
			if !c.Running(now) {
				continue
			}
		case api.ContestScheduled:
			if c.Started(now) {
				continue
			}
		case api.ContestFinished:
			if !c.Finished(now) {
				continue
			}
		}
		c.Problems = nil
		list = append(list, c)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].StartTime.After(list[j].StartTime)
	})
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getContest(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.contests[chi.URLParam(r, "contestID")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no such contest")
		return
	}
	c.Problems = nil
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listProblems(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.contests[chi.URLParam(r, "contestID")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no such contest")
		return
	}
	problems := c.Problems
	if problems == nil {
		problems = []api.Problem{}
	}
	writeJSON(w, http.StatusOK, problems)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contests[contestID]; !ok {
		writeError(w, http.StatusNotFound, "not_found", "no such contest")
		return
	}
	list := make([]api.Submission, 0)
	for _, subm := range s.submissions {
		if subm.ContestID == contestID {
			list = append(list, subm)
		}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	u := s.authenticate(w, r)
	if u == nil {
		return
	}

	var body struct {
		ProblemID     string `json:"problem_id"`
		Code          string `json:"code"`
		EnvironmentID int    `json:"environment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed submission body")
		return
	}

	contestID := chi.URLParam(r, "contestID")
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contests[contestID]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no such contest")
		return
	}
	found := false
	for _, p := range c.Problems {
		if p.ID == body.ProblemID {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "no such problem")
		return
	}
	validEnv := false
	for _, e := range s.envs {
		if e.ID == body.EnvironmentID {
			validEnv = true
			break
		}
	}
	if !validEnv {
		writeError(w, http.StatusBadRequest, "bad_request", "unknown environment")
		return
	}

	subm := api.Submission{
		ID:            s.nextSubmID,
		ContestID:     contestID,
		ProblemID:     body.ProblemID,
		Code:          body.Code,
		EnvironmentID: body.EnvironmentID,
		Status:        "Waiting",
		Created:       s.nowFn(),
		UserID:        u.user.ID,
	}
	s.nextSubmID++
	s.submissions = append(s.submissions, subm)
	writeJSON(w, http.StatusCreated, subm)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	resp := struct {
		Status  string `json:"status"`
		ErrCode string `json:"code"`
		ErrMsg  string `json:"message"`
	}{
		Status:  "error",
		ErrCode: code,
		ErrMsg:  msg,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
