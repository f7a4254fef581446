// Package devapi is an in-memory stand-in for the user-admin API. It serves the
// same routes and error shapes as the real backend and backs local development
// and end-to-end tests.
package devapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/naveenspark/webadmin/pkg/domain"
)

// PerPage is the list page size.
const PerPage = 10

// ErrEmailTaken is returned by Seed for a duplicate email.
var ErrEmailTaken = errors.New("the email has already been taken")

type record struct {
	user domain.User
	hash []byte
}

// Server is the stand-in API.
type Server struct {
	mu     sync.Mutex
	users  map[int64]*record
	tokens map[string]int64
	nextID int64
	cost   int
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Server) { s.cost = cost }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates an empty Server.
func New(opts ...Option) *Server {
	s := &Server{
		users:  make(map[int64]*record),
		tokens: make(map[string]int64),
		nextID: 1,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/signup", s.handleSignup)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/logout", s.handleLogout)
			r.Get("/user", s.handleMe)
			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Get("/users/{id}", s.handleGetUser)
			r.Put("/users/{id}", s.handleUpdateUser)
			r.Delete("/users/{id}", s.handleDeleteUser)
		})
	})
	return r
}

// Seed creates a user directly, bypassing HTTP.
func (s *Server) Seed(name, email, password string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTakenLocked(email, 0) {
		return domain.User{}, ErrEmailTaken
	}
	return s.insertLocked(name, email, hash), nil
}

// IssueToken returns a fresh token for userID, as a login would.
func (s *Server) IssueToken(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(userID)
}

// RevokeAll invalidates every issued token.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]int64)
}

func (s *Server) insertLocked(name, email string, hash []byte) domain.User {
	u := domain.User{
		ID:        s.nextID,
		Name:      name,
		Email:     email,
		CreatedAt: s.now().UTC().Format("2006-01-02 15:04:05"),
	}
	s.nextID++
	s.users[u.ID] = &record{user: u, hash: hash}
	return u
}

func (s *Server) issueLocked(userID int64) string {
	tok := strconv.FormatInt(userID, 10) + "|" + strings.ReplaceAll(uuid.NewString(), "-", "")
	s.tokens[tok] = userID
	return tok
}

func (s *Server) emailTakenLocked(email string, exceptID int64) bool {
	for id, rec := range s.users {
		if id != exceptID && strings.EqualFold(rec.user.Email, email) {
			return true
		}
	}
	return false
}

func (s *Server) sortedUsersLocked() []domain.User {
	out := make([]domain.User, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, rec.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chiMiddleware.GetReqID(r.Context()))
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"message": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a {"message": ...} error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

// Invalid writes a 422 with field errors.
func Invalid(w http.ResponseWriter, fields map[string][]string) {
	JSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": "The given data was invalid.",
		"errors":  fields,
	})
}

func invalidOrError(w http.ResponseWriter, err error) {
	if fields := domain.FieldErrors(err); fields != nil {
		Invalid(w, fields)
		return
	}
	Error(w, http.StatusInternalServerError, err.Error())
}
