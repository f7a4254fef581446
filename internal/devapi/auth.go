package devapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/naveenspark/webadmin/pkg/domain"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	tokenKey
)

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || tok == "" {
			Error(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		s.mu.Lock()
		id, found := s.tokens[tok]
		if found {
			_, found = s.users[id]
		}
		s.mu.Unlock()
		if !found {
			Error(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, id)
		ctx = context.WithValue(ctx, tokenKey, tok)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		Error(w, http.StatusBadRequest, "malformed body")
		return
	}
	if err := creds.Validate(); err != nil {
		invalidOrError(w, err)
		return
	}

	s.mu.Lock()
	var rec *record
	for _, candidate := range s.users {
		if strings.EqualFold(candidate.user.Email, creds.Email) {
			rec = candidate
			break
		}
	}
	s.mu.Unlock()

	if rec == nil || bcrypt.CompareHashAndPassword(rec.hash, []byte(creds.Password)) != nil {
		Error(w, http.StatusUnprocessableEntity, "Provided email address or password is incorrect")
		return
	}

	s.mu.Lock()
	tok := s.issueLocked(rec.user.ID)
	s.mu.Unlock()
	JSON(w, http.StatusOK, domain.AuthResponse{User: rec.user, Token: tok})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var p domain.UserPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		Error(w, http.StatusBadRequest, "malformed body")
		return
	}
	u, fields, err := s.create(p)
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if fields != nil {
		Invalid(w, fields)
		return
	}

	s.mu.Lock()
	tok := s.issueLocked(u.ID)
	s.mu.Unlock()
	JSON(w, http.StatusOK, domain.AuthResponse{User: u, Token: tok})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	tok, _ := r.Context().Value(tokenKey).(string)
	s.mu.Lock()
	delete(s.tokens, tok)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := r.Context().Value(userIDKey).(int64)
	s.mu.Lock()
	rec, ok := s.users[id]
	s.mu.Unlock()
	if !ok {
		Error(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	JSON(w, http.StatusOK, rec.user)
}
