package devapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/naveenspark/webadmin/pkg/domain"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	s.mu.Lock()
	all := s.sortedUsersLocked()
	s.mu.Unlock()

	lastPage := (len(all) + PerPage - 1) / PerPage
	if lastPage < 1 {
		lastPage = 1
	}
	// Pages past the end are empty; page is not multiplied so huge values
	// cannot overflow.
	start := len(all)
	if page <= lastPage {
		start = (page - 1) * PerPage
	}
	end := start + PerPage
	if end > len(all) {
		end = len(all)
	}

	JSON(w, http.StatusOK, domain.UserPage{
		Data: all[start:end],
		Meta: domain.PageMeta{
			CurrentPage: page,
			LastPage:    lastPage,
			PerPage:     PerPage,
			Total:       len(all),
		},
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	rec, found := s.users[id]
	s.mu.Unlock()
	if !found {
		Error(w, http.StatusNotFound, "User not found.")
		return
	}
	JSON(w, http.StatusOK, rec.user)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
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
	JSON(w, http.StatusCreated, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var p domain.UserPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		Error(w, http.StatusBadRequest, "malformed body")
		return
	}
	if err := p.ValidateUpdate(); err != nil {
		invalidOrError(w, err)
		return
	}

	var hash []byte
	if p.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cost)
		if err != nil {
			Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.users[id]
	if !found {
		Error(w, http.StatusNotFound, "User not found.")
		return
	}
	if s.emailTakenLocked(p.Email, id) {
		Invalid(w, map[string][]string{"email": {ErrEmailTaken.Error()}})
		return
	}
	rec.user.Name = p.Name
	rec.user.Email = p.Email
	if hash != nil {
		rec.hash = hash
	}
	JSON(w, http.StatusOK, rec.user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.users[id]
	delete(s.users, id)
	for tok, owner := range s.tokens {
		if owner == id {
			delete(s.tokens, tok)
		}
	}
	s.mu.Unlock()
	if !found {
		Error(w, http.StatusNotFound, "User not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// create validates p and inserts a user. fields is non-nil on validation failure.
func (s *Server) create(p domain.UserPayload) (domain.User, map[string][]string, error) {
	if err := p.Validate(); err != nil {
		if fields := domain.FieldErrors(err); fields != nil {
			return domain.User{}, fields, nil
		}
		return domain.User{}, nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cost)
	if err != nil {
		return domain.User{}, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTakenLocked(p.Email, 0) {
		return domain.User{}, map[string][]string{"email": {ErrEmailTaken.Error()}}, nil
	}
	return s.insertLocked(p.Name, p.Email, hash), nil, nil
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		Error(w, http.StatusNotFound, "User not found.")
		return 0, false
	}
	return id, true
}
