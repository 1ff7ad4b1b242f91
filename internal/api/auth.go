package api

import (
	"net/http"

	"quiz-ai/internal/models"
	"quiz-ai/internal/services"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token    string      `json:"token"`
	User     models.User `json:"user"`
	Redirect string      `json:"redirect"`
}

func newSessionResponse(session *models.Session) sessionResponse {
	return sessionResponse{
		Token:    session.Token,
		User:     session.User,
		Redirect: services.HomePath(session.User.Role),
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	session, err := s.sessions.Signup(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	session, err := s.sessions.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())
	if err := s.sessions.Logout(r.Context(), session.Token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":     session.User,
		"redirect": services.HomePath(session.User.Role),
	})
}
