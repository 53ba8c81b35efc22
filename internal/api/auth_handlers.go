package api

import (
	"errors"
	"net/http"

	"clinicbook/internal/auth"
)

type passwordRequest struct {
	Password string `json:"password"`
}

type changePasswordRequest struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

// authStatus maps access control errors to HTTP status codes.
func authStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrAdminExists), errors.Is(err, auth.ErrNoAdmin):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) writeAuthError(w http.ResponseWriter, err error) {
	code := authStatus(err)
	if code == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("Access control failure")
		writeError(w, code, "internal error")
		return
	}
	writeError(w, code, err.Error())
}

func (s *HTTPServer) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	exists, err := s.deps.Auth.AdminExists(r.Context())
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"admin_exists":  exists,
		"authenticated": s.deps.Auth.Authenticate(s.sessionToken(r)),
	})
}

func (s *HTTPServer) handleSetup(w http.ResponseWriter, r *http.Request) {
	var body passwordRequest
	if !decodeBody(w, r, &body, true) {
		return
	}
	if err := s.deps.Auth.Setup(r.Context(), body.Password); err != nil {
		s.writeAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body passwordRequest
	if !decodeBody(w, r, &body, true) {
		return
	}
	session, err := s.deps.Auth.Login(r.Context(), body.Password)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Auth.Logout(s.sessionToken(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body changePasswordRequest
	if !decodeBody(w, r, &body, true) {
		return
	}
	if err := s.deps.Auth.ChangePassword(r.Context(), body.Current, body.Next); err != nil {
		s.writeAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
