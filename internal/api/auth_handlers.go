package api

import (
	"net/http"
	"strings"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type sessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.accounts.Register(r.Context(), req.Email, req.Password, req.Nickname)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: res.Token})
}

// POST /api/auth/session
func (rt *Router) handleSessionLogin(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: res.Token})
}

// POST /api/auth/login
//
// Development shortcut kept from the original service: mints a token for an
// arbitrary username with no credential check. Disabled unless the dev-login
// flag is set; this is not production auth.
func (rt *Router) handleDevLogin(w http.ResponseWriter, r *http.Request) {
	if !rt.devLogin {
		writeErrorCode(w, r, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeErrorCode(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "username: required")
		return
	}
	token, err := rt.codec.Issue(username)
	if err != nil {
		rt.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// GET /api/me
func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := rt.accounts.GetBySubject(r.Context(), callerSubject(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":       u.ID,
		"email":    u.Email,
		"nickname": u.Nickname,
	})
}
