package api

import (
	"encoding/json"
	"net/http"
)

// SignInRequest is the POST /api/signin body. Credentials themselves are
// checked by the BaaS; this endpoint only opens the local session.
type SignInRequest struct {
	Email string `json:"email"`
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SignInRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	profile, err := s.auth.SignIn(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
}

func (s *HTTPServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.auth.SignOut()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
