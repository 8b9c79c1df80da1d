package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pontual/internal/backend"
	"pontual/internal/model"
	"pontual/internal/repository"
	"pontual/internal/timeutil"
)

// SaveRecordRequest is the POST /api/records body. Times are HH:MM; the
// server derives working hours, the client never sends them.
type SaveRecordRequest struct {
	Date         string `json:"data"`
	Entry1       string `json:"entrada1,omitempty"`
	Exit1        string `json:"saida1,omitempty"`
	Entry2       string `json:"entrada2,omitempty"`
	Exit2        string `json:"saida2,omitempty"`
	BreakMinutes int    `json:"intervalo_minutos,omitempty"`
	Note         string `json:"observacao,omitempty"`
}

// handleRecords lists (GET) or saves (POST) the current user's records.
func (s *HTTPServer) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		records, err := s.repo.GetAll(r.Context())
		if err != nil {
			s.writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": records})

	case http.MethodPost:
		var req SaveRecordRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		res := s.repo.Save(r.Context(), model.TimeRecord{
			Date:         req.Date,
			Entry1:       req.Entry1,
			Exit1:        req.Exit1,
			Entry2:       req.Entry2,
			Exit2:        req.Exit2,
			BreakMinutes: req.BreakMinutes,
			Note:         req.Note,
		})
		if !res.Success {
			status := http.StatusBadRequest
			if len(res.Errors) == 0 {
				// Not a validation problem: auth or backend.
				status = http.StatusInternalServerError
				if res.Message == "not signed in" {
					status = http.StatusUnauthorized
				}
			}
			writeJSON(w, status, res)
			return
		}
		writeJSON(w, http.StatusCreated, res)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleRecordsRange returns records between start and end, inclusive.
// GET /api/records/range?start=YYYY-MM-DD&end=YYYY-MM-DD
func (s *HTTPServer) handleRecordsRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if !timeutil.IsDate(start) || !timeutil.IsDate(end) {
		writeError(w, http.StatusBadRequest, "start and end must be YYYY-MM-DD")
		return
	}

	records, err := s.repo.GetByDateRange(r.Context(), start, end)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"period":  map[string]string{"start": start, "end": end},
	})
}

// handleRecordByID handles DELETE /api/records/{id} and
// POST /api/records/{id}/approve|reject.
func (s *HTTPServer) handleRecordByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/records/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		res := s.repo.Delete(r.Context(), parts[0])
		writeJSON(w, statusFor(res), res)

	case len(parts) == 2 && r.Method == http.MethodPost && parts[1] == "approve":
		res := s.repo.Approve(r.Context(), parts[0])
		writeJSON(w, statusFor(res), res)

	case len(parts) == 2 && r.Method == http.MethodPost && parts[1] == "reject":
		res := s.repo.Reject(r.Context(), parts[0])
		writeJSON(w, statusFor(res), res)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleCacheInfo reports aggregate cache state.
// GET /api/cache/info
func (s *HTTPServer) handleCacheInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.cache.GetInfo())
}

// handleStatus probes the remote backend, degrading to "local" when none is
// configured.
// GET /api/status
func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := "local"
	if s.status != nil {
		status = s.status(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]string{"backend": status})
}

// writeRepoError converts read-path errors to responses. RLS denials carry
// remediation guidance alongside the backend's own message.
func (s *HTTPServer) writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotSignedIn) {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	var be *backend.Error
	if errors.As(err, &be) && be.RLSDenied {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"success":     false,
			"message":     be.Message,
			"remediation": be.Remediation(),
		})
		return
	}

	s.logger.Error().Err(err).Msg("api: request failed")
	writeError(w, http.StatusInternalServerError, "backend unavailable")
}

func statusFor(res repository.OpResult) int {
	switch {
	case res.Success:
		return http.StatusOK
	case res.Message == "not signed in":
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}
