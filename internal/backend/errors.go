package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// pgInsufficientPrivilege is the Postgres error code PostgREST forwards when
// a row-level-security policy rejects the statement.
const pgInsufficientPrivilege = "42501"

// Error is a failed backend call. RLSDenied marks the distinguished case of
// a row-level-security policy rejection, which gets remediation guidance
// instead of a bare message.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	RLSDenied  bool
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend: %s: http %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend: %s: %s", e.Op, e.Message)
}

// Remediation returns the checklist shown to users when an RLS policy
// blocked the call.
func (e *Error) Remediation() string {
	if !e.RLSDenied {
		return ""
	}
	return strings.Join([]string{
		"The backend rejected this operation due to a row-level-security policy.",
		"- Confirm you are signed in with the account that owns these records.",
		"- Ask an administrator to verify the RLS policies on the agendamento table.",
		"- If the table was recently created, check that policies for SELECT/INSERT/UPDATE/DELETE exist.",
	}, "\n")
}

type apiErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func newHTTPError(op string, status int, body *apiErrorBody) *Error {
	e := &Error{Op: op, StatusCode: status, Message: http.StatusText(status)}
	if body != nil && body.Message != "" {
		e.Message = body.Message
	}
	code := ""
	if body != nil {
		code = body.Code
	}
	e.RLSDenied = isRLSDenial(status, code, e.Message)
	return e
}

func isRLSDenial(status int, code, message string) bool {
	if code == pgInsufficientPrivilege {
		return true
	}
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return false
	}
	return strings.Contains(strings.ToLower(message), "row-level security") ||
		strings.Contains(strings.ToLower(message), "policy")
}

// IsRLSDenied reports whether err is a backend RLS policy rejection.
func IsRLSDenied(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.RLSDenied
}
