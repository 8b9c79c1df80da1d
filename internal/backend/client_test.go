package backend

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pontual/internal/model"
)

func TestListRecordsByRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/agendamento", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "eq.u1", q.Get("user_id"))
		assert.Equal(t, "data.desc", q.Get("order"))
		assert.ElementsMatch(t, []string{"gte.2025-01-01", "lte.2025-01-31"}, q["data"])
		assert.Equal(t, "secret", r.Header.Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"id": "r1", "user_id": "u1", "data": "2025-01-15",
			"entrada1": "08:00", "saida1": "17:00",
			"intervalo_minutos": 60, "total_minutos": 480,
			"status": "pending",
			"created_at": "2025-01-15T18:00:00Z",
			"updated_at": "2025-01-15T18:00:00Z"
		}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	records, err := c.ListRecordsByRange(context.Background(), "u1", "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, "08:00", r.Entry1)
	assert.Equal(t, model.StatusPending, r.Status)
	require.NotNil(t, r.WorkingHours)
	assert.Equal(t, "8h 0m", r.WorkingHours.Formatted)
}

func TestGetRecord_MissingMapsToNoRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	_, err := c.GetRecord(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateRecord_RLSDenial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"new row violates row-level security policy for table \"agendamento\"","code":"42501"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	err := c.CreateRecord(context.Background(), &model.TimeRecord{ID: "r1", UserID: "u1", Date: "2025-01-15"})
	require.Error(t, err)
	assert.True(t, IsRLSDenied(err))

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Remediation(), "row-level-security")
}

func TestPlainBackendErrorIsNotRLS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	err := c.DeleteRecord(context.Background(), "r1")
	require.Error(t, err)
	assert.False(t, IsRLSDenied(err))
}

func TestCountRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		w.Header().Set("Content-Range", "0-24/3573")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	count, err := c.CountRows(context.Background(), "agendamento")
	require.NoError(t, err)
	assert.Equal(t, int64(3573), count)
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	c := NewClient(srv.URL, "secret")
	assert.Equal(t, "ok", c.Status(context.Background()))

	srv.Close() // connection refused from here on
	assert.Equal(t, "offline", c.Status(context.Background()))
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	assert.Equal(t, "error", c.Status(context.Background()))
}

func TestUpdateRecordStatusBody(t *testing.T) {
	var gotMethod, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	ts := time.Date(2025, 1, 16, 9, 0, 0, 0, time.UTC)
	require.NoError(t, c.UpdateRecordStatus(context.Background(), "r1", model.StatusApproved, ts))

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Contains(t, gotBody, `"status":"approved"`)
	assert.Contains(t, gotBody, `"updated_at":"2025-01-16T09:00:00Z"`)
}
