package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pontual/internal/auth"
	"pontual/internal/cache"
	"pontual/internal/model"
	"pontual/internal/repository"
)

type memStore struct {
	records map[string]model.TimeRecord
}

func (m *memStore) CreateRecord(_ context.Context, r *model.TimeRecord) error {
	m.records[r.ID] = *r
	return nil
}

func (m *memStore) ListRecordsByUser(_ context.Context, userID string) ([]model.TimeRecord, error) {
	var out []model.TimeRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListRecordsByRange(_ context.Context, userID, start, end string) ([]model.TimeRecord, error) {
	var out []model.TimeRecord
	for _, r := range m.records {
		if r.UserID == userID && r.Date >= start && r.Date <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetRecord(_ context.Context, id string) (*model.TimeRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (m *memStore) DeleteRecord(_ context.Context, id string) error {
	delete(m.records, id)
	return nil
}

func (m *memStore) UpdateRecordStatus(_ context.Context, id string, status model.Status, updatedAt time.Time) error {
	r := m.records[id]
	r.Status = status
	r.UpdatedAt = updatedAt
	m.records[id] = r
	return nil
}

type memProfiles struct {
	byEmail map[string]*model.Profile
}

func (m *memProfiles) GetProfileByEmail(_ context.Context, email string) (*model.Profile, error) {
	p, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func newTestServer(t *testing.T, apiKey string) (*httptest.Server, *cache.SecureCache) {
	t.Helper()
	logger := zerolog.Nop()
	c := cache.New(cache.NewMemoryStore(), "pontual_", time.Minute, &logger)
	profiles := &memProfiles{byEmail: map[string]*model.Profile{
		"ana@example.com": {ID: "u1", Email: "ana@example.com", Role: model.RoleEmployee},
	}}
	authSvc := auth.New(profiles, c, &logger)
	store := &memStore{records: make(map[string]model.TimeRecord)}
	repo := repository.New(store, c, authSvc, &logger)

	srv := NewHTTPServer(repo, authSvc, c, nil, apiKey, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, c
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestSaveAndListFlow(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/api/signin", SignInRequest{Email: "ana@example.com"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/records", SaveRecordRequest{
		Date: "2025-01-15", Entry1: "08:00", Exit1: "17:00", BreakMinutes: 60,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var saved repository.SaveResult
	decode(t, resp, &saved)
	require.True(t, saved.Success)
	assert.Equal(t, "8h 0m", saved.Record.WorkingHours.Formatted)

	resp, err := http.Get(ts.URL + "/api/records")
	require.NoError(t, err)
	var list struct {
		Records []model.TimeRecord `json:"records"`
	}
	decode(t, resp, &list)
	assert.Len(t, list.Records, 1)
}

func TestSaveValidationErrors(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/api/signin", SignInRequest{Email: "ana@example.com"})
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/records", SaveRecordRequest{
		Date: "2025/01/15", Entry1: "08:00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var res repository.SaveResult
	decode(t, resp, &res)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Errors)
}

func TestRecordsRequireSession(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/records")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMutationsRequireSession(t *testing.T) {
	ts, _ := newTestServer(t, "")

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/records/some-id", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/records/some-id/approve", struct{}{})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRangeValidatesDates(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/api/signin", SignInRequest{Email: "ana@example.com"})
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/records/range?start=bad&end=2025-01-31")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApproveRequiresManager(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/api/signin", SignInRequest{Email: "ana@example.com"})
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/records/some-id/approve", struct{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var res repository.OpResult
	decode(t, resp, &res)
	assert.Equal(t, "manager role required", res.Message)
}

func TestSignOutClearsCache(t *testing.T) {
	ts, c := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/api/signin", SignInRequest{Email: "ana@example.com"})
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/records", SaveRecordRequest{Date: "2025-01-15", Entry1: "08:00"})
	resp.Body.Close()
	resp, err := http.Get(ts.URL + "/api/records")
	require.NoError(t, err)
	resp.Body.Close()
	require.Greater(t, c.GetInfo().Total, 0)

	resp = postJSON(t, ts.URL+"/api/signout", struct{}{})
	resp.Body.Close()
	assert.Equal(t, 0, c.GetInfo().Total)
}

func TestAPIKeyGuard(t *testing.T) {
	ts, _ := newTestServer(t, "sekrit")

	resp, err := http.Get(ts.URL + "/api/cache/info")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/cache/info", http.NoBody)
	req.Header.Set("x-api-key", "sekrit")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusLocalWithoutBackend(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "local", body["backend"])
}
