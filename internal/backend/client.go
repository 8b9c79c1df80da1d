// Package backend is a REST row client for the BaaS tables (PostgREST
// dialect). It satisfies the same store contract as the local database, so
// the repository can run against either.
package backend

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pontual/internal/model"
	"pontual/internal/timeutil"
)

// StatusCheckTimeout bounds the health probe; the caller gets "offline"
// instead of blocking.
const StatusCheckTimeout = 3 * time.Second

// Client calls the backend's REST endpoint for row operations.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a client for baseURL using the service API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// recordRow is the wire shape of an agendamento row.
type recordRow struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Data         string `json:"data"`
	Entrada1     string `json:"entrada1,omitempty"`
	Saida1       string `json:"saida1,omitempty"`
	Entrada2     string `json:"entrada2,omitempty"`
	Saida2       string `json:"saida2,omitempty"`
	Intervalo    int    `json:"intervalo_minutos"`
	Observacao   string `json:"observacao,omitempty"`
	TotalMinutos int    `json:"total_minutos"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toRow(r *model.TimeRecord) recordRow {
	total := 0
	if r.WorkingHours != nil {
		total = r.WorkingHours.TotalMinutes
	}
	return recordRow{
		ID:           r.ID,
		UserID:       r.UserID,
		Data:         r.Date,
		Entrada1:     r.Entry1,
		Saida1:       r.Exit1,
		Entrada2:     r.Entry2,
		Saida2:       r.Exit2,
		Intervalo:    r.BreakMinutes,
		Observacao:   r.Note,
		TotalMinutos: total,
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (row recordRow) toModel() model.TimeRecord {
	created, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updated, _ := time.Parse(time.RFC3339, row.UpdatedAt)
	r := model.TimeRecord{
		ID:           row.ID,
		UserID:       row.UserID,
		Date:         row.Data,
		Entry1:       row.Entrada1,
		Exit1:        row.Saida1,
		Entry2:       row.Entrada2,
		Exit2:        row.Saida2,
		BreakMinutes: row.Intervalo,
		Note:         row.Observacao,
		Status:       model.Status(row.Status),
		CreatedAt:    created,
		UpdatedAt:    updated,
	}
	wh := timeutil.FormatMinutes(row.TotalMinutos)
	r.WorkingHours = &wh
	return r
}

// CreateRecord inserts a row into agendamento.
func (c *Client) CreateRecord(ctx context.Context, r *model.TimeRecord) error {
	endpoint := c.baseURL + "/rest/v1/agendamento"
	return c.do(ctx, http.MethodPost, endpoint, toRow(r), nil)
}

// ListRecordsByUser selects the user's rows, newest date first.
func (c *Client) ListRecordsByUser(ctx context.Context, userID string) ([]model.TimeRecord, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/agendamento?user_id=eq.%s&order=data.desc",
		c.baseURL, url.QueryEscape(userID))
	return c.selectRecords(ctx, endpoint)
}

// ListRecordsByRange selects rows with start <= data <= end, inclusive.
func (c *Client) ListRecordsByRange(ctx context.Context, userID, start, end string) ([]model.TimeRecord, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/agendamento?user_id=eq.%s&data=gte.%s&data=lte.%s&order=data.desc",
		c.baseURL, url.QueryEscape(userID), url.QueryEscape(start), url.QueryEscape(end))
	return c.selectRecords(ctx, endpoint)
}

// GetRecord selects one row by id. A missing row maps to sql.ErrNoRows so
// callers can treat local and remote stores alike.
func (c *Client) GetRecord(ctx context.Context, id string) (*model.TimeRecord, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/agendamento?id=eq.%s", c.baseURL, url.QueryEscape(id))
	records, err := c.selectRecords(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, sql.ErrNoRows
	}
	return &records[0], nil
}

// DeleteRecord deletes by id; deleting a missing row is not an error.
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/rest/v1/agendamento?id=eq.%s", c.baseURL, url.QueryEscape(id))
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// UpdateRecordStatus patches status and updated_at.
func (c *Client) UpdateRecordStatus(ctx context.Context, id string, status model.Status, updatedAt time.Time) error {
	endpoint := fmt.Sprintf("%s/rest/v1/agendamento?id=eq.%s", c.baseURL, url.QueryEscape(id))
	body := map[string]string{
		"status":     string(status),
		"updated_at": updatedAt.UTC().Format(time.RFC3339),
	}
	return c.do(ctx, http.MethodPatch, endpoint, body, nil)
}

// CountRows asks for an exact count without fetching rows.
func (c *Client) CountRows(ctx context.Context, table string) (int64, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?select=id", c.baseURL, url.PathEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, http.NoBody)
	if err != nil {
		return 0, err
	}
	c.addHeaders(req)
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &Error{Op: "count " + table, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, newHTTPError("count "+table, resp.StatusCode, nil)
	}

	// Content-Range looks like "0-24/3573"; the total sits after the slash.
	cr := resp.Header.Get("Content-Range")
	idx := strings.LastIndex(cr, "/")
	if idx < 0 {
		return 0, &Error{Op: "count " + table, Message: "missing Content-Range header"}
	}
	return strconv.ParseInt(cr[idx+1:], 10, 64)
}

// Status probes the backend with a short timeout. It degrades to "offline"
// on network failure and "error" on a non-2xx answer instead of blocking.
func (c *Client) Status(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, StatusCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/", http.NoBody)
	if err != nil {
		return "error"
	}
	c.addHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "offline"
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "error"
	}
	return "ok"
}

func (c *Client) selectRecords(ctx context.Context, endpoint string) ([]model.TimeRecord, error) {
	var rows []recordRow
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &rows); err != nil {
		return nil, err
	}
	records := make([]model.TimeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.addHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: method + " " + endpoint, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr apiErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return newHTTPError(method+" "+endpoint, resp.StatusCode, &apiErr)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
