package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ankittk/osboard/pkg/models"
)

// Local calls the API of a running osboard daemon.
type Local struct {
	BaseURL    string // e.g. "http://127.0.0.1:8790"
	APIKey     string // optional; sent as X-API-Key
	HTTPClient *http.Client
}

// NewLocal returns a client for the daemon at baseURL.
func NewLocal(baseURL, apiKey string) *Local {
	return &Local{BaseURL: strings.TrimRight(baseURL, "/"), APIKey: apiKey}
}

func (l *Local) client() *http.Client {
	if l.HTTPClient != nil {
		return l.HTTPClient
	}
	return http.DefaultClient
}

func (l *Local) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, l.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if l.APIKey != "" {
		req.Header.Set("X-API-Key", l.APIKey)
	}
	resp, err := l.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("osboard %s %s: %w", method, routeOf(path), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		msg := messageFromBody(resp.Body)
		if msg == "" {
			msg = fmt.Sprintf("osboard %s %s: status %d", method, routeOf(path), resp.StatusCode)
		}
		return nil, &APIError{Method: method, Path: routeOf(path), Status: resp.StatusCode, Message: msg}
	}
	return resp, nil
}

func (l *Local) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := l.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("osboard %s %s: decode: %w", method, routeOf(path), err)
	}
	return nil
}

// View returns the rendered board.
func (l *Local) View(ctx context.Context) (models.BoardView, error) {
	var v models.BoardView
	err := l.doJSON(ctx, http.MethodGet, "/board", nil, &v)
	return v, err
}

// Filters returns the current selection.
func (l *Local) Filters(ctx context.Context) (models.Filters, error) {
	var f models.Filters
	err := l.doJSON(ctx, http.MethodGet, "/board/filters", nil, &f)
	return f, err
}

// SetFilters replaces the selection and returns the reloaded board.
func (l *Local) SetFilters(ctx context.Context, f models.Filters) (models.BoardView, error) {
	var v models.BoardView
	err := l.doJSON(ctx, http.MethodPut, "/board/filters", f, &v)
	return v, err
}

// Reload re-fetches the board from the maintenance API.
func (l *Local) Reload(ctx context.Context) (models.BoardView, error) {
	var v models.BoardView
	err := l.doJSON(ctx, http.MethodPost, "/board/reload", nil, &v)
	return v, err
}

// Drop moves a work order; an empty ToDate sends it to the backlog.
func (l *Local) Drop(ctx context.Context, req models.DropRequest) (models.BoardView, error) {
	var v models.BoardView
	err := l.doJSON(ctx, http.MethodPost, "/board/drop", req, &v)
	return v, err
}

// Reset sends a scheduled cell back to the backlog.
func (l *Local) Reset(ctx context.Context, req models.CellRequest) (models.BoardView, error) {
	var v models.BoardView
	err := l.doJSON(ctx, http.MethodPost, "/board/reset", req, &v)
	return v, err
}

// ToggleLock flips the lock of a cell and returns the new state.
func (l *Local) ToggleLock(ctx context.Context, req models.CellRequest) (bool, error) {
	var out struct {
		Locked bool `json:"locked"`
	}
	err := l.doJSON(ctx, http.MethodPost, "/board/lock", req, &out)
	return out.Locked, err
}

func (l *Local) SetNote(ctx context.Context, req models.NoteRequest) error {
	return l.doJSON(ctx, http.MethodPut, "/board/note", req, nil)
}

func (l *Local) SetColor(ctx context.Context, req models.ColorRequest) error {
	return l.doJSON(ctx, http.MethodPut, "/board/color", req, nil)
}

func (l *Local) AddWeekComment(ctx context.Context, req models.WeekCommentRequest) error {
	return l.doJSON(ctx, http.MethodPost, "/board/week-comment", req, nil)
}

// Week returns the comment targets and notes of grid week w (1..5).
func (l *Local) Week(ctx context.Context, w int) (models.WeekView, error) {
	var v models.WeekView
	err := l.doJSON(ctx, http.MethodGet, "/board/weeks/"+strconv.Itoa(w), nil, &v)
	return v, err
}

// Order returns one loaded work order.
func (l *Local) Order(ctx context.Context, id string) (models.BoardOrder, error) {
	var o models.BoardOrder
	err := l.doJSON(ctx, http.MethodGet, "/board/orders/"+url.PathEscape(id), nil, &o)
	return o, err
}

// Flush saves pending config edits now.
func (l *Local) Flush(ctx context.Context) error {
	return l.doJSON(ctx, http.MethodPost, "/board/flush", nil, nil)
}

// Export streams the month workbook to w.
func (l *Local) Export(ctx context.Context, w io.Writer) error {
	resp, err := l.do(ctx, http.MethodGet, "/board/export.xlsx", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, err = io.Copy(w, resp.Body)
	return err
}

// Activity lists journal entries, newest first. Empty orderID lists all; limit <= 0
// uses the server default.
func (l *Local) Activity(ctx context.Context, orderID string, limit int) ([]models.Activity, error) {
	q := url.Values{}
	if orderID != "" {
		q.Set("os_id", orderID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/board/activity"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []models.Activity
	err := l.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}
