// Package client provides a Go SDK for the maintenance API used by the scheduler board.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ankittk/osboard/pkg/models"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token returns the token itself.
func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", ErrNoSession
	}
	return string(t), nil
}

// CallObserver is notified after every request (status 0 on transport errors).
type CallObserver func(method, path string, status int, elapsed time.Duration)

// Client calls the maintenance API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:8787"
	Tokens     TokenSource  // bearer token source; required
	HTTPClient *http.Client // optional; nil uses http.DefaultClient

	// OnUnauthorized runs once per 401 response, before ErrUnauthorized is returned.
	OnUnauthorized func()
	Observe        CallObserver
}

// New returns a client for the given base URL and token source.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Tokens: tokens}
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if c.Tokens == nil {
		return nil, ErrNoSession
	}
	token, err := c.Tokens.Token()
	if err != nil {
		return nil, err
	}
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.client().Do(req)
	if c.Observe != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.Observe(method, routeOf(path), status, time.Since(start))
	}
	return resp, err
}

// doJSON sends the request and decodes a 2xx body into out. fallback is the message
// used when a failed response carries no body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, fallback string) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("api %s %s: %w", method, routeOf(path), err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		if c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(method, routeOf(path), resp, fallback)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api %s %s: decode: %w", method, routeOf(path), err)
		}
		return nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// Health returns the /health payload.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out, "health check failed")
	return out, err
}

// Structure returns the org hierarchy (all rows; callers filter active ones).
func (c *Client) Structure(ctx context.Context) ([]models.Structure, error) {
	var out struct {
		Estrutura []models.Structure `json:"estrutura"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/estrutura", nil, &out, "Erro ao carregar estrutura.")
	return out.Estrutura, err
}

// SubTeamConfigs returns the sub-team configs declared for a coordination.
func (c *Client) SubTeamConfigs(ctx context.Context, coordination string) ([]models.SubTeamConfig, error) {
	q := url.Values{"coordenacao": {coordination}}
	var out struct {
		Configs []models.SubTeamConfig `json:"configs"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/os/scheduler-sub-team?"+q.Encode(), nil, &out, "Erro ao carregar sub-equipes.")
	return out.Configs, err
}

// Assignments returns the work-order assignments of a coordination/team.
func (c *Client) Assignments(ctx context.Context, coordination, teamID string) ([]models.Assignment, error) {
	q := url.Values{"coordenacao": {coordination}, "equipe_id": {teamID}}
	var out struct {
		Assignments []models.Assignment `json:"assignments"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/os/scheduler-assignment?"+q.Encode(), nil, &out, "Erro ao carregar alocacoes.")
	return out.Assignments, err
}

// AssignOrder upserts the assignment of a work order. A 409 answer yields an error matching ErrConflict.
func (c *Client) AssignOrder(ctx context.Context, a models.Assignment) error {
	return c.doJSON(ctx, http.MethodPatch, "/os/scheduler-assignment", a, nil, "Erro ao alocar OS.")
}

// ClearAssignment removes the assignment of a work order.
func (c *Client) ClearAssignment(ctx context.Context, orderID string) error {
	q := url.Values{"os_id": {orderID}}
	return c.doJSON(ctx, http.MethodDelete, "/os/scheduler-assignment?"+q.Encode(), nil, nil, "Erro ao remover alocacao.")
}

// Holidays returns the holidays of a team.
func (c *Client) Holidays(ctx context.Context, teamID string) ([]models.Holiday, error) {
	q := url.Values{"equipe_id": {teamID}}
	var out struct {
		Holidays []models.Holiday `json:"holidays"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/os/scheduler-holiday?"+q.Encode(), nil, &out, "Erro ao carregar feriados.")
	return out.Holidays, err
}

// WorkOrders lists work orders matching the query.
func (c *Client) WorkOrders(ctx context.Context, query models.OrderQuery) ([]models.WorkOrder, error) {
	q := url.Values{}
	if len(query.Statuses) > 0 {
		q.Set("status", strings.Join(query.Statuses, ","))
	}
	if query.Year != "" {
		q.Set("ano", query.Year)
	}
	if query.Month != "" {
		q.Set("mes", query.Month)
	}
	if query.Team != "" {
		q.Set("equipe", query.Team)
	}
	path := "/os"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out struct {
		OS []models.WorkOrder `json:"os"`
	}
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out, "Erro ao carregar OS.")
	return out.OS, err
}

// PatchOrder applies a partial update to a work order.
func (c *Client) PatchOrder(ctx context.Context, patch models.OrderPatch) error {
	if patch.ID == "" {
		return errors.New("order id required")
	}
	return c.doJSON(ctx, http.MethodPatch, "/os", patch, nil, "Erro ao atualizar OS.")
}

// SchedulerConfig loads the config bag for key. It returns nil, nil when none was saved yet.
func (c *Client) SchedulerConfig(ctx context.Context, key models.ConfigKey) (*models.SchedulerConfig, error) {
	q := url.Values{
		"mes":         {key.Month},
		"coordenacao": {key.Coordination},
		"equipe_id":   {key.TeamID},
		"sub_equipe":  {key.SubTeam},
	}
	var out struct {
		Config *models.SchedulerConfig `json:"config"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/os/scheduler-config?"+q.Encode(), nil, &out, "Erro ao carregar configuracoes.")
	return out.Config, err
}

// SaveSchedulerConfig replaces the whole config bag for key.
func (c *Client) SaveSchedulerConfig(ctx context.Context, key models.ConfigKey, cfg models.SchedulerConfig) error {
	body := struct {
		models.ConfigKey
		Config models.SchedulerConfig `json:"config"`
	}{key, cfg}
	return c.doJSON(ctx, http.MethodPatch, "/os/scheduler-config", body, nil, "Erro ao salvar configuracoes.")
}
