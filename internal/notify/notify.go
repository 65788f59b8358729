// Package notify forwards accepted board moves to chat or webhook integrations.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ankittk/osboard/pkg/models"
)

// Notifier delivers one board action to an integration (e.g. Slack, a webhook).
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a models.Activity) error
}

// Registry holds notifiers by name.
type Registry struct {
	mu    sync.RWMutex
	names []string
	byKey map[string]Notifier
}

func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Notifier)}
}

func (r *Registry) Register(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[n.Name()]; !ok {
		r.names = append(r.names, n.Name())
	}
	r.byKey[n.Name()] = n
}

func (r *Registry) Get(name string) Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byKey[name]
}

// Len returns the number of registered notifiers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// NotifyAll sends a to every notifier in registration order and joins the errors.
func (r *Registry) NotifyAll(ctx context.Context, a models.Activity) error {
	r.mu.RLock()
	list := make([]Notifier, 0, len(r.names))
	for _, name := range r.names {
		list = append(list, r.byKey[name])
	}
	r.mu.RUnlock()

	var errs []error
	for _, n := range list {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Message renders a as one line of Portuguese text.
func Message(a models.Activity) string {
	switch a.Action {
	case "drop":
		return fmt.Sprintf("OS %s programada para %s", a.OrderID, a.Date)
	case "backlog", "reset":
		return fmt.Sprintf("OS %s devolvida ao backlog", a.OrderID)
	}
	msg := fmt.Sprintf("%s: OS %s", a.Action, a.OrderID)
	if a.Date != "" {
		msg += " em " + a.Date
	}
	return msg
}

func postJSON(ctx context.Context, hc *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// SlackWebhook posts to a Slack channel via an incoming webhook URL.
type SlackWebhook struct {
	WebhookURL string
	Channel    string // optional override
	Username   string // optional
	HTTPClient *http.Client
}

func (s SlackWebhook) Name() string { return "slack" }

func (s SlackWebhook) Notify(ctx context.Context, a models.Activity) error {
	if s.WebhookURL == "" {
		return errors.New("slack webhook URL not set")
	}
	payload := map[string]any{"text": Message(a)}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	if s.Username != "" {
		payload["username"] = s.Username
	}
	return postJSON(ctx, s.HTTPClient, s.WebhookURL, payload)
}

// Webhook posts the activity as JSON, with the rendered text in "message".
type Webhook struct {
	URL        string
	HTTPClient *http.Client
}

func (w Webhook) Name() string { return "webhook" }

func (w Webhook) Notify(ctx context.Context, a models.Activity) error {
	if w.URL == "" {
		return errors.New("webhook URL not set")
	}
	return postJSON(ctx, w.HTTPClient, w.URL, struct {
		models.Activity
		Message string `json:"message"`
	}{a, Message(a)})
}

// Recorder is the journal being wrapped.
type Recorder interface {
	RecordActivity(ctx context.Context, a models.Activity) error
}

// DefaultActions are the actions forwarded when Journal.Actions is empty.
var DefaultActions = []string{"drop", "backlog", "reset"}

// Journal records activity through Next and forwards successful actions to the
// registry in the background. Wait blocks until the pending sends are done.
type Journal struct {
	Next     Recorder
	Registry *Registry
	Actions  []string
	Timeout  time.Duration

	wg sync.WaitGroup
}

func (j *Journal) wants(action string) bool {
	actions := j.Actions
	if len(actions) == 0 {
		actions = DefaultActions
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

func (j *Journal) RecordActivity(ctx context.Context, a models.Activity) error {
	var err error
	if j.Next != nil {
		err = j.Next.RecordActivity(ctx, a)
	}
	if j.Registry == nil || j.Registry.Len() == 0 || a.Outcome != models.OutcomeOK || !j.wants(a.Action) {
		return err
	}
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := j.Registry.NotifyAll(ctx, a); err != nil {
			slog.Warn("notify failed", "action", a.Action, "os_id", a.OrderID, "err", err)
		}
	}()
	return err
}

// Wait blocks until every pending notification has been sent or has failed.
func (j *Journal) Wait() {
	j.wg.Wait()
}
