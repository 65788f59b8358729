package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ankittk/osboard/internal/board"
	"github.com/ankittk/osboard/internal/demoapi"
	"github.com/ankittk/osboard/internal/store"
	"github.com/ankittk/osboard/pkg/client"
	"github.com/ankittk/osboard/pkg/models"
)

// TestIntegrationDropLockExport drives a real board against the in-memory maintenance
// API through the local HTTP API, with the SQLite store as journal.
func TestIntegrationDropLockExport(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.Local)
	remote := demoapi.New("tok")
	remote.Seed(now)
	api := httptest.NewServer(remote.Handler())
	t.Cleanup(api.Close)

	st, err := store.Open(filepath.Join(t.TempDir(), "home"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	hub := NewSSEHub()
	b := board.New(board.Options{
		Remote:     client.New(api.URL, client.StaticToken("tok")),
		Prefs:      st,
		Journal:    st,
		FlushDelay: time.Hour,
		Now:        func() time.Time { return now },
		OnChange:   func(reason string) { PublishBoardUpdate(hub, reason) },
	})
	t.Cleanup(func() { _ = b.Close(context.Background()) })

	app, err := NewApp(ServerOptions{Board: b, Activity: st, Hub: hub})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	ts := httptest.NewServer(app.Server.Handler)
	t.Cleanup(ts.Close)

	resp, _ := send(t, http.MethodPut, ts.URL+"/board/filters", `{"monthValue":"2025-03","selectedCoordenacao":"Manutencao Norte","selectedEquipeId":"E1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /board/filters: status=%d", resp.StatusCode)
	}
	var view models.BoardView
	getJSON(t, ts.URL+"/board", &view)
	if !view.Loaded || view.Filters.SubTeam != "Turno A" {
		t.Fatalf("view not loaded for Turno A: loaded=%v filters=%+v err=%s", view.Loaded, view.Filters, view.Error)
	}

	events := hub.Subscribe()
	defer hub.Unsubscribe(events)

	// Thursday of grid week 4.
	resp, body := send(t, http.MethodPost, ts.URL+"/board/drop", `{"os_id":"os-100","source":"backlog","to_date":"2025-03-20"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /board/drop: status=%d body=%v", resp.StatusCode, body)
	}
	o, _ := remote.Order("os-100")
	if o.Status != models.StatusScheduled || o.Programado4 == nil || *o.Programado4 != "2025-03-20" || o.Programado1 != nil {
		t.Fatalf("remote order after drop = %+v", o)
	}
	if a, ok := remote.Assignment("os-100"); !ok || a.SubTeam != "Turno A" {
		t.Fatalf("remote assignment after drop = %+v", a)
	}
	select {
	case msg := <-events:
		if !strings.Contains(string(msg), `"board_update"`) {
			t.Fatalf("event = %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no board_update event after drop")
	}

	// Holiday: rejected before any call.
	resp, body = send(t, http.MethodPost, ts.URL+"/board/drop", `{"os_id":"os-101","source":"backlog","to_date":"2025-03-18"}`)
	if resp.StatusCode != http.StatusBadRequest || body["error"] != board.ErrHoliday.Error() {
		t.Fatalf("holiday drop: status=%d body=%v", resp.StatusCode, body)
	}

	// Held by Turno B on the server: conflict.
	remote.SetAssignment(models.Assignment{OrderID: "os-101", Coordination: "Manutencao Norte", TeamID: "E1", SubTeam: "Turno B"})
	resp, _ = send(t, http.MethodPost, ts.URL+"/board/drop", `{"os_id":"os-101","source":"backlog","to_date":"2025-03-20"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("conflicting drop: status=%d", resp.StatusCode)
	}
	if o, _ := remote.Order("os-101"); o.Status != models.StatusCreated {
		t.Fatalf("conflicting drop patched the order: %+v", o)
	}

	resp, body = send(t, http.MethodPost, ts.URL+"/board/lock", `{"os_id":"os-100","date_key":"2025-03-20"}`)
	if resp.StatusCode != http.StatusOK || body["locked"] != true {
		t.Fatalf("lock: status=%d body=%v", resp.StatusCode, body)
	}
	resp, _ = send(t, http.MethodPost, ts.URL+"/board/flush", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("flush: status=%d", resp.StatusCode)
	}
	key := models.ConfigKey{Month: "2025-03", Coordination: "Manutencao Norte", TeamID: "E1", SubTeam: "Turno A"}
	if cfg, ok := remote.Config(key); !ok || !cfg.LockMap["os-100::2025-03-20"] {
		t.Fatalf("saved config = %+v", cfg)
	}

	// Locked cell cannot be reset.
	resp, _ = send(t, http.MethodPost, ts.URL+"/board/reset", `{"os_id":"os-100","date_key":"2025-03-20"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("reset of locked cell: status=%d", resp.StatusCode)
	}

	r, err := http.Get(ts.URL + "/board/export.xlsx")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	_ = r.Body.Close()
	if r.StatusCode != http.StatusOK || r.Header.Get("Content-Type") != xlsxContentType {
		t.Fatalf("export: status=%d type=%s", r.StatusCode, r.Header.Get("Content-Type"))
	}

	var list []models.Activity
	getJSON(t, ts.URL+"/board/activity?os_id=os-100", &list)
	actions := map[string]bool{}
	for _, a := range list {
		actions[a.Action+"/"+a.Outcome] = true
	}
	for _, want := range []string{"drop/ok", "lock/ok", "reset/rejected"} {
		if !actions[want] {
			t.Errorf("journal missing %s: %+v", want, list)
		}
	}
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	r, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = r.Body.Close() }()
	if r.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status=%d", url, r.StatusCode)
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}
