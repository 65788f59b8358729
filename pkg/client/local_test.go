package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ankittk/osboard/pkg/models"
)

func TestLocal_dropSendsBodyAndKey(t *testing.T) {
	var gotKey string
	var gotReq models.DropRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/board/drop" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"month":"2025-03","loaded":true}`))
	}))
	defer srv.Close()

	l := NewLocal(srv.URL+"/", "k1")
	v, err := l.Drop(context.Background(), models.DropRequest{OrderID: "os-1", ToDate: "2025-03-20"})
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if gotKey != "k1" {
		t.Errorf("X-API-Key: got %q", gotKey)
	}
	if gotReq.OrderID != "os-1" || gotReq.ToDate != "2025-03-20" {
		t.Errorf("body: got %+v", gotReq)
	}
	if !v.Loaded {
		t.Errorf("view not decoded: %+v", v)
	}
}

func TestLocal_errorsCarryStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"OS ja alocada em outra equipe."}`))
	}))
	defer srv.Close()

	_, err := NewLocal(srv.URL, "").ToggleLock(context.Background(), models.CellRequest{OrderID: "a", Date: "2025-03-20"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err.Error() != "OS ja alocada em outra equipe." {
		t.Errorf("message: got %q", err.Error())
	}
	if StatusOf(err) != http.StatusConflict {
		t.Errorf("StatusOf: got %d", StatusOf(err))
	}
}

func TestLocal_activityQueryAndExport(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/board/activity":
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`[{"id":"1","action":"drop","outcome":"ok"}]`))
		case "/board/export.xlsx":
			_, _ = w.Write([]byte("PK-xlsx"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewLocal(srv.URL, "")
	list, err := l.Activity(context.Background(), "os-1", 5)
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if gotQuery != "limit=5&os_id=os-1" {
		t.Errorf("query: got %q", gotQuery)
	}
	if len(list) != 1 || list[0].Action != "drop" {
		t.Errorf("list: got %+v", list)
	}

	var buf bytes.Buffer
	if err := l.Export(context.Background(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if buf.String() != "PK-xlsx" {
		t.Errorf("export body: got %q", buf.String())
	}

	if _, err := l.Order(context.Background(), "missing"); StatusOf(err) != http.StatusNotFound {
		t.Errorf("Order missing: got %v", err)
	}
}
