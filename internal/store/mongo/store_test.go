package mongo

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/ankittk/osboard/internal/store"
	"github.com/ankittk/osboard/pkg/models"
)

func TestOpen_skipIfNoMongoURI(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping mongo test")
	}
	st, err := Open(uri, "osboard_test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = st.Close() }()
	ctx := context.Background()

	key := "test-" + store.NewID()
	if _, err := st.LoadFilters(ctx, key); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("LoadFilters: got %v, want ErrNotFound", err)
	}
	if err := st.SaveFilters(ctx, key, []byte(`{"monthValue":"2025-03"}`)); err != nil {
		t.Fatalf("SaveFilters: %v", err)
	}
	if got, err := st.LoadFilters(ctx, key); err != nil || string(got) != `{"monthValue":"2025-03"}` {
		t.Fatalf("LoadFilters = %q, %v", got, err)
	}

	id := store.NewID()
	for _, action := range []string{"drop", "lock"} {
		if err := st.RecordActivity(ctx, models.Activity{Action: action, OrderID: id, Outcome: models.OutcomeOK}); err != nil {
			t.Fatalf("RecordActivity: %v", err)
		}
	}
	list, err := st.ListActivity(ctx, store.ActivityQuery{OrderID: id, Limit: 1})
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListActivity = %+v", list)
	}
}

func TestOpen_requiresURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	if _, err := Open("", ""); err == nil {
		t.Fatal("expected error without URI")
	}
}
