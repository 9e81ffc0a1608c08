package localstore

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/todochimp/chimp/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if _, found, err := store.LoadSession(); err != nil || found {
		t.Fatalf("fresh store must have no session (found=%v err=%v)", found, err)
	}

	session := model.Session{
		User: model.User{
			ID:               "u-1",
			Name:             "Ada",
			Email:            "ada@example.com",
			Role:             "MEMBER",
			OrganizationID:   "org-1",
			OrganizationName: "Acme",
		},
		Token:   "tok-abc",
		SavedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	if err := store.SaveSession(session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, found, err := store.LoadSession()
	if err != nil || !found {
		t.Fatalf("load session (found=%v err=%v)", found, err)
	}
	if loaded.User != session.User || loaded.Token != session.Token {
		t.Fatalf("loaded = %+v, want %+v", loaded, session)
	}
	if !loaded.SavedAt.Equal(session.SavedAt) {
		t.Fatalf("saved at = %v", loaded.SavedAt)
	}
}

func TestSaveSessionReplacesExisting(t *testing.T) {
	store := openTestStore(t)
	first := model.Session{User: model.User{ID: "u-1", Name: "Ada", Email: "a@b.com"}, Token: "t1", SavedAt: time.Now()}
	second := model.Session{User: model.User{ID: "u-2", Name: "Grace", Email: "g@h.com"}, Token: "t2", SavedAt: time.Now()}
	if err := store.SaveSession(first); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSession(second); err != nil {
		t.Fatal(err)
	}
	loaded, found, err := store.LoadSession()
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if loaded.User.ID != "u-2" || loaded.Token != "t2" {
		t.Fatalf("expected replacement, got %+v", loaded)
	}
}

func TestClearSession(t *testing.T) {
	store := openTestStore(t)
	session := model.Session{User: model.User{ID: "u-1", Name: "Ada", Email: "a@b.com"}, Token: "t1", SavedAt: time.Now()}
	if err := store.SaveSession(session); err != nil {
		t.Fatal(err)
	}
	if err := store.ClearSession(); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if _, found, err := store.LoadSession(); err != nil || found {
		t.Fatalf("session must be gone (found=%v err=%v)", found, err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if _, found, err := store.LoadSnapshot(); err != nil || found {
		t.Fatalf("fresh store must have no snapshot (found=%v err=%v)", found, err)
	}

	query := map[string]any{"page": 2, "filter": "All"}
	page := map[string]any{"totalPages": 4}
	if err := store.SaveSnapshot(query, page); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	snap, found, err := store.LoadSnapshot()
	if err != nil || !found {
		t.Fatalf("load snapshot (found=%v err=%v)", found, err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(snap.QueryJSON), &decoded); err != nil {
		t.Fatalf("query json: %v", err)
	}
	if decoded["filter"] != "All" {
		t.Fatalf("query = %v", decoded)
	}
	if snap.FetchedAt.IsZero() {
		t.Fatalf("fetched at must be set")
	}
}
