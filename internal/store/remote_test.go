package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// testRemote sets up a SQLite store, wraps it in an HTTP server, and returns
// a RemoteStore pointing at it along with the backing store.
func testRemote(t *testing.T) (*RemoteStore, *SQLiteStore) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	local, err := New(dbPath)
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { local.Close() })

	mux := http.NewServeMux()
	registerRoutes(mux, local)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return NewRemote(ts.URL + "/"), local
}

// registerRoutes sets up the same HTTP routes that server.Server uses,
// duplicated here to avoid a circular import.
func registerRoutes(mux *http.ServeMux, s Store) {
	mux.HandleFunc("GET /api/v1/products", func(w http.ResponseWriter, r *http.Request) {
		products, err := s.Products(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(products)
	})
	mux.HandleFunc("GET /api/v1/stats", func(w http.ResponseWriter, r *http.Request) {
		st, err := s.Stats(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(st)
	})
}

func TestRemoteProducts(t *testing.T) {
	remote, local := testRemote(t)
	ctx := context.Background()

	if _, err := local.ReplaceProducts(ctx, "seed", sampleProducts()); err != nil {
		t.Fatal(err)
	}
	got, err := remote.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	want, _ := local.Products(ctx)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("remote products differ:\n got %+v\nwant %+v", got, want)
	}
}

func TestRemoteStats(t *testing.T) {
	remote, local := testRemote(t)
	ctx := context.Background()
	if _, err := local.ReplaceProducts(ctx, "seed", sampleProducts()); err != nil {
		t.Fatal(err)
	}
	st, err := remote.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalProducts != 4 || st.Brands != 2 {
		t.Errorf("Stats = %+v", st)
	}
	if st.LastImport == nil || st.LastImport.Source != "seed" {
		t.Errorf("LastImport = %+v", st.LastImport)
	}
}

func TestRemoteErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"catalog unavailable"}`))
	}))
	defer ts.Close()

	_, err := NewRemote(ts.URL).Products(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "catalog unavailable") {
		t.Errorf("err = %v", err)
	}
}

func TestRemoteErrorNoBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := NewRemote(ts.URL).Stats(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Not Found") {
		t.Errorf("err = %v, want Not Found", err)
	}
}

func TestRemoteUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	if _, err := NewRemote(url).Products(context.Background()); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestRemoteString(t *testing.T) {
	if got := NewRemote("http://host:1/").String(); got != "remote:http://host:1" {
		t.Errorf("String() = %q", got)
	}
	var _ Store = (*RemoteStore)(nil)
	var _ Store = (*SQLiteStore)(nil)
}
