package store

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/scbrown/shelf/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProducts() []model.Product {
	return []model.Product{
		{Name: "Wireless Headphones", Tags: "audio wireless bluetooth", Brand: "Acme", Rating: 4.5, ReviewCount: 10},
		{Name: "Smartphone", Tags: "phone mobile electronics", Brand: "Zen", ImageURL: "http://img/2", Rating: 4.0},
		{Name: "Wireless Earbuds", Tags: "audio wireless bluetooth compact", Brand: "Acme", ReviewCount: 2},
		{Name: "Gift Card", Tags: "  "},
	}
}

func TestNewCreatesDir(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	s, err := New(filepath.Join(nested, "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(nested); err != nil {
		t.Errorf("expected directory %s to exist: %v", nested, err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s1, err := New(dbPath)
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	s1.Close()

	// Opening again should not fail (migration is idempotent).
	s2, err := New(dbPath)
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	defer s2.Close()

	var ver int
	if err := s2.db.QueryRow("SELECT version FROM schema_version").Scan(&ver); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if ver != schemaVersion {
		t.Errorf("schema version = %d, want %d", ver, schemaVersion)
	}
}

func TestProductsEmpty(t *testing.T) {
	s := newTestStore(t)
	products, err := s.Products(context.Background())
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("expected no products, got %d", len(products))
	}
}

func TestReplaceAndListProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.ReplaceProducts(ctx, "catalog.csv", sampleProducts())
	if err != nil {
		t.Fatalf("ReplaceProducts: %v", err)
	}
	if n != 4 {
		t.Errorf("wrote %d, want 4", n)
	}

	got, err := s.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	want := sampleProducts()
	for i := range want {
		want[i].Position = i
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Products mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestReplaceProductsReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.ReplaceProducts(ctx, "a.csv", sampleProducts()); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if _, err := s.ReplaceProducts(ctx, "b.csv", []model.Product{{Name: "Lamp", Tags: "home light", Position: 9}}); err != nil {
		t.Fatalf("second import: %v", err)
	}
	got, err := s.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Lamp" || got[0].Position != 0 {
		t.Errorf("after replace got %+v", got)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.LastImport == nil || st.LastImport.Source != "b.csv" || st.LastImport.Products != 1 {
		t.Errorf("LastImport = %+v", st.LastImport)
	}
	if st.LastImport.ID == "" || st.LastImport.ImportedAt.IsZero() {
		t.Errorf("LastImport missing id or time: %+v", st.LastImport)
	}
}

func TestReplaceProductsCanceledContext(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ReplaceProducts(context.Background(), "a.csv", sampleProducts()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ReplaceProducts(ctx, "b.csv", nil); err == nil {
		t.Fatal("expected error for canceled context")
	}
	got, err := s.Products(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("failed import changed the catalog: %d products", len(got))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats on empty store: %v", err)
	}
	if st.TotalProducts != 0 || st.LastImport != nil {
		t.Errorf("empty stats = %+v", st)
	}

	if _, err := s.ReplaceProducts(ctx, "", sampleProducts()); err != nil {
		t.Fatal(err)
	}
	st, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalProducts != 4 {
		t.Errorf("TotalProducts = %d, want 4", st.TotalProducts)
	}
	if st.TaggedProducts != 3 {
		t.Errorf("TaggedProducts = %d, want 3", st.TaggedProducts)
	}
	if st.Brands != 2 {
		t.Errorf("Brands = %d, want 2", st.Brands)
	}
	if st.AvgRating != 4.25 {
		t.Errorf("AvgRating = %v, want 4.25", st.AvgRating)
	}
	want := []NameCount{{"Acme", 2}, {"Zen", 1}}
	if !reflect.DeepEqual(st.TopBrands, want) {
		t.Errorf("TopBrands = %v, want %v", st.TopBrands, want)
	}
}

func TestStatsBadImportTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.ReplaceProducts(ctx, "clean_data.csv", sampleProducts()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE imports SET imported_at = 'yesterday'`); err != nil {
		t.Fatal(err)
	}

	_, err := s.Stats(ctx)
	if err == nil {
		t.Fatal("expected error for unparseable imported_at")
	}
	if !strings.Contains(err.Error(), "imported_at") {
		t.Errorf("err = %v, want it to name imported_at", err)
	}
}

func TestComputeStatsMatchesSQLite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.ReplaceProducts(ctx, "", sampleProducts()); err != nil {
		t.Fatal(err)
	}
	fromDB, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	inMem := ComputeStats(sampleProducts())
	fromDB.LastImport = nil
	if !reflect.DeepEqual(fromDB, inMem) {
		t.Errorf("stats differ:\n db %+v\nmem %+v", fromDB, inMem)
	}
}

func TestComputeStatsTopBrandsLimit(t *testing.T) {
	var products []model.Product
	for _, b := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		products = append(products, model.Product{Name: b, Brand: b})
	}
	st := ComputeStats(products)
	if len(st.TopBrands) != topBrandsLimit {
		t.Errorf("TopBrands len = %d, want %d", len(st.TopBrands), topBrandsLimit)
	}
	if st.TopBrands[0].Name != "a" {
		t.Errorf("ties should sort by name, got %v", st.TopBrands)
	}
	if st.AvgRating != 0 {
		t.Errorf("AvgRating = %v, want 0 with no ratings", st.AvgRating)
	}
}
