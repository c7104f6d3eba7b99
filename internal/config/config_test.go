package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nonexistent.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *cfg != (Config{}) {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "config.toml")
	cfg := &Config{
		CatalogPath:   "/data/clean_data.csv",
		DBPath:        "/custom/path.db",
		TopN:          8,
		CacheTTL:      "1m",
		DefaultFormat: "json",
		LogLevel:      "debug",
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded %+v, want %+v", loaded, cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"db_path":"/x.db","top_n":3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.DBPath != "/x.db" || cfg.TopN != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, data := range map[string]string{"bad.json": "{invalid", "bad.toml": "top_n = ["} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFrom(path); err == nil {
			t.Errorf("%s: expected parse error", name)
		}
	}
}

func TestGetSet(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"catalog_path", "catalog_path", "/tmp/catalog.csv", "/tmp/catalog.csv"},
		{"db_path", "db_path", "/tmp/test.db", "/tmp/test.db"},
		{"top_n", "top_n", "5", "5"},
		{"top_n empty", "top_n", "", ""},
		{"max_features", "max_features", "500", "500"},
		{"cache_ttl", "cache_ttl", "30s", "30s"},
		{"cache_ttl zero", "cache_ttl", "0", "0"},
		{"listen_addr", "listen_addr", ":9000", ":9000"},
		{"log_level", "log_level", "WARN", "warn"},
		{"log_format", "log_format", "console", "console"},
		{"default_format table", "default_format", "table", "table"},
		{"default_format json", "default_format", "json", "json"},
		{"store_mode remote", "store_mode", "remote", "remote"},
		{"remote_url", "remote_url", "http://shelf:7480", "http://shelf:7480"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("set: %v", err)
			}
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetInvalid(t *testing.T) {
	tests := []struct{ key, value string }{
		{"nonexistent", "value"},
		{"default_format", "xml"},
		{"store_mode", "cloud"},
		{"top_n", "0"},
		{"top_n", "ten"},
		{"max_features", "-1"},
		{"cache_ttl", "soon"},
		{"cache_ttl", "-1m"},
		{"log_level", "loud"},
		{"log_format", "yaml"},
	}
	for _, tt := range tests {
		cfg := &Config{}
		if err := cfg.Set(tt.key, tt.value); err == nil {
			t.Errorf("Set(%q, %q) succeeded, want error", tt.key, tt.value)
		}
	}
}

func TestGetUnknownKey(t *testing.T) {
	cfg := &Config{}
	if _, err := cfg.Get("nonexistent"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidKeys(t *testing.T) {
	keys := ValidKeys()
	if len(keys) != 11 {
		t.Fatalf("expected 11 keys, got %d", len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] < keys[i-1] {
			t.Errorf("keys not sorted: %q before %q", keys[i-1], keys[i])
		}
	}
	cfg := &Config{}
	for _, k := range keys {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Get(%q): %v", k, err)
		}
	}
	for _, v := range EnvVars() {
		if !validKeys[envKeys[v]] {
			t.Errorf("%s maps to unknown key %q", v, envKeys[v])
		}
	}
}

func TestPath(t *testing.T) {
	p := Path()
	if filepath.Base(p) != "config.toml" {
		t.Errorf("Path() = %q, want basename config.toml", p)
	}
	if filepath.Base(filepath.Dir(p)) != ".shelf" {
		t.Errorf("Path() = %q, want it under .shelf", p)
	}
	if filepath.Base(DefaultDBPath()) != "shelf.db" {
		t.Errorf("DefaultDBPath() = %q", DefaultDBPath())
	}
}

func TestDerivedValues(t *testing.T) {
	cfg := &Config{}
	if cfg.CacheTTLDuration() != DefaultCacheTTL {
		t.Errorf("default ttl = %v", cfg.CacheTTLDuration())
	}
	if cfg.Addr() != DefaultListenAddr {
		t.Errorf("default addr = %q", cfg.Addr())
	}
	if cfg.ResolvedDBPath() != DefaultDBPath() {
		t.Errorf("default db = %q", cfg.ResolvedDBPath())
	}

	cfg = &Config{CacheTTL: "0", ListenAddr: "127.0.0.1:1", DBPath: "/x.db"}
	if cfg.CacheTTLDuration() != 0 {
		t.Errorf("ttl = %v, want 0", cfg.CacheTTLDuration())
	}
	if cfg.Addr() != "127.0.0.1:1" || cfg.ResolvedDBPath() != "/x.db" {
		t.Errorf("cfg = %+v", cfg)
	}
	cfg.CacheTTL = "90s"
	if cfg.CacheTTLDuration() != 90*time.Second {
		t.Errorf("ttl = %v", cfg.CacheTTLDuration())
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SHELF_CATALOG", "/env/catalog.csv")
	t.Setenv("SHELF_LOG_LEVEL", "error")
	t.Setenv("SHELF_REMOTE_URL", "http://remote:7480")
	t.Setenv("SHELF_DB", "")

	cfg := &Config{CatalogPath: "/file/catalog.csv", DBPath: "/file.db"}
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.CatalogPath != "/env/catalog.csv" {
		t.Errorf("CatalogPath = %q", cfg.CatalogPath)
	}
	if cfg.LogLevel != "error" || cfg.RemoteURL != "http://remote:7480" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DBPath != "/file.db" {
		t.Errorf("empty env var overrode DBPath: %q", cfg.DBPath)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv("SHELF_STORE_MODE", "cloud")
	cfg := &Config{}
	if err := cfg.ApplyEnv(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SHELF_ADDR=:9999\nSHELF_TOP_N=4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHELF_TOP_N", "7")
	t.Setenv("SHELF_ADDR", "")
	os.Unsetenv("SHELF_ADDR")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("SHELF_ADDR"); got != ":9999" {
		t.Errorf("SHELF_ADDR = %q, want :9999", got)
	}
	if got := os.Getenv("SHELF_TOP_N"); got != "7" {
		t.Errorf("SHELF_TOP_N = %q, existing value should win", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file: %v", err)
	}
}

func TestSaveToCreatesDir(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "a", "b", "c", "config.toml")
	cfg := &Config{DBPath: "/test.db"}
	if err := cfg.SaveTo(nested); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(nested)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.DBPath != "/test.db" {
		t.Errorf("DBPath = %q, want /test.db", loaded.DBPath)
	}
}

func TestLoadFromReadError(t *testing.T) {
	// Try to read a directory as a file.
	if _, err := LoadFrom(t.TempDir()); err == nil {
		t.Fatal("expected error when reading directory as file")
	}
}
