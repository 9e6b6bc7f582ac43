package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.APIBase != DefaultAPIBase {
		t.Errorf("expected APIBase %s, got %s", DefaultAPIBase, cfg.APIBase)
	}

	if cfg.Workers != DefaultWorkers {
		t.Errorf("expected Workers %d, got %d", DefaultWorkers, cfg.Workers)
	}

	if cfg.MaxArtifactSize != 2621440 {
		t.Errorf("expected MaxArtifactSize 2621440, got %d", cfg.MaxArtifactSize)
	}

	if cfg.MaxInflateSize != DefaultMaxArchiveInflate {
		t.Errorf("expected MaxInflateSize %d, got %d", DefaultMaxArchiveInflate, cfg.MaxInflateSize)
	}

	if len(cfg.ArtifactKeywords) != len(DefaultArtifactKeywords) {
		t.Errorf("expected %d artifact keywords, got %d", len(DefaultArtifactKeywords), len(cfg.ArtifactKeywords))
	}

	cfg.ArtifactKeywords[0] = "changed"
	if DefaultArtifactKeywords[0] == "changed" {
		t.Error("New must copy the default keywords")
	}
}

func TestConfig_SetRepository(t *testing.T) {
	tests := []struct {
		name      string
		slug      string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{name: "owner and repo", slug: "octo/widgets", wantOwner: "octo", wantRepo: "widgets"},
		{name: "missing slash", slug: "widgets", wantErr: true},
		{name: "empty owner", slug: "/widgets", wantErr: true},
		{name: "too many segments", slug: "a/b/c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			err := cfg.SetRepository(tt.slug)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.slug)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Owner != tt.wantOwner || cfg.Repo != tt.wantRepo {
				t.Errorf("expected %s/%s, got %s/%s", tt.wantOwner, tt.wantRepo, cfg.Owner, cfg.Repo)
			}
		})
	}
}

func TestConfig_IsCandidateArtifact(t *testing.T) {
	cfg := New()

	tests := []struct {
		name     string
		artifact string
		expected bool
	}{
		{name: "junit keyword", artifact: "junit-reports", expected: true},
		{name: "test keyword uppercase", artifact: "Unit-TEST-Results", expected: true},
		{name: "unrelated", artifact: "coverage-html", expected: false},
		{name: "build output", artifact: "dist", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.IsCandidateArtifact(tt.artifact); got != tt.expected {
				t.Errorf("IsCandidateArtifact(%q) = %v, want %v", tt.artifact, got, tt.expected)
			}
		})
	}
}

func TestConfig_LoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	content := `owner: octo
repo: widgets
workers: 8
artifact_keywords:
  - reports
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg := New()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Owner != "octo" || cfg.Repo != "widgets" {
		t.Errorf("expected octo/widgets, got %s/%s", cfg.Owner, cfg.Repo)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Workers)
	}
	if len(cfg.ArtifactKeywords) != 1 || cfg.ArtifactKeywords[0] != "reports" {
		t.Errorf("expected keywords [reports], got %v", cfg.ArtifactKeywords)
	}
	if cfg.CacheCeiling != DefaultCacheCeiling {
		t.Errorf("absent keys must keep defaults, got ceiling %d", cfg.CacheCeiling)
	}

	t.Run("malformed file", func(t *testing.T) {
		bad := filepath.Join(tmpDir, "bad.yaml")
		os.WriteFile(bad, []byte("workers: [not a number"), 0644)
		if err := New().LoadFile(bad); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	os.WriteFile(path, []byte("owner: octo\nrepo: widgets\nworkers: 2\n"), 0644)

	cfg, err := Load(Flags{ConfigPath: path, Repo: "gadgets", Workers: 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Owner != "octo" || cfg.Repo != "gadgets" {
		t.Errorf("expected octo/gadgets, got %s/%s", cfg.Owner, cfg.Repo)
	}
	if cfg.Workers != 6 {
		t.Errorf("expected 6 workers, got %d", cfg.Workers)
	}

	if _, err := Load(Flags{ConfigPath: filepath.Join(tmpDir, "missing.yaml")}); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestConfig_ClientCredentials(t *testing.T) {
	cfg := New()

	if _, _, err := cfg.ClientCredentials(); err == nil {
		t.Error("expected error for missing key")
	}

	cfg.ClientKey = "only-id"
	if _, _, err := cfg.ClientCredentials(); err == nil {
		t.Error("expected error for key without secret")
	}

	cfg.ClientKey = "id:secret"
	id, secret, err := cfg.ClientCredentials()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "id" || secret != "secret" {
		t.Errorf("expected id/secret, got %s/%s", id, secret)
	}
}
