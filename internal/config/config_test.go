package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("proj-1")
	if cfg.Project.ID != "proj-1" {
		t.Fatalf("project id = %q", cfg.Project.ID)
	}
	if cfg.Project.Kind != "installation-project" {
		t.Fatalf("project kind = %q", cfg.Project.Kind)
	}
	if !cfg.KnowsJobType("Garage Door Install") {
		t.Fatal("default catalog should include Garage Door Install")
	}
	if cfg.KnowsJobType("Chimney Sweep") {
		t.Fatal("default catalog should not include Chimney Sweep")
	}
	if !cfg.KnowsTrade("electrician") {
		t.Fatal("default catalog should include electrician")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestEmptyCatalogAcceptsEverything(t *testing.T) {
	var cfg Config
	cfg.Project.ID = "p"
	cfg.Project.Kind = "installation-project"
	if !cfg.KnowsJobType("Anything At All") {
		t.Fatal("empty job type catalog should accept everything")
	}
	if !cfg.KnowsTrade("astrologer") {
		t.Fatal("empty trade catalog should accept everything")
	}
}

func TestValidateRejectsBadKind(t *testing.T) {
	_, err := FromYAML([]byte("project:\n  id: p\n  kind: task-board\n"))
	if err == nil || !strings.Contains(err.Error(), "installation-project") {
		t.Fatalf("expected kind error, got %v", err)
	}
}

func TestValidateRejectsWebhookWithoutURL(t *testing.T) {
	yml := `project:
  id: p
  kind: installation-project
webhooks:
  - secret: s
`
	if _, err := FromYAML([]byte(yml)); err == nil {
		t.Fatal("expected webhook url error")
	}
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := FromYAML([]byte(GenerateDefault("round-trip")))
	if err != nil {
		t.Fatalf("generated default did not parse: %v", err)
	}
	if cfg.Project.ID != "round-trip" {
		t.Fatalf("project id = %q", cfg.Project.ID)
	}
	if len(cfg.Catalog.Trades) == 0 {
		t.Fatal("generated default should carry a trade catalog")
	}
}

func TestLoadOptionalMissingFile(t *testing.T) {
	cfg, err := LoadOptional(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Fatal("expected nil config when doorline.yml is absent")
	}
}

func TestLoadReadsWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "doorline.yml"), []byte(GenerateDefault("ws")), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Project.ID != "ws" {
		t.Fatalf("project id = %q", cfg.Project.ID)
	}
}
