package build

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, yaml string) string {
	t.Helper()
	path := filepath.Join(dir, "build.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigValid(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
name: demo
version: "1.2"
runtime:
  cmd: ["/app/hello"]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "demo" || cfg.Version != "1.2" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.OutputFilename() != "demo-1.2.nsi" {
		t.Errorf("OutputFilename() = %q, want demo-1.2.nsi", cfg.OutputFilename())
	}
}

func TestLoadConfigMissingVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
name: demo
runtime:
  cmd: ["/app/hello"]
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for a missing version")
	}
}

func TestLoadConfigMissingName(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
runtime:
  cmd: ["/app/hello"]
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for a missing name")
	}
}

func TestLoadConfigMissingRuntimeCmd(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
name: demo
version: "1"
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for a missing runtime.cmd")
	}
}
