package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/Darknessking13/neoshell/internal/image"
)

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		rel      string
		include  []string
		wantIdx  int
		wantIncl bool
	}{
		{"a/b.txt", nil, -1, true},
		{"a/b.txt", []string{"a"}, 0, true},
		{"a/b.txt", []string{"c"}, -1, false},
		{"a/b.txt", []string{"c", "a/b.txt"}, 1, true},
	}
	for _, tt := range tests {
		idx, included := matchesAny(tt.rel, tt.include)
		if idx != tt.wantIdx || included != tt.wantIncl {
			t.Errorf("matchesAny(%q, %v) = (%d, %v), want (%d, %v)", tt.rel, tt.include, idx, included, tt.wantIdx, tt.wantIncl)
		}
	}
}

func TestMatchesPrefix(t *testing.T) {
	if !matchesPrefix("a/b.txt", []string{"a"}) {
		t.Error("expected a/b.txt to match prefix a")
	}
	if matchesPrefix("a/b.txt", []string{"c"}) {
		t.Error("expected a/b.txt not to match prefix c")
	}
}

func TestCopyIncludedRespectsExclude(t *testing.T) {
	sourceDir := t.TempDir()
	scratch := t.TempDir()

	mustWrite(t, filepath.Join(sourceDir, "src", "main.go"), "package main")
	mustWrite(t, filepath.Join(sourceDir, "vendor", "dep.go"), "package dep")

	err := copyIncluded(sourceDir, scratch, nil, []string{"vendor"}, logrus.StandardLogger())
	if err != nil {
		t.Fatalf("copyIncluded: %v", err)
	}
	if _, err := os.Stat(filepath.Join(scratch, "src", "main.go")); err != nil {
		t.Errorf("expected src/main.go to be copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(scratch, "vendor", "dep.go")); !os.IsNotExist(err) {
		t.Errorf("expected vendor/dep.go to be excluded, stat err = %v", err)
	}
}

func TestBuildEndToEnd(t *testing.T) {
	sourceDir := t.TempDir()
	mustWrite(t, filepath.Join(sourceDir, "app", "hello.txt"), "hi")
	yamlPath := writeConfig(t, sourceDir, `
name: demo
version: "1"
include: ["app"]
runtime:
  cmd: ["/app/hello.txt"]
`)

	outPath, err := Build(yamlPath, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if filepath.Base(outPath) != "demo-1.nsi" {
		t.Errorf("outPath = %q, want basename demo-1.nsi", outPath)
	}

	header, payload, err := image.Open(outPath)
	if err != nil {
		t.Fatalf("Open built image: %v", err)
	}
	defer payload.Close()
	if header.ImageName != "demo" {
		t.Errorf("header.ImageName = %q, want demo", header.ImageName)
	}

	dest := t.TempDir()
	if _, err := image.HashingExtract(payload, dest); err != nil {
		t.Fatalf("HashingExtract: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "app", "hello.txt")); err != nil {
		t.Errorf("expected extracted app/hello.txt: %v", err)
	}

	// The scratch directory used during the build must never survive it.
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".nsi-scratch-") {
			t.Errorf("scratch directory %q leaked into source tree", e.Name())
		}
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
