package load

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/Darknessking13/neoshell/internal/image"
)

func writeImage(t *testing.T, dir string) string {
	t.Helper()
	payloadDir := filepath.Join(dir, "payload")
	if err := os.MkdirAll(filepath.Join(payloadDir, "app"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(payloadDir, "app", "run.sh"), []byte("#!/bin/sh\necho hi"), 0o755); err != nil {
		t.Fatal(err)
	}

	imgPath := filepath.Join(dir, "demo.nsi")
	header := image.Header{ImageName: "demo", Version: "1"}
	header.Runtime.Cmd = []string{"/app/run.sh"}
	if _, err := image.Write(imgPath, payloadDir, header); err != nil {
		t.Fatal(err)
	}
	return imgPath
}

func TestLoadExtractsAndVerifies(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeImage(t, dir)

	res, err := Load(imgPath, dir, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer os.RemoveAll(res.RootDir)

	if res.Header.ImageName != "demo" {
		t.Errorf("Header.ImageName = %q, want demo", res.Header.ImageName)
	}
	if _, err := os.Stat(filepath.Join(res.RootDir, "app", "run.sh")); err != nil {
		t.Errorf("expected extracted app/run.sh: %v", err)
	}
	info, err := os.Stat(res.RootDir)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Errorf("root dir mode = %v, want 0700", info.Mode().Perm())
	}
}

func TestLoadRemovesRootDirOnMissingImage(t *testing.T) {
	dir := t.TempDir()

	before, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Load(filepath.Join(dir, "missing.nsi"), dir, Options{})
	if err == nil {
		t.Fatal("expected an error for a missing image")
	}

	after, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before) {
		t.Errorf("Load left behind entries in %s: before=%d after=%d", dir, len(before), len(after))
	}
}

func TestLoadStrictFailsOnHashMismatch(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeImage(t, dir)

	data, err := os.ReadFile(imgPath)
	if err != nil {
		t.Fatal(err)
	}
	// Change one hex digit of the header's declared hash in place (the
	// header length stays the same), so the hash recomputed over the
	// intact payload no longer matches it.
	headerLen := binary.BigEndian.Uint32(data[8:12])
	headerJSON := data[12 : 12+headerLen]
	i := bytes.Index(headerJSON, []byte(`"hash":"`))
	if i < 0 {
		t.Fatal("image header has no hash field")
	}
	digit := &headerJSON[i+len(`"hash":"`)]
	if *digit == '0' {
		*digit = '1'
	} else {
		*digit = '0'
	}
	if err := os.WriteFile(imgPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(imgPath, dir, Options{Strict: true}); err == nil {
		t.Fatal("expected a strict Load to fail on a hash mismatch")
	}
}
