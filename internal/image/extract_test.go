package image

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func buildTar(t *testing.T, entries map[string]string, symlinks map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	for name, target := range symlinks {
		hdr := &tar.Header{Name: name, Linkname: target, Typeflag: tar.TypeSymlink, Mode: 0o777}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractRejectsAbsolutePath(t *testing.T) {
	data := buildTar(t, map[string]string{"/etc/passwd": "pwned"}, nil)
	dest := t.TempDir()

	if err := Extract(bytes.NewReader(data), dest); err == nil {
		t.Fatal("expected an error for an absolute path entry")
	}
}

func TestExtractRejectsDotDotEscape(t *testing.T) {
	data := buildTar(t, map[string]string{"../escape.txt": "pwned"}, nil)
	dest := t.TempDir()

	if err := Extract(bytes.NewReader(data), dest); err == nil {
		t.Fatal("expected an error for a .. path entry")
	}
}

func TestExtractRejectsEscapingSymlink(t *testing.T) {
	data := buildTar(t, nil, map[string]string{"link": "../../etc"})
	dest := t.TempDir()

	if err := Extract(bytes.NewReader(data), dest); err == nil {
		t.Fatal("expected an error for a symlink target that escapes the destination")
	}
}

func TestExtractAcceptsSafeEntries(t *testing.T) {
	data := buildTar(t, map[string]string{"a/b.txt": "ok"}, map[string]string{"a/link": "b.txt"})
	dest := t.TempDir()

	if err := Extract(bytes.NewReader(data), dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dest, "a", "b.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ok" {
		t.Errorf("content = %q, want ok", got)
	}
}
