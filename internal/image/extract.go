package image

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/Darknessking13/neoshell/internal/errs"
)

// Extract streams r (a tar byte source, typically a *PayloadReader)
// into destDir, which must already exist. It enforces tar safety:
// absolute-path entries and entries whose resolved path (accounting
// for symlink targets) escapes destDir are rejected. A mid-stream
// error aborts extraction; the caller is responsible for removing
// destDir afterwards.
func Extract(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errs.New(errs.KindTar, "read tar entry", err)
		}

		if err := checkEntrySafety(destDir, hdr); err != nil {
			return err
		}

		target, err := securejoin.SecureJoin(destDir, hdr.Name)
		if err != nil {
			return errs.New(errs.KindTar, "resolve entry path "+hdr.Name, err)
		}

		if err := extractEntry(tr, hdr, target); err != nil {
			return err
		}
	}
	return nil
}

// checkEntrySafety rejects absolute paths, ".." escapes on the entry's
// own name, and symlink targets that would resolve outside destDir.
func checkEntrySafety(destDir string, hdr *tar.Header) error {
	if filepath.IsAbs(hdr.Name) {
		return errs.New(errs.KindTar, "check entry "+hdr.Name, fmt.Errorf("absolute path entry rejected"))
	}
	naive := filepath.Join(destDir, hdr.Name)
	if escapesRoot(destDir, naive) {
		return errs.New(errs.KindTar, "check entry "+hdr.Name, fmt.Errorf("entry escapes destination"))
	}
	if hdr.Typeflag == tar.TypeSymlink || hdr.Typeflag == tar.TypeLink {
		var candidate string
		if filepath.IsAbs(hdr.Linkname) {
			candidate = hdr.Linkname
		} else {
			candidate = filepath.Join(filepath.Dir(naive), hdr.Linkname)
		}
		if escapesRoot(destDir, filepath.Clean(candidate)) {
			return errs.New(errs.KindTar, "check entry "+hdr.Name, fmt.Errorf("symlink target %q escapes destination", hdr.Linkname))
		}
	}
	return nil
}

func escapesRoot(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func extractEntry(tr *tar.Reader, hdr *tar.Header, target string) error {
	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, os.FileMode(hdr.Mode)&0o7777); err != nil {
			return errs.New(errs.KindIO, "mkdir "+target, err)
		}
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errs.New(errs.KindIO, "mkdir parent of "+target, err)
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0o7777)
		if err != nil {
			return errs.New(errs.KindIO, "create "+target, err)
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return errs.New(errs.KindTar, "write "+target, err)
		}
		if err := f.Close(); err != nil {
			return errs.New(errs.KindIO, "close "+target, err)
		}
	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errs.New(errs.KindIO, "mkdir parent of "+target, err)
		}
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return errs.New(errs.KindIO, "symlink "+target, err)
		}
	default:
		// Device nodes, fifos, etc. are silently skipped: the sandbox
		// mounts its own /dev, and images are not expected to carry
		// device nodes.
	}
	return nil
}

// VerifyHash compares got (the digest HashingExtract returned for the
// tar bytes it observed) against want (the header's hash), and returns
// an IntegrityError when they differ. Per spec.md §4.A this is advisory: a mismatch is
// reported, not treated as a hard failure, so images with stale
// hashes remain runnable.
func VerifyHash(got, want string) error {
	if got != want {
		return errs.New(errs.KindIntegrity, "verify payload hash", fmt.Errorf("computed %s, header says %s", got, want))
	}
	return nil
}

// HashingExtract is like Extract but also returns the SHA-256 of the
// decompressed tar bytes it observed, for VerifyHash.
func HashingExtract(r io.Reader, destDir string) (string, error) {
	hasher := sha256.New()
	if err := Extract(io.TeeReader(r, hasher), destDir); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
