package image

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zlib"

	"github.com/Darknessking13/neoshell/internal/errs"
)

// Write packs payloadSource (a directory) into a tar stream, compresses
// it, and assembles the on-disk image at path. headerTemplate supplies
// the caller-controlled fields (imageName, version, runtime); Write
// fills in hash, created, and sizeKB. The write is atomic relative to
// path: it stages into a temp file in the same directory and renames
// on success, so a reader never observes a partially written image.
func Write(path string, payloadSource string, headerTemplate Header) (*Header, error) {
	dir := filepath.Dir(path)

	payloadTmp, err := os.CreateTemp(dir, ".nsi-payload-*")
	if err != nil {
		return nil, errs.New(errs.KindIO, "create payload temp file", err)
	}
	payloadTmpPath := payloadTmp.Name()
	defer os.Remove(payloadTmpPath)
	defer payloadTmp.Close()

	hash := sha256.New()
	zw, err := zlib.NewWriterLevel(payloadTmp, zlib.BestCompression)
	if err != nil {
		return nil, errs.New(errs.KindCompression, "create zlib writer", err)
	}

	counter := &countingWriter{}
	tw := tar.NewWriter(io.MultiWriter(zw, hash, counter))
	entries, err := tarDir(payloadSource, tw)
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, errs.New(errs.KindTar, "close tar writer", err)
	}
	if err := zw.Close(); err != nil {
		return nil, errs.New(errs.KindCompression, "close zlib writer", err)
	}

	if entries == 0 {
		return nil, errs.New(errs.KindFormat, "write payload", fmt.Errorf("empty tar payload"))
	}

	header := headerTemplate
	header.SchemaVersion = 1
	header.Created = time.Now().UTC()
	header.Hash = hex.EncodeToString(hash.Sum(nil))
	header.SizeKB = (counter.n + 1023) / 1024

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, errs.New(errs.KindFormat, "marshal header", err)
	}

	finalTmp, err := os.CreateTemp(dir, ".nsi-image-*")
	if err != nil {
		return nil, errs.New(errs.KindIO, "create image temp file", err)
	}
	finalTmpPath := finalTmp.Name()
	defer os.Remove(finalTmpPath)

	if err := writePrefixAndHeader(finalTmp, headerBytes); err != nil {
		finalTmp.Close()
		return nil, err
	}

	if _, err := payloadTmp.Seek(0, io.SeekStart); err != nil {
		finalTmp.Close()
		return nil, errs.New(errs.KindIO, "seek payload temp file", err)
	}
	if _, err := io.Copy(finalTmp, payloadTmp); err != nil {
		finalTmp.Close()
		return nil, errs.New(errs.KindIO, "copy payload into image", err)
	}
	if err := finalTmp.Close(); err != nil {
		return nil, errs.New(errs.KindIO, "close image temp file", err)
	}

	if err := os.Rename(finalTmpPath, path); err != nil {
		return nil, errs.New(errs.KindIO, "rename image into place", err)
	}
	return &header, nil
}

func writePrefixAndHeader(w io.Writer, headerBytes []byte) error {
	var buf [prefixLen]byte
	copy(buf[0:4], Magic[:])
	binary.BigEndian.PutUint32(buf[4:8], Version)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(headerBytes)))
	if _, err := w.Write(buf[:]); err != nil {
		return errs.New(errs.KindIO, "write image prefix", err)
	}
	if _, err := w.Write(headerBytes); err != nil {
		return errs.New(errs.KindIO, "write image header", err)
	}
	return nil
}

// tarDir writes the contents of srcDir to tw with entries rooted at
// the archive root (not nested under srcDir's own name), and returns
// the number of entries written. tar.Writer.Close always emits a
// trailing 1024-byte end-of-archive marker regardless of how many (if
// any) entries preceded it, so callers that need to detect an empty
// payload must count entries here rather than bytes written to tw.
func tarDir(srcDir string, tw *tar.Writer) (int, error) {
	entries := 0
	err := filepath.Walk(srcDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return errs.New(errs.KindIO, "walk "+p, err)
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return errs.New(errs.KindIO, "relativize "+p, err)
		}
		if rel == "." {
			return nil
		}

		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			link, err = os.Readlink(p)
			if err != nil {
				return errs.New(errs.KindIO, "readlink "+p, err)
			}
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return errs.New(errs.KindTar, "build tar header for "+p, err)
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return errs.New(errs.KindTar, "write tar header for "+p, err)
		}
		entries++
		if info.Mode().IsRegular() {
			f, err := os.Open(p)
			if err != nil {
				return errs.New(errs.KindIO, "open "+p, err)
			}
			defer f.Close()
			if _, err := io.Copy(tw, f); err != nil {
				return errs.New(errs.KindTar, "write tar data for "+p, err)
			}
		}
		return nil
	})
	return entries, err
}

type countingWriter struct{ n int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
