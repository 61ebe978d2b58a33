package image

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/zlib"

	"github.com/Darknessking13/neoshell/internal/errs"
)

// PayloadReader lazily decompresses the tar payload of an opened image.
// Compressed bytes are pulled from the underlying file, through the
// 32 KiB read buffer Open used for the header (so payload bytes that
// buffer already holds are decompressed first), only as the caller
// pulls decompressed bytes from Read; the payload is never loaded
// into memory as a whole.
type PayloadReader struct {
	src  *bufio.Reader
	file io.Closer
	zr   io.ReadCloser
}

func (p *PayloadReader) Read(b []byte) (int, error) {
	if p.zr == nil {
		zr, err := zlib.NewReader(p.src)
		if err != nil {
			return 0, errs.New(errs.KindCompression, "open zlib stream", err)
		}
		p.zr = zr
	}
	n, err := p.zr.Read(b)
	if err != nil && err != io.EOF {
		return n, errs.New(errs.KindCompression, "read zlib stream", err)
	}
	return n, err
}

// Close releases the underlying file. Safe to call even if Read was
// never called.
func (p *PayloadReader) Close() error {
	var zErr error
	if p.zr != nil {
		zErr = p.zr.Close()
	}
	fErr := p.file.Close()
	if zErr != nil {
		return zErr
	}
	return fErr
}

// Open validates an image's fixed prefix and header, and returns the
// parsed header plus a lazy reader over the decompressed tar payload.
// The file stays open for the lifetime of the returned PayloadReader;
// callers must Close it.
func Open(path string) (*Header, *PayloadReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errs.New(errs.KindIO, "open image file", err)
	}

	br := bufio.NewReaderSize(f, 32*1024)

	var prefix [prefixLen]byte
	if _, err := io.ReadFull(br, prefix[:]); err != nil {
		f.Close()
		return nil, nil, errTruncated("read prefix", err)
	}

	var magic [4]byte
	copy(magic[:], prefix[0:4])
	if magic != Magic {
		f.Close()
		return nil, nil, errBadMagic(magic)
	}

	version := binary.BigEndian.Uint32(prefix[4:8])
	if version != Version {
		f.Close()
		return nil, nil, errUnsupportedVersion(version)
	}

	headerLen := binary.BigEndian.Uint32(prefix[8:12])
	if headerLen < 2 || headerLen > MaxHeaderLen {
		f.Close()
		return nil, nil, errHeaderTooLarge(headerLen)
	}

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(br, headerBytes); err != nil {
		f.Close()
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, nil, errTruncated("read header", err)
		}
		return nil, nil, errs.New(errs.KindIO, "read header", err)
	}

	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		f.Close()
		return nil, nil, errs.New(errs.KindFormat, "decode header json", err)
	}
	if err := header.Validate(); err != nil {
		f.Close()
		return nil, nil, err
	}

	return &header, &PayloadReader{src: br, file: f}, nil
}
