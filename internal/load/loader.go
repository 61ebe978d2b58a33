// Package load extracts a container image onto disk so the sandbox
// launcher can pivot_root into it. See SPEC_FULL.md Component C.
package load

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Darknessking13/neoshell/internal/errs"
	"github.com/Darknessking13/neoshell/internal/image"
)

// Result is what a successful Load produces: the parsed header and
// the directory the payload was extracted into.
type Result struct {
	Header  *image.Header
	RootDir string
}

// Options controls hash-verification strictness. Per spec.md §9 the
// default policy is warn-only; Strict promotes a mismatch to a
// hard failure.
type Options struct {
	Strict bool
	Logger *logrus.Logger
}

// Load opens the image at path, extracts its payload into a fresh
// directory under rootParent, and returns the result. On any failure
// the partially populated root directory is removed before the error
// is returned.
func Load(path, rootParent string, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	header, payload, err := image.Open(path)
	if err != nil {
		return nil, err
	}
	defer payload.Close()

	rootDir, err := os.MkdirTemp(rootParent, "neoshell-root-*")
	if err != nil {
		return nil, errs.New(errs.KindIO, "create root directory", err)
	}
	if err := os.Chmod(rootDir, 0o700); err != nil {
		os.RemoveAll(rootDir)
		return nil, errs.New(errs.KindIO, "chmod root directory", err)
	}

	got, err := image.HashingExtract(payload, rootDir)
	if err != nil {
		os.RemoveAll(rootDir)
		return nil, err
	}

	if err := image.VerifyHash(got, header.Hash); err != nil {
		if opts.Strict {
			os.RemoveAll(rootDir)
			return nil, err
		}
		log.WithField("image", path).Warn(err)
	}

	return &Result{Header: header, RootDir: rootDir}, nil
}
