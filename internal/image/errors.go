package image

import (
	"fmt"

	"github.com/Darknessking13/neoshell/internal/errs"
)

func errRequiredField(name string) error {
	return errs.New(errs.KindFormat, "validate header", fmt.Errorf("missing required field %q", name))
}

func errBadMagic(got [4]byte) error {
	return errs.New(errs.KindFormat, "read magic", fmt.Errorf("bad magic %q, want %q", got, Magic))
}

func errUnsupportedVersion(got uint32) error {
	return errs.New(errs.KindFormat, "read version", fmt.Errorf("unsupported version %d", got))
}

func errHeaderTooLarge(n uint32) error {
	return errs.New(errs.KindFormat, "read header length", fmt.Errorf("header length %d outside allowed range 2..%d", n, MaxHeaderLen))
}

func errTruncated(attempted string, cause error) error {
	return errs.New(errs.KindFormat, attempted, fmt.Errorf("truncated file: %w", cause))
}
