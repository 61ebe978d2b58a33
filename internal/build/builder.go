// Package build implements the image builder: it gathers a source
// tree, runs declared build steps, and hands the result to the image
// codec. See SPEC_FULL.md Component B.
package build

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mrunalp/fileutils"
	"github.com/sirupsen/logrus"

	"github.com/Darknessking13/neoshell/internal/errs"
	"github.com/Darknessking13/neoshell/internal/image"
)

// Options controls where build command output goes and which logger
// the build reports to; Build defaults nil fields to os.Stdout,
// os.Stderr and the standard logrus logger.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *logrus.Logger
}

// Build parses yamlPath, packs the source tree beside it into a fresh
// image, and returns the path to the produced .nsi file. The scratch
// directory used along the way is removed on every exit path.
func Build(yamlPath string, opts Options) (string, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	cfg, err := LoadConfig(yamlPath)
	if err != nil {
		return "", err
	}

	sourceDir := filepath.Dir(yamlPath)
	scratch := filepath.Join(sourceDir, ".nsi-scratch-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return "", errs.New(errs.KindIO, "create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	if err := copyIncluded(sourceDir, scratch, cfg.Include, cfg.Exclude, log); err != nil {
		return "", err
	}

	for _, cmd := range cfg.Build {
		log.WithField("cmd", cmd).Debug("running build step")
		if err := runBuildCommand(cmd, scratch, stdout, stderr); err != nil {
			return "", err
		}
	}

	header := image.Header{
		ImageName: cfg.Name,
		Version:   cfg.Version,
	}
	header.Runtime.WorkDir = cfg.Runtime.WorkDir
	header.Runtime.Cmd = cfg.Runtime.Cmd
	header.Runtime.Env = cfg.Runtime.Env

	outPath := filepath.Join(sourceDir, cfg.OutputFilename())
	if _, err := image.Write(outPath, scratch, header); err != nil {
		return "", err
	}
	return outPath, nil
}

// copyIncluded copies every entry of sourceDir matching include
// prefixes (all entries, if include is empty) and not matching any
// exclude prefix, into scratch. Matching uses plain prefix comparison
// on slash-separated relative paths (spec.md §9 open question:
// prefix, not glob).
func copyIncluded(sourceDir, scratch string, include, exclude []string, log *logrus.Logger) error {
	matched := make([]bool, len(include))

	err := filepath.Walk(sourceDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return errs.New(errs.KindIO, "walk "+p, err)
		}
		if p == sourceDir {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, p)
		if err != nil {
			return errs.New(errs.KindIO, "relativize "+p, err)
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, ".nsi-scratch-") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		idx, included := matchesAny(rel, include)
		if idx >= 0 {
			matched[idx] = true
		}
		if !included || matchesPrefix(rel, exclude) {
			return nil
		}

		dst := filepath.Join(scratch, filepath.FromSlash(rel))
		if info.IsDir() {
			return os.MkdirAll(dst, info.Mode().Perm())
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(p)
			if err != nil {
				return errs.New(errs.KindIO, "readlink "+p, err)
			}
			return os.Symlink(target, dst)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return errs.New(errs.KindIO, "mkdir parent of "+dst, err)
		}
		if err := fileutils.CopyFile(p, dst); err != nil {
			return errs.New(errs.KindIO, "copy "+p, err)
		}
		return os.Chmod(dst, info.Mode().Perm())
	})
	if err != nil {
		return err
	}

	for i, pattern := range include {
		if !matched[i] {
			log.Warnf("include pattern %q matched nothing under %s", pattern, sourceDir)
		}
	}
	return nil
}

// matchesAny returns the index of the first include pattern rel
// matches (or -1 if none), and whether rel should be included at all
// (true when include is empty, meaning "everything").
func matchesAny(rel string, include []string) (int, bool) {
	if len(include) == 0 {
		return -1, true
	}
	for i, pattern := range include {
		if pattern == rel || strings.HasPrefix(rel, pattern) {
			return i, true
		}
	}
	return -1, false
}

func matchesPrefix(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == rel || strings.HasPrefix(rel, pattern) {
			return true
		}
	}
	return false
}

func runBuildCommand(cmdline, dir string, stdout, stderr io.Writer) error {
	cmd := exec.Command("/bin/sh", "-c", cmdline)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return errs.New(errs.KindBuildCommand, fmt.Sprintf("run build step %q", cmdline), err)
	}
	return nil
}
