package main

import (
	"errors"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/Darknessking13/neoshell/internal/load"
	"github.com/Darknessking13/neoshell/internal/sandbox"
)

// pendingExitCode carries the sandboxed process's exit code out of the
// run command's Action, which cannot call os.Exit itself without
// skipping its own deferred rootfs cleanup.
var pendingExitCode int

var runCommand = cli.Command{
	Name:      "run",
	Usage:     "extract and launch a container image",
	ArgsUsage: "<image.nsi>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "mem",
			Usage: "memory limit passed through to cgroup memory.max (decimal bytes, or 'max')",
		},
		cli.StringFlag{
			Name:  "cgroup-id",
			Usage: "cgroup leaf / container id (default: a generated uuid)",
		},
		cli.StringSliceFlag{
			Name:  "env",
			Usage: "KEY=VALUE environment override, may be repeated",
		},
		cli.BoolFlag{
			Name:  "strict",
			Usage: "treat a payload hash mismatch as a fatal error instead of a warning",
		},
	},
	Action: func(context *cli.Context) error {
		if context.NArg() != 1 {
			return errors.New("run: exactly one argument (path to the image) is required")
		}
		log := logrus.StandardLogger()

		res, err := load.Load(context.Args().First(), os.TempDir(), load.Options{
			Strict: context.Bool("strict"),
			Logger: log,
		})
		if err != nil {
			return err
		}
		defer os.RemoveAll(res.RootDir)

		overrides := parseEnvOverrides(context.StringSlice("env"), log)

		exitCode, err := sandbox.Run(sandbox.RunOptions{
			RootfsDir:   res.RootDir,
			Cmd:         res.Header.Runtime.Cmd,
			WorkDir:     res.Header.Runtime.WorkDirOrDefault(),
			Env:         res.Header.Runtime.Env,
			EnvOverride: overrides,
			MemoryLimit: context.String("mem"),
			CgroupID:    context.String("cgroup-id"),
		})
		if err != nil {
			return err
		}
		// Recorded rather than passed to os.Exit here: os.Exit skips the
		// RemoveAll deferred above, which would leak the extracted rootfs
		// under os.TempDir() on every successful or signal-terminated run.
		// main exits with this code only after app.Run (and this Action's
		// defers) have returned.
		pendingExitCode = exitCode
		return nil
	},
}

// parseEnvOverrides accepts KEY=VALUE pairs, reporting and skipping
// anything malformed rather than aborting the run.
func parseEnvOverrides(pairs []string, log *logrus.Logger) map[string]string {
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			log.Warnf("ignoring malformed --env value %q", pair)
			continue
		}
		overrides[key] = value
	}
	return overrides
}
