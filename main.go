package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/Darknessking13/neoshell/internal/sandbox"
)

var (
	version   = "unknown"
	gitCommit = ""
)

func main() {
	// Must run before cli touches os.Args: a re-exec'd copy of this
	// binary is the sandbox's inner process, not a CLI invocation.
	sandbox.Init()

	app := cli.NewApp()
	app.Name = "neoshell"
	app.Usage = "build and run isolated application containers"

	v := []string{version}
	if gitCommit != "" {
		v = append(v, "commit: "+gitCommit)
	}
	v = append(v, "go: "+runtime.Version())
	app.Version = strings.Join(v, "\n")

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "set the log file to write neoshell logs to (default is stderr)",
		},
		cli.StringFlag{
			Name:  "log-format",
			Value: "text",
			Usage: "set the log format ('text' (default), or 'json')",
		},
	}
	app.Commands = []cli.Command{
		buildCommand,
		runCommand,
		manpageCommand,
	}
	app.Before = func(context *cli.Context) error {
		return configLogrus(context)
	}

	// If the command returns an error, cli takes upon itself to print
	// the error on cli.ErrWriter and exit. Use our own writer here to
	// ensure the log gets sent to the right location.
	cli.ErrWriter = &fatalWriter{cli.ErrWriter}
	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
	// runCommand's Action records the sandboxed process's exit code here
	// instead of calling os.Exit itself, so that Action's own deferred
	// rootfs cleanup runs first. Exiting here happens after app.Run (and
	// every Action defer) has already returned.
	os.Exit(pendingExitCode)
}

type fatalWriter struct {
	cliErrWriter io.Writer
}

func (f *fatalWriter) Write(p []byte) (int, error) {
	logrus.Error(string(p))
	return f.cliErrWriter.Write(p)
}

func fatal(err error) {
	logrus.Error(err)
	os.Exit(1)
}

func configLogrus(context *cli.Context) error {
	if context.GlobalBool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetReportCaller(true)
		// Shorten function and file names reported by the logger, by
		// trimming the common package prefix. Only done for text
		// formatter.
		_, file, _, _ := runtime.Caller(0)
		prefix := filepath.Dir(file) + "/"
		logrus.SetFormatter(&logrus.TextFormatter{
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				function := strings.TrimPrefix(f.Function, prefix) + "()"
				fileLine := strings.TrimPrefix(f.File, prefix) + ":" + strconv.Itoa(f.Line)
				return function, fileLine
			},
		})
	}

	switch f := context.GlobalString("log-format"); f {
	case "", "text":
		// do nothing
	case "json":
		logrus.SetFormatter(new(logrus.JSONFormatter))
	default:
		return errors.New("invalid log-format: " + f)
	}

	if file := context.GlobalString("log"); file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC, 0o644)
		if err != nil {
			return err
		}
		logrus.SetOutput(f)
	}

	return nil
}
