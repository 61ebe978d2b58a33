package main

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/Darknessking13/neoshell/internal/build"
)

var buildCommand = cli.Command{
	Name:      "build",
	Usage:     "build a container image from a build.yaml and its source tree",
	ArgsUsage: "<build.yaml>",
	Action: func(context *cli.Context) error {
		if context.NArg() != 1 {
			return errors.New("build: exactly one argument (path to build.yaml) is required")
		}
		out, err := build.Build(context.Args().First(), build.Options{
			Logger: logrus.StandardLogger(),
		})
		if err != nil {
			return err
		}
		logrus.Infof("built %s", out)
		return nil
	},
}
