package cmd

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/buildfacts/buildfacts/internal/version"
)

// NewApp creates the CLI application
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "buildfacts",
		Usage:   "A static analyzer for Dockerfiles and Containerfiles",
		Version: version.Version(),
		Description: `buildfacts extracts structured facts from container build files:
base images, stage topology, build arguments, labels, environment
variables, exposed ports, and the commands each RUN instruction invokes.

Examples:
  buildfacts analyze Dockerfile
  buildfacts analyze --format json Dockerfile
  buildfacts check --max-lines 200 Dockerfile`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logrus.SetOutput(os.Stderr)
			if cmd.Bool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			checkCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
