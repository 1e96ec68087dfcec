package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/buildfacts/buildfacts/internal/analyze"
	"github.com/buildfacts/buildfacts/internal/config"
	"github.com/buildfacts/buildfacts/internal/dockerfile"
	"github.com/buildfacts/buildfacts/internal/lint"
	"github.com/buildfacts/buildfacts/internal/reporter"
	"github.com/buildfacts/buildfacts/internal/version"
)

// Exit codes
const (
	ExitSuccess = 0 // No findings, or fail mode disabled
	ExitIssues  = 1 // Findings reported with fail mode enabled
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check Dockerfile(s) for issues",
		ArgsUsage: "[DOCKERFILE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: auto-discover)",
			},
			&cli.IntFlag{
				Name:    "max-lines",
				Aliases: []string{"l"},
				Usage:   "Maximum number of lines allowed (0 = unlimited)",
				Sources: cli.EnvVars("BUILDFACTS_CHECKS_MAX_LINES"),
			},
			&cli.BoolFlag{
				Name:  "no-unused-stages",
				Usage: "Disable the unused-stage check",
			},
			&cli.StringFlag{
				Name:    "fail-mode",
				Usage:   "When findings cause exit code 1: always, never, auto (CI only)",
				Sources: cli.EnvVars("BUILDFACTS_CHECKS_FAIL_MODE"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, sarif",
				Sources: cli.EnvVars("BUILDFACTS_OUTPUT_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path: stdout, stderr, or file path",
				Sources: cli.EnvVars("BUILDFACTS_OUTPUT_PATH"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				files = []string{"Dockerfile"}
			}

			var (
				allResults []lint.FileResult
				sources    = make(map[string][]byte)
				firstCfg   *config.Config
			)

			for _, file := range files {
				cfg, err := loadConfigForFile(cmd, file)
				if err != nil {
					return fmt.Errorf("failed to load config for %s: %w", file, err)
				}
				if cfg.ConfigFile != "" {
					logrus.WithField("file", file).Debugf("using config %s", cfg.ConfigFile)
				}
				if firstCfg == nil {
					firstCfg = cfg
				}

				parseResult, err := dockerfile.ParseFile(ctx, file)
				if err != nil {
					return fmt.Errorf("failed to parse %s: %w", file, err)
				}
				for _, w := range parseResult.Warnings {
					logrus.WithField("file", file).Debugf("parser warning at line %d: %s", w.Line, w.Short)
				}
				sources[file] = parseResult.Source

				a := analyze.Analyze(parseResult.StageSequence(), parseResult.InstructionSequence())

				var issues []lint.Issue
				if cfg.Checks.UnusedStages != "off" {
					issues = append(issues, lint.CheckUnusedStages(a, parseResult)...)
				}
				if cfg.Checks.MaxLines > 0 {
					if issue := lint.CheckMaxLines(parseResult, cfg.Checks.MaxLines); issue != nil {
						issues = append(issues, *issue)
					}
				}

				allResults = append(allResults, lint.FileResult{
					File:     file,
					Lines:    parseResult.TotalLines,
					Analysis: a,
					Issues:   issues,
				})
			}

			format, err := reporter.ParseFormat(resolveFormat(cmd, firstCfg))
			if err != nil {
				return err
			}
			w, closeFn, err := reporter.GetWriter(resolveOutput(cmd, firstCfg))
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck

			switch format {
			case reporter.FormatJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(allResults); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
			case reporter.FormatSARIF:
				if err := reporter.PrintSARIF(w, allResults, version.Short()); err != nil {
					return fmt.Errorf("failed to write SARIF: %w", err)
				}
			default:
				if err := reporter.PrintText(w, allResults, sources); err != nil {
					return err
				}
			}

			total := 0
			for _, res := range allResults {
				total += len(res.Issues)
			}
			if total == 0 {
				return nil
			}
			if ci := config.CIName(); ci != "" {
				logrus.Debugf("running on %s", ci)
			}
			if config.FailEnabled(firstCfg.Checks.FailMode) {
				return cli.Exit("", ExitIssues)
			}
			return nil
		},
	}
}

// loadConfigForFile loads the cascading config for one build file and
// applies CLI flag overrides on top.
func loadConfigForFile(cmd *cli.Command, file string) (*config.Config, error) {
	overrides := map[string]any{}
	if cmd.IsSet("max-lines") {
		overrides["checks.max-lines"] = cmd.Int("max-lines")
	}
	if cmd.Bool("no-unused-stages") {
		overrides["checks.unused-stages"] = "off"
	}
	if cmd.IsSet("fail-mode") {
		overrides["checks.fail-mode"] = cmd.String("fail-mode")
	}
	if cmd.IsSet("format") {
		overrides["output.format"] = cmd.String("format")
	}
	if cmd.IsSet("output") {
		overrides["output.path"] = cmd.String("output")
	}

	if path := cmd.String("config"); path != "" {
		return config.LoadFromFile(path, overrides)
	}
	return config.Load(file, overrides)
}

func resolveFormat(cmd *cli.Command, cfg *config.Config) string {
	if cmd.IsSet("format") {
		return cmd.String("format")
	}
	if cfg != nil && cfg.Output.Format != "" {
		return cfg.Output.Format
	}
	return "text"
}

func resolveOutput(cmd *cli.Command, cfg *config.Config) string {
	if cmd.IsSet("output") {
		return cmd.String("output")
	}
	if cfg != nil && cfg.Output.Path != "" {
		return cfg.Output.Path
	}
	return "stdout"
}
