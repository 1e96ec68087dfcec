package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/buildfacts/buildfacts/internal/analyze"
	"github.com/buildfacts/buildfacts/internal/dockerfile"
	"github.com/buildfacts/buildfacts/internal/reporter"
)

// fileAnalysis pairs a build file path with its report for multi-file
// JSON output.
type fileAnalysis struct {
	File     string            `json:"file"`
	Analysis *analyze.Analysis `json:"analysis"`
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Extract structured facts from Dockerfile(s)",
		ArgsUsage: "[DOCKERFILE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json",
				Value:   "text",
				Sources: cli.EnvVars("BUILDFACTS_OUTPUT_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path: stdout, stderr, or file path",
				Value:   "stdout",
				Sources: cli.EnvVars("BUILDFACTS_OUTPUT_PATH"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := reporter.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			if format == reporter.FormatSARIF {
				return fmt.Errorf("sarif output is only available for the check command")
			}

			files := cmd.Args().Slice()
			if len(files) == 0 {
				files = []string{"Dockerfile"}
			}

			reports := make([]fileAnalysis, 0, len(files))
			for _, file := range files {
				parseResult, err := dockerfile.ParseFile(ctx, file)
				if err != nil {
					return fmt.Errorf("failed to parse %s: %w", file, err)
				}
				for _, w := range parseResult.Warnings {
					logrus.WithField("file", file).Debugf("parser warning at line %d: %s", w.Line, w.Short)
				}

				a := analyze.Analyze(parseResult.StageSequence(), parseResult.InstructionSequence())
				reports = append(reports, fileAnalysis{File: file, Analysis: a})
			}

			w, closeFn, err := reporter.GetWriter(cmd.String("output"))
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck

			switch format {
			case reporter.FormatJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				// A single file decodes to its bare report, matching
				// the shape tests and scripts consume.
				if len(reports) == 1 {
					return enc.Encode(reports[0].Analysis)
				}
				return enc.Encode(reports)
			default:
				for _, rep := range reports {
					if err := reporter.PrintAnalysisText(w, rep.File, rep.Analysis); err != nil {
						return err
					}
				}
				return nil
			}
		},
	}
}
