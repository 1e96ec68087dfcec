package reporter

import (
	"io"
	"path/filepath"
	"sort"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/buildfacts/buildfacts/internal/lint"
)

// SARIF tool information.
const (
	toolName = "buildfacts"
	toolURI  = "https://github.com/buildfacts/buildfacts"
)

// ruleDescriptions maps rule identifiers to short descriptions included
// in the SARIF rule metadata.
var ruleDescriptions = map[string]string{
	"unused-stage": "A named build stage is never referenced as a base image, copy source, or add source.",
	"max-lines":    "The build file exceeds the configured maximum line count.",
}

// PrintSARIF writes findings as a SARIF 2.1.0 report, the format
// consumed by GitHub Code Scanning and similar CI systems.
func PrintSARIF(w io.Writer, results []lint.FileResult, toolVersion string) error {
	report := sarif.NewReport()

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	if toolVersion != "" {
		run.Tool.Driver.WithVersion(toolVersion)
	}

	// Rule definitions, sorted for stable output.
	ruleSet := make(map[string]struct{})
	for _, res := range results {
		for _, issue := range res.Issues {
			ruleSet[issue.Rule] = struct{}{}
		}
	}
	rules := make([]string, 0, len(ruleSet))
	for code := range ruleSet {
		rules = append(rules, code)
	}
	sort.Strings(rules)
	for _, code := range rules {
		rule := run.AddRule(code)
		if desc := ruleDescriptions[code]; desc != "" {
			rule.WithShortDescription(sarif.NewMultiformatMessageString().WithText(desc))
		}
	}

	for _, res := range results {
		// Normalize path separators for SARIF URIs.
		file := filepath.ToSlash(res.File)
		run.AddDistinctArtifact(file)

		for _, issue := range res.Issues {
			result := sarif.NewRuleResult(issue.Rule).
				WithMessage(sarif.NewTextMessage(issue.Message)).
				WithLevel(sarifLevel(issue.Severity))

			physical := sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewSimpleArtifactLocation(file))
			if issue.Line > 0 {
				physical.WithRegion(sarif.NewRegion().WithStartLine(issue.Line))
			}
			result.WithLocations([]*sarif.Location{
				sarif.NewLocationWithPhysicalLocation(physical),
			})

			run.AddResult(result)
		}
	}

	report.AddRun(run)
	return report.PrettyWrite(w)
}

// sarifLevel maps issue severities to SARIF levels
// ("error", "warning", "note").
func sarifLevel(severity string) string {
	switch severity {
	case "error":
		return "error"
	case "warning":
		return "warning"
	default:
		return "note"
	}
}
