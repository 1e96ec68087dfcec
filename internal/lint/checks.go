// Package lint turns analysis reports into CI-oriented findings.
package lint

import (
	"fmt"
	"strings"

	"github.com/buildfacts/buildfacts/internal/analyze"
	"github.com/buildfacts/buildfacts/internal/dockerfile"
)

// Issue represents a single finding in a build file.
type Issue struct {
	// Rule is the rule identifier (e.g., "unused-stage").
	Rule string `json:"rule"`
	// Line is the line number where the issue was found (0 for file-level issues).
	Line int `json:"line"`
	// Message is the human-readable description of the issue.
	Message string `json:"message"`
	// Severity is the issue severity (error, warning, info).
	Severity string `json:"severity"`
}

// FileResult aggregates everything produced for a single build file.
type FileResult struct {
	// File is the path to the build file.
	File string `json:"file"`
	// Lines is the total number of lines in the file.
	Lines int `json:"lines"`
	// Analysis is the full structured report.
	Analysis *analyze.Analysis `json:"analysis"`
	// Issues is the list of findings.
	Issues []Issue `json:"issues"`
}

// CheckUnusedStages reports one issue per named stage that is never used
// as a base image, copy source, or add source. Line numbers point at the
// stage's FROM instruction.
func CheckUnusedStages(a *analyze.Analysis, parse *dockerfile.ParseResult) []Issue {
	if len(a.Multistage.UnusedStages) == 0 {
		return nil
	}

	lines := stageLines(parse)
	issues := make([]Issue, 0, len(a.Multistage.UnusedStages))
	for _, alias := range a.Multistage.UnusedStages {
		issues = append(issues, Issue{
			Rule:     "unused-stage",
			Line:     lines[alias],
			Message:  fmt.Sprintf("stage %q is never used as a base image, copy source, or add source", alias),
			Severity: "warning",
		})
	}
	return issues
}

// CheckMaxLines reports an issue when the build file exceeds maxLines.
func CheckMaxLines(parse *dockerfile.ParseResult, maxLines int) *Issue {
	if parse.TotalLines > maxLines {
		return &Issue{
			Rule:     "max-lines",
			Line:     0, // file-level issue
			Message:  fmt.Sprintf("file has %d lines, maximum allowed is %d", parse.TotalLines, maxLines),
			Severity: "error",
		}
	}
	return nil
}

// stageLines maps each case-folded stage alias to the starting line of
// its FROM instruction.
func stageLines(parse *dockerfile.ParseResult) map[string]int {
	lines := make(map[string]int)
	if parse == nil {
		return lines
	}
	for _, st := range parse.Stages {
		if st.Name == "" {
			continue
		}
		lines[strings.ToLower(st.Name)] = st.StartLine
	}
	return lines
}
