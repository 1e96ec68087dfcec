package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/buildfacts/buildfacts/internal/lint"
)

// PrintText writes findings in BuildKit's text format with source
// snippets, similar to `docker buildx build --check`.
//
// Example output:
//
//	WARNING: unused-stage
//	stage "cache" is never used as a base image, copy source, or add source
//
//	Dockerfile:3
//	--------------------
//	   2 |
//	   3 | >>> FROM alpine:3.20 AS cache
//	   4 |     RUN apk add --no-cache curl
//	--------------------
func PrintText(w io.Writer, results []lint.FileResult, sources map[string][]byte) error {
	for _, res := range results {
		for _, issue := range res.Issues {
			printIssue(w, res.File, issue, sources[res.File])
		}
	}
	return nil
}

// printIssue formats a single finding in BuildKit style.
func printIssue(w io.Writer, file string, issue lint.Issue, source []byte) {
	fmt.Fprintf(w, "\n%s: %s\n%s\n", strings.ToUpper(issue.Severity), issue.Rule, issue.Message)

	if issue.Line > 0 && len(source) > 0 {
		printSnippet(w, file, issue.Line, source)
	}
}

// printSnippet renders a source snippet with the affected line marked,
// padded with up to four lines of context on each side.
func printSnippet(w io.Writer, file string, line int, source []byte) {
	lines := strings.Split(string(source), "\n")
	if line < 1 || line > len(lines) {
		return
	}

	start, end := line, line
	for pad := 0; pad < 4; pad++ {
		if start > 1 {
			start--
		}
		if end < len(lines) {
			end++
		}
	}

	fmt.Fprintf(w, "%s:%d\n", file, line)
	fmt.Fprintf(w, "--------------------\n")
	for i := start; i <= end; i++ {
		pfx := "   "
		if i == line {
			pfx = ">>>"
		}
		fmt.Fprintf(w, " %3d | %s %s\n", i, pfx, lines[i-1])
	}
	fmt.Fprintf(w, "--------------------\n")
}
