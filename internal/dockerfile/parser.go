// Package dockerfile is the upstream parse boundary: it wraps BuildKit's
// Dockerfile grammar and turns a build file into the typed stage and
// instruction sequences the analysis engine consumes. All input
// validation (unknown keywords, duplicate stage aliases, empty input)
// happens here; downstream packages assume a well-formed sequence.
package dockerfile

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"

	"github.com/buildfacts/buildfacts/internal/instruction"
)

// Stage is one FROM declaration as written. Stages are extracted from
// the raw AST rather than BuildKit's typed instructions so that
// non-standard but analyzable flags (ADD --from) do not fail the parse.
type Stage struct {
	// BaseName is the base-image expression verbatim, possibly a
	// variable reference or another stage's alias.
	BaseName string
	// Name is the AS alias, or "" for an unnamed stage.
	Name string
	// Platform is the --platform flag value verbatim, or "".
	Platform string
	// StartLine is the 1-based line of the FROM instruction.
	StartLine int
}

// Warning is a parser-level warning from BuildKit (e.g. empty line
// continuations). Warnings are informational and never fail a parse.
type Warning struct {
	Short string
	URL   string
	Line  int
}

// ParseResult contains the parsed build file information.
type ParseResult struct {
	// TotalLines is the total number of lines in the file.
	TotalLines int
	// BlankLines is the number of blank (empty or whitespace-only) lines.
	BlankLines int
	// CommentLines is the number of comment lines (starting with #).
	CommentLines int
	// AST is the parsed AST from BuildKit.
	AST *parser.Result
	// Stages contains the FROM declarations in file order.
	Stages []Stage
	// Source is the raw source content of the file.
	Source []byte
	// Warnings contains parser warnings from BuildKit.
	Warnings []Warning
}

// openDockerfile opens a build file path for reading.
// If path is "-", returns os.Stdin and a no-op closer.
func openDockerfile(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// ParseFile parses a build file from disk (or stdin for "-").
func ParseFile(_ context.Context, path string) (*ParseResult, error) {
	r, closer, err := openDockerfile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer() }()

	return Parse(r)
}

// Parse parses a build file from a reader. The returned error is the
// only failure surface of an analysis run: anything that parses here
// analyzes without error downstream.
func Parse(r io.Reader) (*ParseResult, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	stats := countLines(content)

	ast, err := parser.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	if ast.AST == nil || len(ast.AST.Children) == 0 {
		return nil, errors.New("file with no instructions")
	}

	if err := checkKeywords(ast.AST.Children); err != nil {
		return nil, err
	}

	stages, err := extractStages(ast.AST.Children)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicateAliases(stages); err != nil {
		return nil, err
	}

	warnings := make([]Warning, 0, len(ast.Warnings))
	for _, w := range ast.Warnings {
		warn := Warning{Short: w.Short, URL: w.URL}
		if w.Location != nil {
			warn.Line = w.Location.Start.Line
		}
		warnings = append(warnings, warn)
	}

	return &ParseResult{
		TotalLines:   stats.total,
		BlankLines:   stats.blank,
		CommentLines: stats.comments,
		AST:          ast,
		Stages:       stages,
		Source:       content,
		Warnings:     warnings,
	}, nil
}

// checkKeywords rejects files containing unrecognized instruction
// keywords. The grammar parser accepts any leading word; keyword
// validation is a separate concern.
func checkKeywords(nodes []*parser.Node) error {
	for _, node := range nodes {
		kind := instruction.Kind(strings.ToUpper(node.Value))
		if !instruction.Recognized(kind) {
			return fmt.Errorf("unknown instruction %q", strings.ToLower(node.Value))
		}
	}
	return nil
}

// extractStages collects the FROM declarations from the raw AST. The
// value chain of a FROM node is "<image> [AS <alias>]"; the platform
// rides on the node's flag list.
func extractStages(nodes []*parser.Node) ([]Stage, error) {
	var stages []Stage
	for _, node := range nodes {
		if !strings.EqualFold(node.Value, "from") {
			continue
		}
		st := Stage{StartLine: node.StartLine}
		for _, f := range node.Flags {
			if v, ok := strings.CutPrefix(f, "--platform="); ok {
				st.Platform = v
			}
		}
		img := node.Next
		if img == nil {
			return nil, fmt.Errorf("FROM requires an image argument (line %d)", node.StartLine)
		}
		st.BaseName = img.Value
		if as := img.Next; as != nil && strings.EqualFold(as.Value, "as") && as.Next != nil {
			st.Name = as.Next.Value
		}
		stages = append(stages, st)
	}
	return stages, nil
}

// checkDuplicateAliases rejects files that declare the same stage alias
// twice. Alias matching is case-insensitive, like stage resolution.
func checkDuplicateAliases(stages []Stage) error {
	seen := make(map[string]struct{}, len(stages))
	for _, st := range stages {
		if st.Name == "" {
			continue
		}
		name := strings.ToLower(st.Name)
		if _, ok := seen[name]; ok {
			return fmt.Errorf("duplicate name %q", st.Name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// lineStats contains counts of different line types.
type lineStats struct {
	total    int
	blank    int
	comments int
}

// countLines counts total, blank, and comment lines in content.
func countLines(content []byte) lineStats {
	var stats lineStats
	scanner := bufio.NewScanner(bytes.NewReader(content))

	for scanner.Scan() {
		stats.total++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			stats.blank++
		} else if strings.HasPrefix(line, "#") {
			stats.comments++
		}
	}

	return stats
}
