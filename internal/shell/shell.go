// Package shell extracts command names from RUN instruction scripts.
// It wraps mvdan.cc/sh/v3/syntax to walk the script's call expressions;
// the result feeds the report's run-command inventory.
package shell

import (
	"path"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Commands returns the names of all commands invoked by a shell script,
// in order of appearance. Path prefixes are stripped (/usr/bin/curl
// reports as curl). Scripts that do not parse fall back to a token scan
// so a syntax error never hides the whole script from the inventory.
func Commands(script string) []string {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash), // RUN defaults to /bin/sh -c with bashisms common
		syntax.KeepComments(false),
	)

	prog, err := parser.Parse(strings.NewReader(script), "")
	if err != nil {
		return scanCommands(script)
	}

	var names []string
	syntax.Walk(prog, func(node syntax.Node) bool {
		if call, ok := node.(*syntax.CallExpr); ok && len(call.Args) > 0 {
			if name := call.Args[0].Lit(); name != "" {
				names = append(names, path.Base(name))
			}
		}
		return true
	})
	return names
}

// scanCommands is a best-effort fallback for unparseable scripts: split
// on command separators, then take the first token of each segment that
// is neither a flag nor a variable assignment.
func scanCommands(script string) []string {
	script = strings.ReplaceAll(script, "\\\n", " ")

	const sep = "\x00"
	for _, op := range []string{"&&", "||", ";", "|", "\n"} {
		script = strings.ReplaceAll(script, op, sep)
	}

	var names []string
	for seg := range strings.SplitSeq(script, sep) {
		for part := range strings.FieldsSeq(seg) {
			if strings.HasPrefix(part, "-") || strings.Contains(part, "=") {
				continue
			}
			names = append(names, path.Base(part))
			break
		}
	}
	return names
}
