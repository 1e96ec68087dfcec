package dockerfile

import (
	"strings"
	"unicode"

	"github.com/moby/buildkit/frontend/dockerfile/parser"

	"github.com/buildfacts/buildfacts/internal/instruction"
)

// StageSequence adapts the parsed stages into the analysis engine's
// stage model: ordinal position, base-image expression as written,
// optional alias, optional --platform value.
func (r *ParseResult) StageSequence() []instruction.Stage {
	out := make([]instruction.Stage, 0, len(r.Stages))
	for i, st := range r.Stages {
		out = append(out, instruction.Stage{
			Index:     i,
			BaseImage: st.BaseName,
			Alias:     st.Name,
			Platform:  st.Platform,
		})
	}
	return out
}

// InstructionSequence adapts the AST into the analysis engine's typed
// instruction sequence, in file order, including meta ARGs before the
// first FROM.
func (r *ParseResult) InstructionSequence() []instruction.Instruction {
	if r.AST == nil || r.AST.AST == nil {
		return nil
	}
	seq := make([]instruction.Instruction, 0, len(r.AST.AST.Children))
	for _, node := range r.AST.AST.Children {
		seq = append(seq, fromNode(node))
	}
	return seq
}

func fromNode(node *parser.Node) instruction.Instruction {
	kind := instruction.Kind(strings.ToUpper(node.Value))
	switch kind {
	case instruction.KindFrom:
		return instruction.From{}
	case instruction.KindRun:
		return instruction.Run{Script: runScript(node)}
	case instruction.KindCopy:
		return instruction.Copy{FlagList: parseFlags(node.Flags)}
	case instruction.KindAdd:
		return instruction.Add{FlagList: parseFlags(node.Flags)}
	case instruction.KindEnv:
		return instruction.Env{Raw: argsText(node.Original)}
	case instruction.KindArg:
		return instruction.Arg{Raw: argsText(node.Original)}
	case instruction.KindLabel:
		return instruction.Label{Raw: argsText(node.Original)}
	case instruction.KindExpose:
		return instruction.Expose{Raw: argsText(node.Original)}
	default:
		if instruction.Recognized(kind) {
			return instruction.Other{K: kind}
		}
		return instruction.Unknown{Keyword: node.Value}
	}
}

// runScript returns the shell-form command text of a RUN node, or ""
// for the exec (JSON array) form, which invokes no shell.
func runScript(node *parser.Node) string {
	if node.Attributes["json"] {
		return ""
	}
	if node.Next == nil {
		return ""
	}
	return node.Next.Value
}

// parseFlags converts raw "--name=value" flag strings into Flag values,
// preserving order so that first-occurrence-wins semantics hold.
func parseFlags(raw []string) []instruction.Flag {
	if len(raw) == 0 {
		return nil
	}
	flags := make([]instruction.Flag, 0, len(raw))
	for _, f := range raw {
		name, value, hasValue := strings.Cut(strings.TrimPrefix(f, "--"), "=")
		flags = append(flags, instruction.Flag{
			Name:     name,
			Value:    value,
			HasValue: hasValue,
		})
	}
	return flags
}

// argsText strips the instruction keyword from a node's original text,
// leaving the raw argument text. Continuation lines are already joined
// by the grammar parser.
func argsText(original string) string {
	s := strings.TrimSpace(original)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return strings.TrimSpace(s[i:])
	}
	return ""
}
