package analyze

import (
	"strings"

	"github.com/buildfacts/buildfacts/internal/instruction"
)

// extraction holds the raw reference sets and counters collected in a
// single walk over the stage and instruction sequences.
type extraction struct {
	// images holds every base-image expression, case-folded unless the
	// expression starts with a variable-substitution sigil.
	images map[string]struct{}
	// aliases holds every stage alias, always case-folded.
	aliases map[string]struct{}
	// copyFrom and addFrom hold --from flag values, case-folded, keyed
	// by the instruction kind that carried them.
	copyFrom map[string]struct{}
	addFrom  map[string]struct{}
	// ports accumulates EXPOSE port literals verbatim across the file.
	ports map[string]struct{}

	counts map[string]int
	total  int
}

func extractReferences(stages []instruction.Stage, seq []instruction.Instruction) extraction {
	ext := extraction{
		images:   make(map[string]struct{}),
		aliases:  make(map[string]struct{}),
		copyFrom: make(map[string]struct{}),
		addFrom:  make(map[string]struct{}),
		ports:    make(map[string]struct{}),
		counts:   make(map[string]int),
	}

	for _, st := range stages {
		ext.images[foldImageExpr(st.BaseImage)] = struct{}{}
		if st.Alias != "" {
			ext.aliases[strings.ToLower(st.Alias)] = struct{}{}
		}
	}

	for _, ins := range seq {
		ext.total++
		ext.counts[countKey(ins)]++

		switch v := ins.(type) {
		case instruction.Copy:
			if from, ok := fromFlagValue(v); ok {
				ext.copyFrom[strings.ToLower(from)] = struct{}{}
			}
		case instruction.Add:
			if from, ok := fromFlagValue(v); ok {
				ext.addFrom[strings.ToLower(from)] = struct{}{}
			}
		case instruction.Expose:
			for _, port := range strings.Fields(v.Raw) {
				ext.ports[port] = struct{}{}
			}
		}
	}

	return ext
}

// foldImageExpr lowercases a base-image expression. Expressions beginning
// with "$" are kept verbatim: their value is unresolved at analysis time
// and case-folding could corrupt the variable name.
func foldImageExpr(expr string) string {
	if strings.HasPrefix(expr, "$") {
		return expr
	}
	return strings.ToLower(expr)
}

// fromFlagValue returns the value of the first flag literally named
// "from" that carries a value. If the flag is repeated the first
// occurrence wins.
func fromFlagValue(c instruction.FlagCarrier) (string, bool) {
	for _, f := range c.Flags() {
		if f.Name == "from" && f.HasValue {
			return f.Value, true
		}
	}
	return "", false
}

// countKey classifies an instruction for the by-kind count table.
func countKey(ins instruction.Instruction) string {
	if k := ins.Kind(); instruction.Recognized(k) {
		return string(k)
	}
	return string(instruction.KindUnknown)
}
