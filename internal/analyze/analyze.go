// Package analyze derives a structured report from a typed build-file
// instruction sequence: stage topology (which named stages are used as
// base images, copy sources, or add sources, and which are unused), the
// base-image inventory, per-instruction-kind counts, and decoded ARG,
// LABEL, and ENV key/value mappings.
//
// The analysis is a synchronous pure computation with no I/O; concurrent
// analyses of distinct inputs need no synchronization. Numeric stage
// references (e.g. COPY --from=0) are not resolved; only named stages
// participate in the topology.
package analyze

import (
	"strings"

	"github.com/containerd/platforms"

	"github.com/buildfacts/buildfacts/internal/instruction"
	"github.com/buildfacts/buildfacts/internal/keyvalue"
	"github.com/buildfacts/buildfacts/internal/shell"
)

// InstructionStats holds per-kind instruction counts and the total.
// Unrecognized kinds are tallied in the total and bucketed under the
// "unknown" key.
type InstructionStats struct {
	TotalCount int            `json:"total_count"`
	ByKind     map[string]int `json:"by_type"`
}

// StageSummary describes one build stage as declared.
type StageSummary struct {
	Index     int    `json:"index"`
	BaseImage string `json:"base_image"`
	Name      string `json:"name,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

// Analysis is the complete report for one build file. It is created once
// per invocation and never mutated. All list-valued fields are sorted
// ascending with duplicates removed.
type Analysis struct {
	NumStages      int                `json:"num_stages"`
	Images         []Image            `json:"images"`
	StageNames     []string           `json:"stage_names"`
	CopyFromStages []string           `json:"copy_from_stages"`
	AddFromStages  []string           `json:"add_from_stages"`
	Multistage     MultistageAnalysis `json:"multistage_analysis"`
	ExposedPorts   []string           `json:"exposed_ports"`
	Instructions   InstructionStats   `json:"instructions"`

	// Args maps ARG names to their default values; a nil value means the
	// ARG was declared without default text ("ARG KEY" and "ARG KEY="
	// both decode to nil).
	Args    map[string]*string `json:"args"`
	Labels  map[string]string  `json:"labels"`
	EnvVars map[string]string  `json:"env_vars"`

	Stages      []StageSummary `json:"stages"`
	RunCommands []string       `json:"run_commands"`
}

// Analyze assembles the full report for the given stage and instruction
// sequences. Inputs are assumed to come from a successful upstream parse:
// duplicate aliases and malformed instructions are rejected there and not
// re-checked here.
func Analyze(stages []instruction.Stage, seq []instruction.Instruction) *Analysis {
	ext := extractReferences(stages, seq)
	kv := decodeKeyValues(seq)

	return &Analysis{
		NumStages:      len(stages),
		Images:         decomposeImages(ext.images),
		StageNames:     sorted(ext.aliases),
		CopyFromStages: sorted(ext.copyFrom),
		AddFromStages:  sorted(ext.addFrom),
		Multistage:     analyzeMultistage(len(stages), ext.images, ext.aliases, ext.copyFrom, ext.addFrom),
		ExposedPorts:   sorted(ext.ports),
		Instructions: InstructionStats{
			TotalCount: ext.total,
			ByKind:     ext.counts,
		},
		Args:        kv.args,
		Labels:      kv.labels,
		EnvVars:     kv.envVars,
		Stages:      summarizeStages(stages),
		RunCommands: runCommandInventory(seq),
	}
}

// keyValues aggregates decoded mappings across all ARG, LABEL, and ENV
// instructions in the file. Later instructions overwrite earlier keys.
type keyValues struct {
	args    map[string]*string
	labels  map[string]string
	envVars map[string]string
}

func decodeKeyValues(seq []instruction.Instruction) keyValues {
	kv := keyValues{
		args:    make(map[string]*string),
		labels:  make(map[string]string),
		envVars: make(map[string]string),
	}
	for _, ins := range seq {
		switch v := ins.(type) {
		case instruction.Arg:
			for k, val := range keyvalue.DecodeOptional(v.Raw) {
				kv.args[k] = val
			}
		case instruction.Label:
			for k, val := range keyvalue.Decode(v.Raw) {
				kv.labels[k] = val
			}
		case instruction.Env:
			for k, val := range keyvalue.Decode(v.Raw) {
				kv.envVars[k] = val
			}
		}
	}
	return kv
}

// runCommandInventory collects the distinct command names invoked by RUN
// instructions, sorted ascending.
func runCommandInventory(seq []instruction.Instruction) []string {
	set := make(map[string]struct{})
	for _, ins := range seq {
		run, ok := ins.(instruction.Run)
		if !ok || run.Script == "" {
			continue
		}
		for _, name := range shell.Commands(run.Script) {
			set[name] = struct{}{}
		}
	}
	return sorted(set)
}

func summarizeStages(stages []instruction.Stage) []StageSummary {
	out := make([]StageSummary, 0, len(stages))
	for _, st := range stages {
		out = append(out, StageSummary{
			Index:     st.Index,
			BaseImage: st.BaseImage,
			Name:      st.Alias,
			Platform:  normalizePlatform(st.Platform),
		})
	}
	return out
}

// normalizePlatform canonicalizes a --platform value (e.g. "ARM64" to
// "linux/arm64"). Values containing unresolved variable references or
// that otherwise fail to parse are kept verbatim.
func normalizePlatform(p string) string {
	if p == "" || strings.Contains(p, "$") {
		return p
	}
	spec, err := platforms.Parse(p)
	if err != nil {
		return p
	}
	return platforms.Format(platforms.Normalize(spec))
}
