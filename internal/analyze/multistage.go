package analyze

import (
	"maps"
	"slices"
)

// MultistageAnalysis reports cross-stage dependencies. A file counts as
// multistage only when it has at least two stages AND at least one real
// cross-stage reference: several independent, never-referenced stages do
// not qualify. UnusedStages and the union of the three used lists
// partition the alias set exactly.
type MultistageAnalysis struct {
	IsMultistage           bool     `json:"is_multistage"`
	StagesUsedAsBaseImages []string `json:"stages_used_as_base_images"`
	StagesCopiedFrom       []string `json:"stages_copied_from"`
	StagesAddedFrom        []string `json:"stages_added_from"`
	UnusedStages           []string `json:"unused_stages"`
}

// analyzeMultistage is a pure function of the stage count and the
// reference sets collected by extractReferences. Alias uniqueness is an
// upstream invariant and not defended against here.
func analyzeMultistage(numStages int, images, aliases, copyFrom, addFrom map[string]struct{}) MultistageAnalysis {
	usedAsBase := intersect(aliases, images)
	copiedFrom := intersect(aliases, copyFrom)
	addedFrom := intersect(aliases, addFrom)

	used := union(usedAsBase, copiedFrom, addedFrom)
	unused := difference(aliases, used)

	return MultistageAnalysis{
		IsMultistage:           numStages >= 2 && len(used) > 0,
		StagesUsedAsBaseImages: sorted(usedAsBase),
		StagesCopiedFrom:       sorted(copiedFrom),
		StagesAddedFrom:        sorted(addedFrom),
		UnusedStages:           sorted(unused),
	}
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func union(sets ...map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range sets {
		maps.Copy(out, s)
	}
	return out
}

func difference(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// sorted renders a set as a sorted slice. The result is never nil so
// that empty report fields serialize as [] rather than null.
func sorted(set map[string]struct{}) []string {
	out := slices.Sorted(maps.Keys(set))
	if out == nil {
		out = []string{}
	}
	return out
}
