package reporter

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/buildfacts/buildfacts/internal/analyze"
)

// PrintAnalysisText writes a human-readable summary of one build
// file's analysis report.
func PrintAnalysisText(w io.Writer, file string, a *analyze.Analysis) error {
	fmt.Fprintf(w, "%s\n", file)
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", len(file)))

	multistage := ""
	if a.Multistage.IsMultistage {
		multistage = " (multistage)"
	}
	fmt.Fprintf(w, "Stages: %d%s\n", a.NumStages, multistage)
	for _, st := range a.Stages {
		name := ""
		if st.Name != "" {
			name = " AS " + st.Name
		}
		platform := ""
		if st.Platform != "" {
			platform = " [" + st.Platform + "]"
		}
		fmt.Fprintf(w, "  %d: %s%s%s\n", st.Index, st.BaseImage, name, platform)
	}

	printList(w, "Images", imageList(a.Images))
	printList(w, "Stages used as base images", a.Multistage.StagesUsedAsBaseImages)
	printList(w, "Stages copied from", a.Multistage.StagesCopiedFrom)
	printList(w, "Stages added from", a.Multistage.StagesAddedFrom)
	printList(w, "Unused stages", a.Multistage.UnusedStages)
	printList(w, "Exposed ports", a.ExposedPorts)
	printList(w, "Run commands", a.RunCommands)

	printOptionalMap(w, "Build args", a.Args)
	printMap(w, "Labels", a.Labels)
	printMap(w, "Environment", a.EnvVars)

	fmt.Fprintf(w, "Instructions: %d\n", a.Instructions.TotalCount)
	for _, kind := range slices.Sorted(maps.Keys(a.Instructions.ByKind)) {
		fmt.Fprintf(w, "  %s: %d\n", kind, a.Instructions.ByKind[kind])
	}
	fmt.Fprintln(w)
	return nil
}

func imageList(images []analyze.Image) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.Full)
	}
	return out
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s: %s\n", title, strings.Join(items, ", "))
}

func printMap(w io.Writer, title string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range slices.Sorted(maps.Keys(m)) {
		fmt.Fprintf(w, "  %s=%s\n", k, m[k])
	}
}

func printOptionalMap(w io.Writer, title string, m map[string]*string) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if v := m[k]; v != nil {
			fmt.Fprintf(w, "  %s=%s\n", k, *v)
		} else {
			fmt.Fprintf(w, "  %s\n", k)
		}
	}
}
