// Package instruction defines the typed instruction sequence consumed by
// the analysis engine. Values are produced by internal/dockerfile from a
// parsed build file, or built by hand in tests; they are plain immutable
// data with no behavior beyond kind dispatch.
package instruction

// Kind is the canonical uppercase instruction keyword (e.g. "FROM", "RUN").
type Kind string

// Recognized instruction kinds.
const (
	KindAdd         Kind = "ADD"
	KindArg         Kind = "ARG"
	KindCmd         Kind = "CMD"
	KindCopy        Kind = "COPY"
	KindEntrypoint  Kind = "ENTRYPOINT"
	KindEnv         Kind = "ENV"
	KindExpose      Kind = "EXPOSE"
	KindFrom        Kind = "FROM"
	KindHealthcheck Kind = "HEALTHCHECK"
	KindLabel       Kind = "LABEL"
	KindMaintainer  Kind = "MAINTAINER"
	KindOnbuild     Kind = "ONBUILD"
	KindRun         Kind = "RUN"
	KindShell       Kind = "SHELL"
	KindStopsignal  Kind = "STOPSIGNAL"
	KindUser        Kind = "USER"
	KindVolume      Kind = "VOLUME"
	KindWorkdir     Kind = "WORKDIR"

	// KindUnknown buckets instructions whose keyword is not recognized.
	// The upstream parser rejects such keywords, so this only occurs in
	// hand-built sequences; it is still tallied in instruction counts.
	KindUnknown Kind = "unknown"
)

// recognized is the closed set of kinds an Other variant may carry.
var recognized = map[Kind]bool{
	KindAdd: true, KindArg: true, KindCmd: true, KindCopy: true,
	KindEntrypoint: true, KindEnv: true, KindExpose: true, KindFrom: true,
	KindHealthcheck: true, KindLabel: true, KindMaintainer: true,
	KindOnbuild: true, KindRun: true, KindShell: true, KindStopsignal: true,
	KindUser: true, KindVolume: true, KindWorkdir: true,
}

// Recognized reports whether k is one of the fixed instruction kinds.
func Recognized(k Kind) bool { return recognized[k] }

// Flag is a single --name[=value] option on an instruction.
type Flag struct {
	// Name is the flag name without the leading dashes (e.g. "from").
	Name string
	// Value is the flag value; meaningful only when HasValue is true.
	Value string
	// HasValue distinguishes "--from=x" from a bare "--link".
	HasValue bool
}

// Instruction is the closed sum of instruction variants. Only types in
// this package implement it.
type Instruction interface {
	Kind() Kind
	sealed()
}

// FlagCarrier is implemented by the instruction variants that accept
// from-style flags: COPY and ADD.
type FlagCarrier interface {
	Instruction
	Flags() []Flag
}

// From marks a FROM instruction. Stage details (base image, alias,
// platform) live in the separate Stage sequence.
type From struct{}

// Run is a RUN instruction; Script is the shell form text (empty for
// exec form).
type Run struct {
	Script string
}

// Copy is a COPY instruction with its ordered flag list.
type Copy struct {
	FlagList []Flag
}

// Add is an ADD instruction with its ordered flag list.
type Add struct {
	FlagList []Flag
}

// Env is an ENV instruction; Raw is the argument text after the keyword.
type Env struct {
	Raw string
}

// Arg is an ARG instruction; Raw is the argument text after the keyword.
type Arg struct {
	Raw string
}

// Label is a LABEL instruction; Raw is the argument text after the keyword.
type Label struct {
	Raw string
}

// Expose is an EXPOSE instruction; Raw is the argument text after the
// keyword (whitespace-separated port literals).
type Expose struct {
	Raw string
}

// Other is any remaining recognized instruction kind (CMD, USER, ...).
type Other struct {
	K Kind
}

// Unknown is an instruction with an unrecognized keyword.
type Unknown struct {
	// Keyword is the unrecognized keyword as written.
	Keyword string
}

func (From) Kind() Kind    { return KindFrom }
func (Run) Kind() Kind     { return KindRun }
func (Copy) Kind() Kind    { return KindCopy }
func (Add) Kind() Kind     { return KindAdd }
func (Env) Kind() Kind     { return KindEnv }
func (Arg) Kind() Kind     { return KindArg }
func (Label) Kind() Kind   { return KindLabel }
func (Expose) Kind() Kind  { return KindExpose }
func (o Other) Kind() Kind { return o.K }
func (Unknown) Kind() Kind { return KindUnknown }

func (From) sealed()    {}
func (Run) sealed()     {}
func (Copy) sealed()    {}
func (Add) sealed()     {}
func (Env) sealed()     {}
func (Arg) sealed()     {}
func (Label) sealed()   {}
func (Expose) sealed()  {}
func (Other) sealed()   {}
func (Unknown) sealed() {}

// Flags implements FlagCarrier.
func (c Copy) Flags() []Flag { return c.FlagList }

// Flags implements FlagCarrier.
func (a Add) Flags() []Flag { return a.FlagList }

// Stage is one FROM-delimited segment of a build file.
type Stage struct {
	// Index is the 0-based ordinal position of the stage.
	Index int

	// BaseImage is the base-image expression text following FROM, as
	// written. May be a variable reference (e.g. "$BASE_IMAGE") or a
	// previous stage's alias.
	BaseImage string

	// Alias is the stage name given via "AS <name>", or "" if unnamed.
	Alias string

	// Platform is the --platform flag value on the FROM instruction,
	// or "" if not specified.
	Platform string
}
