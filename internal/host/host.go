// Package host defines the externally supplied sink for AVM1's only two
// observable effects — `trace` output and diagnostic warnings — plus the
// "did you mean" suggestion helper that decorates undeclared-variable
// warnings, grounded on the Rust port's `host.rs` and `error.rs`.
package host

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Warning is the taxonomy of non-fatal diagnostics the interpreter can
// raise. Each variant renders to the text spec.md §6 specifies, except that
// ReferenceToUndeclaredVariable appends a "(did you mean '...'?)" suffix
// when DidYouMean is non-empty.
type Warning interface {
	fmt.Stringer
	isWarning()
}

// ReferenceToUndeclaredVariable is raised by GetVariable/SetVariable when no
// frame in the scope chain binds the name.
type ReferenceToUndeclaredVariable struct {
	Variable string
	// DidYouMean is the nearest-spelled bound name in the live scope chain,
	// or empty if none was close enough to suggest. Populated by the
	// interpreter via SuggestName, not by this type itself.
	DidYouMean string
}

func (ReferenceToUndeclaredVariable) isWarning() {}

func (w ReferenceToUndeclaredVariable) String() string {
	if w.DidYouMean == "" {
		return fmt.Sprintf("Warning: Reference to undeclared variable, '%s'", w.Variable)
	}
	return fmt.Sprintf("Warning: Reference to undeclared variable, '%s' (did you mean '%s'?)", w.Variable, w.DidYouMean)
}

// TargetHasNoProperty is raised when a member/property access targets a
// name the receiving object has nowhere on its prototype chain.
type TargetHasNoProperty struct {
	Target   string
	Property string
}

func (TargetHasNoProperty) isWarning() {}

func (w TargetHasNoProperty) String() string {
	return fmt.Sprintf("Warning: '%s' has no property '%s'", w.Target, w.Property)
}

// Host is the embedder-supplied collaborator for AVM1's two observable
// effects. Implementations must not block or re-enter the VM.
type Host interface {
	Trace(message string)
	Warn(warning Warning)
}

// SuggestName ranks candidates by fuzzy closeness to name and returns the
// single best match, or "" if candidates is empty or nothing is close
// enough to be worth suggesting. Used to populate
// ReferenceToUndeclaredVariable.DidYouMean from the live scope chain's bound
// names, the same way the teacher's planner.go ranks decorator-name
// suggestions with this library.
func SuggestName(name string, candidates []string) string {
	best := fuzzy.RankFind(name, candidates)
	if len(best) == 0 {
		return ""
	}
	closest := best[0]
	for _, r := range best[1:] {
		if r.Distance < closest.Distance {
			closest = r
		}
	}
	return closest.Target
}

// NativeHost prints trace lines to stdout and warnings to stderr, mirroring
// the Rust port's NativeHost.
type NativeHost struct {
	Stdout func(string)
	Stderr func(string)
}

// NewNativeHost returns a Host whose Trace prints through stdout and whose
// Warn prints through stderr.
func NewNativeHost(stdout, stderr func(string)) *NativeHost {
	return &NativeHost{Stdout: stdout, Stderr: stderr}
}

func (h *NativeHost) Trace(message string) {
	if h.Stdout != nil {
		h.Stdout(message)
	}
}

func (h *NativeHost) Warn(warning Warning) {
	if h.Stderr != nil {
		h.Stderr(warning.String())
	}
}

// NoOpHost discards every effect; useful for benchmarks and embedding
// contexts that don't care about output.
type NoOpHost struct{}

func (NoOpHost) Trace(string)  {}
func (NoOpHost) Warn(Warning) {}

// LoggingHost appends every trace line and warning (in the order emitted)
// to Logs, for the §6 "Test fixture format" convention: joining Logs with
// "\n" plus a trailing "\n" must equal the fixture's expected main.log.
type LoggingHost struct {
	Logs []string
}

// NewLoggingHost returns an empty LoggingHost.
func NewLoggingHost() *LoggingHost {
	return &LoggingHost{}
}

func (h *LoggingHost) Trace(message string) {
	h.Logs = append(h.Logs, message)
}

func (h *LoggingHost) Warn(warning Warning) {
	h.Logs = append(h.Logs, warning.String())
}

// Joined renders Logs per the fixture convention: entries joined by "\n"
// with a trailing "\n", or "" if nothing was logged.
func (h *LoggingHost) Joined() string {
	if len(h.Logs) == 0 {
		return ""
	}
	out := ""
	for _, line := range h.Logs {
		out += line + "\n"
	}
	return out
}
