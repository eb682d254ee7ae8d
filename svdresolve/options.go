// Package svdresolve is the top-level facade wiring stages A-E (§2,
// §5) into a single Resolve call. Grounded on core/program.go's
// YAML-tagged configuration structs, generalized from CGRA program
// tuning to pipeline tuning.
package svdresolve

// Options tunes the resolver's fixed-point driver and fatal/warning
// policy. Zero value is the permissive default: no iteration cap, no
// warning promoted to fatal.
type Options struct {
	// MaxIterations caps the outer derive/process fixed-point loop
	// (§5, §9). Zero means unbounded; a stuck pipeline is still caught
	// by the no-progress check before any cap would matter, so this
	// exists only as a belt-and-suspenders guard for pathological
	// inputs during automated fuzzing.
	MaxIterations int `yaml:"maxIterations"`

	// StrictReservedNames, when true, treats an element literally
	// named "reserved" as an error instead of a dropped-with-warning
	// element (4.5).
	StrictReservedNames bool `yaml:"strictReservedNames"`

	// PromoteToFatal lists diagnostic kinds that abort resolution; the
	// promoted diagnostic is still recorded in the sink. For callers that
	// want a stricter pass over known-good files (e.g. CI linting of
	// vendor-authored SVDs).
	PromoteToFatal []string `yaml:"promoteToFatal"`
}
