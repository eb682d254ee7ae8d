// Package diag implements the non-fatal diagnostic sink described in
// §6: a caller-supplied, global-state-free collector for structured
// diagnostics produced while resolving a device. It is grounded on
// verify/verify.go's IssueType/Issue pair and verify/report.go's
// VerificationReport, generalized from lint-issue reporting to the
// resolver's fatal/warning taxonomy (§7).
package diag

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Kind tags a diagnostic with its §7 error-taxonomy entry.
type Kind string

// The full §7 taxonomy. Kinds marked fatal abort the pipeline as a
// returned error rather than flowing through a Sink; they are listed
// here so every kind has one canonical name whichever channel carries
// it.
const (
	KindParseMissingElement  Kind = "ParseMissingElement"
	KindDimTemplateError     Kind = "DimTemplateError"
	KindAmbiguousDerivation  Kind = "AmbiguousDerivation"
	KindUnresolvedDerivation Kind = "UnresolvedDerivation"
	KindCycleException       Kind = "CycleException"
	KindLevelMismatch        Kind = "LevelMismatch"
	KindDuplicateName        Kind = "DuplicateName"
	KindFieldAccessOverlap   Kind = "FieldAccessOverlap"
	KindInvalidBitRange      Kind = "InvalidBitRange"
	KindMissingSize          Kind = "MissingSize"
	KindOversizedValue       Kind = "OversizedValue"
	KindAddressOverlap       Kind = "AddressOverlap"
	KindUnalignedOffset      Kind = "UnalignedOffset"
	KindReservedDropped      Kind = "ReservedDropped"
	KindStrayWhitespace      Kind = "StrayWhitespace"

	// KindDimMarkerMissing: a dim-group attribute was present without a
	// %s/[%s] marker in the name (4.3 item 3); the element is treated as
	// non-dim rather than rejected.
	KindDimMarkerMissing Kind = "DimMarkerMissing"

	// KindDefaultedAttribute: an optional attribute with a defined
	// fallback (addressBlock offset/usage/protection) was absent and a
	// default was substituted (SPEC_FULL §4's address-block default
	// supplement); never applied silently.
	KindDefaultedAttribute Kind = "DefaultedAttribute"

	// KindDefaultValueCombo: an enumerated value carried isDefault
	// alongside an explicit literal value, an unusual but not invalid
	// combination; the literal is kept and isDefault honored.
	KindDefaultValueCombo Kind = "DefaultValueCombo"
)

// Fatal reports whether a diagnostic of this kind aborts the pipeline
// when it occurs outside of a Sink (§7's taxonomy table).
func (k Kind) Fatal() bool {
	switch k {
	case KindOversizedValue, KindAddressOverlap, KindUnalignedOffset,
		KindReservedDropped, KindStrayWhitespace, KindDimMarkerMissing,
		KindDefaultedAttribute, KindDefaultValueCombo:
		return false
	default:
		return true
	}
}

// Diagnostic is one structured warning: a kind, the dotted path of the
// offending element, and a human-readable detail (§6, §9).
type Diagnostic struct {
	Kind   Kind
	Path   string
	Detail string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %s: %s", d.Kind, d.Path, d.Detail)
}

// Sink accumulates warnings during resolution. It never aborts; fatal
// conditions are returned as errors by the stage that detects them.
// Sink holds no package-level state (§9: "pass an explicit diagnostic
// collector through the pipeline (no global state)").
type Sink struct {
	diagnostics []Diagnostic
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Warn records a diagnostic.
func (s *Sink) Warn(d Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
}

// Warnf is a convenience wrapper around Warn.
func (s *Sink) Warnf(kind Kind, path, format string, args ...interface{}) {
	s.Warn(Diagnostic{Kind: kind, Path: path, Detail: fmt.Sprintf(format, args...)})
}

// Diagnostics returns every recorded diagnostic in emission order.
func (s *Sink) Diagnostics() []Diagnostic {
	return s.diagnostics
}

// ByKind groups the recorded diagnostics by Kind, sorted for
// deterministic iteration.
func (s *Sink) ByKind() map[Kind][]Diagnostic {
	out := make(map[Kind][]Diagnostic)
	for _, d := range s.diagnostics {
		out[d.Kind] = append(out[d.Kind], d)
	}
	return out
}

// Report writes a tabular summary of every recorded diagnostic to w,
// grouped by Kind — the structured analogue of
// VerificationReport.WriteReport's hand-rolled banner.
func (s *Sink) Report(w io.Writer) {
	grouped := s.ByKind()
	kinds := make([]string, 0, len(grouped))
	for k := range grouped {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Kind", "Path", "Detail"})
	for _, k := range kinds {
		for _, d := range grouped[Kind(k)] {
			t.AppendRow(table.Row{d.Kind, d.Path, d.Detail})
		}
	}
	t.Render()
}
