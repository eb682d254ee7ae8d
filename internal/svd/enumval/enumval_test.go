package enumval_test

import (
	"testing"

	"github.com/sarchlab/svdmodel/internal/svd/diag"
	"github.com/sarchlab/svdmodel/internal/svd/enumval"
)

func TestExpandWildcardBits(t *testing.T) {
	values := []enumval.RawValue{
		enumval.NewRawValue("X", "", "0b11xx", false),
	}
	sink := diag.NewSink()

	out, err := enumval.Expand(values, 4, "P.R.F", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 concrete values from a 2-wildcard-bit literal, got %d", len(out))
	}
	seen := map[uint64]bool{}
	for _, ev := range out {
		seen[ev.Value] = true
	}
	for _, want := range []uint64{0b1100, 0b1101, 0b1110, 0b1111} {
		if !seen[want] {
			t.Errorf("missing expanded value %#b", want)
		}
	}
}

func TestExpandDropsOversizedValue(t *testing.T) {
	values := []enumval.RawValue{
		enumval.NewRawValue("TOOBIG", "", "16", false),
	}
	sink := diag.NewSink()

	out, err := enumval.Expand(values, 4, "P.R.F", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected the oversized value to be dropped, got %v", out)
	}
	if _, ok := sink.ByKind()[diag.KindOversizedValue]; !ok {
		t.Fatal("expected an OversizedValue warning")
	}
}

func TestExpandIsDefaultSynthesizesRemaining(t *testing.T) {
	values := []enumval.RawValue{
		enumval.NewRawValue("ZERO", "", "0", false),
		enumval.NewRawValue("REST", "", "", true),
	}
	sink := diag.NewSink()

	out, err := enumval.Expand(values, 2, "P.R.F", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// width 2 -> values 0..3; 0 is explicit, 1-3 synthesized as default.
	if len(out) != 4 {
		t.Fatalf("expected 4 total entries, got %d", len(out))
	}
	defaults := 0
	for _, ev := range out {
		if ev.Value == 0 {
			if ev.IsDefault {
				t.Fatal("explicit zero entry must not be marked default")
			}
			continue
		}
		if !ev.IsDefault {
			t.Fatalf("synthesized entry for value %d must be marked default", ev.Value)
		}
		defaults++
	}
	if defaults != 3 {
		t.Fatalf("expected 3 synthesized default entries, got %d", defaults)
	}
}

func TestExpandIsDefaultWithExplicitValueIsHonoredAndWarned(t *testing.T) {
	values := []enumval.RawValue{
		enumval.NewRawValue("BOTH", "", "2", true),
	}
	sink := diag.NewSink()

	out, err := enumval.Expand(values, 2, "P.R.F", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(out))
	}
	if out[0].Value != 2 || !out[0].IsDefault {
		t.Fatalf("expected the explicit value kept and IsDefault honored, got %+v", out[0])
	}
	if _, ok := sink.ByKind()[diag.KindDefaultValueCombo]; !ok {
		t.Fatal("expected a DefaultValueCombo warning for isDefault alongside an explicit value")
	}
}

func TestExpandDuplicateValueDropped(t *testing.T) {
	values := []enumval.RawValue{
		enumval.NewRawValue("A", "", "1", false),
		enumval.NewRawValue("B", "", "1", false),
	}
	sink := diag.NewSink()

	out, err := enumval.Expand(values, 2, "P.R.F", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected the duplicate value to be dropped, got %v", out)
	}
	if _, ok := sink.ByKind()[diag.KindDuplicateName]; !ok {
		t.Fatal("expected a DuplicateName warning")
	}
}
