package process

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sarchlab/svdmodel/internal/svd/diag"
	"github.com/sarchlab/svdmodel/internal/svd/model"
	"github.com/sarchlab/svdmodel/internal/svd/record"
)

func strp(s string) *string { return &s }

func TestResolveBitRangeOffsetWidth(t *testing.T) {
	f := &record.Field{BitOffset: strp("4"), BitWidth: strp("3")}
	sink := diag.NewSink()

	lsb, msb, err := resolveBitRange(f, false, 0, 0, "P.R.F", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lsb != 4 || msb != 6 {
		t.Fatalf("got lsb=%d msb=%d, want lsb=4 msb=6", lsb, msb)
	}
	if len(sink.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics, got %v", sink.Diagnostics())
	}
}

func TestResolveBitRangeLSBMSBSwapped(t *testing.T) {
	f := &record.Field{LSB: strp("8"), MSB: strp("3")}
	sink := diag.NewSink()

	lsb, msb, err := resolveBitRange(f, false, 0, 0, "P.R.F", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lsb != 3 || msb != 8 {
		t.Fatalf("got lsb=%d msb=%d, want swapped lsb=3 msb=8", lsb, msb)
	}
	kinds := sink.ByKind()
	if _, ok := kinds[diag.KindInvalidBitRange]; !ok {
		t.Fatalf("expected an InvalidBitRange warning, got %v", sink.Diagnostics())
	}
}

func TestResolveBitRangeBitRangeString(t *testing.T) {
	f := &record.Field{BitRange: strp("[11:8]")}
	sink := diag.NewSink()

	lsb, msb, err := resolveBitRange(f, false, 0, 0, "P.R.F", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lsb != 8 || msb != 11 {
		t.Fatalf("got lsb=%d msb=%d, want lsb=8 msb=11", lsb, msb)
	}
}

func TestResolveBitRangeMalformed(t *testing.T) {
	f := &record.Field{BitRange: strp("11:8")}
	sink := diag.NewSink()

	if _, _, err := resolveBitRange(f, false, 0, 0, "P.R.F", sink); err == nil {
		t.Fatal("expected an error for a bitRange without brackets and a single colon split failure")
	}
}

func TestResolveBitRangeInheritsBase(t *testing.T) {
	f := &record.Field{}
	sink := diag.NewSink()

	lsb, msb, err := resolveBitRange(f, true, 2, 5, "P.R.F", sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lsb != 2 || msb != 5 {
		t.Fatalf("got lsb=%d msb=%d, want inherited lsb=2 msb=5", lsb, msb)
	}
}

func TestResolveBitRangeMissingEverything(t *testing.T) {
	f := &record.Field{}
	sink := diag.NewSink()

	if _, _, err := resolveBitRange(f, false, 0, 0, "P.R.F", sink); err == nil {
		t.Fatal("expected an error when no bit-range encoding and no base are present")
	}
}

func TestMergeRegisterPropertiesOwnValuesWin(t *testing.T) {
	base := &model.RegisterProperties{
		Size:   uint32p(16),
		Access: model.AccessReadOnly,
	}
	raw := record.RegisterPropertyGroup{
		Size:   strp("32"),
		Access: strp("read-write"),
	}

	out, err := mergeRegisterProperties(raw, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Size == nil || *out.Size != 32 {
		t.Fatalf("expected own size 32 to win over base 16, got %v", out.Size)
	}
	if out.Access != model.AccessReadWrite {
		t.Fatalf("expected own access to win, got %v", out.Access)
	}
}

func TestMergeRegisterPropertiesInheritsFromBase(t *testing.T) {
	base := &model.RegisterProperties{
		Size:   uint32p(16),
		Access: model.AccessReadOnly,
	}
	raw := record.RegisterPropertyGroup{}

	out, err := mergeRegisterProperties(raw, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := model.RegisterProperties{Size: uint32p(16), Access: model.AccessReadOnly}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeRegisterPropertiesNoBaseNoOwnLeavesZeroValue(t *testing.T) {
	out, err := mergeRegisterProperties(record.RegisterPropertyGroup{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Size != nil {
		t.Fatalf("expected a nil size with neither an own value nor a base, got %v", out.Size)
	}
}

func uint32p(v uint32) *uint32 { return &v }
