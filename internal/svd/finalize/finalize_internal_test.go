package finalize

import (
	"testing"

	svdmodel "github.com/sarchlab/svdmodel"
	"github.com/sarchlab/svdmodel/internal/svd/diag"
	"github.com/sarchlab/svdmodel/internal/svd/model"
)

func uint32p(v uint32) *uint32 { return &v }

func TestRangesOverlap(t *testing.T) {
	cases := []struct {
		aLo, aHi, bLo, bHi uint32
		want               bool
	}{
		{0, 3, 4, 7, false},
		{0, 3, 3, 7, true},
		{4, 7, 0, 3, false},
		{0, 7, 2, 3, true},
	}
	for _, c := range cases {
		if got := rangesOverlap(c.aLo, c.aHi, c.bLo, c.bHi); got != c.want {
			t.Errorf("rangesOverlap(%d,%d,%d,%d) = %v, want %v", c.aLo, c.aHi, c.bLo, c.bHi, got, c.want)
		}
	}
}

func TestSharesDomainReadWriteBothOverlap(t *testing.T) {
	a := &model.Field{Access: model.AccessReadWrite}
	b := &model.Field{Access: model.AccessReadOnly}
	if !sharesDomain(a, b) {
		t.Fatal("a read-write field shares the read domain with a read-only field")
	}
}

func TestSharesDomainReadOnlyVsWriteOnly(t *testing.T) {
	a := &model.Field{Access: model.AccessReadOnly}
	b := &model.Field{Access: model.AccessWriteOnly}
	if sharesDomain(a, b) {
		t.Fatal("a read-only field and a write-only field occupy disjoint domains")
	}
}

func TestCheckFieldOverlapsWarnsOnSharedDomain(t *testing.T) {
	fields := []*model.Field{
		{Name: "A", LSB: 0, MSB: 3, Access: model.AccessReadWrite},
		{Name: "B", LSB: 2, MSB: 5, Access: model.AccessReadWrite},
	}
	sink := diag.NewSink()
	checkFieldOverlaps(fields, "P.R", sink)

	kinds := sink.ByKind()
	if _, ok := kinds[diag.KindFieldAccessOverlap]; !ok {
		t.Fatalf("expected a FieldAccessOverlap warning, got %v", sink.Diagnostics())
	}
}

func TestCheckFieldOverlapsSilentOnDisjointDomains(t *testing.T) {
	fields := []*model.Field{
		{Name: "A", LSB: 0, MSB: 3, Access: model.AccessReadOnly},
		{Name: "B", LSB: 2, MSB: 5, Access: model.AccessWriteOnly},
	}
	sink := diag.NewSink()
	checkFieldOverlaps(fields, "P.R", sink)

	if len(sink.Diagnostics()) != 0 {
		t.Fatalf("expected no warnings for disjoint read/write domains, got %v", sink.Diagnostics())
	}
}

func TestAdjustPeripheralSizeUsesLargestEnd(t *testing.T) {
	p := &model.Peripheral{
		Name: "P",
		Registers: []*model.Register{
			{Name: "A", AddressOffset: 0, Properties: model.RegisterProperties{Size: uint32p(32)}},
			{Name: "B", AddressOffset: 8, Properties: model.RegisterProperties{Size: uint32p(32)}},
		},
	}
	adjustPeripheralSize(p)

	if p.Properties.Size == nil {
		t.Fatal("expected adjustPeripheralSize to populate a size")
	}
	want := uint32(12 * 8)
	if *p.Properties.Size != want {
		t.Fatalf("got size %d, want %d (largest register end in bits)", *p.Properties.Size, want)
	}
}

func TestAdjustPeripheralSizeKeepsDeclaredWhenLarger(t *testing.T) {
	p := &model.Peripheral{
		Name:       "P",
		Properties: model.RegisterProperties{Size: uint32p(4096 * 8)},
		Registers: []*model.Register{
			{Name: "A", AddressOffset: 0, Properties: model.RegisterProperties{Size: uint32p(32)}},
		},
	}
	adjustPeripheralSize(p)

	if *p.Properties.Size != 4096*8 {
		t.Fatalf("expected the larger declared size to survive, got %d", *p.Properties.Size)
	}
}

func TestValidateWarnsOnUnalignedBaseAddress(t *testing.T) {
	dev := &model.Device{
		Peripherals: []*model.Peripheral{
			{
				Name:        "ODD",
				BaseAddress: 0x1001,
				Registers: []*model.Register{
					{Name: "R", AddressOffset: 0, Properties: model.RegisterProperties{Size: uint32p(32)}},
				},
			},
		},
	}
	sink := diag.NewSink()
	if err := Validate(dev, sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kinds := sink.ByKind()
	if _, ok := kinds[diag.KindUnalignedOffset]; !ok {
		t.Fatalf("expected an UnalignedOffset warning for base address 0x1001, got %v", sink.Diagnostics())
	}
}

func TestValidateWarnsOnMissingRegisterSize(t *testing.T) {
	dev := &model.Device{
		Peripherals: []*model.Peripheral{
			{
				Name:        "P",
				BaseAddress: 0x1000,
				Registers: []*model.Register{
					{Name: "R", AddressOffset: 0},
				},
			},
		},
	}
	sink := diag.NewSink()
	if err := Validate(dev, sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kinds := sink.ByKind()
	if _, ok := kinds[diag.KindMissingSize]; !ok {
		t.Fatalf("expected a MissingSize warning for a sizeless register, got %v", sink.Diagnostics())
	}
}

func TestValidateWarnsOnUnalignedRegisterOffset(t *testing.T) {
	dev := &model.Device{
		Peripherals: []*model.Peripheral{
			{
				Name:        "P",
				BaseAddress: 0x1000,
				Registers: []*model.Register{
					{Name: "R", AddressOffset: 2, Properties: model.RegisterProperties{Size: uint32p(32)}},
				},
			},
		},
	}
	sink := diag.NewSink()
	if err := Validate(dev, sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kinds := sink.ByKind()
	if _, ok := kinds[diag.KindUnalignedOffset]; !ok {
		t.Fatalf("expected an UnalignedOffset warning for a misaligned register offset, got %v", sink.Diagnostics())
	}
}

func TestValidateFailsOnDuplicatePeripheralName(t *testing.T) {
	dev := &model.Device{
		Peripherals: []*model.Peripheral{
			{Name: "P", BaseAddress: 0x1000},
			{Name: "P", BaseAddress: 0x2000},
		},
	}
	sink := diag.NewSink()
	err := Validate(dev, sink)
	if err == nil {
		t.Fatal("expected a fatal error for duplicate peripheral names")
	}
	svdErr, ok := err.(*svdmodel.Error)
	if !ok || svdErr.Kind != diag.KindDuplicateName {
		t.Fatalf("expected a DuplicateName error, got %v", err)
	}
}

func TestValidateFailsOnDuplicateRegisterName(t *testing.T) {
	dev := &model.Device{
		Peripherals: []*model.Peripheral{
			{
				Name:        "P",
				BaseAddress: 0x1000,
				Registers: []*model.Register{
					{Name: "R", AddressOffset: 0, Properties: model.RegisterProperties{Size: uint32p(32)}},
					{Name: "R", AddressOffset: 4, Properties: model.RegisterProperties{Size: uint32p(32)}},
				},
			},
		},
	}
	sink := diag.NewSink()
	err := Validate(dev, sink)
	if err == nil {
		t.Fatal("expected a fatal error for duplicate register names")
	}
	svdErr, ok := err.(*svdmodel.Error)
	if !ok || svdErr.Kind != diag.KindDuplicateName {
		t.Fatalf("expected a DuplicateName error, got %v", err)
	}
}

func TestValidateFailsOnDuplicateFieldName(t *testing.T) {
	dev := &model.Device{
		Peripherals: []*model.Peripheral{
			{
				Name:        "P",
				BaseAddress: 0x1000,
				Registers: []*model.Register{
					{
						Name: "R", AddressOffset: 0, Properties: model.RegisterProperties{Size: uint32p(32)},
						Fields: []*model.Field{
							{Name: "F", LSB: 0, MSB: 1},
							{Name: "F", LSB: 2, MSB: 3},
						},
					},
				},
			},
		},
	}
	sink := diag.NewSink()
	err := Validate(dev, sink)
	if err == nil {
		t.Fatal("expected a fatal error for duplicate field names")
	}
	svdErr, ok := err.(*svdmodel.Error)
	if !ok || svdErr.Kind != diag.KindDuplicateName {
		t.Fatalf("expected a DuplicateName error, got %v", err)
	}
}

func TestValidateAllowsAlternateGroupRegisterNameReuse(t *testing.T) {
	dev := &model.Device{
		Peripherals: []*model.Peripheral{
			{
				Name:        "P",
				BaseAddress: 0x1000,
				Registers: []*model.Register{
					{Name: "R", AlternateGroup: "A", AddressOffset: 0, Properties: model.RegisterProperties{Size: uint32p(32)}},
					{Name: "R", AlternateGroup: "B", AddressOffset: 0, Properties: model.RegisterProperties{Size: uint32p(32)}},
				},
			},
		},
	}
	sink := diag.NewSink()
	if err := Validate(dev, sink); err != nil {
		t.Fatalf("unexpected error for alternate-group registers sharing a name: %v", err)
	}
}

func TestSortRegistersByNameOnSharedOffset(t *testing.T) {
	p := &model.Peripheral{
		Name: "P",
		Registers: []*model.Register{
			{Name: "B", AddressOffset: 0, Properties: model.RegisterProperties{Size: uint32p(32)}},
			{Name: "A", AddressOffset: 0, Properties: model.RegisterProperties{Size: uint32p(32)}},
		},
	}
	sink := diag.NewSink()
	if err := validatePeripheralChildren(p, sink); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(p.Registers) != 2 || p.Registers[0].Name != "A" || p.Registers[1].Name != "B" {
		t.Fatalf("expected registers sharing an offset to sort by name, got %v, %v", p.Registers[0].Name, p.Registers[1].Name)
	}
}

func TestIsReserved(t *testing.T) {
	cases := map[string]bool{
		"Reserved":       true,
		"reserved":       true,
		"RESERVED":       true,
		"CTRL":           false,
		"ReservedButNot": false,
	}
	for name, want := range cases {
		if got := isReserved(name); got != want {
			t.Errorf("isReserved(%q) = %v, want %v", name, got, want)
		}
	}
}
