package derive_test

import (
	"errors"
	"testing"

	svdmodel "github.com/sarchlab/svdmodel"
	"github.com/sarchlab/svdmodel/internal/svd/construct"
	"github.com/sarchlab/svdmodel/internal/svd/derive"
	"github.com/sarchlab/svdmodel/internal/svd/diag"
	"github.com/sarchlab/svdmodel/internal/svd/graph"
	"github.com/sarchlab/svdmodel/internal/svd/ident"
	"github.com/sarchlab/svdmodel/internal/svd/record"
)

func strp(s string) *string { return &s }

func TestResolveSimpleSibling(t *testing.T) {
	dev := &record.Device{
		Name: "D",
		Peripherals: []*record.Peripheral{
			{Name: "A", BaseAddress: strp("0x1000")},
			{Name: "B", BaseAddress: strp("0x2000"), DerivedFrom: strp("A")},
		},
	}
	g, _ := construct.Build(dev)
	sink := diag.NewSink()

	progressed, err := derive.Resolve(g, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !progressed {
		t.Fatal("expected at least one placeholder to resolve")
	}

	progressed, err = derive.Resolve(g, sink)
	if err != nil {
		t.Fatalf("unexpected error on second round: %v", err)
	}
	if progressed {
		t.Fatal("expected no further progress once all placeholders resolved")
	}
}

func TestResolveAmbiguous(t *testing.T) {
	dev := &record.Device{
		Name: "D",
		Peripherals: []*record.Peripheral{
			{Name: "A", BaseAddress: strp("0x1000")},
			{Name: "A", BaseAddress: strp("0x1100")},
			{Name: "B", BaseAddress: strp("0x2000"), DerivedFrom: strp("A")},
		},
	}
	g, _ := construct.Build(dev)
	sink := diag.NewSink()

	_, err := derive.Resolve(g, sink)
	if err == nil {
		t.Fatal("expected an AmbiguousDerivation error")
	}
	if !errors.Is(err, &svdmodel.Error{Kind: diag.KindAmbiguousDerivation}) {
		t.Fatalf("expected AmbiguousDerivation, got: %v", err)
	}
}

// A derivedFrom target that doesn't exist anywhere in the device is not
// resolveOne's problem to raise: a miss in the current round must not
// abort the pipeline, since the target might be a dim-expanded instance
// a later process.RunEligible round has yet to create. Only the
// fixed-point driver's post-loop stuck check (svdresolve.firstUnresolved)
// may turn a miss fatal, once no round makes any progress at all.
func TestResolveMissingTargetDoesNotErrorWithinARound(t *testing.T) {
	dev := &record.Device{
		Name: "D",
		Peripherals: []*record.Peripheral{
			{Name: "B", BaseAddress: strp("0x2000"), DerivedFrom: strp("GHOST")},
		},
	}
	g, _ := construct.Build(dev)
	sink := diag.NewSink()

	progressed, err := derive.Resolve(g, sink)
	if err != nil {
		t.Fatalf("unexpected error for a same-round miss: %v", err)
	}
	if progressed {
		t.Fatal("expected no progress when the derivedFrom target never appears")
	}
}

// A derivedFrom target that does not exist yet must not be fatal: a
// later round (after process.RunEligible creates the target, e.g. a
// dim-expanded concrete instance) gets a chance to resolve it. This
// simulates that by inserting the missing peripheral node into the same
// arena between two Resolve calls, the way a later process round would.
func TestResolveLaterRoundResolvesATargetMissingInTheFirst(t *testing.T) {
	dev := &record.Device{
		Name: "D",
		Peripherals: []*record.Peripheral{
			{Name: "B", BaseAddress: strp("0x2000"), DerivedFrom: strp("A")},
		},
	}
	g, _ := construct.Build(dev)
	sink := diag.NewSink()

	progressed, err := derive.Resolve(g, sink)
	if err != nil {
		t.Fatalf("unexpected error on first round: %v", err)
	}
	if progressed {
		t.Fatal("expected no progress before A exists")
	}

	a := &graph.Node{
		ID:     ident.New(),
		Kind:   graph.NodeElement,
		Status: graph.Processed,
		Level:  graph.LevelPeripheral,
		Name:   "A",
		Parent: g.Root(),
	}
	g.AddNode(a)
	if err := g.AddEdge(graph.Edge{From: g.Root(), To: a.ID, Kind: graph.ChildResolved}); err != nil {
		t.Fatalf("unexpected error wiring A into the tree: %v", err)
	}

	progressed, err = derive.Resolve(g, sink)
	if err != nil {
		t.Fatalf("unexpected error once the target exists: %v", err)
	}
	if !progressed {
		t.Fatal("expected the placeholder to resolve once its target is present")
	}
}

func TestResolveCycle(t *testing.T) {
	dev := &record.Device{
		Name: "D",
		Peripherals: []*record.Peripheral{
			{Name: "A", BaseAddress: strp("0x1000"), DerivedFrom: strp("B")},
			{Name: "B", BaseAddress: strp("0x2000"), DerivedFrom: strp("A")},
		},
	}
	g, _ := construct.Build(dev)
	sink := diag.NewSink()

	var sawCycle bool
	for i := 0; i < 2 && !sawCycle; i++ {
		_, err := derive.Resolve(g, sink)
		if err != nil {
			if !errors.Is(err, &svdmodel.Error{Kind: diag.KindCycleException}) {
				t.Fatalf("expected CycleException, got: %v", err)
			}
			sawCycle = true
		}
	}
	if !sawCycle {
		t.Fatal("expected a CycleException within two rounds")
	}
}
