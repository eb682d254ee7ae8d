package svdresolve

import (
	"context"
	"fmt"

	svdmodel "github.com/sarchlab/svdmodel"
	"github.com/sarchlab/svdmodel/internal/svd/construct"
	"github.com/sarchlab/svdmodel/internal/svd/derive"
	"github.com/sarchlab/svdmodel/internal/svd/diag"
	"github.com/sarchlab/svdmodel/internal/svd/finalize"
	"github.com/sarchlab/svdmodel/internal/svd/graph"
	"github.com/sarchlab/svdmodel/internal/svd/model"
	"github.com/sarchlab/svdmodel/internal/svd/process"
	"github.com/sarchlab/svdmodel/internal/svd/propinherit"
	"github.com/sarchlab/svdmodel/internal/svd/record"
)

// Resolve runs the full pipeline (§2) over root: construct the arena
// (4.1), alternate derive.Resolve and process.RunEligible to a fixed
// point (4.2, 4.3, 4.6, §5), apply register-property inheritance
// (4.4), then assemble and validate the finalized tree (4.5). It
// returns the diagnostics accumulated along the way even when it also
// returns a fatal error, so a caller can inspect partial warnings from
// a failed run.
func Resolve(ctx context.Context, root *record.Device, opts Options) (*model.Device, *diag.Sink, error) {
	sink := diag.NewSink()
	wrapped := newPolicySink(sink, opts)

	g, _ := construct.Build(root)

	iterations := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, sink, err
		}

		resolvedAny, err := derive.Resolve(g, wrapped)
		if err != nil {
			return nil, sink, err
		}
		if err := wrapped.fatal(); err != nil {
			return nil, sink, err
		}

		processedAny, err := process.RunEligible(g, wrapped)
		if err != nil {
			return nil, sink, err
		}
		if err := wrapped.fatal(); err != nil {
			return nil, sink, err
		}

		if !resolvedAny && !processedAny {
			break
		}

		iterations++
		if opts.MaxIterations > 0 && iterations > opts.MaxIterations {
			return nil, sink, svdmodel.NewError(diag.KindCycleException, root.Name,
				fmt.Errorf("svdresolve: exceeded %d fixed-point iterations without converging", opts.MaxIterations))
		}
	}

	if stuck := firstUnresolved(g); stuck != nil {
		return nil, sink, svdmodel.NewError(diag.KindUnresolvedDerivation, g.Path(stuck.ID),
			fmt.Errorf("element never became eligible for processing"))
	}

	dev, err := finalize.Assemble(g, wrapped)
	if err != nil {
		return nil, sink, err
	}
	if err := wrapped.fatal(); err != nil {
		return nil, sink, err
	}

	propinherit.Run(dev)
	if err := finalize.Validate(dev, wrapped); err != nil {
		return nil, sink, err
	}
	if err := wrapped.fatal(); err != nil {
		return nil, sink, err
	}

	return dev, sink, nil
}

// firstUnresolved reports an element node that never reached PROCESSED
// once the derive/process fixed point has converged: either a
// placeholder consumer whose derivedFrom never resolved (the usual
// cause; derive.Resolve treats a miss as no progress rather than an
// error, so this check is where it surfaces) or an element wrongly
// left unreachable from any
// PROCESSED ancestor, which indicates a malformed input tree rather
// than a derivedFrom problem.
func firstUnresolved(g *graph.Graph) *graph.Node {
	for _, n := range g.AllNodes() {
		if n.Kind == graph.NodeElement && n.Status == graph.Unprocessed {
			return n
		}
	}
	return nil
}
