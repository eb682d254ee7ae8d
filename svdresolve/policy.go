package svdresolve

import (
	"errors"

	svdmodel "github.com/sarchlab/svdmodel"
	"github.com/sarchlab/svdmodel/internal/svd/diag"
)

// policySink wraps a real diag.Sink so every stage keeps recording
// into it exactly as before, while additionally latching the first
// diagnostic whose Kind the caller asked to promote to fatal
// (Options.PromoteToFatal, Options.StrictReservedNames). The pipeline
// checks fatal() after each stage rather than aborting mid-stage, so a
// promoted diagnostic still finishes that stage's other warnings
// before Resolve returns.
type policySink struct {
	*diag.Sink
	promoted map[diag.Kind]bool
	err      error
}

func newPolicySink(sink *diag.Sink, opts Options) *policySink {
	promoted := make(map[diag.Kind]bool, len(opts.PromoteToFatal)+1)
	for _, k := range opts.PromoteToFatal {
		promoted[diag.Kind(k)] = true
	}
	if opts.StrictReservedNames {
		promoted[diag.KindReservedDropped] = true
	}
	return &policySink{Sink: sink, promoted: promoted}
}

func (p *policySink) Warn(d diag.Diagnostic) {
	p.Sink.Warn(d)
	p.latch(d)
}

func (p *policySink) Warnf(kind diag.Kind, path, format string, args ...interface{}) {
	p.Sink.Warnf(kind, path, format, args...)
	p.latch(diag.Diagnostic{Kind: kind, Path: path})
}

func (p *policySink) latch(d diag.Diagnostic) {
	if p.err == nil && p.promoted[d.Kind] {
		p.err = svdmodel.NewError(d.Kind, d.Path, errors.New("diagnostic promoted to fatal by configuration"))
	}
}

func (p *policySink) fatal() error {
	return p.err
}

var _ diag.Warner = (*policySink)(nil)
