// Package propinherit implements stage D of the pipeline (4.4):
// top-down inheritance of the register-property group from Device
// down to Field, and of per-field access/writeConstraint from the
// enclosing register when a field does not specify its own. Unlike
// stages A-C this operates on the *model.Device tree directly rather
// than the resolver graph — by this point every node has already been
// processed and the tree is a plain nested struct, so a recursive walk
// is the natural fit.
package propinherit

import "github.com/sarchlab/svdmodel/internal/svd/model"

// Run fills every RegisterProperties.Access/Size/Protection/
// ResetValue/ResetMask left unspecified at construction time by
// recursing from the device's own properties down through peripherals,
// clusters and registers, and fills a field's Access/WriteConstraint
// from its enclosing register when the field left them unspecified.
func Run(dev *model.Device) {
	for _, p := range dev.Peripherals {
		p.Properties.Merge(dev.Properties)
		inheritPeripheral(p)
	}
}

func inheritPeripheral(p *model.Peripheral) {
	for _, r := range p.Registers {
		r.Properties.Merge(p.Properties)
		inheritRegister(r, p)
	}
	for _, c := range p.Clusters {
		c.Properties.Merge(p.Properties)
		inheritCluster(c, p)
	}
}

func inheritCluster(c *model.Cluster, p *model.Peripheral) {
	for _, r := range c.Registers {
		r.Properties.Merge(c.Properties)
		inheritRegister(r, p)
	}
	for _, sub := range c.Clusters {
		sub.Properties.Merge(c.Properties)
		inheritCluster(sub, p)
	}
}

func inheritRegister(r *model.Register, p *model.Peripheral) {
	for _, f := range r.Fields {
		if f.Access == model.AccessUnspecified {
			f.Access = r.Properties.Access
		}
		if f.WriteConstraint == nil {
			f.WriteConstraint = r.WriteConstraint
		}
	}
}
