// Package finalize implements stage E of the pipeline (4.5): walking
// the fully-resolved graph into a plain *model.Device tree, sorting
// every sibling list deterministically, dropping reserved-named
// elements, adjusting container sizes bottom-up, and checking for
// field bit-range and address-range overlaps. Grounded on
// original_source's resolve.py bottom_up_sibling_traversal and
// process.py's _ValidateAndFinalize, adapted to this module's already
// bottom-up-populated model tree rather than a second graph walk.
package finalize

import (
	"fmt"
	"sort"
	"strings"

	svdmodel "github.com/sarchlab/svdmodel"
	"github.com/sarchlab/svdmodel/internal/svd/diag"
	"github.com/sarchlab/svdmodel/internal/svd/graph"
	"github.com/sarchlab/svdmodel/internal/svd/model"
	"github.com/sarchlab/svdmodel/internal/svd/numlit"
	"github.com/sarchlab/svdmodel/internal/svd/process"
	"github.com/sarchlab/svdmodel/internal/svd/record"
)

// Assemble walks g into a plain *model.Device tree: every PROCESSED,
// non-dim-template element becomes one entry in its parent's
// Registers/Clusters/Fields/EnumeratedValueContainers slice. Elements
// named "reserved" (case-insensitive) are dropped with a warning
// rather than included (DESIGN.md's resolution of the "reserved"
// Open Question).
func Assemble(g *graph.Graph, sink diag.Warner) (*model.Device, error) {
	root := g.Node(g.Root())
	rec, ok := root.Record.(*record.Device)
	if !ok {
		return nil, fmt.Errorf("finalize: graph root is not a device record")
	}

	props, err := convertDeviceProperties(rec.Properties)
	if err != nil {
		return nil, svdmodel.NewError(diag.KindParseMissingElement, rec.Name, err)
	}

	dev := &model.Device{
		Vendor:      strv(rec.Vendor),
		Name:        rec.Name,
		Series:      strv(rec.Series),
		Version:     strv(rec.Version),
		Description: strv(rec.Description),
		Properties:  props,
	}
	if rec.CPU != nil {
		cpu, err := convertCPU(rec.CPU)
		if err != nil {
			return nil, svdmodel.NewError(diag.KindParseMissingElement, rec.Name, err)
		}
		dev.CPU = cpu
	}

	for _, cid := range g.StructuralChildren(g.Root()) {
		c := g.Node(cid)
		if c == nil || c.IsDimTemplate {
			continue
		}
		if isReserved(c.Name) {
			sink.Warnf(diag.KindReservedDropped, g.Path(c.ID), "reserved peripheral dropped")
			continue
		}
		p, ok := c.Processed.(*model.Peripheral)
		if !ok {
			continue
		}
		assemblePeripheral(g, c, p, sink)
		dev.Peripherals = append(dev.Peripherals, p)
	}

	return dev, nil
}

func assemblePeripheral(g *graph.Graph, node *graph.Node, p *model.Peripheral, sink diag.Warner) {
	for _, cid := range g.StructuralChildren(node.ID) {
		c := g.Node(cid)
		if c == nil || c.IsDimTemplate {
			continue
		}
		if isReserved(c.Name) {
			sink.Warnf(diag.KindReservedDropped, g.Path(c.ID), "reserved element dropped")
			continue
		}
		switch v := c.Processed.(type) {
		case *model.Register:
			assembleRegister(g, c, v, sink)
			p.Registers = append(p.Registers, v)
		case *model.Cluster:
			assembleCluster(g, c, v, sink)
			p.Clusters = append(p.Clusters, v)
		}
	}
}

func assembleCluster(g *graph.Graph, node *graph.Node, cl *model.Cluster, sink diag.Warner) {
	for _, cid := range g.StructuralChildren(node.ID) {
		c := g.Node(cid)
		if c == nil || c.IsDimTemplate {
			continue
		}
		if isReserved(c.Name) {
			sink.Warnf(diag.KindReservedDropped, g.Path(c.ID), "reserved element dropped")
			continue
		}
		switch v := c.Processed.(type) {
		case *model.Register:
			assembleRegister(g, c, v, sink)
			cl.Registers = append(cl.Registers, v)
		case *model.Cluster:
			assembleCluster(g, c, v, sink)
			cl.Clusters = append(cl.Clusters, v)
		}
	}
}

func assembleRegister(g *graph.Graph, node *graph.Node, r *model.Register, sink diag.Warner) {
	for _, cid := range g.StructuralChildren(node.ID) {
		c := g.Node(cid)
		if c == nil || c.IsDimTemplate {
			continue
		}
		if isReserved(c.Name) {
			sink.Warnf(diag.KindReservedDropped, g.Path(c.ID), "reserved field dropped")
			continue
		}
		f, ok := c.Processed.(*model.Field)
		if !ok {
			continue
		}
		assembleField(g, c, f)
		r.Fields = append(r.Fields, f)
	}
}

func assembleField(g *graph.Graph, node *graph.Node, f *model.Field) {
	for _, cid := range g.StructuralChildren(node.ID) {
		c := g.Node(cid)
		if c == nil || c.IsDimTemplate {
			continue
		}
		if evc, ok := c.Processed.(*model.EnumeratedValueContainer); ok {
			f.EnumeratedValueContainers = append(f.EnumeratedValueContainers, evc)
		}
	}
}

func isReserved(name string) bool {
	return strings.EqualFold(name, "reserved")
}

// --- Validate (4.5) ------------------------------------------------------

// Validate sorts every sibling list deterministically, checks sibling
// names for uniqueness, adjusts container sizes bottom-up, and checks
// for field bit-range and address-range overlaps. Duplicate names are
// fatal (4.5 Core invariants 1-3); everything else here is a warning.
// It must run after propinherit.Run, since overlap detection depends
// on each element's final inherited Size.
func Validate(dev *model.Device, sink diag.Warner) error {
	sort.SliceStable(dev.Peripherals, func(i, j int) bool {
		a, b := dev.Peripherals[i], dev.Peripherals[j]
		if a.BaseAddress != b.BaseAddress {
			return a.BaseAddress < b.BaseAddress
		}
		return a.Name < b.Name
	})

	if err := checkDuplicateNames(peripheralKeys(dev.Peripherals), dev.Name, "peripheral"); err != nil {
		return err
	}

	for _, p := range dev.Peripherals {
		if p.BaseAddress%4 != 0 {
			sink.Warnf(diag.KindUnalignedOffset, p.Name, "peripheral base address 0x%x is not 4-byte aligned", p.BaseAddress)
		}
		if err := validatePeripheralChildren(p, sink); err != nil {
			return err
		}
		adjustPeripheralSize(p)
	}

	checkPeripheralOverlaps(dev, sink)
	return nil
}

// checkDuplicateNames reports a fatal DuplicateName error the first
// time two entries in keys collide (4.5 Core invariants 1-3: sibling
// names — considering alternate-group keying for registers — must be
// unique within their parent).
func checkDuplicateNames(keys []string, path, kind string) error {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			return svdmodel.NewError(diag.KindDuplicateName, path, fmt.Errorf("duplicate %s name %q", kind, k))
		}
		seen[k] = true
	}
	return nil
}

func peripheralKeys(ps []*model.Peripheral) []string {
	keys := make([]string, len(ps))
	for i, p := range ps {
		keys[i] = p.Name
	}
	return keys
}

// siblingKeys collects the uniqueness key registers and clusters
// contribute to their shared parent namespace (4.5 Core invariant 2: a
// register and a cluster at the same level cannot share a name either).
func siblingKeys(regs []*model.Register, clusters []*model.Cluster) []string {
	keys := make([]string, 0, len(regs)+len(clusters))
	for _, r := range regs {
		keys = append(keys, r.UniquenessKey())
	}
	for _, c := range clusters {
		keys = append(keys, c.Name)
	}
	return keys
}

func fieldKeys(fields []*model.Field) []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Name
	}
	return keys
}

// checkRegisterSize warns when a register reaches Validate without an
// inherited Size (4.4 left it nil all the way up to Device), since
// such a register cannot contribute a meaningful ByteSize to overlap
// or size-adjustment checks.
func checkRegisterSize(r *model.Register, path string, sink diag.Warner) {
	if r.Properties.Size == nil {
		sink.Warnf(diag.KindMissingSize, path, "register %q has no size after property inheritance", r.Name)
	}
}

// registerOrClusterLess orders by (AddressOffset, Name), the tiebreak
// spec.md requires so registers/clusters sharing an offset (a common
// CMSIS-SVD pattern for alternate registers and unions) sort
// deterministically instead of depending on input order.
func registerOrClusterLess(aOffset, bOffset uint64, aName, bName string) bool {
	if aOffset != bOffset {
		return aOffset < bOffset
	}
	return aName < bName
}

func validatePeripheralChildren(p *model.Peripheral, sink diag.Warner) error {
	path := p.Name

	sort.SliceStable(p.Registers, func(i, j int) bool {
		return registerOrClusterLess(p.Registers[i].AddressOffset, p.Registers[j].AddressOffset, p.Registers[i].Name, p.Registers[j].Name)
	})
	sort.SliceStable(p.Clusters, func(i, j int) bool {
		return registerOrClusterLess(p.Clusters[i].AddressOffset, p.Clusters[j].AddressOffset, p.Clusters[i].Name, p.Clusters[j].Name)
	})

	if err := checkDuplicateNames(siblingKeys(p.Registers, p.Clusters), path, "register/cluster"); err != nil {
		return err
	}

	for _, r := range p.Registers {
		checkRegisterAlignment(r, path+"."+r.Name, sink)
		if err := validateRegisterFields(r, path+"."+r.Name, sink); err != nil {
			return err
		}
	}
	for _, c := range p.Clusters {
		if err := validateCluster(c, path+"."+c.Name, sink); err != nil {
			return err
		}
	}

	checkSiblingOverlaps(registerIntervals(p.Registers), clusterIntervals(p.Clusters), path, sink)
	return nil
}

func validateCluster(c *model.Cluster, path string, sink diag.Warner) error {
	sort.SliceStable(c.Registers, func(i, j int) bool {
		return registerOrClusterLess(c.Registers[i].AddressOffset, c.Registers[j].AddressOffset, c.Registers[i].Name, c.Registers[j].Name)
	})
	sort.SliceStable(c.Clusters, func(i, j int) bool {
		return registerOrClusterLess(c.Clusters[i].AddressOffset, c.Clusters[j].AddressOffset, c.Clusters[i].Name, c.Clusters[j].Name)
	})

	if err := checkDuplicateNames(siblingKeys(c.Registers, c.Clusters), path, "register/cluster"); err != nil {
		return err
	}

	for _, r := range c.Registers {
		checkRegisterAlignment(r, path+"."+r.Name, sink)
		if err := validateRegisterFields(r, path+"."+r.Name, sink); err != nil {
			return err
		}
	}
	for _, sub := range c.Clusters {
		if err := validateCluster(sub, path+"."+sub.Name, sink); err != nil {
			return err
		}
		adjustClusterSize(sub)
	}

	checkSiblingOverlaps(registerIntervals(c.Registers), clusterIntervals(c.Clusters), path, sink)
	return nil
}

// checkRegisterAlignment warns when a register's addressOffset is not
// aligned to min(size_in_bytes, 4) (4.5 Core invariant 5), distinct
// from the peripheral-base-address alignment check in Validate.
func checkRegisterAlignment(r *model.Register, path string, sink diag.Warner) {
	align := r.ByteSize()
	if align == 0 {
		return
	}
	if align > 4 {
		align = 4
	}
	if r.AddressOffset%align != 0 {
		sink.Warnf(diag.KindUnalignedOffset, path, "register %q offset 0x%x is not aligned to %d bytes", r.Name, r.AddressOffset, align)
	}
}

func validateRegisterFields(r *model.Register, path string, sink diag.Warner) error {
	checkRegisterSize(r, path, sink)

	sort.SliceStable(r.Fields, func(i, j int) bool {
		if r.Fields[i].LSB != r.Fields[j].LSB {
			return r.Fields[i].LSB < r.Fields[j].LSB
		}
		return r.Fields[i].Name < r.Fields[j].Name
	})

	if err := checkDuplicateNames(fieldKeys(r.Fields), path, "field"); err != nil {
		return err
	}

	checkFieldOverlaps(r.Fields, path, sink)
	return nil
}

// checkFieldOverlaps warns when two fields both participate in the
// same access domain (read or write) and their bit ranges intersect
// (4.5). A field with AccessUnspecified at this point (property
// inheritance has not run yet when this is called during assembly
// tests, but always has by the time Validate runs end to end) is
// treated as participating in both domains, matching "access
// unspecified means read-write" (§3).
func checkFieldOverlaps(fields []*model.Field, path string, sink diag.Warner) {
	for i := 0; i < len(fields); i++ {
		for j := i + 1; j < len(fields); j++ {
			a, b := fields[i], fields[j]
			if b.LSB > a.MSB {
				break
			}
			if !rangesOverlap(a.LSB, a.MSB, b.LSB, b.MSB) {
				continue
			}
			if sharesDomain(a, b) {
				sink.Warnf(diag.KindFieldAccessOverlap, path, "fields %q and %q overlap in bits [%d:%d]/[%d:%d]",
					a.Name, b.Name, a.MSB, a.LSB, b.MSB, b.LSB)
			}
		}
	}
}

func sharesDomain(a, b *model.Field) bool {
	aRead, aWrite := domainOf(a)
	bRead, bWrite := domainOf(b)
	return (aRead && bRead) || (aWrite && bWrite)
}

func domainOf(f *model.Field) (read, write bool) {
	if f.Access == model.AccessUnspecified {
		return true, true
	}
	return f.Access.IsReadDomain(), f.Access.IsWriteDomain()
}

func rangesOverlap(aLo, aHi, bLo, bHi uint32) bool {
	return aLo <= bHi && bLo <= aHi
}

type interval struct {
	name  string
	start uint64
	end   uint64
	alt   string
}

func registerIntervals(rs []*model.Register) []interval {
	out := make([]interval, 0, len(rs))
	for _, r := range rs {
		out = append(out, interval{name: r.UniquenessKey(), start: r.AddressOffset, end: r.AddressOffset + r.ByteSize(), alt: r.AlternateRegister})
	}
	return out
}

func clusterIntervals(cs []*model.Cluster) []interval {
	out := make([]interval, 0, len(cs))
	for _, c := range cs {
		out = append(out, interval{name: c.Name, start: c.AddressOffset, end: c.AddressOffset + c.EffectiveByteSize(), alt: c.AlternateCluster})
	}
	return out
}

func peripheralIntervals(ps []*model.Peripheral) []interval {
	out := make([]interval, 0, len(ps))
	for _, p := range ps {
		out = append(out, interval{name: p.Name, start: p.BaseAddress, end: p.BaseAddress + p.EffectiveByteSize(), alt: p.AlternatePeripheral})
	}
	return out
}

// checkSiblingOverlaps checks every pair drawn from the combined
// register and cluster interval lists of one scope (4.5). Per
// original_source's process.py (_check_registers_clusters_address_
// overlaps), every earlier interval is compared against every later
// one — not just adjacent pairs — since sorting by start address alone
// does not guarantee a later interval cannot still overlap an
// earlier, larger one two or more positions back (DESIGN.md's
// resolution of the address-overlap Open Question).
func checkSiblingOverlaps(regs, clusters []interval, path string, sink diag.Warner) {
	all := append(append([]interval{}, regs...), clusters...)
	sort.Slice(all, func(i, j int) bool { return all[i].start < all[j].start })
	groups := alternateGroups(all)

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if b.start >= a.end {
				continue
			}
			if groups[a.name] == groups[b.name] {
				continue
			}
			sink.Warnf(diag.KindAddressOverlap, path, "%q [0x%x,0x%x) overlaps %q [0x%x,0x%x)",
				a.name, a.start, a.end, b.name, b.start, b.end)
		}
	}
}

func checkPeripheralOverlaps(dev *model.Device, sink diag.Warner) {
	all := peripheralIntervals(dev.Peripherals)
	groups := alternateGroups(all)
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if b.start >= a.end {
				continue
			}
			if groups[a.name] == groups[b.name] {
				continue
			}
			sink.Warnf(diag.KindAddressOverlap, "device", "peripheral %q [0x%x,0x%x) overlaps %q [0x%x,0x%x)",
				a.name, a.start, a.end, b.name, b.start, b.end)
		}
	}
}

// alternateGroups computes the bidirectional transitive closure of the
// alternateRegister/alternateCluster/alternatePeripheral relation
// (4.5, §9): two elements that alias the same memory, directly or
// through a chain of alternate references, are exempt from the
// overlap check.
func alternateGroups(items []interval) map[string]int {
	parent := make(map[string]string, len(items))
	var find func(string) string
	find = func(x string) string {
		if parent[x] == x {
			return x
		}
		parent[x] = find(parent[x])
		return parent[x]
	}
	for _, it := range items {
		parent[it.name] = it.name
	}
	byName := make(map[string]bool, len(items))
	for _, it := range items {
		byName[it.name] = true
	}
	for _, it := range items {
		if it.alt == "" || !byName[it.alt] {
			continue
		}
		ra, rb := find(it.name), find(it.alt)
		if ra != rb {
			parent[ra] = rb
		}
	}

	groups := make(map[string]int, len(items))
	ids := make(map[string]int)
	next := 0
	for _, it := range items {
		r := find(it.name)
		if _, ok := ids[r]; !ok {
			ids[r] = next
			next++
		}
		groups[it.name] = ids[r]
	}
	return groups
}

// adjustClusterSize and adjustPeripheralSize implement the bottom-up
// size-adjustment rule of 4.5: a container's effective Size is the
// larger of its own declared size and the end address of its
// furthest-reaching child.
func adjustClusterSize(c *model.Cluster) {
	eff := c.EffectiveByteSize() * 8
	if c.Properties.Size == nil || eff > uint64(*c.Properties.Size) {
		size := uint32(eff)
		c.Properties.Size = &size
	}
}

func adjustPeripheralSize(p *model.Peripheral) {
	for _, c := range p.Clusters {
		adjustClusterSize(c)
	}
	eff := p.EffectiveByteSize() * 8
	if p.Properties.Size == nil || eff > uint64(*p.Properties.Size) {
		size := uint32(eff)
		p.Properties.Size = &size
	}
}

// --- device-level conversion ----------------------------------------------

func strv(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func optBool(p *string) (bool, error) {
	if p == nil {
		return false, nil
	}
	return numlit.ParseBool(*p)
}

func convertDeviceProperties(raw record.RegisterPropertyGroup) (model.RegisterProperties, error) {
	var out model.RegisterProperties
	if raw.Size != nil {
		v, err := numlit.ParseInt(*raw.Size)
		if err != nil {
			return out, fmt.Errorf("size: %w", err)
		}
		u := uint32(v)
		out.Size = &u
	}
	if raw.Access != nil {
		a, err := process.ParseAccess(*raw.Access)
		if err != nil {
			return out, err
		}
		out.Access = a
	}
	if raw.Protection != nil {
		p, err := process.ParseProtection(*raw.Protection)
		if err != nil {
			return out, err
		}
		out.Protection = p
	}
	if raw.ResetValue != nil {
		v, err := numlit.ParseInt(*raw.ResetValue)
		if err != nil {
			return out, fmt.Errorf("resetValue: %w", err)
		}
		u := uint64(v)
		out.ResetValue = &u
	}
	if raw.ResetMask != nil {
		v, err := numlit.ParseInt(*raw.ResetMask)
		if err != nil {
			return out, fmt.Errorf("resetMask: %w", err)
		}
		u := uint64(v)
		out.ResetMask = &u
	}
	return out, nil
}

func convertCPU(c *record.CPU) (*model.CPU, error) {
	mpu, err := optBool(c.MPUPresent)
	if err != nil {
		return nil, err
	}
	fpu, err := optBool(c.FPUPresent)
	if err != nil {
		return nil, err
	}
	vendorSystick, err := optBool(c.VendorSystick)
	if err != nil {
		return nil, err
	}
	var prioBits uint32
	if c.NVICPrioBits != nil {
		v, err := numlit.ParseInt(*c.NVICPrioBits)
		if err != nil {
			return nil, err
		}
		prioBits = uint32(v)
	}
	return &model.CPU{
		Name:          c.Name,
		Revision:      strv(c.Revision),
		Endian:        strv(c.Endian),
		MPUPresent:    mpu,
		FPUPresent:    fpu,
		NVICPrioBits:  prioBits,
		VendorSystick: vendorSystick,
	}, nil
}
