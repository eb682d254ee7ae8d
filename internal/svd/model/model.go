// Package model defines the device tree this module ultimately produces:
// the same type tree is used as the mutable working representation
// during graph processing (4.3) and as the frozen output (§3, §6) once
// finalize has run. Register-property-group fields are pointers while
// the pipeline runs (nil = "not yet inherited") and are guaranteed
// non-nil on every element reachable from a *Device returned by
// svdresolve.Resolve.
package model

// RegisterProperties is the register-property group carried by Device,
// Peripheral, Cluster and Register (§3).
type RegisterProperties struct {
	Size       *uint32
	Access     Access
	Protection Protection
	ResetValue *uint64
	ResetMask  *uint64
}

// Merge fills every nil/unspecified field of rp from parent, leaving
// explicitly-set fields on rp untouched. This implements the "fill from
// device if null ... recurse into child clusters/registers taking from
// the direct parent" rule of 4.4.
func (rp *RegisterProperties) Merge(parent RegisterProperties) {
	if rp.Size == nil {
		rp.Size = parent.Size
	}
	if rp.Access == AccessUnspecified {
		rp.Access = parent.Access
	}
	if rp.Protection == ProtectionUnspecified {
		rp.Protection = parent.Protection
	}
	if rp.ResetValue == nil {
		rp.ResetValue = parent.ResetValue
	}
	if rp.ResetMask == nil {
		rp.ResetMask = parent.ResetMask
	}
}

// DimElement is the dim group carried by Peripheral, Cluster, Register
// and Field (§3).
type DimElement struct {
	Dim           *int
	DimIncrement  *int64
	DimIndex      []string
	DimName       *string
	DimArrayIndex *string
}

// HasDim reports whether this element is a dim template or a concrete
// dim-expanded instance retains a non-nil Dim.
func (d DimElement) HasDim() bool {
	return d.Dim != nil
}

// AddressBlock describes one addressable region of a peripheral (§3).
type AddressBlock struct {
	Offset     uint64
	Size       uint64
	Usage      string
	Protection Protection
}

// Interrupt names an interrupt line a peripheral raises.
type Interrupt struct {
	Name        string
	Description string
	Value       int
}

// WriteConstraint restricts the legal values a write may carry.
type WriteConstraint struct {
	WriteAsRead         bool
	UseEnumeratedValues bool
	RangeMinimum        *uint64
	RangeMaximum        *uint64
}

// EnumeratedValue is a single named legal field content (§3).
type EnumeratedValue struct {
	Name        string
	Description string
	Value       uint64
	IsDefault   bool
}

// EnumeratedValueContainer groups enumerated values for one usage
// domain of a field (§3).
type EnumeratedValueContainer struct {
	Name             string
	Usage            Usage
	EnumeratedValues []*EnumeratedValue
	DerivedFrom      string
}

// Field is a contiguous bit range within a register (§3).
type Field struct {
	Name                      string
	Description               string
	LSB                       uint32
	MSB                       uint32
	Access                    Access
	ModifiedWriteValues       ModifiedWriteValues
	WriteConstraint           *WriteConstraint
	ReadAction                ReadAction
	EnumeratedValueContainers []*EnumeratedValueContainer
	Dim                       DimElement
	DerivedFrom               string
	IsDimTemplate             bool
}

// Width returns the bit width of the field.
func (f *Field) Width() uint32 {
	return f.MSB - f.LSB + 1
}

// Register is a single memory-mapped word (§3).
type Register struct {
	Name                string
	DisplayName         string
	Description         string
	AddressOffset       uint64
	Properties          RegisterProperties
	AlternateGroup      string
	AlternateRegister   string
	DataType            string
	ModifiedWriteValues ModifiedWriteValues
	WriteConstraint     *WriteConstraint
	ReadAction          ReadAction
	Fields              []*Field
	Dim                 DimElement
	DerivedFrom         string
	IsDimTemplate       bool
}

// UniquenessKey returns the name a register contributes to its parent's
// sibling-uniqueness index (4.5's "a register carrying an
// alternateGroup uses name_alternateGroup as its uniqueness key").
func (r *Register) UniquenessKey() string {
	if r.AlternateGroup != "" {
		return r.Name + "_" + r.AlternateGroup
	}
	return r.Name
}

// ByteSize returns the register's footprint in bytes, given its
// effective size has already been populated.
func (r *Register) ByteSize() uint64 {
	if r.Properties.Size == nil {
		return 0
	}
	return uint64(*r.Properties.Size) / 8
}

// Cluster is a named grouping of registers/sub-clusters at an offset
// (§3).
type Cluster struct {
	Name             string
	Description      string
	AddressOffset    uint64
	Properties       RegisterProperties
	AlternateCluster string
	HeaderStructName string
	Registers        []*Register
	Clusters         []*Cluster
	Dim              DimElement
	DerivedFrom      string
	IsDimTemplate    bool
}

// EffectiveByteSize computes the cluster's footprint: the largest end
// address among its children (4.5's size-adjustment rule), falling back
// to its own declared size.
func (c *Cluster) EffectiveByteSize() uint64 {
	var maxEnd uint64
	for _, r := range c.Registers {
		end := r.AddressOffset + r.ByteSize()
		if end > maxEnd {
			maxEnd = end
		}
	}
	for _, sub := range c.Clusters {
		end := sub.AddressOffset + sub.EffectiveByteSize()
		if end > maxEnd {
			maxEnd = end
		}
	}
	if c.Properties.Size != nil {
		declared := uint64(*c.Properties.Size) / 8
		if declared > maxEnd {
			maxEnd = declared
		}
	}
	return maxEnd
}

// Peripheral is a named memory-mapped block of registers (§3).
type Peripheral struct {
	Name                string
	Version             string
	Description         string
	GroupName           string
	PrependToName       string
	AppendToName        string
	DisableCondition    string
	BaseAddress         uint64
	Properties          RegisterProperties
	AddressBlocks       []*AddressBlock
	Interrupts          []*Interrupt
	AlternatePeripheral string
	HeaderStructName    string
	Registers           []*Register
	Clusters            []*Cluster
	Dim                 DimElement
	DerivedFrom         string
	IsDimTemplate       bool
}

// EffectiveByteSize mirrors Cluster.EffectiveByteSize for a peripheral's
// direct children.
func (p *Peripheral) EffectiveByteSize() uint64 {
	var maxEnd uint64
	for _, r := range p.Registers {
		end := r.AddressOffset + r.ByteSize()
		if end > maxEnd {
			maxEnd = end
		}
	}
	for _, c := range p.Clusters {
		end := c.AddressOffset + c.EffectiveByteSize()
		if end > maxEnd {
			maxEnd = end
		}
	}
	if p.Properties.Size != nil {
		declared := uint64(*p.Properties.Size) / 8
		if declared > maxEnd {
			maxEnd = declared
		}
	}
	return maxEnd
}

// CPU describes the processor core, carried alongside the peripheral
// tree but outside the register-property/dim inheritance machinery.
type CPU struct {
	Name          string
	Revision      string
	Endian        string
	MPUPresent    bool
	FPUPresent    bool
	NVICPrioBits  uint32
	VendorSystick bool
}

// Device is the root of the finalized model (§3).
type Device struct {
	Vendor      string
	Name        string
	Series      string
	Version     string
	Description string
	CPU         *CPU
	Properties  RegisterProperties
	Peripherals []*Peripheral
}
