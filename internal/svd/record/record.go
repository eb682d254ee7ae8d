// Package record defines the parsed-record tree the core consumes (§6).
// Each type mirrors one CMSIS-SVD XML element. A nil pointer means the
// attribute/element was absent from the document; numeric and boolean
// attributes are kept as raw strings here because §6 defines several
// literal encodings (decimal, hex, binary, optional leading +) that the
// resolver — not the (out-of-scope) XML tokenizer — is responsible for
// decoding via the numlit package, so that a malformed literal surfaces
// as a resolver diagnostic with the offending element's path attached.
package record

// DimGroup is the raw dim group as it appears on an XML element, before
// dim.Plan has parsed DimIndex and numlit has decoded Dim/DimIncrement.
type DimGroup struct {
	Dim           *string
	DimIncrement  *string
	DimIndex      *string
	DimName       *string
	DimArrayIndex *string
}

// RegisterPropertyGroup is the raw register-property group.
type RegisterPropertyGroup struct {
	Size       *string
	Access     *string
	Protection *string
	ResetValue *string
	ResetMask  *string
}

// AddressBlock is the raw addressBlock element.
type AddressBlock struct {
	Offset     *string
	Size       *string
	Usage      *string
	Protection *string
}

// Interrupt is the raw interrupt element.
type Interrupt struct {
	Name        string
	Description *string
	Value       *string
}

// WriteConstraint is the raw writeConstraint element.
type WriteConstraint struct {
	WriteAsRead         *string
	UseEnumeratedValues *string
	RangeMinimum        *string
	RangeMaximum        *string
}

// EnumeratedValue is the raw enumeratedValue element.
type EnumeratedValue struct {
	Name        string
	Description *string
	Value       *string
	IsDefault   *string
}

// EnumeratedValueContainer is the raw enumeratedValues element.
type EnumeratedValueContainer struct {
	Name             *string
	Usage            *string
	EnumeratedValues []*EnumeratedValue
	DerivedFrom      *string
}

// Field is the raw field element.
type Field struct {
	Name                      string
	Description               *string
	BitOffset                 *string
	BitWidth                  *string
	LSB                       *string
	MSB                       *string
	BitRange                  *string
	Access                    *string
	ModifiedWriteValues       *string
	WriteConstraint           *WriteConstraint
	ReadAction                *string
	EnumeratedValueContainers []*EnumeratedValueContainer
	Dim                       DimGroup
	DerivedFrom               *string
}

// Register is the raw register element.
type Register struct {
	Name                string
	DisplayName         *string
	Description         *string
	AddressOffset       *string
	Properties          RegisterPropertyGroup
	AlternateGroup      *string
	AlternateRegister   *string
	DataType            *string
	ModifiedWriteValues *string
	WriteConstraint     *WriteConstraint
	ReadAction          *string
	Fields              []*Field
	Dim                 DimGroup
	DerivedFrom         *string
}

// Cluster is the raw cluster element. Registers/Clusters hold direct
// children only: a cluster's own sub-clusters, per §3's
// "(Register | Cluster)*" recursive grouping.
type Cluster struct {
	Name             string
	Description      *string
	AddressOffset    *string
	Properties       RegisterPropertyGroup
	AlternateCluster *string
	HeaderStructName *string
	Registers        []*Register
	Clusters         []*Cluster
	Dim              DimGroup
	DerivedFrom      *string
}

// Peripheral is the raw peripheral element.
type Peripheral struct {
	Name                string
	Version             *string
	Description         *string
	GroupName           *string
	PrependToName       *string
	AppendToName        *string
	DisableCondition    *string
	BaseAddress         *string
	Properties          RegisterPropertyGroup
	AddressBlocks       []*AddressBlock
	Interrupts          []*Interrupt
	AlternatePeripheral *string
	HeaderStructName    *string
	Registers           []*Register
	Clusters            []*Cluster
	Dim                 DimGroup
	DerivedFrom         *string
}

// CPU is the raw cpu element.
type CPU struct {
	Name          string
	Revision      *string
	Endian        *string
	MPUPresent    *string
	FPUPresent    *string
	NVICPrioBits  *string
	VendorSystick *string
}

// Device is the root of the parsed record tree.
type Device struct {
	Vendor      *string
	Name        string
	Series      *string
	Version     *string
	Description *string
	CPU         *CPU
	Properties  RegisterPropertyGroup
	Peripherals []*Peripheral
}
