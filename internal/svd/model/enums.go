package model

// Access is the register-property-group access mode (§3).
type Access int

// Access values. Unspecified means "not yet inherited" and must never
// appear on a finalized element.
const (
	AccessUnspecified Access = iota
	AccessReadOnly
	AccessWriteOnly
	AccessReadWrite
	AccessWriteOnce
	AccessReadWriteOnce
)

// IsReadDomain reports whether a field with this access participates in
// the read-domain overlap check (4.5).
func (a Access) IsReadDomain() bool {
	switch a {
	case AccessReadOnly, AccessReadWrite, AccessWriteOnce, AccessReadWriteOnce:
		return true
	default:
		return false
	}
}

// IsWriteDomain reports whether a field with this access participates in
// the write-domain overlap check (4.5).
func (a Access) IsWriteDomain() bool {
	switch a {
	case AccessWriteOnly, AccessReadWrite, AccessWriteOnce, AccessReadWriteOnce:
		return true
	default:
		return false
	}
}

func (a Access) String() string {
	switch a {
	case AccessReadOnly:
		return "read-only"
	case AccessWriteOnly:
		return "write-only"
	case AccessReadWrite:
		return "read-write"
	case AccessWriteOnce:
		return "writeOnce"
	case AccessReadWriteOnce:
		return "read-writeOnce"
	default:
		return "unspecified"
	}
}

// Protection is the register-property-group protection mode.
type Protection int

const (
	ProtectionUnspecified Protection = iota
	ProtectionSecure
	ProtectionNonSecure
	ProtectionPrivileged
	ProtectionAny
)

// ModifiedWriteValues describes the side effect a write has on a field,
// beyond simply storing the written value.
type ModifiedWriteValues int

const (
	ModifiedWriteValuesUnspecified ModifiedWriteValues = iota
	ModifiedWriteValuesOneToClear
	ModifiedWriteValuesOneToSet
	ModifiedWriteValuesOneToToggle
	ModifiedWriteValuesZeroToClear
	ModifiedWriteValuesZeroToSet
	ModifiedWriteValuesZeroToToggle
	ModifiedWriteValuesClear
	ModifiedWriteValuesSet
	ModifiedWriteValuesModify
)

// ReadAction describes a side effect reading a field has.
type ReadAction int

const (
	ReadActionUnspecified ReadAction = iota
	ReadActionClear
	ReadActionSet
	ReadActionModify
	ReadActionModifyExternal
)

// Usage is the EnumeratedValueContainer usage domain (§3).
type Usage int

const (
	UsageUnspecified Usage = iota
	UsageRead
	UsageWrite
	UsageReadWrite
)
