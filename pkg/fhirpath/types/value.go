// Package types defines the FHIRPath value model: the tagged-sum Value
// interface and its concrete implementations (Boolean, Integer, Long,
// Decimal, String, Date, DateTime, Time, Quantity, Object, Collection).
package types

// Value is the base interface for all FHIRPath values.
type Value interface {
	// TypeInfo returns the namespaced FHIRPath type tag, e.g. {System, Integer}
	// or {FHIR, Patient}. This is the authoritative type, never host reflection.
	TypeInfo() TypeInfo

	// Equal compares exact equality (the = operator).
	Equal(other Value) bool

	// Equivalent compares equivalence (the ~ operator): case-insensitive and
	// whitespace-normalized for strings, scale-insensitive for decimals.
	Equivalent(other Value) bool

	// String renders the value the way it would appear in a FHIRPath literal
	// or toString() result.
	String() string

	// IsEmpty reports whether this value represents the empty collection.
	// It is false for every scalar except a String holding "".
	IsEmpty() bool
}

// Comparable is implemented by types that support ordering (<, <=, >, >=).
type Comparable interface {
	Value
	// Compare returns -1, 0, 1 for less/equal/greater. An error return means
	// the comparison is undefined (e.g. ambiguous partial-precision dates);
	// callers must treat that as Empty, not propagate it as a hard error.
	Compare(other Value) (int, error)
}

// Numeric is implemented by numeric types (Integer, Long, Decimal).
type Numeric interface {
	Value
	ToDecimal() Decimal
}

// Type returns the FHIRPath type name string for display purposes
// ("System.Integer", "FHIR.Patient"). Kept distinct from TypeInfo() so
// error messages and the is/as dispatch share one formatting rule.
func Type(v Value) string {
	return v.TypeInfo().String()
}
