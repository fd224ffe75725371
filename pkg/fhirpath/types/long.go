package types

import "fmt"

// Long represents a FHIRPath Long value — a distinct type tag from Integer
// even though both are backed by int64 in Go (spec.md §3.1, grounded on
// original_source/crates/fhirpath/src/long_conversion.rs, which treats Long
// as its own conversion target rather than an Integer alias).
type Long struct {
	value int64
}

// NewLong creates a new Long value.
func NewLong(v int64) Long {
	return Long{value: v}
}

// Value returns the underlying int64 value.
func (l Long) Value() int64 {
	return l.value
}

// TypeInfo returns System.Long.
func (l Long) TypeInfo() TypeInfo {
	return SystemType("Long")
}

// Equal returns true if other is a Long or Integer with the same numeric
// value, or a numerically equal Decimal.
func (l Long) Equal(other Value) bool {
	switch o := other.(type) {
	case Long:
		return l.value == o.value
	case Integer:
		return l.value == o.Value()
	case Decimal:
		return l.ToDecimal().Equal(o)
	}
	return false
}

// Equivalent is the same as Equal for longs.
func (l Long) Equivalent(other Value) bool {
	return l.Equal(other)
}

// String returns the decimal string representation.
func (l Long) String() string {
	return fmt.Sprintf("%d", l.value)
}

// IsEmpty returns false for Long values.
func (l Long) IsEmpty() bool {
	return false
}

// ToDecimal converts the Long to a Decimal.
func (l Long) ToDecimal() Decimal {
	return NewDecimalFromInt(l.value)
}

// ToInteger narrows to an Integer (always representable since both are int64 here).
func (l Long) ToInteger() Integer {
	return NewInteger(l.value)
}

// Compare compares two numeric values.
func (l Long) Compare(other Value) (int, error) {
	switch o := other.(type) {
	case Long:
		if l.value < o.value {
			return -1, nil
		}
		if l.value > o.value {
			return 1, nil
		}
		return 0, nil
	case Integer:
		ov := o.Value()
		if l.value < ov {
			return -1, nil
		}
		if l.value > ov {
			return 1, nil
		}
		return 0, nil
	case Decimal:
		return l.ToDecimal().Compare(o)
	}
	return 0, NewTypeError("Long", Type(other), "comparison")
}

// Add returns the sum of two longs.
func (l Long) Add(other Long) Long { return NewLong(l.value + other.value) }

// Subtract returns the difference of two longs.
func (l Long) Subtract(other Long) Long { return NewLong(l.value - other.value) }

// Multiply returns the product of two longs.
func (l Long) Multiply(other Long) Long { return NewLong(l.value * other.value) }

// Negate returns the negation of the long.
func (l Long) Negate() Long { return NewLong(-l.value) }

// Abs returns the absolute value.
func (l Long) Abs() Long {
	if l.value < 0 {
		return NewLong(-l.value)
	}
	return l
}
