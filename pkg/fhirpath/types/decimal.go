package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// TypeNameDecimal is the FHIRPath type name for decimal values.
const TypeNameDecimal = "Decimal"

// Decimal represents a FHIRPath decimal value with arbitrary precision.
// scale is the number of fractional digits the value must display with on
// output — tracked explicitly because shopspring/decimal's own exponent
// normalizes away trailing zeros that round-tripping must preserve (e.g.
// "1.50" must stay "1.50", not become "1.5").
type Decimal struct {
	value decimal.Decimal
	scale int32
}

// NewDecimal creates a new Decimal from its literal source text, deriving
// scale from the number of digits after the decimal point in s.
func NewDecimal(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal: %s", s)
	}
	return Decimal{value: d, scale: scaleOfLiteral(s)}, nil
}

func scaleOfLiteral(s string) int32 {
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0
	}
	return int32(len(s) - idx - 1)
}

// NewDecimalFromInt creates a new Decimal from an int64, scale 0.
func NewDecimalFromInt(v int64) Decimal {
	return Decimal{value: decimal.NewFromInt(v), scale: 0}
}

// NewDecimalFromFloat creates a new Decimal from a float64, scale derived
// from the float's default decimal string form.
func NewDecimalFromFloat(v float64) Decimal {
	d := decimal.NewFromFloat(v)
	scale := int32(0)
	if exp := d.Exponent(); exp < 0 {
		scale = -exp
	}
	return Decimal{value: d, scale: scale}
}

// NewDecimalWithScale builds a Decimal with an explicit scale, used when
// arithmetic needs to set the result scale directly (e.g. round()).
func NewDecimalWithScale(d decimal.Decimal, scale int32) Decimal {
	if scale < 0 {
		scale = 0
	}
	return Decimal{value: d, scale: scale}
}

// MustDecimal creates a new Decimal, panicking on error.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Value returns the underlying decimal.Decimal value.
func (d Decimal) Value() decimal.Decimal {
	return d.value
}

// Scale returns the number of fractional digits to render on output.
func (d Decimal) Scale() int32 {
	return d.scale
}

// TypeInfo returns System.Decimal.
func (d Decimal) TypeInfo() TypeInfo {
	return SystemType(TypeNameDecimal)
}

// Equal returns true if other is numerically equal. Scale is ignored for =
// just as it is for ~ (spec.md §4.4 distinguishes scale-sensitivity only
// for display, not comparison).
func (d Decimal) Equal(other Value) bool {
	switch o := other.(type) {
	case Decimal:
		return d.value.Equal(o.value)
	case Integer:
		return d.value.Equal(decimal.NewFromInt(o.value))
	}
	return false
}

// Equivalent is the same as Equal for decimals (scale-insensitive).
func (d Decimal) Equivalent(other Value) bool {
	return d.Equal(other)
}

// String renders with exactly Scale() fractional digits when Scale > 0,
// otherwise the canonical integral form.
func (d Decimal) String() string {
	if d.scale <= 0 {
		return d.value.Truncate(0).String()
	}
	return d.value.StringFixed(d.scale)
}

// IsEmpty returns false for decimal values.
func (d Decimal) IsEmpty() bool {
	return false
}

// ToDecimal returns itself (implements Numeric interface).
func (d Decimal) ToDecimal() Decimal {
	return d
}

// Compare compares two numeric values.
func (d Decimal) Compare(other Value) (int, error) {
	switch o := other.(type) {
	case Decimal:
		return d.value.Cmp(o.value), nil
	case Integer:
		return d.value.Cmp(decimal.NewFromInt(o.value)), nil
	}
	return 0, NewTypeError(TypeNameDecimal, Type(other), "comparison")
}

func maxScale(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// Add returns the sum of two decimals; scale = max(scales) per spec.md §4.4.
func (d Decimal) Add(other Decimal) Decimal {
	return Decimal{value: d.value.Add(other.value), scale: maxScale(d.scale, other.scale)}
}

// Subtract returns the difference of two decimals; scale = max(scales).
func (d Decimal) Subtract(other Decimal) Decimal {
	return Decimal{value: d.value.Sub(other.value), scale: maxScale(d.scale, other.scale)}
}

// Multiply returns the product of two decimals; scale = sum of scales,
// matching ordinary decimal multiplication (10 x 10^-a x 10^-b digits).
func (d Decimal) Multiply(other Decimal) Decimal {
	return Decimal{value: d.value.Mul(other.value), scale: d.scale + other.scale}
}

// Divide returns the result of division, scale = max(scales) with enough
// working precision to round correctly; division is never exact so the
// displayed scale is a display choice, not an exactness guarantee.
func (d Decimal) Divide(other Decimal) (Decimal, error) {
	if other.value.IsZero() {
		return Decimal{}, fmt.Errorf("division by zero")
	}
	scale := maxScale(d.scale, other.scale)
	working := scale
	if working < 8 {
		working = 8
	}
	return Decimal{value: d.value.DivRound(other.value, working+2), scale: scale}, nil
}

// Negate returns the negation of the decimal, scale unchanged.
func (d Decimal) Negate() Decimal {
	return Decimal{value: d.value.Neg(), scale: d.scale}
}

// Abs returns the absolute value, scale unchanged.
func (d Decimal) Abs() Decimal {
	return Decimal{value: d.value.Abs(), scale: d.scale}
}

// Ceiling returns the smallest integer >= d.
func (d Decimal) Ceiling() Integer {
	return NewInteger(d.value.Ceil().IntPart())
}

// Floor returns the largest integer <= d.
func (d Decimal) Floor() Integer {
	return NewInteger(d.value.Floor().IntPart())
}

// Truncate returns the integer part (toward zero), distinct from Floor for
// negative values.
func (d Decimal) Truncate() Integer {
	return NewInteger(d.value.Truncate(0).IntPart())
}

// Round rounds to the given precision using banker's rounding (round half
// to even), matching FHIRPath's round(precision?) semantics.
func (d Decimal) Round(precision int32) Decimal {
	return Decimal{value: d.value.RoundBank(precision), scale: precision}
}

// Power returns d raised to the given power.
func (d Decimal) Power(exp Decimal) Decimal {
	base, _ := d.value.Float64()
	exponent, _ := exp.value.Float64()
	result := math.Pow(base, exponent)
	return NewDecimalFromFloat(result)
}

// Sqrt returns the square root.
func (d Decimal) Sqrt() (Decimal, error) {
	if d.value.IsNegative() {
		return Decimal{}, fmt.Errorf("cannot take square root of negative number")
	}
	f, _ := d.value.Float64()
	return NewDecimalFromFloat(math.Sqrt(f)), nil
}

// Exp returns e^d.
func (d Decimal) Exp() Decimal {
	f, _ := d.value.Float64()
	return NewDecimalFromFloat(math.Exp(f))
}

// Ln returns the natural logarithm.
func (d Decimal) Ln() (Decimal, error) {
	if !d.value.IsPositive() {
		return Decimal{}, fmt.Errorf("cannot take logarithm of non-positive number")
	}
	f, _ := d.value.Float64()
	return NewDecimalFromFloat(math.Log(f)), nil
}

// Log returns the logarithm with the given base.
func (d Decimal) Log(base Decimal) (Decimal, error) {
	if !d.value.IsPositive() {
		return Decimal{}, fmt.Errorf("cannot take logarithm of non-positive number")
	}
	if !base.value.IsPositive() || base.value.Equal(decimal.NewFromInt(1)) {
		return Decimal{}, fmt.Errorf("invalid logarithm base")
	}
	f, _ := d.value.Float64()
	b, _ := base.value.Float64()
	return NewDecimalFromFloat(math.Log(f) / math.Log(b)), nil
}

// MarshalJSON renders the decimal for round-tripping: an integral value at
// scale 0 serializes as a bare JSON number; anything else serializes as a
// string with exactly Scale() fractional digits so trailing zeros survive.
func (d Decimal) MarshalJSON() ([]byte, error) {
	if d.scale == 0 && d.IsInteger() {
		return []byte(d.value.Truncate(0).String()), nil
	}
	return json.Marshal(d.value.StringFixed(d.scale))
}

// UnmarshalJSON recovers scale from the source text: a bare JSON number
// parses with scale 0 unless it carries a decimal point; a JSON string keeps
// the digit count after its decimal point.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	parsed, err := NewDecimal(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsInteger returns true if the decimal has no fractional part.
func (d Decimal) IsInteger() bool {
	return d.value.Equal(d.value.Truncate(0))
}

// ToInteger converts to Integer if it's a whole number. Per spec.md §4.5,
// toInteger() on a non-integral Decimal yields Empty (ok=false) — callers
// must not silently truncate; use Truncate() for that.
func (d Decimal) ToInteger() (Integer, bool) {
	if d.IsInteger() {
		return NewInteger(d.value.IntPart()), true
	}
	return Integer{}, false
}
