package eval

import (
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

// Arithmetic operators

// Add performs addition on two values.
func Add(left, right types.Value) (types.Value, error) {
	switch l := left.(type) {
	case types.Integer:
		switch r := right.(type) {
		case types.Integer:
			return l.Add(r), nil
		case types.Long:
			return types.NewLong(l.Value()).Add(r), nil
		case types.Decimal:
			return l.ToDecimal().Add(r), nil
		}
	case types.Long:
		switch r := right.(type) {
		case types.Integer:
			return l.Add(types.NewLong(r.Value())), nil
		case types.Long:
			return l.Add(r), nil
		case types.Decimal:
			return l.ToDecimal().Add(r), nil
		}
	case types.Decimal:
		switch r := right.(type) {
		case types.Integer:
			return l.Add(r.ToDecimal()), nil
		case types.Long:
			return l.Add(r.ToDecimal()), nil
		case types.Decimal:
			return l.Add(r), nil
		}
	case types.String:
		if r, ok := right.(types.String); ok {
			return types.NewString(l.Value() + r.Value()), nil
		}
	case types.Date:
		if q, ok := right.(types.Quantity); ok {
			return l.AddDuration(int(q.Value().IntPart()), q.Unit()), nil
		}
	case types.DateTime:
		if q, ok := right.(types.Quantity); ok {
			return l.AddDuration(int(q.Value().IntPart()), q.Unit()), nil
		}
	case types.Quantity:
		if r, ok := right.(types.Quantity); ok {
			return l.Add(r)
		}
	}
	return nil, InvalidOperationError("+", types.Type(left), types.Type(right))
}

// Subtract performs subtraction on two values.
func Subtract(left, right types.Value) (types.Value, error) {
	switch l := left.(type) {
	case types.Integer:
		switch r := right.(type) {
		case types.Integer:
			return l.Subtract(r), nil
		case types.Long:
			return types.NewLong(l.Value()).Subtract(r), nil
		case types.Decimal:
			return l.ToDecimal().Subtract(r), nil
		}
	case types.Long:
		switch r := right.(type) {
		case types.Integer:
			return l.Subtract(types.NewLong(r.Value())), nil
		case types.Long:
			return l.Subtract(r), nil
		case types.Decimal:
			return l.ToDecimal().Subtract(r), nil
		}
	case types.Decimal:
		switch r := right.(type) {
		case types.Integer:
			return l.Subtract(r.ToDecimal()), nil
		case types.Long:
			return l.Subtract(r.ToDecimal()), nil
		case types.Decimal:
			return l.Subtract(r), nil
		}
	case types.Date:
		if q, ok := right.(types.Quantity); ok {
			return l.SubtractDuration(int(q.Value().IntPart()), q.Unit()), nil
		}
	case types.DateTime:
		if q, ok := right.(types.Quantity); ok {
			return l.SubtractDuration(int(q.Value().IntPart()), q.Unit()), nil
		}
	case types.Quantity:
		if r, ok := right.(types.Quantity); ok {
			return l.Subtract(r)
		}
	}
	return nil, InvalidOperationError("-", types.Type(left), types.Type(right))
}

// Multiply performs multiplication on two values.
func Multiply(left, right types.Value) (types.Value, error) {
	switch l := left.(type) {
	case types.Integer:
		switch r := right.(type) {
		case types.Integer:
			return l.Multiply(r), nil
		case types.Long:
			return types.NewLong(l.Value()).Multiply(r), nil
		case types.Decimal:
			return l.ToDecimal().Multiply(r), nil
		}
	case types.Long:
		switch r := right.(type) {
		case types.Integer:
			return l.Multiply(types.NewLong(r.Value())), nil
		case types.Long:
			return l.Multiply(r), nil
		case types.Decimal:
			return l.ToDecimal().Multiply(r), nil
		}
	case types.Decimal:
		switch r := right.(type) {
		case types.Integer:
			return l.Multiply(r.ToDecimal()), nil
		case types.Long:
			return l.Multiply(r.ToDecimal()), nil
		case types.Decimal:
			return l.Multiply(r), nil
		}
	case types.Quantity:
		switch r := right.(type) {
		case types.Integer:
			return l.Multiply(r.ToDecimal().Value()), nil
		case types.Decimal:
			return l.Multiply(r.Value()), nil
		}
	}
	return nil, InvalidOperationError("*", types.Type(left), types.Type(right))
}

// Divide performs division (returns Empty, not an error, on division by
// zero: FHIRPath treats that as an empty result rather than a failure).
func Divide(left, right types.Value) (types.Value, bool, error) {
	var lDec, rDec types.Decimal
	switch l := left.(type) {
	case types.Integer:
		lDec = l.ToDecimal()
	case types.Long:
		lDec = l.ToDecimal()
	case types.Decimal:
		lDec = l
	case types.Quantity:
		switch r := right.(type) {
		case types.Integer:
			if r.Value() == 0 {
				return nil, false, nil
			}
			q, err := l.Divide(r.ToDecimal().Value())
			return q, true, err
		case types.Decimal:
			if r.Value().IsZero() {
				return nil, false, nil
			}
			q, err := l.Divide(r.Value())
			return q, true, err
		}
		return nil, false, InvalidOperationError("/", types.Type(left), types.Type(right))
	default:
		return nil, false, InvalidOperationError("/", types.Type(left), types.Type(right))
	}

	switch r := right.(type) {
	case types.Integer:
		rDec = r.ToDecimal()
	case types.Long:
		rDec = r.ToDecimal()
	case types.Decimal:
		rDec = r
	default:
		return nil, false, InvalidOperationError("/", types.Type(left), types.Type(right))
	}

	if rDec.Value().IsZero() {
		return nil, false, nil
	}
	v, err := lDec.Divide(rDec)
	return v, true, err
}

// IntegerDivide performs integer division (div operator). Division by
// zero yields Empty (ok=false), not an error.
func IntegerDivide(left, right types.Value) (types.Value, bool, error) {
	l, ok := left.(types.Integer)
	if !ok {
		return nil, false, InvalidOperationError("div", types.Type(left), types.Type(right))
	}
	r, ok := right.(types.Integer)
	if !ok {
		return nil, false, InvalidOperationError("div", types.Type(left), types.Type(right))
	}
	if r.Value() == 0 {
		return nil, false, nil
	}
	v, err := l.Div(r)
	return v, true, err
}

// Modulo performs modulo (mod operator). Modulo by zero yields Empty.
func Modulo(left, right types.Value) (types.Value, bool, error) {
	l, ok := left.(types.Integer)
	if !ok {
		return nil, false, InvalidOperationError("mod", types.Type(left), types.Type(right))
	}
	r, ok := right.(types.Integer)
	if !ok {
		return nil, false, InvalidOperationError("mod", types.Type(left), types.Type(right))
	}
	if r.Value() == 0 {
		return nil, false, nil
	}
	v, err := l.Mod(r)
	return v, true, err
}

// Negate negates a numeric value.
func Negate(value types.Value) (types.Value, error) {
	switch v := value.(type) {
	case types.Integer:
		return v.Negate(), nil
	case types.Long:
		return v.Negate(), nil
	case types.Decimal:
		return v.Negate(), nil
	}
	return nil, NewEvalError(ErrType, "cannot negate "+types.Type(value))
}

// Comparison operators

// Compare compares two values and returns -1, 0, or 1.
func Compare(left, right types.Value) (int, error) {
	if obj, ok := left.(*types.ObjectValue); ok {
		if _, isRightQuantity := right.(types.Quantity); isRightQuantity {
			if q, ok := obj.ToQuantity(); ok {
				return q.Compare(right)
			}
		}
	}
	if obj, ok := right.(*types.ObjectValue); ok {
		if _, isLeftQuantity := left.(types.Quantity); isLeftQuantity {
			if q, ok := obj.ToQuantity(); ok {
				if comp, ok := left.(types.Comparable); ok {
					return comp.Compare(q)
				}
			}
		}
	}

	if comp, ok := left.(types.Comparable); ok {
		return comp.Compare(right)
	}
	return 0, InvalidOperationError("compare", types.Type(left), types.Type(right))
}

// LessThan returns true if left < right.
func LessThan(left, right types.Value) (types.Collection, error) {
	cmp, err := Compare(left, right)
	if err != nil {
		return types.Empty(), err
	}
	return types.FromSlice([]types.Value{types.NewBoolean(cmp < 0)}, false), nil
}

// LessOrEqual returns true if left <= right.
func LessOrEqual(left, right types.Value) (types.Collection, error) {
	cmp, err := Compare(left, right)
	if err != nil {
		return types.Empty(), err
	}
	return types.FromSlice([]types.Value{types.NewBoolean(cmp <= 0)}, false), nil
}

// GreaterThan returns true if left > right.
func GreaterThan(left, right types.Value) (types.Collection, error) {
	cmp, err := Compare(left, right)
	if err != nil {
		return types.Empty(), err
	}
	return types.FromSlice([]types.Value{types.NewBoolean(cmp > 0)}, false), nil
}

// GreaterOrEqual returns true if left >= right.
func GreaterOrEqual(left, right types.Value) (types.Collection, error) {
	cmp, err := Compare(left, right)
	if err != nil {
		return types.Empty(), err
	}
	return types.FromSlice([]types.Value{types.NewBoolean(cmp >= 0)}, false), nil
}

// Equality operators

// Equal returns true if left = right.
func Equal(left, right types.Collection) types.Collection {
	if left.Empty() || right.Empty() {
		return types.Empty()
	}
	if left.Count() != 1 || right.Count() != 1 {
		return types.Empty()
	}
	if left.Items[0].Equal(right.Items[0]) {
		return types.TrueCollection
	}
	return types.FalseCollection
}

// NotEqual returns true if left != right.
func NotEqual(left, right types.Collection) types.Collection {
	result := Equal(left, right)
	if result.Empty() {
		return result
	}
	if result.Items[0].(types.Boolean).Bool() {
		return types.FalseCollection
	}
	return types.TrueCollection
}

// Equivalent returns true if left ~ right.
func Equivalent(left, right types.Collection) types.Collection {
	if left.Empty() && right.Empty() {
		return types.TrueCollection
	}
	if left.Empty() || right.Empty() {
		return types.FalseCollection
	}
	if left.Count() != 1 || right.Count() != 1 {
		return types.FalseCollection
	}
	if left.Items[0].Equivalent(right.Items[0]) {
		return types.TrueCollection
	}
	return types.FalseCollection
}

// NotEquivalent returns true if left !~ right.
func NotEquivalent(left, right types.Collection) types.Collection {
	result := Equivalent(left, right)
	if result.Items[0].(types.Boolean).Bool() {
		return types.FalseCollection
	}
	return types.TrueCollection
}

// Boolean operators (three-valued logic: true/false/Empty)

func boolAt(c types.Collection) (types.Boolean, bool) {
	if c.Empty() {
		return types.Boolean{}, false
	}
	b, ok := c.Items[0].(types.Boolean)
	return b, ok
}

// And implements the and truth table: false dominates, otherwise empty
// propagates, otherwise both must be true.
func And(left, right types.Collection) types.Collection {
	lb, lok := boolAt(left)
	rb, rok := boolAt(right)
	if lok && !lb.Bool() {
		return types.FalseCollection
	}
	if rok && !rb.Bool() {
		return types.FalseCollection
	}
	if left.Empty() || right.Empty() {
		return types.Empty()
	}
	if !lok || !rok {
		return types.Empty()
	}
	return types.FromSlice([]types.Value{types.NewBoolean(lb.Bool() && rb.Bool())}, false)
}

// Or implements the or truth table: true dominates, otherwise empty
// propagates, otherwise both must be false.
func Or(left, right types.Collection) types.Collection {
	lb, lok := boolAt(left)
	rb, rok := boolAt(right)
	if lok && lb.Bool() {
		return types.TrueCollection
	}
	if rok && rb.Bool() {
		return types.TrueCollection
	}
	if left.Empty() || right.Empty() {
		return types.Empty()
	}
	if !lok || !rok {
		return types.Empty()
	}
	return types.FromSlice([]types.Value{types.NewBoolean(lb.Bool() || rb.Bool())}, false)
}

// Xor implements exclusive or; Empty propagates unconditionally (no
// dominating value).
func Xor(left, right types.Collection) types.Collection {
	if left.Empty() || right.Empty() {
		return types.Empty()
	}
	lb, lok := boolAt(left)
	rb, rok := boolAt(right)
	if !lok || !rok {
		return types.Empty()
	}
	return types.FromSlice([]types.Value{types.NewBoolean(lb.Bool() != rb.Bool())}, false)
}

// Implies implements material implication: false antecedent or true
// consequent dominate to true, otherwise empty propagates.
func Implies(left, right types.Collection) types.Collection {
	lb, lok := boolAt(left)
	rb, rok := boolAt(right)
	if lok && !lb.Bool() {
		return types.TrueCollection
	}
	if rok && rb.Bool() {
		return types.TrueCollection
	}
	if left.Empty() || right.Empty() {
		return types.Empty()
	}
	return types.FalseCollection
}

// Not negates a singleton boolean; Empty and non-boolean input yield Empty.
func Not(value types.Collection) types.Collection {
	b, ok := boolAt(value)
	if !ok || value.Count() != 1 {
		return types.Empty()
	}
	return types.FromSlice([]types.Value{types.NewBoolean(!b.Bool())}, false)
}

// String operators

// Concatenate performs string concatenation (& operator). Unlike +, &
// treats Empty as the empty string rather than propagating Empty.
func Concatenate(left, right types.Collection) types.Collection {
	var lStr, rStr string
	if !left.Empty() {
		if s, ok := left.Items[0].(types.String); ok {
			lStr = s.Value()
		}
	}
	if !right.Empty() {
		if s, ok := right.Items[0].(types.String); ok {
			rStr = s.Value()
		}
	}
	return types.Of(types.NewString(lStr + rStr))
}

// Collection operators

// Union returns the union of two collections.
func Union(left, right types.Collection) types.Collection {
	return left.Union(right)
}

// In checks if left is a member of right.
func In(left, right types.Collection) types.Collection {
	if left.Empty() || left.Count() != 1 {
		return types.Empty()
	}
	return types.FromSlice([]types.Value{types.NewBoolean(right.Contains(left.Items[0]))}, false)
}

// Contains checks if left collection contains right as a member.
func Contains(left, right types.Collection) types.Collection {
	if right.Empty() || right.Count() != 1 {
		return types.Empty()
	}
	return types.FromSlice([]types.Value{types.NewBoolean(left.Contains(right.Items[0]))}, false)
}
