package viewdef

import (
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

// Row is one output record, ordered to match the view's flattened column
// schema. A cell is nil, a bool, an int64, a float64, a string, or
// []interface{} when the column is declared collection=true.
type Row []interface{}

// schema returns the flattened (name, type, collection) triples the rows
// produced by this ViewDefinition's select tree will carry.
func (v *ViewDefinition) schema() []ColumnSpec {
	var out []ColumnSpec
	for _, s := range v.Select {
		out = append(out, s.columnSchema()...)
	}
	return out
}

// coerceCell converts a column's evaluated value to its declared JSON cell
// representation. Numeric widening between Integer and Decimal is allowed;
// a boolean, integer-family or decimal column whose value doesn't match is a
// TypeError. Any other column type gets the value's string form.
func coerceCell(v types.Value, col ColumnSpec) (interface{}, error) {
	switch col.Type {
	case "boolean":
		if b, ok := v.(types.Boolean); ok {
			return b.Bool(), nil
		}
	case "integer", "unsignedInt", "positiveInt":
		switch n := v.(type) {
		case types.Integer:
			return n.Value(), nil
		case types.Decimal:
			if i, ok := n.ToInteger(); ok {
				return i.Value(), nil
			}
		}
	case "decimal":
		switch n := v.(type) {
		case types.Decimal:
			f, _ := n.Value().Float64()
			return f, nil
		case types.Integer:
			return float64(n.Value()), nil
		}
	case "date", "dateTime", "instant", "time", "string", "code", "id", "uri", "url",
		"canonical", "markdown", "base64Binary", "oid", "":
		return v.String(), nil
	default:
		return v.String(), nil
	}
	return nil, eval.TypeError(col.Type, types.Type(v), "column "+col.Name)
}

// coerceColumn converts an evaluated collection into a single cell value,
// enforcing the at-most-one-value rule unless the column is declared a
// collection.
func coerceColumn(col ColumnSpec, result types.Collection) (interface{}, error) {
	if result.Empty() {
		return nil, nil
	}
	if col.Collection {
		items := make([]interface{}, 0, result.Count())
		for _, item := range result.Items {
			cell, err := coerceCell(item, col)
			if err != nil {
				return nil, err
			}
			items = append(items, cell)
		}
		return items, nil
	}
	if result.Count() > 1 {
		return nil, eval.CardinalityError(col.Name, result.Count())
	}
	return coerceCell(result.Items[0], col)
}
