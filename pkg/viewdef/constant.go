package viewdef

import (
	"encoding/json"
	"strings"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

// Constant is a named literal injected as a FHIRPath external variable,
// declared in the ViewDefinition as {"name": ..., "value<Type>": ...}.
type Constant struct {
	Name      string
	ValueType string
	raw       json.RawMessage
}

// UnmarshalJSON extracts the single "value<Type>" key alongside "name".
func (c *Constant) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if nameRaw, ok := fields["name"]; ok {
		if err := json.Unmarshal(nameRaw, &c.Name); err != nil {
			return err
		}
	}
	delete(fields, "name")

	for key, raw := range fields {
		if !strings.HasPrefix(key, "value") {
			continue
		}
		c.ValueType = strings.TrimPrefix(key, "value")
		c.raw = raw
		break
	}

	if c.ValueType == "" {
		return eval.InvalidViewDefinitionError("constant " + c.Name + ": missing value<Type> field")
	}
	return nil
}

// normalize converts the constant's raw JSON value into a typed Value,
// according to its declared valueX suffix. Only FHIR primitives are
// supported; complex valueX types are not meaningful as scalar variables.
func (c *Constant) normalize() (types.Value, error) {
	var text string
	var num json.Number
	var b bool

	switch c.ValueType {
	case "String", "Code", "Id", "Uri", "Url", "Canonical", "Oid", "Markdown", "Base64Binary":
		if err := json.Unmarshal(c.raw, &text); err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": invalid value" + c.ValueType)
		}
		return types.NewString(text), nil

	case "Boolean":
		if err := json.Unmarshal(c.raw, &b); err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": invalid valueBoolean")
		}
		return types.NewBoolean(b), nil

	case "Integer", "UnsignedInt", "PositiveInt":
		if err := json.Unmarshal(c.raw, &num); err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": invalid value" + c.ValueType)
		}
		n, err := num.Int64()
		if err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": value" + c.ValueType + " is not an integer")
		}
		return types.NewInteger(n), nil

	case "Decimal":
		if err := json.Unmarshal(c.raw, &num); err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": invalid valueDecimal")
		}
		d, err := types.NewDecimal(num.String())
		if err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": " + err.Error())
		}
		return d, nil

	case "Date":
		if err := json.Unmarshal(c.raw, &text); err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": invalid valueDate")
		}
		d, err := types.NewDate(text)
		if err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": " + err.Error())
		}
		return d, nil

	case "DateTime", "Instant":
		if err := json.Unmarshal(c.raw, &text); err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": invalid value" + c.ValueType)
		}
		dt, err := types.NewDateTime(text)
		if err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": " + err.Error())
		}
		return dt, nil

	case "Time":
		if err := json.Unmarshal(c.raw, &text); err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": invalid valueTime")
		}
		t, err := types.NewTime(text)
		if err != nil {
			return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": " + err.Error())
		}
		return t, nil

	default:
		return nil, eval.InvalidViewDefinitionError("constant " + c.Name + ": unrecognized value" + c.ValueType)
	}
}
