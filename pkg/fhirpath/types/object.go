package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
)

// ObjectValue represents a FHIR resource or complex type as a JSON object.
// It is the tree node the resource view (pkg/fhirpath/resourceview) walks:
// field access resolves choice-type (value[x]) names transparently and
// tags resourceType-bearing objects with an explicit FHIR-namespaced type.
type ObjectValue struct {
	data   []byte
	fields map[string]Value // Cache of accessed fields
}

// NewObjectValue creates a new ObjectValue from JSON bytes.
func NewObjectValue(data []byte) *ObjectValue {
	return &ObjectValue{
		data:   data,
		fields: make(map[string]Value),
	}
}

// FHIR type constants used when resourceType is absent and the type must
// be inferred from structure (complex datatypes never carry resourceType).
const (
	typeQuantity        = "Quantity"
	typeCoding          = "Coding"
	typeCodeableConcept = "CodeableConcept"
	typeReference       = "Reference"
	typePeriod          = "Period"
	typeIdentifier      = "Identifier"
	typeRange           = "Range"
	typeRatio           = "Ratio"
	typeAttachment      = "Attachment"
	typeHumanName       = "HumanName"
	typeAddress         = "Address"
	typeContactPoint    = "ContactPoint"
	typeAnnotation      = "Annotation"
	typeObject          = "Object"
)

// polymorphicTypeSuffixes lists the FHIR type suffixes that can complete a
// choice-type (value[x]) element name. Field access tries the bare name
// first, then each of these appended to the requested name, stopping at
// the first match since a resource can only populate one variant.
var polymorphicTypeSuffixes = []string{
	"Boolean", "Integer", "Integer64", "Decimal", "String", "Code", "Id", "Uri", "Url", "Canonical",
	"Base64Binary", "Instant", "Date", "DateTime", "Time", "Oid", "Uuid", "Markdown", "PositiveInt", "UnsignedInt",
	"Quantity", "CodeableConcept", "Coding", "Range", "Period", "Ratio", "RatioRange",
	"Identifier", "Reference", "Attachment", "HumanName", "Address", "ContactPoint",
	"Timing", "Signature", "Annotation", "SampledData", "Age", "Distance", "Duration",
	"Count", "Money", "MoneyQuantity", "SimpleQuantity",
	"Meta", "Dosage", "ContactDetail", "Contributor", "DataRequirement", "Expression",
	"ParameterDefinition", "RelatedArtifact", "TriggerDefinition", "UsageContext",
}

// TypeInfo returns the FHIR-namespaced type of this object: resourceType
// when present, otherwise a type inferred from structure for the common
// complex datatypes (Quantity, Coding, Reference, ...).
func (o *ObjectValue) TypeInfo() TypeInfo {
	if rt, err := jsonparser.GetString(o.data, "resourceType"); err == nil {
		return FHIRType(rt)
	}
	return FHIRType(o.inferType())
}

// inferType attempts to infer the FHIR type from the object's structure.
// Uses a series of helper methods to reduce cyclomatic complexity.
func (o *ObjectValue) inferType() string {
	if t := o.inferQuantityType(); t != "" {
		return t
	}
	if t := o.inferCodingType(); t != "" {
		return t
	}
	if t := o.inferComplexTypes(); t != "" {
		return t
	}
	return typeObject
}

// inferQuantityType checks if the object is a Quantity type.
func (o *ObjectValue) inferQuantityType() string {
	if o.hasField("value") {
		if o.hasField("unit") || o.hasField("code") || o.hasField("system") {
			return typeQuantity
		}
	}
	return ""
}

// inferCodingType checks if the object is a Coding type.
func (o *ObjectValue) inferCodingType() string {
	if o.hasField("system") && o.hasField("code") && !o.hasField("value") {
		return typeCoding
	}
	return ""
}

// inferComplexTypes checks for various FHIR complex types.
func (o *ObjectValue) inferComplexTypes() string {
	if o.hasArrayField("coding") {
		return typeCodeableConcept
	}
	if o.hasField("reference") {
		return typeReference
	}
	if o.hasPeriodFields() {
		return typePeriod
	}
	if o.hasIdentifierFields() {
		return typeIdentifier
	}
	if o.hasField("low") || o.hasField("high") {
		return typeRange
	}
	if o.hasField("numerator") || o.hasField("denominator") {
		return typeRatio
	}
	if o.hasField("contentType") {
		return typeAttachment
	}
	if o.hasHumanNameFields() {
		return typeHumanName
	}
	if o.hasAddressFields() {
		return typeAddress
	}
	if o.hasContactPointFields() {
		return typeContactPoint
	}
	if o.hasAnnotationFields() {
		return typeAnnotation
	}
	return ""
}

func (o *ObjectValue) hasArrayField(name string) bool {
	_, dataType, _, err := jsonparser.Get(o.data, name)
	return err == nil && dataType == jsonparser.Array
}

func (o *ObjectValue) hasPeriodFields() bool {
	return o.hasField("start") || o.hasField("end")
}

// hasField checks if a field exists in the object.
func (o *ObjectValue) hasField(name string) bool {
	//nolint:dogsled // jsonparser.Get returns 4 values, we only need the error
	_, _, _, err := jsonparser.Get(o.data, name)
	return err == nil
}

func (o *ObjectValue) hasIdentifierFields() bool {
	return o.hasField("system") && o.hasStringField("value")
}

func (o *ObjectValue) hasStringField(name string) bool {
	_, dataType, _, err := jsonparser.Get(o.data, name)
	return err == nil && dataType == jsonparser.String
}

func (o *ObjectValue) hasHumanNameFields() bool {
	return o.hasField("family") || o.hasArrayField("given")
}

func (o *ObjectValue) hasAddressFields() bool {
	return o.hasField("city") || o.hasField("postalCode")
}

func (o *ObjectValue) hasContactPointFields() bool {
	return o.hasField("system") && o.hasField("use")
}

func (o *ObjectValue) hasAnnotationFields() bool {
	if !o.hasField("text") {
		return false
	}
	return o.hasField("time") || o.hasField("authorReference") || o.hasField("authorString")
}

// Equal returns true if the JSON data is identical.
func (o *ObjectValue) Equal(other Value) bool {
	if ov, ok := other.(*ObjectValue); ok {
		return bytes.Equal(o.data, ov.data)
	}
	return false
}

// Equivalent is the same as Equal for objects.
func (o *ObjectValue) Equivalent(other Value) bool {
	return o.Equal(other)
}

// String returns the JSON representation.
func (o *ObjectValue) String() string {
	return string(o.data)
}

// IsEmpty returns false for object values.
func (o *ObjectValue) IsEmpty() bool {
	return false
}

// Data returns the raw JSON data.
func (o *ObjectValue) Data() []byte {
	return o.data
}

// Get retrieves a field value, resolving choice-type (value[x]) names
// transparently and caching the result.
func (o *ObjectValue) Get(field string) (Value, bool) {
	if v, ok := o.fields[field]; ok {
		return v, true
	}

	value, dataType, _, err := jsonparser.Get(o.data, field)
	if err != nil {
		if v, ok := o.getPolymorphic(field); ok {
			o.fields[field] = v
			return v, true
		}
		return nil, false
	}

	v := jsonValueToFHIRValue(value, dataType)
	o.fields[field] = v
	return v, true
}

// GetCollection retrieves a field as a Collection, resolving choice-type
// element names (e.g. "value" -> "valueQuantity") when the bare name is
// not itself present. If the field is an array, returns all elements; if
// a single value, returns a singleton collection.
func (o *ObjectValue) GetCollection(field string) Collection {
	value, dataType, _, err := jsonparser.Get(o.data, field)
	if err != nil {
		return o.getPolymorphicCollection(field)
	}

	if dataType == jsonparser.Array {
		return jsonArrayToCollection(value)
	}

	v := jsonValueToFHIRValue(value, dataType)
	if v == nil {
		return Empty()
	}
	return Of(v)
}

// getPolymorphic resolves a logical choice-type element name to whichever
// concrete valueX field is actually populated.
func (o *ObjectValue) getPolymorphic(name string) (Value, bool) {
	for _, suffix := range polymorphicTypeSuffixes {
		value, dataType, _, err := jsonparser.Get(o.data, name+suffix)
		if err != nil {
			continue
		}
		v := jsonValueToFHIRValue(value, dataType)
		if v != nil {
			return v, true
		}
	}
	return nil, false
}

func (o *ObjectValue) getPolymorphicCollection(name string) Collection {
	for _, suffix := range polymorphicTypeSuffixes {
		fieldName := name + suffix
		value, dataType, _, err := jsonparser.Get(o.data, fieldName)
		if err != nil {
			continue
		}
		if dataType == jsonparser.Array {
			return jsonArrayToCollection(value)
		}
		v := jsonValueToFHIRValue(value, dataType)
		if v != nil {
			return Of(v)
		}
	}
	return Empty()
}

// Keys returns all field names in the object.
func (o *ObjectValue) Keys() []string {
	var keys []string
	//nolint:errcheck // ObjectEach only returns errors for non-objects; o.data is always a valid object
	jsonparser.ObjectEach(o.data, func(key []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
		keys = append(keys, string(key))
		return nil
	})
	return keys
}

// Children returns a collection of all child values, skipping primitive
// extension siblings (keys beginning with "_") since those are exposed
// through Extension/element id access on the owning primitive, not as
// independent children.
func (o *ObjectValue) Children() Collection {
	var items []Value
	//nolint:errcheck // ObjectEach only returns errors for non-objects; o.data is always a valid object
	jsonparser.ObjectEach(o.data, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		if strings.HasPrefix(string(key), "_") {
			return nil
		}
		if dataType == jsonparser.Array {
			items = append(items, jsonArrayToCollection(value).Items...)
		} else {
			v := jsonValueToFHIRValue(value, dataType)
			if v != nil {
				items = append(items, v)
			}
		}
		return nil
	})
	return FromSlice(items, false)
}

// jsonValueToFHIRValue converts a JSON value to a FHIRPath Value.
func jsonValueToFHIRValue(data []byte, dataType jsonparser.ValueType) Value {
	switch dataType {
	case jsonparser.String:
		var s string
		if err := json.Unmarshal(append([]byte{'"'}, append(data, '"')...), &s); err != nil {
			s = string(data)
		}
		return NewString(s)

	case jsonparser.Number:
		s := string(data)
		if !strings.Contains(s, ".") && !strings.Contains(s, "e") && !strings.Contains(s, "E") {
			if i, err := jsonparser.ParseInt(data); err == nil {
				return NewInteger(i)
			}
		}
		d, err := NewDecimal(s)
		if err != nil {
			return nil
		}
		return d

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return nil
		}
		return NewBoolean(b)

	case jsonparser.Object:
		return NewObjectValue(data)

	case jsonparser.Array:
		return nil

	case jsonparser.Null:
		return nil
	}

	return nil
}

// jsonArrayToCollection converts a JSON array to a Collection.
func jsonArrayToCollection(data []byte) Collection {
	var items []Value
	//nolint:errcheck // ArrayEach only returns errors for non-arrays; data is already validated as array
	jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		v := jsonValueToFHIRValue(value, dataType)
		if v != nil {
			items = append(items, v)
		}
	})
	return FromSlice(items, false)
}

// JSONToCollection converts JSON bytes to a Collection.
func JSONToCollection(data []byte) (Collection, error) {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return Empty(), err
	}

	switch dataType {
	case jsonparser.Object:
		return Of(NewObjectValue(value)), nil
	case jsonparser.Array:
		return jsonArrayToCollection(value), nil
	case jsonparser.Null:
		return Empty(), nil
	default:
		v := jsonValueToFHIRValue(value, dataType)
		if v == nil {
			return Empty(), nil
		}
		return Of(v), nil
	}
}

// ToQuantity attempts to convert an ObjectValue to a Quantity.
// This is used when the object represents a FHIR Quantity type
// (with fields like "value", "unit", "code", "system").
// Returns the Quantity and true if successful, or zero Quantity and false if not.
func (o *ObjectValue) ToQuantity() (Quantity, bool) {
	valueBytes, dataType, _, err := jsonparser.Get(o.data, "value")
	if err != nil || dataType == jsonparser.NotExist {
		return Quantity{}, false
	}

	var val decimal.Decimal
	if dataType == jsonparser.Number {
		s := string(valueBytes)
		val, err = decimal.NewFromString(s)
		if err != nil {
			return Quantity{}, false
		}
	} else {
		return Quantity{}, false
	}

	unit := ""
	if unitBytes, _, _, err := jsonparser.Get(o.data, "unit"); err == nil {
		unit = string(unitBytes)
	} else if codeBytes, _, _, err := jsonparser.Get(o.data, "code"); err == nil {
		unit = string(codeBytes)
	}

	return NewQuantityFromDecimal(val, unit), true
}
