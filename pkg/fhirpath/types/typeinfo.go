package types

// TypeInfo is the namespaced type tag every Value carries: System.* for
// FHIRPath primitives, FHIR.* for FHIR primitives, complex types and
// resources. It is the authoritative type used by is/as/ofType and by the
// type() reflection function — never the host language's runtime type.
type TypeInfo struct {
	Namespace string
	Name      string
}

// String renders as "Namespace.Name", e.g. "System.Integer", "FHIR.Patient".
func (t TypeInfo) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// IsEmpty reports the zero TypeInfo, used when a value has no known type.
func (t TypeInfo) IsEmpty() bool {
	return t.Namespace == "" && t.Name == ""
}

// System namespace type names (spec.md §4.3.4).
const (
	NamespaceSystem = "System"
	NamespaceFHIR   = "FHIR"
)

func SystemType(name string) TypeInfo { return TypeInfo{Namespace: NamespaceSystem, Name: name} }
func FHIRType(name string) TypeInfo   { return TypeInfo{Namespace: NamespaceFHIR, Name: name} }
