package viewdef

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
)

// ViewDefinition is a tabular projection over a FHIR resource type, expressed
// as a tree of SelectClause nodes plus a set of row filters and constants.
type ViewDefinition struct {
	ResourceType string         `json:"resource"`
	Name         string         `json:"name,omitempty"`
	Status       string         `json:"status,omitempty"`
	Constant     []Constant     `json:"constant,omitempty"`
	Select       []SelectClause `json:"select"`
	Where        []WhereClause  `json:"where,omitempty"`
}

// SelectClause is one node of a ViewDefinition's select tree. Exactly one
// of Column or Select is populated, unless UnionAll is set, which replaces
// both with a set of alternative branches merged by row. ForEach and
// ForEachOrNull rebind the evaluation focus to each item of an expression
// before Column/Select are evaluated; at most one of
// {ForEach, ForEachOrNull, UnionAll} may be set on a node.
type SelectClause struct {
	Column        []ColumnSpec   `json:"column,omitempty"`
	Select        []SelectClause `json:"select,omitempty"`
	ForEach       string         `json:"forEach,omitempty"`
	ForEachOrNull string         `json:"forEachOrNull,omitempty"`
	UnionAll      []SelectClause `json:"unionAll,omitempty"`
}

// ColumnSpec describes a single output column.
type ColumnSpec struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type,omitempty"`
	Collection  bool   `json:"collection,omitempty"`
	Description string `json:"description,omitempty"`
	Tag         []Tag  `json:"tag,omitempty"`
}

// Tag is a free-form name/value annotation on a column, carried through
// unmodified (consumers decide what to do with it).
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// WhereClause is a boolean FHIRPath expression that must evaluate to a
// singleton true for a resource to be included.
type WhereClause struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// Parse decodes and validates a ViewDefinition from JSON.
func Parse(data []byte) (*ViewDefinition, error) {
	var v ViewDefinition
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, eval.InvalidViewDefinitionError("malformed ViewDefinition JSON: " + err.Error())
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Validate checks structural invariants: a resource type is present, the
// select tree is non-empty, and every node has exactly one populated arm.
func (v *ViewDefinition) Validate() error {
	if v.ResourceType == "" {
		return eval.InvalidViewDefinitionError("resource is required")
	}
	if len(v.Select) == 0 {
		return eval.InvalidViewDefinitionError("select is required and must be non-empty")
	}
	for i := range v.Constant {
		if _, err := v.Constant[i].normalize(); err != nil {
			return err
		}
	}
	for i, s := range v.Select {
		if err := s.validate(pathIndex("select", i)); err != nil {
			return err
		}
	}
	return checkDuplicateColumns(v.schema())
}

// checkDuplicateColumns rejects a flattened schema that would produce two
// cells with the same column name in a single row.
func checkDuplicateColumns(schema []ColumnSpec) error {
	seen := make(map[string]bool, len(schema))
	dupes := make(map[string]bool)
	for _, c := range schema {
		if seen[c.Name] {
			dupes[c.Name] = true
		}
		seen[c.Name] = true
	}
	if len(dupes) == 0 {
		return nil
	}
	names := maps.Keys(dupes)
	slices.Sort(names)
	return eval.InvalidViewDefinitionError("duplicate column name(s): " + strings.Join(names, ", "))
}

func pathIndex(base string, i int) string {
	return base + "[" + strconv.Itoa(i) + "]"
}

// validate enforces the iteration-arm exclusivity described on SelectClause
// and recurses into nested nodes.
func (s *SelectClause) validate(path string) error {
	iterationArms := 0
	if s.ForEach != "" {
		iterationArms++
	}
	if s.ForEachOrNull != "" {
		iterationArms++
	}
	if len(s.UnionAll) > 0 {
		iterationArms++
	}
	if iterationArms > 1 {
		return eval.InvalidViewDefinitionError(path + ": at most one of forEach, forEachOrNull, unionAll may be set")
	}

	if len(s.UnionAll) > 0 {
		if len(s.Column) > 0 || len(s.Select) > 0 {
			return eval.InvalidViewDefinitionError(path + ": unionAll cannot be combined with column or select")
		}
	} else if (len(s.Column) > 0) == (len(s.Select) > 0) {
		// Exactly one of column/select, with or without forEach/forEachOrNull
		// layered on top to define the iteration focus they project from.
		return eval.InvalidViewDefinitionError(path + ": must populate exactly one of column or select (or unionAll alone)")
	}

	for i, c := range s.Column {
		if c.Name == "" {
			return eval.InvalidViewDefinitionError(pathIndex(path+".column", i) + ": name is required")
		}
		if c.Path == "" {
			return eval.InvalidViewDefinitionError(pathIndex(path+".column", i) + ": path is required")
		}
	}
	for i, nested := range s.Select {
		if err := nested.validate(pathIndex(path+".select", i)); err != nil {
			return err
		}
	}
	if len(s.UnionAll) > 0 {
		var schema []ColumnSpec
		for i, branch := range s.UnionAll {
			if err := branch.validate(pathIndex(path+".unionAll", i)); err != nil {
				return err
			}
			branchSchema := branch.columnSchema()
			if schema == nil {
				schema = branchSchema
			} else if !schemasMatch(schema, branchSchema) {
				return eval.InvalidViewDefinitionError(pathIndex(path+".unionAll", i) + ": column schema does not match preceding branches")
			}
		}
	}
	return nil
}

// columnSchema returns the flattened (name, type) pairs this node's rows
// will carry, used to check unionAll branch compatibility and to detect
// duplicate column names across the whole tree.
func (s *SelectClause) columnSchema() []ColumnSpec {
	if len(s.UnionAll) > 0 {
		// Validate already confirmed every branch shares a schema.
		return s.UnionAll[0].columnSchema()
	}
	var out []ColumnSpec
	for _, c := range s.Column {
		out = append(out, ColumnSpec{Name: c.Name, Type: c.Type, Collection: c.Collection})
	}
	for _, nested := range s.Select {
		out = append(out, nested.columnSchema()...)
	}
	return out
}

func schemasMatch(a, b []ColumnSpec) bool {
	return slices.EqualFunc(a, b, func(x, y ColumnSpec) bool {
		return x.Name == y.Name && x.Type == y.Type
	})
}
