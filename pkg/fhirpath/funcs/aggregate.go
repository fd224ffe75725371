package funcs

import (
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

func init() {
	// Register aggregate functions
	Register(FuncDef{
		Name:    "aggregate",
		MinArgs: 1,
		MaxArgs: 2,
		Fn:      fnAggregate,
	})

	// Register tree navigation functions
	Register(FuncDef{
		Name:    "children",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnChildren,
	})

	Register(FuncDef{
		Name:    "descendants",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnDescendants,
	})

	// Register additional boolean functions
	Register(FuncDef{
		Name:    "not",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnNot,
	})

	// Register type checking functions
	Register(FuncDef{
		Name:    "hasValue",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnHasValue,
	})

	Register(FuncDef{
		Name:    "getValue",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnGetValue,
	})

	// Register combine function
	Register(FuncDef{
		Name:    "combine",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnCombine,
	})

	// Register union function
	Register(FuncDef{
		Name:    "union",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnUnion,
	})

	// Register as function for type casting
	Register(FuncDef{
		Name:    "as",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnAs,
	})
}

// fnAggregate is registered for introspection (Has/List), but aggregate()
// itself is dispatched directly by the evaluator so it can rebind $this,
// $index and $total per item; this implementation is never reached in
// practice and only handles the degenerate init-value-only case.
func fnAggregate(_ *eval.Context, _ types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("aggregate", 1, 0)
	}
	if len(args) > 1 {
		if init, ok := args[1].(types.Collection); ok {
			return init, nil
		}
	}
	return types.Empty(), nil
}

// fnChildren returns all direct children of the input.
func fnChildren(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	var items []types.Value
	for _, item := range input.Items {
		if obj, ok := item.(*types.ObjectValue); ok {
			items = append(items, obj.Children().Items...)
		}
	}
	return types.FromSlice(items, false), nil
}

// fnDescendants returns all descendants of the input (recursive children).
func fnDescendants(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	var items []types.Value
	seen := make(map[string]bool)

	var collect func(cols []types.Value)
	collect = func(cols []types.Value) {
		for _, item := range cols {
			obj, ok := item.(*types.ObjectValue)
			if !ok {
				continue
			}
			key := obj.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			children := obj.Children().Items
			items = append(items, children...)
			collect(children)
		}
	}

	collect(input.Items)
	return types.FromSlice(items, false), nil
}

// fnNot returns the boolean negation.
func fnNot(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}
	if b, ok := input.Items[0].(types.Boolean); ok {
		return types.Of(types.NewBoolean(!b.Bool())), nil
	}
	return types.Empty(), nil
}

// fnHasValue returns true if the input has a primitive value.
func fnHasValue(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Of(types.NewBoolean(false)), nil
	}
	for _, item := range input.Items {
		switch item.(type) {
		case types.Boolean, types.String, types.Integer, types.Decimal,
			types.Date, types.DateTime, types.Time:
			return types.Of(types.NewBoolean(true)), nil
		}
	}
	return types.Of(types.NewBoolean(false)), nil
}

// fnGetValue returns the primitive value if it exists.
func fnGetValue(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	var items []types.Value
	for _, item := range input.Items {
		switch v := item.(type) {
		case types.Boolean, types.String, types.Integer, types.Decimal,
			types.Date, types.DateTime, types.Time:
			items = append(items, v)
		}
	}
	return types.FromSlice(items, input.Unordered), nil
}

// fnCombine combines two collections without removing duplicates.
func fnCombine(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("combine", 1, 0)
	}
	other, ok := args[0].(types.Collection)
	if !ok {
		return input, nil
	}
	items := make([]types.Value, 0, input.Count()+other.Count())
	items = append(items, input.Items...)
	items = append(items, other.Items...)
	return types.FromSlice(items, input.Unordered || other.Unordered), nil
}

// fnUnion returns the union of two collections (removes duplicates).
func fnUnion(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("union", 1, 0)
	}
	other, ok := args[0].(types.Collection)
	if !ok {
		return input, nil
	}
	return input.Union(other), nil
}

// fnAs casts the input to a specific type, filtering elements by exact
// type-name match. The operator form (x as Type) is handled directly by
// the evaluator via the ast.Type node. The parser never produces an as(...)
// call, since "as" lexes as a keyword, so this is reached only when called
// directly through the registry.
func fnAs(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("as", 1, 0)
	}

	typeName := ""
	switch v := args[0].(type) {
	case types.Collection:
		if s, ok := v.First(); ok {
			if str, ok := s.(types.String); ok {
				typeName = str.Value()
			}
		}
	case types.String:
		typeName = v.Value()
	case string:
		typeName = v
	}

	if typeName == "" || input.Empty() {
		return types.Empty(), nil
	}

	var items []types.Value
	for _, item := range input.Items {
		if item.TypeInfo().Name == typeName {
			items = append(items, item)
		}
	}
	return types.FromSlice(items, input.Unordered), nil
}
