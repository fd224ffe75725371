package funcs

import (
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

func init() {
	// Register filtering functions
	Register(FuncDef{
		Name:    "where",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnWhere,
	})

	Register(FuncDef{
		Name:    "select",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnSelect,
	})

	Register(FuncDef{
		Name:    "repeat",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnRepeat,
	})

	Register(FuncDef{
		Name:    "ofType",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnOfType,
	})
}

// fnWhere, fnSelect, fnRepeat and fnOfType are registered so Has()/List()
// see these names, but the evaluator dispatches all four directly (it
// needs the unevaluated criteria/projection AST to rebind $this/$index
// per item) and never calls through FuncDef.Fn for them.

func fnWhere(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("where", 1, 0)
	}
	return input, nil
}

func fnSelect(_ *eval.Context, _ types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("select", 1, 0)
	}
	return types.Empty(), nil
}

func fnRepeat(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("repeat", 1, 0)
	}
	return input, nil
}

func fnOfType(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("ofType", 1, 0)
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

	if typeName == "" {
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
