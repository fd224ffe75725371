// Package funcs provides FHIRPath function implementations.
// This file registers the is() type-checking function; as() is registered
// in aggregate.go.
//
// - is(type): Returns true if the input is of the specified type
// - as(type): Returns the input if it is of the specified type, otherwise empty
//
// Only the operator forms (x is T, x as T) parse. The method-call forms
// .is(T) and .as(T) do not: "is" and "as" lex as keywords, so the parser
// rejects them after a '.'.
package funcs

import (
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/ast"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

func init() {
	// Registered so Has()/List() see the name; unreachable in practice
	// since "is"/"as" lex as keywords and can never parse as a
	// FunctionInvocation — the operator form (ast.Type) is the only path
	// the grammar produces, and the evaluator dispatches it directly.
	Register(FuncDef{
		Name:    "is",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnIsType,
	})
}

// fnIsType is the function implementation for is(). Unreachable via the
// grammar (see init comment); kept only so the registry entry resolves
// to something.
func fnIsType(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("is", 1, 0)
	}

	if input.Empty() {
		return types.Empty(), nil
	}
	if input.Count() != 1 {
		return types.Empty(), eval.SingletonError(input.Count())
	}

	typeName := extractTypeName(args[0])
	if typeName == "" {
		return types.Empty(), nil
	}

	matches := eval.TypeMatches(input.Items[0].TypeInfo(), ast.QualifiedIdentifier{Name: typeName})
	return types.Of(types.NewBoolean(matches)), nil
}

// extractTypeName extracts a type name from a function argument.
func extractTypeName(arg interface{}) string {
	switch v := arg.(type) {
	case string:
		return v
	case types.String:
		return v.Value()
	case types.Collection:
		if s, ok := v.First(); ok {
			if str, ok := s.(types.String); ok {
				return str.Value()
			}
		}
	}
	return ""
}
