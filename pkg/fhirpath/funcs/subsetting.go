package funcs

import (
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

func init() {
	// Register subsetting functions
	Register(FuncDef{
		Name:        "first",
		MinArgs:     0,
		MaxArgs:     0,
		Fn:          fnFirst,
		
	})

	Register(FuncDef{
		Name:        "last",
		MinArgs:     0,
		MaxArgs:     0,
		Fn:          fnLast,
		
	})

	Register(FuncDef{
		Name:        "tail",
		MinArgs:     0,
		MaxArgs:     0,
		Fn:          fnTail,
		
	})

	Register(FuncDef{
		Name:        "skip",
		MinArgs:     1,
		MaxArgs:     1,
		Fn:          fnSkip,
		
	})

	Register(FuncDef{
		Name:        "take",
		MinArgs:     1,
		MaxArgs:     1,
		Fn:          fnTake,
		
	})

	Register(FuncDef{
		Name:        "single",
		MinArgs:     0,
		MaxArgs:     0,
		Fn:          fnSingle,
		
	})

	Register(FuncDef{
		Name:        "intersect",
		MinArgs:     1,
		MaxArgs:     1,
		Fn:          fnIntersect,
		
	})

	Register(FuncDef{
		Name:        "exclude",
		MinArgs:     1,
		MaxArgs:     1,
		Fn:          fnExclude,
		
	})
}

// fnFirst returns the first element of the collection.
func fnFirst(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if ctx.OrderedPolicy() && input.Unordered && input.Count() > 1 {
		return types.Empty(), eval.UnorderedOperationError("first")
	}
	if first, ok := input.First(); ok {
		return types.Of(first), nil
	}
	return types.Empty(), nil
}

// fnLast returns the last element of the collection.
func fnLast(ctx *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if ctx.OrderedPolicy() && input.Unordered && input.Count() > 1 {
		return types.Empty(), eval.UnorderedOperationError("last")
	}
	if last, ok := input.Last(); ok {
		return types.Of(last), nil
	}
	return types.Empty(), nil
}

// fnTail returns all elements except the first.
func fnTail(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	return input.Tail(), nil
}

// fnSkip returns elements after skipping the first n.
func fnSkip(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("skip", 1, 0)
	}

	n, err := toInteger(args[0])
	if err != nil {
		return types.Empty(), err
	}

	return input.Skip(int(n)), nil
}

// fnTake returns the first n elements.
func fnTake(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("take", 1, 0)
	}

	n, err := toInteger(args[0])
	if err != nil {
		return types.Empty(), err
	}

	return input.Take(int(n)), nil
}

// fnSingle returns the single element or errors if not exactly one.
func fnSingle(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	single, err := input.Single()
	if err != nil {
		return types.Empty(), eval.NewEvalError(eval.ErrSingleton, err.Error())
	}
	return types.Of(single), nil
}

// fnIntersect returns elements that are in both collections.
func fnIntersect(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("intersect", 1, 0)
	}

	other, ok := args[0].(types.Collection)
	if !ok {
		return types.Empty(), eval.TypeError("Collection", "unknown", "intersect")
	}

	return input.Intersect(other), nil
}

// fnExclude returns elements not in the other collection.
func fnExclude(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return types.Empty(), eval.ArityError("exclude", 1, 0)
	}

	other, ok := args[0].(types.Collection)
	if !ok {
		return types.Empty(), eval.TypeError("Collection", "unknown", "exclude")
	}

	return input.Exclude(other), nil
}

// toInteger converts an argument to int64.
func toInteger(arg interface{}) (int64, error) {
	switch v := arg.(type) {
	case types.Collection:
		if v.Empty() {
			return 0, eval.NewEvalError(eval.ErrType, "expected integer, got empty collection")
		}
		if i, ok := v.Items[0].(types.Integer); ok {
			return i.Value(), nil
		}
		return 0, eval.TypeError("Integer", types.Type(v.Items[0]), "argument")
	case types.Integer:
		return v.Value(), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, eval.NewEvalError(eval.ErrType, "expected integer")
	}
}
