package eval

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/ast"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/parser"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

func TestContext(t *testing.T) {
	t.Run("creation", func(t *testing.T) {
		json := []byte(`{"name": "test"}`)
		ctx := NewContext(json)

		if ctx.Root().Empty() {
			t.Error("expected non-empty root")
		}
		if ctx.This().Empty() {
			t.Error("expected non-empty this")
		}
	})

	t.Run("resource and context variables are seeded", func(t *testing.T) {
		ctx := NewContext([]byte(`{"resourceType": "Patient"}`))

		v, ok := ctx.GetVariable("resource")
		if !ok || v.Empty() {
			t.Error("expected %resource to be seeded")
		}
		v, ok = ctx.GetVariable("context")
		if !ok || v.Empty() {
			t.Error("expected %context to be seeded")
		}
	})

	t.Run("variables", func(t *testing.T) {
		ctx := NewContext([]byte(`{}`))

		ctx.SetVariable("myVar", types.Of(types.NewString("test")))

		v, ok := ctx.GetVariable("myVar")
		if !ok {
			t.Error("expected variable to exist")
		}
		if v.Empty() || v.Items[0].(types.String).Value() != "test" {
			t.Error("expected variable value 'test'")
		}

		_, ok = ctx.GetVariable("nonexistent")
		if ok {
			t.Error("expected variable to not exist")
		}
	})

	t.Run("limits", func(t *testing.T) {
		ctx := NewContext([]byte(`{}`))

		if ctx.GetLimit("maxCollectionSize") != 0 {
			t.Error("expected default limit of 0 (unset)")
		}

		ctx.SetLimit("maxCollectionSize", 2)
		if ctx.GetLimit("maxCollectionSize") != 2 {
			t.Error("expected limit to be set to 2")
		}

		small := types.FromSlice([]types.Value{types.NewInteger(1), types.NewInteger(2)}, false)
		if err := ctx.CheckCollectionSize(small); err != nil {
			t.Errorf("unexpected error for collection within limit: %v", err)
		}

		big := types.FromSlice([]types.Value{types.NewInteger(1), types.NewInteger(2), types.NewInteger(3)}, false)
		if err := ctx.CheckCollectionSize(big); err == nil {
			t.Error("expected error for collection over limit")
		}

		truncated, did := ctx.EnforceCollectionLimit(big)
		if !did {
			t.Error("expected truncation to occur")
		}
		if truncated.Count() != 2 {
			t.Errorf("expected truncated count of 2, got %d", truncated.Count())
		}
	})

	t.Run("cancellation", func(t *testing.T) {
		ctx := NewContext([]byte(`{}`))
		if err := ctx.CheckCancellation(); err != nil {
			t.Errorf("expected no error with background context: %v", err)
		}

		cancelCtx, cancel := context.WithCancel(context.Background())
		ctx.SetContext(cancelCtx)
		cancel()

		if err := ctx.CheckCancellation(); err == nil {
			t.Error("expected cancellation error")
		}
	})

	t.Run("withThis and withIndex do not mutate the original", func(t *testing.T) {
		ctx := NewContext([]byte(`{}`))
		other := ctx.WithThis(types.Of(types.NewInteger(7)))
		if other.This().Items[0].(types.Integer).Value() != 7 {
			t.Error("expected rebound $this on the derived context")
		}
		if _, ok := ctx.This().Items[0].(types.Integer); ok {
			t.Error("expected original context's $this to be unaffected")
		}
	})
}

func TestErrors(t *testing.T) {
	t.Run("error types", func(t *testing.T) {
		tests := []struct {
			errType  ErrorType
			expected string
		}{
			{ErrParse, "ParseError"},
			{ErrType, "TypeError"},
			{ErrSingleton, "SingletonEvaluationError"},
			{ErrArity, "InvalidArity"},
			{ErrSemantic, "SemanticError"},
			{ErrArithmetic, "ArithmeticError"},
			{ErrInvalidViewDefinition, "InvalidViewDefinition"},
			{ErrCardinality, "CardinalityError"},
			{ErrLimitExceeded, "LimitExceeded"},
			{ErrCancelled, "Cancelled"},
			{ErrInternal, "InternalError"},
		}

		for _, tt := range tests {
			if tt.errType.String() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, tt.errType.String())
			}
		}
	})

	t.Run("error constructors", func(t *testing.T) {
		if err := ParseError(1, 5, "bad token"); err.Type != ErrParse {
			t.Error("expected parse error")
		}

		if err := TypeError("String", "Integer", "add"); err.Type != ErrType {
			t.Error("expected type error")
		}

		if err := SingletonError(5); err.Type != ErrSingleton {
			t.Error("expected singleton error")
		}

		if err := ArityError("myFunc", 2, 1); err.Type != ErrArity {
			t.Error("expected arity error")
		}

		if err := UnknownFunctionError("myFunc"); err.Type != ErrSemantic {
			t.Error("expected semantic error")
		}

		if err := UnknownVariableError("x"); err.Type != ErrSemantic {
			t.Error("expected semantic error")
		}

		if err := UnorderedOperationError("[0]"); err.Type != ErrSemantic {
			t.Error("expected semantic error")
		}

		if err := ArithmeticOverflowError("+"); err.Type != ErrArithmetic {
			t.Error("expected arithmetic error")
		}

		if err := UnitConversionError("mg", "L"); err.Type != ErrArithmetic {
			t.Error("expected arithmetic error")
		}

		if err := InvalidViewDefinitionError("missing resource"); err.Type != ErrInvalidViewDefinition {
			t.Error("expected invalid view definition error")
		}

		if err := CardinalityError("name", 2); err.Type != ErrCardinality {
			t.Error("expected cardinality error")
		}

		if err := LimitExceededError("regex timeout"); err.Type != ErrLimitExceeded {
			t.Error("expected limit exceeded error")
		}

		if err := CancelledError(); err.Type != ErrCancelled {
			t.Error("expected cancelled error")
		}

		if err := InternalError("invariant violated"); err.Type != ErrInternal {
			t.Error("expected internal error")
		}

		if err := InvalidOperationError("+", "String", "Boolean"); err.Type != ErrType {
			t.Error("expected type error")
		}
	})

	t.Run("error message formatting", func(t *testing.T) {
		err := NewEvalError(ErrType, "test message")
		if err.Error() != "TypeError: test message" {
			t.Errorf("unexpected error message: %s", err.Error())
		}

		err = err.WithPath("Patient.name")
		if err.Path != "Patient.name" {
			t.Error("expected path to be set")
		}
		if err.Error() != "TypeError in 'Patient.name': test message" {
			t.Errorf("unexpected error message: %s", err.Error())
		}

		err = err.WithPosition(10, 5)
		if err.Position.Line != 10 || err.Position.Column != 5 {
			t.Error("expected position to be set")
		}
		if err.Error() != "TypeError at 10:5: test message" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("format string arguments", func(t *testing.T) {
		err := NewEvalError(ErrType, "expected %s, got %s", "Integer", "String")
		if err.Message != "expected Integer, got String" {
			t.Errorf("unexpected message: %s", err.Message)
		}
	})
}

func TestOperators(t *testing.T) {
	t.Run("add integers", func(t *testing.T) {
		result, err := Add(types.NewInteger(5), types.NewInteger(3))
		if err != nil {
			t.Fatal(err)
		}
		if result.(types.Integer).Value() != 8 {
			t.Errorf("expected 8, got %v", result)
		}
	})

	t.Run("add strings", func(t *testing.T) {
		result, err := Add(types.NewString("Hello"), types.NewString(" World"))
		if err != nil {
			t.Fatal(err)
		}
		if result.(types.String).Value() != "Hello World" {
			t.Errorf("expected 'Hello World', got %v", result)
		}
	})

	t.Run("add incompatible types", func(t *testing.T) {
		_, err := Add(types.NewString("a"), types.NewBoolean(true))
		if err == nil {
			t.Error("expected error for incompatible operand types")
		}
	})

	t.Run("subtract", func(t *testing.T) {
		result, err := Subtract(types.NewInteger(10), types.NewInteger(3))
		if err != nil {
			t.Fatal(err)
		}
		if result.(types.Integer).Value() != 7 {
			t.Errorf("expected 7, got %v", result)
		}
	})

	t.Run("multiply", func(t *testing.T) {
		result, err := Multiply(types.NewInteger(4), types.NewInteger(5))
		if err != nil {
			t.Fatal(err)
		}
		if result.(types.Integer).Value() != 20 {
			t.Errorf("expected 20, got %v", result)
		}
	})

	t.Run("divide", func(t *testing.T) {
		result, produced, err := Divide(types.NewInteger(10), types.NewInteger(4))
		if err != nil {
			t.Fatal(err)
		}
		if !produced {
			t.Fatal("expected a result")
		}
		if types.Type(result) != "Decimal" {
			t.Errorf("expected Decimal, got %s", types.Type(result))
		}
	})

	t.Run("divide by zero yields empty, not an error", func(t *testing.T) {
		_, produced, err := Divide(types.NewInteger(10), types.NewInteger(0))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if produced {
			t.Error("expected division by zero to yield no result")
		}
	})

	t.Run("integer divide", func(t *testing.T) {
		result, produced, err := IntegerDivide(types.NewInteger(10), types.NewInteger(3))
		if err != nil {
			t.Fatal(err)
		}
		if !produced {
			t.Fatal("expected a result")
		}
		if result.(types.Integer).Value() != 3 {
			t.Errorf("expected 3, got %v", result)
		}
	})

	t.Run("modulo", func(t *testing.T) {
		result, produced, err := Modulo(types.NewInteger(10), types.NewInteger(3))
		if err != nil {
			t.Fatal(err)
		}
		if !produced {
			t.Fatal("expected a result")
		}
		if result.(types.Integer).Value() != 1 {
			t.Errorf("expected 1, got %v", result)
		}
	})

	t.Run("negate", func(t *testing.T) {
		result, err := Negate(types.NewInteger(5))
		if err != nil {
			t.Fatal(err)
		}
		if result.(types.Integer).Value() != -5 {
			t.Errorf("expected -5, got %v", result)
		}
	})

	t.Run("comparison", func(t *testing.T) {
		result, err := LessThan(types.NewInteger(5), types.NewInteger(10))
		if err != nil {
			t.Fatal(err)
		}
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected 5 < 10 to be true")
		}

		result, err = GreaterThan(types.NewInteger(10), types.NewInteger(5))
		if err != nil {
			t.Fatal(err)
		}
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected 10 > 5 to be true")
		}
	})

	t.Run("equality", func(t *testing.T) {
		result := Equal(types.Of(types.NewInteger(5)), types.Of(types.NewInteger(5)))
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected 5 = 5 to be true")
		}

		result = NotEqual(types.Of(types.NewInteger(5)), types.Of(types.NewInteger(10)))
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected 5 != 10 to be true")
		}
	})

	t.Run("equality with empty propagates empty", func(t *testing.T) {
		result := Equal(types.Empty(), types.Of(types.NewInteger(5)))
		if !result.Empty() {
			t.Error("expected empty result")
		}
	})

	t.Run("equivalence treats empty=empty as true", func(t *testing.T) {
		result := Equivalent(types.Empty(), types.Empty())
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected empty ~ empty to be true")
		}
	})

	t.Run("boolean operators", func(t *testing.T) {
		result := And(types.Of(types.NewBoolean(true)), types.Of(types.NewBoolean(true)))
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected true and true to be true")
		}

		result = Or(types.Of(types.NewBoolean(false)), types.Of(types.NewBoolean(true)))
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected false or true to be true")
		}

		result = Xor(types.Of(types.NewBoolean(true)), types.Of(types.NewBoolean(false)))
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected true xor false to be true")
		}

		result = Implies(types.Of(types.NewBoolean(false)), types.Of(types.NewBoolean(false)))
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected false implies false to be true")
		}
	})

	t.Run("and: false dominates over empty", func(t *testing.T) {
		result := And(types.Of(types.NewBoolean(false)), types.Empty())
		if result.Items[0].(types.Boolean).Bool() {
			t.Error("expected false and {} to be false")
		}
	})

	t.Run("or: true dominates over empty", func(t *testing.T) {
		result := Or(types.Of(types.NewBoolean(true)), types.Empty())
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected true or {} to be true")
		}
	})

	t.Run("not", func(t *testing.T) {
		result := Not(types.Of(types.NewBoolean(true)))
		if result.Items[0].(types.Boolean).Bool() {
			t.Error("expected not true to be false")
		}
	})

	t.Run("concatenate treats empty as empty string", func(t *testing.T) {
		result := Concatenate(types.Empty(), types.Of(types.NewString("b")))
		if result.Items[0].(types.String).Value() != "b" {
			t.Errorf("expected 'b', got %v", result.Items[0])
		}
	})

	t.Run("collection operators", func(t *testing.T) {
		c1 := types.FromSlice([]types.Value{types.NewInteger(1), types.NewInteger(2)}, false)
		c2 := types.Of(types.NewInteger(3))

		result := Union(c1, c2)
		if result.Count() != 3 {
			t.Errorf("expected 3 elements, got %d", result.Count())
		}
	})

	t.Run("in and contains", func(t *testing.T) {
		col := types.FromSlice([]types.Value{types.NewInteger(1), types.NewInteger(2), types.NewInteger(3)}, false)

		result := In(types.Of(types.NewInteger(2)), col)
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected 2 in collection to be true")
		}

		result = Contains(col, types.Of(types.NewInteger(5)))
		if result.Items[0].(types.Boolean).Bool() {
			t.Error("expected collection to not contain 5")
		}
	})
}

// evalExpr parses and evaluates expr against resource using the real
// Evaluator, with an empty function registry (sufficient for literals,
// navigation, operators, and the inline filter-family functions, which the
// evaluator special-cases without consulting the registry).
func evalExpr(t *testing.T, resource string, expr string) (types.Collection, error) {
	t.Helper()
	tree, err := parser.Parse(expr)
	if err != nil {
		t.Fatalf("parse error for %q: %v", expr, err)
	}
	ctx := NewContext([]byte(resource))
	ev := NewEvaluator(ctx, emptyRegistry{})
	return ev.Evaluate(tree)
}

type emptyRegistry struct{}

func (emptyRegistry) Get(name string) (FuncDef, bool) { return FuncDef{}, false }

func TestEvaluateLiterals(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"true", "Boolean"},
		{"1", "Integer"},
		{"1.5", "Decimal"},
		{"'hello'", "String"},
		{"@2023-12-25", "Date"},
		{"@2023-12-25T10:00:00", "DateTime"},
		{"@T10:00:00", "Time"},
		{"5 'mg'", "Quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			result, err := evalExpr(t, `{}`, tt.expr)
			if err != nil {
				t.Fatal(err)
			}
			if result.Empty() {
				t.Fatal("expected non-empty result")
			}
			if types.Type(result.Items[0]) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, types.Type(result.Items[0]))
			}
		})
	}

	t.Run("empty literal", func(t *testing.T) {
		result, err := evalExpr(t, `{}`, "{}")
		if err != nil {
			t.Fatal(err)
		}
		if !result.Empty() {
			t.Error("expected empty result")
		}
	})
}

func TestEvaluateMemberNavigation(t *testing.T) {
	resource := `{"resourceType": "Patient", "name": [{"given": ["Jim"], "family": "Smith"}]}`

	t.Run("simple path", func(t *testing.T) {
		result, err := evalExpr(t, resource, "Patient.name.family")
		if err != nil {
			t.Fatal(err)
		}
		if result.Count() != 1 || result.Items[0].(types.String).Value() != "Smith" {
			t.Errorf("unexpected result: %v", result)
		}
	})

	t.Run("array flattening", func(t *testing.T) {
		result, err := evalExpr(t, resource, "Patient.name.given")
		if err != nil {
			t.Fatal(err)
		}
		if result.Count() != 1 || result.Items[0].(types.String).Value() != "Jim" {
			t.Errorf("unexpected result: %v", result)
		}
	})

	t.Run("missing member yields empty", func(t *testing.T) {
		result, err := evalExpr(t, resource, "Patient.nonexistent")
		if err != nil {
			t.Fatal(err)
		}
		if !result.Empty() {
			t.Error("expected empty result")
		}
	})
}

func TestEvaluateOperatorsEndToEnd(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"1 + 2 = 3", true},
		{"10 - 4 = 6", true},
		{"3 * 4 = 12", true},
		{"1 < 2", true},
		{"2 <= 2", true},
		{"5 > 3 and 2 < 4", true},
		{"5 > 3 or 1 > 2", true},
		{"true xor false", true},
		{"'a' & 'b' = 'ab'", true},
		{"(1 | 2 | 3).count() = 3", true},
		{"2 in (1 | 2 | 3)", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			result, err := evalExpr(t, `{}`, tt.expr)
			if err != nil {
				t.Fatal(err)
			}
			if result.Empty() {
				t.Fatal("expected non-empty result")
			}
			b, ok := result.Items[0].(types.Boolean)
			if !ok {
				t.Fatalf("expected Boolean, got %T", result.Items[0])
			}
			if b.Bool() != tt.want {
				t.Errorf("expected %v, got %v", tt.want, b.Bool())
			}
		})
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	result, err := evalExpr(t, `{}`, "5 / 0")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Empty() {
		t.Error("expected empty result for division by zero")
	}
}

func TestEvaluateIndexer(t *testing.T) {
	resource := `{"resourceType": "Patient", "name": [{"given": ["Jim", "Robert"]}]}`

	t.Run("in range", func(t *testing.T) {
		result, err := evalExpr(t, resource, "Patient.name.given[1]")
		if err != nil {
			t.Fatal(err)
		}
		if result.Count() != 1 || result.Items[0].(types.String).Value() != "Robert" {
			t.Errorf("unexpected result: %v", result)
		}
	})

	t.Run("out of range yields empty", func(t *testing.T) {
		result, err := evalExpr(t, resource, "Patient.name.given[9]")
		if err != nil {
			t.Fatal(err)
		}
		if !result.Empty() {
			t.Error("expected empty result")
		}
	})
}

func TestEvaluatePolarity(t *testing.T) {
	result, err := evalExpr(t, `{}`, "-5")
	if err != nil {
		t.Fatal(err)
	}
	if result.Items[0].(types.Integer).Value() != -5 {
		t.Errorf("expected -5, got %v", result.Items[0])
	}
}

func TestEvaluateWhereSelectFilterFamily(t *testing.T) {
	resource := `{"resourceType": "Patient", "name": [
		{"use": "official", "family": "Smith"},
		{"use": "nickname", "family": "Smitty"}
	]}`

	t.Run("where filters by criteria", func(t *testing.T) {
		result, err := evalExpr(t, resource, "Patient.name.where(use = 'official').family")
		if err != nil {
			t.Fatal(err)
		}
		if result.Count() != 1 || result.Items[0].(types.String).Value() != "Smith" {
			t.Errorf("unexpected result: %v", result)
		}
	})

	t.Run("select projects each item", func(t *testing.T) {
		result, err := evalExpr(t, resource, "Patient.name.select(family)")
		if err != nil {
			t.Fatal(err)
		}
		if result.Count() != 2 {
			t.Errorf("expected 2 elements, got %d", result.Count())
		}
	})

	t.Run("exists with criteria", func(t *testing.T) {
		result, err := evalExpr(t, resource, "Patient.name.exists(use = 'nickname')")
		if err != nil {
			t.Fatal(err)
		}
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected exists to be true")
		}
	})

	t.Run("all requires every item to match", func(t *testing.T) {
		result, err := evalExpr(t, resource, "Patient.name.all(family.exists())")
		if err != nil {
			t.Fatal(err)
		}
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected all() to be true")
		}
	})

	t.Run("all on empty input is vacuously true", func(t *testing.T) {
		result, err := evalExpr(t, `{"resourceType": "Patient"}`, "Patient.name.all(use = 'official')")
		if err != nil {
			t.Fatal(err)
		}
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected all() over empty to be true")
		}
	})

	t.Run("iif chooses a branch", func(t *testing.T) {
		result, err := evalExpr(t, `{}`, "iif(true, 'yes', 'no')")
		if err != nil {
			t.Fatal(err)
		}
		if result.Items[0].(types.String).Value() != "yes" {
			t.Errorf("expected 'yes', got %v", result.Items[0])
		}

		result, err = evalExpr(t, `{}`, "iif(false, 'yes', 'no')")
		if err != nil {
			t.Fatal(err)
		}
		if result.Items[0].(types.String).Value() != "no" {
			t.Errorf("expected 'no', got %v", result.Items[0])
		}
	})
}

func TestEvaluateRepeat(t *testing.T) {
	resource := `{
		"resourceType": "Questionnaire",
		"item": [
			{"linkId": "1", "item": [{"linkId": "1.1"}]}
		]
	}`

	result, err := evalExpr(t, resource, "Questionnaire.repeat(item).linkId")
	if err != nil {
		t.Fatal(err)
	}
	if result.Count() != 2 {
		t.Errorf("expected 2 linkIds, got %d: %v", result.Count(), result)
	}
}

func TestEvaluateAggregate(t *testing.T) {
	resource := `{"resourceType": "Observation", "value": [1, 2, 3, 4]}`

	result, err := evalExpr(t, resource, "Observation.value.aggregate($this + $total, 0)")
	if err != nil {
		t.Fatal(err)
	}
	if result.Count() != 1 || result.Items[0].(types.Integer).Value() != 10 {
		t.Errorf("expected 10, got %v", result)
	}
}

func TestEvaluateOfTypeAndIsAs(t *testing.T) {
	resource := `{
		"resourceType": "Bundle",
		"entry": [
			{"resource": {"resourceType": "Patient", "id": "p1"}},
			{"resource": {"resourceType": "Observation", "id": "o1"}}
		]
	}`

	t.Run("ofType filters by resource type", func(t *testing.T) {
		result, err := evalExpr(t, resource, "Bundle.entry.resource.ofType(Patient).id")
		if err != nil {
			t.Fatal(err)
		}
		if result.Count() != 1 || result.Items[0].(types.String).Value() != "p1" {
			t.Errorf("unexpected result: %v", result)
		}
	})

	t.Run("is checks runtime type", func(t *testing.T) {
		result, err := evalExpr(t, `{}`, "5 is Integer")
		if err != nil {
			t.Fatal(err)
		}
		if !result.Items[0].(types.Boolean).Bool() {
			t.Error("expected 5 is Integer to be true")
		}
	})

	t.Run("as returns input only on type match", func(t *testing.T) {
		result, err := evalExpr(t, `{}`, "5 as Integer")
		if err != nil {
			t.Fatal(err)
		}
		if result.Empty() {
			t.Error("expected non-empty result")
		}

		result, err = evalExpr(t, `{}`, "'hello' as Integer")
		if err != nil {
			t.Fatal(err)
		}
		if !result.Empty() {
			t.Error("expected empty result for a mismatched type")
		}
	})
}

func TestEvaluateSingletonErrors(t *testing.T) {
	t.Run("comparison over a multi-item operand errors", func(t *testing.T) {
		_, err := evalExpr(t, `{"resourceType": "Patient", "name": [{"family": "A"}, {"family": "B"}]}`,
			"Patient.name.family > 'A'")
		evalErr, ok := err.(*EvalError)
		if !ok || evalErr.Type != ErrSingleton {
			t.Errorf("expected singleton error, got %v", err)
		}
	})
}

func TestEvaluateUnknownVariable(t *testing.T) {
	_, err := evalExpr(t, `{}`, "%undefinedVar")
	evalErr, ok := err.(*EvalError)
	if !ok || evalErr.Type != ErrSemantic {
		t.Errorf("expected semantic error, got %v", err)
	}
}

func TestEvaluateUnknownFunction(t *testing.T) {
	_, err := evalExpr(t, `{}`, "5.bogusFunction()")
	evalErr, ok := err.(*EvalError)
	if !ok || evalErr.Type != ErrSemantic {
		t.Errorf("expected semantic error, got %v", err)
	}
}

func TestEvaluateCollectionSizeLimit(t *testing.T) {
	tree, err := parser.Parse("Observation.value.where(true)")
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext([]byte(`{"resourceType": "Observation", "value": [1, 2, 3]}`))
	ctx.SetLimit("maxCollectionSize", 2)
	ev := NewEvaluator(ctx, emptyRegistry{})

	_, err = ev.Evaluate(tree)
	evalErr, ok := err.(*EvalError)
	if !ok || evalErr.Type != ErrLimitExceeded {
		t.Errorf("expected limit exceeded error, got %v", err)
	}
}

func TestEvaluateCancellation(t *testing.T) {
	tree, err := parser.Parse("Observation.value.where(true)")
	if err != nil {
		t.Fatal(err)
	}

	values := make([]string, 250)
	for i := range values {
		values[i] = strconv.Itoa(i)
	}
	resource := []byte(`{"resourceType": "Observation", "value": [` + strings.Join(values, ",") + `]}`)

	ctx := NewContext(resource)
	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx.SetContext(cancelCtx)
	ev := NewEvaluator(ctx, emptyRegistry{})

	_, err = ev.Evaluate(tree)
	evalErr, ok := err.(*EvalError)
	if !ok || evalErr.Type != ErrCancelled {
		t.Errorf("expected cancelled error, got %v", err)
	}
}

func TestTypeHelpers(t *testing.T) {
	t.Run("IsDomainResource", func(t *testing.T) {
		if !IsDomainResource("Patient") {
			t.Error("expected Patient to be a DomainResource")
		}
		if IsDomainResource("Bundle") {
			t.Error("expected Bundle to not be a DomainResource")
		}
	})

	t.Run("IsSubtypeOf", func(t *testing.T) {
		if !IsSubtypeOf("Patient", "Patient") {
			t.Error("expected a type to be a subtype of itself")
		}
		if !IsSubtypeOf("Patient", "DomainResource") {
			t.Error("expected Patient to be a subtype of DomainResource")
		}
		if !IsSubtypeOf("Patient", "Resource") {
			t.Error("expected Patient to be a subtype of Resource")
		}
		if IsSubtypeOf("Patient", "Observation") {
			t.Error("expected Patient to not be a subtype of Observation")
		}
	})

	t.Run("TypeMatches is case-insensitive and handles FHIR aliases", func(t *testing.T) {
		if !TypeMatches(types.TypeInfo{Namespace: "System", Name: "String"}, ast.QualifiedIdentifier{Name: "string"}) {
			t.Error("expected case-insensitive match")
		}
		if !TypeMatches(types.TypeInfo{Namespace: "FHIR", Name: "Patient"}, ast.QualifiedIdentifier{Name: "Patient"}) {
			t.Error("expected exact match")
		}
	})
}
