// Package eval provides the FHIRPath expression evaluator.
package eval

import (
	"context"
	"strconv"
	"strings"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/ast"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

// maxRepeatIterations caps repeat()'s breadth-first expansion so a
// self-referencing projection (e.g. repeat(item.parent) over a cyclic
// reference graph) cannot loop forever.
const maxRepeatIterations = 10000

// FuncImpl is the signature for function implementations.
type FuncImpl func(ctx *Context, input types.Collection, args []interface{}) (types.Collection, error)

// FuncDef defines a FHIRPath function.
type FuncDef struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      FuncImpl
}

// FuncRegistry is an interface for function lookup.
type FuncRegistry interface {
	Get(name string) (FuncDef, bool)
}

// Resolver handles FHIR reference resolution.
type Resolver interface {
	Resolve(ctx context.Context, reference string) ([]byte, error)
}

// Evaluator walks an AST, threading a Context through member navigation,
// function dispatch, and operator evaluation.
type Evaluator struct {
	ctx   *Context
	funcs FuncRegistry
}

// Context holds the evaluation state.
type Context struct {
	root      types.Collection
	this      types.Collection
	index     int
	total     types.Value
	variables map[string]types.Collection
	limits    map[string]int
	goCtx     context.Context
	resolver  Resolver
	traceSink TraceSink
	ordered   bool
}

// NewContext creates a new evaluation context.
// Automatically sets %resource and %context to the root resource for FHIR constraint evaluation.
// Per FHIRPath spec:
//   - %resource: the root resource being evaluated
//   - %context: the original node passed to the evaluation engine (same as %resource for top-level evaluation)
func NewContext(resource []byte) *Context {
	root, _ := types.JSONToCollection(resource)

	variables := make(map[string]types.Collection)
	variables["resource"] = root
	variables["context"] = root

	return &Context{
		root:      root,
		this:      root,
		variables: variables,
		limits:    make(map[string]int),
		goCtx:     context.Background(),
	}
}

// SetLimit sets a limit value (e.g., maxCollectionSize).
func (c *Context) SetLimit(name string, value int) {
	if c.limits == nil {
		c.limits = make(map[string]int)
	}
	c.limits[name] = value
}

// GetLimit gets a limit value.
func (c *Context) GetLimit(name string) int {
	if c.limits == nil {
		return 0
	}
	return c.limits[name]
}

// SetContext sets the Go context for cancellation.
func (c *Context) SetContext(ctx context.Context) {
	c.goCtx = ctx
}

// Context returns the Go context.
func (c *Context) Context() context.Context {
	if c.goCtx == nil {
		return context.Background()
	}
	return c.goCtx
}

// SetResolver sets the reference resolver.
func (c *Context) SetResolver(r Resolver) {
	c.resolver = r
}

// GetResolver returns the reference resolver.
func (c *Context) GetResolver() Resolver {
	return c.resolver
}

// SetTraceSink sets the destination for trace() calls made while evaluating
// with this context. A nil sink leaves trace() to whatever default the
// calling function chooses.
func (c *Context) SetTraceSink(sink TraceSink) {
	c.traceSink = sink
}

// TraceSink returns the context's trace destination, or nil if none was set.
func (c *Context) TraceSink() TraceSink {
	return c.traceSink
}

// SetOrderedPolicy enables strict ordering checks: order-dependent
// operations (first(), last(), indexing) return an UnorderedOperationError
// instead of silently picking an arbitrary element when applied to a
// collection whose order is undefined (Collection.Unordered).
func (c *Context) SetOrderedPolicy(strict bool) {
	c.ordered = strict
}

// OrderedPolicy reports whether strict ordering checks are enabled.
func (c *Context) OrderedPolicy() bool {
	return c.ordered
}

// CheckCancellation checks if the context has been canceled.
func (c *Context) CheckCancellation() error {
	if c.goCtx == nil {
		return nil
	}
	select {
	case <-c.goCtx.Done():
		return CancelledError().WithUnderlying(c.goCtx.Err())
	default:
		return nil
	}
}

// CheckCollectionSize validates that a collection doesn't exceed the maximum size.
func (c *Context) CheckCollectionSize(col types.Collection) error {
	maxSize := c.GetLimit("maxCollectionSize")
	if maxSize > 0 && col.Count() > maxSize {
		return LimitExceededError("collection size " + strconv.Itoa(col.Count()) + " exceeds maximum allowed " + strconv.Itoa(maxSize))
	}
	return nil
}

// EnforceCollectionLimit truncates a collection if it exceeds the maximum size.
// Returns the (possibly truncated) collection and whether truncation occurred.
func (c *Context) EnforceCollectionLimit(col types.Collection) (types.Collection, bool) {
	maxSize := c.GetLimit("maxCollectionSize")
	if maxSize > 0 && col.Count() > maxSize {
		return types.FromSlice(col.Items[:maxSize], col.Unordered), true
	}
	return col, false
}

// Root returns the root collection.
func (c *Context) Root() types.Collection {
	return c.root
}

// This returns the current $this value.
func (c *Context) This() types.Collection {
	return c.this
}

// WithThis returns a new context with the given $this value.
func (c *Context) WithThis(this types.Collection) *Context {
	newCtx := *c
	newCtx.this = this
	return &newCtx
}

// WithIndex returns a new context with the given $index value.
func (c *Context) WithIndex(index int) *Context {
	newCtx := *c
	newCtx.index = index
	return &newCtx
}

// SetVariable sets an external variable.
func (c *Context) SetVariable(name string, value types.Collection) {
	c.variables[name] = value
}

// GetVariable gets an external variable.
func (c *Context) GetVariable(name string) (types.Collection, bool) {
	v, ok := c.variables[name]
	return v, ok
}

// NewEvaluator creates a new evaluator with the given context and function registry.
func NewEvaluator(ctx *Context, funcs FuncRegistry) *Evaluator {
	return &Evaluator{ctx: ctx, funcs: funcs}
}

// Evaluate evaluates an AST and returns the result collection.
func (e *Evaluator) Evaluate(tree ast.Node) (types.Collection, error) {
	return e.eval(tree)
}

// eval dispatches on the concrete AST node type. It is the single
// replacement for what used to be a generated-visitor Accept/Visit pair:
// the AST carries its own shape, so a type switch is all dispatch needs.
func (e *Evaluator) eval(node ast.Node) (types.Collection, error) {
	if node == nil {
		return types.Empty(), nil
	}

	switch n := node.(type) {
	case *ast.Literal:
		return e.evalLiteral(n)
	case *ast.ExternalConstant:
		if v, ok := e.ctx.GetVariable(n.Name); ok {
			return v, nil
		}
		return types.Empty(), UnknownVariableError(n.Name)
	case *ast.InvocationTerm:
		return e.evalInvocation(n.Invocation, e.ctx.This())
	case *ast.InvocationExpr:
		base, err := e.eval(n.Base)
		if err != nil {
			return types.Empty(), err
		}
		return e.evalInvocation(n.Call, base)
	case *ast.Indexer:
		return e.evalIndexer(n)
	case *ast.Polarity:
		return e.evalPolarity(n)
	case *ast.Binary:
		return e.evalBinary(n)
	case *ast.Type:
		return e.evalType(n)
	case *ast.Paren:
		return e.eval(n.Inner)
	}
	return types.Empty(), InternalError("unhandled AST node: " + node.String())
}

func (e *Evaluator) evalLiteral(n *ast.Literal) (types.Collection, error) {
	switch n.Kind {
	case ast.LiteralEmpty:
		return types.Empty(), nil
	case ast.LiteralBoolean:
		return types.Of(types.NewBoolean(n.Text == "true")), nil
	case ast.LiteralString:
		return types.Of(types.NewString(n.Text)), nil
	case ast.LiteralInteger:
		i, err := strconv.ParseInt(n.Text, 10, 64)
		if err != nil {
			return types.Empty(), ParseError(n.Line, n.Column, "invalid integer literal: "+n.Text)
		}
		return types.Of(types.NewInteger(i)), nil
	case ast.LiteralLong:
		l, err := strconv.ParseInt(n.Text, 10, 64)
		if err != nil {
			return types.Empty(), ParseError(n.Line, n.Column, "invalid long literal: "+n.Text)
		}
		return types.Of(types.NewLong(l)), nil
	case ast.LiteralDecimal:
		d, err := types.NewDecimal(n.Text)
		if err != nil {
			return types.Empty(), ParseError(n.Line, n.Column, "invalid decimal literal: "+n.Text)
		}
		return types.Of(d), nil
	case ast.LiteralDate:
		d, err := types.NewDate(n.Text)
		if err != nil {
			return types.Empty(), ParseError(n.Line, n.Column, "invalid date literal: "+n.Text)
		}
		return types.Of(d), nil
	case ast.LiteralDateTime:
		dt, err := types.NewDateTime(n.Text)
		if err != nil {
			return types.Empty(), ParseError(n.Line, n.Column, "invalid datetime literal: "+n.Text)
		}
		return types.Of(dt), nil
	case ast.LiteralTime:
		t, err := types.NewTime(n.Text)
		if err != nil {
			return types.Empty(), ParseError(n.Line, n.Column, "invalid time literal: "+n.Text)
		}
		return types.Of(t), nil
	case ast.LiteralQuantity:
		d, err := types.NewDecimal(n.Text)
		if err != nil {
			return types.Empty(), ParseError(n.Line, n.Column, "invalid quantity literal: "+n.Text)
		}
		q := types.NewQuantityFromDecimal(d.Value(), types.CanonicalizeUnit(n.Unit))
		return types.Of(q), nil
	}
	return types.Empty(), InternalError("unhandled literal kind")
}

// evalInvocation resolves one of the five invocation forms against input,
// which is either $this (for a root InvocationTerm) or the evaluated base
// of a dotted path (for an InvocationExpr continuation).
func (e *Evaluator) evalInvocation(inv ast.Invocation, input types.Collection) (types.Collection, error) {
	switch iv := inv.(type) {
	case *ast.ThisInvocation:
		return e.ctx.This(), nil
	case *ast.IndexInvocation:
		return types.Of(types.NewInteger(int64(e.ctx.index))), nil
	case *ast.TotalInvocation:
		if e.ctx.total != nil {
			return types.Of(e.ctx.total), nil
		}
		return types.Empty(), nil
	case *ast.MemberInvocation:
		return e.navigateMember(input, iv.Name), nil
	case *ast.FunctionInvocation:
		return e.evalFunction(iv, input)
	}
	return types.Empty(), InternalError("unhandled invocation: " + inv.String())
}

// navigateMember resolves a member name against every object in input.
// Choice-type (value[x]) resolution already happens inside
// ObjectValue.GetCollection, so this only needs to special-case the
// resourceType-as-member-name idiom ("Patient.where(...)" navigating via
// Bundle.entry.resource.ofType(Patient) style filters).
func (e *Evaluator) navigateMember(input types.Collection, name string) types.Collection {
	items := make([]types.Value, 0, input.Count())
	unordered := input.Unordered

	for _, item := range input.Items {
		obj, ok := item.(*types.ObjectValue)
		if !ok {
			continue
		}

		if IsSubtypeOf(obj.TypeInfo().Name, name) {
			items = append(items, obj)
			continue
		}

		children := obj.GetCollection(name)
		if !children.Empty() {
			items = append(items, children.Items...)
			unordered = unordered || children.Unordered
		}
	}

	return types.FromSlice(items, unordered)
}

// evalFunction dispatches a function call. Filter-family functions
// (where, select, all, exists, repeat, aggregate, iif, ofType) need their
// argument ASTs unevaluated so they can rebind $this/$index/$total per
// element, and are dispatched inline even when the registry lacks them;
// every other function gets its arguments pre-evaluated to collections.
func (e *Evaluator) evalFunction(fn *ast.FunctionInvocation, input types.Collection) (types.Collection, error) {
	def, ok := e.funcs.Get(fn.Name)

	argCount := len(fn.Args)
	if ok && argCount < def.MinArgs {
		return types.Empty(), ArityError(fn.Name, def.MinArgs, argCount)
	}
	if ok && def.MaxArgs >= 0 && argCount > def.MaxArgs {
		return types.Empty(), ArityError(fn.Name, def.MaxArgs, argCount)
	}

	switch fn.Name {
	case "where":
		if argCount > 0 {
			return e.evalWhere(input, fn.Args[0])
		}
	case "exists":
		if argCount > 0 {
			return e.evalExists(input, fn.Args[0])
		}
	case "all":
		if argCount > 0 {
			return e.evalAll(input, fn.Args[0])
		}
	case "select":
		if argCount > 0 {
			return e.evalSelect(input, fn.Args[0])
		}
	case "repeat":
		if argCount > 0 {
			return e.evalRepeat(input, fn.Args[0])
		}
	case "aggregate":
		if argCount > 0 {
			return e.evalAggregate(input, fn.Args)
		}
	case "iif":
		if argCount >= 2 {
			return e.evalIif(fn.Args)
		}
	case "ofType":
		if argCount > 0 {
			return e.evalOfType(input, fn.Args[0])
		}
	}

	if !ok {
		return types.Empty(), UnknownFunctionError(fn.Name)
	}

	args := make([]interface{}, argCount)
	for i, argExpr := range fn.Args {
		col, err := e.eval(argExpr)
		if err != nil {
			return types.Empty(), err
		}
		args[i] = col
	}

	return def.Fn(e.ctx, input, args)
}

// withItem evaluates fn with $this and $index rebound to item/index,
// restoring the previous binding on return.
func (e *Evaluator) withItem(item types.Value, index int, fn func() (types.Collection, error)) (types.Collection, error) {
	oldThis, oldIndex := e.ctx.this, e.ctx.index
	e.ctx.this = types.Of(item)
	e.ctx.index = index
	defer func() {
		e.ctx.this = oldThis
		e.ctx.index = oldIndex
	}()
	return fn()
}

func boolSingleton(c types.Collection) (bool, bool) {
	if c.Count() != 1 {
		return false, false
	}
	b, ok := c.Items[0].(types.Boolean)
	if !ok {
		return false, false
	}
	return b.Bool(), true
}

func (e *Evaluator) evalWhere(input types.Collection, criteria ast.Node) (types.Collection, error) {
	if err := e.ctx.CheckCollectionSize(input); err != nil {
		return types.Empty(), err
	}

	items := make([]types.Value, 0, input.Count())
	for i, item := range input.Items {
		if i%100 == 0 {
			if err := e.ctx.CheckCancellation(); err != nil {
				return types.Empty(), err
			}
		}
		result, err := e.withItem(item, i, func() (types.Collection, error) { return e.eval(criteria) })
		if err != nil {
			return types.Empty(), err
		}
		if match, ok := boolSingleton(result); ok && match {
			items = append(items, item)
		}
	}
	return types.FromSlice(items, input.Unordered), nil
}

func (e *Evaluator) evalExists(input types.Collection, criteria ast.Node) (types.Collection, error) {
	for i, item := range input.Items {
		if i%100 == 0 {
			if err := e.ctx.CheckCancellation(); err != nil {
				return types.Empty(), err
			}
		}
		result, err := e.withItem(item, i, func() (types.Collection, error) { return e.eval(criteria) })
		if err != nil {
			return types.Empty(), err
		}
		if match, ok := boolSingleton(result); ok && match {
			return types.Of(types.NewBoolean(true)), nil
		}
	}
	return types.Of(types.NewBoolean(false)), nil
}

func (e *Evaluator) evalAll(input types.Collection, criteria ast.Node) (types.Collection, error) {
	if input.Empty() {
		return types.Of(types.NewBoolean(true)), nil
	}
	for i, item := range input.Items {
		if i%100 == 0 {
			if err := e.ctx.CheckCancellation(); err != nil {
				return types.Empty(), err
			}
		}
		result, err := e.withItem(item, i, func() (types.Collection, error) { return e.eval(criteria) })
		if err != nil {
			return types.Empty(), err
		}
		if match, ok := boolSingleton(result); !ok || !match {
			return types.Of(types.NewBoolean(false)), nil
		}
	}
	return types.Of(types.NewBoolean(true)), nil
}

func (e *Evaluator) evalSelect(input types.Collection, projection ast.Node) (types.Collection, error) {
	if err := e.ctx.CheckCollectionSize(input); err != nil {
		return types.Empty(), err
	}

	items := make([]types.Value, 0, input.Count())
	unordered := input.Unordered
	for i, item := range input.Items {
		if i%100 == 0 {
			if err := e.ctx.CheckCancellation(); err != nil {
				return types.Empty(), err
			}
		}
		proj, err := e.withItem(item, i, func() (types.Collection, error) { return e.eval(projection) })
		if err != nil {
			return types.Empty(), err
		}
		items = append(items, proj.Items...)
		unordered = unordered || proj.Unordered
		if err := e.ctx.CheckCollectionSize(types.FromSlice(items, unordered)); err != nil {
			return types.Empty(), err
		}
	}
	return types.FromSlice(items, unordered), nil
}

// evalRepeat evaluates repeat(projection): repeatedly applies projection to
// the frontier of newly discovered items until no new item is produced,
// deduping by rendered value so cyclic references (e.g. a resource graph
// with back-references) terminate instead of looping forever.
func (e *Evaluator) evalRepeat(input types.Collection, projection ast.Node) (types.Collection, error) {
	seen := make(map[string]bool, input.Count())
	resultItems := make([]types.Value, 0, input.Count())
	frontier := input
	iterations := 0

	for !frontier.Empty() {
		var next []types.Value
		for i, item := range frontier.Items {
			iterations++
			if iterations > maxRepeatIterations {
				return types.Empty(), LimitExceededError("repeat() exceeded the maximum iteration count")
			}
			if i%100 == 0 {
				if err := e.ctx.CheckCancellation(); err != nil {
					return types.Empty(), err
				}
			}
			proj, err := e.withItem(item, i, func() (types.Collection, error) { return e.eval(projection) })
			if err != nil {
				return types.Empty(), err
			}
			for _, v := range proj.Items {
				key := v.TypeInfo().String() + "|" + v.String()
				if seen[key] {
					continue
				}
				seen[key] = true
				resultItems = append(resultItems, v)
				next = append(next, v)
			}
		}
		frontier = types.FromSlice(next, false)
	}

	return types.FromSlice(resultItems, false), nil
}

// evalAggregate evaluates aggregate(aggregator [, init]): aggregator is
// evaluated once per item with $this/$index/$total rebound, threading the
// running total through $total.
func (e *Evaluator) evalAggregate(input types.Collection, args []ast.Node) (types.Collection, error) {
	total := types.Empty()
	if len(args) > 1 {
		init, err := e.eval(args[1])
		if err != nil {
			return types.Empty(), err
		}
		total = init
	}

	for i, item := range input.Items {
		if i%100 == 0 {
			if err := e.ctx.CheckCancellation(); err != nil {
				return types.Empty(), err
			}
		}

		oldThis, oldIndex, oldTotal := e.ctx.this, e.ctx.index, e.ctx.total
		e.ctx.this = types.Of(item)
		e.ctx.index = i
		if v, ok := total.First(); ok {
			e.ctx.total = v
		} else {
			e.ctx.total = nil
		}

		result, err := e.eval(args[0])

		e.ctx.this, e.ctx.index, e.ctx.total = oldThis, oldIndex, oldTotal

		if err != nil {
			return types.Empty(), err
		}
		total = result
	}

	return total, nil
}

func (e *Evaluator) evalIif(args []ast.Node) (types.Collection, error) {
	criterion, err := e.eval(args[0])
	if err != nil {
		return types.Empty(), err
	}
	match, _ := boolSingleton(criterion)
	if match {
		return e.eval(args[1])
	}
	if len(args) > 2 {
		return e.eval(args[2])
	}
	return types.Empty(), nil
}

// extractTypeSpecifier reads a type name out of an expression AST used as a
// function argument, e.g. the "Patient" in ofType(Patient) or the
// "FHIR.Patient" in ofType(FHIR.Patient). Only bare member-invocation chains
// qualify; anything else isn't a valid type specifier.
func extractTypeSpecifier(node ast.Node) (ast.QualifiedIdentifier, bool) {
	switch n := node.(type) {
	case *ast.InvocationTerm:
		if m, ok := n.Invocation.(*ast.MemberInvocation); ok {
			return ast.QualifiedIdentifier{Name: m.Name}, true
		}
	case *ast.InvocationExpr:
		m, ok := n.Call.(*ast.MemberInvocation)
		if !ok {
			return ast.QualifiedIdentifier{}, false
		}
		base, ok := extractTypeSpecifier(n.Base)
		if !ok {
			return ast.QualifiedIdentifier{}, false
		}
		return ast.QualifiedIdentifier{Namespace: base.Name, Name: m.Name}, true
	}
	return ast.QualifiedIdentifier{}, false
}

func (e *Evaluator) evalOfType(input types.Collection, typeExpr ast.Node) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}
	spec, ok := extractTypeSpecifier(typeExpr)
	if !ok {
		return types.Empty(), NewEvalError(ErrSemantic, "ofType() expects a type specifier argument")
	}

	items := make([]types.Value, 0, input.Count())
	for _, item := range input.Items {
		if TypeMatches(item.TypeInfo(), spec) {
			items = append(items, item)
		}
	}
	return types.FromSlice(items, input.Unordered), nil
}

// evalType evaluates the "is"/"as" operator form.
func (e *Evaluator) evalType(n *ast.Type) (types.Collection, error) {
	lhs, err := e.eval(n.LHS)
	if err != nil {
		return types.Empty(), err
	}
	if lhs.Empty() {
		return types.Empty(), nil
	}
	if lhs.Count() != 1 {
		return types.Empty(), SingletonError(lhs.Count())
	}
	v := lhs.Items[0]
	matches := TypeMatches(v.TypeInfo(), n.Spec)

	switch n.Op {
	case ast.TypeIs:
		return types.Of(types.NewBoolean(matches)), nil
	case ast.TypeAs:
		if matches {
			return lhs, nil
		}
		return types.Empty(), nil
	}
	return types.Empty(), nil
}

func (e *Evaluator) evalIndexer(n *ast.Indexer) (types.Collection, error) {
	base, err := e.eval(n.Base)
	if err != nil {
		return types.Empty(), err
	}
	if e.ctx.OrderedPolicy() && base.Unordered && base.Count() > 1 {
		return types.Empty(), UnorderedOperationError("[]")
	}
	idxCol, err := e.eval(n.Index)
	if err != nil {
		return types.Empty(), err
	}
	idxVal, ok := idxCol.First()
	if !ok {
		return types.Empty(), nil
	}
	idx, ok := idxVal.(types.Integer)
	if !ok {
		return types.Empty(), TypeError("Integer", types.Type(idxVal), "indexer")
	}
	i := int(idx.Value())
	if i < 0 || i >= base.Count() {
		return types.Empty(), nil
	}
	return types.Of(base.Items[i]), nil
}

func (e *Evaluator) evalPolarity(n *ast.Polarity) (types.Collection, error) {
	col, err := e.eval(n.Inner)
	if err != nil {
		return types.Empty(), err
	}
	if col.Empty() {
		return col, nil
	}
	if col.Count() != 1 {
		return types.Empty(), SingletonError(col.Count())
	}
	if n.Op == "-" {
		negated, err := Negate(col.Items[0])
		if err != nil {
			return types.Empty(), err
		}
		return types.Of(negated), nil
	}
	return col, nil
}

func (e *Evaluator) singleton(col types.Collection) (types.Value, bool, error) {
	if col.Empty() {
		return nil, false, nil
	}
	if col.Count() != 1 {
		return nil, false, SingletonError(col.Count())
	}
	v, _ := col.First()
	return v, true, nil
}

func (e *Evaluator) evalBinary(n *ast.Binary) (types.Collection, error) {
	left, err := e.eval(n.LHS)
	if err != nil {
		return types.Empty(), err
	}
	right, err := e.eval(n.RHS)
	if err != nil {
		return types.Empty(), err
	}

	switch n.Op {
	case ast.OpAnd:
		return And(left, right), nil
	case ast.OpOr:
		return Or(left, right), nil
	case ast.OpXor:
		return Xor(left, right), nil
	case ast.OpImplies:
		return Implies(left, right), nil
	case ast.OpIn:
		return In(left, right), nil
	case ast.OpContains:
		return Contains(left, right), nil
	case ast.OpEqual:
		return Equal(left, right), nil
	case ast.OpNotEqual:
		return NotEqual(left, right), nil
	case ast.OpEquivalent:
		return Equivalent(left, right), nil
	case ast.OpNotEquivalent:
		return NotEquivalent(left, right), nil
	case ast.OpUnion:
		return Union(left, right), nil
	case ast.OpConcat:
		return Concatenate(left, right), nil
	case ast.OpLess, ast.OpLessEqual, ast.OpGreater, ast.OpGreaterEqual:
		return e.evalComparison(n.Op, left, right)
	case ast.OpAdd, ast.OpSub, ast.OpMul:
		return e.evalArithmetic(n.Op, left, right)
	case ast.OpDiv, ast.OpIntDiv, ast.OpMod:
		return e.evalDivision(n.Op, left, right)
	}
	return types.Empty(), InternalError("unhandled binary operator: " + string(n.Op))
}

func (e *Evaluator) evalComparison(op ast.BinaryOp, left, right types.Collection) (types.Collection, error) {
	lv, lok, err := e.singleton(left)
	if err != nil {
		return types.Empty(), err
	}
	rv, rok, err := e.singleton(right)
	if err != nil {
		return types.Empty(), err
	}
	if !lok || !rok {
		return types.Empty(), nil
	}

	switch op {
	case ast.OpLess:
		return LessThan(lv, rv)
	case ast.OpLessEqual:
		return LessOrEqual(lv, rv)
	case ast.OpGreater:
		return GreaterThan(lv, rv)
	case ast.OpGreaterEqual:
		return GreaterOrEqual(lv, rv)
	}
	return types.Empty(), nil
}

func (e *Evaluator) evalArithmetic(op ast.BinaryOp, left, right types.Collection) (types.Collection, error) {
	lv, lok, err := e.singleton(left)
	if err != nil {
		return types.Empty(), err
	}
	rv, rok, err := e.singleton(right)
	if err != nil {
		return types.Empty(), err
	}
	if !lok || !rok {
		return types.Empty(), nil
	}

	var result types.Value
	switch op {
	case ast.OpAdd:
		result, err = Add(lv, rv)
	case ast.OpSub:
		result, err = Subtract(lv, rv)
	case ast.OpMul:
		result, err = Multiply(lv, rv)
	}
	if err != nil {
		return types.Empty(), err
	}
	return types.Of(result), nil
}

func (e *Evaluator) evalDivision(op ast.BinaryOp, left, right types.Collection) (types.Collection, error) {
	lv, lok, err := e.singleton(left)
	if err != nil {
		return types.Empty(), err
	}
	rv, rok, err := e.singleton(right)
	if err != nil {
		return types.Empty(), err
	}
	if !lok || !rok {
		return types.Empty(), nil
	}

	var result types.Value
	var produced bool
	switch op {
	case ast.OpDiv:
		result, produced, err = Divide(lv, rv)
	case ast.OpIntDiv:
		result, produced, err = IntegerDivide(lv, rv)
	case ast.OpMod:
		result, produced, err = Modulo(lv, rv)
	}
	if err != nil {
		return types.Empty(), err
	}
	if !produced {
		return types.Empty(), nil
	}
	return types.Of(result), nil
}

// FHIR type hierarchy helpers, used by navigateMember (resourceType-as-path
// idiom) and by is/as/ofType.

// nonDomainResources inherit directly from Resource, not DomainResource.
var nonDomainResources = map[string]bool{
	"Bundle":     true,
	"Binary":     true,
	"Parameters": true,
}

// IsDomainResource reports whether resourceType inherits from
// DomainResource (every resource does, except Bundle/Binary/Parameters).
func IsDomainResource(resourceType string) bool {
	return !nonDomainResources[resourceType]
}

// IsSubtypeOf reports whether actualType is baseType or inherits from it,
// handling the FHIR Resource/DomainResource base types.
func IsSubtypeOf(actualType, baseType string) bool {
	if strings.EqualFold(actualType, baseType) {
		return true
	}
	if strings.EqualFold(baseType, "Resource") {
		return isPossibleResourceType(actualType)
	}
	if strings.EqualFold(baseType, "DomainResource") {
		return isPossibleResourceType(actualType) && IsDomainResource(actualType)
	}
	return false
}

func isPossibleResourceType(typeName string) bool {
	if typeName == "" {
		return false
	}
	primitiveTypes := map[string]bool{
		"Boolean": true, "String": true, "Integer": true, "Long": true, "Decimal": true,
		"Date": true, "DateTime": true, "Time": true, "Quantity": true, "Object": true,
	}
	if primitiveTypes[typeName] {
		return false
	}
	return typeName[0] >= 'A' && typeName[0] <= 'Z'
}

// fhirToFHIRPath maps lowercase FHIR primitive type names to the FHIRPath
// type name they evaluate as.
var fhirToFHIRPath = map[string]string{
	"boolean": "Boolean", "string": "String", "integer": "Integer",
	"decimal": "Decimal", "date": "Date", "datetime": "DateTime", "time": "Time",
	"instant": "DateTime", "uri": "String", "url": "String", "canonical": "String",
	"base64binary": "String", "code": "String", "id": "String", "markdown": "String",
	"oid": "String", "uuid": "String", "positiveint": "Integer", "unsignedint": "Integer",
	"integer64": "Long", "quantity": "Quantity", "simplequantity": "Quantity",
	"age": "Quantity", "count": "Quantity", "distance": "Quantity",
	"duration": "Quantity", "money": "Quantity",
}

// TypeMatches reports whether actual (a value's namespaced type) satisfies
// the requested type specifier, handling case-insensitive names, the FHIR
// Resource/DomainResource hierarchy, and FHIR-primitive-to-FHIRPath-type
// aliasing. Namespace on spec is advisory: FHIRPath tooling is lenient
// about System vs FHIR for primitives since both describe the same value.
func TypeMatches(actual types.TypeInfo, spec ast.QualifiedIdentifier) bool {
	if strings.EqualFold(actual.Name, spec.Name) {
		return true
	}
	if IsSubtypeOf(actual.Name, spec.Name) {
		return true
	}

	actualLower := strings.ToLower(actual.Name)
	wantLower := strings.ToLower(spec.Name)

	if mapped, ok := fhirToFHIRPath[wantLower]; ok && actual.Name == mapped {
		return true
	}
	if mapped, ok := fhirToFHIRPath[actualLower]; ok && strings.EqualFold(mapped, spec.Name) {
		return true
	}
	return false
}
