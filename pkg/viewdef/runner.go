package viewdef

import (
	"context"
	"sync"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

// RunError is returned by Run for any failure: malformed input, a
// cardinality or type violation while coercing a column, or cancellation.
// It reuses the engine's own error taxonomy rather than inventing a second
// one.
type RunError = eval.EvalError

// Run expands view against every resource of the matching type in bundle
// and serializes the resulting rows as contentType. Row order follows
// Bundle entry order, then the select tree's depth-first order, regardless
// of how many resources are evaluated concurrently.
func Run(view *ViewDefinition, bundle []byte, contentType ContentType, opts ...RunOption) ([]byte, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}

	options := newRunOptions(opts)

	entries, err := parseBundle(bundle)
	if err != nil {
		return nil, err
	}
	matching := filterByResourceType(entries, view.ResourceType)
	resolver := newBundleResolver(entries)

	constants, err := view.resolveConstants()
	if err != nil {
		return nil, err
	}

	rowSets := make([][]Row, len(matching))
	errs := make([]error, len(matching))

	run := func(i int) {
		rowSets[i], errs[i] = runResource(view, matching[i].resource, resolver, constants, options.ctx)
	}

	if options.concurrency <= 1 {
		for i := range matching {
			run(i)
		}
	} else {
		sem := make(chan struct{}, options.concurrency)
		var wg sync.WaitGroup
		for i := range matching {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				run(i)
			}(i)
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var rows []Row
	for _, rs := range rowSets {
		rows = append(rows, rs...)
	}
	if options.rowLimit > 0 && len(rows) > options.rowLimit {
		rows = rows[:options.rowLimit]
	}

	return encodeRows(view.schema(), rows, contentType)
}

// resolveConstants normalizes every declared constant into a singleton
// Collection, keyed by name, ready to seed a per-resource Context.
func (v *ViewDefinition) resolveConstants() (map[string]types.Collection, error) {
	out := make(map[string]types.Collection, len(v.Constant))
	for i := range v.Constant {
		value, err := v.Constant[i].normalize()
		if err != nil {
			return nil, err
		}
		out[v.Constant[i].Name] = types.Of(value)
	}
	return out, nil
}

// runResource evaluates where/select for a single resource and returns the
// rows it contributes.
func runResource(view *ViewDefinition, resource []byte, resolver *bundleResolver, constants map[string]types.Collection, goCtx context.Context) ([]Row, error) {
	ctx := eval.NewContext(resource)
	ctx.SetResolver(resolver)
	if goCtx != nil {
		ctx.SetContext(goCtx)
	}
	if err := ctx.CheckCancellation(); err != nil {
		return nil, err
	}
	for name, value := range constants {
		ctx.SetVariable(name, value)
	}

	keep, err := evaluateWhere(ctx, view.Where)
	if err != nil {
		return nil, err
	}
	if !keep {
		return nil, nil
	}

	return expandNodes(ctx, view.Select)
}

// evaluateWhere requires every clause to evaluate to a singleton true
// against the resource currently bound as $this.
func evaluateWhere(ctx *eval.Context, clauses []WhereClause) (bool, error) {
	for _, w := range clauses {
		result, err := evaluatePath(ctx, w.Path)
		if err != nil {
			return false, err
		}
		value, ok := result.ToBoolean()
		if !ok || !value {
			return false, nil
		}
	}
	return true, nil
}

// evaluatePath compiles (via the package's shared expression cache, since
// the same column/where/forEach paths are re-evaluated per resource) and
// evaluates expr against the current $this focus of ctx.
func evaluatePath(ctx *eval.Context, expr string) (types.Collection, error) {
	compiled, err := fhirpath.GetCached(expr)
	if err != nil {
		return types.Empty(), err
	}
	return compiled.EvaluateWithContext(ctx)
}

// expandNodes runs every node in sequence and combines their row sets by
// Cartesian product, matching the semantics of a nested select[] list.
func expandNodes(ctx *eval.Context, nodes []SelectClause) ([]Row, error) {
	rows := []Row{{}}
	for _, node := range nodes {
		nodeRows, err := expandNode(ctx, node)
		if err != nil {
			return nil, err
		}
		rows = cartesian(rows, nodeRows)
	}
	return rows, nil
}

func cartesian(left, right []Row) []Row {
	if len(left) == 0 || len(right) == 0 {
		return nil
	}
	out := make([]Row, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			combined := make(Row, 0, len(l)+len(r))
			combined = append(combined, l...)
			combined = append(combined, r...)
			out = append(out, combined)
		}
	}
	return out
}

// expandNode dispatches a single SelectClause node to the iteration
// strategy it declares.
func expandNode(ctx *eval.Context, node SelectClause) ([]Row, error) {
	switch {
	case len(node.UnionAll) > 0:
		return expandUnionAll(ctx, node.UnionAll)
	case node.ForEach != "":
		return expandForEach(ctx, node, node.ForEach, false)
	case node.ForEachOrNull != "":
		return expandForEach(ctx, node, node.ForEachOrNull, true)
	default:
		return expandProjection(ctx, node)
	}
}

// expandProjection evaluates a node's own column[]/select[] against the
// current focus, with no iteration.
func expandProjection(ctx *eval.Context, node SelectClause) ([]Row, error) {
	row, err := evaluateColumns(ctx, node.Column)
	if err != nil {
		return nil, err
	}
	rows := []Row{row}

	if len(node.Select) > 0 {
		nested, err := expandNodes(ctx, node.Select)
		if err != nil {
			return nil, err
		}
		rows = cartesian(rows, nested)
	}
	return rows, nil
}

// evaluateColumns evaluates every column against ctx's current focus and
// coerces each result into a cell.
func evaluateColumns(ctx *eval.Context, columns []ColumnSpec) (Row, error) {
	row := make(Row, 0, len(columns))
	for _, col := range columns {
		result, err := evaluatePath(ctx, col.Path)
		if err != nil {
			return nil, err
		}
		cell, err := coerceColumn(col, result)
		if err != nil {
			return nil, err
		}
		row = append(row, cell)
	}
	return row, nil
}

// expandForEach evaluates expr against the current focus and reruns the
// node's inner column/select tree once per item, with $this rebound. When
// expr yields nothing and orNull is set, it emits exactly one row of nulls
// sized to the inner schema instead of zero rows.
func expandForEach(ctx *eval.Context, node SelectClause, expr string, orNull bool) ([]Row, error) {
	items, err := evaluatePath(ctx, expr)
	if err != nil {
		return nil, err
	}

	inner := SelectClause{Column: node.Column, Select: node.Select}

	if items.Empty() {
		if !orNull {
			return nil, nil
		}
		width := len(inner.columnSchema())
		return []Row{make(Row, width)}, nil
	}

	var rows []Row
	for _, item := range items.Items {
		itemCtx := ctx.WithThis(types.Of(item))
		itemRows, err := expandNode(itemCtx, inner)
		if err != nil {
			return nil, err
		}
		rows = append(rows, itemRows...)
	}
	return rows, nil
}

// expandUnionAll evaluates every branch against the same focus and
// concatenates their rows; Validate already checked the branches share a
// column schema.
func expandUnionAll(ctx *eval.Context, branches []SelectClause) ([]Row, error) {
	var rows []Row
	for _, branch := range branches {
		branchRows, err := expandNode(ctx, branch)
		if err != nil {
			return nil, err
		}
		rows = append(rows, branchRows...)
	}
	return rows, nil
}
