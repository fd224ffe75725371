package types

import "fmt"

// Collection is a FHIRPath multi-item sequence. Unordered is sticky under
// projection: once any contributing input had undefined order, every result
// derived from it does too. A Collection never directly nests another
// Collection — Concat is the one place items from multiple collections are
// combined, and it flattens.
//
// A Collection is not itself a Value: singletons are never wrapped, so
// evaluator internals pass Collection around as the uniform "zero or more
// Values" currency, and unwrap to a bare Value only when a function's
// contract demands a singleton.
type Collection struct {
	Items     []Value
	Unordered bool
}

// Empty returns the canonical empty collection.
func Empty() Collection { return Collection{} }

// Of wraps a single Value as a one-element Collection. A nil Value yields Empty.
func Of(v Value) Collection {
	if v == nil {
		return Collection{}
	}
	return Collection{Items: []Value{v}}
}

// FromSlice builds a Collection directly from already-flattened items.
func FromSlice(items []Value, unordered bool) Collection {
	return Collection{Items: items, Unordered: unordered}
}

// Concat flattens and concatenates collections in order, OR-ing their
// Unordered flags together. This is the one merge point for combining
// items from multiple collections: Value never implements Collection, so
// flattening here is just slice concatenation.
func Concat(cols ...Collection) Collection {
	total := 0
	unordered := false
	for _, c := range cols {
		total += len(c.Items)
		unordered = unordered || c.Unordered
	}
	if total == 0 {
		return Collection{Unordered: unordered}
	}
	out := make([]Value, 0, total)
	for _, c := range cols {
		out = append(out, c.Items...)
	}
	return Collection{Items: out, Unordered: unordered}
}

// Empty reports whether the collection has no items (observationally equal
// to the canonical Empty regardless of how it was constructed).
func (c Collection) Empty() bool { return len(c.Items) == 0 }

// Count returns the number of items.
func (c Collection) Count() int { return len(c.Items) }

// First returns the first item, or ok=false if empty.
func (c Collection) First() (Value, bool) {
	if len(c.Items) == 0 {
		return nil, false
	}
	return c.Items[0], true
}

// Last returns the last item, or ok=false if empty.
func (c Collection) Last() (Value, bool) {
	if len(c.Items) == 0 {
		return nil, false
	}
	return c.Items[len(c.Items)-1], true
}

// Single returns the sole item, erroring if the collection has 0 or >1 items.
func (c Collection) Single() (Value, error) {
	if len(c.Items) == 0 {
		return nil, fmt.Errorf("single(): collection is empty")
	}
	if len(c.Items) > 1 {
		return nil, fmt.Errorf("single(): expected exactly one item, got %d", len(c.Items))
	}
	return c.Items[0], nil
}

// Tail returns every item but the first.
func (c Collection) Tail() Collection {
	if len(c.Items) <= 1 {
		return Collection{Unordered: c.Unordered}
	}
	return Collection{Items: c.Items[1:], Unordered: c.Unordered}
}

// Skip returns the collection with the first n items removed.
func (c Collection) Skip(n int) Collection {
	if n <= 0 {
		return c
	}
	if n >= len(c.Items) {
		return Collection{Unordered: c.Unordered}
	}
	return Collection{Items: c.Items[n:], Unordered: c.Unordered}
}

// Take returns the first n items.
func (c Collection) Take(n int) Collection {
	if n <= 0 {
		return Collection{Unordered: c.Unordered}
	}
	if n >= len(c.Items) {
		return c
	}
	return Collection{Items: c.Items[:n], Unordered: c.Unordered}
}

// Contains reports whether v equals (per =) any item.
func (c Collection) Contains(v Value) bool {
	for _, item := range c.Items {
		if item.Equal(v) {
			return true
		}
	}
	return false
}

// Distinct returns a new collection with duplicate items (per =) removed,
// preserving first-seen order.
func (c Collection) Distinct() Collection {
	out := make([]Value, 0, len(c.Items))
	for _, item := range c.Items {
		dup := false
		for _, seen := range out {
			if seen.Equal(item) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, item)
		}
	}
	return Collection{Items: out, Unordered: c.Unordered}
}

// IsDistinct reports whether every item is already unique.
func (c Collection) IsDistinct() bool {
	for i, item := range c.Items {
		for j := i + 1; j < len(c.Items); j++ {
			if item.Equal(c.Items[j]) {
				return false
			}
		}
	}
	return true
}

// Union is the | operator: set union, deduplicated, always unordered.
func (c Collection) Union(other Collection) Collection {
	merged := Concat(c, other).Distinct()
	merged.Unordered = true
	return merged
}

// Combine is a multiset union: concatenates without deduplication,
// preserving order (spec.md §4.5 "Combining").
func (c Collection) Combine(other Collection) Collection {
	return Concat(c, other)
}

// Intersect returns items present in both collections (per =), deduplicated.
func (c Collection) Intersect(other Collection) Collection {
	out := make([]Value, 0)
	for _, item := range c.Items {
		if other.Contains(item) {
			dup := false
			for _, seen := range out {
				if seen.Equal(item) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, item)
			}
		}
	}
	return Collection{Items: out, Unordered: c.Unordered || other.Unordered}
}

// Exclude returns items in c that are not present in other.
func (c Collection) Exclude(other Collection) Collection {
	out := make([]Value, 0, len(c.Items))
	for _, item := range c.Items {
		if !other.Contains(item) {
			out = append(out, item)
		}
	}
	return Collection{Items: out, Unordered: c.Unordered}
}

// String renders "{ v1, v2 }" or "{ }" for empty, matching teacher's display idiom.
func (c Collection) String() string {
	if len(c.Items) == 0 {
		return "{ }"
	}
	if len(c.Items) == 1 {
		return c.Items[0].String()
	}
	s := "{ "
	for i, item := range c.Items {
		if i > 0 {
			s += ", "
		}
		s += item.String()
	}
	return s + " }"
}

// ToBoolean coerces a singleton Boolean collection, used by the three-valued
// logic operators. ok=false means "not a usable boolean" (including Empty
// and multi-item collections), which callers must treat as the Empty leg.
func (c Collection) ToBoolean() (value bool, ok bool) {
	if len(c.Items) != 1 {
		return false, false
	}
	b, isBool := c.Items[0].(Boolean)
	if !isBool {
		return false, false
	}
	return b.Bool(), true
}

func (c Collection) AllTrue() bool {
	for _, item := range c.Items {
		if b, ok := item.(Boolean); !ok || !b.Bool() {
			return false
		}
	}
	return true
}

func (c Collection) AnyTrue() bool {
	for _, item := range c.Items {
		if b, ok := item.(Boolean); ok && b.Bool() {
			return true
		}
	}
	return false
}

func (c Collection) AllFalse() bool {
	for _, item := range c.Items {
		if b, ok := item.(Boolean); !ok || b.Bool() {
			return false
		}
	}
	return true
}

func (c Collection) AnyFalse() bool {
	for _, item := range c.Items {
		if b, ok := item.(Boolean); ok && !b.Bool() {
			return true
		}
	}
	return false
}

// TrueCollection and FalseCollection are shared singleton boolean collections.
var (
	TrueCollection  = Of(NewBoolean(true))
	FalseCollection = Of(NewBoolean(false))
)
