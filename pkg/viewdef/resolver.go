package viewdef

import (
	"context"
	"strings"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

// bundleResolver resolves resolve() lookups against the entries of the
// Bundle a view is running over, indexed by fullUrl and by
// "<ResourceType>/<id>".
type bundleResolver struct {
	byKey map[string][]byte
}

// newBundleResolver indexes every Bundle entry's resource by fullUrl and by
// its own resourceType/id pair.
func newBundleResolver(entries []bundleEntry) *bundleResolver {
	r := &bundleResolver{byKey: make(map[string][]byte, len(entries)*2)}
	for _, e := range entries {
		if e.fullURL != "" {
			r.byKey[e.fullURL] = e.resource
		}
		if key, ok := resourceKey(e.resource); ok {
			r.byKey[key] = e.resource
		}
	}
	return r
}

// Resolve implements eval.Resolver. It accepts a raw reference string,
// trimming any absolute URL prefix down to "<ResourceType>/<id>" the same
// way the engine's own getReferenceKey() function does.
func (r *bundleResolver) Resolve(_ context.Context, reference string) ([]byte, error) {
	if data, ok := r.byKey[reference]; ok {
		return data, nil
	}
	if key, ok := trimReference(reference); ok {
		if data, ok := r.byKey[key]; ok {
			return data, nil
		}
	}
	return nil, eval.InternalError("unresolved reference: " + reference)
}

// trimReference reduces an absolute reference URL to its trailing
// "ResourceType/id" segment.
func trimReference(reference string) (string, bool) {
	idx := strings.LastIndex(reference, "/")
	if idx <= 0 {
		return "", false
	}
	before := reference[:idx]
	if prior := strings.LastIndex(before, "/"); prior >= 0 {
		before = before[prior+1:]
	}
	return before + reference[idx:], true
}

func resourceKey(resource []byte) (string, bool) {
	obj := types.NewObjectValue(resource)
	resourceType := obj.TypeInfo().Name
	idVal, ok := obj.Get("id")
	if !ok {
		return "", false
	}
	id, ok := idVal.(types.String)
	if !ok {
		return "", false
	}
	return resourceType + "/" + id.Value(), true
}
