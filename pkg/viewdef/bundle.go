package viewdef

import (
	"github.com/buger/jsonparser"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

// bundleEntry is one "entry" element of a FHIR Bundle: its fullUrl (if any)
// and the raw resource JSON it carries.
type bundleEntry struct {
	fullURL  string
	resource []byte
}

// parseBundle extracts every entry.resource from a Bundle document. A bare
// single resource (no resourceType "Bundle") is treated as a one-entry
// bundle, matching how the runner is commonly fed a lone resource in tests.
func parseBundle(data []byte) ([]bundleEntry, error) {
	resourceType, err := jsonparser.GetString(data, "resourceType")
	if err != nil {
		return nil, eval.InvalidViewDefinitionError("bundle: missing resourceType")
	}

	if resourceType != "Bundle" {
		return []bundleEntry{{resource: data}}, nil
	}

	var entries []bundleEntry
	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if dataType != jsonparser.Object {
			return
		}
		resource, dataType, _, err := jsonparser.Get(value, "resource")
		if err != nil || dataType != jsonparser.Object {
			return
		}
		fullURL, _ := jsonparser.GetString(value, "fullUrl")
		entries = append(entries, bundleEntry{fullURL: fullURL, resource: resource})
	}, "entry")
	if err != nil && err != jsonparser.KeyPathNotFoundError {
		return nil, eval.InvalidViewDefinitionError("bundle: invalid entry array: " + err.Error())
	}
	return entries, nil
}

// filterByResourceType returns the subset of entries whose resource matches
// the given resourceType.
func filterByResourceType(entries []bundleEntry, resourceType string) []bundleEntry {
	var out []bundleEntry
	for _, e := range entries {
		obj := types.NewObjectValue(e.resource)
		if obj.TypeInfo().Name == resourceType {
			out = append(out, e)
		}
	}
	return out
}
