// Package resourceview presents a FHIR resource (or Bundle) as the uniform
// tree the evaluator walks: resource-type tagging, extension lookup by
// URL, and primitive element id/extension access via the "_field" sibling
// convention, all built on top of types.ObjectValue's lazy JSON access.
package resourceview

import (
	"github.com/buger/jsonparser"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

// Resource wraps a parsed FHIR resource for root-level evaluation.
type Resource struct {
	*types.ObjectValue
}

// New parses raw FHIR resource JSON into a Resource.
func New(data []byte) *Resource {
	return &Resource{ObjectValue: types.NewObjectValue(data)}
}

// ResourceType returns the resourceType discriminator, or "" if absent
// (complex-type values passed in as a standalone root have none).
func (r *Resource) ResourceType() string {
	rt, err := jsonparser.GetString(r.Data(), "resourceType")
	if err != nil {
		return ""
	}
	return rt
}

// Extensions returns the extension array on the given object, filtered to
// those whose url matches. An empty url returns every extension.
func Extensions(o *types.ObjectValue, url string) types.Collection {
	all := o.GetCollection("extension")
	if url == "" {
		return all
	}
	items := make([]types.Value, 0, all.Count())
	for _, item := range all.Items {
		ext, ok := item.(*types.ObjectValue)
		if !ok {
			continue
		}
		extURL, ok := ext.Get("url")
		if !ok {
			continue
		}
		s, ok := extURL.(types.String)
		if !ok || s.Value() != url {
			continue
		}
		items = append(items, ext)
	}
	return types.FromSlice(items, false)
}

// ElementID returns the "id" carried by a primitive element's "_field"
// sibling object (e.g. Patient.name[0].given has element id in
// "_given"[0].id), or "" if there is none.
func ElementID(o *types.ObjectValue, field string) string {
	sibling, ok := o.Get("_" + field)
	if !ok {
		return ""
	}
	siblingObj, ok := sibling.(*types.ObjectValue)
	if !ok {
		return ""
	}
	id, ok := siblingObj.Get("id")
	if !ok {
		return ""
	}
	s, ok := id.(types.String)
	if !ok {
		return ""
	}
	return s.Value()
}

// PrimitiveExtensions returns the extensions carried on a primitive
// element's "_field" sibling object.
func PrimitiveExtensions(o *types.ObjectValue, field string) types.Collection {
	sibling, ok := o.Get("_" + field)
	if !ok {
		return types.Empty()
	}
	siblingObj, ok := sibling.(*types.ObjectValue)
	if !ok {
		return types.Empty()
	}
	return Extensions(siblingObj, "")
}
