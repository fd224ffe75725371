// Package viewdef implements a SQL-on-FHIR ViewDefinition runner.
//
// A ViewDefinition describes a tabular projection over FHIR resources using
// FHIRPath expressions for column values and row filters. Run expands a
// ViewDefinition's select tree against every matching resource in a Bundle
// and serializes the resulting rows as CSV, JSON, or newline-delimited JSON.
//
// Usage:
//
//	view, err := viewdef.Parse(viewDefinitionJSON)
//	out, err := viewdef.Run(view, bundleJSON, viewdef.ContentTypeJSON)
package viewdef
