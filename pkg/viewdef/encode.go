package viewdef

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
)

// ContentType selects the output encoding for Run.
type ContentType int

const (
	ContentTypeCsv ContentType = iota
	ContentTypeCsvWithHeader
	ContentTypeJSON
	ContentTypeNdJSON
	ContentTypeParquet
)

func encodeRows(columns []ColumnSpec, rows []Row, contentType ContentType) ([]byte, error) {
	switch contentType {
	case ContentTypeCsv:
		return encodeCSV(columns, rows, false)
	case ContentTypeCsvWithHeader:
		return encodeCSV(columns, rows, true)
	case ContentTypeJSON:
		return encodeJSON(columns, rows)
	case ContentTypeNdJSON:
		return encodeNdJSON(columns, rows)
	case ContentTypeParquet:
		return nil, eval.InternalError("parquet output is not implemented")
	default:
		return nil, eval.InternalError("unknown content type")
	}
}

func encodeCSV(columns []ColumnSpec, rows []Row, header bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if header {
		names := make([]string, len(columns))
		for i, c := range columns {
			names[i] = c.Name
		}
		if err := w.Write(names); err != nil {
			return nil, err
		}
	}

	for _, row := range rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = formatCSVCell(cell)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatCSVCell(v interface{}) string {
	switch cell := v.(type) {
	case nil:
		return ""
	case []interface{}:
		b, err := json.Marshal(cell)
		if err != nil {
			return fmt.Sprintf("%v", cell)
		}
		return string(b)
	case bool:
		if cell {
			return "true"
		}
		return "false"
	case string:
		return cell
	default:
		return fmt.Sprintf("%v", cell)
	}
}

func rowsToObjects(columns []ColumnSpec, rows []Row) []map[string]interface{} {
	objects := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		obj := make(map[string]interface{}, len(columns))
		for j, col := range columns {
			if j < len(row) {
				obj[col.Name] = row[j]
			}
		}
		objects[i] = obj
	}
	return objects
}

func encodeJSON(columns []ColumnSpec, rows []Row) ([]byte, error) {
	return json.Marshal(rowsToObjects(columns, rows))
}

func encodeNdJSON(columns []ColumnSpec, rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, obj := range rowsToObjects(columns, rows) {
		if err := enc.Encode(obj); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
