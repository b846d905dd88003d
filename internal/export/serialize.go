package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
)

// Format is a supported export serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Payload is a fully serialized export response.
type Payload struct {
	ContentType string
	// Filename is set for attachment formats (CSV), empty otherwise.
	Filename string
	Body     []byte
}

func serializeJSON(rows []Row, cols []Column) ([]byte, error) {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(cols))
		for _, col := range cols {
			record[string(col)] = col.Value(row)
		}
		out = append(out, record)
	}
	body, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return body, nil
}

func serializeCSV(rows []Row, cols []Column) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = string(col)
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			record[i] = col.Cell(row)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func serialize(format Format, rows []Row, cols []Column, csvFilename string) (*Payload, error) {
	switch format {
	case FormatJSON:
		body, err := serializeJSON(rows, cols)
		if err != nil {
			return nil, err
		}
		return &Payload{ContentType: "application/json", Body: body}, nil
	case FormatCSV:
		body, err := serializeCSV(rows, cols)
		if err != nil {
			return nil, err
		}
		return &Payload{ContentType: "text/csv", Filename: csvFilename, Body: body}, nil
	default:
		return nil, fmt.Errorf("unreachable format %q", format)
	}
}
