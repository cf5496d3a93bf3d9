package csvcodec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Batch is a decoded CSV blob: the header defines the key set shared by
// every row. Decoding the same blob twice yields the same Batch.
type Batch struct {
	Header []string
	Rows   []map[string]string
}

// Decode parses a raw CSV blob. The first line is the header; every data
// line must carry exactly as many fields as the header or the whole blob is
// rejected as malformed.
func Decode(blob string) (*Batch, error) {
	reader := csv.NewReader(strings.NewReader(blob))
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range header {
		header[i] = cleanHeader(h)
	}

	batch := &Batch{Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return batch, nil
		}
		if err != nil {
			// encoding/csv reports field count mismatches here too
			return nil, fmt.Errorf("CSV read error on line %d: %w", len(batch.Rows)+2, err)
		}

		row := make(map[string]string, len(header))
		for i, h := range header {
			row[h] = record[i]
		}
		batch.Rows = append(batch.Rows, row)
	}
}

// Encode writes the batch back out as CSV, header first. Column order
// follows the header, so Decode(Encode(b)) reproduces the same field sets.
func Encode(batch *Batch) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(batch.Header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range batch.Rows {
		record := make([]string, len(batch.Header))
		for i, h := range batch.Header {
			record[i] = row[h]
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return buf.String(), writer.Error()
}

// cleanHeader trims whitespace and strips quote characters from a column name.
func cleanHeader(h string) string {
	return strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
}
