// Package export renders exported runs as CSV or JSON Lines documents.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/ashita-ai/runexport/internal/model"
)

// Supported exportType values.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// Payload is a rendered export document with its response metadata.
type Payload struct {
	ContentType string
	Filename    string
	Body        []byte
}

// ContentDisposition returns the attachment header value for p.
func (p Payload) ContentDisposition() string {
	return fmt.Sprintf(`attachment; filename="%s"`, p.Filename)
}

// Render serializes rows in the requested format. ok is false when format is
// not a supported exportType; nothing is rendered in that case.
func Render(format string, rows []model.ExportRow) (p Payload, ok bool, err error) {
	switch format {
	case FormatCSV:
		body, err := CSV(rows)
		if err != nil {
			return Payload{}, true, err
		}
		return Payload{ContentType: "text/csv", Filename: "export.csv", Body: body}, true, nil
	case FormatJSONL:
		body, err := JSONL(rows)
		if err != nil {
			return Payload{}, true, err
		}
		return Payload{ContentType: "application/jsonlines", Filename: "export.jsonl", Body: body}, true, nil
	default:
		return Payload{}, false, nil
	}
}

// JSONL encodes each row as one JSON object per line. Lines are separated by
// a single newline with none after the last row.
func JSONL(rows []model.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, r := range rows {
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("export: encode row %d: %w", i, err)
		}
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// csvRow is the flat CSV shape of model.ExportRow.
type csvRow struct {
	Time     string `csv:"time"`
	Model    string `csv:"model"`
	Duration string `csv:"duration"`
	Tokens   string `csv:"tokens"`
	Tags     string `csv:"tags"`
	Prompt   string `csv:"prompt"`
	Result   string `csv:"result"`
}

// CSV encodes rows with a header line. An empty input yields the header and a
// single empty record so the document is never blank.
func CSV(rows []model.ExportRow) ([]byte, error) {
	records := make([]csvRow, 0, len(rows))
	for i, r := range rows {
		rec, err := toCSVRow(r)
		if err != nil {
			return nil, fmt.Errorf("export: row %d: %w", i, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		records = append(records, csvRow{})
	}

	b, err := csvutil.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("export: marshal csv: %w", err)
	}
	return b, nil
}

func toCSVRow(r model.ExportRow) (csvRow, error) {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return csvRow{}, fmt.Errorf("encode tags: %w", err)
	}
	prompt, err := cell(r.Prompt)
	if err != nil {
		return csvRow{}, fmt.Errorf("prompt: %w", err)
	}
	result, err := cell(r.Result)
	if err != nil {
		return csvRow{}, fmt.Errorf("result: %w", err)
	}

	rec := csvRow{
		Time:   r.Time.UTC().Format(time.RFC3339Nano),
		Model:  r.Model,
		Tokens: strconv.FormatInt(r.Tokens, 10),
		Tags:   string(tagsJSON),
		Prompt: prompt,
		Result: result,
	}
	if r.Duration != nil {
		rec.Duration = strconv.FormatFloat(*r.Duration, 'f', -1, 64)
	}
	return rec, nil
}

// cell flattens a JSON value for a CSV field: strings are unquoted, null is
// empty and everything else is compact JSON text.
func cell(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
