// Package model defines the domain types for runexport.
//
// Run rows are owned by an external writer; this service only reads them.
// ExportRow is the projection handed to exporters and never carries the
// owning app or the run type discriminator.
package model

import (
	"encoding/json"
	"time"
)

// RunTypeLLM is the only run type eligible for export.
const RunTypeLLM = "llm"

// ExportRow is one exported run.
type ExportRow struct {
	Time     time.Time       `json:"time"`
	Model    string          `json:"model"`
	Duration *float64        `json:"duration"` // seconds; nil when the run has not ended
	Tokens   int64           `json:"tokens"`
	Tags     []string        `json:"tags"`
	Prompt   json.RawMessage `json:"prompt"`
	Result   json.RawMessage `json:"result"` // output, falling back to error
}
