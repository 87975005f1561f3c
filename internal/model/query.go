package model

// ExportParams is a validated GET /export request.
type ExportParams struct {
	AppID      string
	Search     string
	Models     []string // empty means no model filter
	Tags       []string // empty means no tag filter
	ExportType string
}
