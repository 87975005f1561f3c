package model

// Validation messages returned with 422 responses.
const (
	ErrMsgInvalidAppID     = "Invalid input: You must provide a valid appId"
	ErrMsgDelimitedFilters = `Invalid input: "models" and "tags" must be comma-delimited strings, not repeated parameters`
	ErrMsgInternal         = "internal error"
)

// APIError is the error response body.
type APIError struct {
	Error string `json:"error"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Postgres string `json:"postgres"`
	Uptime   int64  `json:"uptime_seconds"`
}
