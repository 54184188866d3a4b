package dto

// ErrorResponse is the body of every failed request. Error carries the
// underlying error text when there is one.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the health check result
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Error  string `json:"error,omitempty"`
}
