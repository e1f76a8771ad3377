package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse estado de salud del servicio y de sus dependencias.
type HealthResponse struct {
	Status     string            `json:"status"` // ok | down
	Components map[string]string `json:"components,omitempty"`
}
