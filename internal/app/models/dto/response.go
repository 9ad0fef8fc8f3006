package dto

// APIResponse is the envelope of every successful response
type APIResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// SuccessResponse represents a message-only success response
type SuccessResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

// NewDataResponse wraps data in the standard envelope
func NewDataResponse(data interface{}) APIResponse {
	return APIResponse{Data: data}
}

// NewMessageResponse wraps a message in the standard envelope
func NewMessageResponse(message string) APIResponse {
	return APIResponse{Message: message}
}
