package handler

import "time"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Status is the body of GET /info.
type Status struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	GoVersion   string `json:"go_version"`
	RunID       string `json:"run_id"`
	Uptime      string `json:"uptime"`
	Address     string `json:"address"`
	Connections int    `json:"connections"`

	Keys            int    `json:"keys"`
	Shards          []int  `json:"shards"`
	Durable         bool   `json:"durable"`
	AOFSizeBytes    int64  `json:"aof_size_bytes"`
	AOFAppended     uint64 `json:"aof_appended_records"`
	ReplayedRecords int    `json:"replayed_records"`
}

// StatusSource reports server state.
type StatusSource interface {
	Ready() bool
	Status() Status
}
