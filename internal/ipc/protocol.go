package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus        CommandType = "GET_STATUS"
	CommandListWindows      CommandType = "LIST_WINDOWS"
	CommandListApplications CommandType = "LIST_APPLICATIONS"
	CommandGetWindow        CommandType = "GET_WINDOW"
	CommandRefresh          CommandType = "REFRESH"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	WindowCount      int    `json:"window_count"`
	ApplicationCount int    `json:"application_count"`
	EventsDropped    uint64 `json:"events_dropped"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	DaemonRunning    bool   `json:"daemon_running"`
}

// WindowInfo describes one tracked window
type WindowInfo struct {
	ID    uint32 `json:"id"`
	PID   int    `json:"pid"`
	App   string `json:"app"`
	Title string `json:"title"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// ApplicationInfo describes one tracked application
type ApplicationInfo struct {
	PID         int    `json:"pid"`
	Name        string `json:"name"`
	WindowCount int    `json:"window_count"`
}

// ApplicationsData represents the data returned by LIST_APPLICATIONS
type ApplicationsData struct {
	Applications []ApplicationInfo `json:"applications"`
}

// GetWindowPayload represents the payload for GET_WINDOW
type GetWindowPayload struct {
	ID uint32 `json:"id"`
}

// RefreshData represents the data returned by REFRESH
type RefreshData struct {
	WindowCount int `json:"window_count"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *Response {
	return &Response{
		Status: "ERROR",
		Error:  err.Error(),
	}
}
