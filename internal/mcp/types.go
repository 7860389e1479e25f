package mcp

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	WindowCount      int    `json:"window_count"`
	ApplicationCount int    `json:"application_count"`
	EventsDropped    uint64 `json:"events_dropped"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	PID int `json:"pid,omitempty" jsonschema:"Only list windows owned by this process id"`
}

// WindowInfo describes one tracked window.
type WindowInfo struct {
	ID    uint32 `json:"id"`
	PID   int    `json:"pid"`
	App   string `json:"app"`
	Title string `json:"title"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// ListApplicationsInput is the input for the list_applications tool.
type ListApplicationsInput struct{}

// ApplicationInfo describes one tracked application.
type ApplicationInfo struct {
	PID         int    `json:"pid"`
	Name        string `json:"name"`
	WindowCount int    `json:"window_count"`
}

// ListApplicationsOutput is the output for the list_applications tool.
type ListApplicationsOutput struct {
	Applications []ApplicationInfo `json:"applications"`
}

// GetWindowInput is the input for the get_window tool.
type GetWindowInput struct {
	ID uint32 `json:"id" jsonschema:"required,Numeric window identifier"`
}

// RefreshStateInput is the input for the refresh_state tool.
type RefreshStateInput struct{}

// RefreshStateOutput is the output for the refresh_state tool.
type RefreshStateOutput struct {
	WindowCount int `json:"window_count"`
}
