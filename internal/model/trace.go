package model

// Thread identifies a thread within a process.
type Thread struct {
	PID int `json:"pid"`
	TID int `json:"tid"`
}

// FrameTree maps a frame id to the URL most recently committed to it.
type FrameTree map[string]string

// Stream is the normalized, chronologically sorted main-thread event stream.
type Stream struct {
	Events     []Event
	TimeOrigin float64 // microseconds
	TraceEnd   float64 // microseconds
	MainThread Thread
	Frames     FrameTree
}

// TraceResult is the outcome of analyzing one trace.
type TraceResult struct {
	ID         string
	Source     string
	Forest     *Forest
	TimeOrigin float64 // microseconds
	TraceEnd   float64 // microseconds
	MainThread Thread
	Err        error
}
