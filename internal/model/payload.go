package model

// PayloadKind discriminates the decoded shape of an event's args.
type PayloadKind uint8

const (
	PayloadOpaque     PayloadKind = iota // nothing the builder uses
	PayloadURL                           // explicit script or document URL
	PayloadStack                         // call stack without an explicit URL
	PayloadTimer                         // TimerInstall / TimerFire / TimerRemove
	PayloadFrame                         // frame id only
	PayloadReadyState                    // XHR state transition
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadURL:
		return "url"
	case PayloadStack:
		return "stack"
	case PayloadTimer:
		return "timer"
	case PayloadFrame:
		return "frame"
	case PayloadReadyState:
		return "ready_state"
	default:
		return "opaque"
	}
}

// Payload is the closed, decoded form of an event's args. Kind says which
// fields are meaningful; FrameID and StackURLs may be set for any kind.
type Payload struct {
	Kind       PayloadKind
	URL        string
	StackURLs  []string
	TimerID    string
	FrameID    string
	ReadyState int
}
