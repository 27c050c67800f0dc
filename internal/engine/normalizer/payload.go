package normalizer

import (
	"fortio.org/safecast"
	"github.com/tidwall/gjson"

	"github.com/crimson-sun/timber/internal/model"
)

// decodePayload turns an event's args into its tagged payload. The event
// name decides the causal-link kinds; the remaining kinds are chosen by
// which fields are present.
func decodePayload(name string, args []byte) model.Payload {
	if len(args) == 0 {
		return model.Payload{}
	}
	data := gjson.GetBytes(args, "data")
	begin := gjson.GetBytes(args, "beginData")

	p := model.Payload{
		FrameID:   firstString(data.Get("frame"), begin.Get("frame")),
		StackURLs: stackURLs(data.Get("stackTrace"), begin.Get("stackTrace")),
	}

	switch name {
	case "TimerInstall", "TimerFire", "TimerRemove":
		p.Kind = model.PayloadTimer
		p.TimerID = data.Get("timerId").String()
		return p
	case "XHRReadyStateChange", "XHRLoad":
		p.Kind = model.PayloadReadyState
		p.URL = data.Get("url").String()
		if rs, err := safecast.Conv[int](data.Get("readyState").Int()); err == nil {
			p.ReadyState = rs
		}
		return p
	}

	p.URL = firstString(data.Get("url"), begin.Get("url"), gjson.GetBytes(args, "fileName"))
	switch {
	case p.URL != "":
		p.Kind = model.PayloadURL
	case len(p.StackURLs) > 0:
		p.Kind = model.PayloadStack
	case p.FrameID != "":
		p.Kind = model.PayloadFrame
	default:
		p.Kind = model.PayloadOpaque
	}
	return p
}

func firstString(results ...gjson.Result) string {
	for _, r := range results {
		if s := r.String(); s != "" {
			return s
		}
	}
	return ""
}

func stackURLs(stacks ...gjson.Result) []string {
	var urls []string
	for _, st := range stacks {
		if !st.IsArray() {
			continue
		}
		for _, frame := range st.Array() {
			if u := frame.Get("url").String(); u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}
