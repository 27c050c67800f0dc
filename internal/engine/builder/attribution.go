package builder

import (
	"github.com/crimson-sun/timber/internal/engine/dedup"
	"github.com/crimson-sun/timber/internal/model"
)

const (
	timerInstall = "TimerInstall"
	timerFire    = "TimerFire"
)

// ownURLs collects the URLs each node is directly attributable to,
// including those reached through causal links that do not follow
// nesting. The stream is replayed in order so a link only ever points back
// in time.
func ownURLs(events []model.Event, taskAt []int, n int) [][]string {
	own := make([][]string, n)
	timers := make(map[string][]string)
	xhrs := make(map[string][]string)

	for i := range events {
		e := &events[i]
		p := &e.Payload

		if e.Name == timerInstall && p.Kind == model.PayloadTimer && p.TimerID != "" {
			timers[p.TimerID] = dedup.Merge([]string{p.URL}, p.StackURLs)
		}

		idx := taskAt[i]
		if idx < 0 {
			continue
		}

		switch p.Kind {
		case model.PayloadURL:
			own[idx] = dedup.Merge([]string{p.URL}, p.StackURLs)
		case model.PayloadTimer:
			if e.Name == timerFire {
				own[idx] = dedup.Merge(timers[p.TimerID], p.StackURLs)
			} else {
				own[idx] = dedup.Merge(p.StackURLs)
			}
		case model.PayloadReadyState:
			// The resource URL only links transitions together.
			switch {
			case len(p.StackURLs) > 0:
				own[idx] = dedup.Merge(p.StackURLs)
				if p.URL != "" {
					xhrs[p.URL] = own[idx]
				}
			case p.URL != "":
				own[idx] = xhrs[p.URL]
			}
		default:
			own[idx] = dedup.Merge(p.StackURLs)
		}
	}
	return own
}
