package normalizer

import (
	"cmp"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/crimson-sun/timber/internal/model"
)

const frameCommitted = "FrameCommittedInBrowser"

type frameCommit struct {
	ts    float64
	frame string
	url   string
}

// buildFrameTree replays frame commits in timestamp order so each frame
// keeps the URL it was last navigated to. Commits are browser-process
// events, so the whole trace is scanned.
func buildFrameTree(events []model.RawEvent) model.FrameTree {
	var commits []frameCommit
	for i := range events {
		e := &events[i]
		switch e.Name {
		case startedInBrowser:
			for _, f := range gjson.GetBytes(e.Args, "data.frames").Array() {
				commits = append(commits, frameCommit{ts: e.TS, frame: f.Get("frame").String(), url: f.Get("url").String()})
			}
		case frameCommitted:
			data := gjson.GetBytes(e.Args, "data")
			commits = append(commits, frameCommit{ts: e.TS, frame: data.Get("frame").String(), url: data.Get("url").String()})
		}
	}

	slices.SortStableFunc(commits, func(a, b frameCommit) int {
		return cmp.Compare(a.ts, b.ts)
	})

	tree := make(model.FrameTree, len(commits))
	for _, c := range commits {
		if c.frame == "" || c.url == "" {
			continue
		}
		tree[c.frame] = c.url
	}
	return tree
}
