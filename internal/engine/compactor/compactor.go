// Package compactor reduces a task forest to the shape an output needs:
// a per-trace summary and a task list trimmed to a verbosity level.
package compactor

import (
	"fmt"
	"strings"

	"github.com/crimson-sun/timber/internal/engine/dedup"
	"github.com/crimson-sun/timber/internal/model"
)

// Verbosity controls how much detail is retained after compaction.
type Verbosity int

const (
	Minimal  Verbosity = iota // root tasks only, no attribution
	Standard                  // every task, capped attribution lists
	Full                      // retain everything
)

const (
	standardMaxURLs   = 5
	standardURLLength = 200
)

func (v Verbosity) String() string {
	switch v {
	case Minimal:
		return "minimal"
	case Full:
		return "full"
	default:
		return "standard"
	}
}

// ParseVerbosity maps a config string to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(s) {
	case "minimal":
		return Minimal, nil
	case "", "standard":
		return Standard, nil
	case "full":
		return Full, nil
	default:
		return Standard, fmt.Errorf("unknown verbosity %q", s)
	}
}

// Entry is the serialized form of a task. Times are milliseconds from the
// trace's time origin.
type Entry struct {
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	Category  string   `json:"cat,omitempty"`
	Start     float64  `json:"start"`
	End       float64  `json:"end"`
	Duration  float64  `json:"duration"`
	SelfTime  float64  `json:"self_time"`
	Group     string   `json:"group"`
	Parent    int      `json:"parent"`
	Children  []int    `json:"children,omitempty"`
	URLs      []string `json:"urls,omitempty"`
	Unbounded bool     `json:"unbounded,omitempty"`
}

// Summary aggregates a forest.
type Summary struct {
	Tasks          int                         `json:"tasks"`
	Roots          int                         `json:"roots"`
	Unbounded      int                         `json:"unbounded"`
	MainThreadTime float64                     `json:"main_thread_time"`
	SelfTime       map[model.TaskGroup]float64 `json:"self_time"`
	URLs           int                         `json:"urls"`
	Longest        string                      `json:"longest,omitempty"`
	LongestTime    float64                     `json:"longest_time,omitempty"`
}

// Compactor trims forests to a verbosity level.
type Compactor struct {
	Verbosity Verbosity
}

// New creates a Compactor with the given verbosity level.
func New(v Verbosity) *Compactor {
	return &Compactor{Verbosity: v}
}

// Summarize aggregates f. A nil forest yields a zero Summary.
func (c *Compactor) Summarize(f *model.Forest) Summary {
	var s Summary
	if f == nil {
		return s
	}
	s.Tasks = len(f.Tasks)
	s.Roots = len(f.Roots)
	s.SelfTime = make(map[model.TaskGroup]float64)

	var urls dedup.Set
	for _, r := range f.Roots {
		root := &f.Tasks[r]
		s.MainThreadTime += root.Duration
		urls.AddAll(root.AttributableURLs)
		if root.Duration > s.LongestTime {
			s.Longest = root.Event.Name
			s.LongestTime = root.Duration
		}
	}
	s.URLs = urls.Len()

	for i := range f.Tasks {
		t := &f.Tasks[i]
		s.SelfTime[t.Group] += t.SelfTime
		if t.Unbounded {
			s.Unbounded++
		}
	}
	return s
}

// Compact returns the tasks of f as entries, trimmed to the verbosity.
func (c *Compactor) Compact(f *model.Forest) []Entry {
	if f == nil || len(f.Tasks) == 0 {
		return nil
	}
	if c.Verbosity == Minimal {
		entries := make([]Entry, 0, len(f.Roots))
		for _, r := range f.Roots {
			entries = append(entries, c.entry(f, r))
		}
		return entries
	}
	entries := make([]Entry, len(f.Tasks))
	for i := range f.Tasks {
		entries[i] = c.entry(f, i)
	}
	return entries
}

func (c *Compactor) entry(f *model.Forest, i int) Entry {
	t := &f.Tasks[i]
	e := Entry{
		Index:     i,
		Name:      t.Event.Name,
		Start:     t.StartTime,
		End:       t.EndTime,
		Duration:  t.Duration,
		SelfTime:  t.SelfTime,
		Group:     string(t.Group),
		Parent:    t.Parent,
		Unbounded: t.Unbounded,
	}
	switch c.Verbosity {
	case Standard:
		n := min(len(t.AttributableURLs), standardMaxURLs)
		if n > 0 {
			e.URLs = make([]string, n)
			for j := range n {
				e.URLs[j] = truncate(t.AttributableURLs[j], standardURLLength)
			}
		}
	case Full:
		e.Category = t.Event.Cat
		e.Children = t.Children
		e.URLs = t.AttributableURLs
	}
	return e
}

// truncate cuts s to at most maxRunes runes, appending "..." when cut.
// data: URLs can be arbitrarily long.
func truncate(s string, maxRunes int) string {
	if len(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
