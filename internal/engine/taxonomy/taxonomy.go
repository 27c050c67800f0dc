package taxonomy

import "github.com/crimson-sun/timber/internal/model"

// Taxonomy is the read-only catalog of task groups.
type Taxonomy struct {
	groups []model.GroupInfo
	byID   map[model.TaskGroup]int
}

// New creates a Taxonomy from a list of groups.
func New(groups []model.GroupInfo) *Taxonomy {
	t := &Taxonomy{groups: groups, byID: make(map[model.TaskGroup]int, len(groups))}
	for i, g := range groups {
		t.byID[g.ID] = i
	}
	return t
}

// Groups returns the groups in display order.
func (t *Taxonomy) Groups() []model.GroupInfo {
	return t.groups
}

// Label returns the display label for a group, or the id itself when unknown.
func (t *Taxonomy) Label(id model.TaskGroup) string {
	if i, ok := t.byID[id]; ok {
		return t.groups[i].Label
	}
	return string(id)
}
