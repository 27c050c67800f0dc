// Package dedup merges URL lists into a single ordered list without repeats.
package dedup

// Ignored reports whether a URL carries no attribution: empty strings and
// about:blank documents.
func Ignored(url string) bool {
	return url == "" || url == "about:blank"
}

// Set collects URLs once each in first-occurrence order.
// The zero value is ready to use.
type Set struct {
	seen  map[string]struct{}
	items []string
}

// Add appends url unless it is ignored or already present.
// Reports whether it was added.
func (s *Set) Add(url string) bool {
	if Ignored(url) {
		return false
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[url]; ok {
		return false
	}
	s.seen[url] = struct{}{}
	s.items = append(s.items, url)
	return true
}

// AddAll adds every URL of urls in order.
func (s *Set) AddAll(urls []string) {
	for _, u := range urls {
		s.Add(u)
	}
}

// Len returns the number of distinct URLs.
func (s *Set) Len() int { return len(s.items) }

// Values returns the collected URLs. The slice is owned by the caller.
func (s *Set) Values() []string {
	if len(s.items) == 0 {
		return nil
	}
	return append([]string(nil), s.items...)
}

// Merge concatenates the lists, dropping repeats and ignored URLs.
// Returns nil when nothing remains.
func Merge(lists ...[]string) []string {
	var s Set
	for _, l := range lists {
		s.AddAll(l)
	}
	return s.Values()
}
