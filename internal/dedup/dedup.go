package dedup

import "sync"

type key struct {
	username string
	content  string
}

// Filter suppresses repeated (username, content) pairs for the whole session
type Filter struct {
	mu   sync.Mutex
	seen map[key]struct{}
}

// New creates an empty filter
func New() *Filter {
	return &Filter{seen: make(map[key]struct{})}
}

// Admit records the pair and reports whether it was new.
// Comparison is exact; no normalization is applied.
func (f *Filter) Admit(username, content string) bool {
	k := key{username: username, content: content}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[k]; ok {
		return false
	}
	f.seen[k] = struct{}{}
	return true
}

// Len returns how many distinct pairs have been admitted
func (f *Filter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
