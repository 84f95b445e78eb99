package toolbar

import (
	"net/http"
	"net/url"
	"sort"
	"sync"
)

// Stats is the flat record a panel produces for its template.
type Stats map[string]interface{}

// A Pair is one key and its value, as displayed in a panel table.
type Pair struct {
	Key   string
	Value interface{}
}

// A Panel renders one aspect of a request's lifecycle.
//
// A fresh Panel is made for every request by its PanelFactory, so panels
// may keep per-request state.
type Panel interface {
	// ID is a constant identifier, used in URLs and cookies.
	ID() string
	// Title is the untranslated heading of the panel.
	Title() string
	// Template names the panel's content template.
	Template() string

	// GenerateStats is called after the response has been produced.
	GenerateStats(r *http.Request, resp *Response)
	// Stats returns what GenerateStats recorded. Never nil.
	Stats() Stats
}

// A NavTitler provides the title shown in the toolbar's navigation, if it
// should differ from Title.
type NavTitler interface {
	NavTitle() string
}

// A NavSubtitler provides a line shown under the title in the toolbar's
// navigation.
type NavSubtitler interface {
	NavSubtitle() string
}

// A PanelFactory makes a Panel for one request.
type PanelFactory func() Panel

// Base is embedded by panels to hold their Stats.
type Base struct {
	mu    sync.Mutex
	stats Stats
}

// RecordStats merges the given values into the panel's stats. Later
// writes to a key replace earlier ones.
func (b *Base) RecordStats(s Stats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stats == nil {
		b.stats = Stats{}
	}
	for k, v := range s {
		b.stats[k] = v
	}
}

// Stats returns a copy of the recorded stats. The values themselves are
// shared.
func (b *Base) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := make(Stats, len(b.stats))
	for k, v := range b.stats {
		stats[k] = v
	}
	return stats
}

// SortedValues reduces a multi-valued mapping to (key, []string) pairs
// sorted by key. It never returns nil.
func SortedValues(values url.Values) []Pair {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{k, values[k]})
	}
	return pairs
}

// SortedMap reduces a single-valued mapping to pairs sorted by key. It
// never returns nil.
func SortedMap(values map[string]interface{}) []Pair {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{k, values[k]})
	}
	return pairs
}

func navTitle(p Panel) string {
	if nt, ok := p.(NavTitler); ok {
		return nt.NavTitle()
	}
	return p.Title()
}

func navSubtitle(p Panel) string {
	if ns, ok := p.(NavSubtitler); ok {
		return ns.NavSubtitle()
	}
	return ""
}
