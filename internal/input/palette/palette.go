package palette

import (
	"sort"
	"strconv"
	"sync"

	"github.com/dshills/cmdmgr/internal/command"
	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/command/handler"
	"github.com/dshills/cmdmgr/internal/command/ident"
	"github.com/dshills/cmdmgr/internal/dispatcher"
)

// Entry is one command as the palette shows it.
type Entry struct {
	ID       ident.ID
	Name     string
	Index    int
	Label    string
	Category string
	Shortcut string

	// Enabled reports whether the command may run under the ambient flags
	// the entry was built with.
	Enabled bool
}

// HistoryKey identifies a command in the history. Members of a multi-item
// group past the first get their index appended.
func HistoryKey(name string, index int) string {
	if index == 0 {
		return name
	}
	return name + "#" + strconv.Itoa(index)
}

func (e *Entry) historyKey() string {
	return HistoryKey(e.Name, e.Index)
}

// Palette provides searchable access to registered commands.
type Palette struct {
	mu           sync.RWMutex
	dispatcher   *dispatcher.Dispatcher
	history      *History
	filter       *Filter
	showDisabled bool
}

// New creates a palette over the dispatcher's registry and starts
// recording the dispatcher's successful invocations.
func New(d *dispatcher.Dispatcher) *Palette {
	return NewWithHistory(d, 100)
}

// NewWithHistory creates a palette with a custom history size.
func NewWithHistory(d *dispatcher.Dispatcher, historySize int) *Palette {
	p := &Palette{
		dispatcher:   d,
		history:      NewHistory(historySize),
		filter:       NewFilter(),
		showDisabled: true,
	}
	d.RegisterPostHook(dispatcher.HistoryHook{Record: func(inv *handler.Invocation) {
		p.history.Add(HistoryKey(inv.Name, inv.Index))
	}})
	return p
}

// SetShowDisabled controls whether commands that cannot run right now are
// listed. They are listed by default.
func (p *Palette) SetShowDisabled(show bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.showDisabled = show
}

// Entries returns the visible commands sorted by label.
func (p *Palette) Entries(ambient flags.Flags) []*Entry {
	p.mu.RLock()
	showDisabled := p.showDisabled
	p.mu.RUnlock()

	records := p.dispatcher.Registry().Entries(command.ListOptions{IncludeMultis: true})
	result := make([]*Entry, 0, len(records))
	for _, rec := range records {
		e := &Entry{
			ID:       rec.ID,
			Name:     rec.Name,
			Index:    rec.Index,
			Label:    rec.PrefixedLabel(),
			Category: rec.Category(),
			Shortcut: rec.Key,
			Enabled:  dispatcher.Allowed(rec, ambient),
		}
		if !e.Enabled && !showDisabled {
			continue
		}
		result = append(result, e)
	}

	// Sort by label for consistent ordering
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Label < result[j].Label
	})
	return result
}

// Count returns the number of listed commands.
func (p *Palette) Count(ambient flags.Flags) int {
	return len(p.Entries(ambient))
}

// Search finds commands matching the query.
// Results are sorted by relevance, with recent commands prioritized.
func (p *Palette) Search(query string, ambient flags.Flags, limit int) []SearchResult {
	entries := p.Entries(ambient)

	p.mu.RLock()
	filter := p.filter
	p.mu.RUnlock()

	if query == "" {
		// Return recent commands first, then alphabetical
		return p.recentEntries(entries, limit)
	}

	// History boost may reorder, so ask for more than needed
	searchLimit := limit
	if searchLimit > 0 {
		searchLimit = limit * 2
		if searchLimit < 50 {
			searchLimit = 50
		}
	}
	results := filter.Search(entries, query, searchLimit)

	for i := range results {
		pos := p.history.Position(results[i].Entry.historyKey())
		if pos >= 0 {
			// More recent = higher bonus
			results[i].Score += (100 - pos)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.Label < results[j].Entry.Label
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results
}

// recentEntries returns entries sorted by recency, then by label.
func (p *Palette) recentEntries(entries []*Entry, limit int) []SearchResult {
	results := make([]SearchResult, 0, len(entries))

	for _, e := range entries {
		score := 0
		if pos := p.history.Position(e.historyKey()); pos >= 0 {
			score = 1000 - pos
		}
		results = append(results, SearchResult{Entry: e, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.Label < results[j].Entry.Label
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results
}

// Execute runs a command by identifier through the dispatcher.
// History is only updated after successful execution.
func (p *Palette) Execute(id ident.ID, ambient flags.Flags) (dispatcher.Result, error) {
	return p.dispatcher.DispatchID(id, ambient)
}

// ExecuteName runs a command by name through the dispatcher.
func (p *Palette) ExecuteName(name string, ambient flags.Flags) (dispatcher.Result, error) {
	return p.dispatcher.DispatchName(name, ambient)
}

// History returns the command history.
func (p *Palette) History() *History {
	return p.history
}

// RecentCommands returns history keys of recently executed commands.
func (p *Palette) RecentCommands(limit int) []string {
	return p.history.Recent(limit)
}

// Categories returns the registry's categories.
func (p *Palette) Categories() []string {
	return p.dispatcher.Registry().Categories()
}

// EntriesByCategory returns the entries in the specified category.
func (p *Palette) EntriesByCategory(category string, ambient flags.Flags) []*Entry {
	p.mu.RLock()
	filter := p.filter
	p.mu.RUnlock()
	return filter.FilterByCategory(p.Entries(ambient), category)
}

// SetFilter sets a custom filter for searching.
func (p *Palette) SetFilter(filter *Filter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = filter
}
