package command

import "strings"

// ListOptions selects which records a listing includes.
type ListOptions struct {
	// IncludeMultis includes members of multi-item groups past the first.
	IncludeMultis bool

	// IncludeHidden includes hidden records.
	IncludeHidden bool
}

func (o ListOptions) admits(rec Record) bool {
	if rec.Hidden && !o.IncludeHidden {
		return false
	}
	if rec.Multi && rec.Index > 0 && !o.IncludeMultis {
		return false
	}
	return true
}

// Records returns a copy of every record in registration order.
func (r *Registry) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Entries returns the records admitted by opts in registration order.
func (r *Registry) Entries(opts ListOptions) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, rec := range r.records {
		if opts.admits(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Names returns the names of the records admitted by opts.
func (r *Registry) Names(opts ListOptions) []string {
	entries := r.Entries(opts)
	out := make([]string, len(entries))
	for i, rec := range entries {
		out[i] = rec.Name
	}
	return out
}

// Labels returns the labels of the records admitted by opts.
func (r *Registry) Labels(opts ListOptions) []string {
	entries := r.Entries(opts)
	out := make([]string, len(entries))
	for i, rec := range entries {
		out[i] = rec.Label
	}
	return out
}

// Categories returns the distinct non-empty top-level menu labels of
// visible records, in first-seen order.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, rec := range r.records {
		if rec.Hidden || rec.LabelTop == "" || seen[rec.LabelTop] {
			continue
		}
		seen[rec.LabelTop] = true
		out = append(out, rec.LabelTop)
	}
	return out
}

// The accessors below return the zero value for unknown names.

// Label returns the label of the command called name.
func (r *Registry) Label(name string) string {
	rec, _ := r.FindByName(name)
	return rec.Label
}

// PrefixedLabel returns the submenu-qualified label of the command called name.
func (r *Registry) PrefixedLabel(name string) string {
	rec, ok := r.FindByName(name)
	if !ok {
		return ""
	}
	return rec.PrefixedLabel()
}

// Category returns the top-level menu label of the command called name.
func (r *Registry) Category(name string) string {
	rec, _ := r.FindByName(name)
	return rec.LabelTop
}

// Key returns the current key of the command called name.
func (r *Registry) Key(name string) string {
	rec, _ := r.FindByName(name)
	return rec.Key
}

// DefaultKey returns the default key of the command called name.
func (r *Registry) DefaultKey(name string) string {
	rec, _ := r.FindByName(name)
	return rec.DefaultKey
}

// Enabled reports whether the command called name is enabled.
func (r *Registry) Enabled(name string) bool {
	rec, _ := r.FindByName(name)
	return rec.Enabled
}

// Mention names a command for Describe. An empty Label uses the
// registered label.
type Mention struct {
	Name  string
	Label string
}

// Describe renders commands for help text, each followed by its key in
// parentheses when bound: "Play (Space), Stop".
func (r *Registry) Describe(mentions ...Mention) string {
	parts := make([]string, 0, len(mentions))
	for _, m := range mentions {
		rec, ok := r.FindByName(m.Name)
		label := m.Label
		if label == "" {
			label = rec.Label
		}
		if label == "" {
			label = m.Name
		}
		if ok && rec.Key != "" {
			label += " (" + rec.Key + ")"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}
