package command

import (
	"sort"

	"github.com/dshills/cmdmgr/internal/command/ident"
)

// SetKey binds k to the command called name. Any other command holding k
// loses it. An empty k unbinds the command. For a multi-item group this
// binds the first member; use SetMemberKey for the others.
func (r *Registry) SetKey(name, k string) error {
	canon, err := canonicalKey(k)
	if err != nil {
		return &NameError{Op: "set key", Name: name, Err: err}
	}

	r.mu.Lock()
	at, err := r.lookupName("set key", name)
	var d *Displacement
	if err == nil {
		d = r.bind(at, canon)
	}
	r.mu.Unlock()

	r.notify(d)
	return err
}

// SetMemberKey binds k to member index of the group called name.
func (r *Registry) SetMemberKey(name string, index int, k string) error {
	canon, err := canonicalKey(k)
	if err != nil {
		return &NameError{Op: "set key", Name: name, Err: err}
	}

	r.mu.Lock()
	at, err := r.lookupMember("set key", name, index)
	var d *Displacement
	if err == nil {
		d = r.bind(at, canon)
	}
	r.mu.Unlock()

	r.notify(d)
	return err
}

// SetKeyByID binds k to the command with identifier id.
func (r *Registry) SetKeyByID(id ident.ID, k string) error {
	canon, err := canonicalKey(k)
	if err != nil {
		return err
	}

	r.mu.Lock()
	at, err := r.lookupID("set key", id)
	var d *Displacement
	if err == nil {
		d = r.bind(at, canon)
	}
	r.mu.Unlock()

	r.notify(d)
	return err
}

// ResetKeyToDefault restores the default key of the command called name,
// displacing any other holder. The suppression set is not consulted.
func (r *Registry) ResetKeyToDefault(name string) error {
	r.mu.Lock()
	at, err := r.lookupName("reset key", name)
	var d *Displacement
	if err == nil {
		d = r.bind(at, r.records[at].DefaultKey)
	}
	r.mu.Unlock()

	r.notify(d)
	return err
}

// ResetAllKeys restores every command's key to the state it had right after
// registration: defaults in registration order, earlier holders winning
// collisions, suppressed keys left unbound.
func (r *Registry) ResetAllKeys() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byKey = make(map[string]slot)
	for i := range r.records {
		r.records[i].Key = ""
	}
	for i := range r.records {
		rec := &r.records[i]
		rec.Key = r.initialKey(rec.DefaultKey)
		if rec.Key != "" {
			r.byKey[rec.Key] = slot(i)
		}
	}
}

// bind moves canonical key k to the record at at. It returns the
// displacement, if another record lost k.
func (r *Registry) bind(at slot, k string) *Displacement {
	rec := &r.records[at]
	if rec.Key == k {
		return nil
	}
	if rec.Key != "" {
		delete(r.byKey, rec.Key)
	}

	var d *Displacement
	if k != "" {
		if other, held := r.byKey[k]; held {
			r.records[other].Key = ""
			d = &Displacement{Key: k, From: r.records[other].Name, To: rec.Name}
		}
		r.byKey[k] = at
	}
	rec.Key = k
	return d
}

func (r *Registry) notify(d *Displacement) {
	if d != nil && r.onDisplace != nil {
		r.onDisplace(*d)
	}
}

// Suppress adds keys to the suppression set. Commands registered later
// whose default key is suppressed start unbound. On error nothing is added.
func (r *Registry) Suppress(keys ...string) error {
	canon := make([]string, 0, len(keys))
	for _, k := range keys {
		c, err := canonicalKey(k)
		if err != nil {
			return err
		}
		if c != "" {
			canon = append(canon, c)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range canon {
		r.suppressed[c] = struct{}{}
	}
	return nil
}

// ClearSuppressed empties the suppression set.
func (r *Registry) ClearSuppressed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppressed = make(map[string]struct{})
}

// Suppressed returns the suppression set, sorted.
func (r *Registry) Suppressed() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.suppressed))
	for k := range r.suppressed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Duplicate is a default key claimed by more than one command.
type Duplicate struct {
	Key   string
	Names []string
}

// CheckDuplicates reports default keys shared by several commands, sorted
// by key. Names are in registration order; the first keeps the key.
func (r *Registry) CheckDuplicates() []Duplicate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	claims := make(map[string][]string)
	var order []string
	for _, rec := range r.records {
		if rec.DefaultKey == "" {
			continue
		}
		if _, seen := claims[rec.DefaultKey]; !seen {
			order = append(order, rec.DefaultKey)
		}
		claims[rec.DefaultKey] = append(claims[rec.DefaultKey], rec.Name)
	}

	var out []Duplicate
	for _, k := range order {
		if names := claims[k]; len(names) > 1 {
			out = append(out, Duplicate{Key: k, Names: names})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
