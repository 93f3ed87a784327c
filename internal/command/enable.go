package command

import (
	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/command/ident"
)

// SetPolicy replaces the enablement policy of the command called name.
// For a multi-item group every member is updated.
func (r *Registry) SetPolicy(name string, p flags.Policy) error {
	return r.SetPolicies([]string{name}, p)
}

// SetPolicies applies one policy to several commands. Every name must be
// known; otherwise nothing changes and the first unknown name is reported.
func (r *Registry) SetPolicies(names []string, p flags.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	targets := make([]slot, 0, len(names))
	for _, name := range names {
		at, err := r.lookupName("set policy", name)
		if err != nil {
			return err
		}
		targets = append(targets, r.members(name, at)...)
	}
	for _, at := range targets {
		r.records[at].Policy = p
	}
	return nil
}

// ReapplyFlags recomputes the enabled state of every record from its
// policy and the ambient flags.
func (r *Registry) ReapplyFlags(ambient flags.Flags) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		rec := &r.records[i]
		rec.Enabled = rec.Policy.Matches(ambient)
	}
}

// SetEnabled overrides the enabled state of the command called name until
// the next ReapplyFlags. For a multi-item group every member is updated.
func (r *Registry) SetEnabled(name string, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, err := r.lookupName("set enabled", name)
	if err != nil {
		return err
	}
	for _, m := range r.members(name, at) {
		r.records[m].Enabled = on
	}
	return nil
}

// SetEnabledByID overrides the enabled state of a single record.
func (r *Registry) SetEnabledByID(id ident.ID, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, err := r.lookupID("set enabled", id)
	if err != nil {
		return err
	}
	r.records[at].Enabled = on
	return nil
}

// SetChecked sets the check mark of a checkable command. It is a no-op for
// commands registered without Checkable.
func (r *Registry) SetChecked(name string, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, err := r.lookupName("set checked", name)
	if err != nil {
		return err
	}
	if rec := &r.records[at]; rec.Checkable {
		rec.Checked = on
	}
	return nil
}

// SetLabel changes the user-visible label of the command called name.
func (r *Registry) SetLabel(name, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, err := r.lookupName("set label", name)
	if err != nil {
		return err
	}
	r.records[at].Label = label
	return nil
}
