package command

import (
	"fmt"
	"sync"

	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/command/ident"
	"github.com/dshills/cmdmgr/internal/input/key"
)

// slot is a position in the record arena.
type slot int

// group locates the members of a multi-item group in the arena.
type group struct {
	first slot
	count int
}

// Displacement reports a key moving from one command to another.
type Displacement struct {
	Key  string
	From string
	To   string
}

// Option configures a Registry.
type Option func(*Registry)

// WithReserved sets the top of the reserved identifier range.
func WithReserved(reserved ident.ID) Option {
	return func(r *Registry) {
		r.reserved = reserved
	}
}

// WithDisplaceHook sets a function called after a key is taken from one
// command and given to another. It runs without the registry lock held.
func WithDisplaceHook(fn func(Displacement)) Option {
	return func(r *Registry) {
		r.onDisplace = fn
	}
}

// WithDefaultPolicy sets the policy given to registrations that leave
// Policy nil.
func WithDefaultPolicy(p flags.Policy) Option {
	return func(r *Registry) {
		r.defaultPolicy = p
	}
}

// Registry owns every command record and the indexes over them.
// It is safe for concurrent use; handlers are never called by the registry.
type Registry struct {
	mu sync.RWMutex

	reserved ident.ID
	alloc    *ident.Allocator

	records []Record
	byName  map[string]slot
	byKey   map[string]slot
	byID    map[ident.ID]slot
	groups  map[string]group

	suppressed    map[string]struct{}
	defaultPolicy flags.Policy
	hidden        bool
	menu          menuState

	onDisplace func(Displacement)
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		reserved:   ident.DefaultReserved,
		suppressed: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.alloc = ident.NewAllocator(r.reserved)
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.records = nil
	r.byName = make(map[string]slot)
	r.byKey = make(map[string]slot)
	r.byID = make(map[ident.ID]slot)
	r.groups = make(map[string]group)
	r.menu = menuState{}
}

// Purge removes every record. Identifiers keep counting from where they
// were, so an identifier issued before a purge never names a later record.
// The suppression set, default policy and hidden mode are kept.
func (r *Registry) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Reserved returns the top of the reserved identifier range.
func (r *Registry) Reserved() ident.ID {
	return r.reserved
}

// SetDefaultPolicy sets the policy used by later registrations that leave
// Policy nil. Existing records are unchanged.
func (r *Registry) SetDefaultPolicy(p flags.Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultPolicy = p
}

// DefaultPolicy returns the current default policy.
func (r *Registry) DefaultPolicy() flags.Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultPolicy
}

// SetHiddenMode marks every record registered while on as hidden.
func (r *Registry) SetHiddenMode(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hidden = on
}

// Register adds a single command and returns its identifier.
// On error the registry is unchanged.
func (r *Registry) Register(s Spec) (ident.ID, error) {
	return r.register(s, false)
}

// RegisterGlobal adds a command that stays reachable while focus is outside
// the main window. Global commands never get a menu item.
func (r *Registry) RegisterGlobal(s Spec) (ident.ID, error) {
	s.NoMenu = true
	return r.register(s, true)
}

func (r *Registry) register(s Spec, global bool) (ident.ID, error) {
	const op = "register"
	if s.Name == "" {
		return ident.None, &NameError{Op: op, Name: s.Name, Err: ErrInvalidName}
	}
	if s.Handler == nil {
		return ident.None, &NameError{Op: op, Name: s.Name, Err: ErrNoHandler}
	}
	def, err := canonicalKey(s.Key)
	if err != nil {
		return ident.None, &NameError{Op: op, Name: s.Name, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byName[s.Name]; dup {
		return ident.None, &NameError{Op: op, Name: s.Name, Err: ErrDuplicateName}
	}
	id, err := r.alloc.Next()
	if err != nil {
		return ident.None, &NameError{Op: op, Name: s.Name, Err: err}
	}

	label := s.Label
	if label == "" {
		label = s.Name
	}
	rec := Record{
		ID:          id,
		Name:        s.Name,
		DefaultKey:  def,
		Label:       label,
		Handler:     s.Handler,
		Parameter:   s.Parameter,
		Policy:      r.policyOrDefault(s.Policy),
		Count:       1,
		Enabled:     true,
		Checkable:   s.Checkable,
		Checked:     s.Checkable && s.Checked,
		SkipKeyDown: s.SkipKeyDown,
		WantKeyUp:   s.WantKeyUp,
		Global:      global,
		Hidden:      r.hidden,
		NoMenu:      s.NoMenu,
	}
	rec.Key = r.initialKey(def)
	at := r.insert(rec)
	r.byName[s.Name] = at
	return id, nil
}

// RegisterMulti adds a multi-item group and returns the identifier of its
// first member. Member i has identifier base+i.
func (r *Registry) RegisterMulti(s MultiSpec) (ident.ID, error) {
	const op = "register multi"
	if s.Name == "" {
		return ident.None, &NameError{Op: op, Name: s.Name, Err: ErrInvalidName}
	}
	if s.Count <= 0 {
		return ident.None, &NameError{Op: op, Name: s.Name, Err: fmt.Errorf("%w: %d", ErrInvalidCount, s.Count)}
	}
	if s.Handler == nil {
		return ident.None, &NameError{Op: op, Name: s.Name, Err: ErrNoHandler}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byName[s.Name]; dup {
		return ident.None, &NameError{Op: op, Name: s.Name, Err: ErrDuplicateName}
	}
	base, err := r.alloc.Block(s.Count)
	if err != nil {
		return ident.None, &NameError{Op: op, Name: s.Name, Err: err}
	}

	policy := r.policyOrDefault(s.Policy)
	var first slot
	for i := 0; i < s.Count; i++ {
		label := s.Name
		if s.Label != nil {
			label = s.Label(i)
		}
		var param any = i
		if s.Parameter != nil {
			param = s.Parameter(i)
		}
		at := r.insert(Record{
			ID:        base + ident.ID(i),
			Name:      s.Name,
			Label:     label,
			Handler:   s.Handler,
			Parameter: param,
			Policy:    policy,
			Multi:     true,
			Index:     i,
			Count:     s.Count,
			Enabled:   true,
			Hidden:    r.hidden,
		})
		if i == 0 {
			first = at
		}
	}
	r.byName[s.Name] = first
	r.groups[s.Name] = group{first: first, count: s.Count}
	return base, nil
}

func (r *Registry) policyOrDefault(p *flags.Policy) flags.Policy {
	if p == nil {
		return r.defaultPolicy
	}
	return *p
}

// initialKey decides the current key of a new record. Suppressed keys and
// keys already held by an earlier record start unbound.
func (r *Registry) initialKey(def string) string {
	if def == "" {
		return ""
	}
	if _, off := r.suppressed[def]; off {
		return ""
	}
	if _, held := r.byKey[def]; held {
		return ""
	}
	return def
}

// insert appends rec to the arena, indexes its identifier and key, and
// records its menu position.
func (r *Registry) insert(rec Record) slot {
	r.menu.stamp(&rec)
	at := slot(len(r.records))
	r.records = append(r.records, rec)
	r.byID[rec.ID] = at
	if rec.Key != "" {
		r.byKey[rec.Key] = at
	}
	if !rec.NoMenu && !rec.Hidden {
		r.menu.addItem(at)
	}
	return at
}

// lookupName returns the slot for name, or a NameError for op.
func (r *Registry) lookupName(op, name string) (slot, error) {
	at, ok := r.byName[name]
	if !ok {
		return 0, &NameError{Op: op, Name: name, Err: ErrUnknownName}
	}
	return at, nil
}

func (r *Registry) lookupID(op string, id ident.ID) (slot, error) {
	at, ok := r.byID[id]
	if !ok {
		return 0, fmt.Errorf("%s %d: %w", op, id, ErrUnknownID)
	}
	return at, nil
}

// lookupMember returns the slot of member index of the group called name.
// Index 0 of a plain command is the command itself.
func (r *Registry) lookupMember(op, name string, index int) (slot, error) {
	at, err := r.lookupName(op, name)
	if err != nil {
		return 0, err
	}
	g, multi := r.groups[name]
	if !multi {
		if index != 0 {
			return 0, &NameError{Op: op, Name: name, Err: fmt.Errorf("%w: %d", ErrInvalidIndex, index)}
		}
		return at, nil
	}
	if index < 0 || index >= g.count {
		return 0, &NameError{Op: op, Name: name, Err: fmt.Errorf("%w: %d of %d", ErrInvalidIndex, index, g.count)}
	}
	return g.first + slot(index), nil
}

// members returns every slot addressed by a name: the whole group for a
// multi-item name, otherwise just the one record.
func (r *Registry) members(name string, at slot) []slot {
	g, multi := r.groups[name]
	if !multi {
		return []slot{at}
	}
	out := make([]slot, g.count)
	for i := range out {
		out[i] = g.first + slot(i)
	}
	return out
}

// FindByName returns the record called name. For a multi-item group this
// is the first member.
func (r *Registry) FindByName(name string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	at, ok := r.byName[name]
	if !ok {
		return Record{}, false
	}
	return r.records[at], true
}

// FindMember returns member index of the group called name.
func (r *Registry) FindMember(name string, index int) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	at, err := r.lookupMember("find", name, index)
	if err != nil {
		return Record{}, false
	}
	return r.records[at], true
}

// FindByKey returns the record currently bound to k. k need not be canonical.
func (r *Registry) FindByKey(k string) (Record, bool) {
	canon, err := key.Canonical(k)
	if err != nil || canon == "" {
		return Record{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	at, ok := r.byKey[canon]
	if !ok {
		return Record{}, false
	}
	return r.records[at], true
}

// FindByID returns the record with identifier id.
func (r *Registry) FindByID(id ident.ID) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	at, ok := r.byID[id]
	if !ok {
		return Record{}, false
	}
	return r.records[at], true
}

func canonicalKey(k string) (string, error) {
	canon, err := key.Canonical(k)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidKey, k, err)
	}
	return canon, nil
}
