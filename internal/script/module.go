package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/cmdmgr/internal/command"
	"github.com/dshills/cmdmgr/internal/command/flags"
	"github.com/dshills/cmdmgr/internal/dispatcher"
)

// ModuleName is the global the command module is installed under.
const ModuleName = "cmd"

// Module exposes a dispatcher and its registry to scripts.
type Module struct {
	disp    *dispatcher.Dispatcher
	ambient func() flags.Flags
}

// NewModule creates a module over disp. ambient is consulted on every call
// that checks enablement; nil means no flags are set.
func NewModule(disp *dispatcher.Dispatcher, ambient func() flags.Flags) *Module {
	if ambient == nil {
		ambient = func() flags.Flags { return 0 }
	}
	return &Module{disp: disp, ambient: ambient}
}

// Install adds the module to s.
func (m *Module) Install(s *State) {
	s.SetModule(ModuleName, map[string]lua.LGFunction{
		"invoke":  m.invoke,
		"enabled": m.enabled,
		"key":     m.key,
		"setkey":  m.setKey,
		"list":    m.list,
		"label":   m.label,
		"flags":   m.flags,
	})
}

func (m *Module) registry() *command.Registry {
	return m.disp.Registry()
}

// member resolves the name argument at position 1 and the optional 1-based
// index following it at position at.
func (m *Module) member(L *lua.LState, at int) (command.Record, bool) {
	name := L.CheckString(1)
	index := L.OptInt(at, 1) - 1
	if index == 0 {
		return m.registry().FindByName(name)
	}
	return m.registry().FindMember(name, index)
}

// fail pushes the nil, message pair scripts test for.
func fail(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

// cmd.invoke(name [, index]) -> true | nil, message, outcome
func (m *Module) invoke(L *lua.LState) int {
	rec, ok := m.member(L, 2)
	if !ok {
		L.Push(lua.LNil)
		L.Push(lua.LString("unknown command " + L.CheckString(1)))
		L.Push(lua.LString(dispatcher.NotFound.String()))
		return 3
	}

	res, err := m.disp.DispatchID(rec.ID, m.ambient())
	if err == nil {
		L.Push(lua.LTrue)
		return 1
	}
	L.Push(lua.LNil)
	L.Push(lua.LString(m.disp.Explain(err)))
	L.Push(lua.LString(res.Outcome.String()))
	return 3
}

// cmd.enabled(name [, index]) -> bool
func (m *Module) enabled(L *lua.LState) int {
	rec, ok := m.member(L, 2)
	L.Push(lua.LBool(ok && dispatcher.Allowed(rec, m.ambient())))
	return 1
}

// cmd.key(name [, index]) -> key | nil
func (m *Module) key(L *lua.LState) int {
	rec, ok := m.member(L, 2)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(rec.Key))
	return 1
}

// cmd.setkey(name, key [, index]) -> true | nil, message
func (m *Module) setKey(L *lua.LState) int {
	name := L.CheckString(1)
	k := L.CheckString(2)
	index := L.OptInt(3, 1) - 1

	var err error
	if index == 0 {
		err = m.registry().SetKey(name, k)
	} else {
		err = m.registry().SetMemberKey(name, index, k)
	}
	if err != nil {
		return fail(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// cmd.label(name) -> prefixed label | nil
func (m *Module) label(L *lua.LState) int {
	rec, ok := m.member(L, 2)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(rec.PrefixedLabel()))
	return 1
}

// cmd.flags() -> ambient flags as a number
func (m *Module) flags(L *lua.LState) int {
	L.Push(lua.LNumber(m.ambient()))
	return 1
}

// cmd.list([multis]) -> array of {id, name, index, label, category, key, default_key, enabled}
func (m *Module) list(L *lua.LState) int {
	recs := m.registry().Entries(command.ListOptions{IncludeMultis: L.OptBool(1, false)})
	ambient := m.ambient()

	out := L.CreateTable(len(recs), 0)
	for _, rec := range recs {
		t := L.CreateTable(0, 8)
		t.RawSetString("id", lua.LNumber(rec.ID))
		t.RawSetString("name", lua.LString(rec.Name))
		t.RawSetString("index", lua.LNumber(rec.Index+1))
		t.RawSetString("label", lua.LString(rec.PrefixedLabel()))
		t.RawSetString("category", lua.LString(rec.Category()))
		t.RawSetString("key", lua.LString(rec.Key))
		t.RawSetString("default_key", lua.LString(rec.DefaultKey))
		t.RawSetString("enabled", lua.LBool(dispatcher.Allowed(rec, ambient)))
		out.Append(t)
	}
	L.Push(out)
	return 1
}
