// Package command implements the command registry: the authoritative table
// of named, identified, key-bindable commands.
//
// Records live in an arena owned by the Registry. The name, key and
// identifier indexes hold positions in that arena, so every index always
// agrees with the records themselves. Lookups return copies; all changes go
// through Registry methods.
//
// A typical setup registers commands inside a menu structure, applies a
// default policy, then calls ReapplyFlags whenever the application's
// context changes:
//
//	reg := command.NewRegistry()
//	reg.BeginMenu("Transport")
//	reg.Register(command.Spec{Name: "Play", Label: "Play", Key: "Space", Handler: h})
//	reg.EndMenu()
//	reg.ReapplyFlags(ambient)
//
// Keys are stored in the canonical text produced by key.Canonical.
package command
