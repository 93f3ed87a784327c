// Package app is the top-level context that owns a command registry and
// everything built on it.
//
// An App wires together, in order:
//
//  1. Logging (stderr or a rotating file)
//  2. The registry, with its reserved identifier range and suppression set
//  3. The dispatcher, its logging hook and optional metrics
//  4. The command set, produced by a Builder
//  5. Persisted bindings, optionally reloaded when the file changes
//  6. The palette and the Lua scripting state
//
// Several Apps may live in one process; each carries its own instance id
// in every log line.
//
// # Context Switching
//
// SwitchContext replaces the command set without recreating the App: the
// registry is purged, the new builder runs, persisted bindings are applied
// again and enablement is recomputed from the current flags.
package app
