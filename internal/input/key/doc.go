// Package key provides key-combination types and the canonical shortcut text
// used to index commands.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Key: Identifies a keyboard key (special keys, function keys, or runes)
//   - Modifier: Represents modifier keys (Ctrl, Alt, Shift, Meta)
//   - Event: A single captured key combination plus the phase (press or
//     release) it was captured in
//
// # Shortcut Text
//
// Shortcut specifications can be written in several formats:
//
//   - Simple keys: "a", "J", "1", "Enter", "Space", "F5"
//   - With modifiers: "Ctrl+S", "alt+f4", "Ctrl+Shift+P"
//   - Vim-style: "<C-s>", "<A-f>", "<C-S-p>", "<CR>", "<Esc>"
//
// All of them normalize to one canonical form produced by Canonical and
// Event.Shortcut: modifiers in the fixed order Ctrl, Alt, Shift, Meta joined
// with "+", followed by the key name. Letters are upper case and never imply
// Shift, so "a", "A" and "<a>" all canonicalize to "A".
package key
