// Package palette provides a searchable view of the command registry.
//
// The palette lists every visible command with its label, category and
// current shortcut, ranks them against a typed query with fuzzy matching,
// and runs the chosen one through the dispatcher so that the usual
// enablement check applies.
//
// # Usage
//
//	p := palette.New(disp)
//
//	// Search commands
//	results := p.Search("play", ambient, 10)
//
//	// Execute the best match
//	_, err := p.Execute(results[0].Entry.ID, ambient)
//
// # History
//
// Every successful dispatch, whether it came from the palette, a menu or a
// key, is recorded so that recently used commands rank higher:
//
//	// Recent commands appear first with empty query
//	results := p.Search("", ambient, 10)
//
// # Thread Safety
//
// All palette operations are safe for concurrent use.
package palette
