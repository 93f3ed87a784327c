// Package script runs Lua scripts against a command registry.
//
// Scripts see a single global module, cmd, through which they can inspect
// and invoke registered commands:
//
//	if cmd.enabled("Play") then
//	    cmd.invoke("Play")
//	end
//	cmd.setkey("Stop", "Ctrl+.")
//	for _, c in ipairs(cmd.list()) do
//	    print(c.name, c.key)
//	end
//
// Invocations go through the dispatcher, so enablement is checked against
// the ambient flags in effect when the call is made. Multi-item members
// are addressed with a 1-based index: cmd.invoke("OpenRecent", 2).
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened. Functions
// that load code from disk or from strings are removed, and every run is
// bounded by a timeout.
//
// # Thread Safety
//
// A State serializes its runs. A handler invoked from a script must not
// run another script on the same State.
package script
