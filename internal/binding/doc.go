// Package binding saves and restores user key bindings.
//
// A binding names a command (and, for a multi-item group, a member index)
// and the key it should carry. Export collects bindings from a registry,
// Apply pushes them back through Registry.SetMemberKey so the usual
// displacement rule holds. Codecs translate bindings to and from XML,
// YAML and TOML documents:
//
//	<keyboard version="1">
//	  <command name="Play" key="Space"/>
//	  <command name="Recent" index="2" key="Ctrl+2"/>
//	</keyboard>
//
// Unknown command names are skipped and counted. Entries the codec cannot
// interpret are reported as *MalformedError and do not stop the rest of the
// document from loading.
package binding
