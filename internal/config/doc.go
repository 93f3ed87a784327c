// Package config loads the command manager's settings.
//
// Settings come from three sources, later ones overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, by default $XDG_CONFIG_HOME/cmdmgr/config.toml
//  3. CMDMGR_* environment variables
//
// A missing file is not an error. Unknown keys in the file are.
//
// # Configuration File
//
//	[registry]
//	reserved_ids = 5999
//	suppressed_keys = ["Space"]
//
//	[bindings]
//	file = "keys.xml"       # relative to the config file
//	format = "xml"          # xml, yaml or toml; defaults to the extension
//	policy = "customized"   # or "all"
//	watch = true
//
//	[dispatch]
//	recover_panics = true
//	metrics = false
//
//	[log]
//	level = "info"
//	file = ""               # stderr when empty
//	max_size_mb = 10
//	max_backups = 3
package config
