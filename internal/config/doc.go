// Package config loads the aoe-ctl configuration file.
//
// # Location
//
// The application directory is resolved by AppDir:
//
//   - $AOE_HOME when set
//   - $XDG_CONFIG_HOME/agent-of-empires when set
//   - ~/.config/agent-of-empires otherwise
//
// The configuration lives at <app-dir>/config.toml. Compose overlays,
// session records and lock files are kept in the same directory.
//
// # Format
//
//	[session]
//	default_tool = "claude"
//
//	[sandbox]
//	enabled = true
//	mode = "compose"              # docker | compose
//	image = "ghcr.io/njbrake/aoe-sandbox:latest"
//	cpu_limit = "2"
//	memory_limit = "4g"
//	environment = ["TERM=xterm-256color", "ANTHROPIC_API_KEY"]
//	anonymous_volumes = ["node_modules"]
//	exec_options = "-w /workspace"
//
//	[sandbox.compose]
//	compose_files = ["docker-compose.yml"]
//	agent_service = "aoe-agent"
//
//	[status.tools.aider]
//	running = ["thinking"]
//	prompt_suffixes = ["> "]
//
// Environment entries without "=" are copied from the host environment
// when set. Relative anonymous volumes are placed under /workspace.
//
// # Validation
//
// Load validates after decoding; every failure is a ConfigError.
package config
