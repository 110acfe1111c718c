package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/status"
)

const (
	// FileName is the config file inside the app dir.
	FileName = "config.toml"

	// AppDirName is the app directory name under the XDG config home.
	AppDirName = "agent-of-empires"

	DefaultTool         = "claude"
	DefaultImage        = "ghcr.io/njbrake/aoe-sandbox:latest"
	DefaultAgentService = "aoe-agent"
	DefaultComposeFile  = "docker-compose.yml"
)

// ComposeConfig is the [sandbox.compose] section.
type ComposeConfig = runtime.ComposeConfig

// Config is the decoded config.toml.
type Config struct {
	Session SessionConfig `toml:"session"`
	Sandbox SandboxConfig `toml:"sandbox"`
	Status  StatusConfig  `toml:"status"`
}

// SessionConfig holds defaults for new sessions.
type SessionConfig struct {
	DefaultTool string `toml:"default_tool"`
}

// SandboxConfig describes the container wrapped around agent panes.
type SandboxConfig struct {
	Enabled     bool   `toml:"enabled"`
	Mode        string `toml:"mode"`
	Image       string `toml:"image"`
	CPULimit    string `toml:"cpu_limit"`
	MemoryLimit string `toml:"memory_limit"`

	// Environment entries are "KEY=VALUE" literals or bare "KEY" names
	// passed through from the host environment.
	Environment      []string `toml:"environment"`
	AnonymousVolumes []string `toml:"anonymous_volumes"`

	// ExecOptions is inserted verbatim into the interactive exec command.
	ExecOptions string `toml:"exec_options"`

	Compose ComposeConfig `toml:"compose"`
}

// StatusConfig holds per-tool classifier overrides.
type StatusConfig struct {
	Tools map[string]status.Profile `toml:"tools"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Session: SessionConfig{DefaultTool: DefaultTool},
		Sandbox: SandboxConfig{
			Mode:        string(runtime.ModeDocker),
			Image:       DefaultImage,
			Environment: []string{"TERM=xterm-256color"},
			Compose: ComposeConfig{
				ComposeFiles: []string{DefaultComposeFile},
				AgentService: DefaultAgentService,
			},
		},
	}
}

// AppDir resolves the application directory: $AOE_HOME, then
// $XDG_CONFIG_HOME/agent-of-empires, then ~/.config/agent-of-empires.
func AppDir() (string, error) {
	if dir := os.Getenv("AOE_HOME"); dir != "" {
		return dir, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.ConfigError("cannot determine home directory", err)
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// Path returns the config file path inside appDir.
func Path(appDir string) string {
	return filepath.Join(appDir, FileName)
}

// Load reads <appDir>/config.toml over the defaults. A missing or empty
// file yields the defaults.
func Load(appDir string) (*Config, error) {
	cfg := Default()
	path := Path(appDir)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("no config file, using defaults", "path", path)
			return cfg, nil
		}
		return nil, errors.ConfigError("failed to read "+path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.ConfigError("failed to parse "+path, err)
	}
	for _, key := range meta.Undecoded() {
		logging.Warn("unknown config key", "key", key.String(), "path", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the sandbox section.
func (c *Config) Validate() error {
	sb := &c.Sandbox

	switch runtime.Mode(sb.Mode) {
	case runtime.ModeDocker, runtime.ModeCompose:
	default:
		return errors.ConfigError(fmt.Sprintf("invalid sandbox mode %q (must be docker or compose)", sb.Mode), nil)
	}

	if runtime.Mode(sb.Mode) == runtime.ModeCompose {
		if strings.TrimSpace(sb.Compose.AgentService) == "" {
			return errors.ConfigError("sandbox.compose.agent_service is required in compose mode", nil)
		}
		if len(sb.Compose.ComposeFiles) == 0 {
			return errors.ConfigError("sandbox.compose.compose_files must not be empty in compose mode", nil)
		}
		for _, f := range sb.Compose.ComposeFiles {
			if strings.TrimSpace(f) == "" {
				return errors.ConfigError("sandbox.compose.compose_files contains an empty entry", nil)
			}
		}
	}

	if sb.Enabled && sb.Image == "" {
		return errors.ConfigError("sandbox.image is required when the sandbox is enabled", nil)
	}

	for _, entry := range sb.Environment {
		if strings.HasPrefix(entry, "=") || strings.TrimSpace(entry) == "" {
			return errors.ConfigError(fmt.Sprintf("invalid sandbox.environment entry %q", entry), nil)
		}
	}

	if sb.ExecOptions != "" {
		if _, err := shellquote.Split(sb.ExecOptions); err != nil {
			return errors.ConfigError("invalid sandbox.exec_options", err)
		}
	}

	return nil
}

// EnvVars turns the environment entries into ordered key/value pairs.
// Bare names are looked up with lookup and skipped when unset.
func (s *SandboxConfig) EnvVars(lookup func(string) (string, bool)) []runtime.EnvVar {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var vars []runtime.EnvVar
	for _, entry := range s.Environment {
		key, value, literal := strings.Cut(entry, "=")
		if !literal {
			v, ok := lookup(key)
			if !ok {
				logging.Debug("skipping unset pass-through variable", "key", key)
				continue
			}
			value = v
		}
		vars = append(vars, runtime.EnvVar{Key: key, Value: value})
	}
	return vars
}

// ContainerConfig builds the container configuration for a project
// mounted at /workspace.
func (s *SandboxConfig) ContainerConfig(projectPath string, lookup func(string) (string, bool)) *runtime.ContainerConfig {
	const workspace = "/workspace"
	anon := make([]string, 0, len(s.AnonymousVolumes))
	for _, v := range s.AnonymousVolumes {
		if !filepath.IsAbs(v) {
			v = filepath.Join(workspace, v)
		}
		anon = append(anon, v)
	}
	return &runtime.ContainerConfig{
		WorkingDir:       workspace,
		Volumes:          []runtime.VolumeMount{{HostPath: projectPath, ContainerPath: workspace}},
		AnonymousVolumes: anon,
		Environment:      s.EnvVars(lookup),
		CPULimit:         s.CPULimit,
		MemoryLimit:      s.MemoryLimit,
	}
}

// Classifier returns the built-in classifier extended with the
// [status.tools.*] overrides.
func (c *Config) Classifier() *status.Classifier {
	classifier := status.DefaultClassifier()
	for tool, profile := range c.Status.Tools {
		logging.Debug("registering status profile", "tool", tool)
		classifier.Register(tool, profile)
	}
	return classifier
}
