package testutil

import (
	"embed"
	"encoding/json"

	"github.com/BurntSushi/toml"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/sandbox"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// SandboxedRecord returns the docker-sandboxed session record fixture.
func SandboxedRecord() (*sandbox.Record, error) {
	data, err := LoadFixture("sandboxed_record.json")
	if err != nil {
		return nil, err
	}
	var rec sandbox.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ComposeConfig returns the compose-mode configuration fixture on top of
// the defaults.
func ComposeConfig() (*config.Config, error) {
	data, err := LoadFixture("compose_config.toml")
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
