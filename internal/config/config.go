// Package config loads the proxy's YAML configuration file, applying
// defaults and resolving the forwarding secret from the environment when the
// file omits it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full set of proxy settings loaded from config.yaml.
type Config struct {
	BindAddress      string   `yaml:"bind_address"`
	BackendAddress   string   `yaml:"backend_address"`
	ForwardingSecret string   `yaml:"forwarding_secret"`
	TrustedIPs       []string `yaml:"trusted_ips"`
	LogLevel         string   `yaml:"log_level"`
	ControlAddress   string   `yaml:"control_address"`
}

const defaultTemplate = `# mc-forward-proxy configuration.
# The address this proxy listens on.
bind_address: "0.0.0.0:25565"
# The address this proxy forwards authenticated connections to.
backend_address: "127.0.0.1:25566"
# The Velocity forwarding secret. Alternatively set the FORWARDING_SECRET
# environment variable.
forwarding_secret: ""
# IPs allowed to connect directly. Leave empty to allow all.
trusted_ips: []
# One of: off, error, warn, info, debug, trace.
log_level: "info"
# Optional operator control-plane listen address. Leave empty to disable.
control_address: ""
`

// ErrCreatedNew is returned by Load when no config file existed at path; a
// default template was written and the caller should report this as
// informational, not an error, and ask the operator to edit and restart.
var ErrCreatedNew = errors.New("config: wrote a default config, please edit it and restart the proxy")

// ErrNoSecret is returned when no forwarding secret is available from either
// the config file or the FORWARDING_SECRET environment variable.
var ErrNoSecret = errors.New("config: no forwarding secret provided in config or FORWARDING_SECRET")

var validLevels = map[string]bool{
	"off": true, "error": true, "warn": true, "info": true, "debug": true, "trace": true,
}

// Load reads and validates the config at path. If the file does not exist, a
// default template is written and ErrCreatedNew is returned alongside a nil
// Config. The returned warning, if non-empty, should be logged by the
// caller; Load itself never logs so it stays decoupled from internal/logx.
func Load(path string) (cfg *Config, warning string, err error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if writeErr := os.WriteFile(path, []byte(defaultTemplate), 0o644); writeErr != nil {
			return nil, "", fmt.Errorf("config: writing default template: %w", writeErr)
		}
		return nil, "", fmt.Errorf("%w: %s", ErrCreatedNew, path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg = &Config{}
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, "", fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyDefaults(cfg)

	if err := resolveSecret(cfg, &warning); err != nil {
		return nil, "", err
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if !validLevels[cfg.LogLevel] {
		return nil, "", fmt.Errorf("config: unknown log_level %q, must be one of off/error/warn/info/debug/trace", cfg.LogLevel)
	}

	return cfg, warning, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BindAddress == "" {
		cfg.BindAddress = "0.0.0.0:25565"
	}
	if cfg.BackendAddress == "" {
		cfg.BackendAddress = "127.0.0.1:25566"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// resolveSecret implements the same precedence as the reference
// implementation: a non-empty environment variable always wins, with a
// warning recorded when both the file and the environment provide a secret.
func resolveSecret(cfg *Config, warning *string) error {
	env, hasEnv := os.LookupEnv("FORWARDING_SECRET")
	fileHas := cfg.ForwardingSecret != ""

	switch {
	case !fileHas && (!hasEnv || env == ""):
		return ErrNoSecret
	case fileHas && (!hasEnv || env == ""):
		// keep cfg.ForwardingSecret as-is
	case !fileHas && hasEnv && env != "":
		cfg.ForwardingSecret = env
	default: // fileHas && hasEnv && env != ""
		*warning = "forwarding secret specified in both config and environment; using the environment value"
		cfg.ForwardingSecret = env
	}
	return nil
}
