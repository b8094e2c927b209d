package config

import (
	"strconv"
)

// Config represents the persistent reel configuration stored as config.toml
// in the .reel/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int         `toml:"version"`
	Build   BuildConfig `toml:"build"`
	Serve   ServeConfig `toml:"serve"`
}

// BuildConfig holds dataset aggregation settings.
type BuildConfig struct {
	UsersRoot    string `toml:"users_root,omitempty"`
	OutputRoot   string `toml:"output_root,omitempty"`
	SystemPrompt string `toml:"system_prompt,omitempty"`
}

// ServeConfig holds viewer server settings.
type ServeConfig struct {
	Listen string `toml:"listen,omitempty"`
	MCP    bool   `toml:"mcp,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"build.users_root": {
		get: func(c *Config) string { return c.Build.UsersRoot },
		set: func(c *Config, v string) error { c.Build.UsersRoot = v; return nil },
	},
	"build.output_root": {
		get: func(c *Config) string { return c.Build.OutputRoot },
		set: func(c *Config, v string) error { c.Build.OutputRoot = v; return nil },
	},
	"build.system_prompt": {
		get: func(c *Config) string { return c.Build.SystemPrompt },
		set: func(c *Config, v string) error { c.Build.SystemPrompt = v; return nil },
	},
	"serve.listen": {
		get: func(c *Config) string { return c.Serve.Listen },
		set: func(c *Config, v string) error { c.Serve.Listen = v; return nil },
	},
	"serve.mcp": {
		get: func(c *Config) string { return strconv.FormatBool(c.Serve.MCP) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errInvalidBool("serve.mcp", err)
			}
			c.Serve.MCP = b
			return nil
		},
	},
}
