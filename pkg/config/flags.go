package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g.,
// --users-root on both "reel build" and "reel view").
type Flag struct {
	// Name is the long flag name (e.g. "users-root").
	Name string

	// Shorthand is the one-letter short flag (e.g. "u"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "build.users_root").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddBoolFlag, and
// BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagUsersRoot    = "users-root"
	FlagOutputRoot   = "output"
	FlagSystemPrompt = "system-prompt"
	FlagServeListen  = "listen"
	FlagServeMCP     = "mcp"
)

// Flags is the shared registry used by the reel commands. Commands pick
// the subset they need via AddStringFlag/AddBoolFlag and bind them in
// PreRunE with BindRegisteredFlags.
var Flags = FlagSet{
	FlagUsersRoot: {
		Name:        FlagUsersRoot,
		Shorthand:   "u",
		ViperKey:    "build.users_root",
		Description: "Directory of per-user recorded task sessions",
	},
	FlagOutputRoot: {
		Name:        FlagOutputRoot,
		Shorthand:   "o",
		ViperKey:    "build.output_root",
		Description: "Site root to build into and serve from",
	},
	FlagSystemPrompt: {
		Name:        FlagSystemPrompt,
		ViperKey:    "build.system_prompt",
		Description: "System prompt seeding each task timeline",
	},
	FlagServeListen: {
		Name:        FlagServeListen,
		Shorthand:   "l",
		ViperKey:    "serve.listen",
		Description: "Address for the viewer server to listen on",
	},
	FlagServeMCP: {
		Name:        FlagServeMCP,
		ViperKey:    "serve.mcp",
		Description: "Expose the MCP endpoint at /mcp",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
