package config

const (
	defaultUsersRoot   = "users"
	defaultOutputRoot  = "site"
	defaultServeListen = ":8080"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Build: BuildConfig{
			UsersRoot:  defaultUsersRoot,
			OutputRoot: defaultOutputRoot,
		},
		Serve: ServeConfig{
			Listen: defaultServeListen,
		},
	}
}
