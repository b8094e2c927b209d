// Package api provides the HTTP server for browsing an aggregated
// trajectory dataset: the static viewer shell, server-rendered HTML
// fragments, the dataset and asset files, and an optional MCP endpoint.
package api

// Config is the viewer server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// DataRoot is the built site root containing data/trajectories.json
	// and data/assets/.
	DataRoot string

	// EnableMCP mounts the MCP endpoint at /mcp when true.
	EnableMCP bool
}
