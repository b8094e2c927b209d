// Package viewer embeds the static browser shell for the trajectory
// viewer. The shell fetches server-rendered fragments and the built
// dataset; it keeps no state of its own beyond the current filters.
package viewer

import "embed"

//go:embed index.html styles.css app.js
var FS embed.FS
