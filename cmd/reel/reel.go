// Package reelcmder
package reelcmder

import (
	"github.com/spf13/cobra"

	buildcmder "github.com/playbacklabs/reel/cmd/reel/build"
	configcmder "github.com/playbacklabs/reel/cmd/reel/config"
	servecmder "github.com/playbacklabs/reel/cmd/reel/serve"
	viewcmder "github.com/playbacklabs/reel/cmd/reel/view"
)

const reelLongDesc string = `Reel builds and plays back recorded agent trajectories.

Aggregate recorded sessions and browse them using:
  reel build     Aggregate session folders into a static site
  reel serve     Serve the built site with fragment and MCP endpoints
  reel view      Browse the built dataset in the terminal`

const reelShortDesc string = "Reel - Agent Trajectory Playback"

func NewReelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reel",
		Short: reelShortDesc,
		Long:  reelLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing the .reel config directory")

	// Add subcommands
	cmd.AddCommand(buildcmder.NewBuildCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(viewcmder.NewViewCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())

	return cmd
}
