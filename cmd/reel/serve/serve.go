// Package servecmder provides the serve command for hosting a built site.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/playbacklabs/reel/api"
	"github.com/playbacklabs/reel/pkg/config"
	"github.com/playbacklabs/reel/pkg/logger"
	"github.com/playbacklabs/reel/pkg/trajectory"
)

const serveLongDesc string = `Serve a built trajectory site.

Hosts the browser shell, the dataset and asset files, and the
server-rendered task fragments. With --mcp the same server also
exposes the dataset to agents over MCP at /mcp.

Run "reel build" first; serve reads the site the build produced.

Examples:
  reel serve
  reel serve --listen :9090
  reel serve --output ./site --mcp`

const serveShortDesc string = "Serve a built trajectory site"

type serveCommander struct {
	listen     string
	outputRoot string
	mcp        bool
	debug      bool
	logger     *zap.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, err := cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %w", err)
			}

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagServeListen,
				config.FlagServeMCP,
				config.FlagOutputRoot,
			})

			cmder.listen = v.GetString("serve.listen")
			cmder.mcp = v.GetBool("serve.mcp")
			cmder.outputRoot = v.GetString("build.output_root")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagServeListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagOutputRoot, &cmder.outputRoot)
	config.AddBoolFlag(cmd, config.Flags, config.FlagServeMCP, &cmder.mcp)

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	datasetPath := filepath.Join(c.outputRoot, "data", "trajectories.json")
	dataset, err := trajectory.Load(datasetPath)
	if err != nil {
		return fmt.Errorf("loading dataset (did you run \"reel build\"?): %w", err)
	}

	apiConfig := api.Config{
		ListenAddr: c.listen,
		DataRoot:   c.outputRoot,
		EnableMCP:  c.mcp,
	}
	server, err := api.NewServer(apiConfig, dataset, c.logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer func() { _ = server.Shutdown() }()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return nil
	}
}
