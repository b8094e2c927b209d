// Package buildcmder provides the build command for aggregating recorded
// sessions into the static viewer site.
package buildcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/playbacklabs/reel/pkg/builder"
	"github.com/playbacklabs/reel/pkg/cliui"
	"github.com/playbacklabs/reel/pkg/config"
	webviewer "github.com/playbacklabs/reel/web/viewer"
)

const buildLongDesc string = `Aggregate recorded sessions into a static viewer site.

Scans the users root for task session folders, normalizes their event
logs into a single trajectories.json dataset, copies the referenced
screenshots into a de-duplicated asset tree, and drops the browser
shell next to them. The result is a self-contained directory that
"reel serve" can host or any static file server can publish.

Examples:
  reel build
  reel build --users-root ./recordings --output ./site
  reel build --watch`

const buildShortDesc string = "Aggregate sessions into a static viewer site"

type buildCommander struct {
	usersRoot    string
	outputRoot   string
	systemPrompt string
	watch        bool
	debug        bool
}

func NewBuildCmd() *cobra.Command {
	cmder := &buildCommander{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: buildShortDesc,
		Long:  buildLongDesc,
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
				config.FlagUsersRoot,
				config.FlagOutputRoot,
				config.FlagSystemPrompt,
			})

			cmder.usersRoot = v.GetString("build.users_root")
			cmder.outputRoot = v.GetString("build.output_root")
			cmder.systemPrompt = v.GetString("build.system_prompt")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagUsersRoot, &cmder.usersRoot)
	config.AddStringFlag(cmd, config.Flags, config.FlagOutputRoot, &cmder.outputRoot)
	config.AddStringFlag(cmd, config.Flags, config.FlagSystemPrompt, &cmder.systemPrompt)
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Rebuild whenever the users root changes")

	return cmd
}

func (c *buildCommander) run(ctx context.Context) error {
	level := charmlog.InfoLevel
	if c.debug {
		level = charmlog.DebugLevel
	}
	log := charmlog.NewWithOptions(os.Stderr, charmlog.Options{Level: level})

	opts := builder.Options{
		UsersRoot:    c.usersRoot,
		OutputRoot:   c.outputRoot,
		SystemPrompt: c.systemPrompt,
		Scaffold:     webviewer.FS,
		Logger:       log,
	}

	var report *builder.Report
	err := cliui.Step(os.Stdout, fmt.Sprintf("Building %s", c.outputRoot), func() error {
		var buildErr error
		report, buildErr = builder.Build(ctx, opts)
		return buildErr
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %s\n",
		cliui.KeyStyle.Render("Tasks:"),
		cliui.ValueStyle.Render(strconv.Itoa(report.TaskCount)),
	)
	fmt.Printf("  %s %s\n",
		cliui.KeyStyle.Render("Assets:"),
		cliui.ValueStyle.Render(strconv.Itoa(report.AssetCount)),
	)
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Dataset:"),
		cliui.DimStyle.Render(report.OutputPath),
	)

	if !c.watch {
		return nil
	}

	fmt.Printf("  Watching %s for changes. Press Ctrl-C to stop.\n\n", c.usersRoot)

	watchCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := builder.Watch(watchCtx, opts); err != nil && watchCtx.Err() == nil {
		return err
	}
	return nil
}
