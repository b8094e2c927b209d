// Package viewcmder provides the view command, a terminal browser over a
// built trajectory dataset.
package viewcmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/playbacklabs/reel/pkg/cliui"
	"github.com/playbacklabs/reel/pkg/config"
	"github.com/playbacklabs/reel/pkg/trajectory"
	"github.com/playbacklabs/reel/pkg/utils"
	"github.com/playbacklabs/reel/pkg/viewer"
)

const viewLongDesc string = `Browse a built trajectory dataset in the terminal.

Opens a full-screen browser over the tasks "reel build" produced:
filter by text and user, drill into a task to step through its
actions, toggle annotated screenshot variants, and inspect the raw
message timeline.

Examples:
  reel view
  reel view --output ./site
  reel view --user alice
  reel view --task alice-book-a-flight`

const viewShortDesc string = "Browse a built dataset in the terminal"

type viewCommander struct {
	outputRoot string
	query      string
	user       string
	task       string
	debug      bool
}

func NewViewCmd() *cobra.Command {
	cmder := &viewCommander{}

	cmd := &cobra.Command{
		Use:   "view",
		Short: viewShortDesc,
		Long:  viewLongDesc,
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
				config.FlagOutputRoot,
			})

			cmder.outputRoot = v.GetString("build.output_root")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagOutputRoot, &cmder.outputRoot)
	cmd.Flags().StringVarP(&cmder.query, "query", "q", "", "Initial free-text task filter")
	cmd.Flags().StringVar(&cmder.user, "user", "", "Initial user filter")
	cmd.Flags().StringVar(&cmder.task, "task", "", "Open directly on the task with this slug")

	return cmd
}

func (c *viewCommander) run(cmd *cobra.Command) error {
	datasetPath := filepath.Join(c.outputRoot, "data", "trajectories.json")
	dataset, err := trajectory.Load(datasetPath)
	if err != nil {
		return fmt.Errorf("loading dataset (did you run \"reel build\"?): %w", err)
	}

	state := viewer.NewState(dataset)
	if c.query != "" {
		state.SetQuery(c.query)
	}
	if c.user != "" {
		state.SetUser(c.user)
	}

	openTask := false
	if c.task != "" {
		if !state.Select(c.task) {
			return fmt.Errorf("no task with slug %q in the filtered set", c.task)
		}
		openTask = true
	}

	// When stdout is piped there is no screen to take over; print the
	// filtered task listing instead.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return printTaskList(state, cmd.OutOrStdout())
	}

	return runViewTUI(cmd.Context(), state, openTask)
}

// listNameLimit keeps piped listing lines on one row even for run-on
// recorded task names.
const listNameLimit = 64

func taskListMarkdown(state *viewer.State) string {
	var sb strings.Builder
	sb.WriteString("# Tasks\n\n")

	filtered := state.Filtered()
	if len(filtered) == 0 {
		sb.WriteString(state.EmptyMessage() + "\n")
	}
	for i := range filtered {
		task := filtered[i]
		fmt.Fprintf(&sb, "- **%s** (`%s`) · %s · %d steps\n",
			utils.Truncate(task.Name, listNameLimit), task.Slug, task.Owner(), task.Stats.TotalSteps)
	}

	return sb.String()
}

func printTaskList(state *viewer.State, out io.Writer) error {
	source := taskListMarkdown(state)

	rendered, err := cliui.RenderMarkdown(source)
	if err != nil {
		// RenderMarkdown hands the source back on failure.
		rendered = source
	}
	_, err = io.WriteString(out, rendered)
	return err
}
