package viewer

import (
	"fmt"
	"strings"

	"github.com/playbacklabs/reel/pkg/trajectory"
)

// AllUsers disables the user filter.
const AllUsers = ""

// Filter returns the tasks matching the free-text query and user
// selection. The query is trimmed and matched case-insensitively as a
// substring of the task name or slug; an empty query matches everything.
// The user filter is an exact match against the task's owner (with the
// Unknown sentinel for userless tasks). Dataset order is preserved.
func Filter(tasks []trajectory.Task, query, user string) []trajectory.Task {
	needle := strings.ToLower(strings.TrimSpace(query))

	filtered := make([]trajectory.Task, 0, len(tasks))
	for i := range tasks {
		task := tasks[i]
		if user != AllUsers && task.Owner() != user {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(task.Name), needle) &&
			!strings.Contains(strings.ToLower(task.Slug), needle) {
			continue
		}
		filtered = append(filtered, task)
	}
	return filtered
}

// RepairSelection applies the selection-repair rule after a filter change:
// if activeSlug is still present it stays active; otherwise the first task
// of the filtered set becomes active; an empty set leaves nothing active.
// The second return reports whether any task is active.
func RepairSelection(filtered []trajectory.Task, activeSlug string) (string, bool) {
	for i := range filtered {
		if filtered[i].Slug == activeSlug {
			return activeSlug, true
		}
	}
	if len(filtered) > 0 {
		return filtered[0].Slug, true
	}
	return "", false
}

// EmptyMessage is the filter-aware message shown in place of results when
// the filtered set is empty.
func EmptyMessage(user string) string {
	if user != AllUsers {
		return fmt.Sprintf("No tasks for %s.", user)
	}
	return "No tasks found."
}
