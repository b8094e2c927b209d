package builder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	sessionFile = "session_data.json"
	eventsFile  = "llm_events.json"
)

// screenshotDirs are the known screenshot locations inside a task
// directory, in lookup preference order.
var screenshotDirs = []string{
	"imgs",
	filepath.Join("videos", "frames_display_1"),
}

type taskDir struct {
	user string
	path string
}

// iterTaskDirs walks <usersRoot>/<user>/<task>/ and returns the task
// directories that look like recorded sessions: they carry a
// session_data.json and at least one screenshot directory. Users and
// tasks are ordered case-insensitively by name.
func iterTaskDirs(usersRoot string) ([]taskDir, error) {
	userEntries, err := os.ReadDir(usersRoot)
	if err != nil {
		return nil, fmt.Errorf("reading users root: %w", err)
	}
	sortEntries(userEntries)

	var dirs []taskDir
	for _, userEntry := range userEntries {
		if !userEntry.IsDir() {
			continue
		}
		userDir := filepath.Join(usersRoot, userEntry.Name())

		taskEntries, err := os.ReadDir(userDir)
		if err != nil {
			return nil, fmt.Errorf("reading user dir %s: %w", userDir, err)
		}
		sortEntries(taskEntries)

		for _, taskEntry := range taskEntries {
			if !taskEntry.IsDir() {
				continue
			}
			path := filepath.Join(userDir, taskEntry.Name())
			if !isSessionDir(path) {
				continue
			}
			dirs = append(dirs, taskDir{user: userEntry.Name(), path: path})
		}
	}
	return dirs, nil
}

func sortEntries(entries []os.DirEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})
}

func isSessionDir(path string) bool {
	if _, err := os.Stat(filepath.Join(path, sessionFile)); err != nil {
		return false
	}
	for _, dir := range screenshotDirs {
		if info, err := os.Stat(filepath.Join(path, dir)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// sessionData is the subset of session_data.json the aggregator reads.
type sessionData struct {
	TaskName string         `json:"taskName"`
	Metadata map[string]any `json:"metadata"`
}

func readSession(path string) (*sessionData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	session := &sessionData{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return session, nil
}

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	slugCollapse = regexp.MustCompile(`-{2,}`)
)

// Slugify lowercases the value and folds every non-alphanumeric run into
// a single hyphen, trimming hyphens at both ends.
func Slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = slugInvalid.ReplaceAllString(value, "-")
	value = slugCollapse.ReplaceAllString(value, "-")
	return strings.Trim(value, "-")
}
