// Package builder aggregates raw per-user session folders into the
// normalized trajectory dataset the viewer consumes: one JSON document
// plus a flat, de-duplicated tree of copied screenshot assets and the
// static viewer scaffold.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/playbacklabs/reel/pkg/trajectory"
)

// DefaultSystemPrompt seeds every task timeline; recorded sessions carry
// no prompt of their own.
const DefaultSystemPrompt = "You are an agent viewing a screenshot from the user and then emitting the action. " +
	"Clicks are provided as normalized ratios (x/width, y/height)."

// Options configure a build.
type Options struct {
	// UsersRoot contains per-user directories of recorded task sessions.
	UsersRoot string

	// OutputRoot is the site root to build into. The dataset lands at
	// <OutputRoot>/data/trajectories.json, assets under
	// <OutputRoot>/data/assets/, scaffold files at <OutputRoot>/.
	OutputRoot string

	// SystemPrompt overrides DefaultSystemPrompt when non-empty.
	SystemPrompt string

	// Scaffold is the static site scaffold to copy into OutputRoot.
	// Nil skips the scaffold copy.
	Scaffold fs.FS

	// Concurrency bounds parallel asset copies. Zero means 4.
	Concurrency int

	Logger *charmlog.Logger
}

// Report summarizes a completed build.
type Report struct {
	TaskCount  int
	AssetCount int
	OutputPath string
	AssetsRoot string
}

// Build scans the users root and writes the aggregated dataset, asset
// tree, per-task chat records, and scaffold. Referenced screenshots that
// cannot be found are skipped with a warning, never a failure.
func Build(ctx context.Context, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = charmlog.New(os.Stderr)
	}

	usersRoot, err := filepath.Abs(opts.UsersRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving users root: %w", err)
	}
	if _, err := os.Stat(usersRoot); err != nil {
		return nil, fmt.Errorf("users root %s: %w", usersRoot, err)
	}

	outputRoot, err := filepath.Abs(opts.OutputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving output root: %w", err)
	}

	dataRoot := filepath.Join(outputRoot, "data")
	assetsRoot := filepath.Join(dataRoot, "assets")
	if err := os.MkdirAll(assetsRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating assets root: %w", err)
	}

	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	b := &build{
		usersRoot:    usersRoot,
		outputRoot:   outputRoot,
		dataRoot:     dataRoot,
		assetsRoot:   assetsRoot,
		systemPrompt: systemPrompt,
		logger:       logger,
		copied:       make(map[string]bool),
		usedSlugs:    make(map[string]bool),
	}

	taskDirs, err := iterTaskDirs(usersRoot)
	if err != nil {
		return nil, err
	}

	tasks := make([]trajectory.Task, 0, len(taskDirs))
	for _, td := range taskDirs {
		task, ok := b.buildTask(td)
		if !ok {
			continue
		}
		if err := b.writeChatRecord(&task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return strings.ToLower(tasks[i].Name) < strings.ToLower(tasks[j].Name)
	})

	if err := b.copyPending(ctx, opts.Concurrency); err != nil {
		return nil, err
	}

	dataset := trajectory.Dataset{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		TaskCount:   len(tasks),
		Tasks:       tasks,
	}

	outputPath := filepath.Join(dataRoot, trajectory.DatasetFile)
	if err := writeJSON(outputPath, dataset); err != nil {
		return nil, err
	}

	if opts.Scaffold != nil {
		if err := copyScaffold(opts.Scaffold, outputRoot); err != nil {
			return nil, err
		}
	}

	return &Report{
		TaskCount:  len(tasks),
		AssetCount: b.assetCopies,
		OutputPath: outputPath,
		AssetsRoot: assetsRoot,
	}, nil
}

type build struct {
	usersRoot    string
	outputRoot   string
	dataRoot     string
	assetsRoot   string
	systemPrompt string
	logger       *charmlog.Logger

	copied      map[string]bool
	usedSlugs   map[string]bool
	pending     []copyJob
	assetCopies int
}

type copyJob struct {
	source string
	dest   string
}

// buildTask converts one recorded session directory into a dataset task.
// Returns ok=false when the session's event log is missing or unreadable.
func (b *build) buildTask(td taskDir) (trajectory.Task, bool) {
	sessionPath := filepath.Join(td.path, sessionFile)
	eventsPath := filepath.Join(td.path, eventsFile)

	session, err := readSession(sessionPath)
	if err != nil {
		b.logger.Warn("unable to load session data, skipping", "task", td.path, "err", err)
		return trajectory.Task{}, false
	}

	events, err := readEvents(eventsPath)
	if err != nil {
		b.logger.Warn("unable to load events, skipping", "task", td.path, "err", err)
		return trajectory.Task{}, false
	}

	taskName := session.TaskName
	if taskName == "" {
		taskName = filepath.Base(td.path)
	}

	slug := b.uniqueSlug(td.user, taskName, td.path)

	task := trajectory.Task{
		Name:         taskName,
		Slug:         slug,
		SourceDir:    b.displayPath(td.path),
		SystemPrompt: b.systemPrompt,
		User:         td.user,
		Metadata:     session.Metadata,
		Timeline: []trajectory.TimelineEntry{
			{Role: "system", Content: b.systemPrompt},
		},
	}

	for _, event := range events {
		step := b.buildStep(td, slug, taskName, event, len(task.Steps) == 0)
		task.Steps = append(task.Steps, step)

		task.Timeline = append(task.Timeline,
			trajectory.TimelineEntry{Role: "user", Content: step.User.Raw},
			trajectory.TimelineEntry{Role: "assistant", Content: step.Assistant.Raw},
		)
	}

	task.Stats.TotalSteps = len(task.Steps)
	for i := range task.Steps {
		task.Stats.ActionBreakdown.Add(string(task.Steps[i].Assistant.Type))
	}

	return task, true
}

func (b *build) buildStep(td taskDir, slug, taskName string, event rawEvent, first bool) trajectory.Step {
	stepIndex := event.ID

	userRaw := fmt.Sprintf("<attachment:%d>", stepIndex)
	userText := ""
	if first {
		userText = "TASK:" + taskName
		userRaw = fmt.Sprintf("%s <attachment:%d>", userText, stepIndex)
	}

	observation := &trajectory.Observation{
		Raw:         userRaw,
		Text:        userText,
		Attachments: []trajectory.Attachment{},
	}

	source, relPath := resolveScreenshot(td.path, event.SSPath, stepIndex)
	if source == "" {
		b.logger.Warn("missing screenshot", "task", td.path, "step", stepIndex)
	} else {
		att := trajectory.Attachment{
			Index:        stepIndex,
			OriginalPath: b.displayPath(source),
			AssetPath:    b.queueAsset(source, slug, relPath),
		}

		if annotated := findAnnotated(source); annotated != "" {
			annotatedRel := annotatedRelPath(relPath)
			att.AnnotatedAssetPath = b.queueAsset(annotated, slug, annotatedRel)
			att.AnnotatedOriginalPath = b.displayPath(annotated)
		}

		observation.Attachments = append(observation.Attachments, att)
	}

	return trajectory.Step{
		Step:      stepIndex,
		Assistant: buildAction(event),
		User:      observation,
	}
}

// queueAsset registers a copy of source into the asset tree, at most once
// per destination, and returns the site-relative asset path.
func (b *build) queueAsset(source, slug string, relPath string) string {
	dest := filepath.Join(b.assetsRoot, slug, filepath.FromSlash(relPath))
	if !b.copied[dest] {
		b.copied[dest] = true
		b.pending = append(b.pending, copyJob{source: source, dest: dest})
		b.assetCopies++
	}
	return path.Join("data", "assets", slug, relPath)
}

// copyPending performs the queued asset copies, bounded by an errgroup.
func (b *build) copyPending(ctx context.Context, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 4
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for _, job := range b.pending {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return copyFile(job.source, job.dest)
		})
	}

	return group.Wait()
}

// displayPath renders an absolute path relative to the users root (or its
// parent) for human-facing fields.
func (b *build) displayPath(p string) string {
	for _, base := range []string{filepath.Dir(b.usersRoot), b.usersRoot} {
		if rel, err := filepath.Rel(base, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(p)
}

func (b *build) uniqueSlug(user, taskName, taskPath string) string {
	base := Slugify(user + "-" + taskName)
	if base == "" {
		base = Slugify(filepath.Base(taskPath))
	}
	if base == "" {
		base = Slugify(user)
	}
	if base == "" {
		base = "task"
	}

	slug := base
	for counter := 2; b.usedSlugs[slug]; counter++ {
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
	b.usedSlugs[slug] = true
	return slug
}

// chatRecord is the per-task chat.jsonl payload.
type chatRecord struct {
	Task        string                     `json:"task"`
	Slug        string                     `json:"slug"`
	Messages    []trajectory.TimelineEntry `json:"messages"`
	Attachments []string                   `json:"attachments"`
}

func (b *build) writeChatRecord(task *trajectory.Task) error {
	record := chatRecord{
		Task:        task.Name,
		Slug:        task.Slug,
		Messages:    task.Timeline,
		Attachments: attachmentPaths(task),
	}

	dir := filepath.Join(b.dataRoot, task.Slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating chat record dir: %w", err)
	}
	return writeJSON(filepath.Join(dir, "chat.jsonl"), record)
}

// attachmentPaths collects attachment asset paths ordered by index, first
// occurrence per index winning.
func attachmentPaths(task *trajectory.Task) []string {
	byIndex := map[int]string{}
	indices := []int{}
	for i := range task.Steps {
		if task.Steps[i].User == nil {
			continue
		}
		for _, att := range task.Steps[i].User.Attachments {
			p := att.AssetPath
			if p == "" {
				p = att.OriginalPath
			}
			if p == "" {
				continue
			}
			if _, ok := byIndex[att.Index]; !ok {
				byIndex[att.Index] = p
				indices = append(indices, att.Index)
			}
		}
	}

	sort.Ints(indices)
	paths := make([]string, 0, len(indices))
	for _, idx := range indices {
		paths = append(paths, byIndex[idx])
	}
	return paths
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// copyScaffold copies the embedded static site files into the output root.
func copyScaffold(scaffold fs.FS, outputRoot string) error {
	return fs.WalkDir(scaffold, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dest := filepath.Join(outputRoot, filepath.FromSlash(name))
		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		data, err := fs.ReadFile(scaffold, name)
		if err != nil {
			return fmt.Errorf("reading scaffold %s: %w", name, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("writing scaffold %s: %w", dest, err)
		}
		return nil
	})
}
