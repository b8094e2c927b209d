// Package render composes the viewer's HTML fragments from the viewer
// state. All user-supplied text flows through html/template's contextual
// escaping; the only pre-built markup is the nl2br transform, which
// escapes its own text before inserting line breaks.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/playbacklabs/reel/pkg/trajectory"
	"github.com/playbacklabs/reel/pkg/viewer"
)

// Renderer holds the parsed fragment templates.
type Renderer struct {
	tmpl *template.Template
}

// New parses the fragment templates.
func New() *Renderer {
	tmpl := template.New("fragments").Funcs(template.FuncMap{
		"nl2br": nl2br,
	})
	return &Renderer{tmpl: template.Must(tmpl.Parse(fragmentTemplates))}
}

// nl2br escapes text and renders its newlines as <br> line breaks.
func nl2br(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// TaskList renders the filtered task list for the current state.
func (r *Renderer) TaskList(st *viewer.State) (string, error) {
	filtered := st.Filtered()

	view := taskListView{ShowUser: st.User == viewer.AllUsers}
	if len(filtered) == 0 {
		view.Empty = st.EmptyMessage()
	}
	for i := range filtered {
		task := filtered[i]
		view.Tasks = append(view.Tasks, taskItemView{
			Slug:   task.Slug,
			Name:   task.Name,
			Meta:   taskMeta(&task, view.ShowUser),
			Active: task.Slug == st.ActiveSlug,
		})
	}

	return r.execute("task-list", view)
}

// TaskDetail renders the active task's detail view, or the filter-aware
// empty message when nothing is active.
func (r *Renderer) TaskDetail(st *viewer.State) (string, error) {
	task := st.ActiveTask()
	if task == nil {
		return r.execute("empty-detail", emptyView{Message: st.EmptyMessage()})
	}

	view := detailView{
		Name:         task.Name,
		Slug:         task.Slug,
		SourceDir:    task.SourceDir,
		SystemPrompt: task.SystemPrompt,
		User:         task.Owner(),
		TotalSteps:   task.Stats.TotalSteps,
		Timeline: timelineView{
			Collapsed: st.TimelineCollapsed,
			Entries:   task.Timeline,
		},
	}

	for _, entry := range task.Stats.ActionBreakdown.Ranked() {
		view.Badges = append(view.Badges, badgeView{Action: entry.Action, Count: entry.Count})
	}

	for i := range task.Steps {
		view.Steps = append(view.Steps, r.stepView(st, task, &task.Steps[i]))
	}

	return r.execute("task-detail", view)
}

func (r *Renderer) stepView(st *viewer.State, task *trajectory.Task, step *trajectory.Step) stepView {
	view := stepView{
		Ordinal:     step.Step + 1,
		Label:       viewer.Label(&step.Assistant),
		Category:    viewer.Category(&step.Assistant),
		Description: viewer.Describe(&step.Assistant),
		Raw:         step.Assistant.Raw,
	}

	if step.User != nil {
		view.Observation = step.User.Text
		for _, att := range step.User.Attachments {
			if att.AssetPath == "" {
				continue
			}
			key := viewer.AttachmentKey(task.Slug, step.Step, att.Index)
			variant := st.ActiveVariant(key, att)
			view.Attachments = append(view.Attachments, attachmentView{
				Key:             key,
				Caption:         viewer.Caption(att, variant),
				Source:          viewer.VariantSource(att, variant),
				Variant:         string(variant),
				HasAnnotated:    att.HasAnnotated(),
				OriginalSource:  att.AssetPath,
				AnnotatedSource: att.AnnotatedAssetPath,
				ShowingOverlay:  variant == viewer.VariantAnnotated,
			})
		}
	}

	return view
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

func taskMeta(task *trajectory.Task, showUser bool) string {
	meta := fmt.Sprintf("%d steps · %d actions", task.Stats.TotalSteps, task.DistinctActions())
	if showUser {
		meta += " · " + task.Owner()
	}
	return meta
}

type taskListView struct {
	Tasks    []taskItemView
	Empty    string
	ShowUser bool
}

type taskItemView struct {
	Slug   string
	Name   string
	Meta   string
	Active bool
}

type emptyView struct {
	Message string
}

type detailView struct {
	Name         string
	Slug         string
	SourceDir    string
	SystemPrompt string
	User         string
	TotalSteps   int
	Badges       []badgeView
	Steps        []stepView
	Timeline     timelineView
}

type badgeView struct {
	Action string
	Count  int
}

type stepView struct {
	Ordinal     int
	Label       string
	Category    string
	Description string
	Raw         string
	Observation string
	Attachments []attachmentView
}

type timelineView struct {
	Collapsed bool
	Entries   []trajectory.TimelineEntry
}

type attachmentView struct {
	Key             string
	Caption         string
	Source          string
	Variant         string
	HasAnnotated    bool
	OriginalSource  string
	AnnotatedSource string
	ShowingOverlay  bool
}

const fragmentTemplates = `
{{define "task-list"}}
<ul class="task-list">
{{- range .Tasks}}
  <li class="task-item{{if .Active}} active{{end}}" data-slug="{{.Slug}}">
    <span class="task-name">{{.Name}}</span>
    <span class="task-meta">{{.Meta}}</span>
  </li>
{{- end}}
{{- if .Empty}}
  <li class="task-item empty">{{.Empty}}</li>
{{- end}}
</ul>
{{end}}

{{define "empty-detail"}}
<div class="detail-empty">{{.Message}}</div>
{{end}}

{{define "task-detail"}}
<section class="task-header">
  <h2>{{.Name}}</h2>
  <p class="task-source">{{.SourceDir}} · {{.User}}</p>
{{- if .SystemPrompt}}
  <p class="system-prompt">{{.SystemPrompt}}</p>
{{- else}}
  <p class="system-prompt muted">No system prompt recorded.</p>
{{- end}}
</section>
<section class="stats">
  <span class="stat-total">{{.TotalSteps}} steps</span>
{{- if .Badges}}
  <ul class="badges">
  {{- range .Badges}}
    <li class="badge badge-{{.Action}}">{{.Action}} ({{.Count}})</li>
  {{- end}}
  </ul>
{{- else}}
  <span class="muted">No actions recorded.</span>
{{- end}}
</section>
<section class="steps">
{{- range .Steps}}
  <article class="step">
    <header>
      <span class="step-ordinal">{{.Ordinal}}</span>
      <span class="action-tag action-{{.Category}}">{{.Label}}</span>
    </header>
    <p class="step-description">{{.Description}}</p>
  {{- if .Raw}}
    <p class="step-raw"><code>{{.Raw}}</code></p>
  {{- end}}
  {{- if .Observation}}
    <p class="step-observation">{{nl2br .Observation}}</p>
  {{- end}}
  {{- range .Attachments}}
    <figure class="attachment" data-key="{{.Key}}" data-variant="{{.Variant}}"
            data-original="{{.OriginalSource}}"{{if .HasAnnotated}} data-annotated="{{.AnnotatedSource}}"{{end}}>
      <img class="attachment-thumb" src="{{.Source}}" alt="{{.Caption}}" loading="lazy">
      <figcaption>{{.Caption}}</figcaption>
    {{- if .HasAnnotated}}
      <div class="variant-toggle">
        <button class="variant-btn{{if not .ShowingOverlay}} active{{end}}" data-variant="original">Original</button>
        <button class="variant-btn{{if .ShowingOverlay}} active{{end}}" data-variant="annotated">Annotated</button>
      </div>
    {{- end}}
    </figure>
  {{- end}}
  </article>
{{- end}}
</section>
<section class="timeline">
  <button class="timeline-toggle">{{if .Timeline.Collapsed}}Expand{{else}}Collapse{{end}}</button>
{{- if not .Timeline.Collapsed}}
  <ol class="timeline-entries">
  {{- range .Timeline.Entries}}
    <li><span class="timeline-role">{{.Role}}</span> {{nl2br .Content}}</li>
  {{- end}}
  </ol>
{{- end}}
</section>
{{end}}
`
