package viewcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/playbacklabs/reel/pkg/trajectory"
	"github.com/playbacklabs/reel/pkg/viewer"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

type viewPane int

const (
	paneTasks viewPane = iota
	paneTask
)

type viewModel struct {
	state      *viewer.State
	pane       viewPane
	cursor     int
	stepCursor int
	width      int
	height     int
	search     textinput.Model
	searching  bool
	keys       viewKeyMap
	help       help.Model
}

var (
	viewTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("110"))
	viewMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	viewAccentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	viewSectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	viewDividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	viewHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("110")).Bold(true)
	viewTagStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	viewRoleUserStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	viewRoleAsstStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

type viewKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Search   key.Binding
	User     key.Binding
	Variant  key.Binding
	Inspect  key.Binding
	Timeline key.Binding
	Quit     key.Binding
}

func (k viewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Enter, k.Back, k.Search, k.User, k.Variant, k.Inspect, k.Timeline, k.Quit}
}

func (k viewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Down, k.Up, k.Enter, k.Back, k.Search}, {k.User, k.Variant, k.Inspect, k.Timeline, k.Quit}}
}

func defaultKeyMap() viewKeyMap {
	return viewKeyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Enter:    key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "open")),
		Back:     key.NewBinding(key.WithKeys("h", "esc"), key.WithHelp("h", "back")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		User:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "user")),
		Variant:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "annotated")),
		Inspect:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "inspect")),
		Timeline: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "timeline")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func runViewTUI(ctx context.Context, state *viewer.State, openTask bool) error {
	model := newViewModel(state)
	if openTask {
		model.pane = paneTask
		model.cursor = taskIndex(state.Filtered(), state.ActiveSlug)
	}

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

func newViewModel(state *viewer.State) viewModel {
	search := textinput.New()
	search.Placeholder = "filter tasks"
	search.Prompt = "/ "
	search.CharLimit = 120
	search.SetValue(state.Query)

	return viewModel{
		state:  state,
		pane:   paneTasks,
		cursor: taskIndex(state.Filtered(), state.ActiveSlug),
		search: search,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

func taskIndex(tasks []trajectory.Task, slug string) int {
	for i := range tasks {
		if tasks[i].Slug == slug {
			return i
		}
	}
	return 0
}

func (m viewModel) Init() bubbletea.Cmd {
	return nil
}

func (m viewModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case bubbletea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m viewModel) handleSearchKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "ctrl+c":
		return m, bubbletea.Quit
	}

	var cmd bubbletea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.state.SetQuery(m.search.Value())
	m.cursor = taskIndex(m.state.Filtered(), m.state.ActiveSlug)
	return m, cmd
}

func (m viewModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, bubbletea.Quit
	case "j", "down":
		return m.moveCursor(1)
	case "k", "up":
		return m.moveCursor(-1)
	case "l", "enter":
		if m.pane == paneTasks {
			return m.openTask()
		}
	case "h", "esc":
		if m.state.Lightbox != nil {
			m.state.CloseLightbox()
			return m, nil
		}
		if m.pane == paneTask {
			m.pane = paneTasks
		}
	case "/":
		if m.pane == paneTasks {
			m.searching = true
			m.search.Focus()
			return m, textinput.Blink
		}
	case "f":
		if m.pane == paneTasks {
			m.cycleUser()
		}
	case "a":
		if m.pane == paneTask {
			m.toggleVariant()
		}
	case "o":
		if m.pane == paneTask {
			m.toggleInspector()
		}
	case "t":
		if m.pane == paneTask {
			m.state.ToggleTimeline()
		}
	}

	return m, nil
}

func (m viewModel) moveCursor(delta int) (bubbletea.Model, bubbletea.Cmd) {
	if m.pane == paneTasks {
		filtered := m.state.Filtered()
		if len(filtered) == 0 {
			return m, nil
		}
		m.cursor = clamp(m.cursor+delta, len(filtered)-1)
		m.state.Select(filtered[m.cursor].Slug)
		return m, nil
	}

	task := m.state.ActiveTask()
	if task == nil || len(task.Steps) == 0 {
		return m, nil
	}
	m.stepCursor = clamp(m.stepCursor+delta, len(task.Steps)-1)
	m.state.CloseLightbox()
	return m, nil
}

func (m viewModel) openTask() (bubbletea.Model, bubbletea.Cmd) {
	filtered := m.state.Filtered()
	if len(filtered) == 0 {
		return m, nil
	}

	m.cursor = clamp(m.cursor, len(filtered)-1)
	m.state.Select(filtered[m.cursor].Slug)
	m.pane = paneTask
	m.stepCursor = 0
	return m, nil
}

// cycleUser advances the user filter through All and each distinct owner.
func (m *viewModel) cycleUser() {
	users := m.state.Users()
	cycle := append([]string{viewer.AllUsers}, users...)

	current := 0
	for i, user := range cycle {
		if user == m.state.User {
			current = i
		}
	}
	m.state.SetUser(cycle[(current+1)%len(cycle)])
	m.cursor = taskIndex(m.state.Filtered(), m.state.ActiveSlug)
}

// highlightedAttachment returns the first attachment of the step under the
// cursor, or nil when the step carries none.
func (m *viewModel) highlightedAttachment() (*trajectory.Step, *trajectory.Attachment) {
	task := m.state.ActiveTask()
	if task == nil || len(task.Steps) == 0 {
		return nil, nil
	}
	step := &task.Steps[clamp(m.stepCursor, len(task.Steps)-1)]
	if step.User == nil || len(step.User.Attachments) == 0 {
		return step, nil
	}
	return step, &step.User.Attachments[0]
}

func (m *viewModel) toggleVariant() {
	step, att := m.highlightedAttachment()
	if att == nil {
		return
	}

	next := viewer.VariantAnnotated
	if m.state.Lightbox != nil {
		if m.state.Lightbox.Variant == viewer.VariantAnnotated {
			next = viewer.VariantOriginal
		}
		m.state.SwitchLightbox(next)
		return
	}

	task := m.state.ActiveTask()
	key := viewer.AttachmentKey(task.Slug, step.Step, att.Index)
	if m.state.ActiveVariant(key, *att) == viewer.VariantAnnotated {
		next = viewer.VariantOriginal
	}
	m.state.SetVariant(key, *att, next)
}

func (m *viewModel) toggleInspector() {
	if m.state.Lightbox != nil {
		m.state.CloseLightbox()
		return
	}
	step, att := m.highlightedAttachment()
	if att == nil {
		return
	}
	m.state.OpenLightbox(m.state.ActiveTask().Slug, step.Step, *att)
}

func (m viewModel) View() string {
	switch m.pane {
	case paneTask:
		return m.viewTask()
	default:
		return m.viewTasks()
	}
}

func (m viewModel) viewTasks() string {
	filtered := m.state.Filtered()

	headerLeft := viewTitleStyle.Render("reel")
	headerRight := viewMutedStyle.Render(m.headerTaskCount(len(filtered)))
	lines := make([]string, 0, 10)
	lines = append(lines, renderHeaderLine(m.width, headerLeft, headerRight), renderRule(m.width))

	if m.searching || m.search.Value() != "" {
		lines = append(lines, m.search.View())
	}
	lines = append(lines, "")

	if len(filtered) == 0 {
		lines = append(lines, viewMutedStyle.Render(m.state.EmptyMessage()))
		lines = append(lines, "", m.viewFooter())
		return strings.Join(lines, "\n")
	}

	lines = append(lines, viewMutedStyle.Render("  task                                user          steps  actions"))

	maxVisible := listHeight(m.height, len(lines))
	start, end := visibleRange(len(filtered), m.cursor, maxVisible)
	for i := start; i < end; i++ {
		task := filtered[i]
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}

		line := fmt.Sprintf("%s %-35s %-12s %6d  %s",
			cursor,
			truncateText(task.Name, 35),
			truncateText(task.Owner(), 12),
			task.Stats.TotalSteps,
			breakdownSummary(task.Stats.ActionBreakdown),
		)
		if i == m.cursor {
			line = viewHighlightStyle.Render(line)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", m.viewFooter())
	return strings.Join(lines, "\n")
}

func (m viewModel) headerTaskCount(shown int) string {
	total := len(m.state.Dataset().Tasks)
	user := m.state.User
	if user == viewer.AllUsers {
		user = "all users"
	}
	if shown == total {
		return fmt.Sprintf("%s · %d tasks", user, total)
	}
	return fmt.Sprintf("%s · %d/%d tasks", user, shown, total)
}

func (m viewModel) viewTask() string {
	task := m.state.ActiveTask()
	if task == nil {
		return viewMutedStyle.Render(m.state.EmptyMessage())
	}

	headerLeft := viewTitleStyle.Render("reel › " + task.Name)
	headerRight := viewMutedStyle.Render(fmt.Sprintf("%s · %s", task.Owner(), task.Slug))
	lines := make([]string, 0, 20)
	lines = append(lines, renderHeaderLine(m.width, headerLeft, headerRight), renderRule(m.width), "")

	lines = append(lines, viewMutedStyle.Render(fmt.Sprintf("%d steps · %s", task.Stats.TotalSteps, breakdownSummary(task.Stats.ActionBreakdown))))
	if task.SystemPrompt != "" {
		lines = append(lines, wrapText(viewMutedStyle.Render(task.SystemPrompt), max(20, m.width))...)
	}
	lines = append(lines, "")

	lines = append(lines, viewSectionStyle.Render("steps"), renderRule(m.width))
	detailBudget := 12
	maxVisible := listHeight(m.height, len(lines)+detailBudget)
	start, end := visibleRange(len(task.Steps), m.stepCursor, maxVisible)
	for i := start; i < end; i++ {
		step := task.Steps[i]
		cursor := " "
		if i == m.stepCursor {
			cursor = ">"
		}

		marker := " "
		if step.User != nil && len(step.User.Attachments) > 0 {
			marker = "▣"
			if step.User.Attachments[0].HasAnnotated() {
				marker = "▣+"
			}
		}

		line := fmt.Sprintf("%s %3d  %-16s %-3s %s",
			cursor,
			step.Step,
			viewTagStyle.Render(fitCell(viewer.Label(&step.Assistant), 16)),
			marker,
			truncateText(viewer.Describe(&step.Assistant), max(20, m.width-30)),
		)
		if i == m.stepCursor {
			line = viewHighlightStyle.Render(line)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "")
	lines = append(lines, m.viewStepDetail(task)...)

	if !m.state.TimelineCollapsed {
		lines = append(lines, "")
		lines = append(lines, m.viewTimeline(task)...)
	}

	lines = append(lines, "", m.viewFooter())
	return strings.Join(lines, "\n")
}

func (m viewModel) viewStepDetail(task *trajectory.Task) []string {
	if len(task.Steps) == 0 {
		return []string{viewMutedStyle.Render("no steps")}
	}

	step := task.Steps[clamp(m.stepCursor, len(task.Steps)-1)]
	lines := []string{viewSectionStyle.Render(fmt.Sprintf("step %d · %s", step.Step, viewer.Label(&step.Assistant))), renderRule(m.width)}
	lines = append(lines, wrapText(viewer.Describe(&step.Assistant), max(20, m.width-2))...)
	lines = append(lines, viewMutedStyle.Render("raw: "+truncateText(step.Assistant.Raw, max(20, m.width-7))))

	if step.User != nil {
		if text := strings.TrimSpace(step.User.Text); text != "" {
			lines = append(lines, wrapText(viewMutedStyle.Render(text), max(20, m.width-2))...)
		}
		for j := range step.User.Attachments {
			att := step.User.Attachments[j]
			key := viewer.AttachmentKey(task.Slug, step.Step, att.Index)
			variant := m.state.ActiveVariant(key, att)
			lines = append(lines, fmt.Sprintf("  %s %s",
				viewAccentStyle.Render(string(variant)),
				viewer.Caption(att, variant),
			))
		}
	}

	if lb := m.state.Lightbox; lb != nil {
		lines = append(lines,
			"",
			viewSectionStyle.Render("inspector"),
			"  "+viewAccentStyle.Render(string(lb.Variant))+" "+lb.Source,
			viewMutedStyle.Render("  a switches variant, esc closes"),
		)
	}

	return lines
}

func (m viewModel) viewTimeline(task *trajectory.Task) []string {
	lines := []string{viewSectionStyle.Render(fmt.Sprintf("timeline (%d entries)", len(task.Timeline))), renderRule(m.width)}
	limit := 8
	for i, entry := range task.Timeline {
		if i >= limit {
			lines = append(lines, viewMutedStyle.Render(fmt.Sprintf("  … %d more, t collapses", len(task.Timeline)-limit)))
			break
		}
		lines = append(lines, fmt.Sprintf("  %s %s",
			roleLabel(entry.Role),
			truncateText(entry.Content, max(20, m.width-16)),
		))
	}
	return lines
}

func (m viewModel) viewFooter() string {
	return viewMutedStyle.Render(m.help.View(m.keys))
}

func breakdownSummary(breakdown trajectory.Breakdown) string {
	ranked := breakdown.Ranked()
	parts := make([]string, 0, len(ranked))
	for _, entry := range ranked {
		parts = append(parts, fmt.Sprintf("%s×%d", entry.Action, entry.Count))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func roleLabel(role string) string {
	switch role {
	case "assistant":
		return viewRoleAsstStyle.Render("● assistant")
	case "user":
		return viewRoleUserStyle.Render("○ user     ")
	case "system":
		return viewMutedStyle.Render("◆ system   ")
	default:
		return role
	}
}

func listHeight(screenHeight, used int) int {
	if screenHeight <= 0 {
		screenHeight = 40
	}
	footerHeight := 3
	return max(screenHeight-used-footerHeight, 5)
}

func clamp(value, upper int) int {
	if value < 0 {
		return 0
	}
	if value > upper {
		return upper
	}
	return value
}

// truncateText shortens styled or plain text to the given display width,
// leaving room for an ellipsis.
func truncateText(value string, limit int) string {
	if lipgloss.Width(value) <= limit {
		return value
	}
	if limit <= 3 {
		return ansi.Truncate(value, limit, "")
	}
	return ansi.Truncate(value, limit-3, "") + "..."
}

func renderHeaderLine(width int, left, right string) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 >= lineWidth {
		return strings.TrimSpace(left + " " + right)
	}
	spacing := lineWidth - leftWidth - rightWidth
	return left + strings.Repeat(" ", spacing) + right
}

func renderRule(width int) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	return viewDividerStyle.Render(strings.Repeat("─", lineWidth))
}

func fitCell(value string, width int) string {
	if width <= 0 {
		return value
	}
	if lipgloss.Width(value) > width {
		return truncateText(value, width)
	}
	return value + strings.Repeat(" ", width-lipgloss.Width(value))
}

func visibleRange(total, cursor, size int) (int, int) {
	if total <= 0 || size <= 0 {
		return 0, 0
	}
	if total <= size {
		return 0, total
	}
	cursor = clamp(cursor, total-1)
	start := max(cursor-(size/2), 0)
	end := start + size
	if end > total {
		end = total
		start = max(end-size, 0)
	}
	return start, end
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	lines := []string{}
	current := ""
	for _, word := range words {
		if current == "" {
			current = word
			continue
		}
		if lipgloss.Width(current)+1+lipgloss.Width(word) <= width {
			current = current + " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
