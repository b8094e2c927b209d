// Package trajectory defines the domain types for recorded agent task
// trajectories: the aggregated dataset the viewer consumes, its tasks,
// their step sequences, and the tagged action union each step carries.
package trajectory

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Dataset is the root document produced by the aggregator.
type Dataset struct {
	GeneratedAt string `json:"generatedAt,omitempty"`
	TaskCount   int    `json:"taskCount,omitempty"`
	Tasks       []Task `json:"tasks"`
}

// Task is one recorded agent session. Slug is unique across the dataset
// and is the stable selection key.
type Task struct {
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	SourceDir    string          `json:"sourceDir"`
	SystemPrompt string          `json:"systemPrompt,omitempty"`
	User         string          `json:"user,omitempty"`
	Stats        Stats           `json:"stats"`
	Timeline     []TimelineEntry `json:"timeline"`
	Steps        []Step          `json:"steps"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
}

// UnknownUser is the sentinel for tasks recorded without a user.
const UnknownUser = "Unknown"

// Owner returns the task's user, or the UnknownUser sentinel when the
// recording carries none.
func (t *Task) Owner() string {
	if t.User == "" {
		return UnknownUser
	}
	return t.User
}

// DistinctActions returns the number of distinct action types in the task.
func (t *Task) DistinctActions() int {
	return len(t.Stats.ActionBreakdown)
}

// Stats summarizes a task's step sequence.
type Stats struct {
	TotalSteps      int       `json:"totalSteps"`
	ActionBreakdown Breakdown `json:"actionBreakdown"`
}

// TimelineEntry is one entry of the raw underlying message log.
// Display-only, order-preserving.
type TimelineEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Step pairs an agent action with its optional observation. Step indices
// are 0-based, dense, and strictly increasing within a task.
type Step struct {
	Step      int          `json:"step"`
	Assistant Action       `json:"assistant"`
	User      *Observation `json:"user,omitempty"`
}

// ActionType tags the Action union.
type ActionType string

const (
	ActionClick      ActionType = "click"
	ActionRightClick ActionType = "right_click"
	ActionDrag       ActionType = "drag"
	ActionTypeText   ActionType = "type"
	ActionKeyCombo   ActionType = "key_combination"
	ActionScroll     ActionType = "scroll"
	ActionStop       ActionType = "stop"

	// ActionMessage is the fallback classification for any unrecognized
	// action type.
	ActionMessage ActionType = "message"
)

// knownActions is the closed set of action types the viewer classifies.
var knownActions = map[ActionType]bool{
	ActionClick:      true,
	ActionRightClick: true,
	ActionDrag:       true,
	ActionTypeText:   true,
	ActionKeyCombo:   true,
	ActionScroll:     true,
	ActionStop:       true,
	ActionMessage:    true,
}

// Action is the tagged union of agent actions. Every variant carries Raw,
// the unparsed source command, as its display fallback; the remaining
// fields are variant-specific and optional.
type Action struct {
	Type ActionType `json:"type"`
	Raw  string     `json:"raw"`

	// click / right_click
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Button      string       `json:"button,omitempty"`

	// drag
	StartCoordinates *Coordinates `json:"startCoordinates,omitempty"`
	EndCoordinates   *Coordinates `json:"endCoordinates,omitempty"`
	Distance         *float64     `json:"distance,omitempty"`
	Duration         *float64     `json:"duration,omitempty"`

	// type
	Text string `json:"text,omitempty"`

	// key_combination
	Combination string `json:"combination,omitempty"`
	Key         string `json:"key,omitempty"`
	Translation string `json:"translation,omitempty"`

	// scroll
	Parameters string `json:"parameters,omitempty"`
}

// Kind classifies the action, folding unknown types into ActionMessage.
func (a *Action) Kind() ActionType {
	if knownActions[a.Type] {
		return a.Type
	}
	return ActionMessage
}

// Coordinates carry a click position as viewport ratios and percentages.
// The viewer renders the percentage fields; values outside [0,100] are
// accepted and displayed verbatim. Non-numeric upstream values decode to
// nil pointers rather than failing the whole dataset.
type Coordinates struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	XPercent *float64 `json:"xPercent,omitempty"`
	YPercent *float64 `json:"yPercent,omitempty"`
}

// Complete reports whether both percentages are present.
func (c *Coordinates) Complete() bool {
	return c != nil && c.XPercent != nil && c.YPercent != nil
}

// UnmarshalJSON decodes coordinates best-effort: fields that are absent or
// non-numeric are left nil instead of aborting the decode.
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("parsing coordinates: %w", err)
	}
	c.X = numericField(fields, "x")
	c.Y = numericField(fields, "y")
	c.XPercent = numericField(fields, "xPercent")
	c.YPercent = numericField(fields, "yPercent")
	return nil
}

func numericField(fields map[string]json.RawMessage, name string) *float64 {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return &value
}

// Observation is the user-side payload attached to a step.
type Observation struct {
	Raw         string       `json:"raw,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment is a screenshot reference tied to an observation. When
// AnnotatedAssetPath is present it depicts the same screenshot as
// AssetPath with a click overlay burned in.
type Attachment struct {
	Index                 int    `json:"index"`
	OriginalPath          string `json:"originalPath"`
	AssetPath             string `json:"assetPath,omitempty"`
	AnnotatedAssetPath    string `json:"annotatedAssetPath,omitempty"`
	AnnotatedOriginalPath string `json:"annotatedOriginalPath,omitempty"`
}

// HasAnnotated reports whether an annotated overlay variant exists.
func (a *Attachment) HasAnnotated() bool {
	return a.AnnotatedAssetPath != ""
}

// BreakdownEntry is one action-type occurrence count.
type BreakdownEntry struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// Breakdown is an ordered action-type occurrence mapping. It serializes as
// a JSON object and preserves key encounter order across a decode/encode
// round trip, so ranking ties break on the order the aggregator emitted.
type Breakdown []BreakdownEntry

// Add increments the count for the named action, appending it on first
// encounter.
func (b *Breakdown) Add(action string) {
	for i := range *b {
		if (*b)[i].Action == action {
			(*b)[i].Count++
			return
		}
	}
	*b = append(*b, BreakdownEntry{Action: action, Count: 1})
}

// Ranked returns the entries sorted by descending count. Ties keep their
// encounter order (stable insertion sort over an already-ordered slice).
func (b Breakdown) Ranked() Breakdown {
	ranked := make(Breakdown, len(b))
	copy(ranked, b)
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Count > ranked[j-1].Count; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}

// MarshalJSON writes the breakdown as a JSON object in entry order.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(entry.Action)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", entry.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, preserving key order via the token
// stream (a plain map would lose it).
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("parsing action breakdown: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("action breakdown: expected object, got %v", tok)
	}

	entries := Breakdown{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("parsing action breakdown key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("action breakdown: non-string key %v", keyTok)
		}

		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("parsing action breakdown count for %q: %w", key, err)
		}
		entries = append(entries, BreakdownEntry{Action: key, Count: count})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("parsing action breakdown: %w", err)
	}

	*b = entries
	return nil
}
