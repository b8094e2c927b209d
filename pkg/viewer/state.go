// Package viewer implements the trajectory viewer engine: the filter over
// the loaded dataset, the selection-repair rule, the exact action
// description formats, and the attachment-variant and lightbox state
// transitions. The state is one explicit object owned by a single
// goroutine; rendering surfaces (web fragments, TUI) are driven from it
// and hold no viewer logic of their own.
package viewer

import (
	"fmt"

	"github.com/playbacklabs/reel/pkg/trajectory"
)

// Variant names an attachment's visual variant.
type Variant string

const (
	VariantOriginal  Variant = "original"
	VariantAnnotated Variant = "annotated"
)

// AnnotatedSuffix is appended to captions when the overlay variant is shown.
const AnnotatedSuffix = " · Annotated"

// State is the viewer's client-local UI state. The dataset itself is
// immutable once loaded; everything mutable lives here.
type State struct {
	dataset *trajectory.Dataset

	Query      string
	User       string
	ActiveSlug string

	// TimelineCollapsed is per-render state; it resets on task switch.
	TimelineCollapsed bool

	// variants remembers the last active variant per attachment key, so
	// the lightbox reopens on whatever the user last looked at.
	variants map[string]Variant

	Lightbox *Lightbox
}

// Lightbox is the full-screen inspector state for one attachment.
type Lightbox struct {
	Key        string
	Attachment trajectory.Attachment
	Variant    Variant

	// Source is the displayed image location. Cleared on close so the
	// rendering surface releases the loaded image.
	Source string
}

// NewState builds the initial viewer state: no filters, first task active.
func NewState(ds *trajectory.Dataset) *State {
	s := &State{
		dataset:  ds,
		User:     AllUsers,
		variants: make(map[string]Variant),
	}
	s.ActiveSlug, _ = RepairSelection(ds.Tasks, "")
	return s
}

// Dataset returns the loaded dataset.
func (s *State) Dataset() *trajectory.Dataset { return s.dataset }

// Users returns the dataset's distinct user values.
func (s *State) Users() []string { return s.dataset.Users() }

// Filtered recomputes the visible task set from the current filters.
func (s *State) Filtered() []trajectory.Task {
	return Filter(s.dataset.Tasks, s.Query, s.User)
}

// SetQuery updates the free-text query and repairs the selection.
func (s *State) SetQuery(query string) {
	s.Query = query
	s.repair()
}

// SetUser updates the user filter and repairs the selection.
func (s *State) SetUser(user string) {
	s.User = user
	s.repair()
}

// Select activates the task with the given slug if it is in the filtered
// set, and reports whether it did.
func (s *State) Select(slug string) bool {
	for _, task := range s.Filtered() {
		if task.Slug == slug {
			s.activate(slug)
			return true
		}
	}
	return false
}

// ActiveTask returns the active task, or nil when the filtered set is empty.
func (s *State) ActiveTask() *trajectory.Task {
	if s.ActiveSlug == "" {
		return nil
	}
	return s.dataset.TaskBySlug(s.ActiveSlug)
}

// EmptyMessage returns the filter-aware message for an empty filtered set.
func (s *State) EmptyMessage() string {
	return EmptyMessage(s.User)
}

// ToggleTimeline flips the raw-timeline collapse state.
func (s *State) ToggleTimeline() {
	s.TimelineCollapsed = !s.TimelineCollapsed
}

func (s *State) repair() {
	slug, _ := RepairSelection(s.Filtered(), s.ActiveSlug)
	s.activate(slug)
}

func (s *State) activate(slug string) {
	if slug != s.ActiveSlug {
		s.TimelineCollapsed = false
	}
	s.ActiveSlug = slug
}

// AttachmentKey identifies one attachment across renders.
func AttachmentKey(slug string, step, index int) string {
	return fmt.Sprintf("%s/%d/%d", slug, step, index)
}

// DefaultVariant is annotated when the overlay exists, original otherwise.
func DefaultVariant(att trajectory.Attachment) Variant {
	if att.HasAnnotated() {
		return VariantAnnotated
	}
	return VariantOriginal
}

// variantAvailable reports whether the attachment can show the variant.
func variantAvailable(att trajectory.Attachment, v Variant) bool {
	if v == VariantAnnotated {
		return att.HasAnnotated()
	}
	return att.AssetPath != ""
}

// ActiveVariant returns the attachment's last active variant, or its
// default when none was chosen yet or the remembered one is unavailable.
func (s *State) ActiveVariant(key string, att trajectory.Attachment) Variant {
	if v, ok := s.variants[key]; ok && variantAvailable(att, v) {
		return v
	}
	return DefaultVariant(att)
}

// SetVariant records the chosen variant for an attachment. Unavailable
// variants are ignored; the toggle for them is disabled anyway.
func (s *State) SetVariant(key string, att trajectory.Attachment, v Variant) {
	if !variantAvailable(att, v) {
		return
	}
	s.variants[key] = v
}

// VariantSource resolves the image location for a variant.
func VariantSource(att trajectory.Attachment, v Variant) string {
	if v == VariantAnnotated && att.HasAnnotated() {
		return att.AnnotatedAssetPath
	}
	return att.AssetPath
}

// Caption renders an attachment caption, suffixed when showing the overlay.
func Caption(att trajectory.Attachment, v Variant) string {
	caption := att.OriginalPath
	if caption == "" {
		caption = att.AssetPath
	}
	if v == VariantAnnotated {
		caption += AnnotatedSuffix
	}
	return caption
}

// OpenLightbox opens the inspector on an attachment at its last active
// variant (annotated-if-present on first open).
func (s *State) OpenLightbox(slug string, step int, att trajectory.Attachment) {
	key := AttachmentKey(slug, step, att.Index)
	variant := s.ActiveVariant(key, att)
	s.Lightbox = &Lightbox{
		Key:        key,
		Attachment: att,
		Variant:    variant,
		Source:     VariantSource(att, variant),
	}
}

// SwitchLightbox changes the inspector's displayed variant, remembering
// it as the attachment's last active variant. Unavailable variants are
// ignored (the control is disabled for them).
func (s *State) SwitchLightbox(v Variant) {
	if s.Lightbox == nil || !variantAvailable(s.Lightbox.Attachment, v) {
		return
	}
	s.Lightbox.Variant = v
	s.Lightbox.Source = VariantSource(s.Lightbox.Attachment, v)
	s.variants[s.Lightbox.Key] = v
}

// CloseLightbox dismisses the inspector, clearing the image source before
// dropping the state so no stale image stays referenced.
func (s *State) CloseLightbox() {
	if s.Lightbox == nil {
		return
	}
	s.Lightbox.Source = ""
	s.Lightbox = nil
}
