package viewer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/playbacklabs/reel/pkg/trajectory"
)

// actionLabels are the display names for the known action types.
var actionLabels = map[trajectory.ActionType]string{
	trajectory.ActionClick:      "Click",
	trajectory.ActionRightClick: "Right click",
	trajectory.ActionDrag:       "Drag",
	trajectory.ActionTypeText:   "Type",
	trajectory.ActionKeyCombo:   "Key combination",
	trajectory.ActionScroll:     "Scroll",
	trajectory.ActionStop:       "Stop",
	trajectory.ActionMessage:    "Message",
}

// Label returns the display name for an action's tag. Unknown types fall
// back to the generic message label.
func Label(a *trajectory.Action) string {
	return actionLabels[a.Kind()]
}

// Category returns the visual category name for an action, used as a
// style hook by the rendering surfaces. Unknown types map to "message".
func Category(a *trajectory.Action) string {
	return string(a.Kind())
}

// Describe renders the human-readable description of an action. The
// format strings here are a user-facing contract; see the package tests
// for the exact expected output per variant. Every branch falls back to
// the action's raw command when the structured fields are incomplete.
func Describe(a *trajectory.Action) string {
	switch a.Kind() {
	case trajectory.ActionClick, trajectory.ActionRightClick:
		if a.Coordinates.Complete() {
			return fmt.Sprintf("Normalized coordinates: %.1f%%, %.1f%%",
				*a.Coordinates.XPercent, *a.Coordinates.YPercent)
		}
		return a.Raw

	case trajectory.ActionDrag:
		return describeDrag(a)

	case trajectory.ActionTypeText:
		if a.Text != "" {
			return "Typed sequence: " + a.Text
		}
		return a.Raw

	case trajectory.ActionKeyCombo:
		return describeKeyCombo(a)

	case trajectory.ActionScroll:
		params := a.Parameters
		if params == "" {
			params = a.Raw
		}
		return "Scroll parameters: " + params

	case trajectory.ActionStop:
		return "Agent signalled completion."

	default:
		return a.Raw
	}
}

func describeDrag(a *trajectory.Action) string {
	if !a.StartCoordinates.Complete() || !a.EndCoordinates.Complete() {
		return a.Raw
	}

	desc := fmt.Sprintf("Normalized drag: %.1f%%, %.1f%% → %.1f%%, %.1f%%",
		*a.StartCoordinates.XPercent, *a.StartCoordinates.YPercent,
		*a.EndCoordinates.XPercent, *a.EndCoordinates.YPercent)

	var extras []string
	if a.Distance != nil {
		extras = append(extras, "distance "+strconv.FormatFloat(*a.Distance, 'f', -1, 64))
	}
	if a.Duration != nil {
		extras = append(extras, fmt.Sprintf("duration %.2fs", *a.Duration))
	}
	if len(extras) > 0 {
		desc += " (" + strings.Join(extras, ", ") + ")"
	}
	return desc
}

func describeKeyCombo(a *trajectory.Action) string {
	translation := strings.TrimSpace(a.Translation)
	combination := strings.TrimSpace(a.Combination)

	switch {
	case translation != "" && combination != "" && translation != combination:
		return fmt.Sprintf("%s (%s)", translation, combination)
	case translation != "":
		return translation
	case combination != "":
		return combination
	case a.Key != "":
		return a.Key
	case a.Raw != "":
		return a.Raw
	default:
		return "Key combination"
	}
}
