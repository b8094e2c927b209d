package builder

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/playbacklabs/reel/pkg/trajectory"
)

// rawEvent is one entry of a session's llm_events.json. Numeric fields
// stay pointers so absent and present-but-zero are distinguishable;
// loosely-typed fields stay `any` because upstream recorders disagree on
// their shape.
type rawEvent struct {
	ID            int      `json:"id"`
	Type          string   `json:"type"`
	X             *float64 `json:"x"`
	Y             *float64 `json:"y"`
	Width         *float64 `json:"width"`
	Height        *float64 `json:"height"`
	WidthDisplay  *float64 `json:"width_display"`
	HeightDisplay *float64 `json:"height_display"`
	Key           string   `json:"key"`
	Button        string   `json:"button"`
	Direction     string   `json:"direction"`
	TotalAmount   any      `json:"total_amount"`
	Duration      any      `json:"duration"`
	Scrolls       any      `json:"individual_scrolls"`
	SSPath        string   `json:"ss_path"`
}

func readEvents(path string) ([]rawEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var events []rawEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

// buildAction converts a raw recorded event into the dataset's action
// union. Every branch leaves a raw fallback string even when the
// structured fields cannot be derived.
func buildAction(event rawEvent) trajectory.Action {
	actionType := event.Type
	if actionType == "" {
		actionType = "unknown"
	}

	action := trajectory.Action{
		Type: trajectory.ActionType(actionType),
		Raw:  actionType,
	}

	switch action.Type {
	case trajectory.ActionClick, trajectory.ActionRightClick:
		width := firstNumber(event.WidthDisplay, event.Width)
		height := firstNumber(event.HeightDisplay, event.Height)

		if event.X != nil && event.Y != nil && width != nil && height != nil && *width > 0 && *height > 0 {
			xNorm := *event.X / *width
			yNorm := *event.Y / *height
			action.Coordinates = &trajectory.Coordinates{
				X:        ptr(roundTo(xNorm, 6)),
				Y:        ptr(roundTo(yNorm, 6)),
				XPercent: ptr(roundTo(xNorm*100, 4)),
				YPercent: ptr(roundTo(yNorm*100, 4)),
			}
			action.Raw = fmt.Sprintf("%s: (%.6f, %.6f)", actionType, xNorm, yNorm)
		} else {
			action.Raw = fmt.Sprintf("%s: (%s, %s)", actionType, numberOrNone(event.X), numberOrNone(event.Y))
		}
		action.Button = event.Button

	case trajectory.ActionTypeText:
		action.Text = event.Key
		if event.Key != "" {
			action.Raw = "type: " + event.Key
		} else {
			action.Raw = "type"
		}

	case trajectory.ActionScroll:
		parts := make([]string, 0, 4)
		if event.Direction != "" {
			parts = append(parts, event.Direction)
		}
		for _, value := range []any{event.TotalAmount, event.Duration, scrollCount(event.Scrolls)} {
			if s := looseString(value); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			action.Parameters = strings.Join(parts, " ")
			action.Raw = "scroll: " + action.Parameters
		} else {
			action.Raw = "scroll"
		}

	case trajectory.ActionStop:
		action.Raw = "stop"
	}

	return action
}

// scrollCount collapses an individual_scrolls payload to its event count.
func scrollCount(value any) any {
	if list, ok := value.([]any); ok {
		return float64(len(list))
	}
	return value
}

// looseString renders a loosely-typed event field for display.
func looseString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func numberOrNone(value *float64) string {
	if value == nil {
		return "None"
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func firstNumber(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func roundTo(value float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(value*scale) / scale
}

func ptr(v float64) *float64 { return &v }
