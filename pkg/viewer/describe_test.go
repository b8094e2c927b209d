package viewer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/playbacklabs/reel/pkg/trajectory"
	"github.com/playbacklabs/reel/pkg/viewer"
)

func f(v float64) *float64 { return &v }

func coords(x, y float64) *trajectory.Coordinates {
	return &trajectory.Coordinates{XPercent: f(x), YPercent: f(y)}
}

var _ = Describe("Describe", func() {
	It("renders click coordinates with one-decimal rounding", func() {
		a := &trajectory.Action{
			Type:        trajectory.ActionClick,
			Raw:         "click: (0.333330, 0.666670)",
			Coordinates: coords(33.333, 66.667),
		}
		Expect(viewer.Describe(a)).To(Equal("Normalized coordinates: 33.3%, 66.7%"))
	})

	It("renders right_click the same way as click", func() {
		a := &trajectory.Action{
			Type:        trajectory.ActionRightClick,
			Raw:         "right_click",
			Coordinates: coords(50, 25),
		}
		Expect(viewer.Describe(a)).To(Equal("Normalized coordinates: 50.0%, 25.0%"))
	})

	It("falls back to the raw command when click coordinates are absent", func() {
		a := &trajectory.Action{Type: trajectory.ActionClick, Raw: "click: (None, None)"}
		Expect(viewer.Describe(a)).To(Equal("click: (None, None)"))
	})

	It("falls back to raw when one click coordinate is non-numeric", func() {
		a := &trajectory.Action{
			Type:        trajectory.ActionClick,
			Raw:         "click: (12, oops)",
			Coordinates: &trajectory.Coordinates{XPercent: f(12)},
		}
		Expect(viewer.Describe(a)).To(Equal("click: (12, oops)"))
	})

	It("renders a drag with its duration parenthetical", func() {
		a := &trajectory.Action{
			Type:             trajectory.ActionDrag,
			Raw:              "drag",
			StartCoordinates: coords(10, 20),
			EndCoordinates:   coords(80, 90),
			Duration:         f(1.5),
		}
		Expect(viewer.Describe(a)).To(
			Equal("Normalized drag: 10.0%, 20.0% → 80.0%, 90.0% (duration 1.50s)"))
	})

	It("lists distance before duration in the drag parenthetical", func() {
		a := &trajectory.Action{
			Type:             trajectory.ActionDrag,
			Raw:              "drag",
			StartCoordinates: coords(0, 0),
			EndCoordinates:   coords(100, 100),
			Distance:         f(42.5),
			Duration:         f(0.25),
		}
		Expect(viewer.Describe(a)).To(
			Equal("Normalized drag: 0.0%, 0.0% → 100.0%, 100.0% (distance 42.5, duration 0.25s)"))
	})

	It("omits the parenthetical when a drag has neither distance nor duration", func() {
		a := &trajectory.Action{
			Type:             trajectory.ActionDrag,
			Raw:              "drag",
			StartCoordinates: coords(1, 2),
			EndCoordinates:   coords(3, 4),
		}
		Expect(viewer.Describe(a)).To(Equal("Normalized drag: 1.0%, 2.0% → 3.0%, 4.0%"))
	})

	It("falls back to raw when a drag endpoint is missing", func() {
		a := &trajectory.Action{
			Type:             trajectory.ActionDrag,
			Raw:              "drag: partial",
			StartCoordinates: coords(1, 2),
		}
		Expect(viewer.Describe(a)).To(Equal("drag: partial"))
	})

	It("renders typed text", func() {
		a := &trajectory.Action{Type: trajectory.ActionTypeText, Raw: "type: hello", Text: "hello"}
		Expect(viewer.Describe(a)).To(Equal("Typed sequence: hello"))
	})

	It("falls back to raw for an empty typed sequence", func() {
		a := &trajectory.Action{Type: trajectory.ActionTypeText, Raw: "type"}
		Expect(viewer.Describe(a)).To(Equal("type"))
	})

	It("prefers translation plus combination when both exist and differ", func() {
		a := &trajectory.Action{
			Type:        trajectory.ActionKeyCombo,
			Raw:         "key: ctrl+c",
			Combination: "ctrl+c",
			Translation: "Copy",
		}
		Expect(viewer.Describe(a)).To(Equal("Copy (ctrl+c)"))
	})

	It("does not repeat identical translation and combination", func() {
		a := &trajectory.Action{
			Type:        trajectory.ActionKeyCombo,
			Raw:         "key: enter",
			Combination: "enter",
			Translation: "enter",
		}
		Expect(viewer.Describe(a)).To(Equal("enter"))
	})

	It("falls through translation, combination, key, raw, placeholder", func() {
		Expect(viewer.Describe(&trajectory.Action{
			Type: trajectory.ActionKeyCombo, Translation: "Paste",
		})).To(Equal("Paste"))

		Expect(viewer.Describe(&trajectory.Action{
			Type: trajectory.ActionKeyCombo, Key: "F5",
		})).To(Equal("F5"))

		Expect(viewer.Describe(&trajectory.Action{
			Type: trajectory.ActionKeyCombo, Raw: "key_combination",
		})).To(Equal("key_combination"))

		Expect(viewer.Describe(&trajectory.Action{
			Type: trajectory.ActionKeyCombo,
		})).To(Equal("Key combination"))
	})

	It("renders scroll parameters, falling back to raw", func() {
		Expect(viewer.Describe(&trajectory.Action{
			Type: trajectory.ActionScroll, Raw: "scroll: down 3", Parameters: "down 3",
		})).To(Equal("Scroll parameters: down 3"))

		Expect(viewer.Describe(&trajectory.Action{
			Type: trajectory.ActionScroll, Raw: "scroll",
		})).To(Equal("Scroll parameters: scroll"))
	})

	It("renders the fixed stop message", func() {
		a := &trajectory.Action{Type: trajectory.ActionStop, Raw: "stop"}
		Expect(viewer.Describe(a)).To(Equal("Agent signalled completion."))
	})

	It("renders unknown actions as their raw string verbatim", func() {
		a := &trajectory.Action{Type: "wave_hands", Raw: "wave_hands: vigorously"}
		Expect(viewer.Describe(a)).To(Equal("wave_hands: vigorously"))
	})

	It("displays out-of-range percentages verbatim", func() {
		a := &trajectory.Action{
			Type:        trajectory.ActionClick,
			Raw:         "click",
			Coordinates: coords(123.45, -8.2),
		}
		Expect(viewer.Describe(a)).To(Equal("Normalized coordinates: 123.5%, -8.2%"))
	})
})

var _ = Describe("Label and Category", func() {
	It("labels known action types", func() {
		Expect(viewer.Label(&trajectory.Action{Type: trajectory.ActionDrag})).To(Equal("Drag"))
		Expect(viewer.Category(&trajectory.Action{Type: trajectory.ActionDrag})).To(Equal("drag"))
	})

	It("classifies unknown types as message", func() {
		a := &trajectory.Action{Type: "somersault"}
		Expect(viewer.Label(a)).To(Equal("Message"))
		Expect(viewer.Category(a)).To(Equal("message"))
	})
})
