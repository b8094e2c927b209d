package viewcmder

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/playbacklabs/reel/pkg/trajectory"
	"github.com/playbacklabs/reel/pkg/viewer"
)

func tuiDataset() *trajectory.Dataset {
	return &trajectory.Dataset{
		Tasks: []trajectory.Task{
			{
				Name: "Book a Flight",
				Slug: "alice-book-a-flight",
				User: "alice",
				Stats: trajectory.Stats{
					TotalSteps: 2,
					ActionBreakdown: trajectory.Breakdown{
						{Action: "click", Count: 1},
						{Action: "stop", Count: 1},
					},
				},
				Steps: []trajectory.Step{
					{
						Step:      0,
						Assistant: trajectory.Action{Type: trajectory.ActionClick, Raw: "click: (0.5, 0.5)"},
						User: &trajectory.Observation{
							Attachments: []trajectory.Attachment{{
								Index:              0,
								OriginalPath:       "imgs/event_0.png",
								AssetPath:          "data/assets/alice-book-a-flight/imgs/event_0.png",
								AnnotatedAssetPath: "data/assets/alice-book-a-flight/imgs_annotated/event_0.png",
							}},
						},
					},
					{
						Step:      1,
						Assistant: trajectory.Action{Type: trajectory.ActionStop, Raw: "stop"},
					},
				},
			},
			{
				Name: "Buy Groceries",
				Slug: "bob-buy-groceries",
				User: "bob",
				Stats: trajectory.Stats{
					TotalSteps:      1,
					ActionBreakdown: trajectory.Breakdown{{Action: "type", Count: 1}},
				},
				Steps: []trajectory.Step{
					{Step: 0, Assistant: trajectory.Action{Type: trajectory.ActionTypeText, Raw: "type: hi", Text: "hi"}},
				},
			},
		},
	}
}

var _ = Describe("View TUI model", func() {
	var model viewModel

	BeforeEach(func() {
		model = newViewModel(viewer.NewState(tuiDataset()))
	})

	Describe("moveCursor", func() {
		It("moves the task cursor and keeps the selection in sync", func() {
			next, _ := model.moveCursor(1)
			moved := next.(viewModel)
			Expect(moved.cursor).To(Equal(1))
			Expect(moved.state.ActiveSlug).To(Equal("bob-buy-groceries"))
		})

		It("clamps at the list edges", func() {
			next, _ := model.moveCursor(-1)
			Expect(next.(viewModel).cursor).To(Equal(0))

			next, _ = model.moveCursor(5)
			Expect(next.(viewModel).cursor).To(Equal(1))
		})

		It("moves the step cursor inside a task", func() {
			opened, _ := model.openTask()
			next, _ := opened.(viewModel).moveCursor(1)
			Expect(next.(viewModel).stepCursor).To(Equal(1))
		})
	})

	Describe("openTask", func() {
		It("switches to the task pane on the selected task", func() {
			next, _ := model.openTask()
			opened := next.(viewModel)
			Expect(opened.pane).To(Equal(paneTask))
			Expect(opened.stepCursor).To(Equal(0))
			Expect(opened.state.ActiveTask().Slug).To(Equal("alice-book-a-flight"))
		})
	})

	Describe("cycleUser", func() {
		It("cycles through all users and back to everyone", func() {
			model.cycleUser()
			Expect(model.state.User).To(Equal("alice"))

			model.cycleUser()
			Expect(model.state.User).To(Equal("bob"))

			model.cycleUser()
			Expect(model.state.User).To(Equal(viewer.AllUsers))
		})

		It("repairs the cursor when the active task is filtered out", func() {
			next, _ := model.moveCursor(1)
			moved := next.(viewModel)

			moved.cycleUser()
			Expect(moved.state.User).To(Equal("alice"))
			Expect(moved.cursor).To(Equal(0))
			Expect(moved.state.ActiveSlug).To(Equal("alice-book-a-flight"))
		})
	})

	Describe("toggleVariant", func() {
		It("flips the highlighted attachment between annotated and original", func() {
			next, _ := model.openTask()
			opened := next.(viewModel)

			key := viewer.AttachmentKey("alice-book-a-flight", 0, 0)
			step, att := opened.highlightedAttachment()
			Expect(step).NotTo(BeNil())
			Expect(att).NotTo(BeNil())
			Expect(opened.state.ActiveVariant(key, *att)).To(Equal(viewer.VariantAnnotated))

			opened.toggleVariant()
			Expect(opened.state.ActiveVariant(key, *att)).To(Equal(viewer.VariantOriginal))

			opened.toggleVariant()
			Expect(opened.state.ActiveVariant(key, *att)).To(Equal(viewer.VariantAnnotated))
		})

		It("does nothing on steps without attachments", func() {
			next, _ := model.openTask()
			opened := next.(viewModel)
			moved, _ := opened.moveCursor(1)
			stepped := moved.(viewModel)

			stepped.toggleVariant()
			Expect(stepped.state.Lightbox).To(BeNil())
		})
	})

	Describe("toggleInspector", func() {
		It("opens and closes the inspector on the highlighted attachment", func() {
			next, _ := model.openTask()
			opened := next.(viewModel)

			opened.toggleInspector()
			Expect(opened.state.Lightbox).NotTo(BeNil())
			Expect(opened.state.Lightbox.Variant).To(Equal(viewer.VariantAnnotated))

			opened.toggleInspector()
			Expect(opened.state.Lightbox).To(BeNil())
		})

		It("switches the inspector variant via toggleVariant", func() {
			next, _ := model.openTask()
			opened := next.(viewModel)

			opened.toggleInspector()
			opened.toggleVariant()
			Expect(opened.state.Lightbox.Variant).To(Equal(viewer.VariantOriginal))
			Expect(opened.state.Lightbox.Source).To(Equal("data/assets/alice-book-a-flight/imgs/event_0.png"))
		})
	})
})

var _ = Describe("View TUI helpers", func() {
	Describe("taskIndex", func() {
		It("finds the index of a slug", func() {
			tasks := tuiDataset().Tasks
			Expect(taskIndex(tasks, "bob-buy-groceries")).To(Equal(1))
		})

		It("falls back to zero for unknown slugs", func() {
			Expect(taskIndex(tuiDataset().Tasks, "nope")).To(Equal(0))
		})
	})

	Describe("clamp", func() {
		It("bounds values to [0, upper]", func() {
			Expect(clamp(-2, 5)).To(Equal(0))
			Expect(clamp(3, 5)).To(Equal(3))
			Expect(clamp(9, 5)).To(Equal(5))
		})
	})

	Describe("visibleRange", func() {
		It("returns the whole range when it fits", func() {
			start, end := visibleRange(3, 1, 10)
			Expect(start).To(Equal(0))
			Expect(end).To(Equal(3))
		})

		It("centers the window on the cursor", func() {
			start, end := visibleRange(10, 5, 4)
			Expect(start).To(Equal(3))
			Expect(end).To(Equal(7))
		})

		It("clamps the window at the end", func() {
			start, end := visibleRange(10, 9, 4)
			Expect(start).To(Equal(6))
			Expect(end).To(Equal(10))
		})
	})

	Describe("truncateText", func() {
		It("passes short values through", func() {
			Expect(truncateText("abc", 5)).To(Equal("abc"))
		})

		It("truncates long values with an ellipsis", func() {
			Expect(truncateText("abcdefgh", 6)).To(Equal("abc..."))
		})
	})

	Describe("taskListMarkdown", func() {
		It("lists the filtered tasks with slug, user, and step count", func() {
			state := viewer.NewState(tuiDataset())
			state.SetUser("bob")

			source := taskListMarkdown(state)
			Expect(source).To(ContainSubstring("# Tasks"))
			Expect(source).To(ContainSubstring("**Buy Groceries** (`bob-buy-groceries`) · bob · 1 steps"))
			Expect(source).NotTo(ContainSubstring("Book a Flight"))
		})

		It("shortens run-on task names", func() {
			dataset := tuiDataset()
			dataset.Tasks[0].Name = strings.Repeat("x", 80)

			source := taskListMarkdown(viewer.NewState(dataset))
			Expect(source).To(ContainSubstring("**" + strings.Repeat("x", 64) + "...**"))
		})

		It("falls back to the scoped empty message", func() {
			state := viewer.NewState(tuiDataset())
			state.SetQuery("no such task")

			Expect(taskListMarkdown(state)).To(ContainSubstring("No tasks found."))
		})
	})

	Describe("breakdownSummary", func() {
		It("ranks entries by count", func() {
			breakdown := trajectory.Breakdown{
				{Action: "click", Count: 1},
				{Action: "type", Count: 3},
			}
			Expect(breakdownSummary(breakdown)).To(Equal("type×3 click×1"))
		})

		It("renders a dash for empty breakdowns", func() {
			Expect(breakdownSummary(trajectory.Breakdown{})).To(Equal("-"))
		})
	})
})
