package viewer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/playbacklabs/reel/pkg/trajectory"
	"github.com/playbacklabs/reel/pkg/viewer"
)

func stateFixture() *trajectory.Dataset {
	return &trajectory.Dataset{Tasks: filterFixture()}
}

var _ = Describe("State", func() {
	var st *viewer.State

	BeforeEach(func() {
		st = viewer.NewState(stateFixture())
	})

	It("activates the first task on startup", func() {
		Expect(st.ActiveSlug).To(Equal("alice-book-a-flight"))
		Expect(st.ActiveTask().Name).To(Equal("Book a flight"))
	})

	It("repairs the selection when a query excludes the active task", func() {
		st.SetQuery("groceries")
		Expect(st.ActiveSlug).To(Equal("bob-order-groceries"))
	})

	It("keeps the active task when it survives the filter change", func() {
		st.Select("bob-check-flight-status")
		st.SetQuery("flight")
		Expect(st.ActiveSlug).To(Equal("bob-check-flight-status"))
	})

	It("deactivates on an empty filtered set and reports why", func() {
		st.SetUser("carol")
		Expect(st.ActiveSlug).To(BeEmpty())
		Expect(st.ActiveTask()).To(BeNil())
		Expect(st.EmptyMessage()).To(Equal("No tasks for carol."))

		st.SetUser(viewer.AllUsers)
		st.SetQuery("no such task")
		Expect(st.EmptyMessage()).To(Equal("No tasks found."))
	})

	It("refuses to select a task outside the filtered set", func() {
		st.SetUser("bob")
		Expect(st.Select("alice-book-a-flight")).To(BeFalse())
		Expect(st.ActiveSlug).To(Equal("bob-order-groceries"))
	})

	It("resets timeline collapse on task switch only", func() {
		st.ToggleTimeline()
		Expect(st.TimelineCollapsed).To(BeTrue())

		st.SetQuery("book")
		Expect(st.TimelineCollapsed).To(BeTrue())

		st.Select("alice-book-a-flight")
		Expect(st.TimelineCollapsed).To(BeTrue())

		st.SetQuery("groceries")
		Expect(st.ActiveSlug).To(Equal("bob-order-groceries"))
		Expect(st.TimelineCollapsed).To(BeFalse())
	})
})

var _ = Describe("attachment variants", func() {
	both := trajectory.Attachment{
		Index:              0,
		OriginalPath:       "imgs/event_0.png",
		AssetPath:          "data/assets/t/imgs/event_0.png",
		AnnotatedAssetPath: "data/assets/t/imgs_annotated/event_0.png",
	}
	plain := trajectory.Attachment{
		Index:        1,
		OriginalPath: "imgs/event_1.png",
		AssetPath:    "data/assets/t/imgs/event_1.png",
	}

	It("defaults to annotated when the overlay exists", func() {
		Expect(viewer.DefaultVariant(both)).To(Equal(viewer.VariantAnnotated))
		Expect(viewer.DefaultVariant(plain)).To(Equal(viewer.VariantOriginal))
	})

	It("resolves the source per variant", func() {
		Expect(viewer.VariantSource(both, viewer.VariantAnnotated)).
			To(Equal("data/assets/t/imgs_annotated/event_0.png"))
		Expect(viewer.VariantSource(both, viewer.VariantOriginal)).
			To(Equal("data/assets/t/imgs/event_0.png"))
		Expect(viewer.VariantSource(plain, viewer.VariantAnnotated)).
			To(Equal("data/assets/t/imgs/event_1.png"))
	})

	It("suffixes the caption only for the overlay", func() {
		Expect(viewer.Caption(both, viewer.VariantAnnotated)).
			To(Equal("imgs/event_0.png · Annotated"))
		Expect(viewer.Caption(both, viewer.VariantOriginal)).
			To(Equal("imgs/event_0.png"))
	})

	It("restores the annotated source exactly after toggling away and back", func() {
		st := viewer.NewState(stateFixture())
		key := viewer.AttachmentKey("t", 0, both.Index)

		Expect(st.ActiveVariant(key, both)).To(Equal(viewer.VariantAnnotated))
		st.SetVariant(key, both, viewer.VariantOriginal)
		Expect(st.ActiveVariant(key, both)).To(Equal(viewer.VariantOriginal))
		st.SetVariant(key, both, viewer.VariantAnnotated)
		Expect(st.ActiveVariant(key, both)).To(Equal(viewer.VariantAnnotated))
		Expect(viewer.VariantSource(both, st.ActiveVariant(key, both))).
			To(Equal("data/assets/t/imgs_annotated/event_0.png"))
	})

	It("ignores attempts to select an unavailable variant", func() {
		st := viewer.NewState(stateFixture())
		key := viewer.AttachmentKey("t", 1, plain.Index)

		st.SetVariant(key, plain, viewer.VariantAnnotated)
		Expect(st.ActiveVariant(key, plain)).To(Equal(viewer.VariantOriginal))
	})
})

var _ = Describe("Lightbox", func() {
	both := trajectory.Attachment{
		Index:              2,
		OriginalPath:       "imgs/event_2.png",
		AssetPath:          "data/assets/t/imgs/event_2.png",
		AnnotatedAssetPath: "data/assets/t/imgs_annotated/event_2.png",
	}

	var st *viewer.State

	BeforeEach(func() {
		st = viewer.NewState(stateFixture())
	})

	It("opens at the attachment's last active variant", func() {
		key := viewer.AttachmentKey("alice-book-a-flight", 3, both.Index)
		st.SetVariant(key, both, viewer.VariantOriginal)

		st.OpenLightbox("alice-book-a-flight", 3, both)
		Expect(st.Lightbox).NotTo(BeNil())
		Expect(st.Lightbox.Variant).To(Equal(viewer.VariantOriginal))
		Expect(st.Lightbox.Source).To(Equal("data/assets/t/imgs/event_2.png"))
	})

	It("opens annotated-if-present when nothing was chosen before", func() {
		st.OpenLightbox("alice-book-a-flight", 3, both)
		Expect(st.Lightbox.Variant).To(Equal(viewer.VariantAnnotated))
	})

	It("switching variants updates the source and is remembered", func() {
		st.OpenLightbox("alice-book-a-flight", 3, both)
		st.SwitchLightbox(viewer.VariantOriginal)
		Expect(st.Lightbox.Source).To(Equal("data/assets/t/imgs/event_2.png"))

		st.CloseLightbox()
		st.OpenLightbox("alice-book-a-flight", 3, both)
		Expect(st.Lightbox.Variant).To(Equal(viewer.VariantOriginal))
	})

	It("ignores a switch to an unavailable variant", func() {
		plain := trajectory.Attachment{Index: 0, AssetPath: "data/assets/t/imgs/event_0.png"}
		st.OpenLightbox("alice-book-a-flight", 0, plain)
		st.SwitchLightbox(viewer.VariantAnnotated)
		Expect(st.Lightbox.Variant).To(Equal(viewer.VariantOriginal))
	})

	It("clears the image source on close", func() {
		st.OpenLightbox("alice-book-a-flight", 3, both)
		lb := st.Lightbox
		st.CloseLightbox()
		Expect(st.Lightbox).To(BeNil())
		Expect(lb.Source).To(BeEmpty())
	})
})
