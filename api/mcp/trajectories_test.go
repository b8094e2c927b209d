package mcp

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/playbacklabs/reel/pkg/logger"
	"github.com/playbacklabs/reel/pkg/trajectory"
)

func testDataset() *trajectory.Dataset {
	breakdown := trajectory.Breakdown{}
	breakdown.Add("click")
	breakdown.Add("click")
	breakdown.Add("stop")

	return &trajectory.Dataset{
		TaskCount: 2,
		Tasks: []trajectory.Task{
			{
				Name:  "Book a Flight",
				Slug:  "alice-book-a-flight",
				User:  "alice",
				Stats: trajectory.Stats{TotalSteps: 3, ActionBreakdown: breakdown},
			},
			{
				Name: "Order Groceries",
				Slug: "bob-order-groceries",
				User: "bob",
			},
		},
	}
}

var _ = Describe("Trajectory tools", func() {
	var (
		server *Server
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		server, err = NewServer(Config{
			Dataset: testDataset(),
			Logger:  logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	Describe("list_trajectories", func() {
		It("lists every task with summaries", func() {
			result, output, err := server.handleListTrajectories(ctx, nil, ListInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())

			Expect(output.Count).To(Equal(2))
			Expect(output.Tasks[0].Slug).To(Equal("alice-book-a-flight"))
			Expect(output.Tasks[0].User).To(Equal("alice"))
			Expect(output.Tasks[0].Steps).To(Equal(3))
			Expect(output.Tasks[0].Actions).To(Equal(map[string]int{"click": 2, "stop": 1}))
		})

		It("filters by name substring", func() {
			_, output, err := server.handleListTrajectories(ctx, nil, ListInput{Query: "groceries"})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Count).To(Equal(1))
			Expect(output.Tasks[0].Slug).To(Equal("bob-order-groceries"))
		})

		It("filters by user", func() {
			_, output, err := server.handleListTrajectories(ctx, nil, ListInput{User: "alice"})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Count).To(Equal(1))
			Expect(output.Tasks[0].User).To(Equal("alice"))
		})

		It("returns an empty list for a non-matching filter", func() {
			_, output, err := server.handleListTrajectories(ctx, nil, ListInput{Query: "no-such-task"})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Count).To(Equal(0))
			Expect(output.Tasks).To(BeEmpty())
		})

		It("mirrors the structured output as JSON text content", func() {
			result, output, err := server.handleListTrajectories(ctx, nil, ListInput{})
			Expect(err).NotTo(HaveOccurred())

			text, ok := result.Content[0].(*sdkmcp.TextContent)
			Expect(ok).To(BeTrue())

			var parsed ListOutput
			Expect(json.Unmarshal([]byte(text.Text), &parsed)).To(Succeed())
			Expect(parsed.Count).To(Equal(output.Count))
		})
	})

	Describe("get_trajectory", func() {
		It("returns the full task by slug", func() {
			result, output, err := server.handleGetTrajectory(ctx, nil, GetInput{Slug: "alice-book-a-flight"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Task).NotTo(BeNil())
			Expect(output.Task.Name).To(Equal("Book a Flight"))
		})

		It("flags unknown slugs as tool errors", func() {
			result, output, err := server.handleGetTrajectory(ctx, nil, GetInput{Slug: "nope"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(output.Task).To(BeNil())
		})
	})
})
