package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/playbacklabs/reel/pkg/trajectory"
	"github.com/playbacklabs/reel/pkg/viewer"
)

var (
	listToolName    = "list_trajectories"
	listDescription = "List recorded agent task trajectories. Supports case-insensitive substring filtering on the task name and exact filtering on the recording user. Returns task summaries including slug, step count, and per-action counts."

	getToolName    = "get_trajectory"
	getDescription = "Fetch one recorded trajectory by its slug, including the full step sequence with action details, observations, and attachment asset paths."
)

// ListInput represents the input arguments for the list tool.
type ListInput struct {
	Query string `json:"query,omitempty" jsonschema:"case-insensitive substring to match against task names"`
	User  string `json:"user,omitempty" jsonschema:"exact user name to filter by (empty for all users)"`
}

// TaskSummary is one entry of the list tool's output.
type TaskSummary struct {
	Name    string         `json:"name"`
	Slug    string         `json:"slug"`
	User    string         `json:"user"`
	Steps   int            `json:"steps"`
	Actions map[string]int `json:"actions"`
}

// ListOutput represents the output of the list tool.
type ListOutput struct {
	Tasks []TaskSummary `json:"tasks"`
	Count int           `json:"count"`
}

// GetInput represents the input arguments for the get tool.
type GetInput struct {
	Slug string `json:"slug" jsonschema:"the trajectory slug, as returned by list_trajectories"`
}

// GetOutput represents the output of the get tool.
type GetOutput struct {
	Task *trajectory.Task `json:"task"`
}

// handleListTrajectories processes a list request.
func (s *Server) handleListTrajectories(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP list request",
		zap.String("query", input.Query),
		zap.String("user", input.User),
	)

	filtered := viewer.Filter(s.config.Dataset.Tasks, input.Query, input.User)

	summaries := make([]TaskSummary, 0, len(filtered))
	for i := range filtered {
		summaries = append(summaries, summarize(&filtered[i]))
	}

	output := ListOutput{
		Tasks: summaries,
		Count: len(summaries),
	}

	return toolResult(logger, output, ListOutput{})
}

// handleGetTrajectory processes a get request.
func (s *Server) handleGetTrajectory(ctx context.Context, req *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, GetOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP get request", zap.String("slug", input.Slug))

	task := s.config.Dataset.TaskBySlug(input.Slug)
	if task == nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Unknown trajectory slug: %q", input.Slug)},
			},
		}, GetOutput{}, nil
	}

	return toolResult(logger, GetOutput{Task: task}, GetOutput{})
}

// summarize reduces a task to its list entry.
func summarize(task *trajectory.Task) TaskSummary {
	actions := make(map[string]int, len(task.Stats.ActionBreakdown))
	for _, entry := range task.Stats.ActionBreakdown {
		actions[entry.Action] = entry.Count
	}

	return TaskSummary{
		Name:    task.Name,
		Slug:    task.Slug,
		User:    task.Owner(),
		Steps:   task.Stats.TotalSteps,
		Actions: actions,
	}
}

// toolResult serializes the structured output as JSON for the text field.
// Per MCP spec: tools returning structured content should also return
// serialized JSON in a TextContent block for backwards compatibility.
func toolResult[T any](logger *zap.Logger, output, zero T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal tool output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
