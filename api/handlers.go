package api

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/playbacklabs/reel/pkg/viewer"
)

// handleHealthz returns a simple health check response.
func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"tasks":  len(s.dataset.Tasks),
	})
}

// stateFromQuery builds a viewer state for one request. The browser shell
// keeps no server session; every fragment request carries the full filter
// and selection state in its query string.
func (s *Server) stateFromQuery(c *fiber.Ctx) *viewer.State {
	st := viewer.NewState(s.dataset)
	st.SetUser(c.Query("user"))
	st.SetQuery(c.Query("q"))
	if slug := c.Query("task"); slug != "" {
		st.Select(slug)
	}
	return st
}

// handleTaskList renders the filtered task list fragment.
func (s *Server) handleTaskList(c *fiber.Ctx) error {
	st := s.stateFromQuery(c)

	html, err := s.renderer.TaskList(st)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

// handleTaskDetail renders the detail fragment for one task.
func (s *Server) handleTaskDetail(c *fiber.Ctx) error {
	st := s.stateFromQuery(c)
	slug := c.Params("slug")

	if s.dataset.TaskBySlug(slug) == nil {
		return fiber.NewError(fiber.StatusNotFound, "unknown task: "+slug)
	}
	if !st.Select(slug) {
		return fiber.NewError(fiber.StatusNotFound, "task excluded by current filters: "+slug)
	}

	html, err := s.renderer.TaskDetail(st)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

func (s *Server) dataDir() string {
	return filepath.Join(s.config.DataRoot, "data")
}
