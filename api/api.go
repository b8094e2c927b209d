package api

import (
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apimcp "github.com/playbacklabs/reel/api/mcp"
	"github.com/playbacklabs/reel/pkg/trajectory"
	"github.com/playbacklabs/reel/pkg/viewer/render"
	"github.com/playbacklabs/reel/web/viewer"
)

// Server is the HTTP server for browsing trajectories.
type Server struct {
	config   Config
	dataset  *trajectory.Dataset
	renderer *render.Renderer
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new viewer server over an already-loaded dataset.
// The dataset is injected to allow sharing with other components
// (e.g., the MCP endpoint and the view TUI).
func NewServer(config Config, dataset *trajectory.Dataset, logger *zap.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		dataset:  dataset,
		renderer: render.New(),
		logger:   logger,
		app:      app,
	}

	app.Get("/healthz", s.handleHealthz)
	app.Get("/fragment/tasks", s.handleTaskList)
	app.Get("/fragment/task/:slug", s.handleTaskDetail)

	// Built dataset and copied screenshot assets.
	app.Use("/data", adaptor.HTTPHandler(
		http.StripPrefix("/data", http.FileServer(http.Dir(s.dataDir()))),
	))

	if config.EnableMCP {
		mcpServer, err := apimcp.NewServer(apimcp.Config{
			Dataset: dataset,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	// Static viewer shell. Registered last so explicit routes win.
	app.Use("/", adaptor.HTTPHandler(http.FileServer(http.FS(viewer.FS))))

	return s, nil
}

// Run starts the viewer server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting viewer server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("dataRoot", s.config.DataRoot),
		zap.Int("tasks", len(s.dataset.Tasks)),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the viewer server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
