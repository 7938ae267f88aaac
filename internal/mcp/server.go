package mcp

import (
	"log/slog"

	"github.com/claude/fittrack/internal/tracker"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(svc *tracker.Service, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FitTrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FitTrack training program server. Look up today's session, record set outcomes to drive autoregulation, log workouts and recovery, and review achievements and progress. Dates are YYYY-MM-DD; omitted program and date mean the default program and today."),
	)

	h := &handlers{svc: svc, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetToday, Handler: h.getToday},
		server.ServerTool{Tool: toolGetPrescription, Handler: h.getPrescription},
		server.ServerTool{Tool: toolRecordSet, Handler: h.recordSet},
		server.ServerTool{Tool: toolLogWorkout, Handler: h.logWorkout},
		server.ServerTool{Tool: toolLogRecovery, Handler: h.logRecovery},
		server.ServerTool{Tool: toolSetOneRepMax, Handler: h.setOneRepMax},
		server.ServerTool{Tool: toolListPrograms, Handler: h.listPrograms},
		server.ServerTool{Tool: toolGetAchievements, Handler: h.getAchievements},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resPrograms, Handler: h.programs},
		server.ServerResource{Resource: resAchievements, Handler: h.achievements},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	svc *tracker.Service
	log *slog.Logger
}

// --- Resource definitions ---

var resPrograms = mcp.NewResource(
	"fittrack://programs",
	"Program Library",
	mcp.WithResourceDescription("Every training program with its days, schedule and per-phase prescriptions"),
	mcp.WithMIMEType("application/json"),
)

var resAchievements = mcp.NewResource(
	"fittrack://achievements",
	"Achievements",
	mcp.WithResourceDescription("All achievements with their unlock state"),
	mcp.WithMIMEType("application/json"),
)
