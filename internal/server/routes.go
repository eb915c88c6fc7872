package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - run status stream
	mux.HandleFunc("/ws/runs/", s.app.WSHandler.HandleRunStream)

	// API routes - Research runs
	mux.HandleFunc("/api/research", s.handleResearchRoute)             // GET (list), POST (start)
	mux.HandleFunc("/api/research/", s.app.ResearchHandler.RunRoutes) // GET /{id}, POST /{id}/feedback
	mux.HandleFunc("/api/download/", s.app.ResearchHandler.DownloadHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleResearchRoute routes /api/research requests (list and start)
func (s *Server) handleResearchRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet:  s.app.ResearchHandler.ListHandler,
		http.MethodPost: s.app.ResearchHandler.StartHandler,
	})
}
