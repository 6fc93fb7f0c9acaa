package server

import (
	"net/http"
	"os"

	"github.com/bobmcallan/trendcast/internal/common"
)

// registerRoutes sets up all routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Prediction
	mux.HandleFunc("/suggest", s.handleSuggest)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/api/chart", s.handleChart)

	// Front end
	mux.Handle("/", s.staticHandler())
}

// staticHandler serves server.static_dir when it exists.
func (s *Server) staticHandler() http.Handler {
	dir := s.app.Config.Server.StaticDir
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			s.logger.Info().Str("dir", dir).Msg("Serving static files")
			return http.FileServer(http.Dir(dir))
		}
		s.logger.Warn().Str("dir", dir).Msg("Static directory not found, front end disabled")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
		"source":  s.app.MarketClient.Name(),
	})
}
