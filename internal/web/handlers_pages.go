package web

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/core"
	"github.com/JonMunkholm/cardadmin/internal/logging"
	"github.com/JonMunkholm/cardadmin/internal/web/templates"
)

// recentSetsShown is the number of sets listed on the overview.
const recentSetsShown = 5

// render writes a full page with the given status.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}

// handleOverview renders the dashboard. A store failure still renders the
// page with the error in place of the counts.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	var params templates.OverviewParams

	stats, err := s.service.Stats(r.Context())
	if err == nil {
		var sets []catalog.Set
		sets, err = s.service.ListSets(r.Context(), catalog.SetsNewestFirst)
		if len(sets) > recentSetsShown {
			sets = sets[:recentSetsShown]
		}
		params.RecentSets = sets
	}
	params.Stats = stats

	if err != nil {
		logging.FromContext(r.Context()).Error("load overview", "error", err)
		params.StoreError = core.FormatUserError(err)
	}
	render(w, r, http.StatusOK, templates.Overview(params))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

func (s *Server) placeholder(title, key, description string) http.HandlerFunc {
	page := templates.Placeholder(title, key, description)
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusOK, page)
	}
}
