package http

import (
	"net/http"

	"datatracker/internal/services"
)

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.DashboardStats(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleDashboardTimeseries serves the portfolio series. Parameters:
// start_date, end_date (YYYY-MM or ISO day), category_type.
func (s *Server) handleDashboardTimeseries(w http.ResponseWriter, r *http.Request) {
	var f services.TimeseriesFilter
	var err error
	if f.From, err = queryMonth(r, "start_date"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.To, err = queryMonth(r, "end_date"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Type = r.URL.Query().Get("category_type")

	series, err := s.stats.DashboardTimeseries(r.Context(), f)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// handleStatsOverview serves flat aggregates. Parameters: category_ids
// (comma separated), from, to.
func (s *Server) handleStatsOverview(w http.ResponseWriter, r *http.Request) {
	var f services.OverviewFilter
	var err error
	if f.CategoryIDs, err = queryIDList(r, "category_ids"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.From, err = queryMonth(r, "from"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.To, err = queryMonth(r, "to"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	overview, err := s.stats.Overview(r.Context(), f)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// handleStatsMonthly serves the per-year monthly matrix of one category.
// Parameters: category_id (required), from_year, to_year.
func (s *Server) handleStatsMonthly(w http.ResponseWriter, r *http.Request) {
	ids, err := queryIDList(r, "category_id")
	if err != nil || len(ids) != 1 {
		writeError(w, http.StatusBadRequest, "invalid category_id")
		return
	}
	fromYear, err := queryInt(r, "from_year", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	toYear, err := queryInt(r, "to_year", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	matrix, err := s.stats.MonthlyByYear(r.Context(), ids[0], fromYear, toYear)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matrix)
}

func (s *Server) handleCategoryInsights(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	insights, err := s.stats.Insights(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

type autoCreateResponse struct {
	Created []services.AutoCreateResult `json:"created"`
	Count   int                         `json:"count"`
}

func (s *Server) handleAutoCreate(w http.ResponseWriter, r *http.Request) {
	created, err := s.auto.Run(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	if created == nil {
		created = []services.AutoCreateResult{}
	}
	writeJSON(w, http.StatusOK, autoCreateResponse{Created: created, Count: len(created)})
}
