package http

import (
	"fmt"
	"net/http"

	"datatracker/internal/export"
	"datatracker/internal/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportAll streams an Excel workbook with every category, or the
// categories selected via category_ids, within the from/to window.
func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	f, ok := s.exportFilter(w, r)
	if !ok {
		return
	}
	s.serveWorkbook(w, r, f, "export.xlsx")
}

// handleExportCategory streams a workbook for a single category.
func (s *Server) handleExportCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f, ok := s.exportFilter(w, r)
	if !ok {
		return
	}
	f.CategoryIDs = []int64{id}
	s.serveWorkbook(w, r, f, fmt.Sprintf("export_category_%d.xlsx", id))
}

// handleExportSheets mirrors the data into the configured Google
// spreadsheet. Without sheets credentials the endpoint is disabled.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil {
		writeError(w, http.StatusServiceUnavailable, "sheets export not configured")
		return
	}
	f, ok := s.exportFilter(w, r)
	if !ok {
		return
	}
	if err := s.sheets.Mirror(r.Context(), f); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "mirrored"})
}

func (s *Server) exportFilter(w http.ResponseWriter, r *http.Request) (export.Filter, bool) {
	var f export.Filter
	var err error
	if f.CategoryIDs, err = queryIDList(r, "category_ids"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return f, false
	}
	if f.From, err = queryMonth(r, "from"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return f, false
	}
	if f.To, err = queryMonth(r, "to"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return f, false
	}
	return f, true
}

func (s *Server) serveWorkbook(w http.ResponseWriter, r *http.Request, f export.Filter, filename string) {
	wb, err := s.excel.Workbook(r.Context(), f)
	if err != nil {
		s.respondError(w, err)
		return
	}
	defer wb.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := wb.Write(w); err != nil {
		// Headers are already sent, all we can do is log.
		s.logger.Error("Failed to stream workbook", log.FieldError, err)
	}
}
