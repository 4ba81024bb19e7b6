package http

import (
	"fmt"
	"net/http"

	"datatracker/internal/core"
	"datatracker/internal/storage"
)

type entryResponse struct {
	ID            int64    `json:"id"`
	CategoryID    int64    `json:"category_id"`
	Date          string   `json:"date"`
	Value         float64  `json:"value"`
	Deposit       *float64 `json:"deposit"`
	Comment       string   `json:"comment"`
	AutoGenerated bool     `json:"auto_generated"`
}

func toEntryResponse(e core.Entry) entryResponse {
	return entryResponse{
		ID:            e.ID,
		CategoryID:    e.CategoryID,
		Date:          e.Date,
		Value:         e.Value,
		Deposit:       e.Deposit,
		Comment:       e.Comment,
		AutoGenerated: e.AutoGenerated,
	}
}

func toEntryResponses(entries []core.Entry) []entryResponse {
	out := make([]entryResponse, len(entries))
	for i, e := range entries {
		out[i] = toEntryResponse(e)
	}
	return out
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.entries.Create(r.Context(), categoryID, req.toEntry())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryResponse(created))
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.entries.List(r.Context(), categoryID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponses(entries))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entryID, err := pathID(r, "entryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.entries.Update(r.Context(), categoryID, entryID, req.toEntry())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(updated))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entryID, err := pathID(r, "entryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.entries.Delete(r.Context(), categoryID, entryID); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleSearchEntries filters entries across all categories. Supported
// parameters: category_id, category_type, q, date_from, date_to,
// value_min, value_max, limit.
func (s *Server) handleSearchEntries(w http.ResponseWriter, r *http.Request) {
	q := storage.SearchQuery{
		Term: r.URL.Query().Get("q"),
	}

	if raw := r.URL.Query().Get("category_type"); raw != "" {
		if !core.CategoryType(raw).IsValid() {
			writeError(w, http.StatusBadRequest, "invalid category_type")
			return
		}
		q.CategoryType = raw
	}

	if raw := r.URL.Query().Get("category_id"); raw != "" {
		ids, err := queryIDList(r, "category_id")
		if err != nil || len(ids) != 1 {
			writeError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		q.CategoryID = &ids[0]
	}

	var err error
	if q.DateFrom, err = queryMonth(r, "date_from"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.DateTo, err = queryMonth(r, "date_to"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.ValueMin, err = queryFloat(r, "value_min"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.ValueMax, err = queryFloat(r, "value_max"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.Limit, err = queryInt(r, "limit", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sc, err := sortCriteria(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.entries.Search(r.Context(), q)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if sc != nil {
		entries = core.SortEntries(entries, *sc)
	}
	writeJSON(w, http.StatusOK, toEntryResponses(entries))
}

// sortCriteria parses the optional sort/direction parameters. Without a
// sort field the storage order (date, id) stands.
func sortCriteria(r *http.Request) (*core.SortCriteria, error) {
	field := r.URL.Query().Get("sort")
	if field == "" {
		return nil, nil
	}
	switch core.SortField(field) {
	case core.SortByDate, core.SortByValue, core.SortByDeposit, core.SortByComment:
	default:
		return nil, fmt.Errorf("invalid sort field %q", field)
	}

	sc := core.SortCriteria{Field: core.SortField(field), Direction: core.Ascending}
	switch dir := r.URL.Query().Get("direction"); dir {
	case "", string(core.Ascending):
	case string(core.Descending):
		sc.Direction = core.Descending
	default:
		return nil, fmt.Errorf("invalid sort direction %q", dir)
	}
	return &sc, nil
}
