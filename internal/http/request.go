package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"datatracker/internal/core"
)

// maxBodySize caps request bodies. All payloads here are small JSON
// documents.
const maxBodySize = 1 << 20

// FlexibleFloat accepts a JSON number or a numeric string with either
// '.' or ',' as the decimal separator, matching the form inputs of the
// UI.
type FlexibleFloat float64

func (f *FlexibleFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if !core.IsValidNumber(s) {
			return fmt.Errorf("invalid number %q", s)
		}
		*f = FlexibleFloat(core.ParseFlexibleNumber(s))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexibleFloat(v)
	return nil
}

type categoryRequest struct {
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Type       string `json:"type"`
	Unit       string `json:"unit"`
	AutoCreate bool   `json:"auto_create"`
}

func (r categoryRequest) toCategory() core.Category {
	return core.Category{
		Name:       strings.TrimSpace(r.Name),
		Icon:       r.Icon,
		Type:       core.CategoryType(r.Type),
		Unit:       strings.TrimSpace(r.Unit),
		AutoCreate: r.AutoCreate,
	}
}

type entryRequest struct {
	Date    string         `json:"date"`
	Value   FlexibleFloat  `json:"value"`
	Deposit *FlexibleFloat `json:"deposit"`
	Comment string         `json:"comment"`
}

func (r entryRequest) toEntry() core.Entry {
	e := core.Entry{
		Date:    strings.TrimSpace(r.Date),
		Value:   float64(r.Value),
		Comment: r.Comment,
	}
	if r.Deposit != nil {
		deposit := float64(*r.Deposit)
		e.Deposit = &deposit
	}
	return e
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID extracts a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// queryFloat parses an optional float query parameter. Blank means
// unset, not zero.
func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	if !core.IsValidNumber(raw) {
		return nil, fmt.Errorf("invalid %s", name)
	}
	v := core.ParseFlexibleNumber(raw)
	return &v, nil
}

// queryInt parses an optional integer query parameter, returning def
// when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

// queryIDList parses a comma separated list of ids, e.g.
// category_ids=1,3,7.
func queryIDList(r *http.Request, name string) ([]int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid %s", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// queryMonth validates an optional YYYY-MM query parameter. ISO day
// strings are accepted and reduced to their month.
func queryMonth(r *http.Request, name string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return "", nil
	}
	month := core.MonthKeyFromISO(raw)
	if month == "" {
		return "", fmt.Errorf("invalid %s: %w", name, core.ErrInvalidDate)
	}
	return month, nil
}
