package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"datatracker/internal/backend"
	"datatracker/internal/log"
)

// Sheets mirrors category data into a Google spreadsheet. It writes the
// same flat rows as the Excel export into a single sheet.
type Sheets struct {
	svc           *gsheet.Service
	store         backend.Store
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// NewSheets creates a Sheets mirror using service account credentials
// from the environment: GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewSheets(ctx context.Context, store backend.Store, spreadsheetID, sheetName string, logger *log.Logger) (*Sheets, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Sheets{
		svc:           svc,
		store:         store,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentExport),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Mirror replaces the configured sheet's content with the current data:
// one header row followed by every entry of every category within the
// filter window.
func (s *Sheets) Mirror(ctx context.Context, f Filter) error {
	if s.svc == nil {
		return errors.New("sheets service not initialized")
	}

	excel := &Excel{store: s.store, logger: s.logger}
	categories, err := excel.selectCategories(ctx, f.CategoryIDs)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, 64)
	header := make([]any, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	rows = append(rows, header)

	for _, cat := range categories {
		entries, err := s.store.ListEntries(ctx, cat.ID)
		if err != nil {
			return fmt.Errorf("entries for category %d: %w", cat.ID, err)
		}
		for _, e := range entries {
			if f.From != "" && e.Date < f.From {
				continue
			}
			if f.To != "" && e.Date > f.To {
				continue
			}
			rows = append(rows, entryRow(cat, e))
		}
	}

	clearRange := fmt.Sprintf("%s!A:G", s.sheetName)
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", s.sheetName, err)
	}

	writeRange := fmt.Sprintf("%s!A1", s.sheetName)
	vr := &gsheet.ValueRange{Values: rows}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", s.sheetName, err)
	}

	s.logger.Info("Mirrored data to Google Sheets",
		log.FieldCount, len(rows)-1,
		"spreadsheet_id", s.spreadsheetID)
	return nil
}
