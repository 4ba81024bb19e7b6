// Package export renders category data to Excel workbooks and mirrors
// it to Google Sheets.
package export

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"datatracker/internal/backend"
	"datatracker/internal/core"
	"datatracker/internal/log"
	"datatracker/internal/storage"
)

// Excel sheet titles are capped at 31 characters and must not contain
// \ / * [ ] : ?
const maxSheetTitleLength = 31

const invalidSheetTitleChars = `\/*[]:?`

// exportHeaders is the column layout of every category sheet. The labels
// match the UI language.
var exportHeaders = []string{
	"Kategorie", "Datum", "Wert", "Einzahlung", "Einheit", "Kommentar", "Auto_generated",
}

// Filter narrows a workbook export. Empty fields are open.
type Filter struct {
	CategoryIDs []int64
	From        string
	To          string
}

// Excel generates workbooks with one sheet per category.
type Excel struct {
	store  backend.Store
	logger *log.Logger
}

func NewExcel(store backend.Store, logger *log.Logger) *Excel {
	return &Excel{
		store:  store,
		logger: logger.WithComponent(log.ComponentExport),
	}
}

// Workbook builds an Excel workbook with one sheet per matching category,
// each holding the category's entries within the date window. The caller
// owns the file and is responsible for closing it.
func (e *Excel) Workbook(ctx context.Context, f Filter) (*excelize.File, error) {
	categories, err := e.selectCategories(ctx, f.CategoryIDs)
	if err != nil {
		return nil, err
	}

	wb := excelize.NewFile()

	if len(categories) == 0 {
		sheet := wb.GetSheetName(0)
		if err := wb.SetSheetName(sheet, "No categories"); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
		_ = wb.SetCellValue("No categories", "A1", "Info")
		_ = wb.SetCellValue("No categories", "A2", "No categories found for export")
		e.logger.Warn("No categories found for export")
		return wb, nil
	}

	headerStyle, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	defaultSheet := wb.GetSheetName(0)
	usedTitles := make(map[string]bool, len(categories))
	for _, cat := range categories {
		title := uniqueSheetTitle(categoryTitle(cat), usedTitles)
		if _, err := wb.NewSheet(title); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", title, err)
		}

		if err := e.writeCategorySheet(ctx, wb, title, cat, f, headerStyle); err != nil {
			return nil, err
		}
	}
	if err := wb.DeleteSheet(defaultSheet); err != nil {
		return nil, fmt.Errorf("remove default sheet: %w", err)
	}

	e.logger.Info("Workbook generated", log.FieldCount, len(categories))
	return wb, nil
}

func (e *Excel) selectCategories(ctx context.Context, ids []int64) ([]core.Category, error) {
	if len(ids) == 0 {
		categories, err := e.store.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		return categories, nil
	}

	categories := make([]core.Category, 0, len(ids))
	for _, id := range ids {
		cat, err := e.store.GetCategory(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get category %d: %w", id, err)
		}
		categories = append(categories, cat)
	}
	return categories, nil
}

func (e *Excel) writeCategorySheet(ctx context.Context, wb *excelize.File, sheet string, cat core.Category, f Filter, headerStyle int) error {
	header := make([]any, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := wb.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	entries, err := e.store.SearchEntries(ctx, storage.SearchQuery{
		CategoryID: &cat.ID,
		DateFrom:   f.From,
		DateTo:     f.To,
	})
	if err != nil {
		return fmt.Errorf("entries for category %d: %w", cat.ID, err)
	}

	widths := make([]int, len(exportHeaders))
	for i, h := range exportHeaders {
		widths[i] = len(h)
	}
	for i, entry := range entries {
		row := entryRow(cat, entry)
		cell := fmt.Sprintf("A%d", i+2)
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		for col, v := range row {
			if l := len(fmt.Sprint(v)); l > widths[col] {
				widths[col] = l
			}
		}
	}

	for i, w := range widths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := wb.SetColWidth(sheet, name, name, float64(w+2)); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}

func entryRow(cat core.Category, e core.Entry) []any {
	deposit := any("")
	if e.Deposit != nil {
		deposit = *e.Deposit
	}
	return []any{
		cat.Name,
		e.Date,
		e.Value,
		deposit,
		cat.Unit,
		e.Comment,
		e.AutoGenerated,
	}
}

func categoryTitle(cat core.Category) string {
	if strings.TrimSpace(cat.Name) == "" {
		return fmt.Sprintf("cat_%d", cat.ID)
	}
	return cat.Name
}

// uniqueSheetTitle sanitizes a title and deduplicates it against the
// already used ones by appending a counter. Category names are not
// unique, and distinct names can truncate to the same 31 characters;
// reusing a title would overwrite the earlier category's sheet.
func uniqueSheetTitle(title string, used map[string]bool) string {
	base := SanitizeSheetTitle(title)
	if !used[base] {
		used[base] = true
		return base
	}
	for i := 1; ; i++ {
		suffix := strconv.Itoa(i)
		runes := []rune(base)
		if len(runes)+len(suffix) > maxSheetTitleLength {
			runes = runes[:maxSheetTitleLength-len(suffix)]
		}
		candidate := string(runes) + suffix
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}

// SanitizeSheetTitle replaces characters Excel forbids in sheet titles
// and truncates to the allowed length.
func SanitizeSheetTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if strings.ContainsRune(invalidSheetTitleChars, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if runes := []rune(out); len(runes) > maxSheetTitleLength {
		out = string(runes[:maxSheetTitleLength])
	}
	return out
}
