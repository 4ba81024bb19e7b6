package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"datatracker/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Cascading deletes from categories to entries rely on this.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, icon, type, unit, auto_create) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Icon, string(c.Type), c.Unit, boolToInt(c.AutoCreate))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	c.ID = id

	slog.InfoContext(ctx, "Category created",
		"id", c.ID,
		"name", c.Name,
		"type", c.Type)
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, icon, type, unit, auto_create FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, type, unit, auto_create FROM categories ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, icon = ?, type = ?, unit = ?, auto_create = ? WHERE id = ?`,
		c.Name, c.Icon, string(c.Type), c.Unit, boolToInt(c.AutoCreate), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireAffected(res, c.ID)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := requireAffected(res, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (category_id, date, value, deposit, comment, auto_generated)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.CategoryID, e.Date, e.Value, depositArg(e.Deposit), e.Comment, boolToInt(e.AutoGenerated))
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Entry saved",
		"id", e.ID,
		"category_id", e.CategoryID,
		"month", e.Date,
		"value", e.Value)
	return e, nil
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, category_id, date, value, deposit, comment, auto_generated
		 FROM entries WHERE id = ?`, id)
	return scanEntry(row)
}

func (r *SQLiteRepository) ListEntries(ctx context.Context, categoryID int64) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, date, value, deposit, comment, auto_generated
		 FROM entries WHERE category_id = ? ORDER BY date, id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *SQLiteRepository) UpdateEntry(ctx context.Context, e core.Entry) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE entries SET date = ?, value = ?, deposit = ?, comment = ?, auto_generated = ?
		 WHERE id = ?`,
		e.Date, e.Value, depositArg(e.Deposit), e.Comment, boolToInt(e.AutoGenerated), e.ID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireAffected(res, e.ID)
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireAffected(res, id)
}

// SearchEntries filters entries server-side. The comment match is
// case-insensitive, date and value bounds are inclusive.
func (r *SQLiteRepository) SearchEntries(ctx context.Context, q SearchQuery) ([]core.Entry, error) {
	var (
		where []string
		args  []any
	)
	if q.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *q.CategoryID)
	}
	if q.CategoryType != "" {
		where = append(where, "category_id IN (SELECT id FROM categories WHERE type = ?)")
		args = append(args, q.CategoryType)
	}
	if q.Term != "" {
		where = append(where, "LOWER(comment) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Term)+"%")
	}
	if q.DateFrom != "" {
		where = append(where, "date >= ?")
		args = append(args, q.DateFrom)
	}
	if q.DateTo != "" {
		where = append(where, "date <= ?")
		args = append(args, q.DateTo)
	}
	if q.ValueMin != nil {
		where = append(where, "value >= ?")
		args = append(args, *q.ValueMin)
	}
	if q.ValueMax != nil {
		where = append(where, "value <= ?")
		args = append(args, *q.ValueMax)
	}

	query := `SELECT id, category_id, date, value, deposit, comment, auto_generated FROM entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *SQLiteRepository) EntryExistsForMonth(ctx context.Context, categoryID int64, month string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM entries WHERE category_id = ? AND date = ?)`,
		categoryID, month).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check entry for month: %w", err)
	}
	return exists == 1, nil
}

// LatestEntry returns the chronologically newest entry of a category.
func (r *SQLiteRepository) LatestEntry(ctx context.Context, categoryID int64) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, category_id, date, value, deposit, comment, auto_generated
		 FROM entries WHERE category_id = ? ORDER BY date DESC, id DESC LIMIT 1`, categoryID)
	return scanEntry(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c          core.Category
		typ        string
		autoCreate int
	)
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &typ, &c.Unit, &autoCreate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.Type = core.CategoryType(typ)
	c.AutoCreate = autoCreate == 1
	return c, nil
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var (
		e             core.Entry
		deposit       sql.NullFloat64
		autoGenerated int
	)
	err := row.Scan(&e.ID, &e.CategoryID, &e.Date, &e.Value, &deposit, &e.Comment, &autoGenerated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	if deposit.Valid {
		v := deposit.Float64
		e.Deposit = &v
	}
	e.AutoGenerated = autoGenerated == 1
	return e, nil
}

func collectEntries(rows *sql.Rows) ([]core.Entry, error) {
	var entries []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return nil
}

func depositArg(d *float64) any {
	if d == nil {
		return nil
	}
	return *d
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
