package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// timeLayout is fixed-width in UTC so stored dates sort lexically.
const timeLayout = "2006-01-02T15:04:05Z"

// Repository defines the interface for content persistence operations.
type Repository interface {
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id int64) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error

	CreateEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id int64) (*Event, error)
	ListEvents(ctx context.Context, f EventFilter) ([]Event, error)
	UpdateEvent(ctx context.Context, e *Event) error
	DeleteEvent(ctx context.Context, id int64) error

	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id int64) (*Post, error)
	ListPosts(ctx context.Context, f PostFilter) ([]Post, error)
	UpdatePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, id int64) error
}

// SQLiteRepository implements Repository using SQLite.
// Foreign keys must be enabled on the connection (database.Open does this).
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed content repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// --- categories ---

// CreateCategory inserts a category and sets its ID.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c *Category) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, color) VALUES (?, ?)`, c.Name, c.Color)
	if err != nil {
		return fmt.Errorf("inserting category: %w", mapConstraint(err))
	}
	c.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading category id: %w", err)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, color FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting category %d: %w", id, err)
	}
	return &c, nil
}

// ListCategories returns all categories ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory writes name and colour.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c *Category) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ? WHERE id = ?`, c.Name, c.Color, c.ID)
	if err != nil {
		return fmt.Errorf("updating category %d: %w", c.ID, mapConstraint(err))
	}
	return expectRow(result, "category", c.ID)
}

// DeleteCategory removes a category. It fails with ErrInUse while events
// or posts still reference it.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		if isRestrictViolation(err) {
			return fmt.Errorf("category %d: %w", id, ErrInUse)
		}
		return fmt.Errorf("deleting category %d: %w", id, err)
	}
	return expectRow(result, "category", id)
}

// --- events ---

const eventColumns = `id, category_id, title, created_by, created_at, start_date, end_date,
	location_name, location_lat, location_lng`

// CreateEvent inserts an event and sets its ID.
func (r *SQLiteRepository) CreateEvent(ctx context.Context, e *Event) error {
	name, lat, lng := locationColumns(e.Location)
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO events (category_id, title, created_by, created_at, start_date, end_date,
			location_name, location_lat, location_lng)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CategoryID, e.Title, nullInt(e.CreatedBy), formatTime(e.CreatedAt),
		formatTime(e.StartDate), formatTime(e.EndDate), name, lat, lng,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", mapConstraint(err))
	}
	e.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading event id: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (r *SQLiteRepository) GetEvent(ctx context.Context, id int64) (*Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting event %d: %w", id, err)
	}
	return e, nil
}

// ListEvents returns events ordered by start date.
func (r *SQLiteRepository) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	var where []string
	var args []any
	if f.CategoryID != 0 {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		where = append(where, "start_date >= ?")
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "start_date < ?")
		args = append(args, formatTime(f.To))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// UpdateEvent writes every writable field. CreatedBy and CreatedAt are kept.
func (r *SQLiteRepository) UpdateEvent(ctx context.Context, e *Event) error {
	name, lat, lng := locationColumns(e.Location)
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET category_id = ?, title = ?, start_date = ?, end_date = ?,
			location_name = ?, location_lat = ?, location_lng = ?
		 WHERE id = ?`,
		e.CategoryID, e.Title, formatTime(e.StartDate), formatTime(e.EndDate), name, lat, lng, e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating event %d: %w", e.ID, mapConstraint(err))
	}
	return expectRow(result, "event", e.ID)
}

// DeleteEvent removes an event.
func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event %d: %w", id, err)
	}
	return expectRow(result, "event", id)
}

// --- posts ---

const postColumns = `id, title, body, category_id, creator_id, is_visible, created_at`

// CreatePost inserts a post and sets its ID.
func (r *SQLiteRepository) CreatePost(ctx context.Context, p *Post) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (title, body, category_id, creator_id, is_visible, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Title, p.Body, p.CategoryID, nullInt(p.CreatorID), p.IsVisible, formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting post: %w", mapConstraint(err))
	}
	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading post id: %w", err)
	}
	return nil
}

// GetPost retrieves a post by ID regardless of visibility.
func (r *SQLiteRepository) GetPost(ctx context.Context, id int64) (*Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting post %d: %w", id, err)
	}
	return p, nil
}

// ListPosts returns posts newest first.
func (r *SQLiteRepository) ListPosts(ctx context.Context, f PostFilter) ([]Post, error) {
	var where []string
	var args []any
	if f.CategoryID != 0 {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.VisibleOnly {
		where = append(where, "is_visible = 1")
	}

	query := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	return posts, nil
}

// UpdatePost writes title, body, category and visibility.
func (r *SQLiteRepository) UpdatePost(ctx context.Context, p *Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, body = ?, category_id = ?, is_visible = ? WHERE id = ?`,
		p.Title, p.Body, p.CategoryID, p.IsVisible, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating post %d: %w", p.ID, mapConstraint(err))
	}
	return expectRow(result, "post", p.ID)
}

// DeletePost removes a post.
func (r *SQLiteRepository) DeletePost(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}
	return expectRow(result, "post", id)
}

// --- helpers ---

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*Event, error) {
	var e Event
	var createdBy sql.NullInt64
	var createdAt, start, end string
	var locName sql.NullString
	var lat, lng sql.NullFloat64

	if err := s.Scan(&e.ID, &e.CategoryID, &e.Title, &createdBy, &createdAt, &start, &end,
		&locName, &lat, &lng); err != nil {
		return nil, err
	}

	if createdBy.Valid {
		e.CreatedBy = &createdBy.Int64
	}
	e.CreatedAt = parseTime(createdAt)
	e.StartDate = parseTime(start)
	e.EndDate = parseTime(end)
	if locName.Valid || lat.Valid || lng.Valid {
		e.Location = &Location{Name: locName.String, Lat: lat.Float64, Lng: lng.Float64}
	}
	return &e, nil
}

func scanPost(s scanner) (*Post, error) {
	var p Post
	var creator sql.NullInt64
	var createdAt string

	if err := s.Scan(&p.ID, &p.Title, &p.Body, &p.CategoryID, &creator, &p.IsVisible, &createdAt); err != nil {
		return nil, err
	}
	if creator.Valid {
		p.CreatorID = &creator.Int64
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func locationColumns(l *Location) (sql.NullString, sql.NullFloat64, sql.NullFloat64) {
	if l == nil {
		return sql.NullString{}, sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullString{String: l.Name, Valid: l.Name != ""},
		sql.NullFloat64{Float64: l.Lat, Valid: true},
		sql.NullFloat64{Float64: l.Lng, Valid: true}
}

func nullInt(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s) //nolint:errcheck // format is controlled
	return t
}

func expectRow(result sql.Result, entity string, id int64) error {
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}

// mapConstraint translates SQLite constraint failures into package errors.
func mapConstraint(err error) error {
	switch {
	case isConstraint(err, sqlite3.ErrConstraintUnique):
		return ErrNameExists
	case isConstraint(err, sqlite3.ErrConstraintForeignKey):
		return ErrInvalidReference
	default:
		return err
	}
}

// isRestrictViolation matches a parent delete blocked by ON DELETE RESTRICT.
// SQLite reports those as SQLITE_CONSTRAINT_TRIGGER (1811), not the
// SQLITE_CONSTRAINT_FOREIGNKEY (787) that child inserts and updates get.
func isRestrictViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintTrigger ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == code
}
