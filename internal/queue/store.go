package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ytpub/internal/assets"
	"ytpub/internal/config"
)

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.QueueDatabasePath())
}

// OpenPath connects to a queue database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

const itemColumns = `id, folder_path, video_path, sidecar_path, thumbnail_path, title,
    status, video_id, tags_dropped, description_replaced, transient_retries,
    error_message, progress_stage, progress_percent, progress_message,
    created_at, updated_at, last_heartbeat, needs_review, review_reason`

// NewFolder inserts a pending item for a discovered asset folder. A folder
// already queued in a non-terminal state is returned as-is instead of being
// enqueued twice.
func (s *Store) NewFolder(ctx context.Context, folder assets.Folder, title string) (*Item, bool, error) {
	existing, err := s.FindActiveByFolder(ctx, folder.Dir)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queue_items (
            folder_path, video_path, sidecar_path, thumbnail_path, title,
            status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		folder.Dir,
		folder.VideoPath,
		nullableString(folder.SidecarPath),
		nullableString(folder.ThumbnailPath),
		nullableString(title),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert folder: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("last insert id: %w", err)
	}
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

// GetByID fetches a queue item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// FindLatestByFolder returns the most recent item for a folder path in any
// status, or nil when the folder was never queued.
func (s *Store) FindLatestByFolder(ctx context.Context, folderPath string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items
         WHERE folder_path = ? ORDER BY id DESC LIMIT 1`,
		folderPath,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest by folder: %w", err)
	}
	return item, nil
}

// FindActiveByFolder returns the first non-terminal item for a folder path.
func (s *Store) FindActiveByFolder(ctx context.Context, folderPath string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items
         WHERE folder_path = ? AND status IN (?, ?) ORDER BY id LIMIT 1`,
		folderPath, StatusPending, StatusUploading,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by folder: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items
         SET folder_path = ?, video_path = ?, sidecar_path = ?, thumbnail_path = ?,
             title = ?, status = ?, video_id = ?, tags_dropped = ?,
             description_replaced = ?, transient_retries = ?, error_message = ?,
             progress_stage = ?, progress_percent = ?, progress_message = ?,
             updated_at = ?, last_heartbeat = ?, needs_review = ?, review_reason = ?
         WHERE id = ?`,
		item.FolderPath,
		item.VideoPath,
		nullableString(item.SidecarPath),
		nullableString(item.ThumbnailPath),
		nullableString(item.Title),
		item.Status,
		nullableString(item.VideoID),
		boolToInt(item.TagsDropped),
		boolToInt(item.DescriptionReplaced),
		item.TransientRetries,
		nullableString(item.ErrorMessage),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(item.LastHeartbeat),
		boolToInt(item.NeedsReview),
		nullableString(item.ReviewReason),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// List returns queue items filtered by status set (or all items when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextPending returns the oldest pending item, or nil when the queue is idle.
func (s *Store) NextPending(ctx context.Context) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items WHERE status = ? ORDER BY created_at LIMIT 1`,
		StatusPending,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(scanner rowScanner) (*Item, error) {
	var (
		item                Item
		sidecarPath         sql.NullString
		thumbnailPath       sql.NullString
		title               sql.NullString
		videoID             sql.NullString
		tagsDropped         int
		descriptionReplaced int
		errorMessage        sql.NullString
		progressStage       sql.NullString
		progressMessage     sql.NullString
		createdAt           string
		updatedAt           string
		lastHeartbeat       sql.NullString
		needsReview         int
		reviewReason        sql.NullString
	)
	err := scanner.Scan(
		&item.ID,
		&item.FolderPath,
		&item.VideoPath,
		&sidecarPath,
		&thumbnailPath,
		&title,
		&item.Status,
		&videoID,
		&tagsDropped,
		&descriptionReplaced,
		&item.TransientRetries,
		&errorMessage,
		&progressStage,
		&item.ProgressPercent,
		&progressMessage,
		&createdAt,
		&updatedAt,
		&lastHeartbeat,
		&needsReview,
		&reviewReason,
	)
	if err != nil {
		return nil, err
	}

	item.SidecarPath = sidecarPath.String
	item.ThumbnailPath = thumbnailPath.String
	item.Title = title.String
	item.VideoID = videoID.String
	item.TagsDropped = tagsDropped != 0
	item.DescriptionReplaced = descriptionReplaced != 0
	item.ErrorMessage = errorMessage.String
	item.ProgressStage = progressStage.String
	item.ProgressMessage = progressMessage.String
	item.NeedsReview = needsReview != 0
	item.ReviewReason = reviewReason.String

	if item.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if lastHeartbeat.Valid {
		heartbeat, err := parseTimestamp(lastHeartbeat.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_heartbeat: %w", err)
		}
		item.LastHeartbeat = &heartbeat
	}
	return &item, nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
