package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anchorlab/reanchor/internal/domain"
)

// Store implements the relocate.ThreadStore port using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Comment threads opened on files
	CREATE TABLE IF NOT EXISTS threads (
		id TEXT PRIMARY KEY,
		file_path TEXT NOT NULL,
		author TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		resolved INTEGER NOT NULL DEFAULT 0
	);

	-- Each thread's anchor: where it was opened and where it sits now.
	-- current_* columns are NULL before the first relocation pass and
	-- when the anchored content could not be found.
	CREATE TABLE IF NOT EXISTS anchors (
		thread_id TEXT PRIMARY KEY,
		revision TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		start_column INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		end_column INTEGER NOT NULL,
		captured_text TEXT NOT NULL,
		current_start_line INTEGER,
		current_start_column INTEGER,
		current_end_line INTEGER,
		current_end_column INTEGER,
		relocated_at INTEGER,
		FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_threads_file_path ON threads(file_path);
	CREATE INDEX IF NOT EXISTS idx_threads_created_at ON threads(created_at ASC);
	`

	_, err := s.db.Exec(schema)
	return err
}

const threadColumns = `
	t.id, t.file_path, t.author, t.body, t.created_at, t.resolved,
	a.revision, a.start_line, a.start_column, a.end_line, a.end_column, a.captured_text,
	a.current_start_line, a.current_start_column, a.current_end_line, a.current_end_column, a.relocated_at
`

// SaveThread stores a thread and its anchor in a single transaction.
func (s *Store) SaveThread(ctx context.Context, thread domain.Thread) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	resolved := 0
	if thread.Resolved {
		resolved = 1
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO threads (id, file_path, author, body, created_at, resolved)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		thread.ID,
		thread.File,
		thread.Author,
		thread.Body,
		thread.CreatedAt.Unix(),
		resolved,
	); err != nil {
		return fmt.Errorf("failed to save thread: %w", err)
	}

	currentStartLine, currentStartColumn, currentEndLine, currentEndColumn := nullableRange(thread.CurrentRange)
	var relocatedAt sql.NullInt64
	if !thread.RelocatedAt.IsZero() {
		relocatedAt = sql.NullInt64{Int64: thread.RelocatedAt.Unix(), Valid: true}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO anchors (
			thread_id, revision, start_line, start_column, end_line, end_column, captured_text,
			current_start_line, current_start_column, current_end_line, current_end_column, relocated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		thread.ID,
		thread.Anchor.Revision,
		thread.Anchor.Range.StartLine,
		thread.Anchor.Range.StartColumn,
		thread.Anchor.Range.EndLine,
		thread.Anchor.Range.EndColumn,
		thread.Anchor.CapturedText,
		currentStartLine,
		currentStartColumn,
		currentEndLine,
		currentEndColumn,
		relocatedAt,
	); err != nil {
		return fmt.Errorf("failed to save anchor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetThread retrieves a thread by ID.
func (s *Store) GetThread(ctx context.Context, id string) (domain.Thread, error) {
	query := `
		SELECT ` + threadColumns + `
		FROM threads t
		JOIN anchors a ON a.thread_id = t.id
		WHERE t.id = ?
	`

	thread, err := scanThread(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Thread{}, fmt.Errorf("thread not found: %s", id)
		}
		return domain.Thread{}, fmt.Errorf("failed to get thread: %w", err)
	}
	return thread, nil
}

// ListThreads retrieves all threads, oldest first.
func (s *Store) ListThreads(ctx context.Context) ([]domain.Thread, error) {
	query := `
		SELECT ` + threadColumns + `
		FROM threads t
		JOIN anchors a ON a.thread_id = t.id
		ORDER BY t.created_at ASC, t.id ASC
	`
	return s.queryThreads(ctx, query)
}

// ListThreadsByFile retrieves all threads opened on one file, oldest first.
func (s *Store) ListThreadsByFile(ctx context.Context, path string) ([]domain.Thread, error) {
	query := `
		SELECT ` + threadColumns + `
		FROM threads t
		JOIN anchors a ON a.thread_id = t.id
		WHERE t.file_path = ?
		ORDER BY t.created_at ASC, t.id ASC
	`
	return s.queryThreads(ctx, query, path)
}

// ResolveThread marks a thread resolved.
func (s *Store) ResolveThread(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE threads SET resolved = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve thread: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("thread not found: %s", id)
	}

	return nil
}

// DeleteThread removes a thread permanently. Its anchor row is removed by
// the foreign key cascade.
func (s *Store) DeleteThread(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("thread not found: %s", id)
	}

	return nil
}

// UpdateAnchorLocation records where a relocation pass left a thread's
// anchor. A nil range records the anchor as lost.
func (s *Store) UpdateAnchorLocation(ctx context.Context, threadID string, current *domain.Range, at time.Time) error {
	startLine, startColumn, endLine, endColumn := nullableRange(current)

	result, err := s.db.ExecContext(ctx, `
		UPDATE anchors
		SET current_start_line = ?, current_start_column = ?, current_end_line = ?, current_end_column = ?, relocated_at = ?
		WHERE thread_id = ?
	`,
		startLine,
		startColumn,
		endLine,
		endColumn,
		at.Unix(),
		threadID,
	)
	if err != nil {
		return fmt.Errorf("failed to update anchor location: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("thread not found: %s", threadID)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) queryThreads(ctx context.Context, query string, args ...interface{}) ([]domain.Thread, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []domain.Thread
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, thread)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating threads: %w", err)
	}

	return threads, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanThread(row rowScanner) (domain.Thread, error) {
	var (
		thread             domain.Thread
		createdAt          int64
		resolved           int
		currentStartLine   sql.NullInt64
		currentStartColumn sql.NullInt64
		currentEndLine     sql.NullInt64
		currentEndColumn   sql.NullInt64
		relocatedAt        sql.NullInt64
	)

	err := row.Scan(
		&thread.ID,
		&thread.File,
		&thread.Author,
		&thread.Body,
		&createdAt,
		&resolved,
		&thread.Anchor.Revision,
		&thread.Anchor.Range.StartLine,
		&thread.Anchor.Range.StartColumn,
		&thread.Anchor.Range.EndLine,
		&thread.Anchor.Range.EndColumn,
		&thread.Anchor.CapturedText,
		&currentStartLine,
		&currentStartColumn,
		&currentEndLine,
		&currentEndColumn,
		&relocatedAt,
	)
	if err != nil {
		return domain.Thread{}, err
	}

	thread.CreatedAt = time.Unix(createdAt, 0)
	thread.Resolved = resolved == 1
	if currentStartLine.Valid {
		thread.CurrentRange = &domain.Range{
			StartLine:   int(currentStartLine.Int64),
			StartColumn: int(currentStartColumn.Int64),
			EndLine:     int(currentEndLine.Int64),
			EndColumn:   int(currentEndColumn.Int64),
		}
	}
	if relocatedAt.Valid {
		thread.RelocatedAt = time.Unix(relocatedAt.Int64, 0)
	}

	return thread, nil
}

func nullableRange(r *domain.Range) (startLine, startColumn, endLine, endColumn sql.NullInt64) {
	if r == nil {
		return
	}
	startLine = sql.NullInt64{Int64: int64(r.StartLine), Valid: true}
	startColumn = sql.NullInt64{Int64: int64(r.StartColumn), Valid: true}
	endLine = sql.NullInt64{Int64: int64(r.EndLine), Valid: true}
	endColumn = sql.NullInt64{Int64: int64(r.EndColumn), Valid: true}
	return
}
