package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// InterruptedMessage is recorded on jobs that were still live when the
// engine that owned them went away.
const InterruptedMessage = "interrupted before completion"

// Record is a snapshot of a render job. The supervisor archives one at every
// lifecycle transition; the stored row always reflects the latest snapshot.
type Record struct {
	ID              string
	Kind            string
	Status          string
	Sources         []string
	OutputPath      string
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
}

const recordColumns = "id, kind, status, sources_json, output_path, error_message, progress_stage, progress_percent, progress_message, created_at, updated_at, started_at, finished_at"

// Save inserts or replaces the stored snapshot for a job.
func (s *Store) Save(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if record.ID == "" {
		return errors.New("record id is empty")
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	var sourcesJSON any
	if len(record.Sources) > 0 {
		data, err := json.Marshal(record.Sources)
		if err != nil {
			return fmt.Errorf("marshal sources: %w", err)
		}
		sourcesJSON = string(data)
	}

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO render_jobs (`+recordColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             kind = excluded.kind,
             status = excluded.status,
             sources_json = excluded.sources_json,
             output_path = excluded.output_path,
             error_message = excluded.error_message,
             progress_stage = excluded.progress_stage,
             progress_percent = excluded.progress_percent,
             progress_message = excluded.progress_message,
             updated_at = excluded.updated_at,
             started_at = excluded.started_at,
             finished_at = excluded.finished_at`,
		record.ID,
		record.Kind,
		record.Status,
		sourcesJSON,
		nullableString(record.OutputPath),
		nullableString(record.ErrorMessage),
		nullableString(record.ProgressStage),
		record.ProgressPercent,
		nullableString(record.ProgressMessage),
		record.CreatedAt.Format(time.RFC3339Nano),
		record.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(record.StartedAt),
		nullableTime(record.FinishedAt),
	); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// Get fetches a job snapshot by identifier. A missing id yields (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM render_jobs WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// List returns job snapshots, newest first, filtered by status when any
// statuses are provided.
func (s *Store) List(ctx context.Context, statuses ...string) ([]*Record, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + recordColumns + ` FROM render_jobs`
	orderClause := ` ORDER BY created_at DESC`

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
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Remove deletes a job snapshot by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM render_jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearFinished removes completed, failed, and cancelled jobs from the archive.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM render_jobs WHERE status IN ('completed', 'failed', 'cancelled')`)
	if err != nil {
		return 0, fmt.Errorf("clear finished: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all jobs from the archive.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM render_jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// FailAbandoned marks jobs still recorded as pending or running as failed.
// Called at engine start; anything live in the archive at that point belongs
// to a process that no longer exists.
func (s *Store) FailAbandoned(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE render_jobs
         SET status = 'failed', error_message = ?, updated_at = ?, finished_at = ?
         WHERE status IN ('pending', 'running')`,
		InterruptedMessage,
		now,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("fail abandoned: %w", err)
	}
	return res.RowsAffected()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id              string
		kind            string
		status          string
		sourcesJSON     sql.NullString
		outputPath      sql.NullString
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		startedRaw      sql.NullString
		finishedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&kind,
		&status,
		&sourcesJSON,
		&outputPath,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:              id,
		Kind:            kind,
		Status:          status,
		OutputPath:      outputPath.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}
	if sourcesJSON.Valid && sourcesJSON.String != "" {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &record.Sources); err != nil {
			return nil, fmt.Errorf("unmarshal sources: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			record.StartedAt = &started
		}
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			record.FinishedAt = &finished
		}
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
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

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
