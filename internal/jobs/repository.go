package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cutforge/cutforge-agent/internal/export"
)

type Repository interface {
	CreateJob(ctx context.Context, job *ExportJob) error
	GetJob(ctx context.Context, id string) (*ExportJob, error)
	ListJobs(ctx context.Context, limit int) ([]*ExportJob, error)
	ListPendingJobs(ctx context.Context) ([]*ExportJob, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error
	CompleteJob(ctx context.Context, id, outputPath string) error
	CountJobsByStatus(ctx context.Context) (map[string]int, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const jobColumns = `id, status, progress, request_json, output_path, error, created_at, updated_at, started_at, completed_at`

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *ExportJob) error {
	reqJSON, err := json.Marshal(j.Request)
	if err != nil {
		return fmt.Errorf("cannot encode export request: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO export_jobs (id, status, progress, request_json, output_path, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Status, j.Progress, string(reqJSON), nullString(j.OutputPath), nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*ExportJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM export_jobs WHERE id = ?`, id)
	return r.scanJob(row)
}

func (r *SQLiteRepository) scanJob(row *sql.Row) (*ExportJob, error) {
	var j ExportJob
	var reqJSON string
	var outputPath, errMsg, startedAt, completedAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Status, &j.Progress, &reqJSON, &outputPath, &errMsg,
		&createdAt, &updatedAt, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fillJob(&j, reqJSON, outputPath, errMsg, createdAt, updatedAt, startedAt, completedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*ExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM export_jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*ExportJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM export_jobs WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) scanJobs(rows *sql.Rows) ([]*ExportJob, error) {
	var jobs []*ExportJob
	for rows.Next() {
		var j ExportJob
		var reqJSON string
		var outputPath, errMsg, startedAt, completedAt sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Status, &j.Progress, &reqJSON, &outputPath, &errMsg,
			&createdAt, &updatedAt, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		fillJob(&j, reqJSON, outputPath, errMsg, createdAt, updatedAt, startedAt, completedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func fillJob(j *ExportJob, reqJSON string, outputPath, errMsg sql.NullString, createdAt, updatedAt string, startedAt, completedAt sql.NullString) {
	var req export.Request
	if err := json.Unmarshal([]byte(reqJSON), &req); err == nil {
		j.Request = req
	}
	j.OutputPath = outputPath.String
	j.Error = errMsg.String
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	if startedAt.Valid {
		t := parseTime(startedAt.String)
		j.StartedAt = &t
	}
	if completedAt.Valid {
		t := parseTime(completedAt.String)
		j.CompletedAt = &t
	}
}

// UpdateJobStatus moves a job to status, recording start and completion
// times as the job enters running or a terminal state.
func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	query := `UPDATE export_jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?`
	switch {
	case status == StatusRunning:
		query = `UPDATE export_jobs SET status = ?, error = ?, updated_at = datetime('now'), started_at = datetime('now') WHERE id = ?`
	case IsTerminal(status):
		query = `UPDATE export_jobs SET status = ?, error = ?, updated_at = datetime('now'), completed_at = datetime('now') WHERE id = ?`
	}
	_, err := r.db.ExecContext(ctx, query, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE export_jobs SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
	return err
}

// CompleteJob settles a successful job in one statement.
func (r *SQLiteRepository) CompleteJob(ctx context.Context, id, outputPath string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE export_jobs
		SET status = 'completed', progress = 100, output_path = ?, error = NULL,
			completed_at = datetime('now'), updated_at = datetime('now')
		WHERE id = ?
	`, outputPath, id)
	return err
}

func (r *SQLiteRepository) CountJobsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM export_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM agent_config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO agent_config (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, key, value)
	return err
}

// parseTime accepts both RFC3339 (written by Go) and sqlite's
// datetime('now') format.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
