package download

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Store persists download jobs.
type Store struct {
	db *sql.DB
}

// NewStore creates a download store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const jobColumns = "id, media_id, status, source_kind, source_url, progress, error, gid, requested_by, added_at, updated_at"

func scanJob(scan func(dest ...any) error) (*Job, error) {
	j := &Job{}
	var jobErr, gid sql.NullString
	err := scan(&j.ID, &j.MediaID, &j.Status, &j.SourceKind, &j.SourceURL, &j.Progress, &jobErr, &gid, &j.RequestedBy, &j.AddedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Error = jobErr.String
	j.GID = gid.String
	return j, nil
}

// Add records a new job in pending state. Sets ID and timestamps on the
// struct.
func (s *Store) Add(j *Job) error {
	if j.Status == "" {
		j.Status = StatusPending
	}
	now := time.Now()
	result, err := s.db.Exec(`
		INSERT INTO downloads (media_id, status, source_kind, source_url, progress, error, gid, requested_by, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.MediaID, j.Status, j.SourceKind, j.SourceURL, j.Progress, nullable(j.Error), nullable(j.GID), j.RequestedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert download: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	j.ID = id
	j.AddedAt = now
	j.UpdatedAt = now
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Get retrieves a job by ID.
// Returns ErrNotFound if the job does not exist.
func (s *Store) Get(id int64) (*Job, error) {
	row := s.db.QueryRow("SELECT "+jobColumns+" FROM downloads WHERE id = ?", id)
	j, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get download %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get download %d: %w", id, err)
	}
	return j, nil
}

// GetByGID retrieves the job bound to a daemon transfer.
// Returns ErrNotFound if no job has that GID.
func (s *Store) GetByGID(gid string) (*Job, error) {
	row := s.db.QueryRow("SELECT "+jobColumns+" FROM downloads WHERE gid = ?", gid)
	j, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get download by gid %s: %w", gid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get download by gid %s: %w", gid, err)
	}
	return j, nil
}

// SetGID binds the job to its daemon transfer. A job binds at most once;
// rebinding returns ErrGIDAlreadySet.
func (s *Store) SetGID(j *Job, gid string) error {
	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE downloads SET gid = ?, updated_at = ?
		WHERE id = ? AND gid IS NULL`,
		gid, now, j.ID,
	)
	if err != nil {
		return fmt.Errorf("set gid for download %d: %w", j.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		if _, getErr := s.Get(j.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("download %d: %w", j.ID, ErrGIDAlreadySet)
	}
	j.GID = gid
	j.UpdatedAt = now
	return nil
}

// SetProgress updates the job's progress percentage.
func (s *Store) SetProgress(j *Job, progress float64) error {
	now := time.Now()
	_, err := s.db.Exec(`
		UPDATE downloads SET progress = ?, updated_at = ?
		WHERE id = ?`,
		progress, now, j.ID,
	)
	if err != nil {
		return fmt.Errorf("set progress for download %d: %w", j.ID, err)
	}
	j.Progress = progress
	j.UpdatedAt = now
	return nil
}

// Transition changes a job's status with validation. The optional message is
// stored in the error column for the error status.
// Returns ErrInvalidTransition for disallowed changes, including any change
// out of a terminal status.
func (s *Store) Transition(j *Job, to Status, message string) error {
	if !j.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
	}

	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE downloads SET status = ?, error = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		to, nullable(message), now, j.ID, j.Status,
	)
	if err != nil {
		return fmt.Errorf("transition download %d: %w", j.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		// Row changed under us or is gone. Reload to report which.
		current, getErr := s.Get(j.ID)
		if getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	j.Status = to
	j.Error = message
	j.UpdatedAt = now
	return nil
}

// List returns jobs matching the filter.
// If Active is true, only pending and downloading jobs are returned.
func (s *Store) List(f JobFilter) ([]*Job, error) {
	var conditions []string
	var args []any

	if f.MediaID != nil {
		conditions = append(conditions, "media_id = ?")
		args = append(args, *f.MediaID)
	}
	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *f.Status)
	}
	if f.RequestedBy != nil {
		conditions = append(conditions, "requested_by = ?")
		args = append(args, *f.RequestedBy)
	}
	if f.Active {
		conditions = append(conditions, "status IN (?, ?)")
		args = append(args, StatusPending, StatusDownloading)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT " + jobColumns + " FROM downloads " + whereClause + " ORDER BY id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Job
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		results = append(results, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate downloads: %w", err)
	}
	return results, nil
}

// Delete removes a job by ID.
// Idempotent: no error if the job does not exist.
func (s *Store) Delete(id int64) error {
	if _, err := s.db.Exec("DELETE FROM downloads WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete download %d: %w", id, err)
	}
	return nil
}
