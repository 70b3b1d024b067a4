package sqlite

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/akulov/checkup-bot/internal/domain"
)

// SubmissionRepository implements domain.SubmissionRepository using SQLite
type SubmissionRepository struct {
	db   *Database
	form []domain.Field
}

// NewSubmissionRepository creates a new SubmissionRepository. The form is
// used to keep stored field values in definition order.
func NewSubmissionRepository(db *Database, form []domain.Field) *SubmissionRepository {
	return &SubmissionRepository{db: db, form: form}
}

// storageErr tags a failed database operation so callers can match the
// taxonomy with errors.Is(err, domain.ErrStorageUnavailable).
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStorageUnavailable, err))
}

// Insert stores a submission and its values atomically in one transaction.
func (r *SubmissionRepository) Insert(sub *domain.Submission) error {
	tx, err := r.db.GetDB().Begin()
	if err != nil {
		return storageErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO submissions (id, user_id, username, created_at) VALUES (?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.Username, sub.CreatedAt.UTC(),
	)
	if err != nil {
		return storageErr("failed to insert submission", err)
	}

	for pos, f := range r.form {
		v, ok := sub.Answers[f.ID]
		if !ok {
			continue
		}
		_, err = tx.Exec(
			`INSERT INTO submission_fields (submission_id, field_id, kind, value, position) VALUES (?, ?, ?, ?, ?)`,
			sub.ID, f.ID, string(v.Kind), v.String(), pos,
		)
		if err != nil {
			return storageErr("failed to insert submission field", err)
		}
	}

	for pos, path := range sub.Files {
		_, err = tx.Exec(
			`INSERT INTO submission_files (submission_id, path, position) VALUES (?, ?, ?)`,
			sub.ID, path, pos,
		)
		if err != nil {
			return storageErr("failed to insert submission file", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("failed to commit submission", err)
	}

	return nil
}

// FindByDateRange returns submissions with from <= created_at <= to,
// ordered by creation time ascending.
func (r *SubmissionRepository) FindByDateRange(from, to time.Time) ([]*domain.Submission, error) {
	rows, err := r.db.GetDB().Query(
		`SELECT id, user_id, username, created_at
		 FROM submissions
		 WHERE created_at >= ? AND created_at <= ?
		 ORDER BY created_at ASC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, storageErr("failed to query submissions", err)
	}
	defer rows.Close()

	var subs []*domain.Submission
	for rows.Next() {
		sub := &domain.Submission{Answers: make(map[string]domain.Value)}
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Username, &sub.CreatedAt); err != nil {
			return nil, storageErr("failed to scan submission", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("failed to iterate submissions", err)
	}

	for _, sub := range subs {
		if err := r.loadValues(sub); err != nil {
			return nil, err
		}
		if err := r.loadFiles(sub); err != nil {
			return nil, err
		}
	}

	return subs, nil
}

func (r *SubmissionRepository) loadValues(sub *domain.Submission) error {
	rows, err := r.db.GetDB().Query(
		`SELECT field_id, kind, value FROM submission_fields WHERE submission_id = ? ORDER BY position`,
		sub.ID,
	)
	if err != nil {
		return storageErr("failed to query submission fields", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fieldID, kind, raw string
		if err := rows.Scan(&fieldID, &kind, &raw); err != nil {
			return storageErr("failed to scan submission field", err)
		}
		v := domain.Value{Kind: domain.FieldKind(kind), Text: raw}
		if v.Kind == domain.KindNumber && raw != "" {
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				v.Number = n
			}
		}
		sub.Answers[fieldID] = v
	}
	return rows.Err()
}

func (r *SubmissionRepository) loadFiles(sub *domain.Submission) error {
	rows, err := r.db.GetDB().Query(
		`SELECT path FROM submission_files WHERE submission_id = ? ORDER BY position`,
		sub.ID,
	)
	if err != nil {
		return storageErr("failed to query submission files", err)
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return storageErr("failed to scan submission file", err)
		}
		sub.Files = append(sub.Files, path)
	}
	return rows.Err()
}
