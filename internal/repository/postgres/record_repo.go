package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"solarops/internal/domain"
	"solarops/internal/port"
	"solarops/internal/repository"
)

const recordColumns = `id, filename, timestamp, fields, valid, issues, confidence, ai_suggestion,
	status, reviewed_by, reviewed_at, reviewer_comment, audit_trail, updated_at`

type recordRow struct {
	ID              uuid.UUID      `db:"id"`
	Filename        string         `db:"filename"`
	Timestamp       time.Time      `db:"timestamp"`
	Fields          []byte         `db:"fields"`
	Valid           bool           `db:"valid"`
	Issues          []byte         `db:"issues"`
	Confidence      int            `db:"confidence"`
	AISuggestion    string         `db:"ai_suggestion"`
	Status          string         `db:"status"`
	ReviewedBy      sql.NullString `db:"reviewed_by"`
	ReviewedAt      sql.NullTime   `db:"reviewed_at"`
	ReviewerComment sql.NullString `db:"reviewer_comment"`
	AuditTrail      []byte         `db:"audit_trail"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (row *recordRow) toDomain() (*domain.Record, error) {
	rec := &domain.Record{
		ID:           row.ID,
		Filename:     row.Filename,
		Timestamp:    row.Timestamp.UTC(),
		Valid:        row.Valid,
		Confidence:   row.Confidence,
		AISuggestion: row.AISuggestion,
		Status:       domain.ReviewStatus(row.Status),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.ReviewedBy.Valid {
		rec.ReviewedBy = &row.ReviewedBy.String
	}
	if row.ReviewerComment.Valid {
		rec.ReviewerComment = &row.ReviewerComment.String
	}
	if row.ReviewedAt.Valid {
		t := row.ReviewedAt.Time.UTC()
		rec.ReviewedAt = &t
	}
	if err := repository.DecodeColumns(rec, row.Fields, row.Issues, row.AuditTrail); err != nil {
		return nil, eris.Wrapf(err, "recordRepo: decode %s", row.Filename)
	}
	return rec, nil
}

type recordRepo struct {
	db *sqlx.DB
}

// NewRecordRepo creates a new PostgreSQL-backed RecordRepository.
func NewRecordRepo(db *sqlx.DB) port.RecordRepository {
	return &recordRepo{db: db}
}

func (r *recordRepo) Create(ctx context.Context, rec *domain.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = domain.ReviewStatusPending
	}

	cols, err := repository.EncodeColumns(rec)
	if err != nil {
		return eris.Wrap(err, "recordRepo.Create")
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO validation_results (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6::jsonb, $7, $8, $9, $10, $11, $12, $13::jsonb, $14)
		 ON CONFLICT (filename) DO NOTHING`,
		rec.ID, rec.Filename, rec.Timestamp, cols.Fields, rec.Valid, cols.Issues, rec.Confidence,
		rec.AISuggestion, string(rec.Status), rec.ReviewedBy, rec.ReviewedAt, rec.ReviewerComment,
		cols.AuditTrail, rec.UpdatedAt)
	if err != nil {
		return eris.Wrap(err, "recordRepo.Create")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "recordRepo.Create rows affected")
	}
	if n == 0 {
		return eris.Wrapf(domain.ErrRecordAlreadyExists, "recordRepo.Create %s", rec.Filename)
	}
	return nil
}

func (r *recordRepo) GetByFilename(ctx context.Context, filename string) (*domain.Record, error) {
	var row recordRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+recordColumns+` FROM validation_results WHERE filename = $1`, filename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, eris.Wrap(err, "recordRepo.GetByFilename")
	}
	return row.toDomain()
}

func (r *recordRepo) List(ctx context.Context, filter domain.RecordFilter, offset, limit int) ([]domain.Record, int, error) {
	var conds []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Valid != nil {
		args = append(args, *filter.Valid)
		conds = append(conds, fmt.Sprintf("valid = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM validation_results`+where, args...); err != nil {
		return nil, 0, eris.Wrap(err, "recordRepo.List count")
	}

	query := fmt.Sprintf(`SELECT `+recordColumns+` FROM validation_results`+where+`
		 ORDER BY timestamp DESC, filename ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, query, append(args, limit, offset)...); err != nil {
		return nil, 0, eris.Wrap(err, "recordRepo.List")
	}
	recs, err := toDomainList(rows)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (r *recordRepo) UpdateReview(ctx context.Context, filename string, fn port.RecordMutator) (*domain.Record, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "recordRepo.UpdateReview begin")
	}
	defer func() { _ = tx.Rollback() }()

	var row recordRow
	err = tx.GetContext(ctx, &row,
		`SELECT `+recordColumns+` FROM validation_results WHERE filename = $1 FOR UPDATE`, filename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, eris.Wrap(err, "recordRepo.UpdateReview select")
	}
	rec, err := row.toDomain()
	if err != nil {
		return nil, err
	}

	if err := fn(rec); err != nil {
		return nil, err
	}
	rec.UpdatedAt = time.Now().UTC()

	audit, err := repository.EncodeAuditTrail(rec.AuditTrail)
	if err != nil {
		return nil, eris.Wrap(err, "recordRepo.UpdateReview")
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE validation_results
		 SET status = $1, reviewed_by = $2, reviewed_at = $3, reviewer_comment = $4,
		     audit_trail = $5::jsonb, updated_at = $6
		 WHERE filename = $7`,
		string(rec.Status), rec.ReviewedBy, rec.ReviewedAt, rec.ReviewerComment, audit, rec.UpdatedAt, filename)
	if err != nil {
		return nil, eris.Wrap(err, "recordRepo.UpdateReview update")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "recordRepo.UpdateReview commit")
	}
	return rec, nil
}

func (r *recordRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Record, error) {
	var rows []recordRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+recordColumns+` FROM validation_results
		 WHERE status = $1 AND timestamp < $2
		 ORDER BY timestamp ASC`,
		string(domain.ReviewStatusPending), cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "recordRepo.ListPendingBefore")
	}
	return toDomainList(rows)
}

const recordStatsQuery = `SELECT
	COUNT(*) AS total,
	COUNT(CASE WHEN valid THEN 1 END) AS valid_count,
	COALESCE(AVG(confidence), 0)::float8 AS avg_confidence
FROM validation_results`

func (r *recordRepo) Stats(ctx context.Context) (*domain.Stats, error) {
	var agg struct {
		Total int     `db:"total"`
		Valid int     `db:"valid_count"`
		Avg   float64 `db:"avg_confidence"`
	}
	if err := r.db.GetContext(ctx, &agg, recordStatsQuery); err != nil {
		return nil, eris.Wrap(err, "recordRepo.Stats")
	}

	var byStatus []repository.StatusCount
	err := r.db.SelectContext(ctx, &byStatus,
		`SELECT status, COUNT(*) AS n FROM validation_results GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "recordRepo.Stats by status")
	}
	return repository.BuildStats(agg.Total, agg.Valid, agg.Avg, byStatus), nil
}

func toDomainList(rows []recordRow) ([]domain.Record, error) {
	recs := make([]domain.Record, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}
