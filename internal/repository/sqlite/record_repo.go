package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"solarops/internal/domain"
	"solarops/internal/port"
	"solarops/internal/repository"
)

// Fixed-width UTC layout so TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const recordColumns = `id, filename, timestamp, fields, valid, issues, confidence, ai_suggestion,
	status, reviewed_by, reviewed_at, reviewer_comment, audit_trail, updated_at`

type recordRow struct {
	ID              string         `db:"id"`
	Filename        string         `db:"filename"`
	Timestamp       string         `db:"timestamp"`
	Fields          string         `db:"fields"`
	Valid           bool           `db:"valid"`
	Issues          string         `db:"issues"`
	Confidence      int            `db:"confidence"`
	AISuggestion    string         `db:"ai_suggestion"`
	Status          string         `db:"status"`
	ReviewedBy      sql.NullString `db:"reviewed_by"`
	ReviewedAt      sql.NullString `db:"reviewed_at"`
	ReviewerComment sql.NullString `db:"reviewer_comment"`
	AuditTrail      string         `db:"audit_trail"`
	UpdatedAt       string         `db:"updated_at"`
}

func (row *recordRow) toDomain() (*domain.Record, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse id %q", row.ID)
	}
	rec := &domain.Record{
		ID:           id,
		Filename:     row.Filename,
		Valid:        row.Valid,
		Confidence:   row.Confidence,
		AISuggestion: row.AISuggestion,
		Status:       domain.ReviewStatus(row.Status),
	}
	if rec.Timestamp, err = parseTime(row.Timestamp); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTime(row.UpdatedAt); err != nil {
		return nil, err
	}
	if row.ReviewedBy.Valid {
		rec.ReviewedBy = &row.ReviewedBy.String
	}
	if row.ReviewerComment.Valid {
		rec.ReviewerComment = &row.ReviewerComment.String
	}
	if row.ReviewedAt.Valid {
		t, err := parseTime(row.ReviewedAt.String)
		if err != nil {
			return nil, err
		}
		rec.ReviewedAt = &t
	}
	if err := repository.DecodeColumns(rec, []byte(row.Fields), []byte(row.Issues), []byte(row.AuditTrail)); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode %s", row.Filename)
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "sqlite: parse time %q", s)
	}
	return t, nil
}

type recordRepo struct {
	db *sqlx.DB
}

// NewRecordRepo creates a SQLite-backed RecordRepository.
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
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(filename) DO NOTHING`,
		rec.ID.String(), rec.Filename, formatTime(rec.Timestamp), cols.Fields, rec.Valid, cols.Issues,
		rec.Confidence, rec.AISuggestion, string(rec.Status), rec.ReviewedBy,
		formatTimePtr(rec.ReviewedAt), rec.ReviewerComment, cols.AuditTrail, formatTime(rec.UpdatedAt))
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
		`SELECT `+recordColumns+` FROM validation_results WHERE filename = ?`, filename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, eris.Wrap(err, "recordRepo.GetByFilename")
	}
	return row.toDomain()
}

func filterClause(filter domain.RecordFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Valid != nil {
		conds = append(conds, "valid = ?")
		args = append(args, *filter.Valid)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *recordRepo) List(ctx context.Context, filter domain.RecordFilter, offset, limit int) ([]domain.Record, int, error) {
	where, args := filterClause(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM validation_results`+where, args...); err != nil {
		return nil, 0, eris.Wrap(err, "recordRepo.List count")
	}

	var rows []recordRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+recordColumns+` FROM validation_results`+where+`
		 ORDER BY timestamp DESC, filename ASC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "recordRepo.List")
	}
	recs, err := toDomainList(rows)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (r *recordRepo) UpdateReview(ctx context.Context, filename string, fn port.RecordMutator) (*domain.Record, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "recordRepo.UpdateReview conn")
	}
	defer func() { _ = conn.Close() }()

	// IMMEDIATE takes the write lock up front so two overrides can never
	// read the same audit trail.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return nil, eris.Wrap(err, "recordRepo.UpdateReview begin")
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	var row recordRow
	err = conn.GetContext(ctx, &row,
		`SELECT `+recordColumns+` FROM validation_results WHERE filename = ?`, filename)
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
	_, err = conn.ExecContext(ctx,
		`UPDATE validation_results
		 SET status = ?, reviewed_by = ?, reviewed_at = ?, reviewer_comment = ?, audit_trail = ?, updated_at = ?
		 WHERE filename = ?`,
		string(rec.Status), rec.ReviewedBy, formatTimePtr(rec.ReviewedAt), rec.ReviewerComment,
		audit, formatTime(rec.UpdatedAt), filename)
	if err != nil {
		return nil, eris.Wrap(err, "recordRepo.UpdateReview update")
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return nil, eris.Wrap(err, "recordRepo.UpdateReview commit")
	}
	committed = true
	return rec, nil
}

func (r *recordRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Record, error) {
	var rows []recordRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+recordColumns+` FROM validation_results
		 WHERE status = ? AND timestamp < ?
		 ORDER BY timestamp ASC`,
		string(domain.ReviewStatusPending), formatTime(cutoff))
	if err != nil {
		return nil, eris.Wrap(err, "recordRepo.ListPendingBefore")
	}
	return toDomainList(rows)
}

func (r *recordRepo) Stats(ctx context.Context) (*domain.Stats, error) {
	var agg struct {
		Total int     `db:"total"`
		Valid int     `db:"valid_count"`
		Avg   float64 `db:"avg_confidence"`
	}
	err := r.db.GetContext(ctx, &agg,
		`SELECT COUNT(*) AS total,
		        COALESCE(SUM(CASE WHEN valid THEN 1 ELSE 0 END), 0) AS valid_count,
		        COALESCE(AVG(confidence), 0.0) AS avg_confidence
		 FROM validation_results`)
	if err != nil {
		return nil, eris.Wrap(err, "recordRepo.Stats")
	}

	var byStatus []repository.StatusCount
	err = r.db.SelectContext(ctx, &byStatus,
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
