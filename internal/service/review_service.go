package service

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"solarops/internal/domain"
	"solarops/internal/port"
)

// CreateRecordInput is the DTO for persisting a processed document.
type CreateRecordInput struct {
	Filename   string
	Fields     domain.FieldSet
	Verdict    domain.ValidationVerdict
	Suggestion string
}

// OverrideInput is the DTO for a reviewer status override.
type OverrideInput struct {
	Filename  string
	NewStatus domain.ReviewStatus
	Reviewer  string
	Comment   string
}

// ReviewService owns record creation, reviewer overrides and the audit trail.
type ReviewService interface {
	Create(ctx context.Context, input CreateRecordInput) (*domain.Record, error)
	Override(ctx context.Context, input OverrideInput) (*domain.Record, error)
	Audit(ctx context.Context, filename string) ([]domain.AuditEntry, error)
	Get(ctx context.Context, filename string) (*domain.Record, error)
	List(ctx context.Context, filter domain.RecordFilter, offset, limit int) ([]domain.Record, int, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

type reviewService struct {
	repo      port.RecordRepository
	policy    domain.TransitionPolicy
	publisher port.StatusChangePublisher
	now       func() time.Time
}

// NewReviewService creates a new ReviewService. A nil policy accepts any
// status; a nil publisher disables post-override events.
func NewReviewService(repo port.RecordRepository, policy domain.TransitionPolicy, publisher port.StatusChangePublisher) ReviewService {
	if policy == nil {
		policy = domain.OpenTransitions{}
	}
	return &reviewService{
		repo:      repo,
		policy:    policy,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *reviewService) Create(ctx context.Context, input CreateRecordInput) (*domain.Record, error) {
	issues := input.Verdict.Issues
	if issues == nil {
		issues = []string{}
	}
	rec := &domain.Record{
		Filename:     input.Filename,
		Timestamp:    s.now(),
		Fields:       input.Fields.Clone(),
		Valid:        input.Verdict.Valid,
		Issues:       append([]string(nil), issues...),
		Confidence:   input.Verdict.Confidence,
		AISuggestion: input.Suggestion,
		Status:       domain.ReviewStatusPending,
		AuditTrail:   []domain.AuditEntry{},
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, eris.Wrapf(err, "creating record %s", input.Filename)
	}
	zap.L().Info("reviewService.Create: record stored",
		zap.String("filename", rec.Filename),
		zap.Bool("valid", rec.Valid),
		zap.Int("confidence", rec.Confidence))
	return rec, nil
}

func (s *reviewService) Override(ctx context.Context, input OverrideInput) (*domain.Record, error) {
	var oldStatus domain.ReviewStatus
	var at time.Time

	rec, err := s.repo.UpdateReview(ctx, input.Filename, func(rec *domain.Record) error {
		if err := s.policy.Allow(rec.Status, input.NewStatus); err != nil {
			return err
		}
		oldStatus = rec.Status
		at = s.now()

		reviewer, comment := input.Reviewer, input.Comment
		rec.Status = input.NewStatus
		rec.ReviewedBy = &reviewer
		rec.ReviewedAt = &at
		rec.ReviewerComment = &comment
		rec.AuditTrail = append(rec.AuditTrail, domain.AuditEntry{
			Timestamp: at,
			OldStatus: oldStatus,
			NewStatus: input.NewStatus,
			Reviewer:  reviewer,
			Comment:   comment,
		})
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "overriding %s", input.Filename)
	}

	zap.L().Info("reviewService.Override: status changed",
		zap.String("filename", input.Filename),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(input.NewStatus)),
		zap.String("reviewer", input.Reviewer))

	if s.publisher != nil {
		s.publisher.Publish(domain.StatusChangeEvent{
			Filename:  input.Filename,
			OldStatus: oldStatus,
			NewStatus: input.NewStatus,
			Reviewer:  input.Reviewer,
			Comment:   input.Comment,
			At:        at,
		})
	}
	return rec, nil
}

func (s *reviewService) Audit(ctx context.Context, filename string) ([]domain.AuditEntry, error) {
	rec, err := s.repo.GetByFilename(ctx, filename)
	if err != nil {
		return nil, err
	}
	if rec.AuditTrail == nil {
		return []domain.AuditEntry{}, nil
	}
	return rec.AuditTrail, nil
}

func (s *reviewService) Get(ctx context.Context, filename string) (*domain.Record, error) {
	return s.repo.GetByFilename(ctx, filename)
}

func (s *reviewService) List(ctx context.Context, filter domain.RecordFilter, offset, limit int) ([]domain.Record, int, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *reviewService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.repo.Stats(ctx)
}
