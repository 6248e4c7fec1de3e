package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"solarops/internal/domain"
	"solarops/internal/extractor"
	"solarops/internal/parser"
	"solarops/internal/port"
	"solarops/internal/suggestion"
	"solarops/internal/validator"
)

const objectKeyPrefix = "paperwork/"

// UploadInput is the DTO for a document upload.
type UploadInput struct {
	Filename    string
	Body        io.Reader
	Size        int64
	ContentType string
}

// IngestResult is the outcome of processing one document.
type IngestResult struct {
	Record        *domain.Record                    `json:"record"`
	Verdict       domain.ValidationVerdict          `json:"verdict"`
	FieldStatuses map[string]*validator.FieldStatus `json:"field_statuses"`
}

// IngestConfig holds ingestion limits and storage settings.
type IngestConfig struct {
	Bucket         string
	MaxFileSizeMB  int64
	PresignExpiry  int64
	CriticalFields []domain.FieldName
}

// IngestService runs documents through extract, validate, suggest and create.
type IngestService interface {
	Upload(ctx context.Context, input UploadInput) (*IngestResult, error)
	Process(ctx context.Context, filename, text string) (*IngestResult, error)
	DocumentURL(ctx context.Context, filename string) (string, error)
}

type ingestService struct {
	review    ReviewService
	storage   port.ObjectStorage
	text      port.TextSource
	alt       port.FieldExtractor
	suggester suggestion.Generator
	engine    *validator.Engine
	cfg       IngestConfig
}

// NewIngestService creates a new IngestService. alt may be nil, which
// disables the model-backed extraction for documents missing critical fields.
func NewIngestService(
	review ReviewService,
	storage port.ObjectStorage,
	text port.TextSource,
	alt port.FieldExtractor,
	suggester suggestion.Generator,
	cfg IngestConfig,
) IngestService {
	if suggester == nil {
		suggester = suggestion.NewCanned()
	}
	if len(cfg.CriticalFields) == 0 {
		cfg.CriticalFields = domain.DefaultCriticalFields
	}
	return &ingestService{
		review:    review,
		storage:   storage,
		text:      text,
		alt:       alt,
		suggester: suggester,
		engine:    validator.NewEngine(validator.DefaultRegistry()),
		cfg:       cfg,
	}
}

// ObjectKey returns the storage key for an uploaded filename.
func ObjectKey(filename string) string {
	return objectKeyPrefix + filename
}

func cleanFilename(name string) (string, error) {
	name = filepath.Base(strings.TrimSpace(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "", eris.Wrap(domain.ErrInvalidInput, "filename is required")
	}
	return name, nil
}

func (s *ingestService) Upload(ctx context.Context, input UploadInput) (*IngestResult, error) {
	filename, err := cleanFilename(input.Filename)
	if err != nil {
		return nil, err
	}
	fileType, ok := domain.FileTypeFromName(filename)
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if maxBytes > 0 && input.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	if _, err := s.review.Get(ctx, filename); err == nil {
		return nil, eris.Wrapf(domain.ErrRecordAlreadyExists, "upload %s", filename)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, eris.Wrap(err, "checking existing record")
	}

	// Buffer the body so the declared size cannot be used to bypass the limit.
	reader := input.Body
	if maxBytes > 0 {
		reader = io.LimitReader(input.Body, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, eris.Wrap(err, "reading upload")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	key := ObjectKey(filename)
	contentType := domain.AllowedFileTypes[fileType]
	zap.L().Info("ingestService.Upload: storing document",
		zap.String("filename", filename),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)))

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		zap.L().Error("ingestService.Upload: storage upload failed",
			zap.String("filename", filename), zap.Error(err))
		return nil, domain.ErrUploadFailed
	}

	text, err := s.text.ExtractText(ctx, key)
	if err != nil {
		zap.L().Warn("ingestService.Upload: text acquisition failed",
			zap.String("filename", filename), zap.Error(err))
		s.discardObject(ctx, filename, key)
		return nil, eris.Wrapf(domain.ErrTextUnavailable, "%s: %v", filename, err)
	}

	res, err := s.Process(ctx, filename, text)
	if err != nil {
		// A concurrent upload won the record; the object under key is now theirs.
		if !errors.Is(err, domain.ErrRecordAlreadyExists) {
			s.discardObject(ctx, filename, key)
		}
		return nil, err
	}
	return res, nil
}

// discardObject removes a stored object that ended up with no record.
// Failures are logged only.
func (s *ingestService) discardObject(ctx context.Context, filename, key string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), s.cfg.Bucket, key); err != nil {
		zap.L().Error("ingestService.Upload: removing orphaned object failed",
			zap.String("filename", filename), zap.String("key", key), zap.Error(err))
	}
}

func (s *ingestService) Process(ctx context.Context, filename, text string) (*IngestResult, error) {
	filename, err := cleanFilename(filename)
	if err != nil {
		return nil, err
	}

	fields := extractor.Extract(text)
	if s.alt != nil && strings.TrimSpace(text) != "" && fields.MissingAny(s.cfg.CriticalFields) {
		altFields, err := s.alt.ExtractFields(ctx, text)
		if err != nil {
			zap.L().Warn("ingestService.Process: alternate extraction failed, keeping pattern fields",
				zap.String("filename", filename), zap.Error(err))
		} else if altFields != nil {
			fields = parser.MergeFields(fields, *altFields)
		}
	}

	verdict := s.engine.Validate(ctx, &fields)

	advice := domain.NoSuggestion
	if !verdict.Valid {
		advice = s.suggester.Suggest(ctx, fields, verdict.Issues)
	}

	rec, err := s.review.Create(ctx, CreateRecordInput{
		Filename:   filename,
		Fields:     fields,
		Verdict:    verdict,
		Suggestion: advice,
	})
	if err != nil {
		return nil, err
	}
	return &IngestResult{
		Record:        rec,
		Verdict:       verdict,
		FieldStatuses: validator.ComputeFieldStatuses(verdict.Results),
	}, nil
}

func (s *ingestService) DocumentURL(ctx context.Context, filename string) (string, error) {
	if _, err := s.review.Get(ctx, filename); err != nil {
		return "", err
	}
	url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, ObjectKey(filename), s.cfg.PresignExpiry)
	if err != nil {
		return "", eris.Wrapf(err, "presigning %s", filename)
	}
	return url, nil
}
