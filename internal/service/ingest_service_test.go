package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"solarops/internal/domain"
	"solarops/internal/port"
	"solarops/internal/service"
	"solarops/internal/suggestion"
	"solarops/internal/validator"
	"solarops/mocks"
)

const completeForm = `SOLAR INSTALLATION COMPLETION FORM
Customer Name: Priya Raman
Address: 14 Lake View Road, Chennai 600041
Utility Account: 1234567890
System Capacity: 5.50 kW
Panel SN: PNL-2024-001
Inverter SN: INV-88-A
Install Date: 03/11/2024
Customer Signature: ________`

const formWithoutNameOrPanels = `Address: 14 Lake View Road
Utility Account: 1234567890
System Capacity: 5.50 kW
Inverter SN: INV-88-A
Install Date: 03/11/2024
Customer Signature: ________`

func testIngestConfig() service.IngestConfig {
	return service.IngestConfig{Bucket: "paperwork-bucket", MaxFileSizeMB: 1, PresignExpiry: 900}
}

func createReturning(review *mocks.MockReviewService, check func(in service.CreateRecordInput) bool) {
	review.On("Create", mock.Anything, mock.MatchedBy(check)).
		Return(&domain.Record{Filename: "stub", Status: domain.ReviewStatusPending}, nil)
}

func TestIngestService_Process_ValidDocument(t *testing.T) {
	review := new(mocks.MockReviewService)
	alt := new(mocks.MockFieldExtractor)
	svc := service.NewIngestService(review, nil, nil, alt, suggestion.NewCanned(), testIngestConfig())

	createReturning(review, func(in service.CreateRecordInput) bool {
		return in.Filename == "job-1.txt" && in.Verdict.Valid && in.Verdict.Confidence == 100 &&
			in.Suggestion == domain.NoSuggestion && in.Fields.CustomerName == "Priya Raman"
	})

	res, err := svc.Process(context.Background(), "job-1.txt", completeForm)

	require.NoError(t, err)
	assert.True(t, res.Verdict.Valid)
	assert.Empty(t, res.Verdict.Issues)
	alt.AssertNotCalled(t, "ExtractFields", mock.Anything, mock.Anything)
	review.AssertExpectations(t)
}

func TestIngestService_Process_InvalidGetsSuggestion(t *testing.T) {
	review := new(mocks.MockReviewService)
	svc := service.NewIngestService(review, nil, nil, nil, nil, testIngestConfig())

	createReturning(review, func(in service.CreateRecordInput) bool {
		return !in.Verdict.Valid &&
			in.Verdict.Confidence == 80 &&
			in.Suggestion == "Verify customer name field. | Attach correct panel serial numbers."
	})

	res, err := svc.Process(context.Background(), "job-2.txt", formWithoutNameOrPanels)

	require.NoError(t, err)
	assert.Equal(t, []string{"Missing customer name", "No panel serial numbers found"}, res.Verdict.Issues)
	require.Contains(t, res.FieldStatuses, "customer_name")
	assert.Equal(t, validator.FieldStatusInvalid, res.FieldStatuses["customer_name"].Status)
	assert.Equal(t, validator.FieldStatusValid, res.FieldStatuses["install_date"].Status)
	review.AssertExpectations(t)
}

func TestIngestService_Process_AlternateFillsCriticalGaps(t *testing.T) {
	review := new(mocks.MockReviewService)
	alt := new(mocks.MockFieldExtractor)
	svc := service.NewIngestService(review, nil, nil, alt, nil, testIngestConfig())

	alt.On("ExtractFields", mock.Anything, formWithoutNameOrPanels).Return(&domain.FieldSet{
		CustomerName:       "Priya Raman",
		CustomerAddress:    "ignored because pattern value wins",
		PanelSerialNumbers: []string{"PNL-9"},
	}, nil)
	createReturning(review, func(in service.CreateRecordInput) bool {
		return in.Verdict.Valid &&
			in.Fields.CustomerName == "Priya Raman" &&
			in.Fields.CustomerAddress == "14 Lake View Road" &&
			len(in.Fields.PanelSerialNumbers) == 1
	})

	res, err := svc.Process(context.Background(), "job-3.txt", formWithoutNameOrPanels)

	require.NoError(t, err)
	assert.True(t, res.Verdict.Valid)
	alt.AssertExpectations(t)
	review.AssertExpectations(t)
}

func TestIngestService_Process_AlternateFailureKeepsPatternFields(t *testing.T) {
	review := new(mocks.MockReviewService)
	alt := new(mocks.MockFieldExtractor)
	svc := service.NewIngestService(review, nil, nil, alt, nil, testIngestConfig())

	alt.On("ExtractFields", mock.Anything, mock.Anything).Return(nil, domain.NewExtractionError("openai", "timeout", nil))
	createReturning(review, func(in service.CreateRecordInput) bool {
		return !in.Verdict.Valid && in.Fields.CustomerName == ""
	})

	_, err := svc.Process(context.Background(), "job-4.txt", formWithoutNameOrPanels)
	require.NoError(t, err)
}

func TestIngestService_Process_EmptyTextSkipsAlternate(t *testing.T) {
	review := new(mocks.MockReviewService)
	alt := new(mocks.MockFieldExtractor)
	svc := service.NewIngestService(review, nil, nil, alt, nil, testIngestConfig())

	createReturning(review, func(in service.CreateRecordInput) bool {
		return len(in.Verdict.Issues) == 8 && in.Verdict.Confidence == 20
	})

	res, err := svc.Process(context.Background(), "blank.txt", "")
	require.NoError(t, err)
	assert.False(t, res.Verdict.Valid)
	alt.AssertNotCalled(t, "ExtractFields", mock.Anything, mock.Anything)
}

func TestIngestService_Process_Duplicate(t *testing.T) {
	review := new(mocks.MockReviewService)
	svc := service.NewIngestService(review, nil, nil, nil, nil, testIngestConfig())
	review.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrRecordAlreadyExists)

	_, err := svc.Process(context.Background(), "dup.txt", completeForm)
	assert.True(t, errors.Is(err, domain.ErrRecordAlreadyExists))
}

func TestIngestService_Upload_Success(t *testing.T) {
	review := new(mocks.MockReviewService)
	store := new(mocks.MockObjectStorage)
	text := new(mocks.MockTextSource)
	svc := service.NewIngestService(review, store, text, nil, nil, testIngestConfig())

	review.On("Get", mock.Anything, "job-5.txt").Return(nil, domain.ErrRecordNotFound)
	store.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "paperwork-bucket" && in.Key == "paperwork/job-5.txt" &&
			in.ContentType == "text/plain" && in.Size == int64(len(completeForm))
	})).Return(&port.UploadOutput{Location: "paperwork/job-5.txt"}, nil)
	text.On("ExtractText", mock.Anything, "paperwork/job-5.txt").Return(completeForm, nil)
	createReturning(review, func(in service.CreateRecordInput) bool { return in.Filename == "job-5.txt" })

	res, err := svc.Upload(context.Background(), service.UploadInput{
		Filename: "../../job-5.txt",
		Body:     strings.NewReader(completeForm),
		Size:     int64(len(completeForm)),
	})

	require.NoError(t, err)
	assert.True(t, res.Verdict.Valid)
	store.AssertExpectations(t)
	text.AssertExpectations(t)
}

func TestIngestService_Upload_Rejections(t *testing.T) {
	review := new(mocks.MockReviewService)
	store := new(mocks.MockObjectStorage)
	svc := service.NewIngestService(review, store, nil, nil, nil, testIngestConfig())

	_, err := svc.Upload(context.Background(), service.UploadInput{Filename: "form.docx", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = svc.Upload(context.Background(), service.UploadInput{Filename: "big.pdf", Body: strings.NewReader("x"), Size: 2 * 1024 * 1024})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	// Declared size lies; the body is still capped.
	review.On("Get", mock.Anything, "liar.pdf").Return(nil, domain.ErrRecordNotFound)
	_, err = svc.Upload(context.Background(), service.UploadInput{
		Filename: "liar.pdf",
		Body:     bytes.NewReader(make([]byte, 1024*1024+10)),
		Size:     10,
	})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	review.On("Get", mock.Anything, "exists.pdf").Return(&domain.Record{Filename: "exists.pdf"}, nil)
	_, err = svc.Upload(context.Background(), service.UploadInput{Filename: "exists.pdf", Body: strings.NewReader("x"), Size: 1})
	assert.True(t, errors.Is(err, domain.ErrRecordAlreadyExists))

	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestIngestService_Upload_StorageAndTextFailures(t *testing.T) {
	review := new(mocks.MockReviewService)
	store := new(mocks.MockObjectStorage)
	text := new(mocks.MockTextSource)
	svc := service.NewIngestService(review, store, text, nil, nil, testIngestConfig())

	review.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrRecordNotFound)
	store.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool { return in.Key == "paperwork/fail.pdf" })).
		Return(nil, errors.New("s3 down"))
	store.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool { return in.Key == "paperwork/scan.png" })).
		Return(&port.UploadOutput{}, nil)
	text.On("ExtractText", mock.Anything, "paperwork/scan.png").Return("", domain.ErrUnsupportedFileType)
	store.On("Delete", mock.Anything, "paperwork-bucket", "paperwork/scan.png").Return(errors.New("s3 still down"))

	_, err := svc.Upload(context.Background(), service.UploadInput{Filename: "fail.pdf", Body: strings.NewReader("%PDF"), Size: 4})
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, "paperwork/fail.pdf")

	_, err = svc.Upload(context.Background(), service.UploadInput{Filename: "scan.png", Body: strings.NewReader("png"), Size: 3})
	assert.True(t, errors.Is(err, domain.ErrTextUnavailable), "delete failure does not mask the original error")
	store.AssertCalled(t, "Delete", mock.Anything, "paperwork-bucket", "paperwork/scan.png")
	review.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIngestService_Upload_CreateFailureRemovesObject(t *testing.T) {
	review := new(mocks.MockReviewService)
	store := new(mocks.MockObjectStorage)
	text := new(mocks.MockTextSource)
	svc := service.NewIngestService(review, store, text, nil, nil, testIngestConfig())

	review.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrRecordNotFound)
	store.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	store.On("Delete", mock.Anything, "paperwork-bucket", "paperwork/broken.txt").Return(nil)
	text.On("ExtractText", mock.Anything, mock.Anything).Return(completeForm, nil)
	review.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateRecordInput) bool { return in.Filename == "broken.txt" })).
		Return(nil, errors.New("database locked"))
	review.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateRecordInput) bool { return in.Filename == "raced.txt" })).
		Return(nil, domain.ErrRecordAlreadyExists)

	_, err := svc.Upload(context.Background(), service.UploadInput{Filename: "broken.txt", Body: strings.NewReader(completeForm), Size: int64(len(completeForm))})
	require.Error(t, err)
	store.AssertCalled(t, "Delete", mock.Anything, "paperwork-bucket", "paperwork/broken.txt")

	_, err = svc.Upload(context.Background(), service.UploadInput{Filename: "raced.txt", Body: strings.NewReader(completeForm), Size: int64(len(completeForm))})
	assert.True(t, errors.Is(err, domain.ErrRecordAlreadyExists))
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, "paperwork/raced.txt")
}

func TestIngestService_DocumentURL(t *testing.T) {
	review := new(mocks.MockReviewService)
	store := new(mocks.MockObjectStorage)
	svc := service.NewIngestService(review, store, nil, nil, nil, testIngestConfig())

	review.On("Get", mock.Anything, "job.pdf").Return(&domain.Record{Filename: "job.pdf"}, nil)
	review.On("Get", mock.Anything, "ghost.pdf").Return(nil, domain.ErrRecordNotFound)
	store.On("GetPresignedURL", mock.Anything, "paperwork-bucket", "paperwork/job.pdf", int64(900)).
		Return("https://signed.example/job.pdf", nil)

	url, err := svc.DocumentURL(context.Background(), "job.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/job.pdf", url)

	_, err = svc.DocumentURL(context.Background(), "ghost.pdf")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
