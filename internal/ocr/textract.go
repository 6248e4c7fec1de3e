package ocr

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/rotisserie/eris"
)

// DetectAPI is the subset of the Textract client used here.
type DetectAPI interface {
	DetectDocumentText(ctx context.Context, in *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// Textract runs AWS Textract text detection on objects already in S3.
type Textract struct {
	client DetectAPI
	bucket string
}

// NewTextract creates a Textract source using the default AWS credential chain.
func NewTextract(region, bucket string) (*Textract, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: loading aws config for textract")
	}
	return NewTextractWithClient(textract.NewFromConfig(cfg), bucket), nil
}

// NewTextractWithClient creates a Textract source around an existing client.
func NewTextractWithClient(client DetectAPI, bucket string) *Textract {
	return &Textract{client: client, bucket: bucket}
}

// ExtractText returns the LINE blocks of the document joined by newlines.
func (t *Textract) ExtractText(ctx context.Context, key string) (string, error) {
	out, err := t.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{
			S3Object: &types.S3Object{
				Bucket: aws.String(t.bucket),
				Name:   aws.String(key),
			},
		},
	})
	if err != nil {
		return "", eris.Wrapf(err, "ocr: textract detect %s", key)
	}

	lines := make([]string, 0, len(out.Blocks))
	for _, b := range out.Blocks {
		if b.BlockType == types.BlockTypeLine && b.Text != nil {
			lines = append(lines, *b.Text)
		}
	}
	return strings.Join(lines, "\n"), nil
}
