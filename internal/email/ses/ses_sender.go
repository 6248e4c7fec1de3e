package ses

import (
	"context"
	"fmt"
	"html"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rotisserie/eris"

	"solarops/internal/port"
)

// SendEmailAPI is the subset of the SES v2 client used for notifications.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesSender struct {
	client      SendEmailAPI
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed Notifier.
func NewSESSender(region, fromAddress, fromName string) (port.Notifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, eris.Wrap(err, "loading AWS config for SES")
	}
	return NewSESSenderWithClient(sesv2.NewFromConfig(cfg), fromAddress, fromName), nil
}

// NewSESSenderWithClient wraps an existing SES client.
func NewSESSenderWithClient(client SendEmailAPI, fromAddress, fromName string) port.Notifier {
	return &sesSender{client: client, fromAddress: fromAddress, fromName: fromName}
}

func (s *sesSender) Notify(ctx context.Context, recipient, subject, body string) error {
	from := s.fromAddress
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}
	htmlBody := buildHTML(subject, body)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &body},
				},
			},
		},
	})
	if err != nil {
		return eris.Wrapf(err, "SES SendEmail to %s", recipient)
	}
	return nil
}

func buildHTML(subject, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">%s</h2>
  <pre style="font-family: inherit; white-space: pre-wrap;">%s</pre>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">SolarOps - Installation Paperwork Review</p>
</body>
</html>`, html.EscapeString(subject), html.EscapeString(body))
}
