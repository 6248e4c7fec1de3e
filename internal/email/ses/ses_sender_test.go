package ses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	return &sesv2.SendEmailOutput{}, f.err
}

func TestSESSender_Notify(t *testing.T) {
	fake := &fakeSES{}
	sender := NewSESSenderWithClient(fake, "noreply@solarops.local", "SolarOps")

	err := sender.Notify(context.Background(), "client@example.com", "[SolarOps] File 'a.pdf' status updated", "Status: <approved>")
	require.NoError(t, err)

	require.NotNil(t, fake.input)
	assert.Equal(t, "SolarOps <noreply@solarops.local>", *fake.input.FromEmailAddress)
	assert.Equal(t, []string{"client@example.com"}, fake.input.Destination.ToAddresses)
	msg := fake.input.Content.Simple
	assert.Equal(t, "[SolarOps] File 'a.pdf' status updated", *msg.Subject.Data)
	assert.Equal(t, "Status: <approved>", *msg.Body.Text.Data)
	assert.Contains(t, *msg.Body.Html.Data, "Status: &lt;approved&gt;")
}

func TestSESSender_NotifyError(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	sender := NewSESSenderWithClient(fake, "noreply@solarops.local", "")

	err := sender.Notify(context.Background(), "client@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.Equal(t, "noreply@solarops.local", *fake.input.FromEmailAddress)
}
