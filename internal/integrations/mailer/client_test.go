package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Config{From: "bot@adigy.com", To: []string{"support@adigy.com"}}, nil)
	require.Error(t, err)

	_, err = New(&fakeSES{}, Config{To: []string{"support@adigy.com"}}, nil)
	require.ErrorContains(t, err, "sender")

	_, err = New(&fakeSES{}, Config{From: "bot@adigy.com", To: []string{" "}}, nil)
	require.ErrorContains(t, err, "recipient")
}

func TestSend_BuildsPlainTextEmail(t *testing.T) {
	ses := &fakeSES{}
	c, err := New(ses, Config{
		From:          " bot@adigy.com ",
		To:            []string{"support@adigy.com", "", "oncall@adigy.com"},
		SubjectPrefix: "[AdigyAssist]",
	}, nil)
	require.NoError(t, err)

	require.NoError(t, c.Send(context.Background(), "Support request: refund", "Question:\nrefund\n"))
	require.Equal(t, "bot@adigy.com", aws.ToString(ses.in.FromEmailAddress))
	require.Equal(t, []string{"support@adigy.com", "oncall@adigy.com"}, ses.in.Destination.ToAddresses)
	msg := ses.in.Content.Simple
	require.Equal(t, "[AdigyAssist] Support request: refund", aws.ToString(msg.Subject.Data))
	require.Equal(t, "Question:\nrefund\n", aws.ToString(msg.Body.Text.Data))
	require.Nil(t, msg.Body.Html)
	require.Equal(t, charset, aws.ToString(msg.Body.Text.Charset))
}

func TestSend_Error(t *testing.T) {
	c, err := New(&fakeSES{err: errors.New("MessageRejected")}, Config{From: "bot@adigy.com", To: []string{"support@adigy.com"}}, nil)
	require.NoError(t, err)

	err = c.Send(context.Background(), "s", "b")
	require.ErrorContains(t, err, "mailer: send email")
	require.ErrorContains(t, err, "MessageRejected")
}
