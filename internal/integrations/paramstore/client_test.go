package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut  *ssm.GetParameterOutput
	getErr  error
	lastIn  *ssm.GetParameterInput
	callCnt int
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	f.callCnt++
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func mustNew(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	c, err := New(api)
	require.NoError(t, err)
	return c
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestGetParameter_ReturnsValueWithDecryption(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name:  strPtr("/support-agent/huggingface-token"),
		Value: strPtr(`{"token":"hf_123"}`),
		Type:  types.ParameterTypeSecureString,
	}}}
	v, err := mustNew(t, api).GetParameter(context.Background(), " /support-agent/huggingface-token ")
	require.NoError(t, err)
	require.Equal(t, `{"token":"hf_123"}`, v)
	require.Equal(t, "/support-agent/huggingface-token", *api.lastIn.Name)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestGetParameter_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("/support-agent/faq")}}}
	_, err := mustNew(t, api).GetParameter(context.Background(), "/support-agent/faq")
	require.Error(t, err)
	require.Contains(t, err.Error(), "has no value")
}

func TestGetParameter_APIError(t *testing.T) {
	api := &fakeAPI{getErr: errors.New("throttled")}
	_, err := mustNew(t, api).GetParameter(context.Background(), "/support-agent/faq")
	require.ErrorContains(t, err, "throttled")
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestGetParameter_NotFound(t *testing.T) {
	api := &fakeAPI{getErr: &types.ParameterNotFound{Message: strPtr("nope")}}
	_, err := mustNew(t, api).GetParameter(context.Background(), "/support-agent/faq")
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "/support-agent/faq")
}

func TestName(t *testing.T) {
	require.Equal(t, "/support-agent/faq", Name("/support-agent", "faq"))
	require.Equal(t, "/support-agent/faq", Name(" /support-agent/ ", "/faq"))
}

func TestGetParameter_EmptyName(t *testing.T) {
	api := &fakeAPI{}
	_, err := mustNew(t, api).GetParameter(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
	require.Zero(t, api.callCnt)
}
