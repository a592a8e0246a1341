package common

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/evalerr"
)

type fakeSTS struct {
	account  *string
	creds    *ststypes.Credentials
	err      error
	assumed  []string
	sessions []string
}

func (f *fakeSTS) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &sts.GetCallerIdentityOutput{Account: f.account}, nil
}

func (f *fakeSTS) AssumeRole(_ context.Context, in *sts.AssumeRoleInput, _ ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	f.assumed = append(f.assumed, aws.ToString(in.RoleArn))
	f.sessions = append(f.sessions, aws.ToString(in.RoleSessionName))
	if f.err != nil {
		return nil, f.err
	}
	return &sts.AssumeRoleOutput{Credentials: f.creds}, nil
}

func baseProfile(s *fakeSTS) *ProfileConfig {
	return &ProfileConfig{
		ProfileName: "default",
		Region:      "eu-west-1",
		Config:      aws.Config{Region: "eu-west-1"},
		Clients:     &ClientSet{STS: s},
	}
}

func TestResolveAccountID(t *testing.T) {
	id, err := ResolveAccountID(context.Background(), &fakeSTS{account: aws.String("123456789012")})
	require.NoError(t, err)
	assert.Equal(t, "123456789012", id)
}

func TestResolveAccountID_NilAccount(t *testing.T) {
	_, err := ResolveAccountID(context.Background(), &fakeSTS{})
	require.Error(t, err)
}

func TestResolveAccountID_Error(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "ExpiredToken", Message: "expired"}
	_, err := ResolveAccountID(context.Background(), &fakeSTS{err: apiErr})

	var got smithy.APIError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "ExpiredToken", got.ErrorCode())
}

func TestAssumeRole_UsesTemporaryCredentials(t *testing.T) {
	s := &fakeSTS{creds: &ststypes.Credentials{
		AccessKeyId:     aws.String("AKIA-TEMP"),
		SecretAccessKey: aws.String("secret"),
		SessionToken:    aws.String("token"),
	}}
	var built aws.Config
	p := NewDefaultAWSClientProviderWithFactory(func(cfg aws.Config) *ClientSet {
		built = cfg
		return &ClientSet{}
	}, ProviderOptions{})

	pc, err := p.AssumeRole(context.Background(), baseProfile(s), "arn:aws:iam::123456789012:role/config", "configLambdaExecution")

	require.NoError(t, err)
	assert.Equal(t, []string{"arn:aws:iam::123456789012:role/config"}, s.assumed)
	assert.Equal(t, []string{"configLambdaExecution"}, s.sessions)
	assert.Equal(t, "eu-west-1", pc.Region)

	creds, err := built.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIA-TEMP", creds.AccessKeyID)
	assert.Equal(t, "token", creds.SessionToken)
}

func TestAssumeRole_AccessDeniedIsScrubbed(t *testing.T) {
	s := &fakeSTS{err: &smithy.GenericAPIError{
		Code:    "AccessDenied",
		Message: "User: arn:aws:sts::123456789012:assumed-role/lambda is not authorized",
	}}
	p := NewDefaultAWSClientProviderWithFactory(func(aws.Config) *ClientSet { return &ClientSet{} }, ProviderOptions{})

	_, err := p.AssumeRole(context.Background(), baseProfile(s), "arn:aws:iam::123456789012:role/config", "s")

	var customer *evalerr.CustomerServiceError
	require.True(t, errors.As(err, &customer))
	assert.Equal(t, evalerr.MessageAssumeRoleDenied, customer.Message)
}

func TestAssumeRole_MissingRoleARN(t *testing.T) {
	p := NewDefaultAWSClientProviderWithFactory(func(aws.Config) *ClientSet { return &ClientSet{} }, ProviderOptions{})

	_, err := p.AssumeRole(context.Background(), baseProfile(&fakeSTS{}), "", "s")

	var missing *evalerr.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "executionRoleArn", missing.Field)
}

func TestAssumeRole_NoCredentials(t *testing.T) {
	p := NewDefaultAWSClientProviderWithFactory(func(aws.Config) *ClientSet { return &ClientSet{} }, ProviderOptions{})

	_, err := p.AssumeRole(context.Background(), baseProfile(&fakeSTS{}), "arn:aws:iam::1:role/r", "s")

	var internal *evalerr.InternalServiceError
	require.True(t, errors.As(err, &internal))
}

func TestProfileDisplayName(t *testing.T) {
	assert.Equal(t, "default", profileDisplayName(""))
	assert.Equal(t, "audit", profileDisplayName("audit"))
}
