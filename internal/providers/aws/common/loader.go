package common

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/evalerr"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/version"
)

// defaultRegion is used when neither the options nor the environment name a
// region, so that all SDK clients can be constructed.
const defaultRegion = "us-east-1"

// ProviderOptions tunes the SDK configuration built by the provider.
type ProviderOptions struct {
	// Region overrides the region from the environment when set.
	Region string

	// MaxAttempts overrides the SDK retryer's attempt count when > 0.
	MaxAttempts int
}

// DefaultAWSClientProvider is the production implementation of
// AWSClientProvider. It resolves credentials through the standard AWS SDK v2
// chain (environment, shared config, container and instance roles).
//
// Inject a custom ClientFactory via NewDefaultAWSClientProviderWithFactory to
// replace real SDK clients with mocks in unit tests.
type DefaultAWSClientProvider struct {
	factory ClientFactory
	opts    ProviderOptions
}

// NewDefaultAWSClientProvider returns a provider backed by the real AWS SDK.
func NewDefaultAWSClientProvider(opts ProviderOptions) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: NewClientSet, opts: opts}
}

// NewDefaultAWSClientProviderWithFactory returns a provider that uses f to
// create its ClientSet. Pass a mock factory in tests.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory, opts ProviderOptions) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: f, opts: opts}
}

// LoadProfile loads the AWS SDK config for the named profile and returns a
// ProfileConfig with initialised service clients.
func (p *DefaultAWSClientProvider) LoadProfile(ctx context.Context, profile string) (*ProfileConfig, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithAppID(version.AppID()),
	}
	if profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(profile))
	}
	if p.opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(p.opts.Region))
	}
	if p.opts.MaxAttempts > 0 {
		loadOpts = append(loadOpts, awsconfig.WithRetryMaxAttempts(p.opts.MaxAttempts))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS profile %q: %w", profileDisplayName(profile), err)
	}
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}

	return &ProfileConfig{
		ProfileName: profileDisplayName(profile),
		Region:      cfg.Region,
		Config:      cfg,
		Clients:     p.factory(cfg),
	}, nil
}

// AssumeRole calls STS AssumeRole with base's clients and returns a
// ProfileConfig whose credentials are the temporary role credentials.
func (p *DefaultAWSClientProvider) AssumeRole(ctx context.Context, base *ProfileConfig, roleARN, sessionName string) (*ProfileConfig, error) {
	if roleARN == "" {
		return nil, &evalerr.MissingFieldError{Field: "executionRoleArn"}
	}

	out, err := base.Clients.STS.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(sessionName),
	})
	if err != nil {
		return nil, evalerr.ScrubAssumeRoleError(err)
	}
	if out.Credentials == nil {
		return nil, &evalerr.InternalServiceError{
			Code:    evalerr.CodeInternalError,
			Message: evalerr.MessageInternalError,
			Err:     fmt.Errorf("STS AssumeRole returned no credentials"),
		}
	}

	cfg := base.Config.Copy()
	cfg.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		aws.ToString(out.Credentials.AccessKeyId),
		aws.ToString(out.Credentials.SecretAccessKey),
		aws.ToString(out.Credentials.SessionToken),
	))

	return &ProfileConfig{
		ProfileName: base.ProfileName,
		Region:      base.Region,
		Config:      cfg,
		Clients:     p.factory(cfg),
	}, nil
}

// ResolveAccountID calls STS GetCallerIdentity to retrieve the numeric AWS
// account ID for the credentials currently loaded in stsClient.
func ResolveAccountID(ctx context.Context, stsClient STSClient) (string, error) {
	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return "", fmt.Errorf("STS GetCallerIdentity returned nil account")
	}
	return aws.ToString(out.Account), nil
}

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}
