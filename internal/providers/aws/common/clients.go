package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/s3control"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ---------------------------------------------------------------------------
// Per-service client interfaces
//
// Each interface covers only the operations used by this project. Using narrow
// interfaces instead of the full SDK clients makes mocking in unit tests
// trivial: create a struct that satisfies the interface and return canned data.
// ---------------------------------------------------------------------------

// STSClient is the subset of STS operations used to resolve the caller's
// account and to assume the Config execution role.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)

	AssumeRole(
		ctx context.Context,
		params *sts.AssumeRoleInput,
		optFns ...func(*sts.Options),
	) (*sts.AssumeRoleOutput, error)
}

// S3ControlClient covers the account-level S3 public access block lookup.
type S3ControlClient interface {
	GetPublicAccessBlock(
		ctx context.Context,
		params *s3control.GetPublicAccessBlockInput,
		optFns ...func(*s3control.Options),
	) (*s3control.GetPublicAccessBlockOutput, error)
}

// ConfigHistoryClient fetches past configuration items. It matches
// configsvc.GetResourceConfigHistoryAPIClient so the SDK paginator can be
// used directly.
type ConfigHistoryClient interface {
	GetResourceConfigHistory(
		ctx context.Context,
		params *configsvc.GetResourceConfigHistoryInput,
		optFns ...func(*configsvc.Options),
	) (*configsvc.GetResourceConfigHistoryOutput, error)
}

// ComplianceHistoryClient reads the evaluation results previously reported
// for a rule.
type ComplianceHistoryClient interface {
	GetComplianceDetailsByConfigRule(
		ctx context.Context,
		params *configsvc.GetComplianceDetailsByConfigRuleInput,
		optFns ...func(*configsvc.Options),
	) (*configsvc.GetComplianceDetailsByConfigRuleOutput, error)
}

// EvaluationSubmitter reports evaluations back to AWS Config.
type EvaluationSubmitter interface {
	PutEvaluations(
		ctx context.Context,
		params *configsvc.PutEvaluationsInput,
		optFns ...func(*configsvc.Options),
	) (*configsvc.PutEvaluationsOutput, error)
}

// ConfigServiceClient is every AWS Config operation the handler performs.
type ConfigServiceClient interface {
	ConfigHistoryClient
	ComplianceHistoryClient
	EvaluationSubmitter
}

// ---------------------------------------------------------------------------
// ClientSet and ClientFactory
// ---------------------------------------------------------------------------

// ClientSet holds fully initialised AWS service clients for one invocation.
// All fields are interfaces so they can be replaced with mocks in tests
// without importing the AWS SDK in test files.
type ClientSet struct {
	STS       STSClient
	S3Control S3ControlClient
	Config    ConfigServiceClient
}

// ClientFactory creates a ClientSet from an aws.Config.
// Swap this in tests to inject mock clients.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the production ClientFactory. It constructs real AWS SDK
// clients from cfg.
func NewClientSet(cfg aws.Config) *ClientSet {
	return &ClientSet{
		STS:       sts.NewFromConfig(cfg),
		S3Control: s3control.NewFromConfig(cfg),
		Config:    configsvc.NewFromConfig(cfg),
	}
}
