package main

import (
	"bytes"
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/s3control"
	s3controltypes "github.com/aws/aws-sdk-go-v2/service/s3control/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/config"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/rules"
)

// ── AWS mocks ─────────────────────────────────────────────────────────────────

type mockSTS struct {
	account string
	err     error
}

func (m *mockSTS) GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &sts.GetCallerIdentityOutput{Account: aws.String(m.account)}, nil
}

func (m *mockSTS) AssumeRole(context.Context, *sts.AssumeRoleInput, ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	return nil, errors.New("not used")
}

type mockS3Control struct {
	block *s3controltypes.PublicAccessBlockConfiguration
	err   error
}

func (m *mockS3Control) GetPublicAccessBlock(context.Context, *s3control.GetPublicAccessBlockInput, ...func(*s3control.Options)) (*s3control.GetPublicAccessBlockOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &s3control.GetPublicAccessBlockOutput{PublicAccessBlockConfiguration: m.block}, nil
}

type mockConfig struct {
	historyErr error
	puts       []*configsvc.PutEvaluationsInput
}

func (m *mockConfig) GetResourceConfigHistory(context.Context, *configsvc.GetResourceConfigHistoryInput, ...func(*configsvc.Options)) (*configsvc.GetResourceConfigHistoryOutput, error) {
	return &configsvc.GetResourceConfigHistoryOutput{}, nil
}

func (m *mockConfig) GetComplianceDetailsByConfigRule(context.Context, *configsvc.GetComplianceDetailsByConfigRuleInput, ...func(*configsvc.Options)) (*configsvc.GetComplianceDetailsByConfigRuleOutput, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return &configsvc.GetComplianceDetailsByConfigRuleOutput{}, nil
}

func (m *mockConfig) PutEvaluations(_ context.Context, in *configsvc.PutEvaluationsInput, _ ...func(*configsvc.Options)) (*configsvc.PutEvaluationsOutput, error) {
	m.puts = append(m.puts, in)
	return &configsvc.PutEvaluationsOutput{}, nil
}

type mockAWSProvider struct {
	clients     *common.ClientSet
	profileErr  error
	lastProfile string // records the profile name passed to LoadProfile
}

func (m *mockAWSProvider) LoadProfile(_ context.Context, profile string) (*common.ProfileConfig, error) {
	m.lastProfile = profile
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return &common.ProfileConfig{ProfileName: "default", Region: "us-east-1", Clients: m.clients}, nil
}

func (m *mockAWSProvider) AssumeRole(_ context.Context, base *common.ProfileConfig, _, _ string) (*common.ProfileConfig, error) {
	return base, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func blockAll() *s3controltypes.PublicAccessBlockConfiguration {
	return &s3controltypes.PublicAccessBlockConfiguration{
		BlockPublicAcls:       aws.Bool(true),
		IgnorePublicAcls:      aws.Bool(true),
		BlockPublicPolicy:     aws.Bool(true),
		RestrictPublicBuckets: aws.Bool(true),
	}
}

type mocks struct {
	sts      *mockSTS
	s3       *mockS3Control
	config   *mockConfig
	provider *mockAWSProvider
}

func goodMocks() *mocks {
	m := &mocks{
		sts:    &mockSTS{account: "123456789012"},
		s3:     &mockS3Control{block: blockAll()},
		config: &mockConfig{},
	}
	m.provider = &mockAWSProvider{clients: &common.ClientSet{STS: m.sts, S3Control: m.s3, Config: m.config}}
	return m
}

// testApp returns an app wired to m, logging into logs.
func testApp(m *mocks, logs *bytes.Buffer) *app {
	return &app{
		v:           config.NewViper(),
		logOut:      logs,
		newProvider: func(config.Config) common.AWSClientProvider { return m.provider },
		registry:    rules.NewBuiltinRegistry(),
	}
}
