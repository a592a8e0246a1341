package awssecurity

import (
	"context"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/common"
)

// DefaultSecurityCollector is the production SecurityCollector. It resolves
// the account through STS and reads the account public access block through
// S3 Control. Calls are sequential: the block lookup needs the account ID.
type DefaultSecurityCollector struct {
	sts       common.STSClient
	s3control common.S3ControlClient
}

// NewDefaultSecurityCollector returns a collector using the STS and S3
// Control clients of cs.
func NewDefaultSecurityCollector(cs *common.ClientSet) *DefaultSecurityCollector {
	return &DefaultSecurityCollector{sts: cs.STS, s3control: cs.S3Control}
}

// CollectAccountPublicAccess implements SecurityCollector.
func (c *DefaultSecurityCollector) CollectAccountPublicAccess(ctx context.Context) (*models.AccountPublicAccess, error) {
	accountID, err := common.ResolveAccountID(ctx, c.sts)
	if err != nil {
		return nil, err
	}

	block, err := collectPublicAccessBlock(ctx, c.s3control, accountID)
	if err != nil {
		return nil, err
	}

	return &models.AccountPublicAccess{AccountID: accountID, Block: block}, nil
}
