package awssecurity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3control"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/common"
)

// collectPublicAccessBlock returns the account-level S3 public access block.
// A setting absent from the response reads as false. An account without any
// block configured surfaces as the NoSuchPublicAccessBlockConfiguration API
// error, which is returned unchanged.
func collectPublicAccessBlock(ctx context.Context, client common.S3ControlClient, accountID string) (models.PublicAccessBlock, error) {
	out, err := client.GetPublicAccessBlock(ctx, &s3control.GetPublicAccessBlockInput{
		AccountId: aws.String(accountID),
	})
	if err != nil {
		return models.PublicAccessBlock{}, fmt.Errorf("get public access block for account %s: %w", accountID, err)
	}

	cfg := out.PublicAccessBlockConfiguration
	if cfg == nil {
		return models.PublicAccessBlock{}, nil
	}
	return models.PublicAccessBlock{
		BlockPublicAcls:       aws.ToBool(cfg.BlockPublicAcls),
		IgnorePublicAcls:      aws.ToBool(cfg.IgnorePublicAcls),
		BlockPublicPolicy:     aws.ToBool(cfg.BlockPublicPolicy),
		RestrictPublicBuckets: aws.ToBool(cfg.RestrictPublicBuckets),
	}, nil
}
