package rules

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
	awssecurity "github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/security"
)

// S3AccountPublicAccessRule checks that the account's S3 public access block
// matches the four configured rule parameters exactly. A mismatch in any one
// setting makes the whole account NON_COMPLIANT.
type S3AccountPublicAccessRule struct {
	Collector awssecurity.SecurityCollector
}

func (r S3AccountPublicAccessRule) ID() string { return "S3_PUBLIC_ACCESS_SETTINGS_FOR_ACCOUNT" }
func (r S3AccountPublicAccessRule) Name() string {
	return "S3 Account Public Access Settings Match Parameters"
}

// Evaluate returns a single record for the account. The annotation lists the
// four observed settings in fixed order whatever the verdict.
func (r S3AccountPublicAccessRule) Evaluate(ctx context.Context, rc RuleContext) (EvaluationResult, error) {
	data, err := r.Collector.CollectAccountPublicAccess(ctx)
	if err != nil {
		return EvaluationResult{}, err
	}

	compliance := models.ComplianceNonCompliant
	if data.Block.Matches(rc.Params) {
		compliance = models.ComplianceCompliant
	}

	return Batch(models.EvaluationRecord{
		ComplianceResourceType: models.ResourceAWSAccount,
		ComplianceResourceID:   data.AccountID,
		ComplianceType:         compliance,
		OrderingTimestamp:      rc.NotificationTime,
		Annotation:             Annotation(data.Block),
	}), nil
}

// Annotation renders the observed block as
// "BlockPublicAcls:True IgnorePublicAcls:False BlockPublicPolicy:True RestrictPublicBuckets:True".
func Annotation(b models.PublicAccessBlock) string {
	return fmt.Sprintf("BlockPublicAcls:%s IgnorePublicAcls:%s BlockPublicPolicy:%s RestrictPublicBuckets:%s",
		boolWord(b.BlockPublicAcls),
		boolWord(b.IgnorePublicAcls),
		boolWord(b.BlockPublicPolicy),
		boolWord(b.RestrictPublicBuckets),
	)
}

func boolWord(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
