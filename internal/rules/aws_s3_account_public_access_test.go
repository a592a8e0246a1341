package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
)

type fakeCollector struct {
	data  *models.AccountPublicAccess
	err   error
	calls int
}

func (f *fakeCollector) CollectAccountPublicAccess(context.Context) (*models.AccountPublicAccess, error) {
	f.calls++
	return f.data, f.err
}

var notified = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func allTrue() models.RuleParameterSet {
	return models.RuleParameterSet{
		BlockPublicAcls:       true,
		IgnorePublicAcls:      true,
		BlockPublicPolicy:     true,
		RestrictPublicBuckets: true,
	}
}

func TestS3AccountPublicAccessRule_ID(t *testing.T) {
	r := S3AccountPublicAccessRule{}
	if r.ID() != "S3_PUBLIC_ACCESS_SETTINGS_FOR_ACCOUNT" {
		t.Errorf("unexpected rule ID %q", r.ID())
	}
}

func TestS3AccountPublicAccessRule_AllMatch_Compliant(t *testing.T) {
	c := &fakeCollector{data: &models.AccountPublicAccess{
		AccountID: "111122223333",
		Block: models.PublicAccessBlock{
			BlockPublicAcls:       true,
			IgnorePublicAcls:      true,
			BlockPublicPolicy:     true,
			RestrictPublicBuckets: true,
		},
	}}

	res, err := S3AccountPublicAccessRule{Collector: c}.Evaluate(context.Background(), RuleContext{
		Params:           allTrue(),
		NotificationTime: notified,
	})

	require.NoError(t, err)
	require.Equal(t, KindBatch, res.Kind)
	require.Len(t, res.Records, 1)
	assert.Equal(t, models.EvaluationRecord{
		ComplianceResourceType: models.ResourceAWSAccount,
		ComplianceResourceID:   "111122223333",
		ComplianceType:         models.ComplianceCompliant,
		OrderingTimestamp:      notified,
		Annotation:             "BlockPublicAcls:True IgnorePublicAcls:True BlockPublicPolicy:True RestrictPublicBuckets:True",
	}, res.Records[0])
}

func TestS3AccountPublicAccessRule_AnySingleMismatch_NonCompliant(t *testing.T) {
	flips := []func(*models.PublicAccessBlock){
		func(b *models.PublicAccessBlock) { b.BlockPublicAcls = false },
		func(b *models.PublicAccessBlock) { b.IgnorePublicAcls = false },
		func(b *models.PublicAccessBlock) { b.BlockPublicPolicy = false },
		func(b *models.PublicAccessBlock) { b.RestrictPublicBuckets = false },
	}
	for i, flip := range flips {
		block := models.PublicAccessBlock{
			BlockPublicAcls:       true,
			IgnorePublicAcls:      true,
			BlockPublicPolicy:     true,
			RestrictPublicBuckets: true,
		}
		flip(&block)
		c := &fakeCollector{data: &models.AccountPublicAccess{AccountID: "111122223333", Block: block}}

		res, err := S3AccountPublicAccessRule{Collector: c}.Evaluate(context.Background(), RuleContext{
			Params:           allTrue(),
			NotificationTime: notified,
		})

		require.NoError(t, err)
		require.Len(t, res.Records, 1, "flip %d", i)
		assert.Equal(t, models.ComplianceNonCompliant, res.Records[0].ComplianceType, "flip %d", i)
		assert.Equal(t, Annotation(block), res.Records[0].Annotation)
	}
}

func TestS3AccountPublicAccessRule_AllFalseParamsAllFalseBlock_Compliant(t *testing.T) {
	c := &fakeCollector{data: &models.AccountPublicAccess{AccountID: "111122223333"}}

	res, err := S3AccountPublicAccessRule{Collector: c}.Evaluate(context.Background(), RuleContext{NotificationTime: notified})

	require.NoError(t, err)
	assert.Equal(t, models.ComplianceCompliant, res.Records[0].ComplianceType)
	assert.Equal(t,
		"BlockPublicAcls:False IgnorePublicAcls:False BlockPublicPolicy:False RestrictPublicBuckets:False",
		res.Records[0].Annotation)
}

func TestS3AccountPublicAccessRule_CollectorError(t *testing.T) {
	boom := errors.New("access denied")
	c := &fakeCollector{err: boom}

	_, err := S3AccountPublicAccessRule{Collector: c}.Evaluate(context.Background(), RuleContext{})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, c.calls)
}

func TestAnnotation_FixedOrder(t *testing.T) {
	got := Annotation(models.PublicAccessBlock{IgnorePublicAcls: true, RestrictPublicBuckets: true})
	assert.Equal(t, "BlockPublicAcls:False IgnorePublicAcls:True BlockPublicPolicy:False RestrictPublicBuckets:True", got)
}

func TestResultConstructors(t *testing.T) {
	assert.Equal(t, KindNone, NoResult().Kind)
	assert.Equal(t, models.ComplianceNotApplicable, Scalar(models.ComplianceNotApplicable).Compliance)
	assert.Equal(t, "x", Single(models.EvaluationRecord{ComplianceResourceID: "x"}).Record.ComplianceResourceID)
	assert.Len(t, Batch(models.EvaluationRecord{}, models.EvaluationRecord{}).Records, 2)
	assert.Equal(t, "batch", KindBatch.String())
	assert.Equal(t, "unknown", ResultKind(42).String())
}
