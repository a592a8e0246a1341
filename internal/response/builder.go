// Package response turns whatever a rule returned into a well-formed
// evaluation batch ready for PutEvaluations, reconciling it against the
// rule's compliance history where other resources may have disappeared.
package response

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-playground/validator/v10"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/rules"
)

// Reconciler retires stale evaluations. *reconcile.Reconciler implements it.
type Reconciler interface {
	Reconcile(ctx context.Context, ruleName string, fresh models.EvaluationBatch, at time.Time) (models.EvaluationBatch, error)
}

// Input is everything Build needs besides the reconciler.
type Input struct {
	Result            rules.EvaluationResult
	ConfigurationItem *models.ConfigurationItem
	AccountID         string
	RuleName          string
	NotificationTime  time.Time
}

// Builder normalizes rule results into evaluation batches.
type Builder struct {
	reconciler          Reconciler
	validate            *validator.Validate
	defaultResourceType models.ResourceType
	logger              log.Logger
}

// NewBuilder returns a Builder. defaultResourceType is reported for scalar
// results that have no configuration item to describe.
func NewBuilder(reconciler Reconciler, defaultResourceType models.ResourceType, logger log.Logger) *Builder {
	if defaultResourceType == "" {
		defaultResourceType = models.ResourceAWSAccount
	}
	return &Builder{
		reconciler:          reconciler,
		validate:            newValidator(),
		defaultResourceType: defaultResourceType,
		logger:              logger,
	}
}

// newValidator reports field errors under the record's JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Build produces the batch to submit for in.
//
//   - Nothing, an empty scalar or an empty batch: one NOT_APPLICABLE record
//     for the event's account, reconciled.
//   - Scalar: one record for the configuration item, or for the account
//     when there is none. Not reconciled.
//   - Batch: records missing a required field are logged and dropped; the
//     rest is reconciled.
//   - Single: the record alone when valid, otherwise nothing. Not reconciled.
//   - Anything else: NOT_APPLICABLE for the configuration item.
func (b *Builder) Build(ctx context.Context, in Input) (models.EvaluationBatch, error) {
	res := in.Result

	switch {
	case res.Kind == rules.KindNone,
		res.Kind == rules.KindScalar && res.Compliance == "",
		res.Kind == rules.KindBatch && len(res.Records) == 0:
		latest := models.EvaluationBatch{{
			ComplianceResourceType: models.ResourceAWSAccount,
			ComplianceResourceID:   in.AccountID,
			ComplianceType:         models.ComplianceNotApplicable,
			OrderingTimestamp:      in.NotificationTime,
		}}
		return b.reconciler.Reconcile(ctx, in.RuleName, latest, in.NotificationTime)

	case res.Kind == rules.KindScalar:
		if in.ConfigurationItem != nil {
			return models.EvaluationBatch{b.fromConfigurationItem(in, res.Compliance)}, nil
		}
		return models.EvaluationBatch{{
			ComplianceResourceType: b.defaultResourceType,
			ComplianceResourceID:   in.AccountID,
			ComplianceType:         res.Compliance,
			OrderingTimestamp:      in.NotificationTime,
		}}, nil

	case res.Kind == rules.KindBatch:
		var latest models.EvaluationBatch
		for _, r := range res.Records {
			if b.valid(r) {
				latest = append(latest, r)
			}
		}
		return b.reconciler.Reconcile(ctx, in.RuleName, latest, in.NotificationTime)

	case res.Kind == rules.KindSingle:
		if !b.valid(res.Record) {
			return models.EvaluationBatch{}, nil
		}
		return models.EvaluationBatch{res.Record}, nil

	default:
		level.Warn(b.logger).Log("msg", "unrecognised evaluation result, reporting NOT_APPLICABLE", "kind", res.Kind)
		return models.EvaluationBatch{b.fromConfigurationItem(in, models.ComplianceNotApplicable)}, nil
	}
}

// valid reports whether r carries every required field, logging each one
// that is missing.
func (b *Builder) valid(r models.EvaluationRecord) bool {
	err := b.validate.Struct(r)
	if err == nil {
		return true
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		level.Error(b.logger).Log("msg", "cannot validate custom evaluation", "err", err)
		return false
	}
	for _, fe := range fieldErrs {
		level.Warn(b.logger).Log("msg", "dropping custom evaluation",
			"field", fe.Field(), "check", fe.Tag(), "resource_id", r.ComplianceResourceID)
	}
	return false
}

// fromConfigurationItem builds a record describing the invocation's
// configuration item. Without an item it describes the event's account.
func (b *Builder) fromConfigurationItem(in Input, ct models.ComplianceType) models.EvaluationRecord {
	ci := in.ConfigurationItem
	if ci == nil {
		return models.EvaluationRecord{
			ComplianceResourceType: b.defaultResourceType,
			ComplianceResourceID:   in.AccountID,
			ComplianceType:         ct,
			OrderingTimestamp:      in.NotificationTime,
		}
	}

	ts, err := ci.CapturedAt()
	if err != nil {
		level.Warn(b.logger).Log("msg", "unparseable configurationItemCaptureTime, using notification time",
			"capture_time", ci.ConfigurationItemCaptureTime, "err", err)
		ts = in.NotificationTime
	}
	return models.EvaluationRecord{
		ComplianceResourceType: models.ResourceType(ci.ResourceType),
		ComplianceResourceID:   ci.ResourceID,
		ComplianceType:         ct,
		OrderingTimestamp:      ts,
	}
}
