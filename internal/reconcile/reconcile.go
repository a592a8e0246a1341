// Package reconcile retires evaluations a rule reported earlier for
// resources it no longer reports on. For each resource that has a
// COMPLIANT or NON_COMPLIANT result on record but is missing from the fresh
// batch, a NOT_APPLICABLE record is synthesized. Records already on file
// are never rewritten; the synthesized ones supersede them.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	configtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/common"
)

// DefaultPageSize is the largest page GetComplianceDetailsByConfigRule
// accepts.
const DefaultPageSize = 100

// Options tunes history pagination.
type Options struct {
	// PageSize is the number of results requested per page.
	PageSize int32

	// MaxPages stops pagination after this many pages. Zero means no limit.
	MaxPages int

	// DefaultResourceType is used for stale records whose prior result
	// carries no resource type.
	DefaultResourceType models.ResourceType
}

// PriorResult identifies a resource the rule reported on before.
type PriorResult struct {
	ResourceID   string
	ResourceType models.ResourceType
}

// Reconciler reads a rule's compliance history and synthesizes
// NOT_APPLICABLE records for resources that disappeared.
type Reconciler struct {
	client common.ComplianceHistoryClient
	opts   Options
	logger log.Logger
}

// New returns a Reconciler reading history through client.
func New(client common.ComplianceHistoryClient, opts Options, logger log.Logger) *Reconciler {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.DefaultResourceType == "" {
		opts.DefaultResourceType = models.ResourceAWSAccount
	}
	return &Reconciler{client: client, opts: opts, logger: logger}
}

// PriorResults pages through every COMPLIANT and NON_COMPLIANT result on
// record for ruleName. Each resource ID appears once, in first-seen order.
// When MaxPages is reached the results read so far are returned and a
// warning is logged.
func (r *Reconciler) PriorResults(ctx context.Context, ruleName string) ([]PriorResult, error) {
	paginator := configsvc.NewGetComplianceDetailsByConfigRulePaginator(r.client, &configsvc.GetComplianceDetailsByConfigRuleInput{
		ConfigRuleName: aws.String(ruleName),
		ComplianceTypes: []configtypes.ComplianceType{
			configtypes.ComplianceTypeCompliant,
			configtypes.ComplianceTypeNonCompliant,
		},
	}, func(o *configsvc.GetComplianceDetailsByConfigRulePaginatorOptions) {
		o.Limit = r.opts.PageSize
	})

	var (
		results []PriorResult
		seen    = make(map[string]struct{})
		pages   int
	)
	for paginator.HasMorePages() {
		if r.opts.MaxPages > 0 && pages >= r.opts.MaxPages {
			level.Warn(r.logger).Log("msg", "compliance history page limit reached, reconciling with partial history",
				"rule", ruleName, "pages", pages, "results", len(results))
			break
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("get compliance details for rule %q: %w", ruleName, err)
		}
		pages++

		for _, res := range page.EvaluationResults {
			prior, ok := priorFrom(res)
			if !ok {
				continue
			}
			if _, dup := seen[prior.ResourceID]; dup {
				continue
			}
			seen[prior.ResourceID] = struct{}{}
			results = append(results, prior)
		}
	}

	level.Debug(r.logger).Log("msg", "read compliance history", "rule", ruleName, "pages", pages, "results", len(results))
	return results, nil
}

// Reconcile returns the stale NOT_APPLICABLE records followed by fresh.
// Stale records are timestamped at.
func (r *Reconciler) Reconcile(ctx context.Context, ruleName string, fresh models.EvaluationBatch, at time.Time) (models.EvaluationBatch, error) {
	prior, err := r.PriorResults(ctx, ruleName)
	if err != nil {
		return nil, err
	}

	current := fresh.ResourceIDs()
	var out models.EvaluationBatch
	for _, p := range prior {
		if _, ok := current[p.ResourceID]; ok {
			continue
		}
		resourceType := p.ResourceType
		if resourceType == "" {
			resourceType = r.opts.DefaultResourceType
		}
		out = append(out, models.EvaluationRecord{
			ComplianceResourceType: resourceType,
			ComplianceResourceID:   p.ResourceID,
			ComplianceType:         models.ComplianceNotApplicable,
			OrderingTimestamp:      at,
		})
	}

	if len(out) > 0 {
		level.Info(r.logger).Log("msg", "retiring stale evaluations", "rule", ruleName, "count", len(out))
	}
	return append(out, fresh...), nil
}

func priorFrom(res configtypes.EvaluationResult) (PriorResult, bool) {
	if res.EvaluationResultIdentifier == nil || res.EvaluationResultIdentifier.EvaluationResultQualifier == nil {
		return PriorResult{}, false
	}
	q := res.EvaluationResultIdentifier.EvaluationResultQualifier
	id := aws.ToString(q.ResourceId)
	if id == "" {
		return PriorResult{}, false
	}
	return PriorResult{ResourceID: id, ResourceType: models.ResourceType(aws.ToString(q.ResourceType))}, true
}
