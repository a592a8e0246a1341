// Package engine runs one AWS Config rule invocation end to end: it decodes
// and validates the event, builds per-invocation AWS clients, evaluates the
// rule, shapes and reconciles the result and submits it back to Config.
//
// The Dispatcher never calls the AWS SDK directly; it delegates to the
// provider, the rule and the Config service client interfaces.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	configtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/config"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/configitem"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/evalerr"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/params"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/reconcile"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/response"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/rules"
)

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithProfile makes the Dispatcher load the named shared-config profile
// instead of the default credential chain. Used by local invocations.
func WithProfile(profile string) Option {
	return func(d *Dispatcher) { d.profile = profile }
}

// WithClock replaces time.Now, used when an event carries no
// notificationCreationTime.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// Dispatcher handles Config rule invocations. It holds no per-invocation
// state and is safe for concurrent use.
type Dispatcher struct {
	provider common.AWSClientProvider
	newRule  rules.Factory
	cfg      config.Config
	logger   log.Logger
	profile  string
	now      func() time.Time
}

// NewDispatcher returns a Dispatcher that builds clients through provider
// and evaluates the rule made by newRule.
func NewDispatcher(provider common.AWSClientProvider, newRule rules.Factory, cfg config.Config, logger log.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		provider: provider,
		newRule:  newRule,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// invocation tracks the progress of one Handle call.
type invocation struct {
	stage  Stage
	logger log.Logger
}

func (inv *invocation) enter(s Stage) {
	level.Debug(inv.logger).Log("msg", "stage transition", "from", inv.stage, "to", s)
	inv.stage = s
}

// Handle processes event and returns the submitted evaluations or the error
// envelope. It never returns a Go error; every failure is classified and
// rendered into the response.
func (d *Dispatcher) Handle(ctx context.Context, event events.ConfigEvent) Response {
	inv := &invocation{
		stage: StageValidatingParameters,
		logger: log.With(d.logger,
			"config_rule", event.ConfigRuleName,
			"account", event.AccountID,
		),
	}

	batch, err := d.run(ctx, event, inv)
	if err != nil {
		failedAt := inv.stage
		resp := evalerr.Response(err)
		terminal := StageInternalError
		if evalerr.IsCustomer(err) {
			terminal = StageCustomerError
		}
		inv.enter(terminal)
		level.Error(inv.logger).Log(
			"msg", "invocation failed",
			"stage", failedAt,
			"internal_error_message", resp.InternalErrorMessage,
			"internal_error_details", resp.InternalErrorDetails,
			"customer_error_code", resp.CustomerErrorCode,
			"err", err,
		)
		return Response{Error: &resp, Stage: terminal, FailedAt: failedAt}
	}

	inv.enter(StageDone)
	level.Info(inv.logger).Log("msg", "evaluations submitted", "count", len(batch))
	return Response{Evaluations: batch, Stage: StageDone}
}

func (d *Dispatcher) run(ctx context.Context, event events.ConfigEvent, inv *invocation) (models.EvaluationBatch, error) {
	ev, err := configitem.DecodeInvokingEvent(event.InvokingEvent)
	if err != nil {
		return nil, err
	}
	rawParams, err := params.DecodeRuleParameters(event.RuleParameters)
	if err != nil {
		return nil, err
	}
	ruleParams, err := params.EvaluateParameters(rawParams)
	if err != nil {
		return nil, err
	}

	base, cfgClient, err := d.clients(ctx, event)
	if err != nil {
		return nil, err
	}

	if !ev.MessageType.Supported() {
		return nil, &evalerr.UnexpectedMessageTypeError{
			MessageType:   string(ev.MessageType),
			InvokingEvent: event.InvokingEvent,
		}
	}

	inv.enter(StageResolvingItem)
	resolver := configitem.NewResolver(cfgClient, inv.logger)
	ci, err := resolver.Resolve(ctx, ev)
	if err != nil {
		return nil, err
	}

	notified := ev.NotificationCreationTime
	if notified.IsZero() {
		notified = d.now().UTC()
	}

	inv.enter(StageEvaluating)
	result := rules.Scalar(models.ComplianceNotApplicable)
	if resolver.IsApplicable(ci, &event) {
		rule := d.newRule(base.Clients)
		result, err = rule.Evaluate(ctx, rules.RuleContext{
			Params:            ruleParams,
			ConfigurationItem: ci,
			NotificationTime:  notified,
		})
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", rule.ID(), err)
		}
		level.Debug(inv.logger).Log("msg", "rule evaluated", "rule", rule.ID(), "result", result.Kind)
	}

	inv.enter(StageBuildingResponse)
	reconciler := reconcile.New(cfgClient, reconcile.Options{
		PageSize:            d.cfg.HistoryPageSize,
		MaxPages:            d.cfg.MaxHistoryPages,
		DefaultResourceType: models.ResourceAWSAccount,
	}, inv.logger)
	builder := response.NewBuilder(reconciler, models.ResourceType(d.cfg.DefaultResourceType), inv.logger)
	batch, err := builder.Build(ctx, response.Input{
		Result:            result,
		ConfigurationItem: ci,
		AccountID:         event.AccountID,
		RuleName:          event.ConfigRuleName,
		NotificationTime:  notified,
	})
	if err != nil {
		return nil, err
	}

	inv.enter(StageSubmitting)
	if err := d.submit(ctx, cfgClient, event.ResultToken, batch, inv.logger); err != nil {
		return nil, err
	}
	return batch, nil
}

// clients builds the invocation's AWS clients. The rule always uses the
// function's own credentials; in assume-role mode the Config service client
// acts as the event's execution role.
func (d *Dispatcher) clients(ctx context.Context, event events.ConfigEvent) (*common.ProfileConfig, common.ConfigServiceClient, error) {
	base, err := d.provider.LoadProfile(ctx, d.profile)
	if err != nil {
		return nil, nil, evalerr.Classify(err)
	}
	if !d.cfg.AssumeRoleMode {
		return base, base.Clients.Config, nil
	}

	assumed, err := d.provider.AssumeRole(ctx, base, event.ExecutionRoleArn, d.cfg.RoleSessionName)
	if err != nil {
		return nil, nil, err
	}
	return base, assumed.Clients.Config, nil
}

// submit sends batch to Config in a single PutEvaluations call.
func (d *Dispatcher) submit(ctx context.Context, client common.EvaluationSubmitter, resultToken string, batch models.EvaluationBatch, logger log.Logger) error {
	testMode := resultToken == d.cfg.TestModeToken
	_, err := client.PutEvaluations(ctx, &configsvc.PutEvaluationsInput{
		Evaluations: toAPIEvaluations(batch),
		ResultToken: aws.String(resultToken),
		TestMode:    testMode,
	})
	if err != nil {
		return fmt.Errorf("PutEvaluations: %w", err)
	}
	level.Debug(logger).Log("msg", "PutEvaluations sent", "count", len(batch), "test_mode", testMode)
	return nil
}

func toAPIEvaluations(batch models.EvaluationBatch) []configtypes.Evaluation {
	out := make([]configtypes.Evaluation, 0, len(batch))
	for _, r := range batch {
		e := configtypes.Evaluation{
			ComplianceResourceType: aws.String(string(r.ComplianceResourceType)),
			ComplianceResourceId:   aws.String(r.ComplianceResourceID),
			ComplianceType:         configtypes.ComplianceType(r.ComplianceType),
			OrderingTimestamp:      aws.Time(r.OrderingTimestamp),
		}
		if r.Annotation != "" {
			e.Annotation = aws.String(r.Annotation)
		}
		out = append(out, e)
	}
	return out
}
