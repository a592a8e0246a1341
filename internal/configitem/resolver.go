// Package configitem classifies Config invoking events and produces the
// configuration item an invocation concerns, fetching it from the
// configuration history when Config only sent a summary.
package configitem

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	configtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/evalerr"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/common"
)

// Resolver turns an invoking event into a configuration item.
type Resolver struct {
	history common.ConfigHistoryClient
	logger  log.Logger
}

// NewResolver returns a Resolver that looks up oversized items through
// history.
func NewResolver(history common.ConfigHistoryClient, logger log.Logger) *Resolver {
	return &Resolver{history: history, logger: logger}
}

// DecodeInvokingEvent parses the invokingEvent string of a Config event.
func DecodeInvokingEvent(raw string) (*models.InvokingEvent, error) {
	if raw == "" {
		return nil, &evalerr.MissingFieldError{Field: "invokingEvent"}
	}
	var ev models.InvokingEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, fmt.Errorf("decode invokingEvent: %w", err)
	}
	return &ev, nil
}

// Resolve returns the configuration item for ev. Scheduled notifications
// concern the account itself and yield a nil item. Message types other than
// the three known ones are treated like a change notification; the caller is
// expected to have rejected them already.
func (r *Resolver) Resolve(ctx context.Context, ev *models.InvokingEvent) (*models.ConfigurationItem, error) {
	if ev == nil {
		return nil, &evalerr.MissingFieldError{Field: "invokingEvent"}
	}
	if ev.MessageType == "" {
		return nil, &evalerr.MissingFieldError{Field: "messageType"}
	}

	switch ev.MessageType {
	case models.MessageOversizedConfigurationItemChange:
		summary := ev.ConfigurationItemSummary
		if summary == nil {
			return nil, &evalerr.MissingFieldError{Field: "configurationItemSummary"}
		}
		return r.fetch(ctx, summary)
	case models.MessageScheduled:
		return nil, nil
	default:
		if ev.ConfigurationItem == nil {
			return nil, &evalerr.MissingFieldError{Field: "configurationItem"}
		}
		return ev.ConfigurationItem, nil
	}
}

// fetch returns the most recent configuration item recorded at or before the
// summary's capture time.
func (r *Resolver) fetch(ctx context.Context, summary *models.ConfigurationItemSummary) (*models.ConfigurationItem, error) {
	capturedAt, err := time.Parse(time.RFC3339Nano, summary.ConfigurationItemCaptureTime)
	if err != nil {
		return nil, fmt.Errorf("parse configurationItemCaptureTime %q: %w", summary.ConfigurationItemCaptureTime, err)
	}

	paginator := configsvc.NewGetResourceConfigHistoryPaginator(r.history, &configsvc.GetResourceConfigHistoryInput{
		ResourceType: configtypes.ResourceType(summary.ResourceType),
		ResourceId:   aws.String(summary.ResourceID),
		LaterTime:    aws.Time(capturedAt),
	}, func(o *configsvc.GetResourceConfigHistoryPaginatorOptions) {
		o.Limit = 1
	})

	page, err := paginator.NextPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("get resource config history for %s %s: %w", summary.ResourceType, summary.ResourceID, err)
	}
	if len(page.ConfigurationItems) == 0 {
		return nil, &evalerr.MissingFieldError{Field: "configurationItems"}
	}

	level.Debug(r.logger).Log("msg", "fetched oversized configuration item",
		"resource_type", summary.ResourceType, "resource_id", summary.ResourceID)
	return ConvertAPIConfigurationItem(page.ConfigurationItems[0])
}

// IsApplicable reports whether the resource in ci should be evaluated. A nil
// item or event is always applicable: scheduled evaluations target the
// account, which has no deletable lifecycle. Otherwise the item must be OK or
// freshly discovered and must not have left the rule's scope.
func (r *Resolver) IsApplicable(ci *models.ConfigurationItem, ev *events.ConfigEvent) bool {
	if ci == nil || ev == nil {
		return true
	}
	status := ci.ConfigurationItemStatus
	if status == models.StatusResourceDeleted {
		level.Info(r.logger).Log("msg", "resource deleted, setting compliance status to NOT_APPLICABLE",
			"resource_type", ci.ResourceType, "resource_id", ci.ResourceID)
	}
	return (status == models.StatusOK || status == models.StatusResourceDiscovered) && !ev.EventLeftScope
}
