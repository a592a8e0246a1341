package rules

import (
	"context"
	"time"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
)

// RuleContext carries everything a rule needs for one invocation.
type RuleContext struct {
	// Params holds the validated rule parameters.
	Params models.RuleParameterSet

	// ConfigurationItem is the resource the invocation concerns. Nil for
	// scheduled notifications.
	ConfigurationItem *models.ConfigurationItem

	// NotificationTime is the invoking event's creation time, used as the
	// ordering timestamp of account-level evaluations.
	NotificationTime time.Time
}

// Rule is a single Config rule evaluation.
// Implementations may call AWS services; failures are returned unclassified
// and mapped onto the error taxonomy by the dispatcher.
type Rule interface {
	// ID returns the unique, stable identifier for this rule
	// (e.g. "S3_PUBLIC_ACCESS_SETTINGS_FOR_ACCOUNT").
	ID() string

	// Name returns a short human-readable rule name.
	Name() string

	// Evaluate produces the verdict for the invocation described by ctx.
	Evaluate(ctx context.Context, rc RuleContext) (EvaluationResult, error)
}
