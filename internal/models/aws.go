package models

import (
	"encoding/json"
	"time"
)

// MessageType discriminates the kinds of invoking events Config delivers.
type MessageType string

const (
	MessageConfigurationItemChange          MessageType = "ConfigurationItemChangeNotification"
	MessageOversizedConfigurationItemChange MessageType = "OversizedConfigurationItemChangeNotification"
	MessageScheduled                        MessageType = "ScheduledNotification"
)

// Supported reports whether the handler knows how to process mt.
func (mt MessageType) Supported() bool {
	switch mt {
	case MessageConfigurationItemChange, MessageOversizedConfigurationItemChange, MessageScheduled:
		return true
	}
	return false
}

// Configuration item statuses relevant to applicability.
const (
	StatusOK                 = "OK"
	StatusResourceDiscovered = "ResourceDiscovered"
	StatusResourceDeleted    = "ResourceDeleted"
)

// InvokingEvent is the decoded form of the invokingEvent JSON string carried
// by every Config rule invocation. Exactly one of ConfigurationItem and
// ConfigurationItemSummary is set for change notifications; neither is set
// for scheduled notifications.
type InvokingEvent struct {
	MessageType              MessageType               `json:"messageType"`
	NotificationCreationTime time.Time                 `json:"notificationCreationTime"`
	RecordVersion            string                    `json:"recordVersion,omitempty"`
	ConfigurationItem        *ConfigurationItem        `json:"configurationItem,omitempty"`
	ConfigurationItemSummary *ConfigurationItemSummary `json:"configurationItemSummary,omitempty"`
}

// ConfigurationItemSummary is the reduced item Config sends when the full
// configuration item exceeds the invocation payload limit.
type ConfigurationItemSummary struct {
	ResourceType                 string `json:"resourceType"`
	ResourceID                   string `json:"resourceId"`
	ResourceName                 string `json:"resourceName,omitempty"`
	AWSAccountID                 string `json:"awsAccountId,omitempty"`
	ConfigurationItemCaptureTime string `json:"configurationItemCaptureTime"`
	ConfigurationItemStatus      string `json:"configurationItemStatus,omitempty"`
	ChangeType                   string `json:"changeType,omitempty"`
}

// ConfigurationItem is the canonical snapshot of a monitored resource, in the
// shape Config uses inside invoking events. Items fetched through the history
// API are converted into this shape before use.
type ConfigurationItem struct {
	ResourceType                 string            `json:"resourceType"`
	ResourceID                   string            `json:"resourceId"`
	ResourceName                 string            `json:"resourceName,omitempty"`
	AWSAccountID                 string            `json:"awsAccountId"`
	AWSRegion                    string            `json:"awsRegion,omitempty"`
	AvailabilityZone             string            `json:"availabilityZone,omitempty"`
	ARN                          string            `json:"ARN,omitempty"`
	ConfigurationStateMd5Hash    string            `json:"configurationStateMd5Hash,omitempty"`
	ConfigurationItemVersion     string            `json:"configurationItemVersion,omitempty"`
	ConfigurationItemCaptureTime string            `json:"configurationItemCaptureTime"`
	ConfigurationItemStatus      string            `json:"configurationItemStatus"`
	ConfigurationStateID         json.Number       `json:"configurationStateId,omitempty"`
	ResourceCreationTime         string            `json:"resourceCreationTime,omitempty"`
	Configuration                map[string]any    `json:"configuration,omitempty"`
	SupplementaryConfiguration   map[string]any    `json:"supplementaryConfiguration,omitempty"`
	Tags                         map[string]string `json:"tags,omitempty"`
	RelatedEvents                []string          `json:"relatedEvents,omitempty"`
	Relationships                []Relationship    `json:"relationships,omitempty"`
}

// CapturedAt parses ConfigurationItemCaptureTime.
func (ci *ConfigurationItem) CapturedAt() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, ci.ConfigurationItemCaptureTime)
}

// Relationship links a configuration item to a related resource.
type Relationship struct {
	ResourceType string `json:"resourceType,omitempty"`
	ResourceID   string `json:"resourceId,omitempty"`
	ResourceName string `json:"resourceName,omitempty"`
	Name         string `json:"name"`
}
