package models

import "time"

// ComplianceType is the verdict attached to a resource for a given rule.
type ComplianceType string

const (
	ComplianceCompliant     ComplianceType = "COMPLIANT"
	ComplianceNonCompliant  ComplianceType = "NON_COMPLIANT"
	ComplianceNotApplicable ComplianceType = "NOT_APPLICABLE"
)

// ResourceType identifies the kind of resource an evaluation refers to, using
// the AWS Config resource type notation.
type ResourceType string

const (
	// ResourceAWSAccount is the pseudo resource type Config uses for
	// account-level evaluations.
	ResourceAWSAccount ResourceType = "AWS::::Account"
)

// EvaluationRecord is a single verdict reported to AWS Config.
// It is the atomic output unit of the rule engine. The four non-annotation
// fields are required; records missing any of them are never submitted.
type EvaluationRecord struct {
	ComplianceResourceType ResourceType   `json:"ComplianceResourceType" yaml:"compliance_resource_type" validate:"required"`
	ComplianceResourceID   string         `json:"ComplianceResourceId"   yaml:"compliance_resource_id"   validate:"required"`
	ComplianceType         ComplianceType `json:"ComplianceType"         yaml:"compliance_type"          validate:"required,oneof=COMPLIANT NON_COMPLIANT NOT_APPLICABLE"`
	OrderingTimestamp      time.Time      `json:"OrderingTimestamp"      yaml:"ordering_timestamp"       validate:"required"`
	Annotation             string         `json:"Annotation,omitempty"   yaml:"annotation,omitempty"`
}

// EvaluationBatch is the ordered set of records submitted in one
// PutEvaluations call.
type EvaluationBatch []EvaluationRecord

// ResourceIDs returns the set of resource IDs present in the batch.
func (b EvaluationBatch) ResourceIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(b))
	for _, r := range b {
		ids[r.ComplianceResourceID] = struct{}{}
	}
	return ids
}

// ErrorResponse is the structured failure envelope returned to the Config
// runtime in place of an evaluation batch. Internal fields carry diagnostics
// for operators; customer fields are the only ones surfaced to the account
// owner.
type ErrorResponse struct {
	InternalErrorMessage string `json:"internalErrorMessage" yaml:"internal_error_message"`
	InternalErrorDetails string `json:"internalErrorDetails" yaml:"internal_error_details"`
	CustomerErrorCode    string `json:"customerErrorCode"    yaml:"customer_error_code"`
	CustomerErrorMessage string `json:"customerErrorMessage" yaml:"customer_error_message"`
}
