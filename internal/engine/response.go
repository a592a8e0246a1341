package engine

import (
	"encoding/json"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
)

// Stage names a step of one invocation. The last stage reached is reported
// with the response.
type Stage string

const (
	StageValidatingParameters Stage = "validating-parameters"
	StageResolvingItem        Stage = "resolving-item"
	StageEvaluating           Stage = "evaluating"
	StageBuildingResponse     Stage = "building-response"
	StageSubmitting           Stage = "submitting"
	StageDone                 Stage = "done"
	StageCustomerError        Stage = "customer-error"
	StageInternalError        Stage = "internal-error"
)

// Failed reports whether s is an error terminal.
func (s Stage) Failed() bool {
	return s == StageCustomerError || s == StageInternalError
}

// Response is the outcome of one invocation: either the evaluations that
// were submitted or the error envelope, never both.
type Response struct {
	Evaluations models.EvaluationBatch
	Error       *models.ErrorResponse

	// Stage is StageDone on success, otherwise the error terminal.
	Stage Stage

	// FailedAt is the stage during which the error occurred.
	FailedAt Stage
}

// MarshalJSON renders the response the way the Config runtime expects it:
// the evaluation array on success, the error object otherwise.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(r.Error)
	}
	if r.Evaluations == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Evaluations)
}
