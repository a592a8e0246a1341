// Package evalerr defines the error taxonomy of the Config rule handler and
// the classifier that turns any failure into a models.ErrorResponse.
//
// Parameter errors are always customer errors. Errors reported by an AWS
// service are split into customer and internal errors by their error code;
// everything else is internal. Internal diagnostics are only ever placed in
// the internal fields of the response.
package evalerr

import "fmt"

// Customer-facing codes and messages.
const (
	CodeInvalidParameterValue = "InvalidParameterValueException"
	CodeInternalError         = "InternalError"

	// MessageInternalError is the opaque text shown to the customer for any
	// internal failure.
	MessageInternalError = "InternalError"

	// MessageAssumeRoleDenied replaces the service message when Config is
	// not allowed to assume the execution role. The original message can
	// carry role ARNs and account numbers.
	MessageAssumeRoleDenied = "AWS Config does not have permission to assume the IAM role."
)

// ParameterError is implemented by every rule-parameter validation failure.
type ParameterError interface {
	error
	parameterError()
}

// MissingParameterError reports a mandatory rule parameter that is absent.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("The parameter %q must be configured.", e.Name)
}

func (e *MissingParameterError) parameterError() {}

// InvalidBooleanLiteralError reports a parameter string that is not one of
// the accepted boolean spellings.
type InvalidBooleanLiteralError struct {
	Value string
}

func (e *InvalidBooleanLiteralError) Error() string {
	return "Invalid value for boolean conversion: " + e.Value
}

func (e *InvalidBooleanLiteralError) parameterError() {}

// InvalidParameterJSONError reports a ruleParameters payload that is not a
// JSON object.
type InvalidParameterJSONError struct {
	Err error
}

func (e *InvalidParameterJSONError) Error() string {
	return fmt.Sprintf("The rule parameters must be a JSON object: %v", e.Err)
}

func (e *InvalidParameterJSONError) Unwrap() error { return e.Err }

func (e *InvalidParameterJSONError) parameterError() {}

// MissingFieldError reports a required field absent from the invocation.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Error: %s is not defined", e.Field)
}

// UnexpectedMessageTypeError reports an invoking event whose messageType the
// handler does not process. InvokingEvent holds the raw event for operators.
type UnexpectedMessageTypeError struct {
	MessageType   string
	InvokingEvent string
}

func (e *UnexpectedMessageTypeError) Error() string {
	return fmt.Sprintf("unexpected message type %q", e.MessageType)
}

// CustomerServiceError is an AWS service error caused by the customer's
// configuration, e.g. a missing permission. Its code and message are safe to
// show to the customer.
type CustomerServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *CustomerServiceError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CustomerServiceError) Unwrap() error { return e.Err }

// InternalServiceError is a service-side or unclassifiable failure. Only its
// wrapped error text reaches the internal fields of a response.
type InternalServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *InternalServiceError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalServiceError) Unwrap() error { return e.Err }
