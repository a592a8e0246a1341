package evalerr

import (
	"errors"
	"strings"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/models"
)

// IsInternalCode reports whether an AWS error code denotes a service-side
// failure: no code at all, a 5xx code, or a code naming an internal or
// service error.
func IsInternalCode(code string) bool {
	return code == "" ||
		strings.HasPrefix(code, "5") ||
		strings.Contains(code, "InternalError") ||
		strings.Contains(code, "ServiceError")
}

// Classify maps a failure from client setup, resolution, evaluation,
// reconciliation or submission onto the taxonomy.
//
//   - Errors already in the taxonomy are returned unchanged.
//   - AWS API errors become *CustomerServiceError, unless their code is
//     internal (IsInternalCode) or the HTTP status is 5xx, in which case they
//     become *InternalServiceError.
//   - Anything else becomes *InternalServiceError.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var (
		customer   *CustomerServiceError
		internal   *InternalServiceError
		param      ParameterError
		missing    *MissingFieldError
		unexpected *UnexpectedMessageTypeError
	)
	switch {
	case errors.As(err, &customer):
		return customer
	case errors.As(err, &internal):
		return internal
	case errors.As(err, &param):
		return param
	case errors.As(err, &missing):
		return missing
	case errors.As(err, &unexpected):
		return unexpected
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return &InternalServiceError{Err: err}
	}

	code := apiErr.ErrorCode()
	if IsInternalCode(code) || isServerFault(err) {
		return &InternalServiceError{Code: code, Message: apiErr.ErrorMessage(), Err: err}
	}
	return &CustomerServiceError{Code: code, Message: apiErr.ErrorMessage(), Err: err}
}

// isServerFault reports whether err carries an HTTP response with a 5xx
// status.
func isServerFault(err error) bool {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() >= 500
	}
	return false
}

// ScrubAssumeRoleError rewrites an sts:AssumeRole failure so that nothing
// from the provider's message reaches the customer. Access denial keeps its
// code with a fixed message; every other failure becomes a generic
// InternalError.
func ScrubAssumeRoleError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && strings.Contains(apiErr.ErrorCode(), "AccessDenied") {
		return &CustomerServiceError{
			Code:    apiErr.ErrorCode(),
			Message: MessageAssumeRoleDenied,
			Err:     err,
		}
	}
	return &InternalServiceError{
		Code:    CodeInternalError,
		Message: MessageInternalError,
		Err:     err,
	}
}

// Response renders err as the error envelope returned to the Config runtime.
func Response(err error) models.ErrorResponse {
	err = Classify(err)

	var (
		param      ParameterError
		unexpected *UnexpectedMessageTypeError
		internal   *InternalServiceError
		customer   *CustomerServiceError
	)
	switch {
	case errors.As(err, &param):
		return models.ErrorResponse{
			InternalErrorMessage: "Parameter value is invalid",
			InternalErrorDetails: "An ValueError was raised during the validation of the Parameter value",
			CustomerErrorCode:    CodeInvalidParameterValue,
			CustomerErrorMessage: param.Error(),
		}
	case errors.As(err, &unexpected):
		return internalResponse("Unexpected message type", unexpected.InvokingEvent)
	case errors.As(err, &customer):
		return models.ErrorResponse{
			InternalErrorMessage: "Customer error while making API request",
			InternalErrorDetails: customer.Error(),
			CustomerErrorCode:    customer.Code,
			CustomerErrorMessage: customer.Message,
		}
	case errors.As(err, &internal):
		if internal.Code == "" && internal.Message == "" {
			// Not an AWS API error at all.
			return internalResponse(internal.Error(), internal.Error())
		}
		return internalResponse("Unexpected error while completing API request", internal.Error())
	default:
		return internalResponse(err.Error(), err.Error())
	}
}

// IsCustomer reports whether err renders as a customer error.
func IsCustomer(err error) bool {
	err = Classify(err)
	var (
		param    ParameterError
		customer *CustomerServiceError
	)
	return errors.As(err, &param) || errors.As(err, &customer)
}

func internalResponse(message, details string) models.ErrorResponse {
	return models.ErrorResponse{
		InternalErrorMessage: message,
		InternalErrorDetails: details,
		CustomerErrorCode:    CodeInternalError,
		CustomerErrorMessage: MessageInternalError,
	}
}
