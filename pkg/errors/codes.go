package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeExternalService    ErrorCode = "COMMON_012"
	ErrCodeNotImplemented     ErrorCode = "COMMON_013"
)

// Molecule ingestion error codes.
const (
	ErrCodeInvalidSMILES       ErrorCode = "MOL_001"
	ErrCodeNoValidMolecules    ErrorCode = "MOL_002"
	ErrCodeTooManyMolecules    ErrorCode = "MOL_003"
	ErrCodeUnparsableStructure ErrorCode = "MOL_004"
	ErrCodeDescriptorFailed    ErrorCode = "MOL_005"
)

// Reference (DrugBank) error codes.
const (
	ErrCodeUnknownATCCode        ErrorCode = "REF_001"
	ErrCodeInsufficientReference ErrorCode = "REF_002"
	ErrCodeUnknownProperty       ErrorCode = "REF_003"
	ErrCodeReferenceLoadFailed   ErrorCode = "REF_004"
)

// Prediction store error codes.
const (
	ErrCodePredictionsNotFound ErrorCode = "STORE_001"
	ErrCodeStoreUnavailable    ErrorCode = "STORE_002"
)

// Model inference error codes.
const (
	ErrCodeModelNotLoaded    ErrorCode = "MODEL_001"
	ErrCodeInferenceFailed   ErrorCode = "MODEL_002"
	ErrCodeModelMetadataBad  ErrorCode = "MODEL_003"
	ErrCodeArtifactFetchFail ErrorCode = "MODEL_004"
)

// Render error codes.
const (
	ErrCodeRenderFailed ErrorCode = "PLOT_001"
)

// Aliases used by the generic factory functions.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeInvalidSMILES:       http.StatusBadRequest,
	ErrCodeNoValidMolecules:    http.StatusBadRequest,
	ErrCodeTooManyMolecules:    http.StatusBadRequest,
	ErrCodeUnparsableStructure: http.StatusBadRequest,
	ErrCodeDescriptorFailed:    http.StatusInternalServerError,

	ErrCodeUnknownATCCode:        http.StatusBadRequest,
	ErrCodeInsufficientReference: http.StatusUnprocessableEntity,
	ErrCodeUnknownProperty:       http.StatusBadRequest,
	ErrCodeReferenceLoadFailed:   http.StatusInternalServerError,

	ErrCodePredictionsNotFound: http.StatusNotFound,
	ErrCodeStoreUnavailable:    http.StatusServiceUnavailable,

	ErrCodeModelNotLoaded:    http.StatusServiceUnavailable,
	ErrCodeInferenceFailed:   http.StatusInternalServerError,
	ErrCodeModelMetadataBad:  http.StatusInternalServerError,
	ErrCodeArtifactFetchFail: http.StatusInternalServerError,

	ErrCodeRenderFailed: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeInvalidSMILES:       "invalid SMILES string",
	ErrCodeNoValidMolecules:    "no valid SMILES strings given",
	ErrCodeTooManyMolecules:    "received too many molecules",
	ErrCodeUnparsableStructure: "unparsable molecular structure",
	ErrCodeDescriptorFailed:    "descriptor computation failed",

	ErrCodeUnknownATCCode:        "unknown ATC code",
	ErrCodeInsufficientReference: "insufficient reference data",
	ErrCodeUnknownProperty:       "unknown property",
	ErrCodeReferenceLoadFailed:   "failed to load reference dataset",

	ErrCodePredictionsNotFound: "no stored predictions for user",
	ErrCodeStoreUnavailable:    "prediction store unavailable",

	ErrCodeModelNotLoaded:    "ADMET model not loaded",
	ErrCodeInferenceFailed:   "ADMET model inference failed",
	ErrCodeModelMetadataBad:  "invalid model metadata",
	ErrCodeArtifactFetchFail: "failed to fetch model artifact",

	ErrCodeRenderFailed: "plot rendering failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
