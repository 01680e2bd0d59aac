package responses

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10" // For handling validation errors

	"github.com/DhavalSuthar-24/arena/internal/common"
)

// --- Structs for Standardized JSON Response Bodies ---

// jsonSuccessResponse is the structure for successful responses.
type jsonSuccessResponse struct {
	Status  string      `json:"status"`            // Typically "success"
	Message string      `json:"message,omitempty"` // Optional descriptive message
	Data    interface{} `json:"data,omitempty"`    // The actual data payload
}

// jsonErrorResponse is the structure for error responses.
type jsonErrorResponse struct {
	Status  string      `json:"status"`           // "error" or "fail"
	Message string      `json:"message"`          // Error message
	Code    int         `json:"code"`             // HTTP status code
	Reason  string      `json:"reason,omitempty"` // Machine-readable failure kind
	Errors  interface{} `json:"errors,omitempty"` // Detailed errors, e.g., for validation
}

// --- Public Response Helper Functions ---

// ErrorResponse sends a standardized error JSON response.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	abortWithError(c, statusCode, message, "")
}

func abortWithError(c *gin.Context, statusCode int, message, reason string) {
	statusText := "error"
	if statusCode >= http.StatusInternalServerError {
		statusText = "fail" // Differentiate client errors from server failures
	}
	c.AbortWithStatusJSON(statusCode, jsonErrorResponse{
		Status:  statusText,
		Message: message,
		Code:    statusCode,
		Reason:  reason,
	})
}

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind common.Kind) int {
	switch kind {
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindUnauthenticated:
		return http.StatusUnauthorized
	case common.KindPermission, common.KindBanned:
		return http.StatusForbidden
	case common.KindInvalidState, common.KindCapacity, common.KindAlreadyJoined,
		common.KindNotJoined, common.KindWindowClosed, common.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// DomainErrorResponse writes err with the status of its kind. Errors
// without a kind are reported as an opaque 500.
func DomainErrorResponse(c *gin.Context, err error) {
	var de *common.Error
	if errors.As(err, &de) {
		abortWithError(c, StatusFor(de.Kind), de.Error(), string(de.Kind))
		return
	}
	_ = c.Error(err)
	abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred on the server", "")
}

// formatValidationErrors converts validator.ValidationErrors into a map.
func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	formattedErrors := make(map[string]string)
	for _, err := range errs {
		fieldKey := strings.ToLower(err.Field())
		var errMsg string
		switch err.Tag() {
		case "required":
			errMsg = fmt.Sprintf("The %s field is required.", err.Field())
		case "min", "gte":
			errMsg = fmt.Sprintf("The %s field must be at least %s.", err.Field(), err.Param())
		case "max", "lte":
			errMsg = fmt.Sprintf("The %s field must not exceed %s.", err.Field(), err.Param())
		case "oneof":
			errMsg = fmt.Sprintf("The %s field must be one of the following: %s.", err.Field(), strings.ReplaceAll(err.Param(), " ", ", "))
		case "email":
			errMsg = fmt.Sprintf("The %s field must be a valid email address.", err.Field())
		case "gametype":
			errMsg = fmt.Sprintf("The %s field must be one of: SOLO, DUO, SQUAD.", err.Field())
		case "mapname":
			errMsg = fmt.Sprintf("The %s field must be one of: ERANGEL, MIRAMAR, SANHOK, VIKENDI.", err.Field())
		case "duration":
			errMsg = fmt.Sprintf("The %s field must be a duration such as 2h or 90m.", err.Field())
		default:
			errMsg = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag.", err.Field(), err.Tag())
		}
		formattedErrors[fieldKey] = errMsg
	}
	return formattedErrors
}

// ValidationErrorResponse sends a structured JSON response for validation errors
// originating from `c.ShouldBindJSON()` or similar.
func ValidationErrorResponse(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		c.AbortWithStatusJSON(http.StatusBadRequest, jsonErrorResponse{
			Status:  "error",
			Message: "Validation failed. Please check your input.",
			Code:    http.StatusBadRequest,
			Reason:  string(common.KindValidation),
			Errors:  formatValidationErrors(ve),
		})
		return
	}
	// For other binding errors (e.g., malformed JSON)
	abortWithError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), string(common.KindValidation))
}

// SuccessResponse sends a standardized success JSON response.
// If `data` is `gin.H` and contains a "message" key (string), it's used as the top-level message,
// and the rest of `gin.H` becomes the `data` payload. Otherwise, the whole `data` argument becomes the payload.
func SuccessResponse(c *gin.Context, statusCode int, responseData interface{}) {
	payload := jsonSuccessResponse{
		Status: "success",
	}

	if gh, ok := responseData.(gin.H); ok {
		if msgStr, isStr := gh["message"].(string); isStr {
			payload.Message = msgStr
			dataMap := make(gin.H)
			for k, v := range gh {
				if k != "message" {
					dataMap[k] = v
				}
			}
			if len(dataMap) > 0 {
				payload.Data = dataMap
			}
		} else {
			payload.Data = responseData
		}
	} else if responseData != nil {
		payload.Data = responseData
	}

	c.JSON(statusCode, payload)
}
