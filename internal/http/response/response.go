package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examiner-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError derives status and code from the error chain.
func RespondServiceError(c *gin.Context, err error) {
	api := apierr.FromError(err)
	if api == nil {
		api = apierr.New(http.StatusInternalServerError, "internal_error", nil)
	} else {
		_ = c.Error(err)
	}
	RespondError(c, api.Status, api.Code, api)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
