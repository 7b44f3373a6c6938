package response

import (
	"vidtube/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

type APIError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func Success(c *gin.Context, status int, data interface{}, message string) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// Error writes err as a failure envelope and returns the structured form so
// callers can log internal causes.
func Error(c *gin.Context, err error) *apperror.Error {
	appErr := apperror.As(err)
	status := appErr.HTTPStatus()
	c.JSON(status, APIError{
		StatusCode: status,
		Message:    appErr.Message,
		Success:    false,
		Errors:     []string{},
	})
	return appErr
}

// Abort is Error for middleware: it also stops the handler chain.
func Abort(c *gin.Context, err error) *apperror.Error {
	appErr := Error(c, err)
	c.Abort()
	return appErr
}
