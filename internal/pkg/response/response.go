package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
	"github.com/mx-space/pagebuilder/internal/pkg/result"
)

// StatusOf maps an error code to its HTTP status.
func StatusOf(err error) int {
	switch apperr.CodeOf(err) {
	case "":
		return http.StatusOK
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeCircularReference:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// OK sends data as {success: true, data} with 200, or err as a failure result.
func OK[T any](c *gin.Context, data T, err error) {
	send(c, http.StatusOK, data, err)
}

// Created sends a 201 response.
func Created[T any](c *gin.Context, data T, err error) {
	send(c, http.StatusCreated, data, err)
}

// NoContent sends a 204 response, or err as a failure result.
func NoContent(c *gin.Context, err error) {
	if err != nil {
		Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Error sends err as {success: false, error} with the mapped status.
func Error(c *gin.Context, err error) {
	c.AbortWithStatusJSON(StatusOf(err), result.Fail[any](err))
}

// BadRequest sends a binding or validation failure as VALIDATION_ERROR.
func BadRequest(c *gin.Context, err error) {
	Error(c, apperr.FromValidation(err))
}

// NotFound sends a 404 result.
func NotFound(c *gin.Context) {
	Error(c, apperr.NotFound("Not Found"))
}

func send[T any](c *gin.Context, status int, data T, err error) {
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(status, result.Ok(data))
}
