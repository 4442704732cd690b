package utils

import (
	"errors"
	"net/http"

	"github.com/dododo1295/studyroute/model"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Response struct {
	Status  int         `json:"-"`                 // HTTP status code
	Message string      `json:"message,omitempty"` // Optional message
	Error   string      `json:"error,omitempty"`   // Error message
	Data    interface{} `json:"data,omitempty"`    // Response data
}

// Success responses
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Status: http.StatusOK,
		Data:   data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, &Response{
		Status:  http.StatusCreated,
		Message: "Resource created successfully",
		Data:    data,
	})
}

// Error responses
func errorJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, &Response{
		Status: status,
		Error:  message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	errorJSON(c, http.StatusUnauthorized, message)
}

func BadRequest(c *gin.Context, message string) {
	errorJSON(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	errorJSON(c, http.StatusNotFound, message)
}

func Forbidden(c *gin.Context, message string) {
	errorJSON(c, http.StatusForbidden, message)
}

func InternalError(c *gin.Context, message string) {
	errorJSON(c, http.StatusInternalServerError, message)
}

func BadGateway(c *gin.Context, message string) {
	errorJSON(c, http.StatusBadGateway, message)
}

// StatusFor maps a domain error onto the HTTP status the API reports for it.
func StatusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrRouteNotFound),
		errors.Is(err, model.ErrActivityNotFound),
		errors.Is(err, model.ErrNoteNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrNotAuthenticated),
		errors.Is(err, model.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrDuplicateUser),
		errors.Is(err, model.ErrDuplicateRoute),
		errors.Is(err, model.ErrInvalidPatch),
		errors.Is(err, model.ErrInvalidInput),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrPersistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err using StatusFor. Server side failures are logged and
// replaced by a generic message so store details never reach the client.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	switch status {
	case http.StatusBadGateway:
		TrackError("persistence")
		Logger().Error("store failure", zap.String("path", c.FullPath()), zap.Error(err))
		BadGateway(c, "storage unavailable, try again later")
	case http.StatusInternalServerError:
		TrackError("internal")
		Logger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		InternalError(c, "internal server error")
	default:
		errorJSON(c, status, err.Error())
	}
}
