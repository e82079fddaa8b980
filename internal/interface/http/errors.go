package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-accounts/internal/application"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
	"github.com/oksasatya/go-ddd-user-accounts/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/response"
)

// statusFor maps an application error onto an HTTP status and client message.
func statusFor(err error) (int, string) {
	var invalid *application.InvalidInputError
	var unknown *application.UnknownActionError
	switch {
	case errors.Is(err, valueobject.ErrInvalidFormat):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &invalid):
		if invalid.Message == application.MsgPasswordNotMatch {
			return http.StatusUnauthorized, invalid.Message
		}
		return http.StatusBadRequest, invalid.Message
	case errors.As(err, &unknown):
		return http.StatusBadRequest, unknown.Error()
	case errors.Is(err, application.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, application.ErrUserAlreadyExists):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError renders err in the response envelope. Unmapped errors are logged.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.CtxRequestIDKey),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	response.Error[any](c, status, msg, nil)
}
