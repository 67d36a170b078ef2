package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/internal/application"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
	"github.com/oksasatya/go-physio-booking/pkg/response"
	"github.com/oksasatya/go-physio-booking/pkg/validation"
)

// statusFor maps the application error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, helpers.ErrTokenInvalid),
		errors.Is(err, helpers.ErrTokenExpired),
		errors.Is(err, helpers.ErrTokenKind),
		errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrUnauthorized),
		errors.Is(err, application.ErrEmailNotVerified):
		return http.StatusForbidden
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrSlotTaken),
		errors.Is(err, application.ErrConflict),
		errors.Is(err, application.ErrDoctorUnavailable),
		errors.Is(err, application.ErrAlreadyCancelled),
		errors.Is(err, application.ErrAlreadyCompleted):
		return http.StatusConflict
	case errors.Is(err, application.ErrVerificationResent):
		return http.StatusGone
	case errors.Is(err, application.ErrTooLateToCancel):
		return http.StatusUnprocessableEntity
	case errors.Is(err, application.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, application.ErrAdapter):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Unexpected errors are logged and
// their text is not sent to the client.
func fail(c *gin.Context, logger *logrus.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"route":      c.FullPath(),
			}).Error("request failed")
		}
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
	}
	response.Error[any](c, status, msg, nil)
}

func badPayload(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

func requestMeta(c *gin.Context) application.RequestMeta {
	ip := c.GetString("real_ip")
	if ip == "" {
		ip = c.ClientIP()
	}
	return application.RequestMeta{IP: ip, UserAgent: c.GetHeader("User-Agent")}
}
