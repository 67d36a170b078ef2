package application

import (
	"errors"
	"fmt"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("not authorized")
	ErrConflict          = errors.New("conflict")
	ErrSlotTaken         = entity.ErrSlotTaken
	ErrDoctorUnavailable = errors.New("doctor not available")
	ErrAlreadyCancelled  = errors.New("appointment already cancelled")
	ErrAlreadyCompleted  = errors.New("appointment already completed")
	ErrTooLateToCancel   = errors.New("too late to cancel")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrAdapter           = errors.New("upstream provider error")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("please verify your email before logging in")
	ErrVerificationResent = errors.New("verification link expired, a new verification email has been sent")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}
