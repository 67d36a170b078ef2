package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	repo "github.com/oksasatya/go-physio-booking/internal/domain/repository"
	"github.com/oksasatya/go-physio-booking/pkg/metrics"
)

var bookingTracer = otel.Tracer("physio.internal.application.booking")

// BookingService owns the appointment state machine: booking reserves a
// slot, cancellation releases it, completion and payment only flip flags.
type BookingService struct {
	Users        repo.UserRepository
	Doctors      repo.DoctorRepository
	Appointments repo.AppointmentRepository
	Notify       *Notifications
	Metrics      *metrics.BookingMetrics
	Logger       *logrus.Logger

	// Location interprets slot dates and times; CancelCutoff is how long
	// before the slot a patient may still cancel.
	Location     *time.Location
	CancelCutoff time.Duration

	Now func() time.Time
}

func NewBookingService(users repo.UserRepository, doctors repo.DoctorRepository, appts repo.AppointmentRepository, notify *Notifications, m *metrics.BookingMetrics, logger *logrus.Logger, loc *time.Location, cutoff time.Duration) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		Users:        users,
		Doctors:      doctors,
		Appointments: appts,
		Notify:       notify,
		Metrics:      m,
		Logger:       logger,
		Location:     loc,
		CancelCutoff: cutoff,
		Now:          time.Now,
	}
}

type BookInput struct {
	UserID   string
	DoctorID string
	SlotDate string
	SlotTime string
}

func (s *BookingService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Book reserves the slot and records the appointment. Checks run in order:
// input format, doctor exists, doctor available, slot free, user exists.
// The final reservation is atomic, so a concurrent winner still yields ErrSlotTaken.
func (s *BookingService) Book(ctx context.Context, in BookInput) (a *entity.Appointment, err error) {
	ctx, span := bookingTracer.Start(ctx, "booking.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("physio.doctor_id", in.DoctorID),
		attribute.String("physio.slot_date", in.SlotDate),
		attribute.String("physio.slot_time", in.SlotTime),
	)
	defer func() { s.Metrics.ObserveBooking(metrics.Result(err, errorCode(err))) }()

	if in.UserID == "" || in.DoctorID == "" {
		return nil, validationf("user and doctor are required")
	}
	if !entity.ValidSlotDate(in.SlotDate) {
		return nil, validationf("invalid slot date %q", in.SlotDate)
	}
	if !entity.ValidSlotTime(in.SlotTime) {
		return nil, validationf("invalid slot time %q", in.SlotTime)
	}

	doc, err := s.Doctors.GetByID(ctx, in.DoctorID)
	if err != nil {
		return nil, lookupErr("doctor", err)
	}
	if !doc.Available {
		return nil, ErrDoctorUnavailable
	}
	if !doc.SlotsBooked.IsAvailable(in.SlotDate, in.SlotTime) {
		return nil, ErrSlotTaken
	}
	user, err := s.Users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, lookupErr("user", err)
	}

	a = &entity.Appointment{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		DoctorID: doc.ID,
		UserData: user.Snapshot(),
		DocData:  doc.Snapshot(),
		SlotDate: in.SlotDate,
		SlotTime: in.SlotTime,
		Amount:   doc.Fees,
		BookedAt: s.now().UTC(),
	}
	if err := s.Appointments.Book(ctx, a); err != nil {
		if errors.Is(err, entity.ErrSlotTaken) {
			return nil, ErrSlotTaken
		}
		if errors.Is(err, repo.ErrNotFound) {
			// user or doctor row went away after it was loaded
			return nil, lookupErr("user or doctor", err)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("book appointment: %w", err)
	}
	span.SetAttributes(attribute.String("physio.appointment_id", a.ID))

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"appointment_id": a.ID,
			"doctor_id":      a.DoctorID,
			"user_id":        a.UserID,
			"slot":           a.SlotDate + " " + a.SlotTime,
		}).Info("appointment booked")
	}
	s.Notify.AppointmentBooked(ctx, a)
	return a, nil
}

// Cancel marks the appointment cancelled and frees its slot.
// Patients may cancel their own appointments until CancelCutoff before the
// slot; doctors may cancel their own at any time; admins may cancel any.
func (s *BookingService) Cancel(ctx context.Context, appointmentID string, by entity.Principal) (err error) {
	ctx, span := bookingTracer.Start(ctx, "booking.cancel")
	defer span.End()
	span.SetAttributes(
		attribute.String("physio.appointment_id", appointmentID),
		attribute.String("physio.actor", string(by.Kind)),
	)
	defer func() { s.Metrics.ObserveCancellation(string(by.Kind), metrics.Result(err, errorCode(err))) }()

	a, err := s.load(ctx, appointmentID)
	if err != nil {
		return err
	}
	switch by.Kind {
	case entity.KindPatient:
		if a.UserID != by.ID {
			return ErrUnauthorized
		}
	case entity.KindDoctor:
		if a.DoctorID != by.ID {
			return ErrUnauthorized
		}
	case entity.KindAdmin:
	default:
		return ErrUnauthorized
	}
	if err := terminalErr(a); err != nil {
		return err
	}
	if by.Kind == entity.KindPatient {
		if err := s.checkCutoff(a); err != nil {
			return err
		}
	}

	if err := s.Appointments.Cancel(ctx, a); err != nil {
		return s.stateErr(ctx, span, a.ID, "cancel appointment", err)
	}
	a.Cancelled = true

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"appointment_id": a.ID,
			"doctor_id":      a.DoctorID,
			"by":             by.Kind,
		}).Info("appointment cancelled")
	}
	s.Notify.AppointmentCancelled(ctx, a, by.Kind)
	return nil
}

// Complete marks an appointment as attended. Only the appointment's doctor
// or an admin may complete it.
func (s *BookingService) Complete(ctx context.Context, appointmentID string, by entity.Principal) (err error) {
	ctx, span := bookingTracer.Start(ctx, "booking.complete")
	defer span.End()
	span.SetAttributes(attribute.String("physio.appointment_id", appointmentID))
	defer func() { s.Metrics.ObserveCompletion(metrics.Result(err, errorCode(err))) }()

	a, err := s.load(ctx, appointmentID)
	if err != nil {
		return err
	}
	switch by.Kind {
	case entity.KindDoctor:
		if a.DoctorID != by.ID {
			return ErrUnauthorized
		}
	case entity.KindAdmin:
	default:
		return ErrUnauthorized
	}
	if err := terminalErr(a); err != nil {
		return err
	}
	if err := s.Appointments.Complete(ctx, a.ID); err != nil {
		return s.stateErr(ctx, span, a.ID, "complete appointment", err)
	}
	if s.Logger != nil {
		s.Logger.WithField("appointment_id", a.ID).Info("appointment completed")
	}
	return nil
}

// ListForUser returns a patient's appointments, newest first.
func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]*entity.Appointment, error) {
	return s.Appointments.ListByUser(ctx, userID)
}

// ListForDoctor returns a doctor's appointments, newest first.
func (s *BookingService) ListForDoctor(ctx context.Context, doctorID string) ([]*entity.Appointment, error) {
	return s.Appointments.ListByDoctor(ctx, doctorID)
}

// ListAll returns every appointment, newest first.
func (s *BookingService) ListAll(ctx context.Context) ([]*entity.Appointment, error) {
	return s.Appointments.ListAll(ctx)
}

func (s *BookingService) load(ctx context.Context, id string) (*entity.Appointment, error) {
	if id == "" {
		return nil, validationf("appointment id is required")
	}
	a, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("appointment", err)
	}
	return a, nil
}

func (s *BookingService) checkCutoff(a *entity.Appointment) error {
	at, err := entity.SlotDateTime(a.SlotDate, a.SlotTime, s.Location)
	if err != nil {
		// stored slots were validated at booking; treat garbage as past
		return ErrTooLateToCancel
	}
	if !s.now().Before(at.Add(-s.CancelCutoff)) {
		return fmt.Errorf("%w: appointments can only be cancelled at least %s in advance", ErrTooLateToCancel, cutoffText(s.CancelCutoff))
	}
	return nil
}

func cutoffText(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d > 0 && d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int64(d/time.Hour))
	case d > 0 && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int64(d/time.Minute))
	default:
		return d.String()
	}
}

// stateErr re-reads the appointment after a lost conditional update so the
// caller learns which terminal state won.
func (s *BookingService) stateErr(ctx context.Context, span trace.Span, id, op string, err error) error {
	if !errors.Is(err, repo.ErrStateChanged) {
		span.RecordError(err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if cur, gerr := s.Appointments.GetByID(ctx, id); gerr == nil {
		if terr := terminalErr(cur); terr != nil {
			return terr
		}
	}
	return ErrConflict
}

func terminalErr(a *entity.Appointment) error {
	switch {
	case a.Cancelled:
		return ErrAlreadyCancelled
	case a.IsCompleted:
		return ErrAlreadyCompleted
	}
	return nil
}

func lookupErr(what string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return notFound(what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// errorCode gives a stable metrics label for the taxonomy errors.
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrDoctorUnavailable):
		return "doctor_unavailable"
	case errors.Is(err, ErrAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, ErrTooLateToCancel):
		return "too_late"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrPaymentFailed):
		return "payment_failed"
	case errors.Is(err, ErrAdapter):
		return "adapter"
	}
	return "error"
}
