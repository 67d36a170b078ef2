package repository

import (
	"context"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
)

// AppointmentRepository persists appointments together with the slot ledger
// entries they hold.
type AppointmentRepository interface {
	// Book reserves (DoctorID, SlotDate, SlotTime) and inserts the appointment
	// atomically. It returns entity.ErrSlotTaken when the slot is already held.
	Book(ctx context.Context, a *entity.Appointment) error
	GetByID(ctx context.Context, id string) (*entity.Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*entity.Appointment, error)
	ListAll(ctx context.Context) ([]*entity.Appointment, error)
	// Cancel flips cancelled and releases the slot in one step. It returns
	// ErrStateChanged if the appointment is already terminal.
	Cancel(ctx context.Context, a *entity.Appointment) error
	// Complete flips is_completed; ErrStateChanged if already terminal.
	Complete(ctx context.Context, id string) error
	MarkPaid(ctx context.Context, id string) error
	SetPaymentRef(ctx context.Context, id, provider, ref string) error
}
