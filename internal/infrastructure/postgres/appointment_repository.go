package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/internal/domain/repository"
)

// AppointmentRepository keeps appointments and doctor_slots consistent: every
// non-cancelled appointment holds exactly one doctor_slots row.
type AppointmentRepository struct {
	db DB
}

func NewAppointmentRepository(db DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)

const appointmentCols = `id, user_id, doctor_id, user_data, doc_data, slot_date, slot_time, amount,
	booked_at, cancelled, is_completed, payment, payment_provider, payment_ref`

const foreignKeyViolation = "23503"

func scanAppointment(row pgx.Row) (*entity.Appointment, error) {
	a := &entity.Appointment{}
	var userData, docData []byte
	if err := row.Scan(&a.ID, &a.UserID, &a.DoctorID, &userData, &docData, &a.SlotDate, &a.SlotTime,
		&a.Amount, &a.BookedAt, &a.Cancelled, &a.IsCompleted, &a.Payment, &a.PaymentProvider, &a.PaymentRef); err != nil {
		return nil, notFoundOr(err)
	}
	if err := json.Unmarshal(userData, &a.UserData); err != nil {
		return nil, fmt.Errorf("decode user_data: %w", err)
	}
	if err := json.Unmarshal(docData, &a.DocData); err != nil {
		return nil, fmt.Errorf("decode doc_data: %w", err)
	}
	return a, nil
}

// Book inserts the appointment and claims its slot in one transaction. The
// doctor_slots primary key decides between concurrent bookings.
func (r *AppointmentRepository) Book(ctx context.Context, a *entity.Appointment) error {
	userData, err := json.Marshal(a.UserData)
	if err != nil {
		return err
	}
	docData, err := json.Marshal(a.DocData)
	if err != nil {
		return err
	}
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (id, user_id, doctor_id, user_data, doc_data, slot_date, slot_time,
				amount, booked_at, cancelled, is_completed, payment)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, FALSE, FALSE)
		`, a.ID, a.UserID, a.DoctorID, userData, docData, a.SlotDate, a.SlotTime, a.Amount, a.BookedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
				return repository.ErrNotFound
			}
			return notFoundOr(err)
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO doctor_slots (doctor_id, slot_date, slot_time, appointment_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (doctor_id, slot_date, slot_time) DO NOTHING
		`, a.DoctorID, a.SlotDate, a.SlotTime, a.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return entity.ErrSlotTaken
		}
		return nil
	})
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*entity.Appointment, error) {
	return scanAppointment(r.db.QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

func (r *AppointmentRepository) list(ctx context.Context, where string, args ...any) ([]*entity.Appointment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+appointmentCols+` FROM appointments `+where+` ORDER BY booked_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*entity.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AppointmentRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Appointment, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*entity.Appointment, error) {
	return r.list(ctx, `WHERE doctor_id = $1`, doctorID)
}

func (r *AppointmentRepository) ListAll(ctx context.Context) ([]*entity.Appointment, error) {
	return r.list(ctx, ``)
}

// Cancel flips cancelled only while the appointment is still open, then
// releases the slot it held.
func (r *AppointmentRepository) Cancel(ctx context.Context, a *entity.Appointment) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		var doctorID, date, clock string
		err := tx.QueryRow(ctx, `
			UPDATE appointments SET cancelled = TRUE
			WHERE id = $1 AND NOT cancelled AND NOT is_completed
			RETURNING doctor_id, slot_date, slot_time
		`, a.ID).Scan(&doctorID, &date, &clock)
		if errors.Is(err, pgx.ErrNoRows) {
			return r.guardFailed(ctx, tx, a.ID)
		}
		if err != nil {
			return notFoundOr(err)
		}
		_, err = tx.Exec(ctx, `
			DELETE FROM doctor_slots
			WHERE doctor_id = $1 AND slot_date = $2 AND slot_time = $3 AND appointment_id = $4
		`, doctorID, date, clock, a.ID)
		return err
	})
}

func (r *AppointmentRepository) Complete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments SET is_completed = TRUE
		WHERE id = $1 AND NOT cancelled AND NOT is_completed
	`, id)
	if err != nil {
		return notFoundOr(err)
	}
	if tag.RowsAffected() == 0 {
		return r.guardFailed(ctx, r.db, id)
	}
	return nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// guardFailed tells a missing appointment apart from one that is already terminal.
func (r *AppointmentRepository) guardFailed(ctx context.Context, q rowQuerier, id string) error {
	var one int
	err := q.QueryRow(ctx, `SELECT 1 FROM appointments WHERE id = $1`, id).Scan(&one)
	if err != nil {
		return notFoundOr(err)
	}
	return repository.ErrStateChanged
}

func (r *AppointmentRepository) MarkPaid(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE appointments SET payment = TRUE WHERE id = $1`, id)
}

func (r *AppointmentRepository) SetPaymentRef(ctx context.Context, id, provider, ref string) error {
	return r.exec(ctx, `UPDATE appointments SET payment_provider = $2, payment_ref = $3 WHERE id = $1`, id, provider, ref)
}

func (r *AppointmentRepository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return notFoundOr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
