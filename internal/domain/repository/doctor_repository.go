package repository

import (
	"context"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
)

// DoctorRepository persists doctors. GetByID loads the slot ledger; the
// ledger itself is only written through AppointmentRepository.
type DoctorRepository interface {
	Create(ctx context.Context, d *entity.Doctor) error
	GetByID(ctx context.Context, id string) (*entity.Doctor, error)
	GetByEmail(ctx context.Context, email string) (*entity.Doctor, error)
	List(ctx context.Context) ([]*entity.Doctor, error)
	Update(ctx context.Context, d *entity.Doctor) error
	SetAvailability(ctx context.Context, id string, available bool) error
}
