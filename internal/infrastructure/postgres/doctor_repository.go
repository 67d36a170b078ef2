package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/internal/domain/repository"
)

// DoctorRepository stores doctors in doctors and their slot ledger in
// doctor_slots. The ledger is read here and written by AppointmentRepository.
type DoctorRepository struct {
	db DB
}

func NewDoctorRepository(db DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

var _ repository.DoctorRepository = (*DoctorRepository)(nil)

const doctorCols = `id, name, email, password_hash, image, speciality, degree, experience, about,
	available, fees, address, created_at, updated_at`

func scanDoctor(row pgx.Row) (*entity.Doctor, error) {
	d := &entity.Doctor{}
	var addr []byte
	if err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Password, &d.Image, &d.Speciality, &d.Degree,
		&d.Experience, &d.About, &d.Available, &d.Fees, &addr, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, notFoundOr(err)
	}
	if err := unmarshalAddress(addr, &d.Address); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DoctorRepository) Create(ctx context.Context, d *entity.Doctor) error {
	addr, err := json.Marshal(d.Address)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO doctors (id, name, email, password_hash, image, speciality, degree, experience,
			about, available, fees, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, d.ID, d.Name, d.Email, d.Password, d.Image, d.Speciality, d.Degree, d.Experience,
		d.About, d.Available, d.Fees, addr, d.CreatedAt, d.UpdatedAt)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *DoctorRepository) GetByID(ctx context.Context, id string) (*entity.Doctor, error) {
	d, err := scanDoctor(r.db.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return d, r.loadLedgers(ctx, []*entity.Doctor{d})
}

func (r *DoctorRepository) GetByEmail(ctx context.Context, email string) (*entity.Doctor, error) {
	d, err := scanDoctor(r.db.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE email = $1`, email))
	if err != nil {
		return nil, err
	}
	return d, r.loadLedgers(ctx, []*entity.Doctor{d})
}

func (r *DoctorRepository) List(ctx context.Context) ([]*entity.Doctor, error) {
	rows, err := r.db.Query(ctx, `SELECT `+doctorCols+` FROM doctors ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*entity.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.loadLedgers(ctx, out)
}

// loadLedgers fills SlotsBooked for ds with one query.
func (r *DoctorRepository) loadLedgers(ctx context.Context, ds []*entity.Doctor) error {
	if len(ds) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Doctor, len(ds))
	ids := make([]string, 0, len(ds))
	for _, d := range ds {
		d.SlotsBooked = entity.SlotLedger{}
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}
	rows, err := r.db.Query(ctx, `
		SELECT doctor_id, slot_date, slot_time FROM doctor_slots
		WHERE doctor_id = ANY($1::uuid[])
		ORDER BY doctor_id, slot_date, slot_time
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var docID, date, clock string
		if err := rows.Scan(&docID, &date, &clock); err != nil {
			return err
		}
		if d, ok := byID[docID]; ok {
			_ = d.SlotsBooked.Reserve(date, clock)
		}
	}
	return rows.Err()
}

// Update writes profile fields only; SlotsBooked is ignored.
func (r *DoctorRepository) Update(ctx context.Context, d *entity.Doctor) error {
	addr, err := json.Marshal(d.Address)
	if err != nil {
		return err
	}
	res, err := r.db.Exec(ctx, `
		UPDATE doctors
		SET name = $1, email = $2, password_hash = $3, image = $4, speciality = $5, degree = $6,
			experience = $7, about = $8, available = $9, fees = $10, address = $11, updated_at = NOW()
		WHERE id = $12
	`, d.Name, d.Email, d.Password, d.Image, d.Speciality, d.Degree, d.Experience, d.About,
		d.Available, d.Fees, addr, d.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *DoctorRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	res, err := r.db.Exec(ctx, `UPDATE doctors SET available = $1, updated_at = NOW() WHERE id = $2`, available, id)
	if err != nil {
		return notFoundOr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
