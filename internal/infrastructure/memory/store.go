package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/internal/domain/repository"
)

// Store keeps every aggregate in process behind one mutex, so a booking's
// ledger reservation and appointment insert are atomic like the SQL
// transaction in the postgres package. Used by tests and DB_DRIVER=memory.
type Store struct {
	mu           sync.Mutex
	users        map[string]entity.User
	doctors      map[string]entity.Doctor
	appointments map[string]entity.Appointment
	audit        []repository.AuditEntry
}

func NewStore() *Store {
	return &Store{
		users:        map[string]entity.User{},
		doctors:      map[string]entity.Doctor{},
		appointments: map[string]entity.Appointment{},
	}
}

func (s *Store) Users() *UserRepository               { return &UserRepository{s: s} }
func (s *Store) Doctors() *DoctorRepository           { return &DoctorRepository{s: s} }
func (s *Store) Appointments() *AppointmentRepository { return &AppointmentRepository{s: s} }
func (s *Store) Audit() *AuditRepository              { return &AuditRepository{s: s} }

// UserRepository implements repository.UserRepository.
type UserRepository struct{ s *Store }

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if x.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) Count(context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users), nil
}

// DoctorRepository implements repository.DoctorRepository.
type DoctorRepository struct{ s *Store }

var _ repository.DoctorRepository = (*DoctorRepository)(nil)

func cloneDoctor(d entity.Doctor) *entity.Doctor {
	d.SlotsBooked = d.SlotsBooked.Clone()
	return &d
}

func (r *DoctorRepository) Create(_ context.Context, d *entity.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.doctors {
		if x.Email == d.Email {
			return repository.ErrDuplicate
		}
	}
	r.s.doctors[d.ID] = *cloneDoctor(*d)
	return nil
}

func (r *DoctorRepository) GetByID(_ context.Context, id string) (*entity.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneDoctor(d), nil
}

func (r *DoctorRepository) GetByEmail(_ context.Context, email string) (*entity.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.doctors {
		if d.Email == email {
			return cloneDoctor(d), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *DoctorRepository) List(context.Context) ([]*entity.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Doctor, 0, len(r.s.doctors))
	for _, d := range r.s.doctors {
		out = append(out, cloneDoctor(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Update writes profile fields; the stored ledger is kept.
func (r *DoctorRepository) Update(_ context.Context, d *entity.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.doctors[d.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := *d
	next.SlotsBooked = cur.SlotsBooked
	r.s.doctors[d.ID] = next
	return nil
}

func (r *DoctorRepository) SetAvailability(_ context.Context, id string, available bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Available = available
	r.s.doctors[id] = d
	return nil
}

// AppointmentRepository implements repository.AppointmentRepository.
type AppointmentRepository struct{ s *Store }

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)

func (r *AppointmentRepository) Book(_ context.Context, a *entity.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[a.DoctorID]
	if !ok {
		return repository.ErrNotFound
	}
	if d.SlotsBooked == nil {
		d.SlotsBooked = entity.SlotLedger{}
	}
	if err := d.SlotsBooked.Reserve(a.SlotDate, a.SlotTime); err != nil {
		return err
	}
	r.s.doctors[d.ID] = d
	r.s.appointments[a.ID] = *a
	return nil
}

func (r *AppointmentRepository) GetByID(_ context.Context, id string) (*entity.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *AppointmentRepository) list(keep func(entity.Appointment) bool) []*entity.Appointment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Appointment, 0)
	for _, a := range r.s.appointments {
		if keep(a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookedAt.After(out[j].BookedAt) })
	return out
}

func (r *AppointmentRepository) ListByUser(_ context.Context, userID string) ([]*entity.Appointment, error) {
	return r.list(func(a entity.Appointment) bool { return a.UserID == userID }), nil
}

func (r *AppointmentRepository) ListByDoctor(_ context.Context, doctorID string) ([]*entity.Appointment, error) {
	return r.list(func(a entity.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (r *AppointmentRepository) ListAll(context.Context) ([]*entity.Appointment, error) {
	return r.list(func(entity.Appointment) bool { return true }), nil
}

func (r *AppointmentRepository) Cancel(_ context.Context, a *entity.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.appointments[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Terminal() {
		return repository.ErrStateChanged
	}
	cur.Cancelled = true
	r.s.appointments[a.ID] = cur
	if d, ok := r.s.doctors[cur.DoctorID]; ok {
		d.SlotsBooked.Release(cur.SlotDate, cur.SlotTime)
		r.s.doctors[d.ID] = d
	}
	return nil
}

func (r *AppointmentRepository) Complete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Terminal() {
		return repository.ErrStateChanged
	}
	cur.IsCompleted = true
	r.s.appointments[id] = cur
	return nil
}

func (r *AppointmentRepository) MarkPaid(_ context.Context, id string) error {
	return r.update(id, func(a *entity.Appointment) { a.Payment = true })
}

func (r *AppointmentRepository) SetPaymentRef(_ context.Context, id, provider, ref string) error {
	return r.update(id, func(a *entity.Appointment) {
		a.PaymentProvider = provider
		a.PaymentRef = ref
	})
}

func (r *AppointmentRepository) update(id string, fn func(*entity.Appointment)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&cur)
	r.s.appointments[id] = cur
	return nil
}

// AuditRepository implements repository.AuditRepository.
type AuditRepository struct{ s *Store }

var _ repository.AuditRepository = (*AuditRepository)(nil)

func (r *AuditRepository) Insert(_ context.Context, e repository.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, e)
	return nil
}

// Entries returns a copy of the recorded audit trail.
func (r *AuditRepository) Entries() []repository.AuditEntry {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]repository.AuditEntry(nil), r.s.audit...)
}
