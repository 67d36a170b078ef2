package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	repo "github.com/oksasatya/go-physio-booking/internal/domain/repository"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
)

// DoctorIndex is the search side of the doctor catalogue.
// search.DoctorIndex implements it on Elasticsearch.
type DoctorIndex interface {
	Index(ctx context.Context, d *entity.Doctor) error
	Search(ctx context.Context, q, speciality string, size int) ([]string, error)
}

// DoctorService serves the public catalogue and the doctor console.
type DoctorService struct {
	Doctors      repo.DoctorRepository
	Appointments repo.AppointmentRepository
	Sessions     *Sessions
	Index        DoctorIndex
	Logger       *logrus.Logger
}

func NewDoctorService(doctors repo.DoctorRepository, appts repo.AppointmentRepository, sessions *Sessions, index DoctorIndex, logger *logrus.Logger) *DoctorService {
	return &DoctorService{Doctors: doctors, Appointments: appts, Sessions: sessions, Index: index, Logger: logger}
}

func (s *DoctorService) List(ctx context.Context) ([]*entity.Doctor, error) {
	return s.Doctors.List(ctx)
}

// Search queries the index and falls back to a substring match over the
// repository when the index is missing or failing.
func (s *DoctorService) Search(ctx context.Context, q, speciality string) ([]*entity.Doctor, error) {
	all, err := s.Doctors.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.Index != nil {
		ids, ierr := s.Index.Search(ctx, q, speciality, 50)
		if ierr == nil {
			byID := make(map[string]*entity.Doctor, len(all))
			for _, d := range all {
				byID[d.ID] = d
			}
			out := make([]*entity.Doctor, 0, len(ids))
			for _, id := range ids {
				if d, ok := byID[id]; ok {
					out = append(out, d)
				}
			}
			return out, nil
		}
		if s.Logger != nil {
			s.Logger.WithError(ierr).Warn("doctor search index failed; falling back to repository")
		}
	}
	return filterDoctors(all, q, speciality), nil
}

func filterDoctors(all []*entity.Doctor, q, speciality string) []*entity.Doctor {
	q = strings.ToLower(strings.TrimSpace(q))
	speciality = strings.TrimSpace(speciality)
	out := make([]*entity.Doctor, 0, len(all))
	for _, d := range all {
		if speciality != "" && !strings.EqualFold(d.Speciality, speciality) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(d.Name), q) &&
			!strings.Contains(strings.ToLower(d.Speciality), q) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *DoctorService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	d, err := s.Doctors.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup doctor: %w", err)
	}
	if !helpers.CompareHashAndPassword(d.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return s.Sessions.Issue(ctx, entity.KindDoctor, d.ID, d.Email, d.Name)
}

func (s *DoctorService) Profile(ctx context.Context, id string) (*entity.Doctor, error) {
	d, err := s.Doctors.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("doctor", err)
	}
	return d, nil
}

// DoctorProfileInput holds the fields a doctor may edit; nil means unchanged.
type DoctorProfileInput struct {
	Fees      *int64
	Address   *entity.Address
	Available *bool
	About     *string
}

func (s *DoctorService) UpdateProfile(ctx context.Context, id string, in DoctorProfileInput) (*entity.Doctor, error) {
	d, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Fees != nil {
		if *in.Fees <= 0 {
			return nil, validationf("fees must be greater than 0")
		}
		d.Fees = *in.Fees
	}
	if in.Address != nil {
		d.Address = *in.Address
	}
	if in.Available != nil {
		d.Available = *in.Available
	}
	if in.About != nil {
		d.About = *in.About
	}
	if err := s.Doctors.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	s.reindex(ctx, d)
	return d, nil
}

// ToggleAvailability flips the doctor's available flag and returns the new value.
func (s *DoctorService) ToggleAvailability(ctx context.Context, id string) (bool, error) {
	d, err := s.Profile(ctx, id)
	if err != nil {
		return false, err
	}
	d.Available = !d.Available
	if err := s.Doctors.SetAvailability(ctx, id, d.Available); err != nil {
		return false, lookupErr("doctor", err)
	}
	s.reindex(ctx, d)
	return d.Available, nil
}

type DoctorDashboard struct {
	Earnings           int64                 `json:"earnings"`
	Appointments       int                   `json:"appointments"`
	Patients           int                   `json:"patients"`
	LatestAppointments []*entity.Appointment `json:"latestAppointments"`
}

// Dashboard sums earnings over completed or paid appointments and counts
// distinct patients.
func (s *DoctorService) Dashboard(ctx context.Context, id string) (*DoctorDashboard, error) {
	appts, err := s.Appointments.ListByDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &DoctorDashboard{Appointments: len(appts)}
	patients := map[string]struct{}{}
	for _, a := range appts {
		if a.IsCompleted || a.Payment {
			out.Earnings += a.Amount
		}
		patients[a.UserID] = struct{}{}
	}
	out.Patients = len(patients)
	out.LatestAppointments = latest(appts, 5)
	return out, nil
}

func (s *DoctorService) reindex(ctx context.Context, d *entity.Doctor) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, d); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("doctor_id", d.ID).Warn("es index failed")
	}
}

// latest returns up to n appointments, newest booking first.
func latest(appts []*entity.Appointment, n int) []*entity.Appointment {
	cp := append([]*entity.Appointment(nil), appts...)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].BookedAt.After(cp[j].BookedAt) })
	if len(cp) > n {
		cp = cp[:n]
	}
	return cp
}
