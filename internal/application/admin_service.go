package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	repo "github.com/oksasatya/go-physio-booking/internal/domain/repository"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
)

// AdminService backs the admin console. The admin account itself is not
// stored; its credentials come from configuration.
type AdminService struct {
	Email    string
	Password string

	Users        repo.UserRepository
	Appointments repo.AppointmentRepository
	Doctors      *DoctorService
	Sessions     *Sessions
	Images       ImageStore
	Logger       *logrus.Logger
}

func NewAdminService(email, password string, users repo.UserRepository, appts repo.AppointmentRepository, doctors *DoctorService, sessions *Sessions, images ImageStore, logger *logrus.Logger) *AdminService {
	return &AdminService{
		Email:        normalizeEmail(email),
		Password:     password,
		Users:        users,
		Appointments: appts,
		Doctors:      doctors,
		Sessions:     sessions,
		Images:       images,
		Logger:       logger,
	}
}

func (s *AdminService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s.Password == "" {
		return nil, ErrInvalidCredentials
	}
	emailOK := subtle.ConstantTimeCompare([]byte(normalizeEmail(email)), []byte(s.Email)) == 1
	pwdOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1
	if !emailOK || !pwdOK {
		return nil, ErrInvalidCredentials
	}
	return s.Sessions.Issue(ctx, entity.KindAdmin, s.Email, s.Email, "admin")
}

type AddDoctorInput struct {
	Name       string
	Email      string
	Password   string
	Speciality string
	Degree     string
	Experience string
	About      string
	Fees       int64
	Address    entity.Address
}

// AddDoctor creates an available doctor with an empty slot ledger.
func (s *AdminService) AddDoctor(ctx context.Context, in AddDoctorInput, img *ImageUpload) (*entity.Doctor, error) {
	in.Email = normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || in.Email == "" || in.Password == "" ||
		in.Speciality == "" || in.Degree == "" || in.Experience == "" || in.About == "" {
		return nil, validationf("missing details")
	}
	if !validEmail(in.Email) {
		return nil, validationf("please enter a valid email")
	}
	if len(in.Password) < 8 {
		return nil, validationf("please enter a strong password")
	}
	if in.Fees <= 0 {
		return nil, validationf("fees must be greater than 0")
	}
	if _, err := s.Doctors.Doctors.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: doctor already exists", ErrConflict)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("lookup doctor: %w", err)
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	d := &entity.Doctor{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Email:       in.Email,
		Password:    hash,
		Speciality:  in.Speciality,
		Degree:      in.Degree,
		Experience:  in.Experience,
		About:       in.About,
		Available:   true,
		Fees:        in.Fees,
		Address:     in.Address,
		SlotsBooked: entity.SlotLedger{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if img != nil {
		url, err := uploadImage(ctx, s.Images, "doctors", d.ID, img)
		if err != nil {
			if errors.Is(err, ErrValidation) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: upload image: %v", ErrAdapter, err)
		}
		d.Image = url
	}
	if err := s.Doctors.Doctors.Create(ctx, d); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: doctor already exists", ErrConflict)
		}
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	s.Doctors.reindex(ctx, d)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"doctor_id": d.ID, "email": d.Email}).Info("doctor added")
	}
	return d, nil
}

type AdminDashboard struct {
	Doctors            int                   `json:"doctors"`
	Appointments       int                   `json:"appointments"`
	Patients           int                   `json:"patients"`
	LatestAppointments []*entity.Appointment `json:"latestAppointments"`
}

func (s *AdminService) Dashboard(ctx context.Context) (*AdminDashboard, error) {
	docs, err := s.Doctors.List(ctx)
	if err != nil {
		return nil, err
	}
	appts, err := s.Appointments.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	patients, err := s.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminDashboard{
		Doctors:            len(docs),
		Appointments:       len(appts),
		Patients:           patients,
		LatestAppointments: latest(appts, 5),
	}, nil
}
