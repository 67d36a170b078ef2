package application

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/internal/infrastructure/memory"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
	mailtpl "github.com/oksasatya/go-physio-booking/pkg/mailer/templates"
)

type sentMail struct {
	To       string
	Template string
	Data     map[string]any
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, to, template string, data map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Template: template, Data: data})
	return nil
}

func (f *fakeNotifier) templates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Template)
	}
	return out
}

func (f *fakeNotifier) last(template string) (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Template == template {
			return f.sent[i], true
		}
	}
	return sentMail{}, false
}

// clinic is a fully wired set of services over the memory store.
type clinic struct {
	store    *memory.Store
	notifier *fakeNotifier
	logs     *test.Hook
	redis    *miniredis.Miniredis
	jwt      *helpers.JWTManager
	sessions *Sessions
	booking  *BookingService
	users    *UserService
	doctors  *DoctorService
	admin    *AdminService
	now      time.Time
}

var ist = time.FixedZone("IST", 5*3600+1800)

func newClinic(t *testing.T) *clinic {
	t.Helper()
	helpers.PasswordCost = bcrypt.MinCost
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := memory.NewStore()
	n := &fakeNotifier{}
	notify := &Notifications{
		Notifier:  n,
		Brand:     mailtpl.Brand{CompanyName: "Physio", Currency: "INR"},
		VerifyURL: "http://app/verify",
		ResetURL:  "http://app/reset-password",
		Logger:    logger,
	}
	jwt := helpers.NewJWTManager("test-secret", map[string]time.Duration{
		string(entity.KindPatient):       time.Hour,
		string(entity.KindDoctor):        time.Hour,
		string(entity.KindAdmin):         time.Hour,
		string(entity.KindEmailVerify):   time.Hour,
		string(entity.KindPasswordReset): time.Hour,
	})
	sessions := NewSessions(jwt, rdb, logger)

	c := &clinic{
		store:    store,
		notifier: n,
		logs:     hook,
		redis:    mr,
		jwt:      jwt,
		sessions: sessions,
		now:      time.Date(2025, 6, 1, 9, 0, 0, 0, ist),
	}
	c.booking = NewBookingService(store.Users(), store.Doctors(), store.Appointments(), notify, nil, logger, ist, 24*time.Hour)
	c.booking.Now = func() time.Time { return c.now }
	c.users = NewUserService(store.Users(), store.Audit(), jwt, sessions, &fakeImages{}, notify, logger, time.Hour)
	c.doctors = NewDoctorService(store.Doctors(), store.Appointments(), sessions, nil, logger)
	c.admin = NewAdminService("admin@clinic.io", "admin-pass", store.Users(), store.Appointments(), c.doctors, sessions, &fakeImages{}, logger)
	return c
}

func (c *clinic) addDoctor(t *testing.T, id, name string, fees int64, available bool) *entity.Doctor {
	t.Helper()
	hash, err := helpers.HashPassword("doctor-pass")
	require.NoError(t, err)
	d := &entity.Doctor{
		ID: id, Name: name, Email: id + "@clinic.io", Password: hash,
		Speciality: "Physiotherapist", Available: available, Fees: fees,
		SlotsBooked: entity.SlotLedger{}, CreatedAt: time.Now(),
	}
	require.NoError(t, c.store.Doctors().Create(context.Background(), d))
	return d
}

func (c *clinic) addPatient(t *testing.T, id, name string) *entity.User {
	t.Helper()
	hash, err := helpers.HashPassword("patient-pass")
	require.NoError(t, err)
	u := &entity.User{ID: id, Name: name, Email: id + "@mail.io", Password: hash, IsVerified: true}
	require.NoError(t, c.store.Users().Create(context.Background(), u))
	return u
}

func (c *clinic) ledger(t *testing.T, doctorID string) entity.SlotLedger {
	t.Helper()
	d, err := c.store.Doctors().GetByID(context.Background(), doctorID)
	require.NoError(t, err)
	return d.SlotsBooked
}

type fakeImages struct {
	paths []string
	err   error
}

func (f *fakeImages) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.paths = append(f.paths, objectPath)
	return "https://storage.googleapis.com/bucket/" + objectPath, nil
}

func (c *clinic) patient(id string) entity.Principal { return entity.AsPatient(id) }
