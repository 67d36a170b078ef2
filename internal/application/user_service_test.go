package application

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/pkg/helpers"
	mailtpl "github.com/oksasatya/go-physio-booking/pkg/mailer/templates"
)

var meta = RequestMeta{IP: "10.0.0.1", UserAgent: "test"}

func register(t *testing.T, c *clinic) *entity.User {
	t.Helper()
	u, err := c.users.Register(context.Background(), RegisterInput{Name: "Pat", Email: " Pat@Mail.io ", Password: "secret-123"}, meta)
	require.NoError(t, err)
	return u
}

func TestRegister_CreatesUnverifiedUserAndSendsVerification(t *testing.T) {
	c := newClinic(t)
	u := register(t, c)

	assert.Equal(t, "pat@mail.io", u.Email)
	assert.False(t, u.IsVerified)
	assert.NotEqual(t, "secret-123", u.Password)
	assert.NotEmpty(t, u.VerificationToken)

	m, ok := c.notifier.last(mailtpl.VerifyEmail)
	require.True(t, ok)
	assert.Equal(t, "pat@mail.io", m.To)
	assert.Contains(t, m.Data["VerifyURL"], "http://app/verify?token=")

	entries := c.store.Audit().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "register", entries[0].Action)
	assert.Equal(t, "10.0.0.1", entries[0].IP)
}

func TestRegister_Rejections(t *testing.T) {
	c := newClinic(t)
	register(t, c)
	ctx := context.Background()

	_, err := c.users.Register(ctx, RegisterInput{Name: "Pat", Email: "pat@mail.io", Password: "secret-123"}, meta)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = c.users.Register(ctx, RegisterInput{Name: "X", Email: "not-an-email", Password: "secret-123"}, meta)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = c.users.Register(ctx, RegisterInput{Name: "X", Email: "x@mail.io", Password: "short"}, meta)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = c.users.Register(ctx, RegisterInput{Email: "x@mail.io", Password: "secret-123"}, meta)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVerifyEmail_ThenLogin(t *testing.T) {
	c := newClinic(t)
	ctx := context.Background()
	u := register(t, c)

	_, err := c.users.Login(ctx, "pat@mail.io", "secret-123")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	res, err := c.users.VerifyEmail(ctx, u.VerificationToken, meta)
	require.NoError(t, err)
	assert.Equal(t, entity.KindPatient, res.Kind)

	claims, err := c.jwt.Verify(res.Token, string(entity.KindPatient))
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.True(t, c.sessions.Active(ctx, entity.KindPatient, u.ID, claims.SessionID))

	_, err = c.users.VerifyEmail(ctx, u.VerificationToken, meta)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = c.users.Login(ctx, "pat@mail.io", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = c.users.Login(ctx, "nobody@mail.io", "secret-123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := c.users.Login(ctx, "PAT@mail.io", "secret-123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, login.ID)
}

func TestVerifyEmail_ExpiredTokenResendsOnce(t *testing.T) {
	c := newClinic(t)
	ctx := context.Background()
	u := register(t, c)

	expired, _, err := c.jwt.Issue(string(entity.KindEmailVerify), u.ID, helpers.WithEmail(u.Email), helpers.WithTTL(-time.Minute))
	require.NoError(t, err)

	_, err = c.users.VerifyEmail(ctx, expired, meta)
	assert.ErrorIs(t, err, ErrVerificationResent)
	assert.Len(t, c.notifier.templates(), 2)

	fresh, err := c.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, u.VerificationToken, fresh.VerificationToken)

	// the superseded link no longer works, the new one does
	_, err = c.users.VerifyEmail(ctx, u.VerificationToken, meta)
	assert.ErrorIs(t, err, helpers.ErrTokenInvalid)
	_, err = c.users.VerifyEmail(ctx, fresh.VerificationToken, meta)
	require.NoError(t, err)
}

func TestVerifyEmail_RejectsOtherKinds(t *testing.T) {
	c := newClinic(t)
	u := register(t, c)
	patientTok, _, err := c.jwt.Issue(string(entity.KindPatient), u.ID)
	require.NoError(t, err)

	_, err = c.users.VerifyEmail(context.Background(), patientTok, meta)
	assert.ErrorIs(t, err, helpers.ErrTokenKind)
	_, err = c.users.VerifyEmail(context.Background(), "garbage", meta)
	assert.ErrorIs(t, err, helpers.ErrTokenInvalid)
}

func TestForgotAndResetPassword(t *testing.T) {
	c := newClinic(t)
	ctx := context.Background()
	c.addPatient(t, "p1", "Pat")

	login, err := c.users.Login(ctx, "p1@mail.io", "patient-pass")
	require.NoError(t, err)
	claims, err := c.jwt.Verify(login.Token, string(entity.KindPatient))
	require.NoError(t, err)

	assert.ErrorIs(t, c.users.ForgotPassword(ctx, "ghost@mail.io", meta), ErrNotFound)
	require.NoError(t, c.users.ForgotPassword(ctx, "p1@mail.io", meta))
	_, ok := c.notifier.last(mailtpl.ForgotPassword)
	require.True(t, ok)

	u, err := c.store.Users().GetByID(ctx, "p1")
	require.NoError(t, err)
	token := u.ResetPasswordToken
	require.NotEmpty(t, token)

	err = c.users.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "new-pass-1", ConfirmPassword: "new-pass-2"}, meta)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, c.users.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "new-pass-1", ConfirmPassword: "new-pass-1"}, meta))
	assert.False(t, c.sessions.Active(ctx, entity.KindPatient, "p1", claims.SessionID))

	err = c.users.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "new-pass-3", ConfirmPassword: "new-pass-3"}, meta)
	assert.ErrorIs(t, err, helpers.ErrTokenInvalid)

	_, err = c.users.Login(ctx, "p1@mail.io", "patient-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = c.users.Login(ctx, "p1@mail.io", "new-pass-1")
	require.NoError(t, err)
}

func TestUpdateProfileAndLogout(t *testing.T) {
	c := newClinic(t)
	ctx := context.Background()
	c.addPatient(t, "p1", "Pat")

	_, err := c.users.UpdateProfile(ctx, "p1", UpdateProfileInput{Name: "Pat"}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	in := UpdateProfileInput{Name: "Pat Lee", Phone: "+919999999999", DOB: "1990-01-01", Gender: "Female", Address: entity.Address{Line1: "1 Main St"}}
	_, err = c.users.UpdateProfile(ctx, "p1", in, &ImageUpload{Reader: bytes.NewReader([]byte("%PDF")), Filename: "cv.pdf", ContentType: "application/pdf"})
	assert.ErrorIs(t, err, ErrValidation)

	u, err := c.users.UpdateProfile(ctx, "p1", in, &ImageUpload{Reader: bytes.NewReader([]byte{0x89, 'P', 'N', 'G'}), Filename: "me.PNG", ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "Pat Lee", u.Name)
	assert.Contains(t, u.Image, "users/p1/")
	assert.True(t, len(u.Image) > 4 && u.Image[len(u.Image)-4:] == ".png")

	got, err := c.users.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", got.Address.Line1)

	login, err := c.users.Login(ctx, "p1@mail.io", "patient-pass")
	require.NoError(t, err)
	claims, err := c.jwt.Verify(login.Token, string(entity.KindPatient))
	require.NoError(t, err)
	require.NoError(t, c.users.Logout(ctx, "p1"))
	assert.False(t, c.sessions.Active(ctx, entity.KindPatient, "p1", claims.SessionID))
}

func TestLogin_SessionStoreDownIssuesNoToken(t *testing.T) {
	c := newClinic(t)
	ctx := context.Background()
	c.addPatient(t, "p1", "Pat")
	c.addDoctor(t, "d1", "Dr. A", 500, true)

	c.redis.SetError("LOADING Redis is loading the dataset in memory")
	_, err := c.users.Login(ctx, "p1@mail.io", "patient-pass")
	assert.ErrorIs(t, err, ErrAdapter)
	_, err = c.doctors.Login(ctx, "d1@clinic.io", "doctor-pass")
	assert.ErrorIs(t, err, ErrAdapter)

	c.redis.SetError("")
	login, err := c.users.Login(ctx, "p1@mail.io", "patient-pass")
	require.NoError(t, err)
	claims, err := c.jwt.Verify(login.Token, string(entity.KindPatient))
	require.NoError(t, err)
	assert.True(t, c.sessions.Active(ctx, entity.KindPatient, "p1", claims.SessionID))
}
