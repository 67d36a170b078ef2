package templates

import (
	"strings"
	"time"
)

// Brand carries the company fields every email shares.
type Brand struct {
	CompanyName string
	AppName     string
	SupportURL  string
	AppURL      string
	Currency    string
}

// Option pattern
type Option func(*EmailData)

func WithVerifyURL(url string) Option { return func(d *EmailData) { d.VerifyURL = url } }
func WithResetURL(url string) Option  { return func(d *EmailData) { d.ResetURL = url } }

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
	}
}

// Appointment is the subset of an appointment that emails show.
type Appointment struct {
	ID          string
	PatientName string
	DoctorName  string
	Speciality  string
	SlotDate    string
	SlotTime    string
	Amount      int64
}

func WithAppointment(a Appointment) Option {
	return func(d *EmailData) {
		d.AppointmentID = a.ID
		d.PatientName = a.PatientName
		d.DoctorName = a.DoctorName
		d.Speciality = a.Speciality
		d.SlotDate = a.SlotDate
		d.SlotTime = a.SlotTime
		d.Amount = a.Amount
	}
}

func WithCancelledBy(who string) Option {
	return func(d *EmailData) { d.CancelledBy = strings.TrimSpace(who) }
}

// NewBaseEmailData fills the common fields from b, then applies opts.
func NewBaseEmailData(b Brand, typ, name, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          recipient,
		RecipientEmail: recipient,
		Type:           typ,

		CompanyName: b.CompanyName,
		AppName:     b.AppName,
		SupportURL:  b.SupportURL,
		AppURL:      b.AppURL,
		Currency:    b.Currency,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(b Brand, name, email, verifyURL string, expires time.Time) map[string]any {
	return ToMap(NewBaseEmailData(b, VerifyEmail, name, email, WithVerifyURL(verifyURL), WithExpiresAt(expires)))
}

func NewForgotPasswordData(b Brand, name, email, resetURL string, expires time.Time) map[string]any {
	return ToMap(NewBaseEmailData(b, ForgotPassword, name, email, WithResetURL(resetURL), WithExpiresAt(expires)))
}

func NewAppointmentData(b Brand, typ, name, email string, a Appointment, opts ...Option) map[string]any {
	opts = append([]Option{WithAppointment(a)}, opts...)
	return ToMap(NewBaseEmailData(b, typ, name, email, opts...))
}
