package application

import (
	"context"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	mailtpl "github.com/oksasatya/go-physio-booking/pkg/mailer/templates"
	"github.com/oksasatya/go-physio-booking/pkg/metrics"
)

// Notifier hands a templated email to the delivery pipeline.
// mailer.QueueNotifier and mailer.DirectNotifier implement it.
type Notifier interface {
	Notify(ctx context.Context, to, template string, data map[string]any) error
}

// Notifications builds template payloads and sends them best-effort: a
// failed send is logged and counted but never returned to the caller.
type Notifications struct {
	Notifier  Notifier
	Brand     mailtpl.Brand
	VerifyURL string
	ResetURL  string
	Metrics   *metrics.BookingMetrics
	Logger    *logrus.Logger
}

func (n *Notifications) send(ctx context.Context, to, template string, data map[string]any) {
	if n == nil || n.Notifier == nil {
		return
	}
	err := n.Notifier.Notify(ctx, to, template, data)
	n.Metrics.ObserveNotification(template, metrics.Result(err, ""))
	if err != nil && n.Logger != nil {
		n.Logger.WithError(err).WithFields(logrus.Fields{"to": to, "template": template}).Warn("notification failed")
	}
}

func appointmentView(a *entity.Appointment) mailtpl.Appointment {
	return mailtpl.Appointment{
		ID:          a.ID,
		PatientName: a.UserData.Name,
		DoctorName:  a.DocData.Name,
		Speciality:  a.DocData.Speciality,
		SlotDate:    a.SlotDate,
		SlotTime:    a.SlotTime,
		Amount:      a.Amount,
	}
}

// AppointmentBooked emails the patient a confirmation and the doctor a heads-up.
func (n *Notifications) AppointmentBooked(ctx context.Context, a *entity.Appointment) {
	if n == nil {
		return
	}
	v := appointmentView(a)
	n.send(ctx, a.UserData.Email, mailtpl.AppointmentBooked,
		mailtpl.NewAppointmentData(n.Brand, mailtpl.AppointmentBooked, a.UserData.Name, a.UserData.Email, v))
	n.send(ctx, a.DocData.Email, mailtpl.AppointmentBookedDoctor,
		mailtpl.NewAppointmentData(n.Brand, mailtpl.AppointmentBookedDoctor, a.DocData.Name, a.DocData.Email, v))
}

// AppointmentCancelled tells both parties the slot was released.
func (n *Notifications) AppointmentCancelled(ctx context.Context, a *entity.Appointment, by entity.PrincipalKind) {
	if n == nil {
		return
	}
	v := appointmentView(a)
	who := mailtpl.WithCancelledBy(string(by))
	n.send(ctx, a.UserData.Email, mailtpl.AppointmentCancelled,
		mailtpl.NewAppointmentData(n.Brand, mailtpl.AppointmentCancelled, a.UserData.Name, a.UserData.Email, v, who))
	n.send(ctx, a.DocData.Email, mailtpl.AppointmentCancelledDoctor,
		mailtpl.NewAppointmentData(n.Brand, mailtpl.AppointmentCancelledDoctor, a.DocData.Name, a.DocData.Email, v, who))
}

func (n *Notifications) VerifyEmail(ctx context.Context, u *entity.User, token string, expires time.Time) {
	if n == nil {
		return
	}
	link := withToken(n.VerifyURL, token)
	n.send(ctx, u.Email, mailtpl.VerifyEmail, mailtpl.NewVerifyEmailData(n.Brand, u.Name, u.Email, link, expires))
}

func (n *Notifications) PasswordReset(ctx context.Context, u *entity.User, token string, expires time.Time) {
	if n == nil {
		return
	}
	link := withToken(n.ResetURL, token)
	n.send(ctx, u.Email, mailtpl.ForgotPassword, mailtpl.NewForgotPasswordData(n.Brand, u.Name, u.Email, link, expires))
}

func withToken(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
