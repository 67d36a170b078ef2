package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailtpl "github.com/oksasatya/go-physio-booking/pkg/mailer/templates"
)

type captureSender struct {
	to, subject, text, html string
	err                     error
}

func (c *captureSender) Send(_ context.Context, to, subject, text, html string) error {
	c.to, c.subject, c.text, c.html = to, subject, text, html
	return c.err
}

type capturePublisher struct {
	bodies [][]byte
	err    error
}

func (p *capturePublisher) PublishJSON(_ context.Context, body any) error {
	if p.err != nil {
		return p.err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	p.bodies = append(p.bodies, b)
	return nil
}

var brand = mailtpl.Brand{CompanyName: "Physio Booking", AppURL: "http://app", Currency: "INR"}

func TestDeliver_RendersAppointmentTemplate(t *testing.T) {
	data := mailtpl.NewAppointmentData(brand, mailtpl.AppointmentBooked, "Pat", "pat@x.io", mailtpl.Appointment{
		ID: "a1", PatientName: "Pat", DoctorName: "Dr. A", Speciality: "Physiotherapist",
		SlotDate: "15_6_2025", SlotTime: "10:00 AM", Amount: 500,
	})
	s := &captureSender{}

	require.NoError(t, Deliver(context.Background(), s, EmailJob{To: "pat@x.io", Template: mailtpl.AppointmentBooked, Data: data}))

	assert.Equal(t, "pat@x.io", s.to)
	assert.Equal(t, "Appointment confirmed with Dr. A", s.subject)
	assert.Contains(t, s.text, "Date: 15/6/2025")
	assert.Contains(t, s.text, "Fee: 500 INR")
	assert.Contains(t, s.html, "10:00 AM")
}

func TestDeliver_EveryTemplateRenders(t *testing.T) {
	names := []string{
		mailtpl.VerifyEmail, mailtpl.ForgotPassword,
		mailtpl.AppointmentBooked, mailtpl.AppointmentBookedDoctor,
		mailtpl.AppointmentCancelled, mailtpl.AppointmentCancelledDoctor,
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			data := mailtpl.NewAppointmentData(brand, name, "N", "n@x.io", mailtpl.Appointment{DoctorName: "Dr. A", SlotDate: "1_1_2030", SlotTime: "9:00 AM"},
				mailtpl.WithVerifyURL("http://v"), mailtpl.WithResetURL("http://r"), mailtpl.WithExpiresAt(time.Now()), mailtpl.WithCancelledBy("doctor"))
			s := &captureSender{}
			require.NoError(t, Deliver(context.Background(), s, EmailJob{To: "n@x.io", Template: name, Data: data}))
			assert.NotEmpty(t, s.subject)
			assert.NotEmpty(t, s.html)
		})
	}
}

func TestDeliver_RawAndErrors(t *testing.T) {
	s := &captureSender{}
	require.NoError(t, Deliver(context.Background(), s, EmailJob{To: "a@x.io", Subject: "hi", Text: "body"}))
	assert.Equal(t, "hi", s.subject)

	assert.ErrorIs(t, Deliver(context.Background(), s, EmailJob{Subject: "x"}), ErrEmptyRecipient)
	assert.ErrorIs(t, Deliver(context.Background(), s, EmailJob{To: "a@x.io", Template: "nope"}), ErrRender)
}

func TestQueueNotifier_PublishesJob(t *testing.T) {
	p := &capturePublisher{}
	n := NewQueueNotifier(p, nil)

	require.NoError(t, n.Notify(context.Background(), "doc@x.io", mailtpl.AppointmentBookedDoctor, map[string]any{"PatientName": "Pat"}))
	require.Len(t, p.bodies, 1)

	var job EmailJob
	require.NoError(t, json.Unmarshal(p.bodies[0], &job))
	assert.Equal(t, "doc@x.io", job.To)
	assert.Equal(t, mailtpl.AppointmentBookedDoctor, job.Template)
	assert.Equal(t, "Pat", job.Data["PatientName"])

	assert.ErrorIs(t, n.Notify(context.Background(), "", "x", nil), ErrEmptyRecipient)

	p.err = errors.New("channel closed")
	assert.Error(t, n.Notify(context.Background(), "doc@x.io", "x", nil))
}

func TestDirectNotifier_UsesSender(t *testing.T) {
	s := &captureSender{}
	n := &DirectNotifier{Sender: s}
	data := mailtpl.NewVerifyEmailData(brand, "Pat", "pat@x.io", "http://app/verify?token=t", time.Now().Add(time.Hour))

	require.NoError(t, n.Notify(context.Background(), "pat@x.io", mailtpl.VerifyEmail, data))
	assert.Contains(t, s.text, "http://app/verify?token=t")
}

func TestNewSendGrid(t *testing.T) {
	assert.Nil(t, NewSendGrid("", "from@x.io", ""))

	sg := NewSendGrid("key", "from@x.io", "")
	require.NotNil(t, sg)
	assert.Equal(t, "Physio Booking", sg.FromName)

	var nilSG *SendGrid
	assert.Error(t, nilSG.Send(context.Background(), "a@x.io", "s", "t", ""))
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(SenderConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.IsType(t, LogSender{}, s)

	_, err = NewSender(SenderConfig{Enabled: true, Provider: "mailgun"}, nil)
	assert.Error(t, err)

	s, err = NewSender(SenderConfig{Enabled: true, Provider: "Mailgun", MailgunDomain: "mg.clinic.io", MailgunAPIKey: "key", MailgunSender: "no-reply@clinic.io"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Mailgun{}, s)

	s, err = NewSender(SenderConfig{Enabled: true, Provider: "sendgrid", SendGridAPIKey: "SG.key", SendGridFrom: "no-reply@clinic.io"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SendGrid{}, s)

	_, err = NewSender(SenderConfig{Enabled: true, Provider: "ses"}, nil)
	assert.ErrorContains(t, err, "unknown provider")
}

func TestMailgun_SendPostsMessage(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_ = r.ParseMultipartForm(1 << 20) // falls back to urlencoded parsing
		got = r.Form
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<20250601.1@mg.clinic.io>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	m := NewMailgun("mg.clinic.io", "key-test", "Clinic <no-reply@clinic.io>").WithAPIBase(srv.URL)
	require.NoError(t, m.Send(context.Background(), "p1@mail.io", "Booked", "text body", "<p>html</p>"))
	assert.Equal(t, "p1@mail.io", got.Get("to"))
	assert.Equal(t, "Booked", got.Get("subject"))
	assert.Equal(t, "<p>html</p>", got.Get("html"))
	assert.Equal(t, "physio-booking", got.Get("o:tag"))
}
