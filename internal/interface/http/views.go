package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-physio-booking/internal/application"
	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
)

// Response shapes. Credentials and tokens never leave through these.

type userView struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Image      string         `json:"image"`
	Phone      string         `json:"phone"`
	Address    entity.Address `json:"address"`
	Gender     string         `json:"gender"`
	DOB        string         `json:"dob"`
	IsVerified bool           `json:"isVerified"`
}

func toUserView(u *entity.User) userView {
	return userView{
		ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image, Phone: u.Phone,
		Address: u.Address, Gender: u.Gender, DOB: u.DOB, IsVerified: u.IsVerified,
	}
}

type doctorView struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email,omitempty"`
	Image       string            `json:"image"`
	Speciality  string            `json:"speciality"`
	Degree      string            `json:"degree"`
	Experience  string            `json:"experience"`
	About       string            `json:"about"`
	Available   bool              `json:"available"`
	Fees        int64             `json:"fees"`
	Address     entity.Address    `json:"address"`
	SlotsBooked entity.SlotLedger `json:"slots_booked"`
}

// toDoctorView hides the email unless withEmail is set (doctor or admin views).
func toDoctorView(d *entity.Doctor, withEmail bool) doctorView {
	v := doctorView{
		ID: d.ID, Name: d.Name, Image: d.Image, Speciality: d.Speciality, Degree: d.Degree,
		Experience: d.Experience, About: d.About, Available: d.Available, Fees: d.Fees,
		Address: d.Address, SlotsBooked: d.SlotsBooked,
	}
	if v.SlotsBooked == nil {
		v.SlotsBooked = entity.SlotLedger{}
	}
	if withEmail {
		v.Email = d.Email
	}
	return v
}

func toDoctorViews(ds []*entity.Doctor, withEmail bool) []doctorView {
	out := make([]doctorView, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDoctorView(d, withEmail))
	}
	return out
}

type appointmentView struct {
	ID          string                `json:"id"`
	UserID      string                `json:"userId"`
	DocID       string                `json:"docId"`
	SlotDate    string                `json:"slotDate"`
	SlotTime    string                `json:"slotTime"`
	UserData    entity.UserSnapshot   `json:"userData"`
	DocData     entity.DoctorSnapshot `json:"docData"`
	Amount      int64                 `json:"amount"`
	Date        int64                 `json:"date"`
	Cancelled   bool                  `json:"cancelled"`
	Payment     bool                  `json:"payment"`
	IsCompleted bool                  `json:"isCompleted"`
}

func toAppointmentView(a *entity.Appointment) appointmentView {
	return appointmentView{
		ID: a.ID, UserID: a.UserID, DocID: a.DoctorID, SlotDate: a.SlotDate, SlotTime: a.SlotTime,
		UserData: a.UserData, DocData: a.DocData, Amount: a.Amount, Date: a.BookedAt.UnixMilli(),
		Cancelled: a.Cancelled, Payment: a.Payment, IsCompleted: a.IsCompleted,
	}
}

func toAppointmentViews(as []*entity.Appointment) []appointmentView {
	out := make([]appointmentView, 0, len(as))
	for _, a := range as {
		out = append(out, toAppointmentView(a))
	}
	return out
}

// formImage opens the optional multipart file under field. The returned
// closer is never nil.
func formImage(c *gin.Context, field string) (*application.ImageUpload, func(), error) {
	fh, err := c.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &application.ImageUpload{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: contentType(fh),
	}, func() { _ = f.Close() }, nil
}

func contentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// formAddress accepts the address either as a JSON object string or as
// address.line1 / address.line2 fields.
func formAddress(c *gin.Context) (entity.Address, error) {
	var a entity.Address
	if raw := strings.TrimSpace(c.PostForm("address")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return a, err
		}
		return a, nil
	}
	a.Line1 = c.PostForm("address.line1")
	a.Line2 = c.PostForm("address.line2")
	return a, nil
}
