package entity

import "time"

// UserSnapshot is the patient profile as it was when the appointment was booked.
type UserSnapshot struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Image   string  `json:"image"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
	Gender  string  `json:"gender"`
	DOB     string  `json:"dob"`
}

// DoctorSnapshot is the doctor profile as it was when the appointment was booked.
type DoctorSnapshot struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Image      string  `json:"image"`
	Speciality string  `json:"speciality"`
	Degree     string  `json:"degree"`
	Experience string  `json:"experience"`
	About      string  `json:"about"`
	Fees       int64   `json:"fees"`
	Address    Address `json:"address"`
}

// Appointment records one booked slot. Cancelled and IsCompleted are
// mutually exclusive terminal states; Payment is independent of both.
type Appointment struct {
	ID       string
	UserID   string
	DoctorID string
	UserData UserSnapshot
	DocData  DoctorSnapshot
	SlotDate string
	SlotTime string
	Amount   int64
	BookedAt time.Time

	Cancelled   bool
	IsCompleted bool
	Payment     bool

	PaymentProvider string
	PaymentRef      string
}

// Terminal reports whether the appointment has been cancelled or completed.
func (a *Appointment) Terminal() bool {
	return a.Cancelled || a.IsCompleted
}
