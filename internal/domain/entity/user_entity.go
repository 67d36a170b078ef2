package entity

import (
	"time"
)

// Address is the two-line postal address shared by patients and doctors.
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// User is the aggregate root for the patient domain
// Passwords are stored as bcrypt hashes in Password field
type User struct {
	ID         string
	Name       string
	Email      string
	Password   string
	Image      string
	Phone      string
	Address    Address
	Gender     string
	DOB        string
	IsVerified bool

	VerificationToken    string
	ResetPasswordToken   string
	ResetPasswordExpires time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResetTokenValid reports whether tok is the outstanding reset token and has not expired at now.
func (u *User) ResetTokenValid(tok string, now time.Time) bool {
	return u.ResetPasswordToken != "" && u.ResetPasswordToken == tok && now.Before(u.ResetPasswordExpires)
}

// Snapshot copies the public profile, leaving credentials behind.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Image:   u.Image,
		Phone:   u.Phone,
		Address: u.Address,
		Gender:  u.Gender,
		DOB:     u.DOB,
	}
}
