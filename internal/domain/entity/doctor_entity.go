package entity

import "time"

// Doctor owns its SlotLedger exclusively; only booking and cancellation mutate it.
type Doctor struct {
	ID          string
	Name        string
	Email       string
	Password    string
	Image       string
	Speciality  string
	Degree      string
	Experience  string
	About       string
	Available   bool
	Fees        int64
	Address     Address
	SlotsBooked SlotLedger
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Snapshot copies the public profile without credentials or the ledger.
func (d *Doctor) Snapshot() DoctorSnapshot {
	return DoctorSnapshot{
		ID:         d.ID,
		Name:       d.Name,
		Email:      d.Email,
		Image:      d.Image,
		Speciality: d.Speciality,
		Degree:     d.Degree,
		Experience: d.Experience,
		About:      d.About,
		Fees:       d.Fees,
		Address:    d.Address,
	}
}
