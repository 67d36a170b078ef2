package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-physio-booking/internal/domain/entity"
	"github.com/oksasatya/go-physio-booking/internal/domain/repository"
)

func seedDoctor(t *testing.T, s *Store) *entity.Doctor {
	t.Helper()
	d := &entity.Doctor{ID: "d1", Name: "Dr. A", Email: "a@clinic.io", Available: true, Fees: 500, SlotsBooked: entity.SlotLedger{}}
	require.NoError(t, s.Doctors().Create(context.Background(), d))
	return d
}

func TestAppointmentRepository_BookReservesAndCancelReleases(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedDoctor(t, s)
	appts := s.Appointments()

	a := &entity.Appointment{ID: "a1", UserID: "u1", DoctorID: "d1", SlotDate: "15_6_2025", SlotTime: "10:00 AM", BookedAt: time.Now()}
	require.NoError(t, appts.Book(ctx, a))

	err := appts.Book(ctx, &entity.Appointment{ID: "a2", UserID: "u2", DoctorID: "d1", SlotDate: "15_6_2025", SlotTime: "10:00 AM"})
	assert.ErrorIs(t, err, entity.ErrSlotTaken)
	_, err = appts.GetByID(ctx, "a2")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	d, err := s.Doctors().GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, d.SlotsBooked.IsAvailable("15_6_2025", "10:00 AM"))

	require.NoError(t, appts.Cancel(ctx, a))
	assert.ErrorIs(t, appts.Cancel(ctx, a), repository.ErrStateChanged)
	assert.ErrorIs(t, appts.Complete(ctx, "a1"), repository.ErrStateChanged)

	d, err = s.Doctors().GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, d.SlotsBooked.IsAvailable("15_6_2025", "10:00 AM"))
}

func TestDoctorRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedDoctor(t, s)

	d, err := s.Doctors().GetByID(ctx, "d1")
	require.NoError(t, err)
	require.NoError(t, d.SlotsBooked.Reserve("1_1_2030", "9:00 AM"))
	d.Fees = 900
	require.NoError(t, s.Doctors().Update(ctx, d))

	again, err := s.Doctors().GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(900), again.Fees)
	assert.True(t, again.SlotsBooked.IsAvailable("1_1_2030", "9:00 AM"), "Update must not write the ledger")

	assert.ErrorIs(t, s.Doctors().Create(ctx, &entity.Doctor{ID: "d2", Email: "a@clinic.io"}), repository.ErrDuplicate)
}

func TestAppointmentRepository_ListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedDoctor(t, s)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, clock := range []string{"9:00 AM", "9:30 AM", "10:00 AM"} {
		require.NoError(t, s.Appointments().Book(ctx, &entity.Appointment{
			ID: clock, UserID: "u1", DoctorID: "d1", SlotDate: "15_6_2025", SlotTime: clock,
			BookedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	list, err := s.Appointments().ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "10:00 AM", list[0].SlotTime)

	require.NoError(t, s.Appointments().MarkPaid(ctx, "9:00 AM"))
	require.NoError(t, s.Appointments().SetPaymentRef(ctx, "9:00 AM", "stripe", "cs_1"))
	a, err := s.Appointments().GetByID(ctx, "9:00 AM")
	require.NoError(t, err)
	assert.True(t, a.Payment)
	assert.Equal(t, "cs_1", a.PaymentRef)
	assert.ErrorIs(t, s.Appointments().MarkPaid(ctx, "missing"), repository.ErrNotFound)
}
