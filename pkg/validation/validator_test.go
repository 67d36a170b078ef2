package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookReq struct {
	DocID    string `json:"docId" validate:"required"`
	SlotDate string `json:"slotDate" validate:"required,slotdate"`
	SlotTime string `json:"slotTime" validate:"required,slottime"`
	Password string `json:"password" validate:"omitempty,pwd"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestSlotValidators(t *testing.T) {
	v := newValidator()

	require.NoError(t, v.Struct(bookReq{DocID: "d1", SlotDate: "15_6_2025", SlotTime: "10:00 AM"}))

	err := v.Struct(bookReq{DocID: "d1", SlotDate: "2025-06-15", SlotTime: "10am", Password: "short"})
	require.Error(t, err)
	details := ToDetails(err)
	assert.Equal(t, "must look like day_month_year, e.g. 15_6_2025", details["slotDate"])
	assert.Equal(t, "must look like H:MM AM/PM, e.g. 10:00 AM", details["slotTime"])
	assert.Equal(t, "min length 8", details["password"])
}

func TestToDetails_Fallbacks(t *testing.T) {
	assert.Nil(t, ToDetails(nil))
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("boom")))
}
