package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shifa/internal/models"
)

func dept(id int64) models.Department { return models.Department{ID: id, Name: "Dermatology"} }

func doctor(id, deptID int64) models.Doctor {
	return models.Doctor{ID: id, Name: "Dr. Huda", DepartmentID: deptID}
}

func fullForm() models.PatientForm {
	return models.PatientForm{
		Name:           "Sara Al-Otaibi",
		Phone:          "0512345678",
		NationalID:     "1012345678",
		ReasonForVisit: "follow-up",
	}
}

func advanceToTime(t *testing.T, b *Booking) {
	t.Helper()
	b.SetDepartment(dept(1))
	require.NoError(t, b.SetDoctor(doctor(7, 1)))
	require.NoError(t, b.SetDate("2025-03-10"))
	require.NoError(t, b.SetTime("09:30"))
}

func TestBookingStepDerivation(t *testing.T) {
	b := NewBooking()
	assert.Equal(t, StepEmpty, b.Step())

	b.SetDepartment(dept(1))
	assert.Equal(t, StepDepartmentChosen, b.Step())

	require.NoError(t, b.SetDoctor(doctor(7, 1)))
	assert.Equal(t, StepDoctorChosen, b.Step())

	require.NoError(t, b.SetDate("2025-03-10"))
	assert.Equal(t, StepDateChosen, b.Step())

	require.NoError(t, b.SetTime("09:30"))
	assert.Equal(t, StepTimeChosen, b.Step())
}

func TestBookingGuards(t *testing.T) {
	b := NewBooking()

	var prereq *PrerequisiteError

	err := b.SetDoctor(doctor(7, 1))
	require.ErrorAs(t, err, &prereq)
	assert.Equal(t, "department", prereq.Missing)

	err = b.SetDate("2025-03-10")
	require.ErrorAs(t, err, &prereq)
	assert.Equal(t, "doctor", prereq.Missing)

	err = b.SetTime("09:30")
	require.ErrorAs(t, err, &prereq)
	assert.Equal(t, "doctor", prereq.Missing)

	// Doctor chosen but no date yet.
	b.SetDepartment(dept(1))
	require.NoError(t, b.SetDoctor(doctor(7, 1)))
	err = b.SetTime("09:30")
	require.ErrorAs(t, err, &prereq)
	assert.Equal(t, "date", prereq.Missing)
}

func TestSetDateClearsTime(t *testing.T) {
	b := NewBooking()
	advanceToTime(t, b)
	assert.Equal(t, "09:30", b.Draft().Time)

	// Changing the date invalidates the previously chosen time, even when
	// re-selecting the same date.
	require.NoError(t, b.SetDate("2025-03-11"))
	assert.Empty(t, b.Draft().Time)

	require.NoError(t, b.SetTime("10:00"))
	require.NoError(t, b.SetDate("2025-03-11"))
	assert.Empty(t, b.Draft().Time)
}

func TestDepartmentChangeDoesNotCascade(t *testing.T) {
	b := NewBooking()
	advanceToTime(t, b)

	// The doctor screen re-fetches per department, so no cascade clear.
	b.SetDepartment(dept(2))
	d := b.Draft()
	assert.NotNil(t, d.Doctor)
	assert.Equal(t, "2025-03-10", d.Date)
	assert.Equal(t, "09:30", d.Time)
}

func TestReadyToSubmit(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*Booking)
		missing string
	}{
		{"empty", func(*Booking) {}, "department"},
		{"department only", func(b *Booking) {
			b.SetDepartment(dept(1))
		}, "doctor"},
		{"no date", func(b *Booking) {
			b.SetDepartment(dept(1))
			_ = b.SetDoctor(doctor(7, 1))
		}, "date"},
		{"no time", func(b *Booking) {
			b.SetDepartment(dept(1))
			_ = b.SetDoctor(doctor(7, 1))
			_ = b.SetDate("2025-03-10")
		}, "time"},
		{"no patient name", func(b *Booking) {
			b.SetDepartment(dept(1))
			_ = b.SetDoctor(doctor(7, 1))
			_ = b.SetDate("2025-03-10")
			_ = b.SetTime("09:30")
			f := fullForm()
			f.Name = ""
			b.SetPatient(f)
		}, "patient name"},
		{"no phone", func(b *Booking) {
			b.SetDepartment(dept(1))
			_ = b.SetDoctor(doctor(7, 1))
			_ = b.SetDate("2025-03-10")
			_ = b.SetTime("09:30")
			f := fullForm()
			f.Phone = ""
			b.SetPatient(f)
		}, "patient phone"},
		{"no national id", func(b *Booking) {
			b.SetDepartment(dept(1))
			_ = b.SetDoctor(doctor(7, 1))
			_ = b.SetDate("2025-03-10")
			_ = b.SetTime("09:30")
			f := fullForm()
			f.NationalID = ""
			b.SetPatient(f)
		}, "national id"},
		{"no reason", func(b *Booking) {
			b.SetDepartment(dept(1))
			_ = b.SetDoctor(doctor(7, 1))
			_ = b.SetDate("2025-03-10")
			_ = b.SetTime("09:30")
			f := fullForm()
			f.ReasonForVisit = ""
			b.SetPatient(f)
		}, "reason for visit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBooking()
			tt.prepare(b)

			var prereq *PrerequisiteError
			err := b.ReadyToSubmit()
			require.ErrorAs(t, err, &prereq)
			assert.Equal(t, tt.missing, prereq.Missing)
		})
	}

	t.Run("complete", func(t *testing.T) {
		b := NewBooking()
		advanceToTime(t, b)
		b.SetPatient(fullForm())
		assert.NoError(t, b.ReadyToSubmit())
	})
}

func TestResetFromAnyState(t *testing.T) {
	empty := NewBooking().Draft()

	b := NewBooking()
	advanceToTime(t, b)
	b.SetPatient(fullForm())
	b.SetDuration(45)
	b.Preselect(models.Service{ID: 3, Name: "Laser"})

	b.Reset()
	assert.Equal(t, empty, b.Draft())
	assert.Equal(t, StepEmpty, b.Step())

	// Idempotent: a second reset changes nothing.
	b.Reset()
	assert.Equal(t, empty, b.Draft())
}

func TestBeginResetsUnlessPreselected(t *testing.T) {
	b := NewBooking()
	advanceToTime(t, b)
	b.Begin()
	assert.Equal(t, StepEmpty, b.Step())

	// A just-preselected service suppresses exactly one auto-reset.
	b.Preselect(models.Service{ID: 3, Name: "Laser"})
	b.SetDepartment(dept(1))
	b.Begin()
	require.NotNil(t, b.Draft().PreselectedService)
	assert.Equal(t, StepDepartmentChosen, b.Step())

	b.Begin()
	assert.Equal(t, StepEmpty, b.Step())
	assert.Nil(t, b.Draft().PreselectedService)
}

func TestDurationDefault(t *testing.T) {
	b := NewBooking()
	assert.Equal(t, DefaultDurationMinutes, b.Draft().Duration)

	b.SetDuration(60)
	assert.Equal(t, 60, b.Draft().Duration)

	b.SetDuration(0)
	assert.Equal(t, DefaultDurationMinutes, b.Draft().Duration)
}

func TestConfiguredDefaultDurationSurvivesReset(t *testing.T) {
	b := NewBooking()
	b.SetDefaultDuration(45)
	assert.Equal(t, 45, b.Draft().Duration)

	// Every reset path returns to the configured default, not the
	// built-in constant.
	b.Begin()
	assert.Equal(t, 45, b.Draft().Duration)

	b.SetDuration(60)
	b.Reset()
	assert.Equal(t, 45, b.Draft().Duration)

	// A per-booking override falls back to the configured default too.
	b.SetDuration(0)
	assert.Equal(t, 45, b.Draft().Duration)

	b.SetDefaultDuration(0)
	assert.Equal(t, DefaultDurationMinutes, b.Draft().Duration)
}
