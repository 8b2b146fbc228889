// Package session holds the client-side state containers: the booking
// wizard, the checkout-adjacent cart state and the auth credential. Each is
// a single injected instance guarded by a mutex; fields are simple values,
// concurrent completions resolve by last write wins and the server stays
// authoritative for anything transactional.
package session

import (
	"sync"

	"shifa/internal/models"
)

// Step identifies how far the booking wizard has progressed. The step is
// derived from which selections are present, never stored on its own.
type Step string

const (
	StepEmpty            Step = "empty"
	StepDepartmentChosen Step = "department_chosen"
	StepDoctorChosen     Step = "doctor_chosen"
	StepDateChosen       Step = "date_chosen"
	StepTimeChosen       Step = "time_chosen"
)

// DefaultDurationMinutes is the appointment length used when the caller
// does not pick one.
const DefaultDurationMinutes = 30

// PrerequisiteError rejects a wizard transition whose earlier step has no
// data yet. The navigation layer reacts by moving backward; it is never
// surfaced to the user as an error.
type PrerequisiteError struct {
	Missing string
}

func (e *PrerequisiteError) Error() string {
	return "booking prerequisite missing: " + e.Missing
}

// BookingDraft is a point-in-time copy of the wizard's selections.
type BookingDraft struct {
	PreselectedService *models.Service
	Department         *models.Department
	Doctor             *models.Doctor
	Date               string // YYYY-MM-DD
	Time               string // HH:mm
	Duration           int    // minutes
	Patient            models.PatientForm
}

// Booking is the wizard state machine: department, doctor, date, time and
// patient info collected across sequential screens, each transition gated
// on the previous step's data being present.
type Booking struct {
	mu sync.Mutex

	preselected     *models.Service
	keepPreselected bool // suppress the next auto-reset once

	department      *models.Department
	doctor          *models.Doctor
	date            string
	timeLabel       string
	duration        int
	defaultDuration int
	patient         models.PatientForm
}

// NewBooking returns an empty wizard.
func NewBooking() *Booking {
	return &Booking{duration: DefaultDurationMinutes, defaultDuration: DefaultDurationMinutes}
}

// SetDefaultDuration changes the appointment length the wizard starts
// with and returns to on every reset. Non-positive values keep the
// built-in default.
func (b *Booking) SetDefaultDuration(minutes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if minutes <= 0 {
		minutes = DefaultDurationMinutes
	}
	b.defaultDuration = minutes
	b.duration = minutes
}

// Step derives the wizard's current step from the selections present.
func (b *Booking) Step() Step {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.timeLabel != "":
		return StepTimeChosen
	case b.date != "":
		return StepDateChosen
	case b.doctor != nil:
		return StepDoctorChosen
	case b.department != nil:
		return StepDepartmentChosen
	default:
		return StepEmpty
	}
}

// Preselect records a service deep-linked from a detail screen and keeps it
// through the next entry to the booking tab.
func (b *Booking) Preselect(svc models.Service) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.preselected = &svc
	b.keepPreselected = true
}

// Begin is called on entry to the booking tab. It resets the wizard unless
// a service was preselected just before, which suppresses the auto-reset
// for exactly one pass.
func (b *Booking) Begin() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.keepPreselected {
		b.keepPreselected = false
		return
	}
	b.resetLocked()
}

// SetDepartment is valid from any step. Changing department does not
// cascade-clear the doctor: the doctor screen re-fetches doctors scoped to
// the current department on every entry, so a stale doctor is overwritten
// on the next forward pass.
func (b *Booking) SetDepartment(d models.Department) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.department = &d
}

// SetDoctor requires a department: a doctor is meaningless without one.
func (b *Booking) SetDoctor(doc models.Doctor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.department == nil {
		return &PrerequisiteError{Missing: "department"}
	}
	b.doctor = &doc
	return nil
}

// SetDate requires a doctor and always clears the selected time: slot
// availability is date-dependent.
func (b *Booking) SetDate(date string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.doctor == nil {
		return &PrerequisiteError{Missing: "doctor"}
	}
	b.date = date
	b.timeLabel = ""
	return nil
}

// SetTime requires a doctor and a date.
func (b *Booking) SetTime(timeLabel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.doctor == nil {
		return &PrerequisiteError{Missing: "doctor"}
	}
	if b.date == "" {
		return &PrerequisiteError{Missing: "date"}
	}
	b.timeLabel = timeLabel
	return nil
}

// SetDuration overrides the appointment length for the booking being
// assembled; non-positive values fall back to the default.
func (b *Booking) SetDuration(minutes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if minutes <= 0 {
		minutes = b.defaultDuration
	}
	b.duration = minutes
}

// SetPatient records the patient-info form.
func (b *Booking) SetPatient(form models.PatientForm) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.patient = form
}

// Draft returns a copy of the current selections.
func (b *Booking) Draft() BookingDraft {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BookingDraft{
		PreselectedService: b.preselected,
		Department:         b.department,
		Doctor:             b.doctor,
		Date:               b.date,
		Time:               b.timeLabel,
		Duration:           b.duration,
		Patient:            b.patient,
	}
}

// ReadyToSubmit checks every submission prerequisite and names the first
// missing one. No network call may be issued while this returns an error.
func (b *Booking) ReadyToSubmit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.department == nil:
		return &PrerequisiteError{Missing: "department"}
	case b.doctor == nil:
		return &PrerequisiteError{Missing: "doctor"}
	case b.date == "":
		return &PrerequisiteError{Missing: "date"}
	case b.timeLabel == "":
		return &PrerequisiteError{Missing: "time"}
	case b.patient.Name == "":
		return &PrerequisiteError{Missing: "patient name"}
	case b.patient.Phone == "":
		return &PrerequisiteError{Missing: "patient phone"}
	case b.patient.NationalID == "":
		return &PrerequisiteError{Missing: "national id"}
	case b.patient.ReasonForVisit == "":
		return &PrerequisiteError{Missing: "reason for visit"}
	}
	return nil
}

// Reset clears every field back to the initial defaults. Idempotent and
// side-effect free on already-empty state.
func (b *Booking) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
}

func (b *Booking) resetLocked() {
	b.preselected = nil
	b.keepPreselected = false
	b.department = nil
	b.doctor = nil
	b.date = ""
	b.timeLabel = ""
	b.duration = b.defaultDuration
	b.patient = models.PatientForm{}
}
