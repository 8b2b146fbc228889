// Package service is the thin orchestration layer between the session
// containers and the API gateway: sessions stay pure state, network calls
// and their side effects live here.
package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"shifa/internal/api"
	"shifa/internal/events"
	"shifa/internal/metrics"
	"shifa/internal/models"
	"shifa/internal/phone"
	"shifa/internal/session"
)

// ErrInvalidPhone rejects a patient form whose phone is not a Saudi mobile
// number in any accepted spelling.
var ErrInvalidPhone = errors.New("phone is not a valid Saudi mobile number")

// BookingGateway is the slice of the API client the booking flow needs.
type BookingGateway interface {
	Doctors(ctx context.Context, departmentID int64) ([]models.Doctor, error)
	Slots(ctx context.Context, doctorID int64, date string, duration int) (*models.SlotDay, error)
	SubmitBooking(ctx context.Context, req api.BookingRequest) (*api.BookingResponse, error)
}

// BookingResult is the visible outcome of a submission. IssuedCredential is
// non-nil when the server auto-registered a guest patient; applying it to
// the auth session is this flow's responsibility, not a hidden callback.
type BookingResult struct {
	Appointment      models.Appointment
	Patient          models.User
	IssuedCredential *models.Credential
}

// BookingFlow drives the wizard's network-bound operations.
type BookingFlow struct {
	gateway BookingGateway
	booking *session.Booking
	auth    *session.Auth
	bus     *events.Bus
	logger  zerolog.Logger
}

// NewBookingFlow wires the flow to its collaborators.
func NewBookingFlow(gateway BookingGateway, booking *session.Booking, auth *session.Auth, bus *events.Bus, logger zerolog.Logger) *BookingFlow {
	return &BookingFlow{
		gateway: gateway,
		booking: booking,
		auth:    auth,
		bus:     bus,
		logger:  logger,
	}
}

// Doctors lists doctors for the wizard's department screen.
func (f *BookingFlow) Doctors(ctx context.Context, departmentID int64) ([]models.Doctor, error) {
	doctors, err := f.gateway.Doctors(ctx, departmentID)
	return doctors, recordAPIError(err)
}

// Slots lists a doctor's availability for the wizard's time screen, using
// the duration currently selected in the session.
func (f *BookingFlow) Slots(ctx context.Context, doctorID int64, date string) (*models.SlotDay, error) {
	day, err := f.gateway.Slots(ctx, doctorID, date, f.booking.Draft().Duration)
	return day, recordAPIError(err)
}

// Submit completes the wizard. No network call is issued unless every
// prerequisite is present; on success the session resets and any issued
// credential is applied to the auth session in the same pass. On failure
// the session is left intact so the user can correct and resubmit.
func (f *BookingFlow) Submit(ctx context.Context, form models.PatientForm) (*BookingResult, error) {
	if !phone.Valid(form.Phone) {
		return nil, ErrInvalidPhone
	}
	form.Phone = phone.Normalize(form.Phone)
	f.booking.SetPatient(form)

	if err := f.booking.ReadyToSubmit(); err != nil {
		return nil, err
	}

	draft := f.booking.Draft()
	req := api.BookingRequest{
		DoctorID:        draft.Doctor.ID,
		DepartmentID:    draft.Department.ID,
		AppointmentDate: draft.Date,
		AppointmentTime: draft.Time,
		Name:            draft.Patient.Name,
		Phone:           draft.Patient.Phone,
		NationalID:      draft.Patient.NationalID,
		ReasonForVisit:  draft.Patient.ReasonForVisit,
	}
	if draft.PreselectedService != nil {
		req.ServiceID = draft.PreselectedService.ID
	}

	resp, err := f.gateway.SubmitBooking(ctx, req)
	if err != nil {
		metrics.IncBookingSubmitted("failure")
		return nil, recordAPIError(err)
	}

	result := &BookingResult{
		Appointment: resp.Appointment,
		Patient:     resp.Patient,
	}
	if resp.Token != "" {
		result.IssuedCredential = &models.Credential{
			Token:     resp.Token,
			TokenType: resp.TokenType,
			User:      resp.Patient,
		}
	}

	// Guest auto-registration: the issued token and identity land on the
	// auth session together, before the wizard resets.
	if result.IssuedCredential != nil {
		if err := f.auth.Apply(ctx, *result.IssuedCredential); err != nil {
			f.logger.Warn().Err(err).Msg("apply issued credential failed")
		} else {
			metrics.IncAuthEvent("booking_issued")
			f.bus.Publish(events.Event{Type: events.TypeCredentialIssued, Payload: *result.IssuedCredential})
		}
	}

	f.booking.Reset()
	metrics.IncBookingSubmitted("success")
	f.bus.Publish(events.Event{
		Type: events.TypeBookingSubmitted,
		Payload: events.BookingSubmitted{
			Appointment: result.Appointment,
			Patient:     result.Patient,
			TokenIssued: result.IssuedCredential != nil,
		},
	})
	return result, nil
}

// recordAPIError counts normalized gateway errors and passes err through.
func recordAPIError(err error) error {
	if apiErr, ok := api.AsError(err); ok {
		metrics.IncAPIError(apiErr.Kind.String())
	}
	return err
}
