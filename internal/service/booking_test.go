package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shifa/internal/api"
	"shifa/internal/events"
	"shifa/internal/models"
	"shifa/internal/session"
)

type fakeBookingGateway struct {
	submitCalls int
	lastRequest api.BookingRequest
	response    *api.BookingResponse
	err         error
}

func (g *fakeBookingGateway) Doctors(context.Context, int64) ([]models.Doctor, error) {
	return nil, nil
}

func (g *fakeBookingGateway) Slots(context.Context, int64, string, int) (*models.SlotDay, error) {
	return &models.SlotDay{Working: true}, nil
}

func (g *fakeBookingGateway) SubmitBooking(_ context.Context, req api.BookingRequest) (*api.BookingResponse, error) {
	g.submitCalls++
	g.lastRequest = req
	if g.err != nil {
		return nil, g.err
	}
	return g.response, nil
}

type bookingFixture struct {
	gateway *fakeBookingGateway
	booking *session.Booking
	auth    *session.Auth
	bus     *events.Bus
	flow    *BookingFlow
}

func newBookingFixture(gateway *fakeBookingGateway) *bookingFixture {
	logger := zerolog.New(io.Discard)
	f := &bookingFixture{
		gateway: gateway,
		booking: session.NewBooking(),
		auth:    session.NewAuth(nil, logger),
		bus:     events.NewBus(),
	}
	f.flow = NewBookingFlow(gateway, f.booking, f.auth, f.bus, logger)
	return f
}

func (f *bookingFixture) advanceToTime(t *testing.T) {
	t.Helper()
	f.booking.SetDepartment(models.Department{ID: 1, Name: "Dermatology"})
	require.NoError(t, f.booking.SetDoctor(models.Doctor{ID: 7, DepartmentID: 1}))
	require.NoError(t, f.booking.SetDate("2025-03-10"))
	require.NoError(t, f.booking.SetTime("09:30"))
}

func validForm() models.PatientForm {
	return models.PatientForm{
		Name:           "Sara Al-Otaibi",
		Phone:          "+966512345678",
		NationalID:     "1012345678",
		ReasonForVisit: "follow-up",
	}
}

func TestSubmitRejectedWithoutPrerequisites(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*testing.T, *bookingFixture)
		missing string
	}{
		{"empty wizard", func(*testing.T, *bookingFixture) {}, "department"},
		{"no doctor", func(t *testing.T, f *bookingFixture) {
			f.booking.SetDepartment(models.Department{ID: 1})
		}, "doctor"},
		{"no time", func(t *testing.T, f *bookingFixture) {
			f.booking.SetDepartment(models.Department{ID: 1})
			require.NoError(t, f.booking.SetDoctor(models.Doctor{ID: 7}))
			require.NoError(t, f.booking.SetDate("2025-03-10"))
		}, "time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(&fakeBookingGateway{})
			tt.prepare(t, f)

			_, err := f.flow.Submit(context.Background(), validForm())

			var prereq *session.PrerequisiteError
			require.ErrorAs(t, err, &prereq)
			assert.Equal(t, tt.missing, prereq.Missing)
			// No network call may be issued for an incomplete wizard.
			assert.Zero(t, f.gateway.submitCalls)
		})
	}
}

func TestSubmitRejectsInvalidPhoneBeforeNetwork(t *testing.T) {
	f := newBookingFixture(&fakeBookingGateway{})
	f.advanceToTime(t)

	form := validForm()
	form.Phone = "0112345678"
	_, err := f.flow.Submit(context.Background(), form)

	require.ErrorIs(t, err, ErrInvalidPhone)
	assert.Zero(t, f.gateway.submitCalls)
}

func TestSubmitSendsCanonicalPhone(t *testing.T) {
	gateway := &fakeBookingGateway{response: &api.BookingResponse{
		Appointment: models.Appointment{ID: 42},
		Patient:     models.User{ID: 9, Name: "Sara"},
	}}
	f := newBookingFixture(gateway)
	f.advanceToTime(t)

	_, err := f.flow.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, "0512345678", gateway.lastRequest.Phone)
	assert.Equal(t, int64(7), gateway.lastRequest.DoctorID)
	assert.Equal(t, int64(1), gateway.lastRequest.DepartmentID)
	assert.Equal(t, "2025-03-10", gateway.lastRequest.AppointmentDate)
	assert.Equal(t, "09:30", gateway.lastRequest.AppointmentTime)
}

func TestSubmitCarriesPreselectedService(t *testing.T) {
	gateway := &fakeBookingGateway{response: &api.BookingResponse{
		Appointment: models.Appointment{ID: 42},
		Patient:     models.User{ID: 9},
	}}
	f := newBookingFixture(gateway)
	f.booking.Preselect(models.Service{ID: 33, Name: "Laser"})
	f.booking.Begin()
	f.advanceToTime(t)

	_, err := f.flow.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, int64(33), gateway.lastRequest.ServiceID)
}

func TestSubmitSuccessWithTokenAuthenticatesGuest(t *testing.T) {
	gateway := &fakeBookingGateway{response: &api.BookingResponse{
		Appointment: models.Appointment{ID: 42},
		Patient:     models.User{ID: 9, Name: "Sara", Phone: "0512345678"},
		Token:       "abc",
		TokenType:   "Bearer",
	}}
	f := newBookingFixture(gateway)
	f.advanceToTime(t)

	var confirmed *events.BookingSubmitted
	f.bus.Subscribe(events.TypeBookingSubmitted, func(e events.Event) {
		p := e.Payload.(events.BookingSubmitted)
		confirmed = &p
	})

	result, err := f.flow.Submit(context.Background(), validForm())
	require.NoError(t, err)

	// Token issuance is a visible, typed part of the result.
	require.NotNil(t, result.IssuedCredential)
	assert.Equal(t, "abc", result.IssuedCredential.Token)

	// Applied to the auth session atomically with the identity.
	assert.Equal(t, "abc", f.auth.Token())
	require.NotNil(t, f.auth.User())
	assert.Equal(t, int64(9), f.auth.User().ID)

	// The wizard resets after capturing the result.
	assert.Equal(t, session.StepEmpty, f.booking.Step())

	// The confirmation screen receives the appointment id.
	require.NotNil(t, confirmed)
	assert.Equal(t, int64(42), confirmed.Appointment.ID)
	assert.True(t, confirmed.TokenIssued)
}

func TestSubmitSuccessWithoutTokenLeavesGuest(t *testing.T) {
	gateway := &fakeBookingGateway{response: &api.BookingResponse{
		Appointment: models.Appointment{ID: 43},
		Patient:     models.User{ID: 9},
	}}
	f := newBookingFixture(gateway)
	f.advanceToTime(t)

	result, err := f.flow.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Nil(t, result.IssuedCredential)
	assert.False(t, f.auth.IsAuthenticated())
	assert.Equal(t, session.StepEmpty, f.booking.Step())
}

func TestSubmitFailureKeepsSession(t *testing.T) {
	gateway := &fakeBookingGateway{err: &api.Error{Kind: api.KindValidation, Status: 422, Message: "slot taken"}}
	f := newBookingFixture(gateway)
	f.advanceToTime(t)

	_, err := f.flow.Submit(context.Background(), validForm())
	require.Error(t, err)
	assert.True(t, api.IsValidationError(err))

	// The user stays on the patient-info step to correct and resubmit.
	assert.Equal(t, session.StepTimeChosen, f.booking.Step())
	d := f.booking.Draft()
	assert.Equal(t, "2025-03-10", d.Date)
	assert.Equal(t, "09:30", d.Time)
	assert.False(t, f.auth.IsAuthenticated())
}

func TestSubmitAppliesCredentialBeforeReset(t *testing.T) {
	// A second submit right after success must start from a clean wizard
	// while the credential survives.
	gateway := &fakeBookingGateway{response: &api.BookingResponse{
		Appointment: models.Appointment{ID: 42},
		Patient:     models.User{ID: 9, Name: "Sara"},
		Token:       "abc",
	}}
	f := newBookingFixture(gateway)
	f.advanceToTime(t)

	_, err := f.flow.Submit(context.Background(), validForm())
	require.NoError(t, err)

	_, err = f.flow.Submit(context.Background(), validForm())
	var prereq *session.PrerequisiteError
	require.ErrorAs(t, err, &prereq)
	assert.True(t, f.auth.IsAuthenticated())
	assert.Equal(t, 1, gateway.submitCalls)
}

func TestSubmitGatewayErrorPassesThrough(t *testing.T) {
	netErr := &api.Error{Kind: api.KindNetwork, Message: "could not reach the server"}
	gateway := &fakeBookingGateway{err: netErr}
	f := newBookingFixture(gateway)
	f.advanceToTime(t)

	_, err := f.flow.Submit(context.Background(), validForm())
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, api.KindNetwork, apiErr.Kind)
}
