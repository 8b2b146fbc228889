package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"shifa/internal/models"
)

// Doctors lists the doctors of one department. Cached per department so a
// stale response for a previously selected department is never applied to
// the current one.
func (c *Client) Doctors(ctx context.Context, departmentID int64) ([]models.Doctor, error) {
	q := url.Values{"department_id": {strconv.FormatInt(departmentID, 10)}}
	cacheKey := fmt.Sprintf("doctors:%d", departmentID)

	var doctors []models.Doctor
	if _, err := c.get(ctx, "/site/booking/doctors", q, cacheKey, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

// Slots fetches a doctor's availability for a date. The cache key carries
// the full (doctor, date, duration) tuple.
func (c *Client) Slots(ctx context.Context, doctorID int64, date string, duration int) (*models.SlotDay, error) {
	q := url.Values{
		"doctor_id": {strconv.FormatInt(doctorID, 10)},
		"date":      {date},
		"duration":  {strconv.Itoa(duration)},
	}
	cacheKey := fmt.Sprintf("slots:%d:%s:%d", doctorID, date, duration)

	var day models.SlotDay
	if _, err := c.get(ctx, "/site/booking/slots", q, cacheKey, &day); err != nil {
		return nil, err
	}
	return &day, nil
}

// BookingRequest is the booking-submission payload. Phone must already be
// in canonical 05 form.
type BookingRequest struct {
	DoctorID        int64  `json:"doctor_id"`
	DepartmentID    int64  `json:"department_id"`
	AppointmentDate string `json:"appointment_date"` // YYYY-MM-DD
	AppointmentTime string `json:"appointment_time"` // HH:mm
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	NationalID      string `json:"national_identity_number"`
	ReasonForVisit  string `json:"reason_for_visit,omitempty"`
	ServiceID       int64  `json:"service_id,omitempty"`
}

// BookingResponse carries the confirmed appointment plus, when the server
// auto-registered a guest patient, a freshly issued token.
type BookingResponse struct {
	Appointment models.Appointment `json:"appointment"`
	Patient     models.User        `json:"patient"`
	Token       string             `json:"token,omitempty"`
	TokenType   string             `json:"token_type,omitempty"`
}

// SubmitBooking posts the completed wizard to the gateway.
func (c *Client) SubmitBooking(ctx context.Context, req BookingRequest) (*BookingResponse, error) {
	var resp BookingResponse
	if err := c.send(ctx, "POST", "/site/booking", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
