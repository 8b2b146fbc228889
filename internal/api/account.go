package api

import (
	"context"
	"fmt"

	"shifa/internal/models"
)

// Invoices lists the patient's invoices, paginated. Requires a token; the
// gateway answers 401 for guests.
func (c *Client) Invoices(ctx context.Context, page int) ([]models.Invoice, *Meta, error) {
	var out []models.Invoice
	meta, err := c.get(ctx, "/site/invoices", pageQuery(page), "", &out)
	if err != nil {
		return nil, nil, err
	}
	return out, meta, nil
}

// Points fetches the loyalty balance and history.
func (c *Client) Points(ctx context.Context) (*models.PointsBalance, error) {
	var out models.PointsBalance
	if _, err := c.get(ctx, "/site/points", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Appointments lists the patient's appointments, paginated.
func (c *Client) Appointments(ctx context.Context, page int) ([]models.Appointment, *Meta, error) {
	var out []models.Appointment
	meta, err := c.get(ctx, "/site/appointments", pageQuery(page), "", &out)
	if err != nil {
		return nil, nil, err
	}
	return out, meta, nil
}

// CancelAppointment cancels one of the patient's appointments.
func (c *Client) CancelAppointment(ctx context.Context, id int64) error {
	return c.send(ctx, "DELETE", fmt.Sprintf("/site/appointments/%d", id), nil, nil)
}
