// Package models holds the wire and domain types shared by the API client,
// the session containers and the front end.
package models

// Department is a clinic department offering bookable doctors.
type Department struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Doctor belongs to exactly one department.
type Doctor struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	DepartmentID int64  `json:"department_id"`
	Photo        string `json:"photo,omitempty"`
}

// Service is a purchasable clinic service; it can be deep-linked into the
// booking wizard as a preselected service.
type Service struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
}

// Slot is a bookable time unit for a doctor on a date.
type Slot struct {
	Time      string `json:"time"`              // HH:mm
	Display   string `json:"display,omitempty"` // localized label, falls back to Time
	Available bool   `json:"available"`
}

// Label returns the user-facing label for the slot.
func (s Slot) Label() string {
	if s.Display != "" {
		return s.Display
	}
	return s.Time
}

// SlotDay is the availability of one doctor on one date.
type SlotDay struct {
	Working      bool   `json:"working"`
	WorkingHours string `json:"working_hours,omitempty"`
	Slots        []Slot `json:"slots"`
}

// AvailableSlots returns only the bookable slots of the day.
func (d *SlotDay) AvailableSlots() []Slot {
	var out []Slot
	for _, s := range d.Slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

// PatientForm is the data collected on the wizard's patient-info step.
type PatientForm struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	NationalID     string `json:"national_identity_number"`
	ReasonForVisit string `json:"reason_for_visit"`
}

// Appointment is a confirmed booking returned by the server.
type Appointment struct {
	ID           int64  `json:"id"`
	DoctorID     int64  `json:"doctor_id"`
	DepartmentID int64  `json:"department_id"`
	Date         string `json:"appointment_date"` // YYYY-MM-DD
	Time         string `json:"appointment_time"` // HH:mm
	Status       string `json:"status,omitempty"`
}

// User is the authenticated patient identity.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone"`
}

// Credential is a bearer token bound to a user identity. The two travel
// together: a credential with an empty token or a zero user is invalid.
type Credential struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type,omitempty"`
	User      User   `json:"user"`
}

// Valid reports whether the credential carries both a token and an identity.
func (c Credential) Valid() bool {
	return c.Token != "" && c.User.ID != 0
}

// PaymentMethod is a checkout payment provider.
type PaymentMethod string

const (
	PaymentMyFatoorah PaymentMethod = "myfatoorah"
	PaymentTabby      PaymentMethod = "tabby"
	PaymentTamara     PaymentMethod = "tamara"
)

// KnownPaymentMethod reports whether m is one of the supported providers.
func KnownPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMyFatoorah, PaymentTabby, PaymentTamara:
		return true
	}
	return false
}

// CartItem is a line item of the server-held cart.
type CartItem struct {
	ID        int64   `json:"id"`
	ServiceID int64   `json:"service_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// Cart is the server's authoritative cart snapshot.
type Cart struct {
	Items      []CartItem `json:"items"`
	Subtotal   float64    `json:"subtotal"`
	Discount   float64    `json:"discount"`
	Total      float64    `json:"total"`
	CouponCode string     `json:"coupon_code,omitempty"`
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// CheckoutResult is returned by the checkout-process endpoint; RedirectURL
// is opened in an external browser, there is no callback into the client.
type CheckoutResult struct {
	RedirectURL   string        `json:"redirect_url"`
	OrderIDs      []int64       `json:"order_ids"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Total         float64       `json:"total"`
}

// Invoice is a read-only billing record.
type Invoice struct {
	ID     int64   `json:"id"`
	Number string  `json:"number"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
}

// PointsEntry is one loyalty accrual or redemption.
type PointsEntry struct {
	ID          int64  `json:"id"`
	Points      int    `json:"points"` // negative for redemptions
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
}

// PointsBalance is the loyalty balance with its history.
type PointsBalance struct {
	Balance int           `json:"balance"`
	History []PointsEntry `json:"history,omitempty"`
}

// Offer is a promotional listing.
type Offer struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	OldPrice    float64 `json:"old_price,omitempty"`
	Image       string  `json:"image,omitempty"`
}

// BlogPost is a published article.
type BlogPost struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt,omitempty"`
	PublishedAt string `json:"published_at"`
}
