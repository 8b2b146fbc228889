package session

import (
	"sync"

	"shifa/internal/models"
)

// Cart is the thin client-side cache of checkout selections. The server
// holds the authoritative cart contents and totals; this session only
// remembers which coupon the user is in the process of applying and which
// payment method they picked.
type Cart struct {
	mu sync.Mutex

	pendingCoupon string
	payment       models.PaymentMethod
}

// NewCart returns a cart session with the default payment method.
func NewCart() *Cart {
	return &Cart{payment: models.PaymentMyFatoorah}
}

// CouponCode returns the pending coupon, empty when none is applied.
func (c *Cart) CouponCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingCoupon
}

// SetCouponCode records a coupon the server has accepted; it is resent on
// subsequent cart reads until removed.
func (c *Cart) SetCouponCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingCoupon = code
}

// ClearCoupon forgets the pending coupon.
func (c *Cart) ClearCoupon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingCoupon = ""
}

// PaymentMethod returns the selected payment method.
func (c *Cart) PaymentMethod() models.PaymentMethod {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payment
}

// SetPaymentMethod selects a payment method; unknown methods are ignored.
func (c *Cart) SetPaymentMethod(m models.PaymentMethod) bool {
	if !models.KnownPaymentMethod(m) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payment = m
	return true
}

// Reset clears the coupon and restores the default payment method.
func (c *Cart) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingCoupon = ""
	c.payment = models.PaymentMyFatoorah
}
