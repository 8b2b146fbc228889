package service

import (
	"context"

	"github.com/rs/zerolog"

	"shifa/internal/events"
	"shifa/internal/metrics"
	"shifa/internal/models"
	"shifa/internal/session"
)

// CartGateway is the slice of the API client the cart flow needs.
type CartGateway interface {
	Cart(ctx context.Context, coupon string) (*models.Cart, error)
	AddItem(ctx context.Context, serviceID int64, quantity int) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, itemID int64, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, itemID int64) (*models.Cart, error)
	ApplyCoupon(ctx context.Context, code string) (*models.Cart, error)
	RemoveCoupon(ctx context.Context) (*models.Cart, error)
	CheckoutSummary(ctx context.Context, coupon string) (*models.Cart, error)
	ProcessCheckout(ctx context.Context, method models.PaymentMethod, coupon string) (*models.CheckoutResult, error)
}

// CartFlow reconciles the client's checkout selections with the
// server-held cart. The server stays authoritative for contents and
// totals; every mutation returns a fresh snapshot and the client renders
// the latest one.
type CartFlow struct {
	gateway CartGateway
	cart    *session.Cart
	bus     *events.Bus
	logger  zerolog.Logger
}

// NewCartFlow wires the flow to its collaborators.
func NewCartFlow(gateway CartGateway, cart *session.Cart, bus *events.Bus, logger zerolog.Logger) *CartFlow {
	return &CartFlow{gateway: gateway, cart: cart, bus: bus, logger: logger}
}

// Cart fetches the current snapshot, resending the pending coupon.
func (f *CartFlow) Cart(ctx context.Context) (*models.Cart, error) {
	cart, err := f.gateway.Cart(ctx, f.cart.CouponCode())
	return cart, recordAPIError(err)
}

// AddService puts a service into the cart.
func (f *CartFlow) AddService(ctx context.Context, serviceID int64, quantity int) (*models.Cart, error) {
	cart, err := f.gateway.AddItem(ctx, serviceID, quantity)
	return cart, recordAPIError(err)
}

// SetQuantity updates a line item. A quantity below one removes the item:
// the gateway is never sent quantity zero.
func (f *CartFlow) SetQuantity(ctx context.Context, itemID int64, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		cart, err := f.gateway.RemoveItem(ctx, itemID)
		return cart, recordAPIError(err)
	}
	cart, err := f.gateway.UpdateQuantity(ctx, itemID, quantity)
	return cart, recordAPIError(err)
}

// ApplyCoupon validates the code server-side; only on success is it
// recorded for display and resent on later reads.
func (f *CartFlow) ApplyCoupon(ctx context.Context, code string) (*models.Cart, error) {
	cart, err := f.gateway.ApplyCoupon(ctx, code)
	if err != nil {
		metrics.IncCouponApplied("failure")
		return nil, recordAPIError(err)
	}
	f.cart.SetCouponCode(code)
	metrics.IncCouponApplied("success")
	return cart, nil
}

// RemoveCoupon forgets the pending coupon locally and detaches it
// server-side. The local clear is unconditional; subsequent reads omit the
// code either way.
func (f *CartFlow) RemoveCoupon(ctx context.Context) (*models.Cart, error) {
	f.cart.ClearCoupon()
	cart, err := f.gateway.RemoveCoupon(ctx)
	if err != nil {
		f.logger.Warn().Err(err).Msg("server coupon removal failed")
		return nil, recordAPIError(err)
	}
	return cart, nil
}

// Summary fetches the priced checkout summary.
func (f *CartFlow) Summary(ctx context.Context) (*models.Cart, error) {
	cart, err := f.gateway.CheckoutSummary(ctx, f.cart.CouponCode())
	return cart, recordAPIError(err)
}

// Checkout starts payment with the selected method. On success the
// checkout selections reset and the caller opens RedirectURL externally;
// there is no callback, the cart is refetched afterwards.
func (f *CartFlow) Checkout(ctx context.Context) (*models.CheckoutResult, error) {
	result, err := f.gateway.ProcessCheckout(ctx, f.cart.PaymentMethod(), f.cart.CouponCode())
	if err != nil {
		return nil, recordAPIError(err)
	}
	f.cart.Reset()
	f.bus.Publish(events.Event{
		Type: events.TypeCheckoutStarted,
		Payload: events.CheckoutStarted{
			RedirectURL:   result.RedirectURL,
			PaymentMethod: result.PaymentMethod,
			Total:         result.Total,
		},
	})
	return result, nil
}

// SetPaymentMethod records the provider used at checkout time.
func (f *CartFlow) SetPaymentMethod(m models.PaymentMethod) bool {
	return f.cart.SetPaymentMethod(m)
}
