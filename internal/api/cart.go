package api

import (
	"context"
	"fmt"
	"net/url"

	"shifa/internal/models"
)

func couponQuery(coupon string) url.Values {
	q := url.Values{}
	if coupon != "" {
		q.Set("coupon_code", coupon)
	}
	return q
}

// Cart fetches the authoritative cart snapshot. A pending coupon is resent
// on every read until the user removes it or completes checkout. Never
// cached: the cart must always reflect the server's latest state.
func (c *Client) Cart(ctx context.Context, coupon string) (*models.Cart, error) {
	var cart models.Cart
	if _, err := c.get(ctx, "/site/cart", couponQuery(coupon), "", &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem puts a service into the cart and returns the new snapshot.
func (c *Client) AddItem(ctx context.Context, serviceID int64, quantity int) (*models.Cart, error) {
	body := map[string]any{"service_id": serviceID, "quantity": quantity}
	var cart models.Cart
	if err := c.send(ctx, "POST", "/site/cart", body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpdateQuantity changes a line item's quantity. Callers map quantities
// below one to RemoveItem instead of sending zero.
func (c *Client) UpdateQuantity(ctx context.Context, itemID int64, quantity int) (*models.Cart, error) {
	body := map[string]any{"quantity": quantity}
	var cart models.Cart
	if err := c.send(ctx, "PUT", fmt.Sprintf("/site/cart/items/%d", itemID), body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveItem deletes a line item.
func (c *Client) RemoveItem(ctx context.Context, itemID int64) (*models.Cart, error) {
	var cart models.Cart
	if err := c.send(ctx, "DELETE", fmt.Sprintf("/site/cart/items/%d", itemID), nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ApplyCoupon validates a coupon against the cart server-side.
func (c *Client) ApplyCoupon(ctx context.Context, code string) (*models.Cart, error) {
	body := map[string]any{"coupon_code": code}
	var cart models.Cart
	if err := c.send(ctx, "POST", "/site/cart/coupon", body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveCoupon detaches any coupon from the server-side cart.
func (c *Client) RemoveCoupon(ctx context.Context) (*models.Cart, error) {
	var cart models.Cart
	if err := c.send(ctx, "DELETE", "/site/cart/coupon", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// CheckoutSummary fetches the priced summary, including the pending coupon
// when present.
func (c *Client) CheckoutSummary(ctx context.Context, coupon string) (*models.Cart, error) {
	var cart models.Cart
	if _, err := c.get(ctx, "/site/checkout/summary", couponQuery(coupon), "", &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

type checkoutRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	CouponCode    string               `json:"coupon_code,omitempty"`
}

// ProcessCheckout starts payment and returns the redirect the front end
// opens in an external browser. There is no webhook back into the client;
// callers refetch the cart afterwards.
func (c *Client) ProcessCheckout(ctx context.Context, method models.PaymentMethod, coupon string) (*models.CheckoutResult, error) {
	var result models.CheckoutResult
	req := checkoutRequest{PaymentMethod: method, CouponCode: coupon}
	if err := c.send(ctx, "POST", "/site/checkout/process", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
