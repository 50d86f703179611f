package backend

import (
	"context"
	"net/http"
	"net/url"
)

// PaymentCandidate is the registration a payment belongs to.
type PaymentCandidate struct {
	Name          string  `json:"name"`
	Gender        string  `json:"gender,omitempty"`
	PaymentStatus string  `json:"paymentStatus"`
	PaymentAmount float64 `json:"paymentAmount,omitempty"`
	PaymentID     string  `json:"paymentId,omitempty"`
	OrderID       string  `json:"orderId,omitempty"`
}

// PaymentStatus is the body of verify-payment.
type PaymentStatus struct {
	Success   bool              `json:"success"`
	Candidate *PaymentCandidate `json:"candidate"`
}

// VerifyPayment reads the current payment state of registration id.
func (c *Client) VerifyPayment(ctx context.Context, id string) (*PaymentStatus, error) {
	var out PaymentStatus
	if err := c.doJSON(ctx, http.MethodGet, "/users/verify-payment/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyPaymentNow asks the backend to reconcile an order with the payment
// processor immediately. It reports whether the payment was found.
func (c *Client) VerifyPaymentNow(ctx context.Context, orderID, paymentID string) (bool, error) {
	var out struct {
		Success bool `json:"success"`
	}
	payload := map[string]string{"orderId": orderID, "paymentId": paymentID}
	if err := c.doJSON(ctx, http.MethodPost, "/users/verify-payment-immediately", nil, payload, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}
