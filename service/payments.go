package service

import (
	"context"
	"fmt"

	"github.com/si451/creatorconnect/backend/model"
)

// CreateOrderRequest asks the payment backend for a gateway order.
type CreateOrderRequest struct {
	Amount       float64 `json:"amount"`
	CreatorEmail string  `json:"creator_email"`
	Description  string  `json:"description"`
}

type CreateOrderResponse struct {
	Success  bool    `json:"success"`
	OrderID  string  `json:"order_id,omitempty"`
	KeyID    string  `json:"key_id,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Message  string  `json:"message,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type VerifyPaymentResponse struct {
	Success       bool    `json:"success"`
	Status        string  `json:"status,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	CreatorEmail  string  `json:"creator_email,omitempty"`
	TransactionID string  `json:"transaction_id,omitempty"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	PaymentDate   string  `json:"payment_date,omitempty"`
	Message       string  `json:"message,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// CreateOrder creates a gateway order for the given amount. Failure means
// checkout must not be opened.
func (u *Upstream) CreateOrder(ctx context.Context, amount float64, creatorEmail, description string) (*CreateOrderResponse, error) {
	var result CreateOrderResponse
	err := u.postJSON(ctx, "/payment/create-order", CreateOrderRequest{
		Amount:       amount,
		CreatorEmail: creatorEmail,
		Description:  description,
	}, &result)
	if err != nil {
		return nil, err
	}

	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = result.Error
		}
		if msg == "" {
			msg = "Failed to set up payment"
		}
		return nil, fmt.Errorf("order creation rejected: %s", msg)
	}

	return &result, nil
}

// VerifyPayment submits the checkout completion identifiers for
// server-side verification of the gateway signature.
func (u *Upstream) VerifyPayment(ctx context.Context, completion model.CheckoutCompletion) (*VerifyPaymentResponse, error) {
	var result VerifyPaymentResponse
	if err := u.postJSON(ctx, "/payment/verify", completion, &result); err != nil {
		return nil, err
	}

	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = result.Error
		}
		if msg == "" {
			msg = "Payment verification failed"
		}
		return nil, fmt.Errorf("payment verification rejected: %s", msg)
	}

	return &result, nil
}
