package handler

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/si451/creatorconnect/backend/config"
	"github.com/si451/creatorconnect/backend/middleware"
	"github.com/si451/creatorconnect/backend/model"
	"github.com/si451/creatorconnect/backend/pkg/logger"
	"github.com/si451/creatorconnect/backend/service"
)

// PaymentRecorder persists verified payments. Satisfied by
// dao.PaymentRepository.
type PaymentRecorder interface {
	CreatePayment(tenant string, p *model.PaymentRecord) error
	GetByDealID(dealID string) (*model.PaymentRecord, error)
	ListByTenant(tenant string) ([]model.PaymentRecord, error)
}

type PaymentHandler struct {
	store    *service.DealStore
	upstream *service.Upstream
	payments PaymentRecorder
	checkout *config.CheckoutConfig
}

func NewPaymentHandler(store *service.DealStore, upstream *service.Upstream, payments PaymentRecorder, checkout *config.CheckoutConfig) *PaymentHandler {
	return &PaymentHandler{
		store:    store,
		upstream: upstream,
		payments: payments,
		checkout: checkout,
	}
}

// CreateOrder creates a gateway order for a signed deal and returns the
// checkout configuration the client hands to the payment widget. On
// failure the deal returns to signed, retryable.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	if err := deal.Transition(model.StatusOrderPending); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.store.Save(deal)

	creatorEmail := deal.Proposal.CreatorDetails.CreatorEmail()
	description := fmt.Sprintf("Payment to %s for campaign collaboration", deal.CreatorUsername)

	result, err := h.upstream.CreateOrder(c.Request.Context(), deal.Proposal.Budget, creatorEmail, description)
	if err != nil {
		logger.Error(c.Request.Context(), "order creation failed",
			"deal_id", deal.ID,
			"error", err,
		)
		_ = deal.Transition(model.StatusSigned) // order_pending -> signed after failure
		deal.ErrorMsg = err.Error()
		h.store.Save(deal)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": deal.Status})
		return
	}

	amount := result.Amount
	if amount == 0 {
		amount = deal.Proposal.Budget
	}

	deal.Order = &model.PaymentOrder{
		OrderID:   result.OrderID,
		KeyID:     result.KeyID,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
	deal.ErrorMsg = ""
	_ = deal.Transition(model.StatusOrderReady) // order_pending -> order_ready
	h.store.Save(deal)

	options := model.CheckoutOptions{
		Key:         result.KeyID,
		Amount:      int64(math.Round(amount * 100)),
		Currency:    h.checkout.Currency,
		Name:        h.checkout.MerchantName,
		Description: description,
		OrderID:     result.OrderID,
		Prefill:     model.CheckoutPrefill{Email: deal.Proposal.RecruiterEmail},
		Theme:       model.CheckoutTheme{Color: h.checkout.ThemeColor},
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       deal.ID,
		"status":   deal.Status,
		"checkout": options,
	})
}

// VerifyPayment submits the checkout completion payload for server-side
// verification. Only a verified payment moves the deal to paid; a deal that
// fails verification stays at order_ready so checkout can be retried.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	if deal.Status != model.StatusOrderReady || deal.Order == nil {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Deal is %s, no checkout in progress", deal.Status)})
		return
	}

	var completion model.CheckoutCompletion
	if err := c.ShouldBindJSON(&completion); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Incomplete checkout payload"})
		return
	}

	if completion.RazorpayOrderID != deal.Order.OrderID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order id does not match this deal"})
		return
	}

	result, err := h.upstream.VerifyPayment(c.Request.Context(), completion)
	if err != nil {
		logger.Error(c.Request.Context(), "payment verification failed",
			"deal_id", deal.ID,
			"order_id", deal.Order.OrderID,
			"error", err,
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": deal.Status})
		return
	}

	amount := result.Amount
	if amount == 0 {
		amount = deal.Order.Amount
	}
	creatorEmail := result.CreatorEmail
	if creatorEmail == "" {
		creatorEmail = deal.Proposal.CreatorDetails.CreatorEmail()
	}
	paymentDate := time.Now()
	if result.PaymentDate != "" {
		if parsed, perr := time.Parse(time.RFC3339, result.PaymentDate); perr == nil {
			paymentDate = parsed
		}
	}

	record := &model.PaymentRecord{
		ID:            ulid.Make().String(),
		DealID:        deal.ID,
		OrderID:       deal.Order.OrderID,
		KeyID:         deal.Order.KeyID,
		Amount:        amount,
		CreatorEmail:  creatorEmail,
		TransactionID: result.TransactionID,
		PaymentDate:   paymentDate,
		CreatedAt:     time.Now(),
	}

	// The payment is already verified upstream; a failure to record it must
	// not fail the user's checkout.
	if err := h.payments.CreatePayment(deal.Tenant, record); err != nil {
		logger.Error(c.Request.Context(), "failed to record payment",
			"deal_id", deal.ID,
			"order_id", record.OrderID,
			"error", err,
		)
	}

	deal.Payment = record
	_ = deal.Transition(model.StatusPaid) // order_ready -> paid, guarded above
	h.store.Save(deal)

	logger.Info(c.Request.Context(), "payment verified",
		"deal_id", deal.ID,
		"transaction_id", record.TransactionID,
		"amount", record.Amount,
	)

	c.JSON(http.StatusOK, gin.H{
		"id":      deal.ID,
		"status":  deal.Status,
		"message": "Payment successful",
		"payment": record,
	})
}

// DismissCheckout records that the user closed the checkout widget without
// paying. The gateway order stays usable, so the deal remains at
// order_ready and checkout can simply be reopened.
func (h *PaymentHandler) DismissCheckout(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	if deal.Status != model.StatusOrderReady {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Deal is %s, no checkout in progress", deal.Status)})
		return
	}

	logger.Info(c.Request.Context(), "checkout dismissed", "deal_id", deal.ID)

	c.JSON(http.StatusOK, gin.H{
		"id":      deal.ID,
		"status":  deal.Status,
		"message": "Checkout dismissed",
	})
}

// GetPayment returns the recorded payment for a deal. The record is read
// from durable storage rather than deal state, so it survives store
// eviction of old deals.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	record, err := h.payments.GetByDealID(deal.ID)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to load payment record",
			"deal_id", deal.ID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payment"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No payment recorded for this deal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      deal.ID,
		"payment": record,
	})
}

// ListPayments returns the tenant's verified payment history.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	tenant := middleware.GetTenant(c)

	payments, err := h.payments.ListByTenant(tenant)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list payments", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payments"})
		return
	}
	if payments == nil {
		payments = []model.PaymentRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *PaymentHandler) ownedDeal(c *gin.Context) *model.Deal {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	deal := h.store.Get(id)
	if deal == nil || deal.Tenant != tenant {
		c.JSON(http.StatusNotFound, gin.H{"error": "Deal not found"})
		return nil
	}
	return deal
}
