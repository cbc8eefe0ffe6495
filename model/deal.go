package model

import (
	"fmt"
	"time"
)

// Deal tracks one proposal through the negotiation workflow: document
// generation, accept/reject, signature and payment. Each deal is owned by
// the tenant that created it and advances through guarded status
// transitions only.
type Deal struct {
	ID              string          `json:"id"`
	Tenant          string          `json:"tenant"`
	CreatorUsername string          `json:"creator_username"`
	Platform        string          `json:"platform"`
	Status          string          `json:"status"`
	Proposal        ProposalForm    `json:"proposal"`
	Document        *GeneratedDoc   `json:"document,omitempty"`
	Signed          *SignedContract `json:"signed,omitempty"`
	Archive         *ArchiveRefs    `json:"archive,omitempty"`
	Order           *PaymentOrder   `json:"order,omitempty"`
	Payment         *PaymentRecord  `json:"payment,omitempty"`
	ErrorMsg        string          `json:"error_msg,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Deal status constants. A failed upstream call never advances a deal; it
// stays where it was, retryable by the user.
const (
	StatusIdle         = "idle"          // no generated document
	StatusGenerating   = "generating"    // /negotiate call in flight
	StatusReady        = "ready"         // email + contract generated, awaiting accept/reject
	StatusSigning      = "signing"       // accepted, awaiting signature
	StatusSigned       = "signed"        // signature uploaded, contract finalized
	StatusOrderPending = "order_pending" // create-order call in flight
	StatusOrderReady   = "order_ready"   // gateway order created, checkout open
	StatusPaid         = "paid"          // payment verified, terminal
)

// transitions lists the allowed successor statuses for each status.
var transitions = map[string][]string{
	StatusIdle:         {StatusGenerating},
	StatusGenerating:   {StatusReady, StatusIdle},
	StatusReady:        {StatusSigning, StatusIdle},
	StatusSigning:      {StatusSigned, StatusReady},
	StatusSigned:       {StatusOrderPending},
	StatusOrderPending: {StatusOrderReady, StatusSigned},
	StatusOrderReady:   {StatusPaid, StatusSigned},
	StatusPaid:         {},
}

// CanTransition reports whether a deal may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition advances the deal status, rejecting out-of-order moves.
func (d *Deal) Transition(to string) error {
	if !CanTransition(d.Status, to) {
		return fmt.Errorf("invalid transition from %s to %s", d.Status, to)
	}
	d.Status = to
	d.UpdatedAt = time.Now()
	return nil
}

// CreatorDetails identifies the creator a proposal targets.
type CreatorDetails struct {
	Username  string `json:"username"`
	Platform  string `json:"platform"`
	Followers int64  `json:"followers,omitempty"`
	Email     string `json:"email,omitempty"`
}

// CreatorEmail returns the creator's contact address, falling back to a
// username-derived placeholder when the profile has none.
func (c *CreatorDetails) CreatorEmail() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Username + "@example.com"
}

// ProposalForm is the immutable snapshot of the proposal form taken at
// submission time. Field names mirror the dashboard's submission payload.
type ProposalForm struct {
	RecruiterType       string         `json:"recruiterType" binding:"required,oneof=brand agency individual"`
	RecruiterFullName   string         `json:"recruiterFullName" binding:"required"`
	RecruiterName       string         `json:"recruiterName" binding:"required"`
	RecruiterEmail      string         `json:"recruiterEmail" binding:"required,email"`
	Budget              float64        `json:"budget" binding:"required,gt=0"`
	Proposal            string         `json:"proposal" binding:"required"`
	CampaignStart       string         `json:"campaignStart,omitempty"`
	CampaignEnd         string         `json:"campaignEnd,omitempty"`
	Deliverables        string         `json:"deliverables,omitempty"`
	ContentRequirements string         `json:"contentRequirements,omitempty"`
	PaymentTerms        string         `json:"paymentTerms,omitempty" binding:"omitempty,oneof=full split completion milestone"`
	Exclusivity         bool           `json:"exclusivity,omitempty"`
	Revisions           string         `json:"revisions,omitempty" binding:"omitempty,oneof=0 1 2 3 unlimited"`
	CreatorDetails      CreatorDetails `json:"creator_details" binding:"required"`
}

// GeneratedDoc is the result of a successful document generation call:
// an email template and, when the backend produced one, a contract id.
type GeneratedDoc struct {
	EmailTemplate string `json:"email_template"`
	ContractID    string `json:"contract_id,omitempty"`
}

// SignedContract is created exactly once per accepted proposal, after the
// signature upload succeeds.
type SignedContract struct {
	SignedContractID string    `json:"signed_contract_id"`
	Confirmation     string    `json:"confirmation"`
	SignedAt         time.Time `json:"signed_at"`
}

// ArchiveRefs records the object names under which a deal's finalized
// paperwork was archived.
type ArchiveRefs struct {
	SignaturePNG      string `json:"signature_png,omitempty"`
	SignedContractPDF string `json:"signed_contract_pdf,omitempty"`
}

// PaymentOrder is a gateway order awaiting checkout.
type PaymentOrder struct {
	OrderID   string    `json:"order_id"`
	KeyID     string    `json:"key_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentRecord exists only after order creation, checkout and server-side
// verification have all succeeded. Terminal for the deal.
type PaymentRecord struct {
	ID            string    `json:"id"`
	DealID        string    `json:"deal_id"`
	OrderID       string    `json:"order_id"`
	KeyID         string    `json:"key_id"`
	Amount        float64   `json:"amount"`
	CreatorEmail  string    `json:"creator_email"`
	TransactionID string    `json:"transaction_id"`
	PaymentDate   time.Time `json:"payment_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// CheckoutOptions is the configuration handed to the third-party checkout
// widget on the client. Amount is in minor units (paise).
type CheckoutOptions struct {
	Key         string          `json:"key"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	OrderID     string          `json:"order_id"`
	Prefill     CheckoutPrefill `json:"prefill"`
	Theme       CheckoutTheme   `json:"theme"`
}

type CheckoutPrefill struct {
	Email string `json:"email"`
}

type CheckoutTheme struct {
	Color string `json:"color"`
}

// CheckoutCompletion is the payload the widget's completion handler yields,
// forwarded verbatim to upstream verification.
type CheckoutCompletion struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}
