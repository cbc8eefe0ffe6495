package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/si451/creatorconnect/backend/middleware"
	"github.com/si451/creatorconnect/backend/model"
	"github.com/si451/creatorconnect/backend/pkg/logger"
	"github.com/si451/creatorconnect/backend/service"
)

type DealHandler struct {
	store    *service.DealStore
	upstream *service.Upstream
}

func NewDealHandler(store *service.DealStore, upstream *service.Upstream) *DealHandler {
	return &DealHandler{
		store:    store,
		upstream: upstream,
	}
}

// Create submits a proposal and generates the outreach email and contract
// for it. Generation is a single attempt: on failure the deal returns to
// idle with the failure message and the user resubmits when ready.
func (h *DealHandler) Create(c *gin.Context) {
	tenant := middleware.GetTenant(c)

	var form model.ProposalForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid proposal: " + err.Error()})
		return
	}

	now := time.Now()
	deal := &model.Deal{
		ID:              uuid.New().String(),
		Tenant:          tenant,
		CreatorUsername: form.CreatorDetails.Username,
		Platform:        form.CreatorDetails.Platform,
		Status:          model.StatusIdle,
		Proposal:        form,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_ = deal.Transition(model.StatusGenerating) // idle -> generating on a fresh deal
	h.store.Save(deal)

	result, err := h.upstream.GenerateDocuments(c.Request.Context(), form)
	if err != nil {
		logger.Error(c.Request.Context(), "document generation failed",
			"deal_id", deal.ID,
			"error", err,
		)
		_ = deal.Transition(model.StatusIdle) // generation failed, back to idle
		deal.ErrorMsg = err.Error()
		h.store.Save(deal)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   err.Error(),
			"deal_id": deal.ID,
			"status":  deal.Status,
		})
		return
	}

	deal.Document = &model.GeneratedDoc{
		EmailTemplate: result.EmailTemplate,
		ContractID:    result.ContractID,
	}
	deal.ErrorMsg = ""
	_ = deal.Transition(model.StatusReady) // generating -> ready
	h.store.Save(deal)

	logger.Info(c.Request.Context(), "documents generated",
		"deal_id", deal.ID,
		"contract_id", result.ContractID,
	)

	c.JSON(http.StatusOK, h.dealResponse(deal))
}

// List returns all deals for the current tenant, newest first.
func (h *DealHandler) List(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	deals := h.store.GetByTenant(tenant)

	result := make([]gin.H, len(deals))
	for i, deal := range deals {
		result[i] = gin.H{
			"id":               deal.ID,
			"creator_username": deal.CreatorUsername,
			"platform":         deal.Platform,
			"status":           deal.Status,
			"budget":           deal.Proposal.Budget,
			"created_at":       deal.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			"updated_at":       deal.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	c.JSON(http.StatusOK, gin.H{"deals": result})
}

// Get returns a single deal with its generated documents.
func (h *DealHandler) Get(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	c.JSON(http.StatusOK, h.dealResponse(deal))
}

// Accept moves a generated proposal into the signing step.
func (h *DealHandler) Accept(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	if err := deal.Transition(model.StatusSigning); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.store.Save(deal)

	c.JSON(http.StatusOK, gin.H{
		"id":      deal.ID,
		"status":  deal.Status,
		"message": "Proposal accepted. Please sign the contract to continue.",
	})
}

// Reject discards the generated documents and returns the deal to idle so
// the proposal can be revised and resubmitted.
func (h *DealHandler) Reject(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	if err := deal.Transition(model.StatusIdle); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	deal.Document = nil
	h.store.Save(deal)

	c.JSON(http.StatusOK, gin.H{
		"id":      deal.ID,
		"status":  deal.Status,
		"message": "Proposal rejected. Revise the terms and resubmit to generate new documents.",
	})
}

// DownloadContract streams the unsigned contract PDF for review.
func (h *DealHandler) DownloadContract(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	if deal.Document == nil || deal.Document.ContractID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No contract available for this deal"})
		return
	}

	data, contentType, err := h.upstream.DownloadContract(c.Request.Context(), deal.Document.ContractID)
	if err != nil {
		logger.Error(c.Request.Context(), "contract download failed",
			"deal_id", deal.ID,
			"contract_id", deal.Document.ContractID,
			"error", err,
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to download contract"})
		return
	}

	filename := fmt.Sprintf("contract_%s.pdf", deal.Document.ContractID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// dealResponse builds the full deal payload, splitting the email template
// into subject and body when a document exists.
func (h *DealHandler) dealResponse(deal *model.Deal) gin.H {
	resp := gin.H{
		"id":               deal.ID,
		"creator_username": deal.CreatorUsername,
		"platform":         deal.Platform,
		"status":           deal.Status,
		"proposal":         deal.Proposal,
		"created_at":       deal.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		"updated_at":       deal.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if deal.ErrorMsg != "" {
		resp["error_msg"] = deal.ErrorMsg
	}
	if deal.Document != nil {
		subject, body := model.SplitEmail(deal.Document.EmailTemplate)
		resp["document"] = gin.H{
			"email_template":     deal.Document.EmailTemplate,
			"email_subject":      subject,
			"email_body":         body,
			"contract_id":        deal.Document.ContractID,
			"contract_available": deal.Document.ContractID != "",
		}
	}
	if deal.Signed != nil {
		resp["signed"] = deal.Signed
	}
	if deal.Order != nil {
		resp["order"] = deal.Order
	}
	if deal.Payment != nil {
		resp["payment"] = deal.Payment
	}
	return resp
}

// ownedDeal resolves the :id param to a deal owned by the caller's tenant.
func (h *DealHandler) ownedDeal(c *gin.Context) *model.Deal {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	deal := h.store.Get(id)
	if deal == nil || deal.Tenant != tenant {
		c.JSON(http.StatusNotFound, gin.H{"error": "Deal not found"})
		return nil
	}
	return deal
}
