package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/si451/creatorconnect/backend/middleware"
	"github.com/si451/creatorconnect/backend/model"
	"github.com/si451/creatorconnect/backend/pkg/logger"
	"github.com/si451/creatorconnect/backend/service"
)

// ContractArchiver keeps copies of finalized paperwork and hands out
// download links for them. Satisfied by service.ArchiveService.
type ContractArchiver interface {
	StoreSignature(ctx context.Context, tenant, dealID string, pngData []byte) (string, error)
	StoreSignedContract(ctx context.Context, tenant, dealID string, pdfData []byte) (string, error)
	GetPresignedURL(ctx context.Context, objectName string) (string, error)
}

type SignatureHandler struct {
	store    *service.DealStore
	upstream *service.Upstream
	archive  ContractArchiver
}

func NewSignatureHandler(store *service.DealStore, upstream *service.Upstream, archive ContractArchiver) *SignatureHandler {
	return &SignatureHandler{
		store:    store,
		upstream: upstream,
		archive:  archive,
	}
}

type SignatureRequest struct {
	Strokes [][]service.Point `json:"strokes"`
}

// maxSignatureUpload bounds uploaded signature images.
const maxSignatureUpload = 5 << 20 // 5 MB

// Upload finalizes an accepted contract with a signature, either freehand
// strokes (JSON) or an uploaded image file (multipart). An empty canvas is
// rejected before any upstream call. On success the deal moves to signed;
// on failure it stays in signing, retryable.
func (h *SignatureHandler) Upload(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	if deal.Status != model.StatusSigning {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Deal is %s, not awaiting signature", deal.Status)})
		return
	}
	if deal.Document == nil || deal.Document.ContractID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "No contract available for this deal"})
		return
	}

	pad := service.NewSignaturePad()
	if err := h.fillPad(c, pad); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if pad.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a signature before submitting"})
		return
	}

	dataURL, err := pad.DataURL()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode signature"})
		return
	}

	result, err := h.upstream.UploadSignature(c.Request.Context(), service.SignatureUploadRequest{
		ContractID:    deal.Document.ContractID,
		SignatureData: dataURL,
		EmailTemplate: deal.Document.EmailTemplate,
		CreatorEmail:  deal.Proposal.CreatorDetails.CreatorEmail(),
		UserEmail:     deal.Proposal.RecruiterEmail,
	})
	if err != nil {
		logger.Error(c.Request.Context(), "signature upload failed",
			"deal_id", deal.ID,
			"contract_id", deal.Document.ContractID,
			"error", err,
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": deal.Status})
		return
	}

	deal.Signed = &model.SignedContract{
		SignedContractID: result.SignedContractID,
		Confirmation:     result.Confirmation,
		SignedAt:         time.Now(),
	}
	_ = deal.Transition(model.StatusSigned) // signing -> signed, guarded above
	h.store.Save(deal)

	// Archival is best effort; the contract is already finalized upstream.
	if pngData, err := pad.PNG(); err == nil {
		objectName, err := h.archive.StoreSignature(c.Request.Context(), deal.Tenant, deal.ID, pngData)
		if err != nil {
			logger.Warn(c.Request.Context(), "failed to archive signature",
				"deal_id", deal.ID,
				"error", err,
			)
		} else {
			if deal.Archive == nil {
				deal.Archive = &model.ArchiveRefs{}
			}
			deal.Archive.SignaturePNG = objectName
			h.store.Save(deal)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                 deal.ID,
		"status":             deal.Status,
		"signed_contract_id": deal.Signed.SignedContractID,
		"confirmation":       deal.Signed.Confirmation,
	})
}

// Cancel abandons the signature step and returns the deal to ready, where
// the generated documents can still be reviewed or rejected.
func (h *SignatureHandler) Cancel(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	if err := deal.Transition(model.StatusReady); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.store.Save(deal)

	c.JSON(http.StatusOK, gin.H{
		"id":      deal.ID,
		"status":  deal.Status,
		"message": "Signing cancelled",
	})
}

// DownloadSigned streams the finalized, signed contract PDF.
func (h *SignatureHandler) DownloadSigned(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	if deal.Signed == nil || deal.Signed.SignedContractID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract has not been signed yet"})
		return
	}

	data, contentType, err := h.upstream.DownloadSignedContract(c.Request.Context(), deal.Signed.SignedContractID)
	if err != nil {
		logger.Error(c.Request.Context(), "signed contract download failed",
			"deal_id", deal.ID,
			"signed_contract_id", deal.Signed.SignedContractID,
			"error", err,
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to download signed contract"})
		return
	}

	// Keep an archived copy the first time the signed PDF passes through.
	if deal.Archive == nil || deal.Archive.SignedContractPDF == "" {
		objectName, err := h.archive.StoreSignedContract(c.Request.Context(), deal.Tenant, deal.ID, data)
		if err != nil {
			logger.Warn(c.Request.Context(), "failed to archive signed contract",
				"deal_id", deal.ID,
				"error", err,
			)
		} else {
			if deal.Archive == nil {
				deal.Archive = &model.ArchiveRefs{}
			}
			deal.Archive.SignedContractPDF = objectName
			h.store.Save(deal)
		}
	}

	filename := fmt.Sprintf("signed_contract_%s.pdf", deal.Signed.SignedContractID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// ArchiveLinks returns presigned download URLs for the deal's archived
// paperwork. Objects are archived when the signature is captured and when
// the signed contract is first downloaded, so missing entries just mean
// that step hasn't happened yet.
func (h *SignatureHandler) ArchiveLinks(c *gin.Context) {
	deal := h.ownedDeal(c)
	if deal == nil {
		return
	}

	if deal.Archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No archived paperwork for this deal"})
		return
	}

	links := gin.H{}
	if deal.Archive.SignaturePNG != "" {
		url, err := h.archive.GetPresignedURL(c.Request.Context(), deal.Archive.SignaturePNG)
		if err != nil {
			logger.Error(c.Request.Context(), "failed to presign archived signature",
				"deal_id", deal.ID,
				"error", err,
			)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate archive links"})
			return
		}
		links["signature_png"] = url
	}
	if deal.Archive.SignedContractPDF != "" {
		url, err := h.archive.GetPresignedURL(c.Request.Context(), deal.Archive.SignedContractPDF)
		if err != nil {
			logger.Error(c.Request.Context(), "failed to presign archived contract",
				"deal_id", deal.ID,
				"error", err,
			)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate archive links"})
			return
		}
		links["signed_contract_pdf"] = url
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    deal.ID,
		"links": links,
	})
}

// fillPad renders the request's signature onto the pad: an uploaded image
// for multipart requests, freehand strokes for JSON.
func (h *SignatureHandler) fillPad(c *gin.Context, pad *service.SignaturePad) error {
	contentType := c.GetHeader("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			return fmt.Errorf("no signature file provided")
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxSignatureUpload+1))
		if err != nil {
			return fmt.Errorf("failed to read signature file")
		}
		if len(data) > maxSignatureUpload {
			return fmt.Errorf("signature file too large")
		}
		return pad.LoadImage(data)
	}

	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return fmt.Errorf("invalid signature payload")
	}
	pad.DrawStrokes(req.Strokes)
	return nil
}

func (h *SignatureHandler) ownedDeal(c *gin.Context) *model.Deal {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	deal := h.store.Get(id)
	if deal == nil || deal.Tenant != tenant {
		c.JSON(http.StatusNotFound, gin.H{"error": "Deal not found"})
		return nil
	}
	return deal
}
