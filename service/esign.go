package service

import (
	"context"
	"fmt"
	"net/url"
)

// SignatureUploadRequest finalizes an accepted contract with the captured
// signature image (a PNG data URL).
type SignatureUploadRequest struct {
	ContractID    string `json:"contract_id"`
	SignatureData string `json:"signature_data"`
	EmailTemplate string `json:"email_template"`
	CreatorEmail  string `json:"creator_email"`
	UserEmail     string `json:"user_email"`
}

type SignatureUploadResponse struct {
	Success          bool   `json:"success"`
	SignedContractID string `json:"signed_contract_id,omitempty"`
	Confirmation     string `json:"confirmation,omitempty"`
	Error            string `json:"error,omitempty"`
}

// UploadSignature sends the signature to the e-signature backend. On a
// success=false body the server-provided error message is surfaced, with a
// generic fallback when the server gave none.
func (u *Upstream) UploadSignature(ctx context.Context, req SignatureUploadRequest) (*SignatureUploadResponse, error) {
	var result SignatureUploadResponse
	if err := u.postJSON(ctx, "/signature/upload", req, &result); err != nil {
		return nil, err
	}

	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "Failed to process signature"
		}
		return nil, fmt.Errorf("signature upload rejected: %s", msg)
	}

	if result.Confirmation == "" {
		result.Confirmation = "Contract has been signed successfully."
	}
	return &result, nil
}

// DownloadSignedContract fetches the finalized, signed contract PDF.
func (u *Upstream) DownloadSignedContract(ctx context.Context, signedContractID string) ([]byte, string, error) {
	return u.download(ctx, "/download-signed-contract/"+url.PathEscape(signedContractID))
}
