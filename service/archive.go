package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/si451/creatorconnect/backend/config"
)

// ArchiveService keeps copies of captured signature images and signed
// contracts in object storage, so finalized paperwork outlives the
// in-memory deal state.
type ArchiveService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewArchiveService(cfg *config.MinioConfig) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ArchiveService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// signatureObjectName builds the archive key for a deal's signature image.
func signatureObjectName(tenant, dealID string) string {
	return fmt.Sprintf("%s/%s/signature.png", tenant, dealID)
}

// signedContractObjectName builds the archive key for a deal's signed
// contract copy.
func signedContractObjectName(tenant, dealID string) string {
	return fmt.Sprintf("%s/%s/signed_contract.pdf", tenant, dealID)
}

// StoreSignature archives the captured signature PNG for a deal and
// returns the object name.
func (s *ArchiveService) StoreSignature(ctx context.Context, tenant, dealID string, pngData []byte) (string, error) {
	objectName := signatureObjectName(tenant, dealID)
	return objectName, s.put(ctx, objectName, pngData, "image/png")
}

// StoreSignedContract archives the finalized contract PDF for a deal and
// returns the object name.
func (s *ArchiveService) StoreSignedContract(ctx context.Context, tenant, dealID string, pdfData []byte) (string, error) {
	objectName := signedContractObjectName(tenant, dealID)
	return objectName, s.put(ctx, objectName, pdfData, "application/pdf")
}

func (s *ArchiveService) put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to archive object: %w", err)
	}
	return nil
}

// GetPresignedURL generates a presigned URL for an archived object with
// the configured expiration.
func (s *ArchiveService) GetPresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}
