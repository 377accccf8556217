package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
)

type documentStore interface {
	Create(ctx context.Context, document *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListByTender(ctx context.Context, tenderID string) ([]models.Document, error)
	LatestVersion(ctx context.Context, id string) (int, error)
}

type objectStore interface {
	StoreStream(r io.Reader, contentType string) (string, error)
	Open(ref string) (*os.File, error)
	Delete(ref string) error
}

type urlSigner interface {
	Generate(documentID, ref string) (string, time.Time, error)
	Parse(token string) (documentID, ref string, expiresAt time.Time, err error)
}

// DocumentUpload carries an incoming file and its metadata.
type DocumentUpload struct {
	TenderID           string
	DocumentType       models.DocumentType
	FileName           string
	ContentType        string
	Size               int64
	Body               io.Reader
	ReplacesDocumentID *string
}

// SignedLink is a short-lived download grant for a stored document.
type SignedLink struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentService stores tender documents as immutable versioned rows with
// the file payload in the object store. Downloads go through signed,
// expiring tokens so the store itself is never exposed.
type DocumentService struct {
	documents    documentStore
	tenders      tenderStore
	objects      objectStore
	signer       urlSigner
	access       *AccessService
	maxFileSize  int64
	allowedMIMEs map[string]struct{}
	logger       *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(
	documents documentStore,
	tenders tenderStore,
	objects objectStore,
	signer urlSigner,
	access *AccessService,
	maxFileSize int64,
	allowedMIMEs []string,
	logger *zap.Logger,
) *DocumentService {
	allowed := make(map[string]struct{}, len(allowedMIMEs))
	for _, m := range allowedMIMEs {
		allowed[m] = struct{}{}
	}
	return &DocumentService{
		documents:    documents,
		tenders:      tenders,
		objects:      objects,
		signer:       signer,
		access:       access,
		maxFileSize:  maxFileSize,
		allowedMIMEs: allowed,
		logger:       logger,
	}
}

// Upload validates and stores a document against a tender. Superseding an
// existing document bumps the version and chains back to it.
func (s *DocumentService) Upload(ctx context.Context, actor *models.Actor, upload DocumentUpload) (*models.Document, error) {
	if !upload.DocumentType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown document type")
	}
	if s.maxFileSize > 0 && upload.Size > s.maxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit")
	}
	if len(s.allowedMIMEs) > 0 {
		if _, ok := s.allowedMIMEs[upload.ContentType]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "content type is not allowed")
		}
	}

	tender, err := s.tenders.GetByID(ctx, upload.TenderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tender not found")
		}
		return nil, appErrors.Internal(err, "load tender")
	}
	if err := s.access.AuthorizeDocumentUpload(actor, tender, upload.DocumentType); err != nil {
		return nil, err
	}

	version := 1
	if upload.ReplacesDocumentID != nil {
		prior, err := s.documents.LatestVersion(ctx, *upload.ReplacesDocumentID)
		if err != nil {
			return nil, appErrors.Internal(err, "resolve prior version")
		}
		if prior == 0 {
			return nil, appErrors.Clone(appErrors.ErrReferentialViolation, "replaced document not found")
		}
		version = prior + 1
	}

	body := upload.Body
	if s.maxFileSize > 0 {
		body = io.LimitReader(body, s.maxFileSize+1)
	}
	ref, err := s.objects.StoreStream(body, upload.ContentType)
	if err != nil {
		return nil, appErrors.Internal(err, "store document file")
	}

	document := &models.Document{
		TenderID:           tender.ID,
		UploaderID:         actor.ID,
		DocumentType:       upload.DocumentType,
		FileName:           upload.FileName,
		FileURL:            ref,
		ContentType:        upload.ContentType,
		VersionNumber:      version,
		ReplacesDocumentID: upload.ReplacesDocumentID,
	}
	if err := s.documents.Create(ctx, document); err != nil {
		if cleanupErr := s.objects.Delete(ref); cleanupErr != nil {
			s.logger.Warn("orphaned document file", zap.String("ref", ref), zap.Error(cleanupErr))
		}
		return nil, appErrors.Internal(err, "create document record")
	}

	s.logger.Info("document uploaded",
		zap.String("document_id", document.ID),
		zap.String("tender_id", tender.ID),
		zap.String("document_type", string(document.DocumentType)),
		zap.Int("version", version))
	return document, nil
}

// ListForTender returns a tender's document register for anyone who may
// view the tender.
func (s *DocumentService) ListForTender(ctx context.Context, actor *models.Actor, tenderID string) ([]models.Document, error) {
	tender, err := s.tenders.GetByID(ctx, tenderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tender not found")
		}
		return nil, appErrors.Internal(err, "load tender")
	}
	if !s.access.CanViewTender(actor, tender) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "denied by rule tender.VIEW")
	}
	documents, err := s.documents.ListByTender(ctx, tenderID)
	if err != nil {
		return nil, appErrors.Internal(err, "list documents")
	}
	return documents, nil
}

// SignDownload issues a short-lived download token for a document the
// actor may see.
func (s *DocumentService) SignDownload(ctx context.Context, actor *models.Actor, documentID string) (*SignedLink, error) {
	document, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Internal(err, "load document")
	}
	tender, err := s.tenders.GetByID(ctx, document.TenderID)
	if err != nil {
		return nil, appErrors.Internal(err, "load tender")
	}
	if !s.access.CanViewTender(actor, tender) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "denied by rule tender.VIEW")
	}
	token, expiresAt, err := s.signer.Generate(document.ID, document.FileURL)
	if err != nil {
		return nil, appErrors.Internal(err, "sign download")
	}
	return &SignedLink{Token: token, ExpiresAt: expiresAt}, nil
}

// OpenByToken validates a signed token and opens the underlying file.
// Token validity is the whole authorization; no actor context is needed.
func (s *DocumentService) OpenByToken(ctx context.Context, token string) (*models.Document, *os.File, error) {
	documentID, ref, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	document, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, nil, appErrors.Internal(err, "load document")
	}
	if document.FileURL != ref {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "token does not match the stored file")
	}
	file, err := s.objects.Open(ref)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "open document file")
	}
	return document, file, nil
}
