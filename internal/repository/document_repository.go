package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencivic/civicflow-api/internal/models"
)

const documentColumns = `id, tender_id, uploader_id, document_type, file_name, file_url,
       content_type, version_number, replaces_document_id, created_at`

// DocumentRepository persists immutable tender document references.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document row. Rows are never updated; superseding a file
// inserts a new row with a bumped version pointing at its predecessor.
func (r *DocumentRepository) Create(ctx context.Context, document *models.Document) error {
	if document.ID == "" {
		document.ID = uuid.NewString()
	}
	if document.VersionNumber <= 0 {
		document.VersionNumber = 1
	}
	if document.CreatedAt.IsZero() {
		document.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO documents
	(id, tender_id, uploader_id, document_type, file_name, file_url, content_type, version_number, replaces_document_id, created_at)
	VALUES (:id, :tender_id, :uploader_id, :document_type, :file_name, :file_url, :content_type, :version_number, :replaces_document_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, document); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetByID fetches a document by identifier.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1`, documentColumns)
	var document models.Document
	if err := r.db.GetContext(ctx, &document, query, id); err != nil {
		return nil, err
	}
	return &document, nil
}

// ListByTender returns a tender's documents, newest first.
func (r *DocumentRepository) ListByTender(ctx context.Context, tenderID string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE tender_id = $1 ORDER BY created_at DESC`, documentColumns)
	var documents []models.Document
	if err := r.db.SelectContext(ctx, &documents, query, tenderID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return documents, nil
}

// LatestVersion returns the highest version number in the chain rooted at
// the given document, or zero when the document is unknown.
func (r *DocumentRepository) LatestVersion(ctx context.Context, id string) (int, error) {
	const query = `SELECT version_number FROM documents WHERE id = $1`
	var version int
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get document version: %w", err)
	}
	return version, nil
}
