package models

import "time"

// DocumentType classifies an uploaded tender document.
type DocumentType string

const (
	DocumentTypeSpecification  DocumentType = "SPECIFICATION"
	DocumentTypeBidAttachment  DocumentType = "BID_ATTACHMENT"
	DocumentTypeContract       DocumentType = "CONTRACT"
	DocumentTypeProgressReport DocumentType = "PROGRESS_REPORT"
	DocumentTypeVerification   DocumentType = "VERIFICATION"
)

// Valid reports whether the type is a known value.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeSpecification, DocumentTypeBidAttachment, DocumentTypeContract,
		DocumentTypeProgressReport, DocumentTypeVerification:
		return true
	}
	return false
}

// Document references a file held by the external object store. Rows are
// immutable; superseding a document inserts a new row pointing back via
// ReplacesDocumentID, forming a version chain.
type Document struct {
	ID                 string       `db:"id" json:"id"`
	TenderID           string       `db:"tender_id" json:"tender_id"`
	UploaderID         string       `db:"uploader_id" json:"uploader_id"`
	DocumentType       DocumentType `db:"document_type" json:"document_type"`
	FileName           string       `db:"file_name" json:"file_name"`
	FileURL            string       `db:"file_url" json:"file_url"`
	ContentType        string       `db:"content_type" json:"content_type"`
	VersionNumber      int          `db:"version_number" json:"version_number"`
	ReplacesDocumentID *string      `db:"replaces_document_id" json:"replaces_document_id,omitempty"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
}
