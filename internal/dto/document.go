package dto

// UploadDocumentRequest accompanies a multipart document upload.
type UploadDocumentRequest struct {
	DocumentType       string  `form:"document_type" validate:"required"`
	ReplacesDocumentID *string `form:"replaces_document_id"`
}
