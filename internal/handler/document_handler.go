package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencivic/civicflow-api/internal/models"
	"github.com/opencivic/civicflow-api/internal/service"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
	"github.com/opencivic/civicflow-api/pkg/response"
)

// DocumentHandler exposes document upload and signed download endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload godoc
// @Summary Upload a document against a tender
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Tender ID"
// @Param file formData file true "Document file"
// @Param document_type formData string true "Document type"
// @Param replaces_document_id formData string false "Superseded document"
// @Success 201 {object} response.Envelope
// @Router /tenders/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "open uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	upload := service.DocumentUpload{
		TenderID:     c.Param("id"),
		DocumentType: models.DocumentType(c.PostForm("document_type")),
		FileName:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Size:         fileHeader.Size,
		Body:         file,
	}
	if replaces := c.PostForm("replaces_document_id"); replaces != "" {
		upload.ReplacesDocumentID = &replaces
	}
	document, err := h.documents.Upload(c.Request.Context(), actorFromContext(c), upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, document)
}

// List godoc
// @Summary List a tender's documents
// @Tags Documents
// @Produce json
// @Param id path string true "Tender ID"
// @Success 200 {object} response.Envelope
// @Router /tenders/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	documents, err := h.documents.ListForTender(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, documents, nil)
}

// SignDownload godoc
// @Summary Issue a short-lived download token for a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/link [get]
func (h *DocumentHandler) SignDownload(c *gin.Context) {
	link, err := h.documents.SignDownload(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download a document through a signed token
// @Tags Documents
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /downloads/{token} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	document, file, err := h.documents.OpenByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+document.FileName+`"`)
	c.Header("Content-Type", document.ContentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
